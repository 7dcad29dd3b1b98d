package main

import (
	"github.com/campushq/attendance/internal/model"
	"github.com/campushq/attendance/internal/validator"
)

// Validation rules

func validatePunchRequest(v *validator.Validator, request requestPunch) {
	v.CheckField(validator.NotBlank(request.SchoolID), "schoolId", "cannot be blank")
	v.CheckField(validator.MaxRunes(request.SchoolID, 64), "schoolId", "must not be longer than 64 characters")
}

func validateBulkIDs(v *validator.Validator, ids []model.ID) {
	v.CheckField(validator.NoDuplicates(ids), "ids", "must not contain duplicates")
	for _, id := range ids {
		if id == 0 {
			v.AddFieldError("ids", "must not contain zero ids")
			break
		}
	}
}

func validateAdjustmentRequest(v *validator.Validator, request requestCreateAdjustment) {
	v.CheckField(request.AccountID != 0, "accountId", "cannot be blank")
	v.CheckField(request.Minutes != 0, "adjustmentMinutes", "cannot be zero")
	v.CheckField(validator.Between(request.Minutes, -1440, 1440), "adjustmentMinutes", "must be between -1440 and 1440")
	v.CheckField(validator.NotBlank(request.Reason), "reason", "cannot be blank")
	v.CheckField(validator.MaxRunes(request.Reason, 500), "reason", "must not be longer than 500 characters")
}
