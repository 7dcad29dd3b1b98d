package main

import (
	"math"
	"net/http"

	"github.com/campushq/attendance/internal/attendance"
	"github.com/campushq/attendance/internal/ctxstore"
	"github.com/campushq/attendance/internal/model"
	"github.com/campushq/attendance/internal/request"
	"github.com/campushq/attendance/internal/response"
	"github.com/campushq/attendance/internal/validator"
)

type requestCreateAdjustment struct {
	AccountID model.ID `json:"accountId"`
	Minutes   int      `json:"adjustmentMinutes"`
	Reason    string   `json:"reason"`
}

func (app *application) handleCreateAdjustment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	a := ctxstore.MustFrom[actor](ctx, _actorKey)

	var input requestCreateAdjustment
	if err := request.DecodeJSONStrict(w, r, &input); err != nil {
		app.badRequest(w, r, err)
		return
	}

	var v validator.Validator
	validateAdjustmentRequest(&v, input)
	if v.HasErrors() {
		app.failedValidation(w, r, v)
		return
	}

	adjustment, err := app.adjuster.Create(ctx, input.AccountID, a.ID, input.Minutes, input.Reason)
	if err != nil {
		app.attendanceError(w, r, err)
		return
	}

	if err := response.JSON(w, http.StatusCreated, adjustment); err != nil {
		app.serverError(w, r, err)
	}
}

type responseAdjustmentList struct {
	Items      []model.TimeAdjustment `json:"items"`
	Total      int                    `json:"total"`
	Page       int                    `json:"page"`
	PageSize   int                    `json:"pageSize"`
	TotalPages int                    `json:"totalPages"`
}

func (app *application) handleListAdjustments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	a := ctxstore.MustFrom[actor](ctx, _actorKey)

	page := defaultIntQueryParams(r, "page", 1)
	pageSize := defaultIntQueryParams(r, "pageSize", 20)

	var v validator.Validator
	v.CheckField(page >= 1, "page", "must be at least 1")
	v.CheckField(validator.Between(pageSize, 1, 100), "pageSize", "must be between 1 and 100")
	if v.HasErrors() {
		app.failedValidation(w, r, v)
		return
	}

	account := optionalIDQueryParams(r, "accountId")
	if a.Role == model.RoleStudent {
		// Students only see their own corrections.
		self := a.ID
		account = &self
	}

	items, total, err := app.adjuster.List(ctx, account, attendance.FindOptions{
		Limit:  pageSize,
		Offset: (page - 1) * pageSize,
	})
	if err != nil {
		app.serverError(w, r, err)
		return
	}

	totalPages := 1
	if total > 0 {
		totalPages = int(math.Ceil(float64(total) / float64(pageSize)))
	}

	resp := responseAdjustmentList{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}
	if err := response.JSON(w, http.StatusOK, resp); err != nil {
		app.serverError(w, r, err)
	}
}

func (app *application) handleDeleteAdjustment(w http.ResponseWriter, r *http.Request) {
	id, err := adjustmentIDFromRequest(r)
	if err != nil {
		app.badRequest(w, r, err)
		return
	}

	if err := app.adjuster.Delete(r.Context(), id); err != nil {
		app.attendanceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
