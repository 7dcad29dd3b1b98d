package main

import (
	"fmt"
	"net/http"

	"github.com/campushq/attendance/internal/attendance"
	"github.com/campushq/attendance/internal/request"
	"github.com/campushq/attendance/internal/response"
	"github.com/campushq/attendance/internal/validator"
)

func (app *application) handleStatus(w http.ResponseWriter, r *http.Request) {
	if err := response.JSON(w, http.StatusOK, response.JSONObject{"status": "OK"}); err != nil {
		app.serverError(w, r, err)
	}
}

type requestPunch struct {
	SchoolID          string `json:"schoolId"`
	ForceEarlyTimeout bool   `json:"forceEarlyTimeout"`
}

type responsePunch struct {
	attendance.PunchResult
	Title   string `json:"title"`
	Message string `json:"message"`
}

// handlePunch records a time-in or time-out for whoever holds the
// school ID. Public: the kiosk punch station is unauthenticated.
func (app *application) handlePunch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var input requestPunch
	if err := request.DecodeJSONStrict(w, r, &input); err != nil {
		app.badRequest(w, r, err)
		return
	}

	var v validator.Validator
	validatePunchRequest(&v, input)
	if v.HasErrors() {
		app.failedValidation(w, r, v)
		return
	}

	result, err := app.engine.Punch(ctx, input.SchoolID, input.ForceEarlyTimeout)
	if err != nil {
		app.attendanceError(w, r, err)
		return
	}

	resp := responsePunch{PunchResult: result}
	switch result.Status {
	case attendance.PunchTimeIn:
		resp.Title = fmt.Sprintf("Hello, %s", result.AccountName)
		resp.Message = "Time in recorded"
	case attendance.PunchTimeOut:
		resp.Title = fmt.Sprintf("Goodbye, %s", result.AccountName)
		resp.Message = "Time out recorded"
	}

	if err := response.JSON(w, http.StatusOK, resp); err != nil {
		app.serverError(w, r, err)
	}
}
