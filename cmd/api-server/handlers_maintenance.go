package main

import (
	"net/http"
	"time"

	"github.com/campushq/attendance/internal/attendance"
	"github.com/campushq/attendance/internal/model"
	"github.com/campushq/attendance/internal/request"
	"github.com/campushq/attendance/internal/response"
	"github.com/campushq/attendance/internal/validator"
)

type requestUpdateActivity struct {
	TimeIn            *time.Time `json:"timeIn"`
	TimeOut           *time.Time `json:"timeOut"`
	InvalidationNotes *string    `json:"invalidationNotes"`
}

func (app *application) handleUpdateSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := sessionIDFromRequest(r)
	if err != nil {
		app.badRequest(w, r, err)
		return
	}

	var input requestUpdateActivity
	if err := request.DecodeJSONStrict(w, r, &input); err != nil {
		app.badRequest(w, r, err)
		return
	}

	session, err := app.maintenance.UpdateSession(ctx, id, attendance.UpdateSessionInput{
		TimeIn:            input.TimeIn,
		TimeOut:           input.TimeOut,
		InvalidationNotes: input.InvalidationNotes,
	})
	if err != nil {
		app.attendanceError(w, r, err)
		return
	}

	app.respondActivity(w, r, session)
}

type requestInvalidateActivity struct {
	Notes string `json:"notes"`
}

func (app *application) handleInvalidateSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := sessionIDFromRequest(r)
	if err != nil {
		app.badRequest(w, r, err)
		return
	}

	var input requestInvalidateActivity
	if err := request.DecodeJSONStrict(w, r, &input); err != nil {
		app.badRequest(w, r, err)
		return
	}

	var v validator.Validator
	v.CheckField(validator.NotBlank(input.Notes), "notes", "cannot be blank")
	if v.HasErrors() {
		app.failedValidation(w, r, v)
		return
	}

	session, err := app.maintenance.Invalidate(ctx, id, input.Notes)
	if err != nil {
		app.attendanceError(w, r, err)
		return
	}

	app.respondActivity(w, r, session)
}

func (app *application) handleRevalidateSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := sessionIDFromRequest(r)
	if err != nil {
		app.badRequest(w, r, err)
		return
	}

	session, err := app.maintenance.Revalidate(ctx, id)
	if err != nil {
		app.attendanceError(w, r, err)
		return
	}

	app.respondActivity(w, r, session)
}

func (app *application) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := sessionIDFromRequest(r)
	if err != nil {
		app.badRequest(w, r, err)
		return
	}

	if err := app.maintenance.DeleteSession(ctx, id); err != nil {
		app.attendanceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type requestBulkAction struct {
	IDs []model.ID `json:"ids"`
}

type requestBulkInvalidate struct {
	IDs   []model.ID `json:"ids"`
	Notes string     `json:"notes"`
}

type requestBulkAdjust struct {
	IDs     []model.ID `json:"ids"`
	TimeIn  *time.Time `json:"timeIn"`
	TimeOut *time.Time `json:"timeOut"`
}

func (app *application) handleBulkClose(w http.ResponseWriter, r *http.Request) {
	var input requestBulkAction
	if err := request.DecodeJSONStrict(w, r, &input); err != nil {
		app.badRequest(w, r, err)
		return
	}
	if !app.validBulkIDs(w, r, input.IDs) {
		return
	}

	count, err := app.maintenance.BulkClose(r.Context(), input.IDs)
	if err != nil {
		app.attendanceError(w, r, err)
		return
	}

	app.respondBulkCount(w, r, count)
}

func (app *application) handleBulkInvalidate(w http.ResponseWriter, r *http.Request) {
	var input requestBulkInvalidate
	if err := request.DecodeJSONStrict(w, r, &input); err != nil {
		app.badRequest(w, r, err)
		return
	}
	if !app.validBulkIDs(w, r, input.IDs) {
		return
	}

	count, err := app.maintenance.BulkInvalidate(r.Context(), input.IDs, input.Notes)
	if err != nil {
		app.attendanceError(w, r, err)
		return
	}

	app.respondBulkCount(w, r, count)
}

func (app *application) handleBulkRevalidate(w http.ResponseWriter, r *http.Request) {
	var input requestBulkAction
	if err := request.DecodeJSONStrict(w, r, &input); err != nil {
		app.badRequest(w, r, err)
		return
	}
	if !app.validBulkIDs(w, r, input.IDs) {
		return
	}

	count, err := app.maintenance.BulkRevalidate(r.Context(), input.IDs)
	if err != nil {
		app.attendanceError(w, r, err)
		return
	}

	app.respondBulkCount(w, r, count)
}

func (app *application) handleBulkDelete(w http.ResponseWriter, r *http.Request) {
	var input requestBulkAction
	if err := request.DecodeJSONStrict(w, r, &input); err != nil {
		app.badRequest(w, r, err)
		return
	}
	if !app.validBulkIDs(w, r, input.IDs) {
		return
	}

	count, err := app.maintenance.BulkDelete(r.Context(), input.IDs)
	if err != nil {
		app.attendanceError(w, r, err)
		return
	}

	app.respondBulkCount(w, r, count)
}

func (app *application) handleBulkAdjust(w http.ResponseWriter, r *http.Request) {
	var input requestBulkAdjust
	if err := request.DecodeJSONStrict(w, r, &input); err != nil {
		app.badRequest(w, r, err)
		return
	}
	if !app.validBulkIDs(w, r, input.IDs) {
		return
	}

	count, err := app.maintenance.BulkAdjust(r.Context(), input.IDs, attendance.AdjustTimesDTO{
		TimeIn:  input.TimeIn,
		TimeOut: input.TimeOut,
	})
	if err != nil {
		app.attendanceError(w, r, err)
		return
	}

	app.respondBulkCount(w, r, count)
}

func (app *application) validBulkIDs(w http.ResponseWriter, r *http.Request, ids []model.ID) bool {
	var v validator.Validator
	validateBulkIDs(&v, ids)
	if v.HasErrors() {
		app.failedValidation(w, r, v)
		return false
	}
	return true
}

func (app *application) respondBulkCount(w http.ResponseWriter, r *http.Request, count int) {
	if err := response.JSON(w, http.StatusOK, response.JSONObject{"count": count}); err != nil {
		app.serverError(w, r, err)
	}
}

func (app *application) respondActivity(w http.ResponseWriter, r *http.Request, session model.Session) {
	items, err := app.decorateSessions(r.Context(), []model.Session{session})
	if err != nil {
		app.serverError(w, r, err)
		return
	}

	if err := response.JSON(w, http.StatusOK, items[0]); err != nil {
		app.serverError(w, r, err)
	}
}
