package main

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/campushq/attendance/internal/attendance"
	"github.com/campushq/attendance/internal/response"
	"github.com/campushq/attendance/internal/validator"
)

func (app *application) errorMessage(w http.ResponseWriter, r *http.Request, status int, message string, headers http.Header) {
	message = strings.ToUpper(message[:1]) + message[1:]

	err := response.JSONWithHeaders(w, status, response.JSONObject{"Error": message}, headers)
	if err != nil {
		app.reportServerError(r, err)
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func (app *application) serverError(w http.ResponseWriter, r *http.Request, err error) {
	app.reportServerError(r, err)

	message := "The server encountered a problem and could not process your request"
	app.errorMessage(w, r, http.StatusInternalServerError, message, nil)
}

func (app *application) reportServerError(r *http.Request, err error) {
	var (
		message = err.Error()
		method  = r.Method
		url     = r.URL.String()
		trace   = string(debug.Stack())
	)

	requestAttrs := slog.Group("request", "method", method, "url", url)
	app.logger.Error(message, requestAttrs, "trace", trace)
}

func (app *application) notFound(w http.ResponseWriter, r *http.Request) {
	message := "The requested resource could not be found"
	app.errorMessage(w, r, http.StatusNotFound, message, nil)
}

func (app *application) methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	message := fmt.Sprintf("The %s method is not supported for this resource", r.Method)
	app.errorMessage(w, r, http.StatusMethodNotAllowed, message, nil)
}

func (app *application) badRequest(w http.ResponseWriter, r *http.Request, err error) {
	app.errorMessage(w, r, http.StatusBadRequest, err.Error(), nil)
}

func (app *application) failedValidation(w http.ResponseWriter, r *http.Request, v validator.Validator) {
	err := response.JSON(w, http.StatusUnprocessableEntity, v)
	if err != nil {
		app.serverError(w, r, err)
	}
}

// attendanceError maps core outcomes onto HTTP statuses. The early
// time-out warning keeps its fixed detail string so punch stations can
// show the confirmation prompt.
func (app *application) attendanceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, attendance.ErrAccountNotFound):
		app.errorMessage(w, r, http.StatusNotFound,
			"Account not found. Double check your School ID, or contact the administrator.", nil)

	case errors.Is(err, attendance.ErrSessionNotFound):
		app.errorMessage(w, r, http.StatusNotFound, "Activity not found", nil)

	case errors.Is(err, attendance.ErrAdjustmentNotFound):
		app.errorMessage(w, r, http.StatusNotFound, "Adjustment not found", nil)

	case errors.Is(err, attendance.ErrAccountSuspended):
		app.errorMessage(w, r, http.StatusForbidden,
			"Account is suspended. Please contact administrator.", nil)

	case errors.Is(err, attendance.ErrAccountJobless):
		app.errorMessage(w, r, http.StatusForbidden,
			"Your account is jobless. Please contact your manager to assign you to a job.", nil)

	case errors.Is(err, attendance.ErrEarlyTimeout):
		app.errorMessage(w, r, http.StatusConflict, "EARLY_TIMEOUT_WARNING", nil)

	case errors.Is(err, attendance.ErrNoFields):
		app.errorMessage(w, r, http.StatusBadRequest, "No fields to update", nil)

	case errors.Is(err, attendance.ErrNotStudent):
		app.errorMessage(w, r, http.StatusBadRequest,
			"Adjustments can only be made for student accounts", nil)

	default:
		app.serverError(w, r, err)
	}
}
