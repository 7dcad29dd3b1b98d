package main

import (
	"net/http"
	"time"

	"github.com/campushq/attendance/internal/attendance"
	"github.com/campushq/attendance/internal/ctxstore"
	"github.com/campushq/attendance/internal/model"
	"github.com/campushq/attendance/internal/response"
	"github.com/campushq/attendance/internal/validator"
)

type responseSummary struct {
	Items    []attendance.AccountSummary `json:"items"`
	Total    int                         `json:"total"`
	DateFrom *time.Time                  `json:"dateFrom"`
	DateTo   *time.Time                  `json:"dateTo"`
}

func (app *application) handleSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	filter := attendance.SummaryFilter{Department: optionalStringQueryParams(r, "department")}

	if from, ok, err := timeQueryParams(r, "dateFrom"); err != nil {
		app.badRequest(w, r, err)
		return
	} else if ok {
		filter.DateFrom = &from
	}
	if to, ok, err := timeQueryParams(r, "dateTo"); err != nil {
		app.badRequest(w, r, err)
		return
	} else if ok {
		filter.DateTo = &to
	}

	items, err := app.views.Summary(ctx, filter)
	if err != nil {
		app.serverError(w, r, err)
		return
	}

	resp := responseSummary{
		Items:    items,
		Total:    len(items),
		DateFrom: filter.DateFrom,
		DateTo:   filter.DateTo,
	}
	if err := response.JSON(w, http.StatusOK, resp); err != nil {
		app.serverError(w, r, err)
	}
}

type responsePerformance struct {
	Items []attendance.PerformanceStat `json:"items"`
	Total int                          `json:"total"`
}

func (app *application) handlePerformance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	a := ctxstore.MustFrom[actor](ctx, _actorKey)

	filter := attendance.PerformanceFilter{
		Search:    optionalStringQueryParams(r, "search"),
		JobID:     optionalIDQueryParams(r, "jobId"),
		Status:    defaultStringQueryParams(r, "status", "all"),
		Role:      defaultStringQueryParams(r, "role", "student"),
		Suspended: defaultStringQueryParams(r, "suspended", "false"),
	}

	var v validator.Validator
	v.CheckField(validator.In(filter.Status, "active", "inactive", "all"), "status", "must be active, inactive or all")
	v.CheckField(validator.In(filter.Role, "student", "manager", "all"), "role", "must be student, manager or all")
	v.CheckField(validator.In(filter.Suspended, "true", "false", "all"), "suspended", "must be true, false or all")
	if v.HasErrors() {
		app.failedValidation(w, r, v)
		return
	}

	// Students see only their own line, whatever filters they send.
	if a.Role == model.RoleStudent {
		self := a.ID
		filter = attendance.PerformanceFilter{
			Status:    "all",
			Role:      "all",
			Suspended: "all",
			Self:      &self,
		}
	}

	items, err := app.views.Performance(ctx, filter)
	if err != nil {
		app.serverError(w, r, err)
		return
	}

	resp := responsePerformance{Items: items, Total: len(items)}
	if err := response.JSON(w, http.StatusOK, resp); err != nil {
		app.serverError(w, r, err)
	}
}

func (app *application) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := defaultIntQueryParams(r, "limit", attendance.LeaderboardDefaultLimit)

	var dateFrom, dateTo *time.Time
	if from, ok, err := timeQueryParams(r, "dateFrom"); err != nil {
		app.badRequest(w, r, err)
		return
	} else if ok {
		dateFrom = &from
	}
	if to, ok, err := timeQueryParams(r, "dateTo"); err != nil {
		app.badRequest(w, r, err)
		return
	} else if ok {
		to = endOfDay(to)
		dateTo = &to
	}

	entries, err := app.views.Leaderboard(ctx, limit, dateFrom, dateTo)
	if err != nil {
		app.serverError(w, r, err)
		return
	}

	if err := response.JSON(w, http.StatusOK, entries); err != nil {
		app.serverError(w, r, err)
	}
}
