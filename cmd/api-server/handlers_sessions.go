package main

import (
	"context"
	"math"
	"net/http"
	"time"

	"github.com/campushq/attendance/internal/attendance"
	"github.com/campushq/attendance/internal/ctxstore"
	"github.com/campushq/attendance/internal/model"
	"github.com/campushq/attendance/internal/response"
	"github.com/campushq/attendance/internal/validator"
)

// activityRecord is a session decorated with directory data for
// display.
type activityRecord struct {
	model.Session
	AccountName           string `json:"accountName"`
	SchoolID              string `json:"schoolId"`
	DurationMinutes       *int   `json:"durationMinutes"`
	AccountProfilePicture string `json:"accountProfilePicture"`
}

type responseActivityList struct {
	Items      []activityRecord `json:"items"`
	Total      int              `json:"total"`
	Page       int              `json:"page"`
	PageSize   int              `json:"pageSize"`
	TotalPages int              `json:"totalPages"`
}

func (app *application) handleListActivities(w http.ResponseWriter, r *http.Request) {
	app.listActivities(w, r, optionalIDQueryParams(r, "accountId"))
}

// handleStudentActivities serves one account's history. Students may
// only read their own.
func (app *application) handleStudentActivities(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	a := ctxstore.MustFrom[actor](ctx, _actorKey)

	studentID, err := studentIDFromRequest(r)
	if err != nil {
		app.badRequest(w, r, err)
		return
	}

	if a.Role == model.RoleStudent && a.ID != studentID {
		app.errorMessage(w, r, http.StatusForbidden, "You can only view your own activity history", nil)
		return
	}

	if a.manager() {
		if _, err := app.accounts.Get(ctx, studentID); err != nil {
			app.attendanceError(w, r, attendance.ErrAccountNotFound)
			return
		}
	}

	app.listActivities(w, r, &studentID)
}

func (app *application) listActivities(w http.ResponseWriter, r *http.Request, accountID *model.ID) {
	ctx := r.Context()

	page := defaultIntQueryParams(r, "page", 1)
	pageSize := defaultIntQueryParams(r, "pageSize", 20)
	sortBy := defaultStringQueryParams(r, "sortBy", "time_in")
	sortOrder := defaultStringQueryParams(r, "sortOrder", "desc")

	var v validator.Validator
	v.CheckField(page >= 1, "page", "must be at least 1")
	v.CheckField(validator.Between(pageSize, 1, 100), "pageSize", "must be between 1 and 100")
	v.CheckField(validator.In(sortBy, "time_in", "time_out", "duration_minutes"), "sortBy", "unsupported sort key")
	v.CheckField(validator.In(sortOrder, "asc", "desc"), "sortOrder", "must be asc or desc")
	if v.HasErrors() {
		app.failedValidation(w, r, v)
		return
	}

	filter := attendance.SessionFilter{Account: accountID}

	if boolQueryParams(r, "activeOnly") {
		filter.OpenOnly = true
		from := app.startOfToday()
		filter.DateFrom = &from
	} else {
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
			to = endOfDay(to)
			filter.DateTo = &to
		}
		// A session still running must stay visible even outside the
		// requested window.
		filter.OrOpen = filter.DateFrom != nil || filter.DateTo != nil
	}

	total, err := app.engine.Store.Count(ctx, filter)
	if err != nil {
		app.serverError(w, r, err)
		return
	}

	sessions, err := app.engine.Store.Find(ctx, filter, attendance.FindOptions{
		Limit:     pageSize,
		Offset:    (page - 1) * pageSize,
		SortBy:    sortBy,
		SortOrder: sortOrder,
		OpenFirst: true,
	})
	if err != nil {
		app.serverError(w, r, err)
		return
	}

	items, err := app.decorateSessions(ctx, sessions)
	if err != nil {
		app.serverError(w, r, err)
		return
	}

	totalPages := 1
	if total > 0 {
		totalPages = int(math.Ceil(float64(total) / float64(pageSize)))
	}

	resp := responseActivityList{
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

func (app *application) handleActiveSessions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sessions, err := app.views.ActiveSessions(ctx)
	if err != nil {
		app.serverError(w, r, err)
		return
	}

	items, err := app.decorateSessions(ctx, sessions)
	if err != nil {
		app.serverError(w, r, err)
		return
	}

	if err := response.JSON(w, http.StatusOK, items); err != nil {
		app.serverError(w, r, err)
	}
}

func (app *application) handlePublicActiveNames(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var since *time.Time
	if from, ok, err := timeQueryParams(r, "dateFrom"); err != nil {
		app.badRequest(w, r, err)
		return
	} else if ok {
		since = &from
	}

	names, err := app.views.ActiveNames(ctx, since)
	if err != nil {
		app.serverError(w, r, err)
		return
	}

	if err := response.JSON(w, http.StatusOK, names); err != nil {
		app.serverError(w, r, err)
	}
}

func (app *application) handleOverdueCount(w http.ResponseWriter, r *http.Request) {
	count, err := app.views.OverdueCount(r.Context())
	if err != nil {
		app.serverError(w, r, err)
		return
	}

	if err := response.JSON(w, http.StatusOK, response.JSONObject{"count": count}); err != nil {
		app.serverError(w, r, err)
	}
}

func (app *application) decorateSessions(ctx context.Context, sessions []model.Session) ([]activityRecord, error) {
	records := make([]activityRecord, 0, len(sessions))
	if len(sessions) == 0 {
		return records, nil
	}

	accounts, err := app.accounts.Find(ctx, attendance.AccountFilter{})
	if err != nil {
		return nil, err
	}

	byID := make(map[model.ID]model.Account, len(accounts))
	for _, a := range accounts {
		byID[a.ID] = a
	}

	for _, s := range sessions {
		record := activityRecord{Session: s}
		if account, ok := byID[s.Account]; ok {
			record.AccountName = account.DisplayName()
			record.SchoolID = account.SchoolID
		}
		if d, ok := s.Duration(); ok {
			minutes := int(d.Minutes())
			record.DurationMinutes = &minutes
		}
		record.AccountProfilePicture = app.profilePicture(s.Account)
		records = append(records, record)
	}

	return records, nil
}
