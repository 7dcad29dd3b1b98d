package main

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/campushq/attendance/internal/model"
)

const _customTimeLayout = "2006-01-02 15:04:05 MST"

func sessionIDFromRequest(r *http.Request) (model.ID, error) {
	id, err := strconv.Atoi(chi.URLParam(r, "sessionId"))
	return model.ID(id), err
}

func studentIDFromRequest(r *http.Request) (model.ID, error) {
	id, err := strconv.Atoi(chi.URLParam(r, "studentId"))
	return model.ID(id), err
}

func adjustmentIDFromRequest(r *http.Request) (model.ID, error) {
	id, err := strconv.Atoi(chi.URLParam(r, "adjustmentId"))
	return model.ID(id), err
}

func actorFromRequest(r *http.Request) (actor, bool) {
	id, err := strconv.Atoi(r.Header.Get("X-Account-Id"))
	if err != nil || id <= 0 {
		return actor{}, false
	}

	role := model.Role(r.Header.Get("X-Account-Role"))
	switch role {
	case model.RoleStudent, model.RoleManager, model.RoleAdmin:
	default:
		return actor{}, false
	}

	return actor{ID: model.ID(id), Role: role}, true
}

func timeQueryParams(r *http.Request, key string, layout ...string) (time.Time, bool, error) {
	layout = append(layout, time.RFC3339, _customTimeLayout, "2006-01-02")
	val, ok := r.URL.Query().Get(key), r.URL.Query().Has(key)
	if !ok {
		return time.Time{}, false, nil
	}
	val = strings.TrimPrefix(val, "'")
	val = strings.TrimPrefix(val, "\"")
	val = strings.TrimSuffix(val, "'")
	val = strings.TrimSuffix(val, "\"")

	var t time.Time
	var err error
	for _, l := range layout {
		if t, err = time.Parse(l, val); err == nil {
			return t, true, nil
		}
	}
	return time.Time{}, true, err
}

func defaultIntQueryParams(r *http.Request, key string, def int) int {
	val, ok := r.URL.Query().Get(key), r.URL.Query().Has(key)
	if !ok {
		return def
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return def
	}
	return i
}

func defaultStringQueryParams(r *http.Request, key, def string) string {
	if !r.URL.Query().Has(key) {
		return def
	}
	return r.URL.Query().Get(key)
}

func optionalStringQueryParams(r *http.Request, key string) *string {
	ref := new(string)
	val, ok := r.URL.Query().Get(key), r.URL.Query().Has(key)
	if !ok {
		return nil
	}
	*ref = val
	return ref
}

func optionalIDQueryParams(r *http.Request, key string) *model.ID {
	val, ok := r.URL.Query().Get(key), r.URL.Query().Has(key)
	if !ok {
		return nil
	}
	intVal, err := strconv.Atoi(val)
	if err != nil {
		return nil
	}
	ref := new(model.ID)
	*ref = model.ID(intVal)
	return ref
}

func boolQueryParams(r *http.Request, key string) bool {
	val, err := strconv.ParseBool(r.URL.Query().Get(key))
	return err == nil && val
}

// endOfDay widens a date-only upper bound to the last instant of that
// day so "to 2024-06-01" includes the whole day.
func endOfDay(t time.Time) time.Time {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 {
		return t.Add(24*time.Hour - time.Nanosecond)
	}
	return t
}
