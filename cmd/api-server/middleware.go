package main

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/cors"
	"github.com/tomasen/realip"

	"github.com/campushq/attendance/internal/ctxstore"
	"github.com/campushq/attendance/internal/model"
	"github.com/campushq/attendance/internal/response"
)

const (
	_traceIDKey = ctxstore.Key("traceId")
	_actorKey   = ctxstore.Key("actor")
)

// actor is the authenticated caller, resolved upstream by the identity
// proxy and forwarded in trusted headers. Credential checks themselves
// live outside this service.
type actor struct {
	ID   model.ID
	Role model.Role
}

func (a actor) manager() bool {
	return a.Role == model.RoleAdmin || a.Role == model.RoleManager
}

func (app *application) traceID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tid := genTraceID()
		ctx := ctxstore.With(r.Context(), _traceIDKey, tid)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (app *application) recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			err := recover()
			if err != nil {
				app.serverError(w, r, fmt.Errorf("%s", err))
			}
		}()

		next.ServeHTTP(w, r)
	})
}

func (app *application) logAccess(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mw := response.NewMetricsResponseWriter(w)
		next.ServeHTTP(mw, r)

		var (
			ip     = realip.FromRequest(r)
			method = r.Method
			url    = r.URL.String()
			proto  = r.Proto
			tid    = ctxstore.MustFrom[string](r.Context(), _traceIDKey)
		)

		userAttrs := slog.Group("user", "ip", ip)
		requestAttrs := slog.Group("request", "method", method, "url", url, "proto", proto, _traceIDKey.String(), tid)
		responseAttrs := slog.Group("response", "status", mw.StatusCode, "size", mw.BytesCount)

		app.serverLogger().Info("access", userAttrs, requestAttrs, responseAttrs)
	})
}

func (app *application) CORS(next http.Handler) http.Handler {
	return cors.AllowAll().Handler(next)
}

// authenticate stores the forwarded identity on the context; requests
// with no identity headers proceed as anonymous and are stopped later
// by the role guards.
func (app *application) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		a, ok := actorFromRequest(r)
		if ok {
			r = r.WithContext(ctxstore.With(r.Context(), _actorKey, a))
		}
		next.ServeHTTP(w, r)
	})
}

func (app *application) requireAuthenticated(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := ctxstore.From[actor](r.Context(), _actorKey); !ok {
			app.errorMessage(w, r, http.StatusUnauthorized, "authentication required", nil)
			return
		}
		next.ServeHTTP(w, r)
	}
}

func (app *application) requireManager(next http.HandlerFunc) http.HandlerFunc {
	return app.requireAuthenticated(func(w http.ResponseWriter, r *http.Request) {
		a := ctxstore.MustFrom[actor](r.Context(), _actorKey)
		if !a.manager() {
			app.errorMessage(w, r, http.StatusForbidden, "admin or manager role required", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func genTraceID() string {
	id, _ := uuid.NewRandom()
	return id.String()
}
