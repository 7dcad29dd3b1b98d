package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (app *application) routes() http.Handler {
	mux := chi.NewRouter()

	mux.NotFound(app.notFound)
	mux.MethodNotAllowed(app.methodNotAllowed)

	mux.Use(app.traceID)
	mux.Use(app.logAccess)
	mux.Use(app.recoverPanic)

	mux.Use(app.CORS)
	mux.Use(app.authenticate)

	mux.Get("/api/v1/status", app.handleStatus)

	// Punch and the kiosk board are public: the punch station has no
	// session of its own.
	mux.Post("/api/v1/attendance/punch", app.handlePunch)
	mux.Get("/api/v1/attendance/public/active", app.handlePublicActiveNames)

	mux.Get("/api/v1/attendance", app.requireManager(app.handleListActivities))
	mux.Get("/api/v1/attendance/active", app.requireManager(app.handleActiveSessions))
	mux.Get("/api/v1/attendance/overdue/count", app.requireManager(app.handleOverdueCount))
	mux.Get("/api/v1/attendance/summary", app.requireManager(app.handleSummary))
	mux.Get("/api/v1/attendance/student/{studentId}", app.requireAuthenticated(app.handleStudentActivities))

	mux.Put("/api/v1/attendance/{sessionId}", app.requireManager(app.handleUpdateSession))
	mux.Put("/api/v1/attendance/{sessionId}/invalidate", app.requireManager(app.handleInvalidateSession))
	mux.Put("/api/v1/attendance/{sessionId}/revalidate", app.requireManager(app.handleRevalidateSession))
	mux.Delete("/api/v1/attendance/{sessionId}", app.requireManager(app.handleDeleteSession))

	mux.Post("/api/v1/attendance/bulk/close", app.requireManager(app.handleBulkClose))
	mux.Post("/api/v1/attendance/bulk/invalidate", app.requireManager(app.handleBulkInvalidate))
	mux.Post("/api/v1/attendance/bulk/revalidate", app.requireManager(app.handleBulkRevalidate))
	mux.Post("/api/v1/attendance/bulk/delete", app.requireManager(app.handleBulkDelete))
	mux.Post("/api/v1/attendance/bulk/adjust", app.requireManager(app.handleBulkAdjust))

	mux.Get("/api/v1/performance", app.requireAuthenticated(app.handlePerformance))
	mux.Get("/api/v1/leaderboards/top-performers", app.requireAuthenticated(app.handleLeaderboard))

	mux.Post("/api/v1/time-adjustments", app.requireManager(app.handleCreateAdjustment))
	mux.Get("/api/v1/time-adjustments", app.requireAuthenticated(app.handleListAdjustments))
	mux.Delete("/api/v1/time-adjustments/{adjustmentId}", app.requireManager(app.handleDeleteAdjustment))

	app.logger.Debug("routes configured", "routes", chiRoutesToStrings(mux.Routes()))

	return mux
}

func chiRoutesToStrings(routes []chi.Route) []string {
	parsedRoutes := make([]string, 0, len(routes))
	for _, route := range routes {
		parsedRoutes = append(parsedRoutes, route.Pattern)
	}
	return parsedRoutes
}
