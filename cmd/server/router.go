package main

import (
	"net/http"

	"github.com/air-con/task-manager/internal/api"
	apiMiddleware "github.com/air-con/task-manager/internal/api/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// setupRouter creates the application router with all routes and
// middleware. Mutating endpoints sit behind API-key authentication; the
// read-only views are public.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)

	taskHandler := api.NewTaskHandler(
		app.ingestService,
		app.priorityService,
		app.statusService,
		app.taskStore,
		app.probe,
		app.scheduler.State(),
		app.notifySwitch,
		app.config.Queue.InjectPriority,
	)
	notificationHandler := api.NewNotificationHandler(app.notifySwitch, app.logger)
	auth := apiMiddleware.NewAPIKeyMiddleware(app.config.Auth.APIKeyHash)

	r.Route("/api", func(r chi.Router) {
		// Read-only views (public)
		r.Get("/tasks/status", taskHandler.Status)
		r.Get("/notifications/status", notificationHandler.Status)

		// Mutating endpoints
		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate)
			r.Post("/tasks/ingest", taskHandler.Ingest)
			r.Post("/tasks/priority-queue", taskHandler.InjectPriority)
			r.Post("/tasks/update-status", taskHandler.UpdateStatus)
			r.Post("/notifications/toggle", notificationHandler.Toggle)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("failed to write health check response", "error", err)
		}
	})

	return r
}
