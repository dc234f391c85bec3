package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	apimiddleware "textworker/internal/api/middleware"
)

// NewRouter creates the application router with all routes and middleware.
func NewRouter(tasks *TaskHandler, health *HealthHandler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apimiddleware.TraceMiddleware)

	r.Route("/api", func(r chi.Router) {
		r.Post("/tasks/{type}", tasks.SubmitTask)
		r.Get("/tasks/{id}", tasks.GetTask)
	})

	r.Get("/healthz", health.Live)
	r.Get("/readyz", health.Ready)

	return r
}
