package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/samims/birthday/internal/handler"
	customMiddleware "github.com/samims/birthday/internal/middleware"
)

func NewRouter(h *handler.UserHandler, healthHandler *handler.HealthHandler) http.Handler {
	r := chi.NewRouter()

	r.Use(customMiddleware.MetricsMiddleware)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Post("/user", h.Create)
	r.Delete("/user", h.Delete)
	r.Put("/user", h.Edit)

	r.Get("/healthz", healthHandler.Liveness)
	r.Get("/readyz", healthHandler.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	return r
}
