package handler

import (
	"net/http"

	"github.com/samims/birthday/internal/service"
)

type HealthHandler struct {
	service service.HealthService
}

func NewHealthHandler(svc service.HealthService) *HealthHandler {
	return &HealthHandler{service: svc}
}

func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Liveness(r.Context()); err != nil {
		http.Error(w, "unhealthy", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Readiness(r.Context()); err != nil {
		http.Error(w, "not ready", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ready"))
}
