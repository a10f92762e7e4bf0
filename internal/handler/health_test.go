package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/samims/birthday/internal/service"
	"github.com/samims/birthday/internal/storage"
)

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name       string
		pingErr    error
		route      func(h *HealthHandler) http.HandlerFunc
		ping       bool
		wantStatus int
	}{
		{name: "liveness", route: func(h *HealthHandler) http.HandlerFunc { return h.Liveness }, wantStatus: http.StatusOK},
		{name: "ready", route: func(h *HealthHandler) http.HandlerFunc { return h.Readiness }, ping: true, wantStatus: http.StatusOK},
		{name: "not ready", route: func(h *HealthHandler) http.HandlerFunc { return h.Readiness }, ping: true, pingErr: errors.New("down"), wantStatus: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := storage.NewMockUserStorage(t)
			if tt.ping {
				store.On("Ping", mock.Anything).Return(tt.pingErr)
			}
			h := NewHealthHandler(service.NewHealthService(store, zap.NewNop()))

			rec := httptest.NewRecorder()
			tt.route(h)(rec, httptest.NewRequest(http.MethodGet, "/", nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}
