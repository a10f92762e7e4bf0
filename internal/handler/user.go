package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	appErr "github.com/samims/birthday/internal/errors"
	"github.com/samims/birthday/internal/logger"
	"github.com/samims/birthday/internal/model"
	"github.com/samims/birthday/internal/service"
	"github.com/samims/birthday/pkg/tracing"
)

const (
	msgCreated  = "User created successfully"
	msgDeleted  = "User deleted successfully"
	msgUpdated  = "User details updated successfully"
	msgInvalid  = "Invalid user data"
	msgNotFound = "User not found"
	msgInternal = "Internal server error"
)

type UserHandler struct {
	svc    service.UserService
	logger *zap.Logger
	tracer *tracing.Tracer
}

func NewUserHandler(s service.UserService, l *zap.Logger, tracer *tracing.Tracer) *UserHandler {
	return &UserHandler{svc: s, logger: logger.Component(l, "handler", "userHandler"), tracer: tracer}
}

func respondJSON(w http.ResponseWriter, status int, body map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func respondMessage(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"message": message})
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps the error taxonomy to a status. Persistence
// details stay in the logs.
func (h *UserHandler) respondServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case appErr.IsValidation(err):
		h.logger.Warn(op+" rejected", zap.Error(err))
		respondError(w, http.StatusBadRequest, msgInvalid)
	case appErr.IsNotFound(err):
		h.logger.Info(op+" found no user", zap.Error(err))
		respondError(w, http.StatusNotFound, msgNotFound)
	default:
		h.logger.Error(op+" failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, msgInternal)
	}
}

// endSpan stamps the request attributes with the final status and ends the span.
func (h *UserHandler) endSpan(span trace.Span, r *http.Request, ww middleware.WrapResponseWriter) {
	h.tracer.AddRequestAttributes(span, r.Method, r.URL.Path, r.UserAgent(), ww.Status())
	span.End()
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
	ctx, span := h.tracer.StartServerSpan(r.Context(), "CreateUser")
	defer h.endSpan(span, r, ww)

	var req model.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid create payload", zap.Error(err))
		respondError(ww, http.StatusBadRequest, msgInvalid)
		return
	}
	span.SetAttributes(attribute.String(tracing.AttrUserFullName, req.FullName))

	if err := h.svc.Create(ctx, req); err != nil {
		h.tracer.RecordError(span, err)
		h.respondServiceError(ww, "create user", err)
		return
	}
	respondMessage(ww, http.StatusCreated, msgCreated)
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
	ctx, span := h.tracer.StartServerSpan(r.Context(), "DeleteUser")
	defer h.endSpan(span, r, ww)

	// an unreadable body names no user, so nothing can match
	var req model.DeleteUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Info("unreadable delete payload", zap.Error(err))
		respondError(ww, http.StatusNotFound, msgNotFound)
		return
	}
	span.SetAttributes(attribute.String(tracing.AttrUserFullName, req.FullName))

	if err := h.svc.Delete(ctx, req.FullName); err != nil {
		h.tracer.RecordError(span, err)
		h.respondServiceError(ww, "delete user", err)
		return
	}
	respondMessage(ww, http.StatusOK, msgDeleted)
}

func (h *UserHandler) Edit(w http.ResponseWriter, r *http.Request) {
	ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
	ctx, span := h.tracer.StartServerSpan(r.Context(), "EditUser")
	defer h.endSpan(span, r, ww)

	var req model.EditUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid edit payload", zap.Error(err))
		respondError(ww, http.StatusBadRequest, msgInvalid)
		return
	}
	span.SetAttributes(attribute.String(tracing.AttrUserFullName, req.FullName))

	if err := h.svc.Edit(ctx, req); err != nil {
		h.tracer.RecordError(span, err)
		h.respondServiceError(ww, "edit user", err)
		return
	}
	respondMessage(ww, http.StatusOK, msgUpdated)
}
