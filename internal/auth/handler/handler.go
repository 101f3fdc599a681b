// Package handler exposes registration, login and logout over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"

	"bloodlink/internal/auth"
	"bloodlink/internal/platform/middleware"
	"bloodlink/internal/transport/http/shared"
	dErrors "bloodlink/pkg/domain-errors"
)

// Service is the auth surface the handler depends on.
type Service interface {
	Register(ctx context.Context, params auth.RegisterParams) (*auth.User, error)
	Login(ctx context.Context, params auth.LoginParams, device auth.Device) (*auth.LoginResult, error)
	Logout(ctx context.Context, sessionID string) error
}

// Handler serves the auth endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New builds the handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterPublic mounts the unauthenticated routes.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Post("/api/auth/register", h.register)
	r.Post("/api/auth/login", h.login)
}

// RegisterProtected mounts the routes that require a valid token.
func (h *Handler) RegisterProtected(r chi.Router) {
	r.Post("/api/auth/logout", h.logout)
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var params auth.RegisterParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"), h.logger)
		return
	}

	user, err := h.service.Register(r.Context(), params)
	if err != nil {
		shared.WriteError(w, err, h.logger)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, map[string]any{
		"message": "Registration successful",
		"user":    user,
	})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var params auth.LoginParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"), h.logger)
		return
	}

	result, err := h.service.Login(r.Context(), params, auth.Device{
		UserAgent: r.UserAgent(),
		IP:        clientIP(r),
	})
	if err != nil {
		shared.WriteError(w, err, h.logger)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"token":     result.Token,
		"expiresAt": result.ExpiresAt,
		"user":      result.User,
	})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Logout(r.Context(), middleware.GetSessionID(r.Context())); err != nil {
		shared.WriteError(w, err, h.logger)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"message": "Logged out"})
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
