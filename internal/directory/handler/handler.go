// Package handler exposes the directory lookups over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"bloodlink/internal/directory"
	"bloodlink/internal/transport/http/shared"
)

// Service is the lookup surface the handler depends on.
type Service interface {
	Donors(ctx context.Context, city, bloodType string) ([]directory.DonorEntry, error)
	BloodBanks(ctx context.Context, city string) ([]directory.BloodBankEntry, error)
}

// Handler serves the directory endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New builds the handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the directory routes inside the authenticated group.
func (h *Handler) Register(r chi.Router) {
	r.Route("/api/directory", func(r chi.Router) {
		r.Get("/donors", h.donors)
		r.Get("/bloodbanks", h.bloodBanks)
	})
}

func (h *Handler) donors(w http.ResponseWriter, r *http.Request) {
	donors, err := h.service.Donors(r.Context(), r.URL.Query().Get("city"), r.URL.Query().Get("bloodType"))
	if err != nil {
		shared.WriteError(w, err, h.logger)
		return
	}
	if donors == nil {
		donors = []directory.DonorEntry{}
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"donors": donors})
}

func (h *Handler) bloodBanks(w http.ResponseWriter, r *http.Request) {
	banks, err := h.service.BloodBanks(r.Context(), r.URL.Query().Get("city"))
	if err != nil {
		shared.WriteError(w, err, h.logger)
		return
	}
	if banks == nil {
		banks = []directory.BloodBankEntry{}
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"bloodBanks": banks})
}
