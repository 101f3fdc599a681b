// Package handler exposes the donation lifecycle over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"bloodlink/internal/donation"
	"bloodlink/internal/donation/service"
	"bloodlink/internal/platform/middleware"
	"bloodlink/internal/transport/http/shared"
	dErrors "bloodlink/pkg/domain-errors"
)

//go:generate mockgen -source=handler.go -destination=mocks/service.go -package=mocks Service

// Service is the donation workflow surface the handler depends on.
type Service interface {
	Accept(ctx context.Context, bloodBankID uuid.UUID, params donation.AcceptParams) (*service.AcceptResult, error)
	Reject(ctx context.Context, bloodBankID uuid.UUID, donationRequestID string, params donation.RejectParams) (*donation.Request, error)
	ListUnits(ctx context.Context, bloodBankID uuid.UUID, statusFilter string) (*service.Inventory, error)
	Create(ctx context.Context, actorID uuid.UUID, params donation.CreateParams) (*donation.Request, error)
	ListRequests(ctx context.Context, bloodBankID uuid.UUID, statusFilter string) ([]donation.Request, error)
}

// Handler serves the donation endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New builds the handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the donation routes. The caller wraps them in the
// authentication middleware; role checks happen here.
func (h *Handler) Register(r chi.Router) {
	r.Route("/api/donations", func(r chi.Router) {
		r.Post("/", h.create)
		r.Get("/", h.list)
		r.Post("/accept", h.accept)
		r.Post("/{id}/reject", h.reject)
		r.Get("/units", h.listUnits)
	})
}

// acceptResponse is the acceptance envelope. CertificateURL is null when the
// certificate flow skipped or failed.
type acceptResponse struct {
	Message           string               `json:"message"`
	DonationRequest   *donation.Request    `json:"donationRequest"`
	BloodUnits        []donation.BloodUnit `json:"bloodUnits"`
	TotalUnitsCreated int                  `json:"totalUnitsCreated"`
	CertificateURL    *string              `json:"certificateUrl"`
}

func (h *Handler) accept(w http.ResponseWriter, r *http.Request) {
	bankID, ok := h.requireBank(w, r)
	if !ok {
		return
	}

	var params donation.AcceptParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"), h.logger)
		return
	}

	result, err := h.service.Accept(r.Context(), bankID, params)
	if err != nil {
		shared.WriteError(w, err, h.logger)
		return
	}
	shared.WriteJSON(w, http.StatusOK, acceptResponse{
		Message:           result.Message,
		DonationRequest:   result.Request,
		BloodUnits:        result.Units,
		TotalUnitsCreated: result.TotalUnitsCreated,
		CertificateURL:    result.CertificateURL,
	})
}

type rejectResponse struct {
	Message         string            `json:"message"`
	DonationRequest *donation.Request `json:"donationRequest"`
}

func (h *Handler) reject(w http.ResponseWriter, r *http.Request) {
	bankID, ok := h.requireBank(w, r)
	if !ok {
		return
	}

	var params donation.RejectParams
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
			shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"), h.logger)
			return
		}
	}

	request, err := h.service.Reject(r.Context(), bankID, chi.URLParam(r, "id"), params)
	if err != nil {
		shared.WriteError(w, err, h.logger)
		return
	}
	shared.WriteJSON(w, http.StatusOK, rejectResponse{
		Message:         "Donation request rejected",
		DonationRequest: request,
	})
}

type inventoryResponse struct {
	BloodUnits []donation.UnitWithRequest `json:"bloodUnits"`
	Summary    donation.InventorySummary  `json:"summary"`
}

func (h *Handler) listUnits(w http.ResponseWriter, r *http.Request) {
	bankID, ok := h.requireBank(w, r)
	if !ok {
		return
	}

	inventory, err := h.service.ListUnits(r.Context(), bankID, r.URL.Query().Get("status"))
	if err != nil {
		shared.WriteError(w, err, h.logger)
		return
	}
	if inventory.Units == nil {
		inventory.Units = []donation.UnitWithRequest{}
	}
	shared.WriteJSON(w, http.StatusOK, inventoryResponse{
		BloodUnits: inventory.Units,
		Summary:    inventory.Summary,
	})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	actorID, err := actorFromContext(r.Context())
	if err != nil {
		shared.WriteError(w, err, h.logger)
		return
	}

	var params donation.CreateParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"), h.logger)
		return
	}

	request, err := h.service.Create(r.Context(), actorID, params)
	if err != nil {
		shared.WriteError(w, err, h.logger)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, map[string]any{
		"message":         "Donation request created",
		"donationRequest": request,
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	bankID, ok := h.requireBank(w, r)
	if !ok {
		return
	}

	requests, err := h.service.ListRequests(r.Context(), bankID, r.URL.Query().Get("status"))
	if err != nil {
		shared.WriteError(w, err, h.logger)
		return
	}
	if requests == nil {
		requests = []donation.Request{}
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"donationRequests": requests})
}

// requireBank resolves the authenticated blood bank from the request context
// and writes the error response itself when the caller is not a blood bank.
func (h *Handler) requireBank(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"), h.logger)
		return uuid.Nil, false
	}
	if middleware.GetRole(r.Context()) != "blood_bank" {
		shared.WriteError(w, dErrors.New(dErrors.CodeForbidden, "blood bank role required"), h.logger)
		return uuid.Nil, false
	}
	bankID, err := uuid.Parse(userID)
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid actor identity"), h.logger)
		return uuid.Nil, false
	}
	return bankID, true
}

func actorFromContext(ctx context.Context) (uuid.UUID, error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	actorID, err := uuid.Parse(userID)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeUnauthorized, "invalid actor identity")
	}
	return actorID, nil
}
