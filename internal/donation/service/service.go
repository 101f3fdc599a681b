// Package service orchestrates the donation lifecycle: acceptance with its
// transactional inventory mutation and best-effort certificate flow,
// rejection, and inventory reporting.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"bloodlink/internal/audit"
	"bloodlink/internal/certificate"
	"bloodlink/internal/donation"
	"bloodlink/internal/platform/metrics"
	"bloodlink/internal/platform/middleware"
	dErrors "bloodlink/pkg/domain-errors"
	"bloodlink/pkg/platform/sentinel"
)

// Store is the persistence surface the service needs. Postgres and memory
// implementations live in the store package.
type Store interface {
	CreateRequest(ctx context.Context, req *donation.Request) error
	GetRequestForBank(ctx context.Context, id, bloodBankID uuid.UUID) (*donation.Request, error)
	ListRequestsForBank(ctx context.Context, bloodBankID uuid.UUID, status donation.RequestStatus) ([]donation.Request, error)
	MarkRequestFulfilled(ctx context.Context, id uuid.UUID) error
	MarkRequestRejected(ctx context.Context, id, bloodBankID uuid.UUID) (*donation.Request, error)
	CreateBloodUnits(ctx context.Context, units []donation.BloodUnit) error
	SetCertificateURL(ctx context.Context, id uuid.UUID, url string) error
	ListUnitsForBank(ctx context.Context, bloodBankID uuid.UUID, status donation.UnitStatus) ([]donation.UnitWithRequest, error)
	GetBloodBank(ctx context.Context, id uuid.UUID) (*donation.BloodBank, error)
	GetDonor(ctx context.Context, id uuid.UUID) (*donation.Donor, error)
	GetPatient(ctx context.Context, id uuid.UUID) (*donation.Patient, error)
}

// TxRunner provides the transactional boundary for acceptance. The function
// receives a store bound to the transaction; returning an error rolls back.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(store Store) error) error
}

// CertificateIssuer runs the best-effort certificate flow after commit.
type CertificateIssuer interface {
	Issue(ctx context.Context, d certificate.Details) certificate.Outcome
}

// Publisher emits audit events without blocking request handling.
type Publisher interface {
	Emit(ctx context.Context, event audit.Event)
}

// Service implements the donation workflow engine.
type Service struct {
	store   Store
	tx      TxRunner
	certs   CertificateIssuer
	audit   Publisher
	metrics *metrics.Metrics
	logger  *slog.Logger
	tracer  trace.Tracer
}

// New wires the service. Every collaborator is injected so tests can
// substitute fakes.
func New(store Store, tx TxRunner, certs CertificateIssuer, publisher Publisher, m *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{
		store:   store,
		tx:      tx,
		certs:   certs,
		audit:   publisher,
		metrics: m,
		logger:  logger,
		tracer:  otel.Tracer("bloodlink/donation"),
	}
}

// AcceptResult is everything the handler needs to answer an acceptance.
type AcceptResult struct {
	Request           *donation.Request
	Units             []donation.BloodUnit
	TotalUnitsCreated int
	CertificateURL    *string
	Message           string
}

const notFoundMsg = "donation request not found or not pending"

// Accept fulfills a pending donation request for the calling blood bank.
//
// Preconditions are checked in order: input shape, actor identity, request
// existence/ownership/pending status, bank record. The status flip and unit
// creation commit atomically; the certificate flow runs strictly after the
// commit and can only degrade the response message, never fail the request.
func (s *Service) Accept(ctx context.Context, bloodBankID uuid.UUID, params donation.AcceptParams) (*AcceptResult, error) {
	ctx, span := s.tracer.Start(ctx, "donation.accept")
	defer span.End()

	params.Normalize()
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if bloodBankID == uuid.Nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "blood bank identity required")
	}
	requestID, err := uuid.Parse(params.DonationRequestID)
	if err != nil {
		// Validate already vetted the format; keep the check for direct callers.
		return nil, dErrors.NewValidation("validation failed", map[string]string{"donationRequestId": "must be a valid UUID"})
	}

	request, err := s.store.GetRequestForBank(ctx, requestID, bloodBankID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, notFoundMsg)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load donation request")
	}
	if request.Status != donation.StatusPending {
		return nil, dErrors.New(dErrors.CodeNotFound, notFoundMsg)
	}

	bank, err := s.store.GetBloodBank(ctx, bloodBankID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			// Unreachable for an authenticated actor, checked defensively.
			return nil, dErrors.New(dErrors.CodeNotFound, "blood bank not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load blood bank")
	}

	donor, donorErr := s.store.GetDonor(ctx, request.DonorID)

	units := buildUnits(request, bank, donor, params)

	txCtx, txSpan := s.tracer.Start(ctx, "donation.accept.tx",
		trace.WithAttributes(attribute.Int("donation.units", len(units))))
	err = s.tx.RunInTx(txCtx, func(store Store) error {
		if err := store.MarkRequestFulfilled(txCtx, requestID); err != nil {
			return err
		}
		return store.CreateBloodUnits(txCtx, units)
	})
	txSpan.End()
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) || errors.Is(err, sentinel.ErrInvalidState) {
			// A concurrent acceptance won the race on the pending guard.
			return nil, dErrors.New(dErrors.CodeNotFound, notFoundMsg)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to accept donation")
	}

	now := time.Now().UTC()
	request.Status = donation.StatusSuccess
	request.UpdatedAt = now

	s.metrics.RecordAcceptance(len(units))
	s.audit.Emit(ctx, audit.Event{
		Action:            audit.ActionDonationAccepted,
		ActorID:           bloodBankID.String(),
		RequestID:         middleware.GetRequestID(ctx),
		DonationRequestID: requestID.String(),
		BloodBankID:       bloodBankID.String(),
		Detail:            map[string]string{"units": strconv.Itoa(len(units))},
	})

	result := &AcceptResult{
		Request:           request,
		Units:             units,
		TotalUnitsCreated: len(units),
	}
	result.CertificateURL, result.Message = s.issueCertificate(ctx, request, bank, donor, donorErr, units)
	return result, nil
}

// issueCertificate runs the post-commit certificate flow and folds its
// outcome into the response message and URL.
func (s *Service) issueCertificate(ctx context.Context, request *donation.Request, bank *donation.BloodBank, donor *donation.Donor, donorErr error, units []donation.BloodUnit) (*string, string) {
	ctx, span := s.tracer.Start(ctx, "donation.certificate")
	defer span.End()

	patient, patientErr := s.store.GetPatient(ctx, request.PatientID)

	details := certificate.Details{
		Request: *request,
		Units:   units,
		Bank:    *bank,
	}
	if donorErr == nil {
		details.Donor = donor
	}
	if patientErr == nil {
		details.Patient = patient
	}

	outcome := s.certs.Issue(ctx, details)
	switch outcome.Status {
	case certificate.StatusIssued:
		if err := s.store.SetCertificateURL(ctx, request.ID, outcome.URL); err != nil {
			// The object exists in storage but the row still points nowhere;
			// accepted eventual-consistency window.
			s.metrics.RecordCertificateFailure("persist")
			s.logger.ErrorContext(ctx, "failed to persist certificate URL",
				"donation_request_id", request.ID,
				"error", err,
			)
			return nil, "Donation accepted; certificate could not be saved, but the donation was processed"
		}
		request.CertificateURL = &outcome.URL
		s.audit.Emit(ctx, audit.Event{
			Action:            audit.ActionCertificateIssued,
			RequestID:         middleware.GetRequestID(ctx),
			DonationRequestID: request.ID.String(),
			BloodBankID:       request.BloodBankID.String(),
			Detail:            map[string]string{"url": outcome.URL},
		})
		url := outcome.URL
		return &url, "Donation accepted and certificate generated"
	case certificate.StatusSkipped:
		return nil, "Donation accepted; certificate skipped due to missing details"
	default:
		return nil, "Donation accepted; certificate generation failed, but the donation was processed"
	}
}

// buildUnits materializes the blood units for an acceptance. Unit numbers
// are 1-indexed and sequential; the donation date is the request's creation
// date so expiry stays deterministic.
func buildUnits(request *donation.Request, bank *donation.BloodBank, donor *donation.Donor, params donation.AcceptParams) []donation.BloodUnit {
	donationDate := request.CreatedAt
	expiry := donationDate.AddDate(0, 0, params.ExpiryDays)
	donorName := ""
	if donor != nil {
		donorName = donor.Name
	}

	units := make([]donation.BloodUnit, 0, params.NumberOfUnits)
	for n := 1; n <= params.NumberOfUnits; n++ {
		units = append(units, donation.BloodUnit{
			ID:                uuid.New(),
			UnitNumber:        n,
			DonationRequestID: request.ID,
			DonorID:           request.DonorID,
			DonorName:         donorName,
			DonorBloodType:    request.DonorBloodType,
			BloodBankID:       bank.ID,
			BloodBankName:     bank.Name,
			DonationDate:      donationDate,
			ExpiryDate:        expiry,
			VolumeML:          donation.UnitVolumeML,
			Status:            donation.UnitAvailable,
			Barcode:           donation.Barcode(bank.Name, request.ID, n),
			Notes:             params.Notes,
		})
	}
	return units
}

// Reject transitions a pending request owned by the caller to rejected. The
// reason is accepted for API compatibility but not persisted.
func (s *Service) Reject(ctx context.Context, bloodBankID uuid.UUID, donationRequestID string, params donation.RejectParams) (*donation.Request, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if bloodBankID == uuid.Nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "blood bank identity required")
	}
	requestID, err := uuid.Parse(donationRequestID)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeNotFound, notFoundMsg)
	}

	request, err := s.store.MarkRequestRejected(ctx, requestID, bloodBankID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) || errors.Is(err, sentinel.ErrInvalidState) {
			return nil, dErrors.New(dErrors.CodeNotFound, notFoundMsg)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to reject donation")
	}

	s.metrics.RecordRejection()
	s.audit.Emit(ctx, audit.Event{
		Action:            audit.ActionDonationRejected,
		ActorID:           bloodBankID.String(),
		RequestID:         middleware.GetRequestID(ctx),
		DonationRequestID: requestID.String(),
		BloodBankID:       bloodBankID.String(),
		Detail:            map[string]string{"reason": params.Reason},
	})
	return request, nil
}

// Inventory is the unit listing plus its summary.
type Inventory struct {
	Units   []donation.UnitWithRequest
	Summary donation.InventorySummary
}

// ListUnits returns the caller's blood units, optionally filtered by status,
// most recent donation first, with the partitioned summary.
func (s *Service) ListUnits(ctx context.Context, bloodBankID uuid.UUID, statusFilter string) (*Inventory, error) {
	if bloodBankID == uuid.Nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "blood bank identity required")
	}
	if statusFilter != "" && !donation.ValidUnitStatus(statusFilter) {
		return nil, dErrors.NewValidation("validation failed", map[string]string{
			"status": "must be one of: available used expired discarded",
		})
	}

	units, err := s.store.ListUnitsForBank(ctx, bloodBankID, donation.UnitStatus(statusFilter))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list blood units")
	}
	return &Inventory{Units: units, Summary: donation.Summarize(units)}, nil
}

// Create registers a new pending donation request.
func (s *Service) Create(ctx context.Context, actorID uuid.UUID, params donation.CreateParams) (*donation.Request, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if actorID == uuid.Nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authenticated actor required")
	}

	now := time.Now().UTC()
	request := &donation.Request{
		ID:             uuid.New(),
		DonorID:        uuid.MustParse(params.DonorID),
		PatientID:      uuid.MustParse(params.PatientID),
		BloodBankID:    uuid.MustParse(params.BloodBankID),
		DonorBloodType: params.DonorBloodType,
		UrgencyLevel:   donation.UrgencyLevel(params.UrgencyLevel),
		Status:         donation.StatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.store.CreateRequest(ctx, request); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create donation request")
	}

	s.audit.Emit(ctx, audit.Event{
		Action:            audit.ActionDonationCreated,
		ActorID:           actorID.String(),
		RequestID:         middleware.GetRequestID(ctx),
		DonationRequestID: request.ID.String(),
		BloodBankID:       request.BloodBankID.String(),
	})
	return request, nil
}

// ListRequests returns the caller's donation requests, optionally filtered
// by status.
func (s *Service) ListRequests(ctx context.Context, bloodBankID uuid.UUID, statusFilter string) ([]donation.Request, error) {
	if bloodBankID == uuid.Nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "blood bank identity required")
	}
	switch donation.RequestStatus(statusFilter) {
	case "", donation.StatusPending, donation.StatusSuccess, donation.StatusRejected:
	default:
		return nil, dErrors.NewValidation("validation failed", map[string]string{
			"status": "must be one of: pending success rejected",
		})
	}

	requests, err := s.store.ListRequestsForBank(ctx, bloodBankID, donation.RequestStatus(statusFilter))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list donation requests")
	}
	return requests, nil
}
