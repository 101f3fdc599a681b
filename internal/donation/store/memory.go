package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"bloodlink/internal/donation"
	"bloodlink/pkg/platform/sentinel"
)

// Memory is an in-memory donation store for tests and local development. It
// mirrors the Postgres store's guard semantics, including the pending-status
// check on state transitions.
type Memory struct {
	mu       sync.RWMutex
	requests map[uuid.UUID]*donation.Request
	units    map[uuid.UUID]*donation.BloodUnit
	banks    map[uuid.UUID]*donation.BloodBank
	donors   map[uuid.UUID]*donation.Donor
	patients map[uuid.UUID]*donation.Patient
}

// NewMemory builds an empty store.
func NewMemory() *Memory {
	return &Memory{
		requests: make(map[uuid.UUID]*donation.Request),
		units:    make(map[uuid.UUID]*donation.BloodUnit),
		banks:    make(map[uuid.UUID]*donation.BloodBank),
		donors:   make(map[uuid.UUID]*donation.Donor),
		patients: make(map[uuid.UUID]*donation.Patient),
	}
}

// PutBloodBank seeds a blood bank profile.
func (s *Memory) PutBloodBank(bank donation.BloodBank) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.banks[bank.ID] = &bank
}

// PutDonor seeds a donor profile.
func (s *Memory) PutDonor(donor donation.Donor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.donors[donor.ID] = &donor
}

// PutPatient seeds a patient profile.
func (s *Memory) PutPatient(patient donation.Patient) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.patients[patient.ID] = &patient
}

// CreateRequest stores a new donation request.
func (s *Memory) CreateRequest(_ context.Context, req *donation.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *req
	s.requests[req.ID] = &clone
	return nil
}

// GetRequestForBank returns a copy of the request scoped to its owning bank.
func (s *Memory) GetRequestForBank(_ context.Context, id, bloodBankID uuid.UUID) (*donation.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	req, ok := s.requests[id]
	if !ok || req.BloodBankID != bloodBankID {
		return nil, sentinel.ErrNotFound
	}
	clone := *req
	return &clone, nil
}

// ListRequestsForBank returns the bank's requests newest first.
func (s *Memory) ListRequestsForBank(_ context.Context, bloodBankID uuid.UUID, status donation.RequestStatus) ([]donation.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var requests []donation.Request
	for _, req := range s.requests {
		if req.BloodBankID != bloodBankID {
			continue
		}
		if status != "" && req.Status != status {
			continue
		}
		requests = append(requests, *req)
	}
	sort.Slice(requests, func(i, j int) bool {
		return requests[i].CreatedAt.After(requests[j].CreatedAt)
	})
	return requests, nil
}

// MarkRequestFulfilled flips a pending request to success, enforcing the
// same single-winner guard as the SQL version.
func (s *Memory) MarkRequestFulfilled(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.requests[id]
	if !ok || req.Status != donation.StatusPending {
		return sentinel.ErrInvalidState
	}
	req.Status = donation.StatusSuccess
	return nil
}

// MarkRequestRejected flips a pending request owned by the bank to rejected.
func (s *Memory) MarkRequestRejected(_ context.Context, id, bloodBankID uuid.UUID) (*donation.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.requests[id]
	if !ok || req.BloodBankID != bloodBankID || req.Status != donation.StatusPending {
		return nil, sentinel.ErrNotFound
	}
	req.Status = donation.StatusRejected
	clone := *req
	return &clone, nil
}

// CreateBloodUnits stores the units of one acceptance.
func (s *Memory) CreateBloodUnits(_ context.Context, units []donation.BloodUnit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range units {
		clone := u
		s.units[u.ID] = &clone
	}
	return nil
}

// SetCertificateURL records the certificate location on the request.
func (s *Memory) SetCertificateURL(_ context.Context, id uuid.UUID, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.requests[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	req.CertificateURL = &url
	return nil
}

// ListUnitsForBank returns the bank's units joined with request context,
// most recent donation first.
func (s *Memory) ListUnitsForBank(_ context.Context, bloodBankID uuid.UUID, status donation.UnitStatus) ([]donation.UnitWithRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var units []donation.UnitWithRequest
	for _, u := range s.units {
		if u.BloodBankID != bloodBankID {
			continue
		}
		if status != "" && u.Status != status {
			continue
		}
		joined := donation.UnitWithRequest{BloodUnit: *u}
		if req, ok := s.requests[u.DonationRequestID]; ok {
			joined.PatientID = req.PatientID
			joined.UrgencyLevel = req.UrgencyLevel
			joined.RequestCreatedAt = req.CreatedAt
		}
		units = append(units, joined)
	}
	sort.Slice(units, func(i, j int) bool {
		if !units[i].DonationDate.Equal(units[j].DonationDate) {
			return units[i].DonationDate.After(units[j].DonationDate)
		}
		return units[i].UnitNumber < units[j].UnitNumber
	})
	return units, nil
}

// GetBloodBank returns a seeded blood bank profile.
func (s *Memory) GetBloodBank(_ context.Context, id uuid.UUID) (*donation.BloodBank, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	bank, ok := s.banks[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *bank
	return &clone, nil
}

// GetDonor returns a seeded donor profile.
func (s *Memory) GetDonor(_ context.Context, id uuid.UUID) (*donation.Donor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	donor, ok := s.donors[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *donor
	return &clone, nil
}

// GetPatient returns a seeded patient profile.
func (s *Memory) GetPatient(_ context.Context, id uuid.UUID) (*donation.Patient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	patient, ok := s.patients[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *patient
	return &clone, nil
}
