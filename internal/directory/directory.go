// Package directory serves the public lookup of donors and blood banks by
// city, used to pair patients with nearby donors.
package directory

import (
	"context"

	"github.com/google/uuid"

	dErrors "bloodlink/pkg/domain-errors"
)

// DonorEntry is the directory view of a donor. Contact details are exposed
// to authenticated callers only.
type DonorEntry struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	BloodType string    `json:"bloodType"`
	City      string    `json:"city"`
	Phone     string    `json:"phone,omitempty"`
}

// BloodBankEntry is the directory view of a blood bank.
type BloodBankEntry struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	City    string    `json:"city"`
	Address string    `json:"address"`
}

// Store is the lookup surface. City matching is case-insensitive.
type Store interface {
	FindDonors(ctx context.Context, city, bloodType string) ([]DonorEntry, error)
	FindBloodBanks(ctx context.Context, city string) ([]BloodBankEntry, error)
}

// Service validates lookup parameters and delegates to the store.
type Service struct {
	store Store
}

// NewService builds the service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

func validBloodType(t string) bool {
	switch t {
	case "A+", "A-", "B+", "B-", "AB+", "AB-", "O+", "O-":
		return true
	}
	return false
}

// Donors returns donors in the given city, optionally narrowed to one blood
// type.
func (s *Service) Donors(ctx context.Context, city, bloodType string) ([]DonorEntry, error) {
	if city == "" {
		return nil, dErrors.NewValidation("validation failed", map[string]string{"city": "is required"})
	}
	if bloodType != "" && !validBloodType(bloodType) {
		return nil, dErrors.NewValidation("validation failed", map[string]string{
			"bloodType": "must be one of: A+ A- B+ B- AB+ AB- O+ O-",
		})
	}
	donors, err := s.store.FindDonors(ctx, city, bloodType)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list donors")
	}
	return donors, nil
}

// BloodBanks returns blood banks in the given city.
func (s *Service) BloodBanks(ctx context.Context, city string) ([]BloodBankEntry, error) {
	if city == "" {
		return nil, dErrors.NewValidation("validation failed", map[string]string{"city": "is required"})
	}
	banks, err := s.store.FindBloodBanks(ctx, city)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list blood banks")
	}
	return banks, nil
}
