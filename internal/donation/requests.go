package donation

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	dErrors "bloodlink/pkg/domain-errors"
)

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
}

// AcceptParams is the request body for accepting a pending donation request.
// Bounds mirror the API contract; defaults are applied by Normalize.
type AcceptParams struct {
	DonationRequestID string `json:"donationRequestId" validate:"required,uuid"`
	NumberOfUnits     int    `json:"numberOfUnits" validate:"omitempty,min=1,max=10"`
	Notes             string `json:"notes" validate:"omitempty,max=500"`
	ExpiryDays        int    `json:"expiryDays" validate:"omitempty,min=1,max=42"`
}

// Normalize applies documented defaults for omitted optional fields.
func (p *AcceptParams) Normalize() {
	if p.NumberOfUnits == 0 {
		p.NumberOfUnits = 1
	}
	if p.ExpiryDays == 0 {
		p.ExpiryDays = DefaultExpiryDays
	}
}

// Validate checks field bounds and returns a bad_request error carrying
// per-field messages.
func (p *AcceptParams) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fieldErrors(err)
	}
	return nil
}

// RejectParams is the request body for rejecting a donation request. Reason
// is accepted but not persisted; see DESIGN.md.
type RejectParams struct {
	Reason string `json:"reason" validate:"omitempty,max=500"`
}

// Validate checks field bounds.
func (p *RejectParams) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fieldErrors(err)
	}
	return nil
}

// CreateParams is the request body for creating a pending donation request.
type CreateParams struct {
	DonorID        string `json:"donorId" validate:"required,uuid"`
	PatientID      string `json:"patientId" validate:"required,uuid"`
	BloodBankID    string `json:"bloodBankId" validate:"required,uuid"`
	DonorBloodType string `json:"donorBloodType" validate:"required,oneof=A+ A- B+ B- AB+ AB- O+ O-"`
	UrgencyLevel   string `json:"urgencyLevel" validate:"required,oneof=low medium high critical"`
}

// Validate checks field bounds.
func (p *CreateParams) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fieldErrors(err)
	}
	return nil
}

// fieldErrors converts validator output into the per-field detail map the
// error envelope exposes.
func fieldErrors(err error) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return dErrors.New(dErrors.CodeBadRequest, "invalid request")
	}
	details := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		field := lowerFirst(fe.Field())
		details[field] = fieldMessage(fe)
	}
	return dErrors.NewValidation("validation failed", details)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "uuid":
		return "must be a valid UUID"
	default:
		return "is invalid"
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
