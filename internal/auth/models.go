// Package auth covers registration, login, JWT issuance and session
// revocation for the three platform roles.
package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	dErrors "bloodlink/pkg/domain-errors"
)

// Roles the platform knows about.
const (
	RoleDonor     = "donor"
	RolePatient   = "patient"
	RoleBloodBank = "blood_bank"
)

// User is the single identity record; role-specific fields are nullable in
// the schema and empty when not applicable.
type User struct {
	ID           uuid.UUID `json:"id"`
	Role         string    `json:"role"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	BloodType    string    `json:"bloodType,omitempty"`
	City         string    `json:"city,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	Address      string    `json:"address,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Session is the server-side record behind an access token. Deleting it
// revokes the token before its JWT expiry.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Role      string    `json:"role"`
	Browser   string    `json:"browser,omitempty"`
	OS        string    `json:"os,omitempty"`
	Mobile    bool      `json:"mobile"`
	IP        string    `json:"ip,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
}

// RegisterParams is the registration body. Blood type and city are required
// for donors, city and address for blood banks.
type RegisterParams struct {
	Role      string `json:"role" validate:"required,oneof=donor patient blood_bank"`
	Name      string `json:"name" validate:"required,min=2,max=100"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8,max=72"`
	BloodType string `json:"bloodType" validate:"omitempty,oneof=A+ A- B+ B- AB+ AB- O+ O-"`
	City      string `json:"city" validate:"omitempty,max=100"`
	Phone     string `json:"phone" validate:"omitempty,max=20"`
	Address   string `json:"address" validate:"omitempty,max=200"`
}

// Validate checks field bounds plus the role-conditional requirements.
func (p *RegisterParams) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fieldErrors(err)
	}
	details := make(map[string]string)
	switch p.Role {
	case RoleDonor:
		if p.BloodType == "" {
			details["bloodType"] = "is required for donors"
		}
		if p.City == "" {
			details["city"] = "is required for donors"
		}
	case RoleBloodBank:
		if p.City == "" {
			details["city"] = "is required for blood banks"
		}
		if p.Address == "" {
			details["address"] = "is required for blood banks"
		}
	}
	if len(details) > 0 {
		return dErrors.NewValidation("validation failed", details)
	}
	return nil
}

// LoginParams is the login body.
type LoginParams struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Validate checks field bounds.
func (p *LoginParams) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fieldErrors(err)
	}
	return nil
}

func fieldErrors(err error) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return dErrors.New(dErrors.CodeBadRequest, "invalid request")
	}
	details := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		details[lowerFirst(fe.Field())] = fieldMessage(fe)
	}
	return dErrors.NewValidation("validation failed", details)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
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
