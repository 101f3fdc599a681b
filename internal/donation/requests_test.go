package donation

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "bloodlink/pkg/domain-errors"
)

func TestAcceptParams_NormalizeDefaults(t *testing.T) {
	p := AcceptParams{DonationRequestID: uuid.NewString()}
	p.Normalize()

	assert.Equal(t, 1, p.NumberOfUnits)
	assert.Equal(t, DefaultExpiryDays, p.ExpiryDays)
}

func TestAcceptParams_NormalizeKeepsExplicitValues(t *testing.T) {
	p := AcceptParams{DonationRequestID: uuid.NewString(), NumberOfUnits: 5, ExpiryDays: 42}
	p.Normalize()

	assert.Equal(t, 5, p.NumberOfUnits)
	assert.Equal(t, 42, p.ExpiryDays)
}

func TestAcceptParams_Validate(t *testing.T) {
	valid := AcceptParams{DonationRequestID: uuid.NewString(), NumberOfUnits: 10, ExpiryDays: 42}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		params AcceptParams
		field  string
	}{
		{"missing id", AcceptParams{}, "donationRequestId"},
		{"bad id", AcceptParams{DonationRequestID: "xyz"}, "donationRequestId"},
		{"units over cap", AcceptParams{DonationRequestID: uuid.NewString(), NumberOfUnits: 11}, "numberOfUnits"},
		{"expiry over cap", AcceptParams{DonationRequestID: uuid.NewString(), ExpiryDays: 43}, "expiryDays"},
		{"long notes", AcceptParams{DonationRequestID: uuid.NewString(), Notes: string(make([]byte, 501))}, "notes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.params.Validate()
			require.Error(t, err)
			assert.Equal(t, dErrors.CodeBadRequest, dErrors.CodeOf(err))

			var derr *dErrors.DomainError
			require.ErrorAs(t, err, &derr)
			assert.Contains(t, derr.Details, tt.field)
		})
	}
}

func TestCreateParams_Validate(t *testing.T) {
	valid := CreateParams{
		DonorID:        uuid.NewString(),
		PatientID:      uuid.NewString(),
		BloodBankID:    uuid.NewString(),
		DonorBloodType: "AB-",
		UrgencyLevel:   "medium",
	}
	require.NoError(t, valid.Validate())

	invalid := valid
	invalid.DonorBloodType = "C+"
	err := invalid.Validate()
	require.Error(t, err)

	var derr *dErrors.DomainError
	require.ErrorAs(t, err, &derr)
	assert.Contains(t, derr.Details, "donorBloodType")
}
