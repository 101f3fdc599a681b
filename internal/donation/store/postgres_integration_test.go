//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bloodlink/db"
	"bloodlink/internal/donation"
	"bloodlink/internal/donation/store"
	"bloodlink/pkg/platform/sentinel"
	"bloodlink/pkg/testutil/containers"
)

func setupStore(t *testing.T) (*store.Postgres, context.Context, *containers.PostgresContainer) {
	t.Helper()
	ctx := context.Background()
	pg := containers.NewPostgresContainer(t)
	require.NoError(t, db.Migrate(ctx, pg.DB))
	return store.NewPostgres(pg.DB), ctx, pg
}

func seedUser(t *testing.T, pg *containers.PostgresContainer, role, name, email string) uuid.UUID {
	t.Helper()
	id := uuid.New()
	_, err := pg.DB.Exec(`
		INSERT INTO users (id, role, name, email, password_hash, blood_type, city)
		VALUES ($1, $2, $3, $4, 'x', 'O+', 'Pune')`,
		id, role, name, email)
	require.NoError(t, err)
	return id
}

func seedRequest(t *testing.T, ctx context.Context, s *store.Postgres, donorID, patientID, bankID uuid.UUID) *donation.Request {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Microsecond)
	req := &donation.Request{
		ID:             uuid.New(),
		DonorID:        donorID,
		PatientID:      patientID,
		BloodBankID:    bankID,
		DonorBloodType: "O+",
		UrgencyLevel:   donation.UrgencyHigh,
		Status:         donation.StatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	require.NoError(t, s.CreateRequest(ctx, req))
	return req
}

func TestPostgres_RequestLifecycle(t *testing.T) {
	s, ctx, pg := setupStore(t)

	donorID := seedUser(t, pg, "donor", "Asha Rao", "asha@example.com")
	patientID := seedUser(t, pg, "patient", "Vikram Shah", "vikram@example.com")
	bankID := seedUser(t, pg, "blood_bank", "CityBank", "bank@example.com")

	req := seedRequest(t, ctx, s, donorID, patientID, bankID)

	loaded, err := s.GetRequestForBank(ctx, req.ID, bankID)
	require.NoError(t, err)
	assert.Equal(t, donation.StatusPending, loaded.Status)
	assert.Nil(t, loaded.CertificateURL)

	// Another bank cannot see the request.
	otherBank := seedUser(t, pg, "blood_bank", "OtherBank", "other@example.com")
	_, err = s.GetRequestForBank(ctx, req.ID, otherBank)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)

	// First fulfillment wins, the second hits the pending guard.
	require.NoError(t, s.MarkRequestFulfilled(ctx, req.ID))
	assert.ErrorIs(t, s.MarkRequestFulfilled(ctx, req.ID), sentinel.ErrInvalidState)

	require.NoError(t, s.SetCertificateURL(ctx, req.ID, "http://storage/cert.pdf"))
	loaded, err = s.GetRequestForBank(ctx, req.ID, bankID)
	require.NoError(t, err)
	require.NotNil(t, loaded.CertificateURL)
	assert.Equal(t, "http://storage/cert.pdf", *loaded.CertificateURL)
}

func TestPostgres_RejectGuards(t *testing.T) {
	s, ctx, pg := setupStore(t)

	donorID := seedUser(t, pg, "donor", "Asha Rao", "asha@example.com")
	patientID := seedUser(t, pg, "patient", "Vikram Shah", "vikram@example.com")
	bankID := seedUser(t, pg, "blood_bank", "CityBank", "bank@example.com")
	req := seedRequest(t, ctx, s, donorID, patientID, bankID)

	rejected, err := s.MarkRequestRejected(ctx, req.ID, bankID)
	require.NoError(t, err)
	assert.Equal(t, donation.StatusRejected, rejected.Status)

	_, err = s.MarkRequestRejected(ctx, req.ID, bankID)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestPostgres_UnitsJoinAndFilter(t *testing.T) {
	s, ctx, pg := setupStore(t)

	donorID := seedUser(t, pg, "donor", "Asha Rao", "asha@example.com")
	patientID := seedUser(t, pg, "patient", "Vikram Shah", "vikram@example.com")
	bankID := seedUser(t, pg, "blood_bank", "CityBank", "bank@example.com")
	req := seedRequest(t, ctx, s, donorID, patientID, bankID)
	require.NoError(t, s.MarkRequestFulfilled(ctx, req.ID))

	units := make([]donation.BloodUnit, 0, 2)
	for n := 1; n <= 2; n++ {
		units = append(units, donation.BloodUnit{
			ID:                uuid.New(),
			UnitNumber:        n,
			DonationRequestID: req.ID,
			DonorID:           donorID,
			DonorName:         "Asha Rao",
			DonorBloodType:    "O+",
			BloodBankID:       bankID,
			BloodBankName:     "CityBank",
			DonationDate:      req.CreatedAt,
			ExpiryDate:        req.CreatedAt.AddDate(0, 0, 35),
			VolumeML:          donation.UnitVolumeML,
			Status:            donation.UnitAvailable,
			Barcode:           donation.Barcode("CityBank", req.ID, n),
		})
	}
	require.NoError(t, s.CreateBloodUnits(ctx, units))

	listed, err := s.ListUnitsForBank(ctx, bankID, "")
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, patientID, listed[0].PatientID)
	assert.Equal(t, donation.UrgencyHigh, listed[0].UrgencyLevel)

	available, err := s.ListUnitsForBank(ctx, bankID, donation.UnitAvailable)
	require.NoError(t, err)
	assert.Len(t, available, 2)

	used, err := s.ListUnitsForBank(ctx, bankID, donation.UnitUsed)
	require.NoError(t, err)
	assert.Empty(t, used)
}

func TestPostgres_ProfileLookups(t *testing.T) {
	s, ctx, pg := setupStore(t)

	donorID := seedUser(t, pg, "donor", "Asha Rao", "asha@example.com")
	bankID := seedUser(t, pg, "blood_bank", "CityBank", "bank@example.com")

	donor, err := s.GetDonor(ctx, donorID)
	require.NoError(t, err)
	assert.Equal(t, "Asha Rao", donor.Name)
	assert.Equal(t, "O+", donor.BloodType)

	// Role scoping: a donor id is not a blood bank.
	_, err = s.GetBloodBank(ctx, donorID)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)

	bank, err := s.GetBloodBank(ctx, bankID)
	require.NoError(t, err)
	assert.Equal(t, "CityBank", bank.Name)
}
