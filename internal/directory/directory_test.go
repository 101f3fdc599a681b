package directory_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bloodlink/internal/directory"
	"bloodlink/internal/directory/store"
	dErrors "bloodlink/pkg/domain-errors"
)

func seededService() *directory.Service {
	mem := store.NewMemory()
	mem.AddDonor(directory.DonorEntry{ID: uuid.New(), Name: "Asha Rao", BloodType: "O+", City: "Pune"})
	mem.AddDonor(directory.DonorEntry{ID: uuid.New(), Name: "Ravi Iyer", BloodType: "A-", City: "Pune"})
	mem.AddDonor(directory.DonorEntry{ID: uuid.New(), Name: "Meera Nair", BloodType: "O+", City: "Kochi"})
	mem.AddBloodBank(directory.BloodBankEntry{ID: uuid.New(), Name: "CityBank", City: "Pune", Address: "12 Main St"})
	return directory.NewService(mem)
}

func TestDonors_FiltersByCityAndBloodType(t *testing.T) {
	svc := seededService()

	all, err := svc.Donors(context.Background(), "Pune", "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	// City matching ignores case.
	matched, err := svc.Donors(context.Background(), "pune", "O+")
	require.NoError(t, err)
	require.Len(t, matched, 1)
	assert.Equal(t, "Asha Rao", matched[0].Name)
}

func TestDonors_CityRequired(t *testing.T) {
	svc := seededService()

	_, err := svc.Donors(context.Background(), "", "")
	assert.Equal(t, dErrors.CodeBadRequest, dErrors.CodeOf(err))
}

func TestDonors_BloodTypeValidated(t *testing.T) {
	svc := seededService()

	_, err := svc.Donors(context.Background(), "Pune", "C+")
	assert.Equal(t, dErrors.CodeBadRequest, dErrors.CodeOf(err))
}

func TestBloodBanks_ByCity(t *testing.T) {
	svc := seededService()

	banks, err := svc.BloodBanks(context.Background(), "PUNE")
	require.NoError(t, err)
	require.Len(t, banks, 1)
	assert.Equal(t, "CityBank", banks[0].Name)

	empty, err := svc.BloodBanks(context.Background(), "Delhi")
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = svc.BloodBanks(context.Background(), "")
	assert.Equal(t, dErrors.CodeBadRequest, dErrors.CodeOf(err))
}
