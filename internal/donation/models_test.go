package donation

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBarcode(t *testing.T) {
	requestID := uuid.MustParse("11111111-1111-1111-1111-111111111111")

	barcode := Barcode("CityBank", requestID, 2)

	// Bank name, last 8 of the hyphen-stripped request ID, unit number.
	assert.Equal(t, "CityBank-11111111-2", barcode)
}

func TestBarcode_DistinctPerUnit(t *testing.T) {
	requestID := uuid.New()
	seen := make(map[string]bool)
	for n := 1; n <= 10; n++ {
		code := Barcode("CityBank", requestID, n)
		require.False(t, seen[code], "barcode %q repeated", code)
		seen[code] = true
	}
}

func TestValidUnitStatus(t *testing.T) {
	for _, s := range []string{"available", "used", "expired", "discarded"} {
		assert.True(t, ValidUnitStatus(s), s)
	}
	assert.False(t, ValidUnitStatus("reserved"))
	assert.False(t, ValidUnitStatus(""))
}

func TestSummarize(t *testing.T) {
	units := []UnitWithRequest{
		{BloodUnit: BloodUnit{Status: UnitAvailable, DonorBloodType: "O+"}},
		{BloodUnit: BloodUnit{Status: UnitAvailable, DonorBloodType: "A-"}},
		{BloodUnit: BloodUnit{Status: UnitUsed, DonorBloodType: "O+"}},
		{BloodUnit: BloodUnit{Status: UnitExpired, DonorBloodType: "AB+"}},
		{BloodUnit: BloodUnit{Status: UnitDiscarded, DonorBloodType: "O+"}},
	}

	summary := Summarize(units)

	assert.Equal(t, 5, summary.Total)
	assert.Equal(t, 2, summary.Available)
	assert.Equal(t, 1, summary.Used)
	assert.Equal(t, 1, summary.Expired)
	assert.Equal(t, 1, summary.Discarded)
	assert.Equal(t, map[string]int{"O+": 3, "A-": 1, "AB+": 1}, summary.ByBloodType)
}

func TestSummarize_Empty(t *testing.T) {
	summary := Summarize(nil)
	assert.Equal(t, 0, summary.Total)
	assert.Empty(t, summary.ByBloodType)
}
