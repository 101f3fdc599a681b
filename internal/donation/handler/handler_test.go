package handler

import (
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"bloodlink/internal/donation"
	"bloodlink/internal/donation/handler/mocks"
	"bloodlink/internal/donation/service"
	dErrors "bloodlink/pkg/domain-errors"
	"bloodlink/pkg/testutil"
)

func newTestRouter(t *testing.T) (*mocks.MockService, chi.Router) {
	t.Helper()
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockService(ctrl)
	h := New(svc, slog.New(slog.NewTextHandler(io.Discard, nil)))
	r := chi.NewRouter()
	h.Register(r)
	return svc, r
}

func asBank(req *http.Request, bankID uuid.UUID) *http.Request {
	return testutil.WithAuth(req, bankID.String(), "blood_bank", uuid.NewString())
}

func TestAccept_ReturnsEnvelope(t *testing.T) {
	svc, router := newTestRouter(t)
	bankID := uuid.New()
	requestID := uuid.New()

	url := "http://storage/cert.pdf"
	svc.EXPECT().
		Accept(gomock.Any(), bankID, donation.AcceptParams{DonationRequestID: requestID.String(), NumberOfUnits: 2}).
		Return(&service.AcceptResult{
			Request:           &donation.Request{ID: requestID, Status: donation.StatusSuccess},
			Units:             []donation.BloodUnit{{UnitNumber: 1}, {UnitNumber: 2}},
			TotalUnitsCreated: 2,
			CertificateURL:    &url,
			Message:           "Donation accepted and certificate generated",
		}, nil)

	req := testutil.NewJSONRequest(t, http.MethodPost, "/api/donations/accept", map[string]any{
		"donationRequestId": requestID.String(),
		"numberOfUnits":     2,
	})
	rr := testutil.DoRequest(router, asBank(req, bankID))

	testutil.AssertStatus(t, rr, http.StatusOK)
	body := testutil.UnmarshalResponse[map[string]any](t, rr)
	assert.Equal(t, "Donation accepted and certificate generated", (*body)["message"])
	assert.Equal(t, float64(2), (*body)["totalUnitsCreated"])
	assert.Equal(t, url, (*body)["certificateUrl"])
}

func TestAccept_RequiresAuth(t *testing.T) {
	_, router := newTestRouter(t)

	req := testutil.NewJSONRequest(t, http.MethodPost, "/api/donations/accept", map[string]any{
		"donationRequestId": uuid.NewString(),
	})
	rr := testutil.DoRequest(router, req)

	testutil.AssertStatus(t, rr, http.StatusUnauthorized)
	testutil.AssertErrorCode(t, rr, "unauthorized")
}

func TestAccept_RequiresBloodBankRole(t *testing.T) {
	_, router := newTestRouter(t)

	req := testutil.NewJSONRequest(t, http.MethodPost, "/api/donations/accept", map[string]any{
		"donationRequestId": uuid.NewString(),
	})
	req = testutil.WithAuth(req, uuid.NewString(), "donor", uuid.NewString())
	rr := testutil.DoRequest(router, req)

	testutil.AssertStatus(t, rr, http.StatusForbidden)
	testutil.AssertErrorCode(t, rr, "forbidden")
}

func TestAccept_MalformedBody(t *testing.T) {
	_, router := newTestRouter(t)

	req := testutil.NewJSONRequest(t, http.MethodPost, "/api/donations/accept", nil)
	req.Body = io.NopCloser(badReader{})
	rr := testutil.DoRequest(router, asBank(req, uuid.New()))

	testutil.AssertStatus(t, rr, http.StatusBadRequest)
}

type badReader struct{}

func (badReader) Read([]byte) (int, error) { return 0, io.ErrUnexpectedEOF }

func TestAccept_NotFoundPassesThrough(t *testing.T) {
	svc, router := newTestRouter(t)
	bankID := uuid.New()

	svc.EXPECT().
		Accept(gomock.Any(), bankID, gomock.Any()).
		Return(nil, dErrors.New(dErrors.CodeNotFound, "donation request not found or not pending"))

	req := testutil.NewJSONRequest(t, http.MethodPost, "/api/donations/accept", map[string]any{
		"donationRequestId": uuid.NewString(),
	})
	rr := testutil.DoRequest(router, asBank(req, bankID))

	testutil.AssertStatus(t, rr, http.StatusNotFound)
	testutil.AssertErrorCode(t, rr, "not_found")
}

func TestReject_EmptyBodyAllowed(t *testing.T) {
	svc, router := newTestRouter(t)
	bankID := uuid.New()
	requestID := uuid.New()

	svc.EXPECT().
		Reject(gomock.Any(), bankID, requestID.String(), donation.RejectParams{}).
		Return(&donation.Request{ID: requestID, Status: donation.StatusRejected}, nil)

	req := testutil.NewRequest(t, http.MethodPost, "/api/donations/"+requestID.String()+"/reject")
	rr := testutil.DoRequest(router, asBank(req, bankID))

	testutil.AssertStatus(t, rr, http.StatusOK)
	body := testutil.UnmarshalResponse[map[string]any](t, rr)
	assert.Equal(t, "Donation request rejected", (*body)["message"])
}

func TestReject_PassesReason(t *testing.T) {
	svc, router := newTestRouter(t)
	bankID := uuid.New()
	requestID := uuid.New()

	svc.EXPECT().
		Reject(gomock.Any(), bankID, requestID.String(), donation.RejectParams{Reason: "stock sufficient"}).
		Return(&donation.Request{ID: requestID, Status: donation.StatusRejected}, nil)

	req := testutil.NewJSONRequest(t, http.MethodPost, "/api/donations/"+requestID.String()+"/reject",
		map[string]string{"reason": "stock sufficient"})
	rr := testutil.DoRequest(router, asBank(req, bankID))

	testutil.AssertStatus(t, rr, http.StatusOK)
}

func TestListUnits_PassesFilterAndRendersSummary(t *testing.T) {
	svc, router := newTestRouter(t)
	bankID := uuid.New()

	svc.EXPECT().
		ListUnits(gomock.Any(), bankID, "available").
		Return(&service.Inventory{
			Units: []donation.UnitWithRequest{{BloodUnit: donation.BloodUnit{Status: donation.UnitAvailable, DonorBloodType: "O+"}}},
			Summary: donation.InventorySummary{
				Total: 1, Available: 1, ByBloodType: map[string]int{"O+": 1},
			},
		}, nil)

	req := testutil.NewRequest(t, http.MethodGet, "/api/donations/units?status=available")
	rr := testutil.DoRequest(router, asBank(req, bankID))

	testutil.AssertStatus(t, rr, http.StatusOK)
	body := testutil.UnmarshalResponse[map[string]any](t, rr)
	summary, ok := (*body)["summary"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(1), summary["available"])
}

func TestListUnits_EmptyInventoryIsAnArray(t *testing.T) {
	svc, router := newTestRouter(t)
	bankID := uuid.New()

	svc.EXPECT().
		ListUnits(gomock.Any(), bankID, "").
		Return(&service.Inventory{Summary: donation.InventorySummary{ByBloodType: map[string]int{}}}, nil)

	req := testutil.NewRequest(t, http.MethodGet, "/api/donations/units")
	rr := testutil.DoRequest(router, asBank(req, bankID))

	testutil.AssertStatus(t, rr, http.StatusOK)
	body := testutil.UnmarshalResponse[map[string]any](t, rr)
	units, ok := (*body)["bloodUnits"].([]any)
	require.True(t, ok, "bloodUnits must be an array, not null")
	assert.Empty(t, units)
}

func TestCreate_Returns201(t *testing.T) {
	svc, router := newTestRouter(t)
	actorID := uuid.New()
	params := donation.CreateParams{
		DonorID:        uuid.NewString(),
		PatientID:      actorID.String(),
		BloodBankID:    uuid.NewString(),
		DonorBloodType: "B+",
		UrgencyLevel:   "high",
	}

	svc.EXPECT().
		Create(gomock.Any(), actorID, params).
		Return(&donation.Request{ID: uuid.New(), Status: donation.StatusPending}, nil)

	req := testutil.NewJSONRequest(t, http.MethodPost, "/api/donations", params)
	req = testutil.WithAuth(req, actorID.String(), "patient", uuid.NewString())
	rr := testutil.DoRequest(router, req)

	testutil.AssertStatus(t, rr, http.StatusCreated)
}

func TestList_PassesStatusFilter(t *testing.T) {
	svc, router := newTestRouter(t)
	bankID := uuid.New()

	svc.EXPECT().
		ListRequests(gomock.Any(), bankID, "pending").
		Return([]donation.Request{{ID: uuid.New(), Status: donation.StatusPending}}, nil)

	req := testutil.NewRequest(t, http.MethodGet, "/api/donations?status=pending")
	rr := testutil.DoRequest(router, asBank(req, bankID))

	testutil.AssertStatus(t, rr, http.StatusOK)
}
