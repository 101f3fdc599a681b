// Package donation holds the donation request lifecycle and blood unit
// inventory: the transactional core of the platform.
package donation

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RequestStatus tracks the lifecycle of a donation request. Transitions are
// one-way: pending -> success or pending -> rejected. Non-pending rows are
// immutable with respect to status.
type RequestStatus string

const (
	StatusPending  RequestStatus = "pending"
	StatusSuccess  RequestStatus = "success"
	StatusRejected RequestStatus = "rejected"
)

// UnitStatus tracks a blood unit through its shelf life.
type UnitStatus string

const (
	UnitAvailable UnitStatus = "available"
	UnitUsed      UnitStatus = "used"
	UnitExpired   UnitStatus = "expired"
	UnitDiscarded UnitStatus = "discarded"
)

// ValidUnitStatus reports whether s is a known unit status.
func ValidUnitStatus(s string) bool {
	switch UnitStatus(s) {
	case UnitAvailable, UnitUsed, UnitExpired, UnitDiscarded:
		return true
	}
	return false
}

// UrgencyLevel labels how urgently the paired need requires blood.
type UrgencyLevel string

const (
	UrgencyLow      UrgencyLevel = "low"
	UrgencyMedium   UrgencyLevel = "medium"
	UrgencyHigh     UrgencyLevel = "high"
	UrgencyCritical UrgencyLevel = "critical"
)

// UnitVolumeML is the fixed volume of a single donated unit.
const UnitVolumeML = 450

// DefaultExpiryDays is the shelf life applied when the acceptor does not
// override it.
const DefaultExpiryDays = 35

// Request pairs a donor with a patient's blood need at a specific blood bank.
type Request struct {
	ID             uuid.UUID     `json:"id"`
	DonorID        uuid.UUID     `json:"donorId"`
	PatientID      uuid.UUID     `json:"patientId"`
	BloodBankID    uuid.UUID     `json:"bloodBankId"`
	DonorBloodType string        `json:"donorBloodType"`
	UrgencyLevel   UrgencyLevel  `json:"urgencyLevel"`
	Status         RequestStatus `json:"status"`
	CertificateURL *string       `json:"certificateUrl"`
	CreatedAt      time.Time     `json:"createdAt"`
	UpdatedAt      time.Time     `json:"updatedAt"`
}

// BloodUnit is one physical unit of donated blood, materialized when a
// request transitions to success.
type BloodUnit struct {
	ID                uuid.UUID  `json:"id"`
	UnitNumber        int        `json:"unitNumber"`
	DonationRequestID uuid.UUID  `json:"donationRequestId"`
	DonorID           uuid.UUID  `json:"donorId"`
	DonorName         string     `json:"donorName"`
	DonorBloodType    string     `json:"donorBloodType"`
	BloodBankID       uuid.UUID  `json:"bloodBankId"`
	BloodBankName     string     `json:"bloodBankName"`
	DonationDate      time.Time  `json:"donationDate"`
	ExpiryDate        time.Time  `json:"expiryDate"`
	VolumeML          int        `json:"volume"`
	Status            UnitStatus `json:"status"`
	Barcode           string     `json:"barcode"`
	Notes             string     `json:"notes,omitempty"`
}

// Barcode derives the unit barcode from the bank name, the tail of the
// owning request ID, and the unit's sequence number.
func Barcode(bloodBankName string, requestID uuid.UUID, unitNumber int) string {
	compact := strings.ReplaceAll(requestID.String(), "-", "")
	return fmt.Sprintf("%s-%s-%d", bloodBankName, compact[len(compact)-8:], unitNumber)
}

// UnitWithRequest joins a unit with context from its owning request for
// inventory reporting.
type UnitWithRequest struct {
	BloodUnit
	PatientID        uuid.UUID    `json:"patientId"`
	UrgencyLevel     UrgencyLevel `json:"urgencyLevel"`
	RequestCreatedAt time.Time    `json:"requestCreatedAt"`
}

// InventorySummary partitions a bank's units by status and blood type. Each
// unit contributes 1 regardless of volume.
type InventorySummary struct {
	Total       int            `json:"total"`
	Available   int            `json:"available"`
	Used        int            `json:"used"`
	Expired     int            `json:"expired"`
	Discarded   int            `json:"discarded"`
	ByBloodType map[string]int `json:"byBloodType"`
}

// Summarize computes the inventory summary over the given units.
func Summarize(units []UnitWithRequest) InventorySummary {
	summary := InventorySummary{ByBloodType: make(map[string]int)}
	for _, u := range units {
		summary.Total++
		switch u.Status {
		case UnitAvailable:
			summary.Available++
		case UnitUsed:
			summary.Used++
		case UnitExpired:
			summary.Expired++
		case UnitDiscarded:
			summary.Discarded++
		}
		summary.ByBloodType[u.DonorBloodType]++
	}
	return summary
}

// Donor carries the donor details rendered onto certificates.
type Donor struct {
	ID        uuid.UUID
	Name      string
	Email     string
	Phone     string
	BloodType string
	City      string
}

// Patient carries the patient details rendered onto certificates.
type Patient struct {
	ID        uuid.UUID
	Name      string
	BloodType string
}

// BloodBank is the accepting actor's identity record.
type BloodBank struct {
	ID      uuid.UUID
	Name    string
	Address string
	City    string
}
