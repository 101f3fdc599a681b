// Package audit emits structured donation lifecycle events. Emission is best
// effort and decoupled from request handling through a buffered channel; a
// lost event never fails a donation.
package audit

import "time"

// Action names the audited operation.
type Action string

const (
	ActionUserRegistered    Action = "user_registered"
	ActionUserLogin         Action = "user_login"
	ActionDonationCreated   Action = "donation_created"
	ActionDonationAccepted  Action = "donation_accepted"
	ActionDonationRejected  Action = "donation_rejected"
	ActionCertificateIssued Action = "certificate_issued"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so sinks can fan out.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Action    Action    `json:"action"`
	// ActorID identifies who performed the action (user or blood bank admin).
	ActorID string `json:"actorId,omitempty"`
	// RequestID is the HTTP correlation ID for tracing.
	RequestID string `json:"requestId,omitempty"`
	// DonationRequestID links donation lifecycle events to their request.
	DonationRequestID string `json:"donationRequestId,omitempty"`
	BloodBankID       string `json:"bloodBankId,omitempty"`
	// Detail carries action-specific fields (units created, reject reason).
	Detail map[string]string `json:"detail,omitempty"`
}
