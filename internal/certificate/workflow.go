// Package certificate implements the best-effort proof-of-donation document
// flow: render a PDF to a local temp file, upload it to object storage, and
// report the outcome. Failures here never fail the surrounding donation; the
// caller folds the outcome into its response message.
package certificate

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"bloodlink/internal/donation"
	"bloodlink/internal/platform/metrics"
)

// Details carries everything rendered onto a certificate. Donor and Patient
// are optional: when either is missing, generation is skipped rather than
// failed.
type Details struct {
	Request donation.Request
	Units   []donation.BloodUnit
	Bank    donation.BloodBank
	Donor   *donation.Donor
	Patient *donation.Patient
}

// Generator renders a certificate to a local temporary file and returns its
// path. Implementations must not leave the file behind on their own errors.
type Generator interface {
	Generate(ctx context.Context, d Details) (string, error)
}

// Uploader moves a local file into durable object storage and returns its
// public URL.
type Uploader interface {
	Upload(ctx context.Context, key, path, contentType string) (string, error)
}

// Status classifies how the certificate flow ended.
type Status string

const (
	StatusIssued  Status = "issued"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// Outcome is the explicit result the donation handler consumes to build its
// response message. It never carries an error to propagate; degradation is
// the contract.
type Outcome struct {
	Status Status
	URL    string
	Reason string
}

// Issued reports whether a certificate URL is available.
func (o Outcome) Issued() bool { return o.Status == StatusIssued }

// ObjectKey is the deterministic storage key for a request's certificate.
func ObjectKey(requestID string) string {
	return fmt.Sprintf("donation_certificates/certificate_%s", requestID)
}

// Workflow wires the generator and uploader with logging and metrics.
type Workflow struct {
	generator Generator
	uploader  Uploader
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

// NewWorkflow builds the certificate workflow.
func NewWorkflow(g Generator, u Uploader, logger *slog.Logger, m *metrics.Metrics) *Workflow {
	return &Workflow{generator: g, uploader: u, logger: logger, metrics: m}
}

// Issue runs generate-then-upload. The local temp file is removed exactly
// once on every exit path; only the object store copy survives.
func (w *Workflow) Issue(ctx context.Context, d Details) Outcome {
	if d.Donor == nil || d.Patient == nil {
		w.metrics.RecordCertificateFailure("details")
		w.logger.WarnContext(ctx, "certificate skipped, missing details",
			"donation_request_id", d.Request.ID,
			"have_donor", d.Donor != nil,
			"have_patient", d.Patient != nil,
		)
		return Outcome{Status: StatusSkipped, Reason: "missing donor or patient details"}
	}

	path, err := w.generator.Generate(ctx, d)
	if err != nil {
		w.metrics.RecordCertificateFailure("generate")
		w.logger.ErrorContext(ctx, "certificate generation failed",
			"donation_request_id", d.Request.ID,
			"error", err,
		)
		return Outcome{Status: StatusFailed, Reason: "certificate generation failed"}
	}
	defer func() {
		if rmErr := os.Remove(path); rmErr != nil {
			w.logger.WarnContext(ctx, "certificate temp file cleanup failed",
				"path", path,
				"error", rmErr,
			)
		}
	}()

	url, err := w.uploader.Upload(ctx, ObjectKey(d.Request.ID.String()), path, "application/pdf")
	if err != nil {
		w.metrics.RecordCertificateFailure("upload")
		w.logger.ErrorContext(ctx, "certificate upload failed",
			"donation_request_id", d.Request.ID,
			"error", err,
		)
		return Outcome{Status: StatusFailed, Reason: "certificate upload failed"}
	}

	w.metrics.RecordCertificateIssued()
	return Outcome{Status: StatusIssued, URL: url}
}
