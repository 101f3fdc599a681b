// Package store provides Postgres and in-memory persistence for donation
// requests and blood units.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"bloodlink/internal/donation"
	"bloodlink/pkg/platform/sentinel"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx so the same store code runs
// inside and outside a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Postgres implements the donation store over database/sql.
type Postgres struct {
	db DBTX
}

// NewPostgres builds a store over a connection pool.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// NewPostgresTx builds a store bound to an open transaction.
func NewPostgresTx(tx *sql.Tx) *Postgres {
	return &Postgres{db: tx}
}

const requestColumns = `id, donor_id, patient_id, blood_bank_id, donor_blood_type, urgency_level, status, certificate_url, created_at, updated_at`

func scanRequest(row interface{ Scan(...any) error }) (*donation.Request, error) {
	var (
		req  donation.Request
		cert sql.NullString
	)
	err := row.Scan(
		&req.ID, &req.DonorID, &req.PatientID, &req.BloodBankID,
		&req.DonorBloodType, &req.UrgencyLevel, &req.Status,
		&cert, &req.CreatedAt, &req.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if cert.Valid {
		req.CertificateURL = &cert.String
	}
	return &req, nil
}

// CreateRequest inserts a new donation request.
func (s *Postgres) CreateRequest(ctx context.Context, req *donation.Request) error {
	query := `
		INSERT INTO donation_requests (id, donor_id, patient_id, blood_bank_id, donor_blood_type, urgency_level, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := s.db.ExecContext(ctx, query,
		req.ID, req.DonorID, req.PatientID, req.BloodBankID,
		req.DonorBloodType, req.UrgencyLevel, req.Status,
		req.CreatedAt, req.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert donation request: %w", err)
	}
	return nil
}

// GetRequestForBank loads a request scoped to its owning bank. Ownership
// mismatch and absence are indistinguishable to the caller.
func (s *Postgres) GetRequestForBank(ctx context.Context, id, bloodBankID uuid.UUID) (*donation.Request, error) {
	query := `SELECT ` + requestColumns + ` FROM donation_requests WHERE id = $1 AND blood_bank_id = $2`
	req, err := scanRequest(s.db.QueryRowContext(ctx, query, id, bloodBankID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get donation request: %w", err)
	}
	return req, nil
}

// ListRequestsForBank returns a bank's requests newest first, optionally
// filtered by status.
func (s *Postgres) ListRequestsForBank(ctx context.Context, bloodBankID uuid.UUID, status donation.RequestStatus) ([]donation.Request, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM donation_requests
		WHERE blood_bank_id = $1 AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC`
	rows, err := s.db.QueryContext(ctx, query, bloodBankID, string(status))
	if err != nil {
		return nil, fmt.Errorf("list donation requests: %w", err)
	}
	defer rows.Close()

	var requests []donation.Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan donation request: %w", err)
		}
		requests = append(requests, *req)
	}
	return requests, rows.Err()
}

// MarkRequestFulfilled flips a pending request to success. The status guard
// in the WHERE clause resolves concurrent acceptances: exactly one update
// matches, the loser gets ErrInvalidState.
func (s *Postgres) MarkRequestFulfilled(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE donation_requests SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`
	res, err := s.db.ExecContext(ctx, query, donation.StatusSuccess, time.Now().UTC(), id, donation.StatusPending)
	if err != nil {
		return fmt.Errorf("mark request fulfilled: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark request fulfilled: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrInvalidState
	}
	return nil
}

// MarkRequestRejected flips a pending request owned by the bank to rejected
// and returns the updated row. Missing, foreign, and non-pending rows all
// come back as ErrNotFound.
func (s *Postgres) MarkRequestRejected(ctx context.Context, id, bloodBankID uuid.UUID) (*donation.Request, error) {
	query := `
		UPDATE donation_requests
		SET status = $1, updated_at = $2
		WHERE id = $3 AND blood_bank_id = $4 AND status = $5
		RETURNING ` + requestColumns
	req, err := scanRequest(s.db.QueryRowContext(ctx, query,
		donation.StatusRejected, time.Now().UTC(), id, bloodBankID, donation.StatusPending))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("mark request rejected: %w", err)
	}
	return req, nil
}

// CreateBloodUnits inserts the units of one acceptance. Callers run this
// inside the acceptance transaction.
func (s *Postgres) CreateBloodUnits(ctx context.Context, units []donation.BloodUnit) error {
	query := `
		INSERT INTO blood_units (id, unit_number, donation_request_id, donor_id, donor_name, donor_blood_type,
			blood_bank_id, blood_bank_name, donation_date, expiry_date, volume_ml, status, barcode, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	for _, u := range units {
		_, err := s.db.ExecContext(ctx, query,
			u.ID, u.UnitNumber, u.DonationRequestID, u.DonorID, u.DonorName, u.DonorBloodType,
			u.BloodBankID, u.BloodBankName, u.DonationDate, u.ExpiryDate, u.VolumeML, u.Status, u.Barcode, u.Notes,
		)
		if err != nil {
			return fmt.Errorf("insert blood unit %d: %w", u.UnitNumber, err)
		}
	}
	return nil
}

// SetCertificateURL records the certificate location after upload. Runs
// outside the acceptance transaction.
func (s *Postgres) SetCertificateURL(ctx context.Context, id uuid.UUID, url string) error {
	query := `UPDATE donation_requests SET certificate_url = $1, updated_at = $2 WHERE id = $3`
	res, err := s.db.ExecContext(ctx, query, url, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("set certificate url: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set certificate url: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// ListUnitsForBank returns a bank's units joined with request context, most
// recent donation first. An empty status means all statuses.
func (s *Postgres) ListUnitsForBank(ctx context.Context, bloodBankID uuid.UUID, status donation.UnitStatus) ([]donation.UnitWithRequest, error) {
	statuses := []string{string(donation.UnitAvailable), string(donation.UnitUsed), string(donation.UnitExpired), string(donation.UnitDiscarded)}
	if status != "" {
		statuses = []string{string(status)}
	}
	query := `
		SELECT u.id, u.unit_number, u.donation_request_id, u.donor_id, u.donor_name, u.donor_blood_type,
			u.blood_bank_id, u.blood_bank_name, u.donation_date, u.expiry_date, u.volume_ml, u.status, u.barcode, u.notes,
			r.patient_id, r.urgency_level, r.created_at
		FROM blood_units u
		JOIN donation_requests r ON r.id = u.donation_request_id
		WHERE u.blood_bank_id = $1 AND u.status = ANY($2)
		ORDER BY u.donation_date DESC, u.unit_number ASC`
	rows, err := s.db.QueryContext(ctx, query, bloodBankID, pq.Array(statuses))
	if err != nil {
		return nil, fmt.Errorf("list blood units: %w", err)
	}
	defer rows.Close()

	var units []donation.UnitWithRequest
	for rows.Next() {
		var (
			u     donation.UnitWithRequest
			notes sql.NullString
		)
		err := rows.Scan(
			&u.ID, &u.UnitNumber, &u.DonationRequestID, &u.DonorID, &u.DonorName, &u.DonorBloodType,
			&u.BloodBankID, &u.BloodBankName, &u.DonationDate, &u.ExpiryDate, &u.VolumeML, &u.Status, &u.Barcode, &notes,
			&u.PatientID, &u.UrgencyLevel, &u.RequestCreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan blood unit: %w", err)
		}
		u.Notes = notes.String
		units = append(units, u)
	}
	return units, rows.Err()
}

// GetBloodBank loads a blood bank profile from the users table.
func (s *Postgres) GetBloodBank(ctx context.Context, id uuid.UUID) (*donation.BloodBank, error) {
	query := `SELECT id, name, COALESCE(address, ''), COALESCE(city, '') FROM users WHERE id = $1 AND role = 'blood_bank'`
	var bank donation.BloodBank
	err := s.db.QueryRowContext(ctx, query, id).Scan(&bank.ID, &bank.Name, &bank.Address, &bank.City)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get blood bank: %w", err)
	}
	return &bank, nil
}

// GetDonor loads a donor profile from the users table.
func (s *Postgres) GetDonor(ctx context.Context, id uuid.UUID) (*donation.Donor, error) {
	query := `
		SELECT id, name, email, COALESCE(phone, ''), COALESCE(blood_type, ''), COALESCE(city, '')
		FROM users WHERE id = $1 AND role = 'donor'`
	var donor donation.Donor
	err := s.db.QueryRowContext(ctx, query, id).Scan(&donor.ID, &donor.Name, &donor.Email, &donor.Phone, &donor.BloodType, &donor.City)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get donor: %w", err)
	}
	return &donor, nil
}

// GetPatient loads a patient profile from the users table.
func (s *Postgres) GetPatient(ctx context.Context, id uuid.UUID) (*donation.Patient, error) {
	query := `SELECT id, name, COALESCE(blood_type, '') FROM users WHERE id = $1 AND role = 'patient'`
	var patient donation.Patient
	err := s.db.QueryRowContext(ctx, query, id).Scan(&patient.ID, &patient.Name, &patient.BloodType)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get patient: %w", err)
	}
	return &patient, nil
}
