// Package store backs the directory lookups with the users table.
package store

import (
	"context"
	"database/sql"
	"fmt"

	"bloodlink/internal/directory"
)

// Postgres implements directory lookups over database/sql.
type Postgres struct {
	db *sql.DB
}

// NewPostgres builds the store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// FindDonors returns donors in the city, optionally filtered by blood type.
func (s *Postgres) FindDonors(ctx context.Context, city, bloodType string) ([]directory.DonorEntry, error) {
	query := `
		SELECT id, name, COALESCE(blood_type, ''), COALESCE(city, ''), COALESCE(phone, '')
		FROM users
		WHERE role = 'donor' AND LOWER(city) = LOWER($1) AND ($2 = '' OR blood_type = $2)
		ORDER BY name ASC`
	rows, err := s.db.QueryContext(ctx, query, city, bloodType)
	if err != nil {
		return nil, fmt.Errorf("find donors: %w", err)
	}
	defer rows.Close()

	var donors []directory.DonorEntry
	for rows.Next() {
		var d directory.DonorEntry
		if err := rows.Scan(&d.ID, &d.Name, &d.BloodType, &d.City, &d.Phone); err != nil {
			return nil, fmt.Errorf("scan donor: %w", err)
		}
		donors = append(donors, d)
	}
	return donors, rows.Err()
}

// FindBloodBanks returns blood banks in the city.
func (s *Postgres) FindBloodBanks(ctx context.Context, city string) ([]directory.BloodBankEntry, error) {
	query := `
		SELECT id, name, COALESCE(city, ''), COALESCE(address, '')
		FROM users
		WHERE role = 'blood_bank' AND LOWER(city) = LOWER($1)
		ORDER BY name ASC`
	rows, err := s.db.QueryContext(ctx, query, city)
	if err != nil {
		return nil, fmt.Errorf("find blood banks: %w", err)
	}
	defer rows.Close()

	var banks []directory.BloodBankEntry
	for rows.Next() {
		var b directory.BloodBankEntry
		if err := rows.Scan(&b.ID, &b.Name, &b.City, &b.Address); err != nil {
			return nil, fmt.Errorf("scan blood bank: %w", err)
		}
		banks = append(banks, b)
	}
	return banks, rows.Err()
}
