// Package store persists user accounts.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"bloodlink/internal/auth"
	"bloodlink/pkg/platform/sentinel"
)

// Postgres implements the user store over database/sql.
type Postgres struct {
	db *sql.DB
}

// NewPostgres builds the store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const uniqueViolation = "23505"

// CreateUser inserts a new account. A duplicate email comes back as
// sentinel.ErrConflict.
func (s *Postgres) CreateUser(ctx context.Context, user *auth.User) error {
	query := `
		INSERT INTO users (id, role, name, email, password_hash, blood_type, city, phone, address, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''), NULLIF($8, ''), NULLIF($9, ''), $10, $11)`
	_, err := s.db.ExecContext(ctx, query,
		user.ID, user.Role, user.Name, user.Email, user.PasswordHash,
		user.BloodType, user.City, user.Phone, user.Address,
		user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

const userColumns = `id, role, name, email, password_hash,
	COALESCE(blood_type, ''), COALESCE(city, ''), COALESCE(phone, ''), COALESCE(address, ''),
	created_at, updated_at`

func scanUser(row *sql.Row) (*auth.User, error) {
	var user auth.User
	err := row.Scan(
		&user.ID, &user.Role, &user.Name, &user.Email, &user.PasswordHash,
		&user.BloodType, &user.City, &user.Phone, &user.Address,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &user, nil
}

// GetUserByEmail loads an account by its unique email.
func (s *Postgres) GetUserByEmail(ctx context.Context, email string) (*auth.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(s.db.QueryRowContext(ctx, query, email))
}

// GetUserByID loads an account by id.
func (s *Postgres) GetUserByID(ctx context.Context, id uuid.UUID) (*auth.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(s.db.QueryRowContext(ctx, query, id))
}
