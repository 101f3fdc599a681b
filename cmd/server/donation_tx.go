package main

import (
	"context"
	"database/sql"
	"time"

	donationservice "bloodlink/internal/donation/service"
	donationstore "bloodlink/internal/donation/store"
	dErrors "bloodlink/pkg/domain-errors"
)

const defaultDonationTxTimeout = 5 * time.Second

// donationPostgresTx runs the acceptance mutation inside a single database
// transaction with a bounded lifetime.
type donationPostgresTx struct {
	db      *sql.DB
	timeout time.Duration
}

func newDonationPostgresTx(db *sql.DB) *donationPostgresTx {
	return &donationPostgresTx{db: db}
}

func (t *donationPostgresTx) RunInTx(ctx context.Context, fn func(store donationservice.Store) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultDonationTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(donationstore.NewPostgresTx(tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	return nil
}
