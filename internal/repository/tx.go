package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"
)

// Runner executes a function inside a database transaction.  The
// booking engine depends on this interface rather than *sql.DB so its
// tests can substitute a runner that passes a nil transaction to
// in-memory fakes.
type Runner interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, tx *sql.Tx) error) error
}

// TxRunner runs transactions against a live database, retrying a small
// bounded number of times when MySQL reports a deadlock or lock-wait
// timeout.  Business failures are returned as-is on the first attempt;
// only transient lock contention is retried.
type TxRunner struct {
	db *sql.DB
}

// NewTxRunner returns a TxRunner bound to the given database.
func NewTxRunner(db *sql.DB) *TxRunner { return &TxRunner{db: db} }

const (
	txMaxAttempts  = 3
	txRetryBackoff = 50 * time.Millisecond
)

// WithTx begins a transaction, invokes fn and commits on success.  Any
// error from fn rolls the transaction back.  Deadlocks (MySQL 1213)
// and lock-wait timeouts (1205) from fn or commit are retried up to
// txMaxAttempts before the final error is surfaced to the caller.
func (r *TxRunner) WithTx(ctx context.Context, fn func(ctx context.Context, tx *sql.Tx) error) error {
	var lastErr error
	for attempt := 0; attempt < txMaxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(txRetryBackoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		err := r.runOnce(ctx, fn)
		if err == nil {
			return nil
		}
		if !IsLockContention(err) {
			return err
		}
		lastErr = err
	}
	return lastErr
}

func (r *TxRunner) runOnce(ctx context.Context, fn func(ctx context.Context, tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(ctx, tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// IsLockContention reports whether err is a MySQL deadlock (1213) or
// lock-wait timeout (1205), the two error codes the transaction runner
// treats as retryable.
func IsLockContention(err error) bool {
	var mysqlErr *mysql.MySQLError
	if !errors.As(err, &mysqlErr) {
		return false
	}
	return mysqlErr.Number == 1213 || mysqlErr.Number == 1205
}
