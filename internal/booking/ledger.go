package booking

import (
	"context"
	"database/sql"

	"github.com/corefit/studio-booking/internal/model"
	"github.com/corefit/studio-booking/internal/repository"
)

// Ledger reconciles each grant's used counters against the
// authoritative set of bookings drawn from it.  Counters are
// recomputed from source rather than maintained incrementally: a
// materialize pass costs one aggregate query over the member's active
// bookings plus one update per drifted grant, and in exchange partial
// failures can never leave counters permanently wrong; the next
// materialize corrects them.
//
// Debit and credit during booking create/cancel keep counters current
// between materialize passes; materialize must still run before any
// availability decision or reporting view so stale counters are never
// shown or acted on.
type Ledger struct {
	runner   repository.Runner
	grants   GrantStore
	bookings BookingStore
}

// NewLedger returns a ledger over the given stores.  All counter
// writes go through the runner so a materialize pass commits as one
// unit.
func NewLedger(runner repository.Runner, grants GrantStore, bookings BookingStore) *Ledger {
	return &Ledger{runner: runner, grants: grants, bookings: bookings}
}

// Materialize recomputes the used counters of every grant the member
// owns by counting active bookings per grant, bucketed by each
// booking's schedule type.  Grants whose persisted counters already
// match are left untouched.  It returns the member's grants with fresh
// counters.
//
// The count and the counter writes run in a single transaction with
// the grant rows locked, so the snapshot a pass writes is the snapshot
// it read.  Without the lock, a pass whose count predates a concurrent
// booking's commit could land its stale counters afterward and erase
// that booking's debit.
func (l *Ledger) Materialize(ctx context.Context, memberID uint64) ([]model.Grant, error) {
	var grants []model.Grant
	err := l.runner.WithTx(ctx, func(txCtx context.Context, tx *sql.Tx) error {
		var err error
		grants, err = l.grants.ListAllTx(txCtx, tx, memberID)
		if err != nil {
			return err
		}
		usage, err := l.bookings.ActiveUsageByMemberTx(txCtx, tx, memberID)
		if err != nil {
			return err
		}
		for i := range grants {
			used := usage[grants[i].ID]
			if grants[i].Used == used {
				continue
			}
			if err := l.grants.SetUsedTx(txCtx, tx, grants[i].ID, used); err != nil {
				return err
			}
			grants[i].Used = used
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return grants, nil
}
