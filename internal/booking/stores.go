package booking

import (
	"context"
	"database/sql"
	"time"

	"github.com/corefit/studio-booking/internal/model"
)

// The engine depends on narrow store interfaces rather than the
// concrete MySQL repositories so its logic can be tested against
// in-memory fakes.  Tx-suffixed methods run inside the transaction the
// engine opens via repository.Runner; fakes receive a nil *sql.Tx and
// ignore it.

// MemberStore resolves members.
type MemberStore interface {
	GetByID(ctx context.Context, memberID uint64) (*model.Member, error)
}

// GrantStore is the entitlement store plus the counter mutations the
// session ledger performs.
type GrantStore interface {
	ListUsable(ctx context.Context, memberID uint64, asOf time.Time) ([]model.Grant, error)
	ListUsableTx(ctx context.Context, tx *sql.Tx, memberID uint64, asOf time.Time) ([]model.Grant, error)
	ListAllTx(ctx context.Context, tx *sql.Tx, memberID uint64) ([]model.Grant, error)
	DebitTx(ctx context.Context, tx *sql.Tx, grantID uint64, bucket model.Bucket) (bool, error)
	CreditTx(ctx context.Context, tx *sql.Tx, grantID uint64, bucket model.Bucket) error
	SetUsedTx(ctx context.Context, tx *sql.Tx, grantID uint64, used model.BucketCounts) error
}

// ScheduleStore reads scheduled classes.
type ScheduleStore interface {
	GetByID(ctx context.Context, scheduleID uint64) (*model.Schedule, error)
	GetForUpdateTx(ctx context.Context, tx *sql.Tx, scheduleID uint64) (*model.Schedule, error)
	ListByDate(ctx context.Context, day time.Time) ([]model.Schedule, error)
}

// BookingStore reads and mutates bookings.
type BookingStore interface {
	CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error
	GetForUpdateTx(ctx context.Context, tx *sql.Tx, bookingID uint64) (*model.Booking, error)
	HasActiveTx(ctx context.Context, tx *sql.Tx, memberID, scheduleID uint64) (bool, error)
	CountSignupsTx(ctx context.Context, tx *sql.Tx, scheduleID uint64) (int, error)
	SignupCountsByDate(ctx context.Context, day string) (map[uint64]int, error)
	ActiveScheduleIDs(ctx context.Context, memberID uint64, day string) (map[uint64]model.BookingStatus, error)
	ActiveUsageByMemberTx(ctx context.Context, tx *sql.Tx, memberID uint64) (map[uint64]model.BucketCounts, error)
	CancelTx(ctx context.Context, tx *sql.Tx, bookingID uint64) (bool, error)
}
