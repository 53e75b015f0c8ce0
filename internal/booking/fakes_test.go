package booking

import (
	"context"
	"database/sql"
	"time"

	"github.com/corefit/studio-booking/internal/model"
	"github.com/corefit/studio-booking/internal/repository"
)

// memDB is an in-memory stand-in for the MySQL repositories.  It
// implements MemberStore, GrantStore, ScheduleStore and BookingStore;
// Tx methods receive a nil transaction from memRunner and ignore it.
type memDB struct {
	members   map[uint64]*model.Member
	grants    map[uint64]*model.Grant
	paid      map[uint64]bool // orderID -> payment_status == paid
	schedules map[uint64]*model.Schedule
	bookings  map[uint64]*model.Booking
	nextID    uint64
}

func newMemDB() *memDB {
	return &memDB{
		members:   make(map[uint64]*model.Member),
		grants:    make(map[uint64]*model.Grant),
		paid:      make(map[uint64]bool),
		schedules: make(map[uint64]*model.Schedule),
		bookings:  make(map[uint64]*model.Booking),
	}
}

// memRunner satisfies repository.Runner by invoking fn directly.  A
// non-nil err is returned without calling fn, which lets tests inject
// lock-contention failures.
type memRunner struct {
	db  *memDB
	err error
}

func (r *memRunner) WithTx(ctx context.Context, fn func(ctx context.Context, tx *sql.Tx) error) error {
	if r.err != nil {
		return r.err
	}
	return fn(ctx, nil)
}

func (d *memDB) GetByID(ctx context.Context, memberID uint64) (*model.Member, error) {
	m, ok := d.members[memberID]
	if !ok {
		return nil, repository.ErrMemberNotFound
	}
	cp := *m
	return &cp, nil
}

func (d *memDB) usableGrants(memberID uint64, asOf time.Time) []model.Grant {
	out := make([]model.Grant, 0)
	for _, g := range d.grants {
		if g.MemberID != memberID || !g.UsableAt(asOf) {
			continue
		}
		if g.Kind != model.KindBonus {
			if g.OrderID == nil || !d.paid[*g.OrderID] {
				continue
			}
		}
		out = append(out, *g)
	}
	return out
}

func (d *memDB) ListUsable(ctx context.Context, memberID uint64, asOf time.Time) ([]model.Grant, error) {
	return d.usableGrants(memberID, asOf), nil
}

func (d *memDB) ListUsableTx(ctx context.Context, tx *sql.Tx, memberID uint64, asOf time.Time) ([]model.Grant, error) {
	return d.usableGrants(memberID, asOf), nil
}

func (d *memDB) ListAllTx(ctx context.Context, tx *sql.Tx, memberID uint64) ([]model.Grant, error) {
	out := make([]model.Grant, 0)
	for _, g := range d.grants {
		if g.MemberID == memberID {
			out = append(out, *g)
		}
	}
	return out, nil
}

func (d *memDB) DebitTx(ctx context.Context, tx *sql.Tx, grantID uint64, bucket model.Bucket) (bool, error) {
	g, ok := d.grants[grantID]
	if !ok {
		return false, nil
	}
	if g.Total.Get(bucket)-g.Used.Get(bucket) < 1 {
		return false, nil
	}
	g.Used.Add(bucket, 1)
	return true, nil
}

func (d *memDB) CreditTx(ctx context.Context, tx *sql.Tx, grantID uint64, bucket model.Bucket) error {
	g, ok := d.grants[grantID]
	if ok && g.Used.Get(bucket) >= 1 {
		g.Used.Add(bucket, -1)
	}
	return nil
}

func (d *memDB) SetUsedTx(ctx context.Context, tx *sql.Tx, grantID uint64, used model.BucketCounts) error {
	if g, ok := d.grants[grantID]; ok {
		g.Used = used
	}
	return nil
}

func (d *memDB) GetScheduleByID(scheduleID uint64) (*model.Schedule, error) {
	s, ok := d.schedules[scheduleID]
	if !ok {
		return nil, repository.ErrScheduleNotFound
	}
	cp := *s
	return &cp, nil
}

func (d *memDB) GetForUpdateTx(ctx context.Context, tx *sql.Tx, bookingID uint64) (*model.Booking, error) {
	b, ok := d.bookings[bookingID]
	if !ok {
		return nil, repository.ErrBookingNotFound
	}
	cp := *b
	return &cp, nil
}

func (d *memDB) HasActiveTx(ctx context.Context, tx *sql.Tx, memberID, scheduleID uint64) (bool, error) {
	for _, b := range d.bookings {
		if b.MemberID == memberID && b.ScheduleID == scheduleID && b.Status.Active() {
			return true, nil
		}
	}
	return false, nil
}

func (d *memDB) CountSignupsTx(ctx context.Context, tx *sql.Tx, scheduleID uint64) (int, error) {
	n := 0
	for _, b := range d.bookings {
		if b.ScheduleID == scheduleID && b.Status == model.StatusSignup {
			n++
		}
	}
	return n, nil
}

func (d *memDB) SignupCountsByDate(ctx context.Context, day string) (map[uint64]int, error) {
	counts := make(map[uint64]int)
	for _, b := range d.bookings {
		if b.Status != model.StatusSignup {
			continue
		}
		if s, ok := d.schedules[b.ScheduleID]; ok && s.Date.UTC().Format("2006-01-02") == day {
			counts[b.ScheduleID]++
		}
	}
	return counts, nil
}

func (d *memDB) ActiveScheduleIDs(ctx context.Context, memberID uint64, day string) (map[uint64]model.BookingStatus, error) {
	out := make(map[uint64]model.BookingStatus)
	for _, b := range d.bookings {
		if b.MemberID != memberID || !b.Status.Active() {
			continue
		}
		if s, ok := d.schedules[b.ScheduleID]; ok && s.Date.UTC().Format("2006-01-02") == day {
			out[b.ScheduleID] = b.Status
		}
	}
	return out, nil
}

func (d *memDB) ActiveUsageByMemberTx(ctx context.Context, tx *sql.Tx, memberID uint64) (map[uint64]model.BucketCounts, error) {
	usage := make(map[uint64]model.BucketCounts)
	for _, b := range d.bookings {
		if b.MemberID != memberID || !b.Status.Active() {
			continue
		}
		s, ok := d.schedules[b.ScheduleID]
		if !ok {
			continue
		}
		counts := usage[b.GrantID]
		counts.Add(s.Bucket(), 1)
		usage[b.GrantID] = counts
	}
	return usage, nil
}

func (d *memDB) CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
	d.nextID++
	b.ID = d.nextID
	cp := *b
	d.bookings[b.ID] = &cp
	return nil
}

func (d *memDB) CancelTx(ctx context.Context, tx *sql.Tx, bookingID uint64) (bool, error) {
	b, ok := d.bookings[bookingID]
	if !ok || !b.Status.Active() {
		return false, nil
	}
	b.Status = model.StatusCancelled
	return true, nil
}

// scheduleStore adapts memDB to the ScheduleStore interface; the
// method name GetByID is already taken by MemberStore on memDB.
type scheduleStore struct{ db *memDB }

func (s scheduleStore) GetByID(ctx context.Context, scheduleID uint64) (*model.Schedule, error) {
	return s.db.GetScheduleByID(scheduleID)
}

func (s scheduleStore) GetForUpdateTx(ctx context.Context, tx *sql.Tx, scheduleID uint64) (*model.Schedule, error) {
	return s.db.GetScheduleByID(scheduleID)
}

func (s scheduleStore) ListByDate(ctx context.Context, day time.Time) ([]model.Schedule, error) {
	want := day.UTC().Format("2006-01-02")
	out := make([]model.Schedule, 0)
	for _, sched := range s.db.schedules {
		if sched.Date.UTC().Format("2006-01-02") == want {
			out = append(out, *sched)
		}
	}
	return out, nil
}
