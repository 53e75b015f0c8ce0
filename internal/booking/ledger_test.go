package booking

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/corefit/studio-booking/internal/model"
)

func TestMaterializeRecomputesFromBookings(t *testing.T) {
	f := newFixture()
	f.addMember(1)
	g := f.addGrant(10, 1, model.KindMembership, model.BucketCounts{Group: 10, Private: 4})
	group := f.addSchedule(100, model.ClassGroup, "18:00", 10)
	private := f.addSchedule(101, model.ClassPrivate, "19:00", 1)

	f.addBooking(1, group.ID, g.ID, model.StatusSignup)
	f.addBooking(1, group.ID, g.ID, model.StatusCancelled) // cancelled bookings do not count
	f.addBooking(1, private.ID, g.ID, model.StatusWaitingList)

	// Drifted counters, as a crashed cancel might leave behind.
	g.Used = model.BucketCounts{Group: 5, Private: 0}

	grants, err := NewLedger(f.runner, f.db, f.db).Materialize(context.Background(), 1)
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	want := model.BucketCounts{Group: 1, Private: 1}
	if grants[0].Used != want {
		t.Fatalf("returned used = %+v, want %+v", grants[0].Used, want)
	}
	if f.db.grants[10].Used != want {
		t.Fatalf("persisted used = %+v, want %+v", f.db.grants[10].Used, want)
	}
	checkConservation(t, f.db)
}

func TestMaterializeLeavesMatchingCountersAlone(t *testing.T) {
	f := newFixture()
	f.addMember(1)
	g := f.addGrant(10, 1, model.KindMembership, model.BucketCounts{Group: 10})
	sched := f.addSchedule(100, model.ClassGroup, "18:00", 10)
	f.addBooking(1, sched.ID, g.ID, model.StatusSignup)
	g.Used = model.BucketCounts{Group: 1}

	grants, err := NewLedger(f.runner, f.db, f.db).Materialize(context.Background(), 1)
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	if grants[0].Used.Group != 1 {
		t.Fatalf("used = %d, want 1", grants[0].Used.Group)
	}
}

func TestMaterializeClearsStaleUsage(t *testing.T) {
	// All bookings cancelled: counters recompute to zero.
	f := newFixture()
	f.addMember(1)
	g := f.addGrant(10, 1, model.KindMembership, model.BucketCounts{Group: 10})
	sched := f.addSchedule(100, model.ClassGroup, "18:00", 10)
	f.addBooking(1, sched.ID, g.ID, model.StatusCancelled)
	g.Used = model.BucketCounts{Group: 3}

	grants, err := NewLedger(f.runner, f.db, f.db).Materialize(context.Background(), 1)
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	if grants[0].Used != (model.BucketCounts{}) {
		t.Fatalf("used = %+v, want zero", grants[0].Used)
	}
}

// trackingRunner marks a window open while a transaction body runs so
// ledgerSpy can tell transactional store calls from stray ones.
type trackingRunner struct {
	open  bool
	calls int
}

func (r *trackingRunner) WithTx(ctx context.Context, fn func(ctx context.Context, tx *sql.Tx) error) error {
	r.calls++
	r.open = true
	defer func() { r.open = false }()
	return fn(ctx, nil)
}

// ledgerSpy counts materialize store calls issued outside a
// transaction window.
type ledgerSpy struct {
	*memDB
	runner  *trackingRunner
	outside int
}

func (s *ledgerSpy) ListAllTx(ctx context.Context, tx *sql.Tx, memberID uint64) ([]model.Grant, error) {
	if !s.runner.open {
		s.outside++
	}
	return s.memDB.ListAllTx(ctx, tx, memberID)
}

func (s *ledgerSpy) ActiveUsageByMemberTx(ctx context.Context, tx *sql.Tx, memberID uint64) (map[uint64]model.BucketCounts, error) {
	if !s.runner.open {
		s.outside++
	}
	return s.memDB.ActiveUsageByMemberTx(ctx, tx, memberID)
}

func (s *ledgerSpy) SetUsedTx(ctx context.Context, tx *sql.Tx, grantID uint64, used model.BucketCounts) error {
	if !s.runner.open {
		s.outside++
	}
	return s.memDB.SetUsedTx(ctx, tx, grantID, used)
}

func TestMaterializeCommitsSnapshotInOneTransaction(t *testing.T) {
	// The booking count and the counter writes must share a
	// transaction.  A pass that counted before a concurrent booking
	// committed and wrote afterward would erase that booking's debit,
	// and the guarded debit would then trust the clobbered counter.
	f := newFixture()
	f.addMember(1)
	g := f.addGrant(10, 1, model.KindMembership, model.BucketCounts{Group: 10})
	sched := f.addSchedule(100, model.ClassGroup, "18:00", 10)
	f.addBooking(1, sched.ID, g.ID, model.StatusSignup)
	g.Used = model.BucketCounts{Group: 4}

	runner := &trackingRunner{}
	spy := &ledgerSpy{memDB: f.db, runner: runner}
	grants, err := NewLedger(runner, spy, spy).Materialize(context.Background(), 1)
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	if runner.calls != 1 {
		t.Fatalf("transactions = %d, want 1", runner.calls)
	}
	if spy.outside != 0 {
		t.Fatalf("%d store calls ran outside the transaction", spy.outside)
	}
	if grants[0].Used.Group != 1 {
		t.Fatalf("used = %d, want 1", grants[0].Used.Group)
	}
}

func TestCreateBookingRecoversFromClobberedCounters(t *testing.T) {
	// A stale counter snapshot written over a committed debit must not
	// free up sessions: create re-materializes from the bookings and
	// sees the grant is spent.
	f := newFixture()
	f.addMember(1)
	g := f.addGrant(10, 1, model.KindMembership, model.BucketCounts{Group: 1})
	other := f.addSchedule(101, model.ClassGroup, "20:00", 10)
	f.addBooking(1, other.ID, g.ID, model.StatusSignup)
	f.addSchedule(100, model.ClassGroup, "18:00", 10)
	g.Used = model.BucketCounts{}

	_, err := f.svc.CreateBooking(context.Background(), 1, 100)
	if !errors.Is(err, ErrEntitlementExhausted) {
		t.Fatalf("err = %v, want ErrEntitlementExhausted", err)
	}
	if f.db.grants[10].Used.Group != 1 {
		t.Fatalf("used = %d, want 1", f.db.grants[10].Used.Group)
	}
	checkConservation(t, f.db)
}
