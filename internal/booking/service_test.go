package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/corefit/studio-booking/internal/clock"
	"github.com/corefit/studio-booking/internal/model"
	"github.com/corefit/studio-booking/internal/repository"
)

// Fixture time: the morning of a class day.  The evening group class
// starts at 18:00 with a 2 hour booking deadline and a 60 minute
// cancel buffer, so at 08:00 both booking and cancelling are open.
var testNow = time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)

type fixture struct {
	db     *memDB
	runner *memRunner
	svc    *Service
}

func newFixture() *fixture {
	db := newMemDB()
	runner := &memRunner{db: db}
	svc := NewService(runner, db, db, scheduleStore{db}, db, nil, clock.NewFixed(testNow))
	return &fixture{db: db, runner: runner, svc: svc}
}

func (f *fixture) addMember(id uint64) {
	f.db.members[id] = &model.Member{ID: id, FullName: "Member", Active: true}
}

var grantSeq time.Duration

func (f *fixture) addGrant(id, memberID uint64, kind model.PackageKind, total model.BucketCounts) *model.Grant {
	grantSeq++
	g := &model.Grant{
		ID:        id,
		MemberID:  memberID,
		Kind:      kind,
		StartDate: testNow.AddDate(0, -1, 0),
		EndDate:   testNow.AddDate(0, 1, 0),
		Total:     total,
		CreatedAt: testNow.Add(-24*time.Hour + grantSeq*time.Second),
	}
	if kind != model.KindBonus {
		orderID := id + 1000
		g.OrderID = &orderID
		f.db.paid[orderID] = true
	}
	f.db.grants[id] = g
	return g
}

func (f *fixture) addSchedule(id uint64, classType model.ClassType, startTime string, capacity int) *model.Schedule {
	s := &model.Schedule{
		ID:                  id,
		Title:               "Class",
		Type:                classType,
		Date:                time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		StartTime:           startTime,
		EndTime:             "19:00",
		Capacity:            capacity,
		MinSignup:           3,
		BookingDeadlineHour: 2,
		CancelBufferMin:     60,
	}
	f.db.schedules[id] = s
	return s
}

func (f *fixture) addBooking(memberID, scheduleID, grantID uint64, status model.BookingStatus) *model.Booking {
	f.db.nextID++
	b := &model.Booking{
		ID:         f.db.nextID,
		Ref:        "seed",
		MemberID:   memberID,
		ScheduleID: scheduleID,
		GrantID:    grantID,
		Status:     status,
		Attendance: model.AttendanceUnmarked,
	}
	f.db.bookings[b.ID] = b
	return b
}

// fillSignups seeds n signup bookings from distinct other members.
func (f *fixture) fillSignups(scheduleID uint64, n int) {
	for i := 0; i < n; i++ {
		f.addBooking(uint64(9000+i), scheduleID, 0, model.StatusSignup)
	}
}

func signupCount(db *memDB, scheduleID uint64) int {
	n, _ := db.CountSignupsTx(context.Background(), nil, scheduleID)
	return n
}

// checkConservation asserts used+remaining == total and both
// non-negative for every bucket of every grant.
func checkConservation(t *testing.T, db *memDB) {
	t.Helper()
	for id, g := range db.grants {
		rem := g.Remaining()
		for _, b := range model.Buckets {
			if g.Used.Get(b) < 0 {
				t.Errorf("grant %d: used[%s] = %d < 0", id, b, g.Used.Get(b))
			}
			if g.Used.Get(b) > g.Total.Get(b) {
				t.Errorf("grant %d: used[%s] = %d exceeds total %d", id, b, g.Used.Get(b), g.Total.Get(b))
			}
			if g.Used.Get(b)+rem.Get(b) != g.Total.Get(b) {
				t.Errorf("grant %d: used+remaining != total for %s", id, b)
			}
		}
	}
}

func TestCreateBookingLastSeat(t *testing.T) {
	// Scenario: one seat left, member has a fresh membership grant.
	f := newFixture()
	f.addMember(1)
	f.addGrant(10, 1, model.KindMembership, model.BucketCounts{Group: 10})
	f.addSchedule(100, model.ClassGroup, "18:00", 10)
	f.fillSignups(100, 9)

	b, err := f.svc.CreateBooking(context.Background(), 1, 100)
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}
	if b.Status != model.StatusSignup {
		t.Fatalf("status = %s, want %s", b.Status, model.StatusSignup)
	}
	if b.GrantID != 10 {
		t.Fatalf("grant debited = %d, want 10", b.GrantID)
	}
	if got := signupCount(f.db, 100); got != 10 {
		t.Fatalf("signup count = %d, want 10", got)
	}
	g := f.db.grants[10]
	if g.Used.Group != 1 || g.Remaining().Group != 9 {
		t.Fatalf("grant counters = used %d remaining %d, want 1/9", g.Used.Group, g.Remaining().Group)
	}
	checkConservation(t, f.db)
}

func TestCreateBookingFullClassGoesToWaitlist(t *testing.T) {
	f := newFixture()
	f.addMember(2)
	f.addGrant(20, 2, model.KindMembership, model.BucketCounts{Group: 10})
	f.addSchedule(100, model.ClassGroup, "18:00", 10)
	f.fillSignups(100, 10)

	b, err := f.svc.CreateBooking(context.Background(), 2, 100)
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}
	if b.Status != model.StatusWaitingList {
		t.Fatalf("status = %s, want %s", b.Status, model.StatusWaitingList)
	}
	if got := signupCount(f.db, 100); got != 10 {
		t.Fatalf("signup count = %d, want 10 (capacity bound)", got)
	}
	// Waitlisted bookings still debit the grant; the session returns
	// on cancellation.
	if f.db.grants[20].Used.Group != 1 {
		t.Fatalf("used = %d, want 1", f.db.grants[20].Used.Group)
	}
	checkConservation(t, f.db)
}

func TestCreateBookingEntitlementExhausted(t *testing.T) {
	f := newFixture()
	f.addMember(1)
	g := f.addGrant(10, 1, model.KindMembership, model.BucketCounts{Group: 1})
	other := f.addSchedule(101, model.ClassGroup, "20:00", 10)
	f.addBooking(1, other.ID, g.ID, model.StatusSignup)
	f.addSchedule(100, model.ClassGroup, "18:00", 10)

	before := len(f.db.bookings)
	_, err := f.svc.CreateBooking(context.Background(), 1, 100)
	if !errors.Is(err, ErrEntitlementExhausted) {
		t.Fatalf("err = %v, want ErrEntitlementExhausted", err)
	}
	if len(f.db.bookings) != before {
		t.Fatal("booking row created despite exhausted entitlement")
	}
	if f.db.grants[10].Used.Group != 1 {
		t.Fatalf("used changed to %d, want 1", f.db.grants[10].Used.Group)
	}
}

func TestCreateBookingWrongBucketExhausted(t *testing.T) {
	// Remaining private sessions do not pay for a group class.
	f := newFixture()
	f.addMember(1)
	f.addGrant(10, 1, model.KindMembership, model.BucketCounts{Private: 5})
	f.addSchedule(100, model.ClassGroup, "18:00", 10)

	_, err := f.svc.CreateBooking(context.Background(), 1, 100)
	if !errors.Is(err, ErrEntitlementExhausted) {
		t.Fatalf("err = %v, want ErrEntitlementExhausted", err)
	}
}

func TestCreateBookingAlreadyBooked(t *testing.T) {
	f := newFixture()
	f.addMember(1)
	f.addGrant(10, 1, model.KindMembership, model.BucketCounts{Group: 10})
	f.addSchedule(100, model.ClassGroup, "18:00", 10)

	if _, err := f.svc.CreateBooking(context.Background(), 1, 100); err != nil {
		t.Fatalf("first CreateBooking: %v", err)
	}
	_, err := f.svc.CreateBooking(context.Background(), 1, 100)
	if !errors.Is(err, ErrAlreadyBooked) {
		t.Fatalf("err = %v, want ErrAlreadyBooked", err)
	}
	if f.db.grants[10].Used.Group != 1 {
		t.Fatalf("used = %d, want 1 (no double debit)", f.db.grants[10].Used.Group)
	}
}

func TestCreateBookingDeadlinePassed(t *testing.T) {
	f := newFixture()
	f.addMember(1)
	f.addGrant(10, 1, model.KindMembership, model.BucketCounts{Group: 10})
	// Starts 09:00 with a 2 hour deadline; at 08:00 booking closed at 07:00.
	f.addSchedule(100, model.ClassGroup, "09:00", 10)

	_, err := f.svc.CreateBooking(context.Background(), 1, 100)
	if !errors.Is(err, ErrBookingDeadlinePassed) {
		t.Fatalf("err = %v, want ErrBookingDeadlinePassed", err)
	}
	if f.db.grants[10].Used.Group != 0 {
		t.Fatal("grant debited despite closed booking")
	}
}

func TestCreateBookingUnknownMemberOrSchedule(t *testing.T) {
	f := newFixture()
	f.addMember(1)
	f.addGrant(10, 1, model.KindMembership, model.BucketCounts{Group: 10})
	f.addSchedule(100, model.ClassGroup, "18:00", 10)

	if _, err := f.svc.CreateBooking(context.Background(), 99, 100); !errors.Is(err, repository.ErrMemberNotFound) {
		t.Fatalf("unknown member err = %v, want ErrMemberNotFound", err)
	}
	if _, err := f.svc.CreateBooking(context.Background(), 1, 999); !errors.Is(err, repository.ErrScheduleNotFound) {
		t.Fatalf("unknown schedule err = %v, want ErrScheduleNotFound", err)
	}
}

func TestCreateBookingUnpaidGrantUnusable(t *testing.T) {
	f := newFixture()
	f.addMember(1)
	g := f.addGrant(10, 1, model.KindMembership, model.BucketCounts{Group: 10})
	f.db.paid[*g.OrderID] = false
	f.addSchedule(100, model.ClassGroup, "18:00", 10)

	_, err := f.svc.CreateBooking(context.Background(), 1, 100)
	if !errors.Is(err, ErrEntitlementExhausted) {
		t.Fatalf("err = %v, want ErrEntitlementExhausted for unpaid grant", err)
	}
}

func TestCreateBookingConsumesBonusBeforeMembership(t *testing.T) {
	f := newFixture()
	f.addMember(1)
	f.addGrant(10, 1, model.KindMembership, model.BucketCounts{Group: 10})
	f.addGrant(11, 1, model.KindBonus, model.BucketCounts{Group: 2})
	f.addSchedule(100, model.ClassGroup, "18:00", 10)

	b, err := f.svc.CreateBooking(context.Background(), 1, 100)
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}
	if b.GrantID != 11 {
		t.Fatalf("debited grant %d, want bonus grant 11", b.GrantID)
	}
}

func TestCreateBookingSkipsDrainedPriorityGrant(t *testing.T) {
	// Bonus grant has remaining in private only; a group class falls
	// through to the membership grant.
	f := newFixture()
	f.addMember(1)
	f.addGrant(10, 1, model.KindMembership, model.BucketCounts{Group: 10})
	f.addGrant(11, 1, model.KindBonus, model.BucketCounts{Private: 2})
	f.addSchedule(100, model.ClassGroup, "18:00", 10)

	b, err := f.svc.CreateBooking(context.Background(), 1, 100)
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}
	if b.GrantID != 10 {
		t.Fatalf("debited grant %d, want membership grant 10", b.GrantID)
	}
}

func TestCreateBookingUnavailableAfterContention(t *testing.T) {
	f := newFixture()
	f.addMember(1)
	f.addGrant(10, 1, model.KindMembership, model.BucketCounts{Group: 10})
	f.addSchedule(100, model.ClassGroup, "18:00", 10)
	f.runner.err = &mysql.MySQLError{Number: 1213, Message: "Deadlock found when trying to get lock"}

	_, err := f.svc.CreateBooking(context.Background(), 1, 100)
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
}

func TestCancelBookingRestoresSession(t *testing.T) {
	f := newFixture()
	f.addMember(1)
	f.addGrant(10, 1, model.KindMembership, model.BucketCounts{Group: 10})
	f.addSchedule(100, model.ClassGroup, "18:00", 10)
	f.fillSignups(100, 9)

	b, err := f.svc.CreateBooking(context.Background(), 1, 100)
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}

	got, err := f.svc.CancelBooking(context.Background(), b.ID, Actor{MemberID: 1})
	if err != nil {
		t.Fatalf("CancelBooking: %v", err)
	}
	if got.Status != model.StatusCancelled {
		t.Fatalf("status = %s, want cancelled", got.Status)
	}
	g := f.db.grants[10]
	if g.Used.Group != 0 || g.Remaining().Group != 10 {
		t.Fatalf("grant counters = used %d remaining %d, want 0/10", g.Used.Group, g.Remaining().Group)
	}
	if got := signupCount(f.db, 100); got != 9 {
		t.Fatalf("signup count = %d, want 9", got)
	}
	checkConservation(t, f.db)
}

func TestCancelBookingIdempotent(t *testing.T) {
	f := newFixture()
	f.addMember(1)
	f.addGrant(10, 1, model.KindMembership, model.BucketCounts{Group: 10})
	f.addSchedule(100, model.ClassGroup, "18:00", 10)

	b, err := f.svc.CreateBooking(context.Background(), 1, 100)
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}
	if _, err := f.svc.CancelBooking(context.Background(), b.ID, Actor{MemberID: 1}); err != nil {
		t.Fatalf("first cancel: %v", err)
	}
	got, err := f.svc.CancelBooking(context.Background(), b.ID, Actor{MemberID: 1})
	if err != nil {
		t.Fatalf("second cancel: %v", err)
	}
	if got.Status != model.StatusCancelled {
		t.Fatalf("status = %s, want cancelled", got.Status)
	}
	// No double credit: used stays at zero, not negative.
	if f.db.grants[10].Used.Group != 0 {
		t.Fatalf("used = %d after double cancel, want 0", f.db.grants[10].Used.Group)
	}
}

func TestCancelBookingInsideBufferRejected(t *testing.T) {
	f := newFixture()
	f.addMember(1)
	g := f.addGrant(10, 1, model.KindMembership, model.BucketCounts{Group: 10})
	// Starts 08:30; with a 60 minute buffer self-cancel closed at 07:30.
	sched := f.addSchedule(100, model.ClassGroup, "08:30", 10)
	b := f.addBooking(1, sched.ID, g.ID, model.StatusSignup)
	g.Used.Group = 1

	_, err := f.svc.CancelBooking(context.Background(), b.ID, Actor{MemberID: 1})
	if !errors.Is(err, ErrCancelWindowClosed) {
		t.Fatalf("err = %v, want ErrCancelWindowClosed", err)
	}
	if f.db.bookings[b.ID].Status != model.StatusSignup {
		t.Fatal("booking transitioned despite closed cancel window")
	}
	if g.Used.Group != 1 {
		t.Fatalf("used = %d, want 1 (no credit)", g.Used.Group)
	}
}

func TestCancelBookingStaffBypassesBuffer(t *testing.T) {
	f := newFixture()
	f.addMember(1)
	g := f.addGrant(10, 1, model.KindMembership, model.BucketCounts{Group: 10})
	sched := f.addSchedule(100, model.ClassGroup, "08:30", 10)
	b := f.addBooking(1, sched.ID, g.ID, model.StatusSignup)
	g.Used.Group = 1

	got, err := f.svc.CancelBooking(context.Background(), b.ID, Actor{Staff: true})
	if err != nil {
		t.Fatalf("staff cancel: %v", err)
	}
	if got.Status != model.StatusCancelled {
		t.Fatalf("status = %s, want cancelled", got.Status)
	}
	if g.Used.Group != 0 {
		t.Fatalf("used = %d, want 0 after credit", g.Used.Group)
	}
}

func TestCancelBookingForeignMemberForbidden(t *testing.T) {
	f := newFixture()
	f.addMember(1)
	f.addMember(2)
	g := f.addGrant(10, 1, model.KindMembership, model.BucketCounts{Group: 10})
	sched := f.addSchedule(100, model.ClassGroup, "18:00", 10)
	b := f.addBooking(1, sched.ID, g.ID, model.StatusSignup)

	_, err := f.svc.CancelBooking(context.Background(), b.ID, Actor{MemberID: 2})
	if !errors.Is(err, repository.ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
}

func TestCancelBookingNotFound(t *testing.T) {
	f := newFixture()
	_, err := f.svc.CancelBooking(context.Background(), 42, Actor{MemberID: 1})
	if !errors.Is(err, repository.ErrBookingNotFound) {
		t.Fatalf("err = %v, want ErrBookingNotFound", err)
	}
}
