package booking

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/corefit/studio-booking/internal/clock"
	"github.com/corefit/studio-booking/internal/model"
	"github.com/corefit/studio-booking/internal/repository"
)

// Service composes the entitlement store, session ledger, priority
// resolver and capacity rules into the booking operations exposed to
// the rest of the system.  Every mutation runs as one transaction:
// lock the schedule, re-check seat count and entitlement, write the
// booking and the counter change together, so either both commit or
// neither does.
type Service struct {
	runner    repository.Runner
	members   MemberStore
	grants    GrantStore
	schedules ScheduleStore
	bookings  BookingStore
	resolver  *PriorityResolver
	ledger    *Ledger
	clock     clock.Clock
}

// NewService constructs the booking service.  A nil resolver uses the
// default priority table.
func NewService(runner repository.Runner, members MemberStore, grants GrantStore, schedules ScheduleStore, bookings BookingStore, resolver *PriorityResolver, clk clock.Clock) *Service {
	if resolver == nil {
		resolver = NewPriorityResolver(nil)
	}
	return &Service{
		runner:    runner,
		members:   members,
		grants:    grants,
		schedules: schedules,
		bookings:  bookings,
		resolver:  resolver,
		ledger:    NewLedger(runner, grants, bookings),
		clock:     clk,
	}
}

// Actor identifies who initiates a cancellation.  Staff actors bypass
// the cancel buffer and may cancel any member's booking.
type Actor struct {
	MemberID uint64
	Staff    bool
}

// CreateBooking books the member onto the schedule, debiting one
// session from the grant the priority resolver selects.  The seat
// decision (signup vs waiting_list) is made under the schedule row
// lock.  On lock contention the transaction retries a bounded number
// of times before surfacing ErrUnavailable.
func (s *Service) CreateBooking(ctx context.Context, memberID, scheduleID uint64) (*model.Booking, error) {
	member, err := s.members.GetByID(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if !member.Active {
		return nil, repository.ErrMemberNotFound
	}

	// Reconcile counters before deciding; the in-transaction guarded
	// debit remains the authoritative re-check.
	if _, err := s.ledger.Materialize(ctx, memberID); err != nil {
		if repository.IsLockContention(err) {
			return nil, ErrUnavailable
		}
		return nil, err
	}

	var booking *model.Booking
	err = s.runner.WithTx(ctx, func(txCtx context.Context, tx *sql.Tx) error {
		sched, err := s.schedules.GetForUpdateTx(txCtx, tx, scheduleID)
		if err != nil {
			return err
		}
		now := s.clock.Now()
		if IsPastDeadline(*sched, now) {
			return ErrBookingDeadlinePassed
		}
		if dup, err := s.bookings.HasActiveTx(txCtx, tx, memberID, scheduleID); err != nil {
			return err
		} else if dup {
			return ErrAlreadyBooked
		}

		grants, err := s.grants.ListUsableTx(txCtx, tx, memberID, now)
		if err != nil {
			return err
		}
		bucket := sched.Bucket()
		grantID, ok, err := s.debitFirst(txCtx, tx, grants, bucket)
		if err != nil {
			return err
		}
		if !ok {
			return ErrEntitlementExhausted
		}

		count, err := s.bookings.CountSignupsTx(txCtx, tx, scheduleID)
		if err != nil {
			return err
		}
		b := &model.Booking{
			Ref:        uuid.NewString(),
			MemberID:   memberID,
			ScheduleID: scheduleID,
			GrantID:    grantID,
			Status:     SeatDecision(count, sched.Capacity),
			Attendance: model.AttendanceUnmarked,
		}
		if err := s.bookings.CreateTx(txCtx, tx, b); err != nil {
			return err
		}
		booking = b
		return nil
	})
	if err != nil {
		if repository.IsLockContention(err) {
			return nil, ErrUnavailable
		}
		return nil, err
	}
	return booking, nil
}

// debitFirst walks the grants in consumption order and attempts the
// guarded debit on each until one succeeds.  The guard re-checks
// remaining capacity at the moment of the update, so a grant drained
// by a concurrent booking is skipped rather than over-debited.
func (s *Service) debitFirst(ctx context.Context, tx *sql.Tx, grants []model.Grant, bucket model.Bucket) (uint64, bool, error) {
	for _, g := range s.resolver.Sort(grants) {
		if g.Remaining().Get(bucket) == 0 {
			continue
		}
		ok, err := s.grants.DebitTx(ctx, tx, g.ID, bucket)
		if err != nil {
			return 0, false, err
		}
		if ok {
			return g.ID, true, nil
		}
	}
	return 0, false, nil
}

// CancelBooking transitions a booking to cancelled and credits the
// session back to the grant it was debited from.  Cancelling an
// already-cancelled booking is a no-op.  Member actors must own the
// booking and are rejected inside the cancel buffer; staff actors
// bypass both the ownership check beyond existence and the buffer.
func (s *Service) CancelBooking(ctx context.Context, bookingID uint64, actor Actor) (*model.Booking, error) {
	var booking *model.Booking
	err := s.runner.WithTx(ctx, func(txCtx context.Context, tx *sql.Tx) error {
		b, err := s.bookings.GetForUpdateTx(txCtx, tx, bookingID)
		if err != nil {
			return err
		}
		if !actor.Staff && b.MemberID != actor.MemberID {
			return repository.ErrForbidden
		}
		if b.Status == model.StatusCancelled {
			booking = b
			return nil
		}
		sched, err := s.schedules.GetForUpdateTx(txCtx, tx, b.ScheduleID)
		if err != nil {
			return err
		}
		if !actor.Staff && IsWithinCancelBuffer(*sched, s.clock.Now()) {
			return ErrCancelWindowClosed
		}
		transitioned, err := s.bookings.CancelTx(txCtx, tx, bookingID)
		if err != nil {
			return err
		}
		// The credit rides on the one-shot transition; a concurrent
		// cancel that lost the race must not credit again.
		if transitioned {
			if err := s.grants.CreditTx(txCtx, tx, b.GrantID, sched.Bucket()); err != nil {
				return err
			}
		}
		b.Status = model.StatusCancelled
		booking = b
		return nil
	})
	if err != nil {
		if repository.IsLockContention(err) {
			return nil, ErrUnavailable
		}
		return nil, err
	}
	return booking, nil
}
