// Package booking implements the session entitlement and class
// booking allocation engine: grant selection, seat decisions, the
// session ledger that keeps grant counters consistent with bookings,
// and the availability read model.
package booking

import "errors"

// Expected business outcomes.  These reflect state, not faults, and
// are returned to the caller without retry.
var (
	// ErrEntitlementExhausted means no usable grant has remaining
	// capacity in the bucket the schedule draws from.
	ErrEntitlementExhausted = errors.New("entitlement exhausted")

	// ErrAlreadyBooked means the member already holds an active
	// booking for the schedule.
	ErrAlreadyBooked = errors.New("already booked")

	// ErrBookingDeadlinePassed means the schedule no longer accepts
	// new bookings because the booking deadline has passed.
	ErrBookingDeadlinePassed = errors.New("booking deadline passed")

	// ErrCancelWindowClosed means a member tried to self-cancel inside
	// the schedule's cancel buffer.  Staff cancellation bypasses it.
	ErrCancelWindowClosed = errors.New("cancel window closed")

	// ErrInvalidDate means a date parameter could not be parsed.
	ErrInvalidDate = errors.New("invalid date")
)

// ErrUnavailable is returned when a booking transaction kept hitting
// lock contention after its bounded retries.  Unlike the errors above
// it reflects a transient condition and the client may retry.
var ErrUnavailable = errors.New("temporarily unavailable")
