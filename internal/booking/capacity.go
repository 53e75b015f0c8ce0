package booking

import (
	"time"

	"github.com/corefit/studio-booking/internal/model"
)

// Capacity helpers are pure functions over a schedule, a signup count
// and a point in time.  The booking service calls them with the count
// read under the schedule row lock so the decision and the insert are
// atomic.

// SeatDecision decides whether a new booking for a schedule with the
// given current signup count enters as signup or waiting_list.  A full
// class routes to the waitlist; it never rejects.
func SeatDecision(signupCount, capacity int) model.BookingStatus {
	if signupCount < capacity {
		return model.StatusSignup
	}
	return model.StatusWaitingList
}

// IsPastDeadline reports whether new bookings for the schedule are
// closed: now is past the class start minus the booking deadline.
func IsPastDeadline(s model.Schedule, now time.Time) bool {
	deadline := s.StartsAt().Add(-time.Duration(s.BookingDeadlineHour) * time.Hour)
	return now.After(deadline)
}

// IsWithinCancelBuffer reports whether now is inside the window before
// class start in which members may no longer self-cancel.  Staff
// cancellation does not consult this check.
func IsWithinCancelBuffer(s model.Schedule, now time.Time) bool {
	cutoff := s.StartsAt().Add(-time.Duration(s.CancelBufferMin) * time.Minute)
	return now.After(cutoff)
}

// AtRisk reports whether the schedule is under its minimum signup
// threshold.  The flag is informational for staff dashboards only; an
// under-subscribed class is never cancelled automatically.
func AtRisk(s model.Schedule, signupCount int) bool {
	return signupCount < s.MinSignup
}

// AvailableSlots returns the number of open seats, never negative.
func AvailableSlots(s model.Schedule, signupCount int) int {
	slots := s.Capacity - signupCount
	if slots < 0 {
		slots = 0
	}
	return slots
}
