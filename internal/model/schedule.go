package model

import "time"

// ClassType categorizes a scheduled class and determines which session
// bucket a booking against it debits.
type ClassType string

const (
	ClassGroup       ClassType = "group"
	ClassSemiPrivate ClassType = "semi_private"
	ClassPrivate     ClassType = "private"
)

// Valid reports whether t is a known class type.
func (t ClassType) Valid() bool {
	switch t {
	case ClassGroup, ClassSemiPrivate, ClassPrivate:
		return true
	}
	return false
}

// BucketFor maps a class type to the single session bucket it draws
// from.  The mapping is one-to-one: semi_private classes debit the
// semi_private bucket, never group.
func BucketFor(t ClassType) Bucket {
	switch t {
	case ClassGroup:
		return BucketGroup
	case ClassSemiPrivate:
		return BucketSemiPrivate
	case ClassPrivate:
		return BucketPrivate
	}
	return ""
}

// Schedule is a single scheduled class occurrence.  Created by staff
// scheduling; immutable once the class time has passed except for
// attendance marking on its bookings.
//
// Fields:
//
//	ID                  – primary key identifier.
//	Title               – class name shown to members.
//	TrainerID           – staff member running the class.
//	Type                – group, semi_private or private.
//	Date                – calendar day of the class (UTC midnight).
//	StartTime           – start within the day, "HH:MM".
//	EndTime             – end within the day, "HH:MM".
//	Capacity            – maximum bookings with status signup.
//	MinSignup           – under this count the class is flagged at
//	                      risk on staff dashboards; never auto-cancels.
//	BookingDeadlineHour – hours before start when new bookings close.
//	CancelBufferMin     – minutes before start inside which members may
//	                      no longer self-cancel.
//	WaitlistLockMin     – reserved for future waitlist promotion; read
//	                      and stored but not acted on.
//	CreatedAt           – creation timestamp.
//	UpdatedAt           – last update timestamp.
type Schedule struct {
	ID                  uint64    // schedules.id
	Title               string    // schedules.title
	TrainerID           uint64    // schedules.trainer_id
	Type                ClassType // schedules.type
	Date                time.Time // schedules.date
	StartTime           string    // schedules.start_time
	EndTime             string    // schedules.end_time
	Capacity            int       // schedules.capacity
	MinSignup           int       // schedules.min_signup
	BookingDeadlineHour int       // schedules.booking_deadline_hour
	CancelBufferMin     int       // schedules.cancel_buffer_minutes
	WaitlistLockMin     int       // schedules.waitlist_lock_minutes
	CreatedAt           time.Time // schedules.created_at
	UpdatedAt           time.Time // schedules.updated_at
}

// StartsAt combines the schedule's date and start time into a single
// UTC instant.  A malformed start time yields the date at midnight so
// deadline checks fail closed rather than panic.
func (s Schedule) StartsAt() time.Time {
	t, err := time.Parse("15:04", s.StartTime)
	if err != nil {
		return truncateToDay(s.Date)
	}
	day := truncateToDay(s.Date)
	return day.Add(time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute)
}

// Bucket returns the session bucket bookings against this schedule
// debit.
func (s Schedule) Bucket() Bucket {
	return BucketFor(s.Type)
}
