package model

import "time"

// BookingStatus is the lifecycle state of a booking.  A booking enters
// as signup or waiting_list depending on the seat decision and ends as
// cancelled; there is no transition back out of cancelled.
type BookingStatus string

const (
	StatusSignup      BookingStatus = "signup"
	StatusWaitingList BookingStatus = "waiting_list"
	StatusCancelled   BookingStatus = "cancelled"
)

// Active reports whether the status still holds a claim on the
// member's entitlement, i.e. signup or waiting_list.
func (s BookingStatus) Active() bool {
	return s == StatusSignup || s == StatusWaitingList
}

// Attendance is the orthogonal post-hoc flag staff set after a class
// has run.  It has no effect on entitlement or capacity invariants.
type Attendance string

const (
	AttendanceUnmarked Attendance = "unmarked"
	AttendancePresent  Attendance = "present"
	AttendanceAbsent   Attendance = "absent"
)

// Valid reports whether a is a known attendance value.
func (a Attendance) Valid() bool {
	switch a {
	case AttendanceUnmarked, AttendancePresent, AttendanceAbsent:
		return true
	}
	return false
}

// Booking links one member, one schedule and exactly one grant: the
// grant that was debited to create it.  Invariant: a member has at
// most one booking with an active status per schedule at any time.
//
// Fields:
//
//	ID         – primary key identifier.
//	Ref        – opaque reference returned to clients.
//	MemberID   – member who booked.
//	ScheduleID – class occurrence booked.
//	GrantID    – grant debited for this booking.
//	Status     – signup, waiting_list or cancelled.
//	Attendance – present, absent or unmarked.
//	CreatedAt  – creation timestamp.
//	UpdatedAt  – last update timestamp.
type Booking struct {
	ID         uint64        // bookings.id
	Ref        string        // bookings.ref
	MemberID   uint64        // bookings.member_id
	ScheduleID uint64        // bookings.schedule_id
	GrantID    uint64        // bookings.grant_id
	Status     BookingStatus // bookings.status
	Attendance Attendance    // bookings.attendance
	CreatedAt  time.Time     // bookings.created_at
	UpdatedAt  time.Time     // bookings.updated_at
}
