// Package queue defines message payloads exchanged over the message broker.
package queue

// BookingEvent is published whenever a booking changes state: created
// (as signup or waiting_list) or cancelled.  It carries enough context
// for downstream consumers to log, notify, or feed analytics without
// querying the primary database.
type BookingEvent struct {
	Action     string `json:"action"` // "created" or "cancelled"
	BookingID  uint64 `json:"booking_id"`
	BookingRef string `json:"booking_ref"`
	MemberID   uint64 `json:"member_id"`
	ScheduleID uint64 `json:"schedule_id"`
	ClassTitle string `json:"class_title"`
	ClassType  string `json:"class_type"`
	Date       string `json:"date"`
	StartTime  string `json:"start_time"`
	Status     string `json:"status"`
	GrantID    uint64 `json:"grant_id"`
	OccurredAt string `json:"occurred_at"`
	ActorStaff bool   `json:"actor_staff,omitempty"`
}
