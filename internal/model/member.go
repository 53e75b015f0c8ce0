package model

import "time"

// Member is the identity anchor of the system.  A member owns zero or
// more entitlement grants and bookings.  Authentication happens outside
// this service; handlers receive an already verified member ID via JWT
// middleware and only ever look members up by that ID.
//
// Fields:
//
//	ID        – primary key identifier.
//	FullName  – display name used on staff dashboards.
//	Email     – contact address (unique).
//	Active    – soft-delete flag; inactive members cannot book.
//	CreatedAt – creation timestamp.
//	UpdatedAt – last update timestamp.
type Member struct {
	ID        uint64    // members.id
	FullName  string    // members.full_name
	Email     string    // members.email
	Active    bool      // members.active
	CreatedAt time.Time // members.created_at
	UpdatedAt time.Time // members.updated_at
}
