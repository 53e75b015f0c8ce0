package model

import "time"

// PaymentStatus mirrors the payment collaborator's order state.  This
// service never mutates orders; it only reads payment_status when
// deciding whether a grant is usable.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

// Order is the narrow read-only view of a payment record that grant
// usability depends on.
type Order struct {
	ID            uint64        // orders.id
	MemberID      uint64        // orders.member_id
	PaymentStatus PaymentStatus // orders.payment_status
	CreatedAt     time.Time     // orders.created_at
}
