package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/corefit/studio-booking/internal/model"
)

// ErrOrderNotFound is returned when no order row exists for the
// requested ID.
var ErrOrderNotFound = errors.New("order not found")

// OrderRepo is the read-only surface of the payment collaborator.
// Grant usability reads payment_status through the grants join; this
// repository exists for grant issuance, which must verify the order
// before linking a grant to it.
type OrderRepo struct {
	db *sql.DB
}

// NewOrderRepo returns a new OrderRepo bound to the given database.
func NewOrderRepo(db *sql.DB) *OrderRepo { return &OrderRepo{db: db} }

// GetByID loads a single order.  It returns ErrOrderNotFound when no
// row exists for the ID.
func (r *OrderRepo) GetByID(ctx context.Context, orderID uint64) (*model.Order, error) {
	const q = `SELECT id, member_id, payment_status, created_at FROM orders WHERE id = ?`
	var o model.Order
	err := r.db.QueryRowContext(ctx, q, orderID).Scan(
		&o.ID, &o.MemberID, &o.PaymentStatus, &o.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}
