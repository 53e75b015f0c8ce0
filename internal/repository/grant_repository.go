package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/corefit/studio-booking/internal/model"
)

// GrantRepo provides data access to entitlement grants.  Listing
// methods return counters as last materialized; callers that need
// fresh numbers must run the session ledger's Materialize first.
// Counter mutations happen only through DebitTx, CreditTx and
// SetUsedTx so every change flows through the ledger.
type GrantRepo struct {
	db *sql.DB
}

// NewGrantRepo returns a new GrantRepo bound to the given database.
func NewGrantRepo(db *sql.DB) *GrantRepo { return &GrantRepo{db: db} }

const grantColumns = `g.id, g.member_id, g.package_id, g.kind, g.order_id,
       g.start_date, g.end_date,
       g.total_group, g.total_semi_private, g.total_private,
       g.used_group, g.used_semi_private, g.used_private,
       g.created_at`

func scanGrant(row interface{ Scan(...interface{}) error }) (model.Grant, error) {
	var g model.Grant
	var orderID sql.NullInt64
	err := row.Scan(
		&g.ID, &g.MemberID, &g.PackageID, &g.Kind, &orderID,
		&g.StartDate, &g.EndDate,
		&g.Total.Group, &g.Total.SemiPrivate, &g.Total.Private,
		&g.Used.Group, &g.Used.SemiPrivate, &g.Used.Private,
		&g.CreatedAt,
	)
	if err != nil {
		return model.Grant{}, err
	}
	if orderID.Valid {
		id := uint64(orderID.Int64)
		g.OrderID = &id
	}
	return g, nil
}

// usedColumn maps a bucket to its used_* column name.  The switch
// doubles as validation so a bucket value never reaches the query
// string unchecked.
func usedColumn(b model.Bucket) (string, error) {
	switch b {
	case model.BucketGroup:
		return "used_group", nil
	case model.BucketSemiPrivate:
		return "used_semi_private", nil
	case model.BucketPrivate:
		return "used_private", nil
	}
	return "", fmt.Errorf("unknown bucket %q", b)
}

// ListUsable returns the member's grants passing the usability rule as
// of the given day: the grant has not expired and either the linked
// order is paid or the grant originates from a bonus package.  Grants
// are ordered oldest first; the priority resolver applies the
// cross-kind ranking on top of this order.
func (r *GrantRepo) ListUsable(ctx context.Context, memberID uint64, asOf time.Time) ([]model.Grant, error) {
	return r.listUsable(ctx, r.db, memberID, asOf, false)
}

// ListUsableTx is ListUsable executed inside an existing transaction
// with the grant rows locked FOR UPDATE.  The booking-create
// transaction uses it so the debit decision and the counter update see
// the same rows.
func (r *GrantRepo) ListUsableTx(ctx context.Context, tx *sql.Tx, memberID uint64, asOf time.Time) ([]model.Grant, error) {
	return r.listUsable(ctx, tx, memberID, asOf, true)
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func (r *GrantRepo) listUsable(ctx context.Context, q queryer, memberID uint64, asOf time.Time, lock bool) ([]model.Grant, error) {
	query := `SELECT ` + grantColumns + `
              FROM grants g
              LEFT JOIN orders o ON o.id = g.order_id
              WHERE g.member_id = ?
                AND g.end_date >= ?
                AND (g.kind = ? OR o.payment_status = ?)
              ORDER BY g.created_at, g.id`
	if lock {
		query += " FOR UPDATE"
	}
	day := asOf.UTC().Format("2006-01-02")
	rows, err := q.QueryContext(ctx, query, memberID, day, model.KindBonus, model.PaymentPaid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	grants := make([]model.Grant, 0)
	for rows.Next() {
		g, err := scanGrant(rows)
		if err != nil {
			return nil, err
		}
		grants = append(grants, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return grants, nil
}

// ListAllTx returns the member's full grant history regardless of
// usability, newest first, with the grant rows locked FOR UPDATE.  The
// session ledger's materialize pass uses it so the counters it writes
// back belong to the booking snapshot it counted; an unlocked read
// here would let a stale snapshot overwrite a concurrent debit.
func (r *GrantRepo) ListAllTx(ctx context.Context, tx *sql.Tx, memberID uint64) ([]model.Grant, error) {
	query := `SELECT ` + grantColumns + `
              FROM grants g
              WHERE g.member_id = ?
              ORDER BY g.created_at DESC, g.id DESC
              FOR UPDATE`
	rows, err := tx.QueryContext(ctx, query, memberID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	grants := make([]model.Grant, 0)
	for rows.Next() {
		g, err := scanGrant(rows)
		if err != nil {
			return nil, err
		}
		grants = append(grants, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return grants, nil
}

// Create inserts a new grant and populates its generated ID and
// creation timestamp.  Used counters start at zero; totals come from
// the catalog package via model.GrantTotalsFor.
func (r *GrantRepo) Create(ctx context.Context, g *model.Grant) error {
	const q = `INSERT INTO grants
               (member_id, package_id, kind, order_id, start_date, end_date,
                total_group, total_semi_private, total_private)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	var orderID interface{}
	if g.OrderID != nil {
		orderID = *g.OrderID
	}
	result, err := r.db.ExecContext(ctx, q,
		g.MemberID, g.PackageID, g.Kind, orderID,
		g.StartDate.UTC().Format("2006-01-02"), g.EndDate.UTC().Format("2006-01-02"),
		g.Total.Group, g.Total.SemiPrivate, g.Total.Private,
	)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	g.ID = uint64(id)
	const sel = `SELECT created_at FROM grants WHERE id = ?`
	return r.db.QueryRowContext(ctx, sel, g.ID).Scan(&g.CreatedAt)
}

// DebitTx atomically increments the grant's used counter for the
// bucket, guarded by the remaining capacity at the moment of the
// update.  It returns false when the grant had no remaining sessions
// in the bucket, in which case nothing changed.  Must be called inside
// the booking-create transaction.
func (r *GrantRepo) DebitTx(ctx context.Context, tx *sql.Tx, grantID uint64, bucket model.Bucket) (bool, error) {
	col, err := usedColumn(bucket)
	if err != nil {
		return false, err
	}
	totalCol := "total" + col[len("used"):]
	query := fmt.Sprintf(
		`UPDATE grants SET %s = %s + 1 WHERE id = ? AND %s - %s >= 1`,
		col, col, totalCol, col,
	)
	result, err := tx.ExecContext(ctx, query, grantID)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// CreditTx decrements the grant's used counter for the bucket, never
// below zero.  It is called exactly once per booking, from the
// cancellation transaction after the one-shot status transition
// succeeds, which keeps credits idempotent per booking.
func (r *GrantRepo) CreditTx(ctx context.Context, tx *sql.Tx, grantID uint64, bucket model.Bucket) error {
	col, err := usedColumn(bucket)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(
		`UPDATE grants SET %s = %s - 1 WHERE id = ? AND %s >= 1`,
		col, col, col,
	)
	_, err = tx.ExecContext(ctx, query, grantID)
	return err
}

// SetUsedTx overwrites all three used counters for a grant.  It is the
// write half of the session ledger's materialize step and must run in
// the same transaction that read the counters via ListAllTx.
func (r *GrantRepo) SetUsedTx(ctx context.Context, tx *sql.Tx, grantID uint64, used model.BucketCounts) error {
	const q = `UPDATE grants
               SET used_group = ?, used_semi_private = ?, used_private = ?
               WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, used.Group, used.SemiPrivate, used.Private, grantID)
	return err
}

// GetByID loads a single grant.  It returns ErrGrantNotFound when no
// row exists for the ID.
func (r *GrantRepo) GetByID(ctx context.Context, grantID uint64) (*model.Grant, error) {
	query := `SELECT ` + grantColumns + ` FROM grants g WHERE g.id = ?`
	g, err := scanGrant(r.db.QueryRowContext(ctx, query, grantID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrGrantNotFound
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}
