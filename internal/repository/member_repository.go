package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/corefit/studio-booking/internal/model"
)

// MemberRepo provides read access to members.  Member CRUD lives in
// the wider back office; the booking core only needs to confirm a
// member exists and is active before acting on their behalf.
type MemberRepo struct {
	db *sql.DB
}

// NewMemberRepo returns a new MemberRepo bound to the given database.
func NewMemberRepo(db *sql.DB) *MemberRepo { return &MemberRepo{db: db} }

// GetByID loads a single member.  It returns ErrMemberNotFound when no
// row exists for the ID.
func (r *MemberRepo) GetByID(ctx context.Context, memberID uint64) (*model.Member, error) {
	const q = `SELECT id, full_name, email, active, created_at, updated_at
               FROM members WHERE id = ?`
	var m model.Member
	err := r.db.QueryRowContext(ctx, q, memberID).Scan(
		&m.ID, &m.FullName, &m.Email, &m.Active, &m.CreatedAt, &m.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMemberNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}
