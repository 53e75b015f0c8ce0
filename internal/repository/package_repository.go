package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/corefit/studio-booking/internal/model"
)

// PackageRepo is the read-only surface of the package catalog
// collaborator.  Pricing and catalog management happen elsewhere; this
// repository only resolves a package's kind and session allotment when
// a grant is issued.
type PackageRepo struct {
	db *sql.DB
}

// NewPackageRepo returns a new PackageRepo bound to the given database.
func NewPackageRepo(db *sql.DB) *PackageRepo { return &PackageRepo{db: db} }

// GetByID loads a single catalog package.  It returns
// ErrPackageNotFound when no row exists for the ID.
func (r *PackageRepo) GetByID(ctx context.Context, packageID uint64) (*model.Package, error) {
	const q = `SELECT id, name, kind, sessions, category,
                      allot_group, allot_semi_private, allot_private,
                      duration_days, active
               FROM packages WHERE id = ?`
	var p model.Package
	var category sql.NullString
	err := r.db.QueryRowContext(ctx, q, packageID).Scan(
		&p.ID, &p.Name, &p.Kind, &p.Sessions, &category,
		&p.Allotment.Group, &p.Allotment.SemiPrivate, &p.Allotment.Private,
		&p.DurationDays, &p.Active,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPackageNotFound
	}
	if err != nil {
		return nil, err
	}
	if category.Valid {
		p.Category = model.Bucket(category.String)
	}
	return &p, nil
}

// ListActive returns all packages that can currently be granted,
// ordered by kind then name for stable staff-facing listings.
func (r *PackageRepo) ListActive(ctx context.Context) ([]model.Package, error) {
	const q = `SELECT id, name, kind, sessions, category,
                      allot_group, allot_semi_private, allot_private,
                      duration_days, active
               FROM packages WHERE active = 1
               ORDER BY kind, name`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	pkgs := make([]model.Package, 0)
	for rows.Next() {
		var p model.Package
		var category sql.NullString
		if err := rows.Scan(
			&p.ID, &p.Name, &p.Kind, &p.Sessions, &category,
			&p.Allotment.Group, &p.Allotment.SemiPrivate, &p.Allotment.Private,
			&p.DurationDays, &p.Active,
		); err != nil {
			return nil, err
		}
		if category.Valid {
			p.Category = model.Bucket(category.String)
		}
		pkgs = append(pkgs, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return pkgs, nil
}
