package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/karlsjo/sustainlog/internal/errs"
	"github.com/karlsjo/sustainlog/internal/model"
)

// OwnerRepo implements OwnerRepository using PostgreSQL.
type OwnerRepo struct{ db *DB }

// NewOwnerRepo constructs an owner repository.
func NewOwnerRepo(db *DB) *OwnerRepo { return &OwnerRepo{db: db} }

// GetBySlug resolves a public timeline slug.
func (r *OwnerRepo) GetBySlug(ctx context.Context, slug string) (*model.Owner, error) {
	const q = `SELECT id, name, slug, created_at FROM owners WHERE slug=$1`
	var o model.Owner
	if err := r.db.Pool.QueryRow(ctx, q, slug).Scan(&o.ID, &o.Name, &o.Slug, &o.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

// List returns all owners for the public companies directory.
func (r *OwnerRepo) List(ctx context.Context) ([]model.Owner, error) {
	const q = `SELECT id, name, slug, created_at FROM owners ORDER BY name ASC`
	rows, err := r.db.Pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Owner
	for rows.Next() {
		var o model.Owner
		if err = rows.Scan(&o.ID, &o.Name, &o.Slug, &o.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
