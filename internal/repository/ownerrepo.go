package repository

import (
	"context"

	"github.com/karlsjo/sustainlog/internal/model"
)

// OwnerRepository reads owner accounts managed by the external auth system.
type OwnerRepository interface {
	// GetBySlug resolves a public timeline slug. ErrNotFound on unknown slug.
	GetBySlug(ctx context.Context, slug string) (*model.Owner, error)

	// List returns all owners for the public companies directory.
	List(ctx context.Context) ([]model.Owner, error)
}
