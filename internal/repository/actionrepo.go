// Package repository declares persistence interfaces implemented by the
// postgres subpackage.
package repository

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/karlsjo/sustainlog/internal/model"
)

// ActionRepository provides append-only access to anchored actions.
type ActionRepository interface {
	// Create persists the record and its pending notarization task in one
	// transaction and fills in the database-assigned CreatedAt. A second
	// record with the same fingerprint fails with ErrDuplicateFingerprint.
	Create(ctx context.Context, a *model.StoredAction) error

	// ListByOwner returns all records for an owner ordered by creation time.
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.StoredAction, error)
}
