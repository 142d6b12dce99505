package postgres

import (
	"context"
	"fmt"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/karlsjo/sustainlog/internal/errs"
	"github.com/karlsjo/sustainlog/internal/model"
)

// ActionRepo implements ActionRepository using PostgreSQL.
type ActionRepo struct{ db *DB }

// NewActionRepo constructs an action repository.
func NewActionRepo(db *DB) *ActionRepo { return &ActionRepo{db: db} }

// Create inserts the action row together with its pending notarization task.
// Both inserts share one transaction: on any failure nothing is committed and
// no partial record exists. created_at is assigned by the database and read
// back into the record.
func (r *ActionRepo) Create(ctx context.Context, a *model.StoredAction) (err error) {
	tx, err := r.db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		if e := tx.Commit(ctx); e != nil {
			err = e
		}
	}()

	const ins = `
INSERT INTO actions (id, owner_id, text_enc, file_bytes, category, fingerprint)
VALUES ($1,$2,$3,$4,$5,$6)
RETURNING created_at`
	const enq = `
INSERT INTO notary_queue (fingerprint, status, attempts, next_attempt_at)
VALUES ($1,'pending',0,now())`

	row := tx.QueryRow(ctx, ins, a.ID, a.OwnerID, a.TextEnc, a.FileBytes, string(a.Category), a.Fingerprint)
	if err = row.Scan(&a.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			err = fmt.Errorf("fingerprint %s: %w", a.Fingerprint, errs.ErrDuplicateFingerprint)
		}
		return err
	}
	if _, err = tx.Exec(ctx, enq, a.Fingerprint); err != nil {
		return err
	}
	return nil
}

// ListByOwner returns all records for an owner, oldest first. Ties on
// created_at break by id for a stable timeline.
func (r *ActionRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.StoredAction, error) {
	const q = `
SELECT id, owner_id, text_enc, file_bytes, category, fingerprint, created_at
FROM actions
WHERE owner_id=$1
ORDER BY created_at ASC, id ASC`
	rows, err := r.db.Pool.Query(ctx, q, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.StoredAction
	for rows.Next() {
		var (
			a   model.StoredAction
			cat string
		)
		if err = rows.Scan(&a.ID, &a.OwnerID, &a.TextEnc, &a.FileBytes, &cat, &a.Fingerprint, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.Category = model.Category(cat)
		out = append(out, a)
	}
	return out, rows.Err()
}
