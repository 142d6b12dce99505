package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/karlsjo/sustainlog/internal/errs"
	"github.com/karlsjo/sustainlog/internal/model"
)

// NotaryQueueRepo implements NotaryQueue using PostgreSQL. One row per
// fingerprint; the status column ('pending', 'notarized', 'failed') gates
// selection so a finished task is never picked up again.
type NotaryQueueRepo struct{ db *DB }

// NewNotaryQueueRepo constructs the queue repository.
func NewNotaryQueueRepo(db *DB) *NotaryQueueRepo { return &NotaryQueueRepo{db: db} }

// Due returns pending tasks whose next attempt time has passed, oldest first.
// The joined created_at is the action timestamp that goes to the ledger.
func (r *NotaryQueueRepo) Due(ctx context.Context, now time.Time, limit int) ([]model.NotarizationTask, error) {
	const q = `
SELECT q.fingerprint, a.created_at, q.attempts
FROM notary_queue q
JOIN actions a ON a.fingerprint = q.fingerprint
WHERE q.status='pending' AND q.next_attempt_at <= $1
ORDER BY q.next_attempt_at ASC
LIMIT $2`
	rows, err := r.db.Pool.Query(ctx, q, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.NotarizationTask
	for rows.Next() {
		var t model.NotarizationTask
		if err = rows.Scan(&t.Fingerprint, &t.CreatedAt, &t.Attempts); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// MarkNotarized retires a pending task with its ledger transaction reference.
func (r *NotaryQueueRepo) MarkNotarized(ctx context.Context, fingerprint, txHash string) error {
	const q = `
UPDATE notary_queue SET status='notarized', tx_hash=$2, updated_at=now()
WHERE fingerprint=$1 AND status='pending'`
	tag, err := r.db.Pool.Exec(ctx, q, fingerprint, txHash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// Reschedule bumps the attempt counter and sets the next attempt time.
func (r *NotaryQueueRepo) Reschedule(ctx context.Context, fingerprint string, nextAttempt time.Time) (int, error) {
	const q = `
UPDATE notary_queue SET attempts=attempts+1, next_attempt_at=$2, updated_at=now()
WHERE fingerprint=$1 AND status='pending'
RETURNING attempts`
	var attempts int
	if err := r.db.Pool.QueryRow(ctx, q, fingerprint, nextAttempt).Scan(&attempts); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, errs.ErrNotFound
		}
		return 0, err
	}
	return attempts, nil
}

// MarkFailed retires a task as permanently unanchored. The action record
// itself stays valid and readable.
func (r *NotaryQueueRepo) MarkFailed(ctx context.Context, fingerprint string) error {
	const q = `
UPDATE notary_queue SET status='failed', updated_at=now()
WHERE fingerprint=$1 AND status='pending'`
	tag, err := r.db.Pool.Exec(ctx, q, fingerprint)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}
