package repository

import (
	"context"
	"time"

	"github.com/karlsjo/sustainlog/internal/model"
)

// NotaryQueue is the durable retry queue for ledger anchoring. Rows are
// keyed by fingerprint; a row that reached the notarized state is never
// selected again, so re-delivery cannot double-anchor.
type NotaryQueue interface {
	// Due returns pending tasks whose next attempt time has passed.
	Due(ctx context.Context, now time.Time, limit int) ([]model.NotarizationTask, error)

	// MarkNotarized records the ledger transaction reference and retires the task.
	MarkNotarized(ctx context.Context, fingerprint, txHash string) error

	// Reschedule bumps the attempt counter and sets the next attempt time,
	// returning the new counter value.
	Reschedule(ctx context.Context, fingerprint string, nextAttempt time.Time) (int, error)

	// MarkFailed retires the task as permanently unanchored.
	MarkFailed(ctx context.Context, fingerprint string) error
}
