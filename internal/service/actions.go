// Package service contains the application service for the anchoring pipeline.
package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	pkgcrypto "github.com/karlsjo/sustainlog/internal/crypto"
	"github.com/karlsjo/sustainlog/internal/errs"
	"github.com/karlsjo/sustainlog/internal/fingerprint"
	"github.com/karlsjo/sustainlog/internal/model"
	"github.com/karlsjo/sustainlog/internal/repository"
)

// ActionService defines the anchoring pipeline operations.
type ActionService interface {
	// Create fingerprints and encrypts a claim, persists it atomically with
	// its pending notarization task, and returns the record with the
	// plaintext echoed back. Success never depends on the ledger.
	Create(ctx context.Context, ownerID uuid.UUID, in CreateInput) (*model.ActionRecord, error)

	// ListPrivate returns the owner's decrypted timeline, oldest first.
	// An empty timeline is an empty slice, not an error.
	ListPrivate(ctx context.Context, ownerID uuid.UUID) ([]model.TimelineEntry, error)

	// ListPublic resolves a public slug and returns the owner display name
	// with the decrypted timeline. ErrNotFound on unknown slug.
	ListPublic(ctx context.Context, slug string) (string, []model.TimelineEntry, error)

	// Companies lists all owners for the public directory.
	Companies(ctx context.Context) ([]model.Owner, error)
}

// CreateInput is a submitted claim before fingerprinting.
type CreateInput struct {
	Text     string
	File     []byte
	Category model.Category
}

type ActionServiceImpl struct {
	actions repository.ActionRepository
	owners  repository.OwnerRepository
	cipher  *pkgcrypto.Cipher
	nudge   func() // wakes the notarization worker; may be nil
	log     *zap.Logger
}

// NewActionService constructs the pipeline service. nudge is called after a
// successful Create so the worker picks the task up without waiting for the
// next poll; it must never block.
func NewActionService(
	actions repository.ActionRepository,
	owners repository.OwnerRepository,
	cipher *pkgcrypto.Cipher,
	nudge func(),
	log *zap.Logger,
) *ActionServiceImpl {
	if log == nil {
		log = zap.NewNop()
	}
	return &ActionServiceImpl{actions: actions, owners: owners, cipher: cipher, nudge: nudge, log: log}
}

// Create validates, fingerprints, encrypts and persists a claim.
// Validation rules:
// - ownerID != uuid.Nil (callers map this to an authentication failure)
// - text non-empty after trimming
// - category is one of the known values or empty
func (s *ActionServiceImpl) Create(ctx context.Context, ownerID uuid.UUID, in CreateInput) (*model.ActionRecord, error) {
	if ownerID == uuid.Nil {
		return nil, errs.ErrUnauthorized
	}
	if !in.Category.Valid() {
		return nil, fmt.Errorf("%w: unknown category %q", errs.ErrInvalidInput, in.Category)
	}

	// Trim once so the stored text is exactly what the digest covers.
	in.Text = strings.TrimSpace(in.Text)
	fp, err := fingerprint.Compute(in.Text, in.File)
	if err != nil {
		return nil, fmt.Errorf("%w: agreement text is required", errs.ErrInvalidInput)
	}

	textEnc, err := s.cipher.Seal([]byte(in.Text))
	if err != nil {
		return nil, fmt.Errorf("encrypt text: %w", err)
	}

	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	stored := &model.StoredAction{
		ID:          id,
		OwnerID:     ownerID,
		TextEnc:     textEnc,
		FileBytes:   in.File,
		Category:    in.Category,
		Fingerprint: fp,
	}
	if err := s.actions.Create(ctx, stored); err != nil {
		return nil, err
	}

	// Best-effort handoff: the task is already durable, the nudge only
	// shortens the wait until the worker's next poll.
	if s.nudge != nil {
		s.nudge()
	}

	s.log.Info("action created",
		zap.String("id", id.String()),
		zap.String("fingerprint", fp),
	)
	return &model.ActionRecord{
		ID:          id,
		OwnerID:     ownerID,
		Text:        in.Text,
		FileBytes:   in.File,
		Category:    in.Category,
		Fingerprint: fp,
		CreatedAt:   stored.CreatedAt,
	}, nil
}

// ListPrivate returns the owner's decrypted timeline.
func (s *ActionServiceImpl) ListPrivate(ctx context.Context, ownerID uuid.UUID) ([]model.TimelineEntry, error) {
	if ownerID == uuid.Nil {
		return nil, errs.ErrUnauthorized
	}
	stored, err := s.actions.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return s.decryptAll(stored), nil
}

// ListPublic returns the public timeline for a slug.
func (s *ActionServiceImpl) ListPublic(ctx context.Context, slug string) (string, []model.TimelineEntry, error) {
	if slug == "" {
		return "", nil, fmt.Errorf("%w: slug is required", errs.ErrInvalidInput)
	}
	owner, err := s.owners.GetBySlug(ctx, slug)
	if err != nil {
		return "", nil, err
	}
	stored, err := s.actions.ListByOwner(ctx, owner.ID)
	if err != nil {
		return "", nil, err
	}
	return owner.Name, s.decryptAll(stored), nil
}

// Companies lists all owners.
func (s *ActionServiceImpl) Companies(ctx context.Context) ([]model.Owner, error) {
	return s.owners.List(ctx)
}

// decryptAll decrypts each record independently. A record that fails to
// decrypt keeps its fingerprint and timestamp and carries ErrDecryptFailed;
// it never aborts the rest of the list.
func (s *ActionServiceImpl) decryptAll(stored []model.StoredAction) []model.TimelineEntry {
	out := make([]model.TimelineEntry, 0, len(stored))
	for _, a := range stored {
		e := model.TimelineEntry{
			ID:          a.ID,
			FileBytes:   a.FileBytes,
			Category:    a.Category,
			Fingerprint: a.Fingerprint,
			CreatedAt:   a.CreatedAt,
		}
		pt, err := s.cipher.Open(a.TextEnc)
		if err != nil {
			e.Err = fmt.Errorf("%w: record %s", errs.ErrDecryptFailed, a.ID)
			s.log.Error("record decrypt failed",
				zap.String("id", a.ID.String()),
				zap.Error(err),
			)
		} else {
			e.Text = string(pt)
		}
		out = append(out, e)
	}
	return out
}

