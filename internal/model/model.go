// Package model defines domain entities shared by services and repositories.
package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// Category classifies a sustainability action. The empty value is allowed
// and means "uncategorized".
type Category string

// Known categories.
const (
	CategoryNone       Category = ""
	CategorySourcing   Category = "Sourcing"
	CategoryOperations Category = "Operations"
	CategoryImpact     Category = "Impact"
)

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryNone, CategorySourcing, CategoryOperations, CategoryImpact:
		return true
	}
	return false
}

// ActionRecord is the durable unit: one immutable sustainability claim.
// Records are append-only; nothing is ever mutated or deleted after creation,
// since they exist to prove a claim was made at a point in time.
type ActionRecord struct {
	ID          uuid.UUID // assigned at creation, never reused
	OwnerID     uuid.UUID // submitting account, immutable
	Text        string    // plaintext claim; persisted only in encrypted form
	FileBytes   []byte    // optional attachment, stored as-is
	Category    Category
	Fingerprint string    // lowercase hex SHA-256, the public proof handle
	CreatedAt   time.Time // assigned by the database at insert time
}

// StoredAction is a row as read back from the store, text still encrypted.
type StoredAction struct {
	ID          uuid.UUID
	OwnerID     uuid.UUID
	TextEnc     []byte
	FileBytes   []byte
	Category    Category
	Fingerprint string
	CreatedAt   time.Time
}

// TimelineEntry is a decrypted record prepared for display. Err is set when
// this single record could not be decrypted; the remaining entries of a
// listing are unaffected.
type TimelineEntry struct {
	ID          uuid.UUID
	Text        string
	FileBytes   []byte
	Category    Category
	Fingerprint string
	CreatedAt   time.Time
	Err         error
}

// Owner is the account that submitted actions. Its lifecycle (registration,
// login, slug issuance) is managed by the external auth system; this service
// only reads it.
type Owner struct {
	ID        uuid.UUID
	Name      string
	Slug      string // stable public timeline identifier
	CreatedAt time.Time
}

// NotarizationTask is a due queue entry, keyed by fingerprint so retries can
// never produce duplicate ledger writes.
type NotarizationTask struct {
	Fingerprint string
	CreatedAt   time.Time // action timestamp sent to the ledger
	Attempts    int
}

// NotarizationReceipt associates a fingerprint with the external ledger
// transaction reference.
type NotarizationReceipt struct {
	Fingerprint string
	TxHash      string
	NotarizedAt time.Time
}
