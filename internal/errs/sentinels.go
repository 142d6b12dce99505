// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across repo/service layers.
var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized indicates a missing or invalid owner context.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidInput indicates a failed validation (e.g. empty claim text).
	ErrInvalidInput = errors.New("invalid input")

	// ErrDuplicateFingerprint indicates the unique-fingerprint constraint
	// rejected a second identical submission.
	ErrDuplicateFingerprint = errors.New("duplicate fingerprint")

	// ErrDecryptFailed indicates a stored record could not be decrypted
	// (key mismatch or corrupted blob). Reported per record, never fatal
	// to a whole listing.
	ErrDecryptFailed = errors.New("decrypt failed")
)
