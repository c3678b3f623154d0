package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrIdempotencyConflict indicates a document-creation request replayed
	// with a key that has already been processed.
	ErrIdempotencyConflict = errors.New("idempotent request already processed")
)
