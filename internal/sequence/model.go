// Package sequence mints unique, human-readable document numbers per
// organization and document type. The counter row is the only shared mutable
// state in the document-creation path and is advanced exclusively inside the
// surrounding transaction.
package sequence

import (
	"context"
	"errors"
)

// DocType identifies which document family a sequence numbers.
type DocType string

const (
	DocTypeQuote   DocType = "QUOTE"
	DocTypeOrder   DocType = "ORDER"
	DocTypeInvoice DocType = "INVOICE"
)

// DefaultPattern returns the built-in pattern used when an organization has
// never allocated a number of this type before.
func DefaultPattern(dt DocType) string {
	switch dt {
	case DocTypeOrder:
		return "SO{YYYY}-{####}"
	case DocTypeInvoice:
		return "INV{YYYY}-{####}"
	default:
		return "Q{YYYY}-{####}"
	}
}

// Sequence is one persistent counter row.
type Sequence struct {
	OrgID      int64
	DocType    DocType
	Pattern    string
	NextNumber int64
}

var (
	// ErrNotFound indicates no sequence row exists yet for the pair.
	ErrNotFound = errors.New("sequence: not found")
	// ErrExhausted is returned when the bounded collision-retry budget runs
	// out. The whole document creation is safe to retry from the top.
	ErrExhausted = errors.New("sequence: unable to allocate document number")
)

// Store is the transactional storage surface the allocator drives. An
// implementation must be bound to the same transaction that creates the
// document, so a rollback discards the counter advance too. GetForUpdate
// must serialize concurrent allocators for the same pair (row lock or an
// equivalent critical section).
type Store interface {
	GetForUpdate(ctx context.Context, orgID int64, dt DocType) (*Sequence, error)
	Create(ctx context.Context, seq Sequence) error
	SetNextNumber(ctx context.Context, orgID int64, dt DocType, next int64) error
	NumberExists(ctx context.Context, orgID int64, dt DocType, number string) (bool, error)
}
