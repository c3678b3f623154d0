package sequence

import (
	"context"
	"fmt"
	"time"
)

const defaultMaxAttempts = 10

// Allocator mints the next formatted document number for an (organization,
// docType) pair. It holds no storage of its own; the caller passes a Store
// bound to the document-creation transaction so the counter advance commits
// or rolls back together with the document insert.
type Allocator struct {
	maxAttempts int
	now         func() time.Time

	// OnRetry is invoked once per uniqueness collision, for metrics.
	OnRetry func(dt DocType)
}

// Option configures an Allocator.
type Option func(*Allocator)

// WithMaxAttempts bounds the collision retry loop.
func WithMaxAttempts(n int) Option {
	return func(a *Allocator) {
		if n > 0 {
			a.maxAttempts = n
		}
	}
}

// WithClock overrides the wall clock, used by tests to pin the year.
func WithClock(now func() time.Time) Option {
	return func(a *Allocator) { a.now = now }
}

// NewAllocator constructs an allocator with the default retry budget.
func NewAllocator(opts ...Option) *Allocator {
	a := &Allocator{
		maxAttempts: defaultMaxAttempts,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Allocate returns the next unique formatted number for the pair, creating
// the sequence row lazily on first use. The row is read under lock, the
// candidate is checked against already-issued document numbers (counters can
// fall behind after manual edits), and the counter is persisted as
// candidate+1. Exhausting the retry budget returns ErrExhausted.
func (a *Allocator) Allocate(ctx context.Context, store Store, orgID int64, dt DocType) (string, error) {
	seq, err := store.GetForUpdate(ctx, orgID, dt)
	if err == ErrNotFound {
		create := Sequence{OrgID: orgID, DocType: dt, Pattern: DefaultPattern(dt), NextNumber: 1}
		if err := store.Create(ctx, create); err != nil {
			return "", fmt.Errorf("sequence: create: %w", err)
		}
		// Re-read under lock; a concurrent creator may have won the insert.
		seq, err = store.GetForUpdate(ctx, orgID, dt)
	}
	if err != nil {
		return "", fmt.Errorf("sequence: fetch: %w", err)
	}

	year := a.now().Year()
	candidate := seq.NextNumber
	for attempt := 0; attempt < a.maxAttempts; attempt++ {
		number := Format(seq.Pattern, year, candidate)
		exists, err := store.NumberExists(ctx, orgID, dt, number)
		if err != nil {
			return "", fmt.Errorf("sequence: uniqueness check: %w", err)
		}
		if !exists {
			if err := store.SetNextNumber(ctx, orgID, dt, candidate+1); err != nil {
				return "", fmt.Errorf("sequence: advance: %w", err)
			}
			return number, nil
		}
		if a.OnRetry != nil {
			a.OnRetry(dt)
		}
		candidate++
	}
	return "", ErrExhausted
}
