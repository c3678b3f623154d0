package sequence

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore is an in-memory Store for unit tests. WithTx mirrors the
// database row lock with a single mutex, giving the same serialization the
// Postgres store gets from SELECT ... FOR UPDATE.
type MemoryStore struct {
	mu     sync.Mutex
	rows   map[string]*Sequence
	issued map[string]map[string]bool
}

// NewMemoryStore constructs an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rows:   make(map[string]*Sequence),
		issued: make(map[string]map[string]bool),
	}
}

func key(orgID int64, dt DocType) string {
	return fmt.Sprintf("%d/%s", orgID, dt)
}

// WithTx runs fn holding the store lock. A returned error discards nothing
// here (tests assert on final state), but callers treat it like a rollback.
func (m *MemoryStore) WithTx(ctx context.Context, fn func(Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(lockedStore{m})
}

// MarkIssued records a number as used by an existing document, simulating
// documents whose numbers were minted earlier or edited manually.
func (m *MemoryStore) MarkIssued(orgID int64, dt DocType, number string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	lockedStore{m}.MarkIssued(orgID, dt, number)
}

// Sequence returns a copy of the stored row for assertions.
func (m *MemoryStore) Sequence(orgID int64, dt DocType) (Sequence, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[key(orgID, dt)]
	if !ok {
		return Sequence{}, false
	}
	return *row, true
}

// lockedStore is the Store view handed to WithTx callbacks; the parent's
// mutex is already held.
type lockedStore struct {
	m *MemoryStore
}

func (s lockedStore) GetForUpdate(ctx context.Context, orgID int64, dt DocType) (*Sequence, error) {
	row, ok := s.m.rows[key(orgID, dt)]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *row
	return &cp, nil
}

func (s lockedStore) Create(ctx context.Context, seq Sequence) error {
	k := key(seq.OrgID, seq.DocType)
	if _, ok := s.m.rows[k]; ok {
		return nil
	}
	cp := seq
	s.m.rows[k] = &cp
	return nil
}

func (s lockedStore) SetNextNumber(ctx context.Context, orgID int64, dt DocType, next int64) error {
	row, ok := s.m.rows[key(orgID, dt)]
	if !ok {
		return ErrNotFound
	}
	row.NextNumber = next
	return nil
}

func (s lockedStore) NumberExists(ctx context.Context, orgID int64, dt DocType, number string) (bool, error) {
	return s.m.issued[key(orgID, dt)][number], nil
}

// MarkIssued records an issued number; callable inside WithTx where the
// lock is already held.
func (s lockedStore) MarkIssued(orgID int64, dt DocType, number string) {
	k := key(orgID, dt)
	if s.m.issued[k] == nil {
		s.m.issued[k] = make(map[string]bool)
	}
	s.m.issued[k][number] = true
}
