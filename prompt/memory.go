package prompt

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory Store implementation used in tests and in
// deployments without a NATS backend.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*Record
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]*Record),
	}
}

// Lookup performs a point query against the store.
func (s *MemoryStore) Lookup(_ context.Context, q Query) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[q.StoreKey()]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *rec
	return &copied, nil
}

// Put inserts or replaces a record under its identity.
func (s *MemoryStore) Put(_ context.Context, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *rec
	s.records[QueryFor(rec).StoreKey()] = &copied
	return nil
}

// Delete removes the record matching the query.
func (s *MemoryStore) Delete(_ context.Context, q Query) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, q.StoreKey())
	return nil
}
