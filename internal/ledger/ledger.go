package ledger

import (
	"fmt"
	"sync"
	"time"
)

// Entry records one durable downstream acceptance.
type Entry struct {
	Reference   string `json:"reference"`
	SubmittedAt string `json:"submittedAt"` // RFC3339 UTC
	Outcome     string `json:"outcome"`     // created|exists
}

// NewEntry stamps an entry with the given UTC time.
func NewEntry(reference, outcome string, at time.Time) Entry {
	return Entry{Reference: reference, SubmittedAt: at.UTC().Format(time.RFC3339), Outcome: outcome}
}

// Store is the durable idempotency ledger. Entries are only ever added or
// overwritten with fresher acceptance data, never deleted by the pipeline.
// Single-writer: one process per ledger at a time.
type Store interface {
	Has(orderID string) (bool, error)
	Get(orderID string) (Entry, bool, error)
	// Record persists the entry before returning; a crash after Record
	// never loses an acceptance.
	Record(orderID string, e Entry) error
	Range(fn func(orderID string, e Entry) error) error
	Close() error
}

// MemStore is a map-backed Store for tests and dry runs.
type MemStore struct {
	mu   sync.RWMutex
	data map[string]Entry
}

func NewMemStore() *MemStore {
	return &MemStore{data: make(map[string]Entry)}
}

func (s *MemStore) Has(orderID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.data[orderID]
	return ok, nil
}

func (s *MemStore) Get(orderID string) (Entry, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.data[orderID]
	return e, ok, nil
}

func (s *MemStore) Record(orderID string, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[orderID] = e
	return nil
}

func (s *MemStore) Range(fn func(orderID string, e Entry) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for k, v := range s.data {
		if err := fn(k, v); err != nil {
			return fmt.Errorf("range callback failed: %w", err)
		}
	}
	return nil
}

func (s *MemStore) Close() error { return nil }
