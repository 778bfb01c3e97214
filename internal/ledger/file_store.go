package ledger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// FileStore keeps the ledger as a single JSON document, loaded fully at open
// and rewritten atomically (temp file + rename) on every Record so a crash
// mid-write never leaves a torn ledger.
type FileStore struct {
	path string
	mu   sync.Mutex
	data map[string]Entry
}

type fileDoc struct {
	Processed []fileEntry `json:"processed"`
}

type fileEntry struct {
	OrderID     string `json:"order_id"`
	Reference   string `json:"reference"`
	SubmittedAt string `json:"submitted_at"`
	Outcome     string `json:"outcome"`
}

func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{path: path, data: make(map[string]Entry)}
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read ledger: %w", err)
	}
	var doc fileDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal ledger %s: %w", path, err)
	}
	for _, fe := range doc.Processed {
		s.data[fe.OrderID] = Entry{Reference: fe.Reference, SubmittedAt: fe.SubmittedAt, Outcome: fe.Outcome}
	}
	return s, nil
}

func (s *FileStore) Has(orderID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.data[orderID]
	return ok, nil
}

func (s *FileStore) Get(orderID string) (Entry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.data[orderID]
	return e, ok, nil
}

func (s *FileStore) Record(orderID string, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[orderID] = e
	return s.flushLocked()
}

func (s *FileStore) flushLocked() error {
	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	doc := fileDoc{Processed: make([]fileEntry, 0, len(ids))}
	for _, id := range ids {
		e := s.data[id]
		doc.Processed = append(doc.Processed, fileEntry{
			OrderID:     id,
			Reference:   e.Reference,
			SubmittedAt: e.SubmittedAt,
			Outcome:     e.Outcome,
		})
	}
	b, err := json.MarshalIndent(&doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal ledger: %w", err)
	}
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".ledger-*")
	if err != nil {
		return fmt.Errorf("create temp ledger: %w", err)
	}
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write temp ledger: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("sync temp ledger: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp ledger: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("rename ledger: %w", err)
	}
	return nil
}

func (s *FileStore) Range(fn func(orderID string, e Entry) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range s.data {
		if err := fn(k, v); err != nil {
			return fmt.Errorf("range callback failed: %w", err)
		}
	}
	return nil
}

func (s *FileStore) Close() error { return nil }
