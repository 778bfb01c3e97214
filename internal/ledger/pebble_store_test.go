package ledger

import (
	"testing"
	"time"
)

func TestPebbleStore_RecordAndGet(t *testing.T) {
	dir := t.TempDir()
	s, err := NewPebbleStore(dir)
	if err != nil {
		t.Fatalf("pebble open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	ok, err := s.Has("O1")
	if err != nil {
		t.Fatalf("has: %v", err)
	}
	if ok {
		t.Fatalf("empty store should not have O1")
	}

	e := NewEntry("ref-1", "created", time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC))
	if err := s.Record("O1", e); err != nil {
		t.Fatalf("record: %v", err)
	}
	got, ok, err := s.Get("O1")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if got != e {
		t.Fatalf("get mismatch: %+v vs %+v", got, e)
	}
}

func TestPebbleStore_Range(t *testing.T) {
	dir := t.TempDir()
	s, err := NewPebbleStore(dir)
	if err != nil {
		t.Fatalf("pebble open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	_ = s.Record("A", NewEntry("r1", "created", time.Now()))
	_ = s.Record("B", NewEntry("r2", "exists", time.Now()))

	seen := map[string]string{}
	if err := s.Range(func(id string, e Entry) error {
		seen[id] = e.Reference
		return nil
	}); err != nil {
		t.Fatalf("range: %v", err)
	}
	if len(seen) != 2 || seen["A"] != "r1" || seen["B"] != "r2" {
		t.Fatalf("unexpected range contents: %v", seen)
	}
}
