package ledger

import (
	"testing"
	"time"
)

func TestMemStore_RoundTrip(t *testing.T) {
	s := NewMemStore()

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

	ok, err = s.Has("O1")
	if err != nil || !ok {
		t.Fatalf("has after record: ok=%v err=%v", ok, err)
	}
	got, ok, err := s.Get("O1")
	if err != nil || !ok {
		t.Fatalf("get after record: ok=%v err=%v", ok, err)
	}
	if got.Reference != "ref-1" || got.Outcome != "created" || got.SubmittedAt != "2024-06-15T12:00:00Z" {
		t.Fatalf("unexpected entry: %+v", got)
	}
}

func TestFileStore_SurvivesReload(t *testing.T) {
	path := t.TempDir() + "/idempotency.json"

	s1, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s1.Record("O1", NewEntry("ref-1", "created", time.Now())); err != nil {
		t.Fatalf("record O1: %v", err)
	}
	if err := s1.Record("O2", NewEntry("ref-2", "exists", time.Now())); err != nil {
		t.Fatalf("record O2: %v", err)
	}
	if err := s1.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	s2, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	for _, id := range []string{"O1", "O2"} {
		ok, err := s2.Has(id)
		if err != nil || !ok {
			t.Fatalf("reloaded store missing %s: ok=%v err=%v", id, ok, err)
		}
	}
	e, ok, err := s2.Get("O2")
	if err != nil || !ok {
		t.Fatalf("get O2: ok=%v err=%v", ok, err)
	}
	if e.Reference != "ref-2" || e.Outcome != "exists" {
		t.Fatalf("unexpected entry: %+v", e)
	}
}

func TestFileStore_RangeVisitsAll(t *testing.T) {
	path := t.TempDir() + "/ledger.json"
	s, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	_ = s.Record("A", NewEntry("r1", "created", time.Now()))
	_ = s.Record("B", NewEntry("r2", "created", time.Now()))

	count := 0
	if err := s.Range(func(id string, e Entry) error { count++; return nil }); err != nil {
		t.Fatalf("range: %v", err)
	}
	if count != 2 {
		t.Fatalf("range count=%d want=2", count)
	}
}

func TestFileStore_MissingFileStartsEmpty(t *testing.T) {
	s, err := NewFileStore(t.TempDir() + "/absent.json")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	ok, err := s.Has("anything")
	if err != nil || ok {
		t.Fatalf("fresh store: ok=%v err=%v", ok, err)
	}
}
