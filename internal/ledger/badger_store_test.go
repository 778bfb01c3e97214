package ledger

import (
	"testing"
	"time"
)

func TestBadgerStore_RecordSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	s, err := NewBadgerStore(dir)
	if err != nil {
		t.Fatalf("badger open: %v", err)
	}

	e := NewEntry("ref-9", "created", time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC))
	if err := s.Record("O9", e); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	s2, err := NewBadgerStore(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	t.Cleanup(func() { _ = s2.Close() })

	got, ok, err := s2.Get("O9")
	if err != nil || !ok {
		t.Fatalf("get after reopen: ok=%v err=%v", ok, err)
	}
	if got != e {
		t.Fatalf("entry mismatch: %+v vs %+v", got, e)
	}

	ok, err = s2.Has("missing")
	if err != nil || ok {
		t.Fatalf("unexpected hit for missing key: ok=%v err=%v", ok, err)
	}
}
