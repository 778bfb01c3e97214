package audit

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/segmentio/kafka-go"
)

func TestFileWriter_AppendsJSONL(t *testing.T) {
	dir := t.TempDir()
	w, err := NewFileWriter(dir, "audit.jsonl")
	if err != nil {
		t.Fatalf("new file writer: %v", err)
	}

	events := []Event{
		{RunID: "r1", OrderID: "O1", Classification: "accepted", Reason: "created", Reference: "ref-1", TS: 1},
		{RunID: "r1", OrderID: "O2", Classification: "rejected", Reason: "invalid amount", TS: 2},
	}
	for _, e := range events {
		if err := w.Append(e); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	f, err := os.Open(filepath.Join(dir, "audit.jsonl"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	sc := bufio.NewScanner(f)
	var got []Event
	for sc.Scan() {
		var e Event
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			t.Fatalf("unmarshal line: %v", err)
		}
		got = append(got, e)
	}
	if len(got) != 2 {
		t.Fatalf("want 2 lines, got %d", len(got))
	}
	if got[0].OrderID != "O1" || got[1].Reason != "invalid amount" {
		t.Fatalf("unexpected events: %+v", got)
	}
}

type fakeKafkaWriter struct {
	msgs []kafka.Message
}

func (f *fakeKafkaWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func TestKafkaWriter_KeyedByOrderID(t *testing.T) {
	fk := &fakeKafkaWriter{}
	w := NewKafkaWriterWith(fk)

	if err := w.Append(Event{RunID: "r1", OrderID: "O7", Classification: "accepted", TS: 5}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if len(fk.msgs) != 1 {
		t.Fatalf("want 1 message, got %d", len(fk.msgs))
	}
	if string(fk.msgs[0].Key) != "O7" {
		t.Fatalf("key=%q want O7", fk.msgs[0].Key)
	}
	var e Event
	if err := json.Unmarshal(fk.msgs[0].Value, &e); err != nil {
		t.Fatalf("unmarshal value: %v", err)
	}
	if e.Classification != "accepted" || e.TS != 5 {
		t.Fatalf("unexpected event: %+v", e)
	}
}

func TestMultiWriter_FansOut(t *testing.T) {
	fk1 := &fakeKafkaWriter{}
	fk2 := &fakeKafkaWriter{}
	mw := NewMultiWriter(NewKafkaWriterWith(fk1), NewKafkaWriterWith(fk2))

	if err := mw.Append(Event{OrderID: "O1"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if len(fk1.msgs) != 1 || len(fk2.msgs) != 1 {
		t.Fatalf("fanout incomplete: %d %d", len(fk1.msgs), len(fk2.msgs))
	}
}
