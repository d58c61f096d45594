package report

import (
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := NewStore(filepath.Join(t.TempDir(), "counts.db"))

	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	t.Cleanup(func() { s.Close() })

	return s
}

func TestStoreRunLifecycle(t *testing.T) {

	s := newTestStore(t)

	meta := testMetadata()
	start := time.Date(2025, 3, 14, 15, 0, 0, 0, time.UTC)

	if err := s.BeginRun(meta, start); err != nil {
		t.Fatalf("BeginRun: %v", err)
	}

	ts := start.Add(10 * time.Second)

	if err := s.RecordCrossing(meta.Session, ts, 300,
		Crossing{Label: "car", Direction: DirIn}, 5); err != nil {
		t.Fatalf("RecordCrossing: %v", err)
	}

	if err := s.RecordCrossing(meta.Session, ts.Add(time.Second), 330,
		Crossing{Label: "truck", Direction: DirOut}, 4); err != nil {
		t.Fatalf("RecordCrossing: %v", err)
	}

	if err := s.FinishRun(meta.Session, start.Add(time.Minute), 1800); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}

	events, err := s.Crossings(meta.Session)

	if err != nil {
		t.Fatalf("Crossings: %v", err)
	}

	if len(events) != 2 {
		t.Fatalf("got %d crossings, want 2", len(events))
	}

	first := events[0]

	if first.Label != "car" || first.Direction != DirIn || first.Inventory != 5 {
		t.Errorf("first crossing = %+v", first)
	}

	if first.Frame != 300 {
		t.Errorf("first crossing frame = %d, want 300", first.Frame)
	}

	if !first.Timestamp.Equal(ts) {
		t.Errorf("first crossing time = %v, want %v", first.Timestamp, ts)
	}

	second := events[1]

	if second.Label != "truck" || second.Direction != DirOut || second.Inventory != 4 {
		t.Errorf("second crossing = %+v", second)
	}
}

func TestStoreCrossingsEmpty(t *testing.T) {

	s := newTestStore(t)

	events, err := s.Crossings("no-such-run")

	if err != nil {
		t.Fatalf("Crossings: %v", err)
	}

	if len(events) != 0 {
		t.Errorf("got %d crossings for unknown run", len(events))
	}
}
