package history

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matzehuels/modlink/pkg/normalize"
)

func TestFromReport(t *testing.T) {
	rep := &normalize.Report{
		StartedAt: time.Now(),
		Duration:  42 * time.Millisecond,
		Scanned:   3,
		Changed:   2,
		Dropped:   1,
		DryRun:    true,
		Failures:  []normalize.Failure{{Path: "x", Error: "boom"}},
	}

	rec := FromReport(rep)
	if rec.ID == "" {
		t.Error("FromReport() left the ID empty")
	}
	if rec.Scanned != 3 || rec.Changed != 2 || rec.Dropped != 1 || rec.Failures != 1 || !rec.DryRun {
		t.Errorf("FromReport() = %+v", rec)
	}
	if other := FromReport(rep); other.ID == rec.ID {
		t.Error("FromReport() reused an ID")
	}
}

func appendRecords(t *testing.T, s Store, ids ...string) {
	t.Helper()
	for _, id := range ids {
		if err := s.Append(context.Background(), Record{ID: id}); err != nil {
			t.Fatalf("Append(%s) error = %v", id, err)
		}
	}
}

func checkNewestFirst(t *testing.T, s Store, limit int, want ...string) {
	t.Helper()
	got, err := s.List(context.Background(), limit)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("List() = %d records, want %d", len(got), len(want))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("List()[%d].ID = %q, want %q", i, got[i].ID, id)
		}
	}
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	appendRecords(t, s, "a", "b", "c")

	checkNewestFirst(t, s, 0, "c", "b", "a")
	checkNewestFirst(t, s, 2, "c", "b")
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.jsonl")
	s, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	appendRecords(t, s, "a", "b", "c")

	checkNewestFirst(t, s, 0, "c", "b", "a")
	checkNewestFirst(t, s, 1, "c")

	// A fresh store over the same file sees the same log.
	reopened, err := NewFileStore(path)
	if err != nil {
		t.Fatal(err)
	}
	checkNewestFirst(t, reopened, 0, "c", "b", "a")
}

func TestFileStoreEmptyLog(t *testing.T) {
	s, err := NewFileStore(filepath.Join(t.TempDir(), "history.jsonl"))
	if err != nil {
		t.Fatal(err)
	}
	got, err := s.List(context.Background(), 0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("List() = %v, want empty", got)
	}
}

func TestFileStoreSkipsCorruptLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.jsonl")
	s, err := NewFileStore(path)
	if err != nil {
		t.Fatal(err)
	}
	appendRecords(t, s, "a")

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString("not json\n"); err != nil {
		t.Fatal(err)
	}
	f.Close()
	appendRecords(t, s, "b")

	checkNewestFirst(t, s, 0, "b", "a")
}
