package index

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestSnapshotLookups(t *testing.T) {
	snap := NewSnapshot(map[string]string{
		"proj/Audio.mod.json":           "id-audio",
		"proj/Common.mod.json":          "id-common",
		"proj/gameplay/Audio.mod.json":  "id-audio-2",
		"proj/gameplay/Combat.mod.json": "id-combat",
	})

	if got := snap.Paths(); len(got) != 4 {
		t.Fatalf("Paths() = %d entries, want 4", len(got))
	}
	for i := 1; i < len(snap.Paths()); i++ {
		if snap.Paths()[i-1] >= snap.Paths()[i] {
			t.Fatal("Paths() not sorted")
		}
	}

	t.Run("NameToPath", func(t *testing.T) {
		p, ok := snap.NameToPath("Combat")
		if !ok || p != "proj/gameplay/Combat.mod.json" {
			t.Errorf("NameToPath(Combat) = %q, %v", p, ok)
		}
		if _, ok := snap.NameToPath("Ghost"); ok {
			t.Error("NameToPath(Ghost) should miss")
		}
	})

	t.Run("NameCollisionFirstPathWins", func(t *testing.T) {
		p, ok := snap.NameToPath("Audio")
		if !ok || p != "proj/Audio.mod.json" {
			t.Errorf("NameToPath(Audio) = %q, want the lexicographically first path", p)
		}
	})

	t.Run("PathToID", func(t *testing.T) {
		id, ok := snap.PathToID("proj/Common.mod.json")
		if !ok || id != "id-common" {
			t.Errorf("PathToID = %q, %v", id, ok)
		}
	})

	t.Run("IDToPath", func(t *testing.T) {
		p, ok := snap.IDToPath("id-combat")
		if !ok || p != "proj/gameplay/Combat.mod.json" {
			t.Errorf("IDToPath = %q, %v", p, ok)
		}
		if _, ok := snap.IDToPath("nope"); ok {
			t.Error("IDToPath(nope) should miss")
		}
	})
}

func writeManifest(t *testing.T, root, rel string) string {
	t.Helper()
	path := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	doc := `{"name": "x", "references": []}`
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFSIndexScan(t *testing.T) {
	root := t.TempDir()
	a := writeManifest(t, root, "A.mod.json")
	b := writeManifest(t, root, filepath.Join("sub", "B.mod.json"))
	writeManifest(t, root, filepath.Join("vendor", "Skip.mod.json"))
	if err := os.WriteFile(filepath.Join(root, "notes.json"), []byte("{}"), 0644); err != nil {
		t.Fatal(err)
	}

	idx := NewFSIndex(root, []string{"vendor"})
	snap, err := idx.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	if got := snap.Paths(); len(got) != 2 {
		t.Fatalf("Paths() = %v, want A and B only", got)
	}
	for _, p := range []string{a, b} {
		if id, ok := snap.PathToID(p); !ok || id == "" {
			t.Errorf("PathToID(%s) = %q, %v", p, id, ok)
		}
	}
}

func TestFSIndexIdentifierStability(t *testing.T) {
	root := t.TempDir()
	a := writeManifest(t, root, "A.mod.json")

	idx := NewFSIndex(root, nil)
	snap1, err := idx.Scan(context.Background())
	if err != nil {
		t.Fatalf("first Scan() error = %v", err)
	}
	id1, _ := snap1.PathToID(a)

	// New index instance over the same root must reuse the persisted table.
	snap2, err := NewFSIndex(root, nil).Scan(context.Background())
	if err != nil {
		t.Fatalf("second Scan() error = %v", err)
	}
	id2, _ := snap2.PathToID(a)

	if id1 == "" || id1 != id2 {
		t.Errorf("identifier changed across scans: %q vs %q", id1, id2)
	}
}

func TestFSIndexPrunesVanishedPaths(t *testing.T) {
	root := t.TempDir()
	a := writeManifest(t, root, "A.mod.json")
	writeManifest(t, root, "B.mod.json")

	idx := NewFSIndex(root, nil)
	snap, err := idx.Scan(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	idA, _ := snap.PathToID(a)

	if err := os.Remove(filepath.Join(root, "B.mod.json")); err != nil {
		t.Fatal(err)
	}
	if err := idx.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	snap, err = idx.Scan(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.Paths()) != 1 {
		t.Fatalf("Paths() = %v after prune", snap.Paths())
	}
	if id, _ := snap.PathToID(a); id != idA {
		t.Errorf("surviving identifier changed: %q vs %q", id, idA)
	}
}

func TestFSIndexSkipsOwnTable(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "A.mod.json")

	idx := NewFSIndex(root, nil)
	if _, err := idx.Scan(context.Background()); err != nil {
		t.Fatal(err)
	}
	// A second scan must not pick up anything inside .modlink.
	snap, err := idx.Scan(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.Paths()) != 1 {
		t.Errorf("Paths() = %v, table dir leaked into scan", snap.Paths())
	}
}
