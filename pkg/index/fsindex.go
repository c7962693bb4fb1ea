package index

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/uuid"

	"github.com/matzehuels/modlink/pkg/manifest"
)

// tableDir is the directory under the project root holding the identifier table.
const tableDir = ".modlink"

// tableFile is the identifier table file name.
const tableFile = "index.json"

// FSIndex is the file-scanning Index implementation. It walks the project
// tree for manifest files and keeps a persistent identifier table in
// .modlink/index.json. Identifiers are minted once per path and survive
// across runs; paths that vanish are pruned on the next scan.
type FSIndex struct {
	root   string
	ignore map[string]bool
}

// NewFSIndex creates an index rooted at root. Directories named in ignore
// (plus the identifier table's own directory) are skipped during scans.
func NewFSIndex(root string, ignore []string) *FSIndex {
	skip := map[string]bool{tableDir: true, ".git": true}
	for _, d := range ignore {
		skip[d] = true
	}
	return &FSIndex{root: root, ignore: skip}
}

// Root returns the project root the index scans.
func (x *FSIndex) Root() string { return x.root }

// table is the on-disk identifier table: identifier → path relative to root.
type table struct {
	Modules map[string]string `json:"modules"`
}

// Scan walks the tree, reconciles the identifier table with the manifests
// actually present, persists the table if it changed, and returns the
// resulting snapshot.
func (x *FSIndex) Scan(ctx context.Context) (*Snapshot, error) {
	rels, err := x.walk(ctx)
	if err != nil {
		return nil, err
	}

	tbl, err := x.loadTable()
	if err != nil {
		return nil, err
	}

	relToID := make(map[string]string, len(rels))
	for id, rel := range tbl.Modules {
		relToID[rel] = id
	}

	dirty := false
	present := make(map[string]bool, len(rels))
	for _, rel := range rels {
		present[rel] = true
		if _, ok := relToID[rel]; !ok {
			id := uuid.NewString()
			relToID[rel] = id
			tbl.Modules[id] = rel
			dirty = true
		}
	}
	for id, rel := range tbl.Modules {
		if !present[rel] {
			delete(tbl.Modules, id)
			delete(relToID, rel)
			dirty = true
		}
	}

	if dirty {
		if err := x.saveTable(tbl); err != nil {
			return nil, err
		}
	}

	pathToID := make(map[string]string, len(relToID))
	for rel, id := range relToID {
		pathToID[filepath.Join(x.root, rel)] = id
	}
	return NewSnapshot(pathToID), nil
}

// Refresh re-scans the project, reconciling the identifier table.
func (x *FSIndex) Refresh(ctx context.Context) error {
	_, err := x.Scan(ctx)
	return err
}

// walk returns root-relative manifest paths in sorted order.
func (x *FSIndex) walk(ctx context.Context) ([]string, error) {
	var rels []string
	err := filepath.WalkDir(x.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			if path != x.root && x.ignore[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if !manifest.IsManifest(path) {
			return nil
		}
		rel, err := filepath.Rel(x.root, path)
		if err != nil {
			return err
		}
		rels = append(rels, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", x.root, err)
	}
	sort.Strings(rels)
	return rels, nil
}

func (x *FSIndex) tablePath() string {
	return filepath.Join(x.root, tableDir, tableFile)
}

func (x *FSIndex) loadTable() (*table, error) {
	tbl := &table{Modules: make(map[string]string)}
	data, err := os.ReadFile(x.tablePath())
	if os.IsNotExist(err) {
		return tbl, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, tbl); err != nil {
		return nil, fmt.Errorf("parse identifier table: %w", err)
	}
	if tbl.Modules == nil {
		tbl.Modules = make(map[string]string)
	}
	return tbl, nil
}

func (x *FSIndex) saveTable(tbl *table) error {
	if err := os.MkdirAll(filepath.Dir(x.tablePath()), 0700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(tbl, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(x.tablePath(), append(data, '\n'), 0644)
}
