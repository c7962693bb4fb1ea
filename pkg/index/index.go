// Package index maps between manifest paths, module names, and stable
// identifiers.
//
// A normalization run works against an immutable Snapshot captured once at
// the start of the run. All name→path and path→identifier lookups during the
// run are served from that snapshot, never from a live re-scan, so a run
// stays graph-consistent even if the file system changes underneath it.
package index

import (
	"context"
	"sort"

	"github.com/matzehuels/modlink/pkg/manifest"
)

// Index enumerates a project's manifests and maintains the identifier table.
type Index interface {
	// Scan captures a snapshot of all manifest paths and their identifiers.
	Scan(ctx context.Context) (*Snapshot, error)
	// Refresh re-scans the project so later consumers observe current state.
	Refresh(ctx context.Context) error
}

// Snapshot is a run-scoped, immutable view of the project's manifests.
type Snapshot struct {
	paths      []string
	nameToPath map[string]string
	pathToID   map[string]string
	idToPath   map[string]string
}

// NewSnapshot builds a snapshot from a path→identifier table. Paths are
// ordered lexicographically; when two manifests share a base name, the
// earlier path wins the name lookup.
func NewSnapshot(pathToID map[string]string) *Snapshot {
	paths := make([]string, 0, len(pathToID))
	for p := range pathToID {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	s := &Snapshot{
		paths:      paths,
		nameToPath: make(map[string]string, len(paths)),
		pathToID:   make(map[string]string, len(paths)),
		idToPath:   make(map[string]string, len(paths)),
	}
	for _, p := range paths {
		id := pathToID[p]
		s.pathToID[p] = id
		s.idToPath[id] = p
		name := manifest.ModuleName(p)
		if _, taken := s.nameToPath[name]; !taken {
			s.nameToPath[name] = p
		}
	}
	return s
}

// Paths returns all manifest paths in lexicographic order.
func (s *Snapshot) Paths() []string {
	return s.paths
}

// NameToPath resolves a module name to its manifest path.
func (s *Snapshot) NameToPath(name string) (string, bool) {
	p, ok := s.nameToPath[name]
	return p, ok
}

// PathToID resolves a manifest path to its stable identifier.
func (s *Snapshot) PathToID(path string) (string, bool) {
	id, ok := s.pathToID[path]
	return id, ok
}

// IDToPath resolves a stable identifier back to a manifest path.
func (s *Snapshot) IDToPath(id string) (string, bool) {
	p, ok := s.idToPath[id]
	return p, ok
}
