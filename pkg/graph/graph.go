// Package graph projects a project's manifests into a node-link dependency
// graph for export and visualization.
package graph

import (
	"slices"

	"github.com/matzehuels/modlink/pkg/index"
	"github.com/matzehuels/modlink/pkg/manifest"
)

// Graph is the canonical serialization format for the manifest graph.
// Used for API responses and DOT export.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Node is one manifest in the graph. ID is the manifest's stable identifier;
// Label its display name.
type Node struct {
	ID     string `json:"id"`
	Label  string `json:"label,omitempty"`
	Path   string `json:"path,omitempty"`
	Common bool   `json:"common,omitempty"`
}

// DisplayLabel returns the label if set, otherwise the ID.
func (n *Node) DisplayLabel() string {
	if n.Label != "" {
		return n.Label
	}
	return n.ID
}

// Edge is a directed reference from one manifest to another.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Build projects the manifests in snap into a graph. References that do not
// resolve against the snapshot are skipped, mirroring the normalizer's
// cleaning policy. commonPath marks the common module's node; pass "" when
// there is none. Load failures skip the affected manifest.
//
// Nodes and edges come out sorted for deterministic output.
func Build(snap *index.Snapshot, commonPath string) Graph {
	var g Graph
	for _, path := range snap.Paths() {
		id, ok := snap.PathToID(path)
		if !ok {
			continue
		}
		g.Nodes = append(g.Nodes, Node{
			ID:     id,
			Label:  manifest.ModuleName(path),
			Path:   path,
			Common: path == commonPath,
		})

		m, err := manifest.Load(path)
		if err != nil {
			continue
		}
		for _, ref := range m.Refs {
			if to, ok := resolveID(ref, snap); ok {
				g.Edges = append(g.Edges, Edge{From: id, To: to})
			}
		}
	}

	slices.SortFunc(g.Nodes, func(a, b Node) int {
		if a.Label != b.Label {
			if a.Label < b.Label {
				return -1
			}
			return 1
		}
		if a.ID < b.ID {
			return -1
		}
		if a.ID > b.ID {
			return 1
		}
		return 0
	})
	slices.SortFunc(g.Edges, func(a, b Edge) int {
		if a.From != b.From {
			if a.From < b.From {
				return -1
			}
			return 1
		}
		if a.To < b.To {
			return -1
		}
		if a.To > b.To {
			return 1
		}
		return 0
	})
	return g
}

// resolveID maps a reference to the target manifest's identifier.
func resolveID(r manifest.Ref, snap *index.Snapshot) (string, bool) {
	if r.IsID() {
		if _, ok := snap.IDToPath(r.ID()); ok {
			return r.ID(), true
		}
		return "", false
	}
	path, ok := snap.NameToPath(r.Name())
	if !ok {
		return "", false
	}
	return snap.PathToID(path)
}
