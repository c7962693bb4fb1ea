// Package normalize converges manifest reference lists to their canonical
// form and drives that convergence across a whole project.
//
// The canonical form of a reference list is: identifier references only
// (subject to the conversion rule below), no duplicates, no entries that fail
// to resolve against the module index, sorted by resolved display name, and —
// for every manifest except the common module itself — containing exactly one
// reference to the common module's identifier.
package normalize

import (
	"sort"

	"github.com/matzehuels/modlink/pkg/errors"
	"github.com/matzehuels/modlink/pkg/index"
	"github.com/matzehuels/modlink/pkg/manifest"
)

// Context is the resolution context for one run. It is immutable input to
// Normalize: the snapshot must not be mutated while a run is in flight.
type Context struct {
	Snapshot   *index.Snapshot
	CommonID   string // identifier of the common module
	CommonPath string // manifest path of the common module
}

// Validate reports whether the context is usable. An unusable context is
// fatal for the whole run, unlike per-reference resolution failures.
func (c Context) Validate() error {
	if c.Snapshot == nil {
		return errors.New(errors.ErrCodeInvalidContext, "module index snapshot is nil")
	}
	if c.CommonID == "" {
		return errors.New(errors.ErrCodeInvalidContext, "common module identifier is empty")
	}
	return nil
}

// Stats counts what the pipeline did to a single reference list.
type Stats struct {
	Converted int  // name references converted to identifier references
	Dropped   int  // references removed because they did not resolve
	Injected  bool // whether the common-module reference was appended
}

// Normalize produces the canonical reference list for the manifest at
// selfPath. It never touches the file system and never fails on individual
// references; the only error condition is an invalid resolution context.
//
// Stages, in fixed order: conditional name→identifier conversion, cleaning,
// dedup + sort, common-module injection.
func Normalize(refs []manifest.Ref, selfPath string, rc Context) ([]manifest.Ref, Stats, error) {
	if err := rc.Validate(); err != nil {
		return nil, Stats{}, err
	}

	var stats Stats
	out := convert(refs, rc, &stats)
	out = clean(out, rc, &stats)
	out = dedupe(out)
	sortByDisplayName(out, rc)

	if selfPath != rc.CommonPath {
		common := manifest.MakeID(rc.CommonID)
		if !contains(out, common) {
			out = append(out, common)
			stats.Injected = true
			sortByDisplayName(out, rc)
		}
	}
	return out, stats, nil
}

// convert turns name references into identifier references — but only when
// the raw list contains no identifier reference at all. A list with even one
// identifier reference passes through unconverted. That asymmetry is a
// preserved contract: a mixed list keeps its bare names as-is (see the
// MixedListSkipsConversion test).
func convert(refs []manifest.Ref, rc Context, stats *Stats) []manifest.Ref {
	for _, r := range refs {
		if r.IsID() {
			out := make([]manifest.Ref, len(refs))
			copy(out, refs)
			return out
		}
	}
	out := make([]manifest.Ref, 0, len(refs))
	for _, r := range refs {
		path, ok := rc.Snapshot.NameToPath(r.Name())
		if !ok {
			// Unresolvable at this stage: left as a name reference,
			// cleaning decides its fate.
			out = append(out, r)
			continue
		}
		if id, ok := rc.Snapshot.PathToID(path); ok {
			out = append(out, manifest.MakeID(id))
			stats.Converted++
		} else {
			out = append(out, r)
		}
	}
	return out
}

// clean drops references that do not resolve to an existing manifest file.
// Dropping is data hygiene, not an error; the count surfaces in Stats.
func clean(refs []manifest.Ref, rc Context, stats *Stats) []manifest.Ref {
	out := refs[:0]
	for _, r := range refs {
		if resolves(r, rc) {
			out = append(out, r)
		} else {
			stats.Dropped++
		}
	}
	return out
}

func resolves(r manifest.Ref, rc Context) bool {
	if r.IsID() {
		path, ok := rc.Snapshot.IDToPath(r.ID())
		return ok && manifest.IsManifest(path)
	}
	_, ok := rc.Snapshot.NameToPath(r.Name())
	return ok
}

// dedupe removes exact duplicate reference strings, keeping first occurrence.
func dedupe(refs []manifest.Ref) []manifest.Ref {
	seen := make(map[manifest.Ref]bool, len(refs))
	out := refs[:0]
	for _, r := range refs {
		if seen[r] {
			continue
		}
		seen[r] = true
		out = append(out, r)
	}
	return out
}

// sortByDisplayName orders references by resolved display name, ascending
// and case-sensitive. Identifier references resolve to the target manifest's
// base name; name references sort by the name itself.
func sortByDisplayName(refs []manifest.Ref, rc Context) {
	sort.SliceStable(refs, func(i, j int) bool {
		return displayName(refs[i], rc) < displayName(refs[j], rc)
	})
}

func displayName(r manifest.Ref, rc Context) string {
	if r.IsID() {
		if path, ok := rc.Snapshot.IDToPath(r.ID()); ok {
			return manifest.ModuleName(path)
		}
		return string(r)
	}
	return r.Name()
}

func contains(refs []manifest.Ref, want manifest.Ref) bool {
	for _, r := range refs {
		if r == want {
			return true
		}
	}
	return false
}
