package manifest

import "strings"

// IDPrefix is the literal tag that distinguishes an identifier reference
// from a plain module-name reference in a manifest's reference list.
const IDPrefix = "ID:"

// Ref is a single entry in a manifest's reference list. It is either an
// identifier reference ("ID:<identifier>") or a bare module name.
type Ref string

// IsID reports whether the reference carries the identifier prefix.
func (r Ref) IsID() bool {
	return strings.HasPrefix(string(r), IDPrefix)
}

// ID returns the identifier without its prefix. It returns "" for name
// references.
func (r Ref) ID() string {
	if !r.IsID() {
		return ""
	}
	return string(r[len(IDPrefix):])
}

// Name returns the module name for a name reference. It returns "" for
// identifier references.
func (r Ref) Name() string {
	if r.IsID() {
		return ""
	}
	return string(r)
}

// MakeID builds an identifier reference from a raw identifier.
func MakeID(id string) Ref {
	return Ref(IDPrefix + id)
}

// EqualRefs reports whether two reference lists are equal element-by-element
// in order. A reordered but set-equal list counts as different, which is what
// the write-on-change comparison needs.
func EqualRefs(a, b []Ref) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
