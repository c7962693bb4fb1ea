// Package manifest reads and rewrites module manifest documents.
//
// A manifest is a JSON document named <Module>.mod.json declaring at minimum
// a "name" and a "references" list. Rewrites touch only the references array:
// every other byte of the document (field order, unknown fields, whitespace)
// is preserved, so tooling that watches file content only sees real changes.
package manifest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Ext is the manifest file extension.
const Ext = ".mod.json"

// ErrNoReferences is returned by Encode when the document has no top-level
// "references" key to splice into.
var ErrNoReferences = errors.New("manifest has no references field")

// Manifest is a module manifest loaded from disk. Identity for write-back
// purposes is Path, not Name: display names are not unique across a project.
type Manifest struct {
	Path string
	Name string
	Refs []Ref

	raw []byte // original document bytes, kept for splicing
}

// ModuleName derives the module name from a manifest path: the base file name
// minus the manifest extension.
func ModuleName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), Ext)
}

// IsManifest reports whether path names a manifest file.
func IsManifest(path string) bool {
	return strings.HasSuffix(path, Ext)
}

// Load reads and parses the manifest at path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(path, data)
}

// Parse parses manifest document bytes. The path is recorded as the
// manifest's identity but the file is not touched.
func Parse(path string, data []byte) (*Manifest, error) {
	var doc struct {
		Name       string `json:"name"`
		References []Ref  `json:"references"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	return &Manifest{
		Path: path,
		Name: doc.Name,
		Refs: doc.References,
		raw:  data,
	}, nil
}

// Raw returns the original document bytes.
func (m *Manifest) Raw() []byte {
	return m.raw
}

// Encode returns the document bytes with the references array replaced by
// refs. All other bytes are carried over unchanged.
func (m *Manifest) Encode(refs []Ref) ([]byte, error) {
	start, end, err := refsSpan(m.raw)
	if err != nil {
		return nil, err
	}
	rendered, err := renderRefs(refs, lineIndent(m.raw, start))
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(m.raw)-int(end-start)+len(rendered))
	out = append(out, m.raw[:start]...)
	out = append(out, rendered...)
	out = append(out, m.raw[end:]...)
	return out, nil
}

// WriteFile encodes refs into the document and writes the result to the
// manifest's path.
func (m *Manifest) WriteFile(refs []Ref) error {
	data, err := m.Encode(refs)
	if err != nil {
		return err
	}
	if err := os.WriteFile(m.Path, data, 0644); err != nil {
		return err
	}
	m.raw = data
	m.Refs = refs
	return nil
}

// refsSpan locates the byte extent of the top-level "references" value.
// The token decoder reports input offsets, so the value's exact bytes are the
// last len(raw) bytes before the post-value offset.
func refsSpan(data []byte) (start, end int64, err error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return 0, 0, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return 0, 0, fmt.Errorf("manifest is not a JSON object")
	}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return 0, 0, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return 0, 0, fmt.Errorf("unexpected token %v", keyTok)
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return 0, 0, err
		}
		if key == "references" {
			end = dec.InputOffset()
			return end - int64(len(value)), end, nil
		}
	}
	return 0, 0, ErrNoReferences
}

// lineIndent returns the whitespace prefix of the line containing offset.
// It is reused to indent the rewritten array so the document keeps its shape.
func lineIndent(data []byte, offset int64) string {
	lineStart := int64(0)
	if i := bytes.LastIndexByte(data[:offset], '\n'); i >= 0 {
		lineStart = int64(i) + 1
	}
	line := data[lineStart:offset]
	for i, b := range line {
		if b != ' ' && b != '\t' {
			return string(line[:i])
		}
	}
	return string(line)
}

// renderRefs renders the references array, one entry per line, indented one
// level past the key's own line.
func renderRefs(refs []Ref, indent string) ([]byte, error) {
	if len(refs) == 0 {
		return []byte("[]"), nil
	}
	var b bytes.Buffer
	b.WriteString("[\n")
	for i, r := range refs {
		entry, err := json.Marshal(r)
		if err != nil {
			return nil, err
		}
		b.WriteString(indent)
		b.WriteString("    ")
		b.Write(entry)
		if i < len(refs)-1 {
			b.WriteByte(',')
		}
		b.WriteByte('\n')
	}
	b.WriteString(indent)
	b.WriteByte(']')
	return b.Bytes(), nil
}
