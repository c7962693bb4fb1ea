package manifest

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleDoc = `{
    "name": "Gameplay",
    "rootNamespace": "Game.Gameplay",
    "references": [
        "Audio",
        "Common"
    ],
    "autoReferenced": true
}
`

func TestParse(t *testing.T) {
	m, err := Parse("Gameplay.mod.json", []byte(sampleDoc))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if m.Name != "Gameplay" {
		t.Errorf("Name = %q, want Gameplay", m.Name)
	}
	if !EqualRefs(m.Refs, []Ref{"Audio", "Common"}) {
		t.Errorf("Refs = %v", m.Refs)
	}
}

func TestParseMalformed(t *testing.T) {
	if _, err := Parse("x.mod.json", []byte(`{"name": "x", "references": `)); err == nil {
		t.Fatal("Parse() should fail on truncated JSON")
	}
}

func TestEncodeReplacesOnlyReferences(t *testing.T) {
	m, err := Parse("Gameplay.mod.json", []byte(sampleDoc))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	out, err := m.Encode([]Ref{"ID:aaa", "ID:bbb"})
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	want := `{
    "name": "Gameplay",
    "rootNamespace": "Game.Gameplay",
    "references": [
        "ID:aaa",
        "ID:bbb"
    ],
    "autoReferenced": true
}
`
	if string(out) != want {
		t.Errorf("Encode() =\n%s\nwant\n%s", out, want)
	}
}

func TestEncodeEmptyList(t *testing.T) {
	m, err := Parse("Gameplay.mod.json", []byte(sampleDoc))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	out, err := m.Encode(nil)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if !strings.Contains(string(out), `"references": []`) {
		t.Errorf("Encode() = %s, want empty array", out)
	}
	if !strings.Contains(string(out), `"autoReferenced": true`) {
		t.Error("Encode() dropped trailing fields")
	}
}

func TestEncodePreservesUnknownFields(t *testing.T) {
	doc := `{
  "custom": {"nested": [1, 2, {"deep": "references"}]},
  "name": "A",
  "references": ["B"],
  "trailing": null
}
`
	m, err := Parse("A.mod.json", []byte(doc))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	out, err := m.Encode([]Ref{"ID:x"})
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	for _, fragment := range []string{
		`"custom": {"nested": [1, 2, {"deep": "references"}]}`,
		`"trailing": null`,
		`"ID:x"`,
	} {
		if !strings.Contains(string(out), fragment) {
			t.Errorf("Encode() missing %q in\n%s", fragment, out)
		}
	}
	if strings.Contains(string(out), `"B"`) {
		t.Error("Encode() kept the old reference list")
	}
}

func TestEncodeNoReferencesField(t *testing.T) {
	m, err := Parse("A.mod.json", []byte(`{"name": "A"}`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if _, err := m.Encode([]Ref{"ID:x"}); !errors.Is(err, ErrNoReferences) {
		t.Errorf("Encode() error = %v, want ErrNoReferences", err)
	}
}

func TestWriteFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Gameplay.mod.json")
	if err := os.WriteFile(path, []byte(sampleDoc), 0644); err != nil {
		t.Fatal(err)
	}

	m, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if err := m.WriteFile([]Ref{"ID:x"}); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() after write error = %v", err)
	}
	if !EqualRefs(reloaded.Refs, []Ref{"ID:x"}) {
		t.Errorf("Refs after write = %v", reloaded.Refs)
	}
	if reloaded.Name != "Gameplay" {
		t.Errorf("Name after write = %q", reloaded.Name)
	}
}

func TestModuleName(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"Gameplay.mod.json", "Gameplay"},
		{filepath.Join("modules", "audio", "Audio.mod.json"), "Audio"},
		{"plain.json", "plain.json"},
	}
	for _, tt := range tests {
		if got := ModuleName(tt.path); got != tt.want {
			t.Errorf("ModuleName(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestIsManifest(t *testing.T) {
	if !IsManifest("A.mod.json") {
		t.Error("IsManifest should accept manifest files")
	}
	if IsManifest("A.json") {
		t.Error("IsManifest should reject other JSON files")
	}
}
