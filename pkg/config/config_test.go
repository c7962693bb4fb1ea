package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.CommonModule != "Common.mod.json" {
		t.Errorf("CommonModule = %q", cfg.CommonModule)
	}
	if len(cfg.Ignore) == 0 {
		t.Error("default ignore list is empty")
	}
	if cfg.Serve.Addr == "" {
		t.Error("default serve address is empty")
	}
	if cfg.History.Backend != "" {
		t.Errorf("history should default to disabled, got %q", cfg.History.Backend)
	}
}

func TestLoadFile(t *testing.T) {
	root := t.TempDir()
	doc := `
common_module = "Shared.mod.json"
ignore = ["build"]

[serve]
addr = ":9000"

[history]
backend = "file"
path = "/tmp/history.jsonl"
`
	if err := os.WriteFile(filepath.Join(root, FileName), []byte(doc), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(root)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.CommonModule != "Shared.mod.json" {
		t.Errorf("CommonModule = %q", cfg.CommonModule)
	}
	if len(cfg.Ignore) != 1 || cfg.Ignore[0] != "build" {
		t.Errorf("Ignore = %v", cfg.Ignore)
	}
	if cfg.Serve.Addr != ":9000" {
		t.Errorf("Serve.Addr = %q", cfg.Serve.Addr)
	}
	if cfg.History.Backend != "file" || cfg.History.Path != "/tmp/history.jsonl" {
		t.Errorf("History = %+v", cfg.History)
	}
}

func TestLoadMalformed(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, FileName), []byte("common_module = ["), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(root); err == nil {
		t.Error("Load() should fail on malformed TOML")
	}
}

func TestLoadRejectsPathyCommonModule(t *testing.T) {
	root := t.TempDir()
	doc := `common_module = "../escape.mod.json"`
	if err := os.WriteFile(filepath.Join(root, FileName), []byte(doc), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(root); err == nil {
		t.Error("Load() should reject path separators in common_module")
	}
}
