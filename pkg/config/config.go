// Package config loads project configuration from modlink.toml.
package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/modlink/pkg/errors"
)

// FileName is the project configuration file, looked up at the project root.
const FileName = "modlink.toml"

// Config is the project configuration. The zero value is not usable; start
// from Default.
type Config struct {
	// CommonModule is the file name of the common module's manifest.
	CommonModule string `toml:"common_module"`
	// Ignore lists directory names skipped during manifest scans.
	Ignore []string `toml:"ignore"`
	// CacheDir overrides the report cache directory. The special value
	// "off" disables report caching.
	CacheDir string `toml:"cache_dir"`

	Serve   Serve   `toml:"serve"`
	History History `toml:"history"`
}

// Serve configures the HTTP serve mode.
type Serve struct {
	// Addr is the listen address.
	Addr string `toml:"addr"`
	// RedisAddr, when set, switches the report cache to Redis.
	RedisAddr string `toml:"redis_addr"`
}

// History configures run-history recording.
type History struct {
	// Backend is one of "", "memory", "file", "mongo". Empty disables
	// history recording.
	Backend string `toml:"backend"`
	// Path is the history file for the file backend.
	Path string `toml:"path"`
	// MongoURI is the connection string for the mongo backend.
	MongoURI string `toml:"mongo_uri"`
}

// Default returns the configuration used when no modlink.toml exists.
func Default() Config {
	return Config{
		CommonModule: "Common.mod.json",
		Ignore:       []string{"node_modules", "vendor"},
		Serve:        Serve{Addr: ":8632"},
	}
}

// Load reads modlink.toml from the project root. A missing file yields the
// defaults; a malformed file is an error.
func Load(root string) (Config, error) {
	cfg := Default()
	path := filepath.Join(root, FileName)

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse %s", path)
	}
	if err := errors.ValidateManifestFilename(cfg.CommonModule); err != nil {
		return cfg, err
	}
	return cfg, nil
}
