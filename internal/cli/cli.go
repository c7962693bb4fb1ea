// Package cli implements the modlink command-line interface.
//
// modlink keeps a project's module manifests in canonical form: every
// manifest references the designated common module by stable identifier,
// reference lists carry no duplicates or dangling entries, and ordering is
// deterministic. Commands cover one-shot normalization, graph export, an
// HTTP serve mode, and report-cache management.
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context to allow structured progress tracking.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/modlink/pkg/buildinfo"
	"github.com/matzehuels/modlink/pkg/cache"
	"github.com/matzehuels/modlink/pkg/config"
	"github.com/matzehuels/modlink/pkg/errors"
	"github.com/matzehuels/modlink/pkg/history"
	"github.com/matzehuels/modlink/pkg/index"
	"github.com/matzehuels/modlink/pkg/normalize"
)

// appName is the application name used for directories and display.
const appName = "modlink"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "modlink keeps module manifest references canonical",
		Long:         `modlink normalizes the reference lists of a project's module manifests: names become stable identifiers, duplicates and dangling references are dropped, lists are sorted, and every module gains a reference to the common module. Files are rewritten only when their canonical form differs.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.normalizeCommand())
	root.AddCommand(c.graphCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// project bundles everything a command needs to operate on one project root.
type project struct {
	root string
	cfg  config.Config
	idx  *index.FSIndex
}

// openProject resolves the project root and loads its configuration.
func (c *CLI) openProject(root string) (*project, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(abs)
	if err != nil {
		return nil, err
	}
	return &project{
		root: abs,
		cfg:  cfg,
		idx:  index.NewFSIndex(abs, cfg.Ignore),
	}, nil
}

// newRunner creates a normalization runner for the project.
func (p *project) newRunner(logger *log.Logger) *normalize.Runner {
	return normalize.NewRunner(p.idx, p.cfg.CommonModule, logger)
}

// newReportCache creates the report cache per configuration. A cache_dir of
// "off" disables caching entirely.
func (p *project) newReportCache(ctx context.Context) (cache.Cache, error) {
	if p.cfg.CacheDir == "off" {
		return cache.NewNullCache(), nil
	}
	if p.cfg.Serve.RedisAddr != "" {
		return cache.NewRedisCache(ctx, p.cfg.Serve.RedisAddr)
	}
	dir := p.cfg.CacheDir
	if dir == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(base, appName)
	}
	return cache.NewFileCache(dir)
}

// newHistoryStore creates the configured history store, or nil when history
// recording is disabled.
func (p *project) newHistoryStore(ctx context.Context) (history.Store, error) {
	switch p.cfg.History.Backend {
	case "":
		return nil, nil
	case "memory":
		return history.NewMemoryStore(), nil
	case "file":
		return history.NewFileStore(p.cfg.History.Path)
	case "mongo":
		return history.NewMongoStore(ctx, p.cfg.History.MongoURI)
	default:
		return nil, errors.New(errors.ErrCodeUnsupported, "unknown history backend %q", p.cfg.History.Backend)
	}
}
