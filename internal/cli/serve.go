package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/matzehuels/modlink/pkg/cache"
	"github.com/matzehuels/modlink/pkg/history"
	"github.com/matzehuels/modlink/pkg/normalize"
)

// reportTTL bounds how long a cached report is served after its run.
const reportTTL = 24 * time.Hour

// serveCommand creates the serve command: a small HTTP surface over the
// normalization runner, for CI hooks and editors that trigger runs remotely.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve [project-root]",
		Short: "Serve normalization over HTTP",
		Long: `Serve the normalizer over HTTP.

Endpoints:
  GET  /healthz     liveness probe
  POST /normalize   run normalization, returns the run report as JSON
  GET  /report      last run's report (cached)
  GET  /history     recent run records (requires a history backend)`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := "."
			if len(args) > 0 {
				root = args[0]
			}
			return c.runServe(cmd.Context(), root, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")

	return cmd
}

// server bundles the handlers' shared state.
type server struct {
	cli     *CLI
	project *project
	reports cache.Cache
	hist    history.Store
}

// runServe starts the HTTP server and shuts it down when the context ends.
func (c *CLI) runServe(ctx context.Context, root, addr string) error {
	p, err := c.openProject(root)
	if err != nil {
		return fmt.Errorf("open project %s: %w", root, err)
	}
	if addr == "" {
		addr = p.cfg.Serve.Addr
	}

	reports, err := p.newReportCache(ctx)
	if err != nil {
		return fmt.Errorf("initialize report cache: %w", err)
	}
	defer reports.Close()

	hist, err := p.newHistoryStore(ctx)
	if err != nil {
		return fmt.Errorf("initialize history store: %w", err)
	}
	if hist != nil {
		defer hist.Close(context.Background())
	}

	s := &server{cli: c, project: p, reports: reports, hist: hist}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Get("/healthz", s.handleHealth)
	r.Post("/normalize", s.handleNormalize)
	r.Get("/report", s.handleReport)
	r.Get("/history", s.handleHistory)

	srv := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	c.Logger.Infof("serving %s on %s", p.root, addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *server) reportKey() string {
	return cache.Key("report", s.project.root)
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleNormalize runs one normalization pass. Runs are serialized by the
// runner's non-reentrancy contract: the orchestration is synchronous, so a
// second request simply waits its turn behind the first.
func (s *server) handleNormalize(w http.ResponseWriter, r *http.Request) {
	dryRun := r.URL.Query().Get("dry_run") == "true"
	prog := newProgress(s.cli.Logger)

	runner := s.project.newRunner(s.cli.Logger)
	if dryRun {
		runner.DryRun()
	}

	rep, err := runner.Run(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	prog.done(fmt.Sprintf("normalize request served: %d manifests, %d changed", rep.Scanned, rep.Changed))

	if data, err := json.Marshal(rep); err == nil {
		if err := s.reports.Set(r.Context(), s.reportKey(), data, reportTTL); err != nil {
			s.cli.Logger.Warnf("report cache write failed: %v", err)
		}
	}
	if s.hist != nil {
		if err := s.hist.Append(r.Context(), history.FromReport(rep)); err != nil {
			s.cli.Logger.Warnf("history append failed: %v", err)
		}
	}

	writeJSON(w, http.StatusOK, rep)
}

func (s *server) handleReport(w http.ResponseWriter, r *http.Request) {
	data, ok, err := s.reports.Get(r.Context(), s.reportKey())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no report yet"})
		return
	}

	var rep normalize.Report
	if err := json.Unmarshal(data, &rep); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "corrupt cached report"})
		return
	}
	writeJSON(w, http.StatusOK, &rep)
}

func (s *server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.hist == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "history recording is disabled"})
		return
	}

	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	records, err := s.hist.List(r.Context(), limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
