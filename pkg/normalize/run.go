package normalize

import (
	"context"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/modlink/pkg/index"
	"github.com/matzehuels/modlink/pkg/manifest"
)

// Runner applies the normalizer to every manifest in a project and persists
// only true changes. Runs are single-threaded and non-reentrant: one run is
// expected to complete before the next starts, and the index snapshot is
// read-only until all writes are done.
type Runner struct {
	idx        index.Index
	commonFile string
	logger     *log.Logger
	dryRun     bool
}

// NewRunner creates a runner. commonFile is the file name of the common
// module's manifest (e.g., "Common.mod.json"). A nil logger falls back to
// the default logger.
func NewRunner(idx index.Index, commonFile string, logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{idx: idx, commonFile: commonFile, logger: logger}
}

// DryRun makes the runner report changes without writing any file.
func (r *Runner) DryRun() *Runner {
	r.dryRun = true
	return r
}

// Failure records a per-manifest error that did not abort the run.
type Failure struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// Change records one manifest whose reference list would change (or did).
type Change struct {
	Path   string         `json:"path"`
	Before []manifest.Ref `json:"before"`
	After  []manifest.Ref `json:"after"`
}

// Report summarizes one normalization run.
type Report struct {
	CommonPath string        `json:"common_path,omitempty"`
	Scanned    int           `json:"scanned"`
	Changed    int           `json:"changed"`
	Unchanged  int           `json:"unchanged"`
	Converted  int           `json:"converted"`
	Dropped    int           `json:"dropped"`
	DryRun     bool          `json:"dry_run,omitempty"`
	Changes    []Change      `json:"changes,omitempty"`
	Failures   []Failure     `json:"failures,omitempty"`
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"duration"`
}

// Run normalizes every manifest in the project. It is idempotent: a second
// run with no intervening file changes performs zero writes.
//
// No failure while processing one manifest aborts the others; per-manifest
// errors are logged and collected in the report. The only run-aborting
// conditions are a failed scan, a cancelled context, and an invalid
// resolution context.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	report := &Report{StartedAt: time.Now(), DryRun: r.dryRun}
	defer func() { report.Duration = time.Since(report.StartedAt) }()

	snap, err := r.idx.Scan(ctx)
	if err != nil {
		return nil, err
	}

	commonPath, ok := r.locateCommon(snap)
	if !ok {
		// Absence of the common module disables the feature for this
		// run rather than failing the host.
		r.logger.Warnf("common module %s not found, skipping reference normalization", r.commonFile)
		return report, nil
	}
	report.CommonPath = commonPath

	commonID, _ := snap.PathToID(commonPath)
	rc := Context{Snapshot: snap, CommonID: commonID, CommonPath: commonPath}
	if err := rc.Validate(); err != nil {
		return nil, err
	}

	for _, path := range snap.Paths() {
		if path == commonPath {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r.process(path, rc, report)
	}

	if !r.dryRun {
		if err := r.idx.Refresh(ctx); err != nil {
			return nil, err
		}
	}

	r.logger.Infof("normalized %d manifests: %d changed, %d references dropped",
		report.Scanned, report.Changed, report.Dropped)
	return report, nil
}

// process normalizes a single manifest, isolating its failures.
func (r *Runner) process(path string, rc Context, report *Report) {
	report.Scanned++

	m, err := manifest.Load(path)
	if err != nil {
		r.logger.Warnf("load failed: %s: %v", path, err)
		report.Failures = append(report.Failures, Failure{Path: path, Error: err.Error()})
		return
	}

	canon, stats, err := Normalize(m.Refs, path, rc)
	if err != nil {
		// Context validation happens before the loop; reaching this
		// means the run state is broken, but the policy still holds:
		// isolate and continue.
		r.logger.Warnf("normalize failed: %s: %v", path, err)
		report.Failures = append(report.Failures, Failure{Path: path, Error: err.Error()})
		return
	}
	report.Converted += stats.Converted
	report.Dropped += stats.Dropped

	if manifest.EqualRefs(m.Refs, canon) {
		report.Unchanged++
		return
	}

	report.Changes = append(report.Changes, Change{Path: path, Before: m.Refs, After: canon})
	if r.dryRun {
		report.Changed++
		return
	}

	if err := m.WriteFile(canon); err != nil {
		r.logger.Warnf("write failed: %s: %v", path, err)
		report.Failures = append(report.Failures, Failure{Path: path, Error: err.Error()})
		return
	}
	report.Changed++
	r.logger.Debugf("rewrote %s (%d references)", path, len(canon))
}

// locateCommon finds the common module's manifest by file name.
func (r *Runner) locateCommon(snap *index.Snapshot) (string, bool) {
	for _, p := range snap.Paths() {
		if filepath.Base(p) == r.commonFile {
			return p, true
		}
	}
	return "", false
}
