// Package history records normalization runs.
//
// Each completed run appends one Record. Backends mirror the deployment
// modes: memory for tests, a JSON-lines file for CLI use, MongoDB for a
// shared serve deployment.
package history

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/modlink/pkg/normalize"
)

// Record summarizes one normalization run for the history log.
type Record struct {
	ID        string        `json:"id" bson:"_id"`
	StartedAt time.Time     `json:"started_at" bson:"started_at"`
	Duration  time.Duration `json:"duration" bson:"duration"`
	Scanned   int           `json:"scanned" bson:"scanned"`
	Changed   int           `json:"changed" bson:"changed"`
	Dropped   int           `json:"dropped" bson:"dropped"`
	Failures  int           `json:"failures" bson:"failures"`
	DryRun    bool          `json:"dry_run" bson:"dry_run"`
}

// FromReport builds a history record from a run report, minting a fresh ID.
func FromReport(rep *normalize.Report) Record {
	return Record{
		ID:        uuid.NewString(),
		StartedAt: rep.StartedAt,
		Duration:  rep.Duration,
		Scanned:   rep.Scanned,
		Changed:   rep.Changed,
		Dropped:   rep.Dropped,
		Failures:  len(rep.Failures),
		DryRun:    rep.DryRun,
	}
}

// Store is the interface for history storage backends.
type Store interface {
	// Append stores a record.
	Append(ctx context.Context, rec Record) error

	// List returns up to limit records, newest first.
	List(ctx context.Context, limit int) ([]Record, error)

	// Close releases backend resources.
	Close(ctx context.Context) error
}
