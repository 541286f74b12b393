// Package store persists run and artifact manifests: which datasets were
// fetched, when, and where the downloaded files live. SQLite backs local
// single-user work; PostgreSQL backs shared deployments.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
)

// Run statuses.
const (
	RunStatusRunning  = "running"
	RunStatusComplete = "complete"
	RunStatusFailed   = "failed"
)

// Run records one scheduler invocation against a dataset.
type Run struct {
	ID        string    `json:"id"`
	Dataset   string    `json:"dataset"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Artifact records one file produced by a run.
type Artifact struct {
	ID        string    `json:"id"`
	RunID     string    `json:"run_id"`
	Path      string    `json:"path"`
	Kind      string    `json:"kind"`
	Year      int       `json:"year"`
	Version   string    `json:"version"`
	CreatedAt time.Time `json:"created_at"`
}

// ArtifactFilter narrows ListArtifacts.
type ArtifactFilter struct {
	RunID string `json:"run_id,omitempty"`
	Kind  string `json:"kind,omitempty"`
	Year  int    `json:"year,omitempty"`
	Limit int    `json:"limit,omitempty"`
}

// RunFilter narrows ListRuns.
type RunFilter struct {
	Status  string `json:"status,omitempty"`
	Dataset string `json:"dataset,omitempty"`
	Limit   int    `json:"limit,omitempty"`
	Offset  int    `json:"offset,omitempty"`
}

// Store defines the manifest persistence interface.
type Store interface {
	// Runs
	CreateRun(ctx context.Context, dataset string) (*Run, error)
	FinishRun(ctx context.Context, runID string, status string) error
	GetRun(ctx context.Context, runID string) (*Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]Run, error)

	// Artifacts
	RecordArtifact(ctx context.Context, artifact Artifact) (*Artifact, error)
	RecordArtifacts(ctx context.Context, artifacts []Artifact) (int64, error)
	ListArtifacts(ctx context.Context, filter ArtifactFilter) ([]Artifact, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Open creates a Store for the configured driver.
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	switch driver {
	case "sqlite":
		return NewSQLite(dsn)
	case "postgres":
		return NewPostgres(ctx, dsn, nil)
	default:
		return nil, eris.Errorf("store: unknown driver %q", driver)
	}
}
