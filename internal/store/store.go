// Package store persists pipeline runs, their artifacts, and cached SERP
// analyses.
package store

import (
	"context"
	"time"

	"github.com/sells-group/linkforge/internal/model"
)

// RunFilter narrows ListRuns.
type RunFilter struct {
	FinalState model.PipelineState
	Publisher  string
	Limit      int
	Offset     int
}

// Store is the persistence contract. SQLiteStore is the only implementation;
// the interface exists so the pipeline and commands can be tested with mocks.
type Store interface {
	Migrate(ctx context.Context) error
	Close() error

	SaveRun(ctx context.Context, run *model.Run) error
	GetRun(ctx context.Context, jobID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	SaveArtifact(ctx context.Context, jobID string, kind model.ArtifactKind, data []byte) error
	GetArtifact(ctx context.Context, jobID string, kind model.ArtifactKind) ([]byte, error)

	GetSerpAnalysis(ctx context.Context, q, language, location string) (*model.QueryAnalysis, bool, error)
	SetSerpAnalysis(ctx context.Context, q, language, location string, analysis *model.QueryAnalysis, ttl time.Duration) error
	DeleteExpiredSerp(ctx context.Context) (int, error)
}
