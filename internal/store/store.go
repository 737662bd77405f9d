package store

import (
	"context"
	"time"

	"github.com/blueline-sports/streamer-cli/internal/model"
)

// Store defines persistence for orchestration runs and the append-only
// recommendation history. History records are never mutated in place: a run
// reads many and appends at most one after it completes successfully.
type Store interface {
	// Runs
	CreateRun(ctx context.Context) (*model.Run, error)
	UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error
	UpdateRunResult(ctx context.Context, runID string, result *model.RunResult) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, limit int) ([]model.Run, error)

	// History (append-only)
	AppendHistory(ctx context.Context, record model.HistoricalRecord) error
	ReadHistory(ctx context.Context, since time.Time) ([]model.HistoricalRecord, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
