package store

import (
	"context"
	"time"

	"github.com/quebec-market/trends-cli/internal/model"
)

// QueryFilter specifies criteria for reading time-series points. All
// filters are optional and combine with AND; date bounds are inclusive
// ISO calendar dates (yyyy-mm-dd).
type QueryFilter struct {
	Keywords  []string `json:"keywords,omitempty"`
	Category  string   `json:"category,omitempty"`
	StartDate string   `json:"start_date,omitempty"`
	EndDate   string   `json:"end_date,omitempty"`
}

// Store defines the persistence interface for trends data. It is the only
// component permitted to touch the underlying database; every consumer
// (collector, CLI, query API) goes through it.
type Store interface {
	// Writes
	UpsertPoints(ctx context.Context, keyword, category string, series []model.InterestPoint) (model.UpsertStats, error)
	LogRun(ctx context.Context, runID string, keywords []string, success bool, recordsInserted int, errorMessage string) error

	// Reads
	QueryPoints(ctx context.Context, filter QueryFilter) ([]model.TimeSeriesPoint, error)
	LatestCollectionTime(ctx context.Context, keyword string) (*time.Time, error)
	Keywords(ctx context.Context) ([]string, error)
	Categories(ctx context.Context) ([]string, error)
	ListRuns(ctx context.Context, limit int) ([]model.CollectionRun, error)
	SummaryStats(ctx context.Context) (*model.SummaryStats, error)

	// Maintenance
	Snapshot(ctx context.Context, destPath string) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
