package model

import "time"

// RowFailure records a single series row that could not be persisted.
// Failures are skipped, counted, and reported; they never abort the batch.
type RowFailure struct {
	Date   time.Time `json:"date"`
	Reason string    `json:"reason"`
}

// UpsertStats is the per-row outcome of one UpsertPoints call.
type UpsertStats struct {
	Written int          `json:"written"`
	Failed  []RowFailure `json:"failed,omitempty"`
}

// CategoryStats aggregates one CollectCategory call.
type CategoryStats struct {
	Category        string   `json:"category"`
	TotalKeywords   int      `json:"total_keywords"`
	Successful      int      `json:"successful"`
	Failed          int      `json:"failed"`
	RecordsInserted int      `json:"records_inserted"`
	FailedKeywords  []string `json:"failed_keywords,omitempty"`
}

// OverallStats aggregates a full CollectAll run across every category.
type OverallStats struct {
	StartTime       time.Time       `json:"start_time"`
	EndTime         time.Time       `json:"end_time"`
	Duration        time.Duration   `json:"duration"`
	Categories      int             `json:"categories"`
	TotalKeywords   int             `json:"total_keywords"`
	TotalSuccessful int             `json:"total_successful"`
	TotalFailed     int             `json:"total_failed"`
	TotalRecords    int             `json:"total_records"`
	CategoryStats   []CategoryStats `json:"category_stats"`
}

// RefreshStats is the outcome of a staleness-driven incremental refresh.
type RefreshStats struct {
	KeywordsChecked int `json:"keywords_checked"`
	KeywordsUpdated int `json:"keywords_updated"`
	Failed          int `json:"failed"`
	RecordsInserted int `json:"records_inserted"`
}

// SummaryStats is a read-only aggregate snapshot of the store.
type SummaryStats struct {
	TotalRecords      int        `json:"total_records"`
	UniqueKeywords    int        `json:"unique_keywords"`
	FirstDate         *time.Time `json:"first_date,omitempty"`
	LastDate          *time.Time `json:"last_date,omitempty"`
	LastSuccessfulRun *time.Time `json:"last_successful_run,omitempty"`
}
