package model

import "time"

// CollectionRun is one immutable record of a collection attempt, written
// once per category per run. It is never updated or deleted.
type CollectionRun struct {
	ID              int64     `json:"id"`
	RunID           string    `json:"run_id"`
	CollectedAt     time.Time `json:"collected_at"`
	Keywords        []string  `json:"keywords"`
	Success         bool      `json:"success"`
	ErrorMessage    string    `json:"error_message,omitempty"`
	RecordsInserted int       `json:"records_inserted"`
}
