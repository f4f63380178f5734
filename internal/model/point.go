package model

import "time"

// DateLayout is the ISO calendar-date format used for point dates
// throughout the store and its query filters.
const DateLayout = "2006-01-02"

// InterestPoint is a single (date, value) sample produced by the trends
// provider before it is persisted.
type InterestPoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// TimeSeriesPoint is a stored search-interest observation. At most one
// point exists per (keyword, date); re-ingestion overwrites it.
type TimeSeriesPoint struct {
	ID          int64     `json:"id"`
	Keyword     string    `json:"keyword"`
	Category    string    `json:"category"`
	Date        time.Time `json:"date"`
	Interest    int       `json:"interest"`
	Geo         string    `json:"geo"`
	CollectedAt time.Time `json:"collected_at"`
}
