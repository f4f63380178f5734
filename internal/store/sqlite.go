package store

import (
	"context"
	"database/sql"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/quebec-market/trends-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db  *sql.DB
	geo string
}

// NewSQLite opens a SQLite database at the given path and configures WAL
// mode. The parent directory is created if missing. geo tags every point
// written through this store.
func NewSQLite(path, geo string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, eris.Wrapf(err, "sqlite: create directory %s", dir)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db, geo: geo}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS trends_data (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	keyword      TEXT NOT NULL,
	category     TEXT NOT NULL,
	date         TEXT NOT NULL,
	interest     INTEGER NOT NULL,
	geo          TEXT NOT NULL DEFAULT 'CA-QC',
	collected_at DATETIME NOT NULL,
	UNIQUE(keyword, date)
);

CREATE TABLE IF NOT EXISTS collection_runs (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id           TEXT NOT NULL,
	collected_at     DATETIME NOT NULL,
	keywords         TEXT NOT NULL,
	success          BOOLEAN NOT NULL,
	error_message    TEXT,
	records_inserted INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_trends_keyword_date ON trends_data(keyword, date);
CREATE INDEX IF NOT EXISTS idx_trends_category_date ON trends_data(category, date);
CREATE INDEX IF NOT EXISTS idx_trends_collected_at ON trends_data(collected_at);
CREATE INDEX IF NOT EXISTS idx_runs_collected_at ON collection_runs(collected_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// UpsertPoints writes a keyword's series with last-write-wins semantics
// keyed on (keyword, date). collected_at is refreshed on every touch, even
// when the interest value is unchanged; staleness detection depends on it.
// Row failures are recorded in the returned stats and skipped.
func (s *SQLiteStore) UpsertPoints(ctx context.Context, keyword, category string, series []model.InterestPoint) (model.UpsertStats, error) {
	var stats model.UpsertStats
	if len(series) == 0 {
		return stats, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return stats, eris.Wrap(err, "sqlite: begin upsert tx")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO trends_data (keyword, category, date, interest, geo, collected_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(keyword, date) DO UPDATE SET
			category     = excluded.category,
			interest     = excluded.interest,
			geo          = excluded.geo,
			collected_at = excluded.collected_at`)
	if err != nil {
		return stats, eris.Wrap(err, "sqlite: prepare upsert")
	}
	defer stmt.Close() //nolint:errcheck

	now := time.Now().UTC()
	for _, p := range series {
		interest, reason := coerceInterest(p)
		if reason != "" {
			stats.Failed = append(stats.Failed, model.RowFailure{Date: p.Date, Reason: reason})
			continue
		}
		if _, err := stmt.ExecContext(ctx,
			keyword, category, p.Date.Format(model.DateLayout), interest, s.geo, now,
		); err != nil {
			stats.Failed = append(stats.Failed, model.RowFailure{Date: p.Date, Reason: err.Error()})
			continue
		}
		stats.Written++
	}

	if err := tx.Commit(); err != nil {
		return model.UpsertStats{}, eris.Wrapf(err, "sqlite: commit upsert for %s", keyword)
	}
	return stats, nil
}

// coerceInterest validates a series row and rounds its value to an integer.
// A non-empty reason marks the row as failed.
func coerceInterest(p model.InterestPoint) (int, string) {
	if p.Date.IsZero() {
		return 0, "missing date"
	}
	if math.IsNaN(p.Value) || math.IsInf(p.Value, 0) {
		return 0, "interest value is not a number"
	}
	if p.Value < 0 {
		return 0, "negative interest value"
	}
	return int(math.Round(p.Value)), ""
}

func (s *SQLiteStore) LogRun(ctx context.Context, runID string, keywords []string, success bool, recordsInserted int, errorMessage string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO collection_runs (run_id, collected_at, keywords, success, error_message, records_inserted)
		VALUES (?, ?, ?, ?, ?, ?)`,
		runID, time.Now().UTC(), strings.Join(keywords, ", "), success, errorMessage, recordsInserted,
	)
	return eris.Wrap(err, "sqlite: log run")
}

func (s *SQLiteStore) QueryPoints(ctx context.Context, filter QueryFilter) ([]model.TimeSeriesPoint, error) {
	query := `SELECT id, keyword, category, date, interest, geo, collected_at FROM trends_data WHERE 1=1`
	var args []any

	if len(filter.Keywords) > 0 {
		query += ` AND keyword IN (?` + strings.Repeat(",?", len(filter.Keywords)-1) + `)`
		for _, kw := range filter.Keywords {
			args = append(args, kw)
		}
	}
	if filter.Category != "" {
		query += ` AND category = ?`
		args = append(args, filter.Category)
	}
	if filter.StartDate != "" {
		query += ` AND date >= ?`
		args = append(args, filter.StartDate)
	}
	if filter.EndDate != "" {
		query += ` AND date <= ?`
		args = append(args, filter.EndDate)
	}
	query += ` ORDER BY date, keyword`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query points")
	}
	defer rows.Close() //nolint:errcheck

	var points []model.TimeSeriesPoint
	for rows.Next() {
		var (
			p       model.TimeSeriesPoint
			dateStr string
		)
		if err := rows.Scan(&p.ID, &p.Keyword, &p.Category, &dateStr, &p.Interest, &p.Geo, &p.CollectedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan point")
		}
		p.Date, err = time.Parse(model.DateLayout, dateStr)
		if err != nil {
			return nil, eris.Wrapf(err, "sqlite: parse date %s", dateStr)
		}
		points = append(points, p)
	}
	return points, eris.Wrap(rows.Err(), "sqlite: query points iterate")
}

func (s *SQLiteStore) LatestCollectionTime(ctx context.Context, keyword string) (*time.Time, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT collected_at FROM trends_data
		WHERE keyword = ?
		ORDER BY collected_at DESC LIMIT 1`,
		keyword,
	)

	var ts time.Time
	err := row.Scan(&ts)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: latest collection time for %s", keyword)
	}
	return &ts, nil
}

func (s *SQLiteStore) Keywords(ctx context.Context) ([]string, error) {
	return s.distinct(ctx, `SELECT DISTINCT keyword FROM trends_data ORDER BY keyword`)
}

func (s *SQLiteStore) Categories(ctx context.Context) ([]string, error) {
	return s.distinct(ctx, `SELECT DISTINCT category FROM trends_data ORDER BY category`)
}

func (s *SQLiteStore) distinct(ctx context.Context, query string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: distinct values")
	}
	defer rows.Close() //nolint:errcheck

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan distinct value")
		}
		values = append(values, v)
	}
	return values, eris.Wrap(rows.Err(), "sqlite: distinct iterate")
}

func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]model.CollectionRun, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, run_id, collected_at, keywords, success, error_message, records_inserted
		FROM collection_runs
		ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close() //nolint:errcheck

	var runs []model.CollectionRun
	for rows.Next() {
		var (
			r        model.CollectionRun
			keywords string
			errMsg   sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.RunID, &r.CollectedAt, &keywords, &r.Success, &errMsg, &r.RecordsInserted); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		if keywords != "" {
			r.Keywords = strings.Split(keywords, ", ")
		}
		r.ErrorMessage = errMsg.String
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

func (s *SQLiteStore) SummaryStats(ctx context.Context) (*model.SummaryStats, error) {
	stats := &model.SummaryStats{}

	row := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(DISTINCT keyword), MIN(date), MAX(date) FROM trends_data`)
	var minDate, maxDate sql.NullString
	if err := row.Scan(&stats.TotalRecords, &stats.UniqueKeywords, &minDate, &maxDate); err != nil {
		return nil, eris.Wrap(err, "sqlite: summary counts")
	}

	var err error
	if stats.FirstDate, err = parseNullDate(minDate); err != nil {
		return nil, err
	}
	if stats.LastDate, err = parseNullDate(maxDate); err != nil {
		return nil, err
	}

	var lastRun time.Time
	err = s.db.QueryRowContext(ctx, `
		SELECT collected_at FROM collection_runs
		WHERE success = 1
		ORDER BY collected_at DESC LIMIT 1`).Scan(&lastRun)
	switch {
	case err == sql.ErrNoRows:
		// no successful run yet
	case err != nil:
		return nil, eris.Wrap(err, "sqlite: last successful run")
	default:
		stats.LastSuccessfulRun = &lastRun
	}

	return stats, nil
}

func parseNullDate(v sql.NullString) (*time.Time, error) {
	if !v.Valid || v.String == "" {
		return nil, nil
	}
	t, err := time.Parse(model.DateLayout, v.String)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: parse date %s", v.String)
	}
	return &t, nil
}

// Snapshot produces a byte-consistent copy of the database at destPath
// using VACUUM INTO. Safe alongside concurrent readers; must not run
// concurrently with a writer.
func (s *SQLiteStore) Snapshot(ctx context.Context, destPath string) error {
	if dir := filepath.Dir(destPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return eris.Wrapf(err, "sqlite: create backup directory %s", dir)
		}
	}
	if _, err := s.db.ExecContext(ctx, `VACUUM INTO ?`, destPath); err != nil {
		return eris.Wrapf(err, "sqlite: snapshot into %s", destPath)
	}
	return nil
}
