package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/quebec-market/trends-cli/internal/model"
)

// pgPool is the subset of pgxpool.Pool used by PostgresStore, kept as an
// interface so tests can substitute pgxmock.
type pgPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool, for deployments where the
// trends database lives on a shared server instead of a local file.
type PostgresStore struct {
	pool pgPool
	geo  string
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString, geo string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, geo: geo}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS trends_data (
	id           BIGSERIAL PRIMARY KEY,
	keyword      TEXT NOT NULL,
	category     TEXT NOT NULL,
	date         DATE NOT NULL,
	interest     INTEGER NOT NULL,
	geo          TEXT NOT NULL DEFAULT 'CA-QC',
	collected_at TIMESTAMPTZ NOT NULL,
	UNIQUE(keyword, date)
);

CREATE TABLE IF NOT EXISTS collection_runs (
	id               BIGSERIAL PRIMARY KEY,
	run_id           TEXT NOT NULL,
	collected_at     TIMESTAMPTZ NOT NULL,
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

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) UpsertPoints(ctx context.Context, keyword, category string, series []model.InterestPoint) (model.UpsertStats, error) {
	var stats model.UpsertStats
	if len(series) == 0 {
		return stats, nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return stats, eris.Wrap(err, "postgres: begin upsert tx")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	now := time.Now().UTC()
	for _, p := range series {
		interest, reason := coerceInterest(p)
		if reason != "" {
			stats.Failed = append(stats.Failed, model.RowFailure{Date: p.Date, Reason: reason})
			continue
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO trends_data (keyword, category, date, interest, geo, collected_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (keyword, date) DO UPDATE SET
				category     = EXCLUDED.category,
				interest     = EXCLUDED.interest,
				geo          = EXCLUDED.geo,
				collected_at = EXCLUDED.collected_at`,
			keyword, category, p.Date, interest, s.geo, now,
		); err != nil {
			stats.Failed = append(stats.Failed, model.RowFailure{Date: p.Date, Reason: err.Error()})
			continue
		}
		stats.Written++
	}

	if err := tx.Commit(ctx); err != nil {
		return model.UpsertStats{}, eris.Wrapf(err, "postgres: commit upsert for %s", keyword)
	}
	return stats, nil
}

func (s *PostgresStore) LogRun(ctx context.Context, runID string, keywords []string, success bool, recordsInserted int, errorMessage string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO collection_runs (run_id, collected_at, keywords, success, error_message, records_inserted)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		runID, time.Now().UTC(), strings.Join(keywords, ", "), success, errorMessage, recordsInserted,
	)
	return eris.Wrap(err, "postgres: log run")
}

func (s *PostgresStore) QueryPoints(ctx context.Context, filter QueryFilter) ([]model.TimeSeriesPoint, error) {
	query := `SELECT id, keyword, category, date, interest, geo, collected_at FROM trends_data WHERE 1=1`
	var args []any

	if len(filter.Keywords) > 0 {
		args = append(args, filter.Keywords)
		query += fmt.Sprintf(` AND keyword = ANY($%d)`, len(args))
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		query += fmt.Sprintf(` AND category = $%d`, len(args))
	}
	if filter.StartDate != "" {
		args = append(args, filter.StartDate)
		query += fmt.Sprintf(` AND date >= $%d::date`, len(args))
	}
	if filter.EndDate != "" {
		args = append(args, filter.EndDate)
		query += fmt.Sprintf(` AND date <= $%d::date`, len(args))
	}
	query += ` ORDER BY date, keyword`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query points")
	}
	defer rows.Close()

	var points []model.TimeSeriesPoint
	for rows.Next() {
		var p model.TimeSeriesPoint
		if err := rows.Scan(&p.ID, &p.Keyword, &p.Category, &p.Date, &p.Interest, &p.Geo, &p.CollectedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan point")
		}
		points = append(points, p)
	}
	return points, eris.Wrap(rows.Err(), "postgres: query points iterate")
}

func (s *PostgresStore) LatestCollectionTime(ctx context.Context, keyword string) (*time.Time, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT collected_at FROM trends_data
		WHERE keyword = $1
		ORDER BY collected_at DESC LIMIT 1`,
		keyword,
	)

	var ts time.Time
	err := row.Scan(&ts)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: latest collection time for %s", keyword)
	}
	return &ts, nil
}

func (s *PostgresStore) Keywords(ctx context.Context) ([]string, error) {
	return s.distinct(ctx, `SELECT DISTINCT keyword FROM trends_data ORDER BY keyword`)
}

func (s *PostgresStore) Categories(ctx context.Context) ([]string, error) {
	return s.distinct(ctx, `SELECT DISTINCT category FROM trends_data ORDER BY category`)
}

func (s *PostgresStore) distinct(ctx context.Context, query string) ([]string, error) {
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: distinct values")
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, eris.Wrap(err, "postgres: scan distinct value")
		}
		values = append(values, v)
	}
	return values, eris.Wrap(rows.Err(), "postgres: distinct iterate")
}

func (s *PostgresStore) ListRuns(ctx context.Context, limit int) ([]model.CollectionRun, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, run_id, collected_at, keywords, success, error_message, records_inserted
		FROM collection_runs
		ORDER BY id DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.CollectionRun
	for rows.Next() {
		var (
			r        model.CollectionRun
			keywords string
			errMsg   sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.RunID, &r.CollectedAt, &keywords, &r.Success, &errMsg, &r.RecordsInserted); err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		if keywords != "" {
			r.Keywords = strings.Split(keywords, ", ")
		}
		r.ErrorMessage = errMsg.String
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}

func (s *PostgresStore) SummaryStats(ctx context.Context) (*model.SummaryStats, error) {
	stats := &model.SummaryStats{}

	row := s.pool.QueryRow(ctx, `
		SELECT COUNT(*), COUNT(DISTINCT keyword), MIN(date), MAX(date) FROM trends_data`)
	if err := row.Scan(&stats.TotalRecords, &stats.UniqueKeywords, &stats.FirstDate, &stats.LastDate); err != nil {
		return nil, eris.Wrap(err, "postgres: summary counts")
	}

	var lastRun time.Time
	err := s.pool.QueryRow(ctx, `
		SELECT collected_at FROM collection_runs
		WHERE success = true
		ORDER BY collected_at DESC LIMIT 1`).Scan(&lastRun)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		// no successful run yet
	case err != nil:
		return nil, eris.Wrap(err, "postgres: last successful run")
	default:
		stats.LastSuccessfulRun = &lastRun
	}

	return stats, nil
}

// Snapshot is a filesystem-level operation and only exists on the sqlite
// driver. Use pg_dump for server-side backups.
func (s *PostgresStore) Snapshot(ctx context.Context, destPath string) error {
	return eris.New("postgres: snapshot requires the sqlite driver")
}
