package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quebec-market/trends-cli/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock, geo: "CA-QC"}
	return s, mock
}

func TestPostgres_LatestCollectionTime_Absent(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT collected_at FROM trends_data`).
		WithArgs("never-collected").
		WillReturnError(pgx.ErrNoRows)

	ts, err := s.LatestCollectionTime(context.Background(), "never-collected")
	require.NoError(t, err)
	assert.Nil(t, ts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_UpsertPoints_SkipsInvalidRows(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	series := []model.InterestPoint{
		{Date: day, Value: 42},
		{Date: time.Time{}, Value: 7}, // skipped before any SQL
	}

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO trends_data`).
		WithArgs("sofa", "meubles", day, 42, "CA-QC", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	up, err := s.UpsertPoints(context.Background(), "sofa", "meubles", series)
	require.NoError(t, err)
	assert.Equal(t, 1, up.Written)
	require.Len(t, up.Failed, 1)
	assert.Equal(t, "missing date", up.Failed[0].Reason)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_LogRun(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO collection_runs`).
		WithArgs("run-1", pgxmock.AnyArg(), "sofa, divan", true, "", 24).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.LogRun(context.Background(), "run-1", []string{"sofa", "divan"}, true, 24, "")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_QueryPoints_FilterShape(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	now := time.Now().UTC()
	day := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	rows := pgxmock.NewRows([]string{"id", "keyword", "category", "date", "interest", "geo", "collected_at"}).
		AddRow(int64(1), "matelas", "matelas", day, 55, "CA-QC", now)

	mock.ExpectQuery(`SELECT id, keyword, category, date, interest, geo, collected_at FROM trends_data WHERE 1=1 AND keyword = ANY\(\$1\) AND category = \$2 AND date >= \$3::date AND date <= \$4::date ORDER BY date, keyword`).
		WithArgs([]string{"matelas"}, "matelas", "2024-01-01", "2024-01-31").
		WillReturnRows(rows)

	points, err := s.QueryPoints(context.Background(), QueryFilter{
		Keywords:  []string{"matelas"},
		Category:  "matelas",
		StartDate: "2024-01-01",
		EndDate:   "2024-01-31",
	})
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, 55, points[0].Interest)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_SummaryStats_Empty(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\), COUNT\(DISTINCT keyword\), MIN\(date\), MAX\(date\) FROM trends_data`).
		WillReturnRows(pgxmock.NewRows([]string{"count", "distinct", "min", "max"}).
			AddRow(0, 0, nil, nil))
	mock.ExpectQuery(`SELECT collected_at FROM collection_runs`).
		WillReturnError(pgx.ErrNoRows)

	stats, err := s.SummaryStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, stats.TotalRecords)
	assert.Nil(t, stats.LastSuccessfulRun)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_Snapshot_Unsupported(t *testing.T) {
	s, _ := newMockPostgresStore(t)

	err := s.Snapshot(context.Background(), "/tmp/copy.db")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sqlite driver")
}
