package main

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/quebec-market/trends-cli/internal/model"
)

func TestFormatSummary_Empty(t *testing.T) {
	var sb strings.Builder
	formatSummary(&sb, &model.SummaryStats{})

	out := sb.String()
	assert.Contains(t, out, "total records")
	assert.Contains(t, out, "never")
	assert.Contains(t, out, "-")
}

func TestFormatSummary_Populated(t *testing.T) {
	first := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	last := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)
	run := time.Date(2024, 7, 1, 8, 30, 0, 0, time.UTC)

	var sb strings.Builder
	formatSummary(&sb, &model.SummaryStats{
		TotalRecords:      520,
		UniqueKeywords:    19,
		FirstDate:         &first,
		LastDate:          &last,
		LastSuccessfulRun: &run,
	})

	out := sb.String()
	assert.Contains(t, out, "520")
	assert.Contains(t, out, "19")
	assert.Contains(t, out, "2024-01-01 .. 2024-06-30")
	assert.Contains(t, out, "2024-07-01 08:30:00")
}

func TestFormatRuns(t *testing.T) {
	var sb strings.Builder
	formatRuns(&sb, []model.CollectionRun{
		{
			CollectedAt:     time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC),
			Keywords:        []string{"sofa", "divan"},
			Success:         true,
			RecordsInserted: 104,
		},
		{
			CollectedAt:  time.Date(2024, 7, 1, 8, 0, 0, 0, time.UTC),
			Keywords:     []string{"matelas"},
			Success:      false,
			ErrorMessage: "failed keywords: matelas",
		},
	})

	out := sb.String()
	assert.Contains(t, out, "ok")
	assert.Contains(t, out, "failed keywords: matelas")
	assert.Contains(t, out, "104")
}

func TestDefaultBackupPath(t *testing.T) {
	now := time.Date(2024, 7, 1, 9, 30, 15, 0, time.UTC)
	path := defaultBackupPath(filepath.Join("data", "trends.db"), now)
	assert.Equal(t, filepath.Join("data", "backups", "trends_backup_20240701_093015.db"), path)
}

func TestWriteWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	points := []model.TimeSeriesPoint{
		{Keyword: "sofa", Category: "meubles", Date: day, Interest: 40, Geo: "CA-QC", CollectedAt: day},
		{Keyword: "sofa", Category: "meubles", Date: day.AddDate(0, 0, 1), Interest: 45, Geo: "CA-QC", CollectedAt: day},
	}
	require.NoError(t, writeWorkbook(path, points))

	file, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	require.Len(t, file.Sheets, 1)

	sheet := file.Sheets[0]
	require.Len(t, sheet.Rows, 3) // header + 2 points
	assert.Equal(t, "date", sheet.Rows[0].Cells[0].Value)
	assert.Equal(t, "sofa", sheet.Rows[1].Cells[1].Value)
	assert.Equal(t, "2024-01-02", sheet.Rows[2].Cells[0].Value)
}
