package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/tealeg/xlsx/v2"

	"github.com/quebec-market/trends-cli/internal/model"
	"github.com/quebec-market/trends-cli/internal/store"
)

var (
	exportKeywords []string
	exportCategory string
	exportStart    string
	exportEnd      string
)

var exportCmd = &cobra.Command{
	Use:   "export <file.xlsx>",
	Short: "Export query results to an xlsx workbook",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		points, err := st.QueryPoints(ctx, store.QueryFilter{
			Keywords:  exportKeywords,
			Category:  exportCategory,
			StartDate: exportStart,
			EndDate:   exportEnd,
		})
		if err != nil {
			return eris.Wrap(err, "export query")
		}

		if err := writeWorkbook(args[0], points); err != nil {
			return err
		}

		fmt.Fprintf(os.Stdout, "exported %d points to %s\n", len(points), args[0])
		return nil
	},
}

func writeWorkbook(path string, points []model.TimeSeriesPoint) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("trends")
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	header := sheet.AddRow()
	for _, col := range []string{"date", "keyword", "category", "interest", "geo", "collected_at"} {
		header.AddCell().Value = col
	}

	for _, p := range points {
		row := sheet.AddRow()
		row.AddCell().Value = p.Date.Format(model.DateLayout)
		row.AddCell().Value = p.Keyword
		row.AddCell().Value = p.Category
		row.AddCell().SetInt(p.Interest)
		row.AddCell().Value = p.Geo
		row.AddCell().Value = p.CollectedAt.Format("2006-01-02 15:04:05")
	}

	return eris.Wrapf(file.Save(path), "export: save %s", path)
}

func init() {
	exportCmd.Flags().StringSliceVar(&exportKeywords, "keyword", nil, "filter by keyword (repeatable)")
	exportCmd.Flags().StringVar(&exportCategory, "category", "", "filter by category")
	exportCmd.Flags().StringVar(&exportStart, "start", "", "inclusive start date (yyyy-mm-dd)")
	exportCmd.Flags().StringVar(&exportEnd, "end", "", "inclusive end date (yyyy-mm-dd)")
	rootCmd.AddCommand(exportCmd)
}
