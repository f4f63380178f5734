package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/quebec-market/trends-cli/internal/model"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show store summary statistics",
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

		stats, err := st.SummaryStats(ctx)
		if err != nil {
			return err
		}

		formatSummary(os.Stdout, stats)
		return nil
	},
}

func formatSummary(w io.Writer, stats *model.SummaryStats) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "total records\t%d\n", stats.TotalRecords)
	fmt.Fprintf(tw, "unique keywords\t%d\n", stats.UniqueKeywords)
	if stats.FirstDate != nil && stats.LastDate != nil {
		fmt.Fprintf(tw, "date range\t%s .. %s\n",
			stats.FirstDate.Format(model.DateLayout), stats.LastDate.Format(model.DateLayout))
	} else {
		fmt.Fprintf(tw, "date range\t-\n")
	}
	if stats.LastSuccessfulRun != nil {
		fmt.Fprintf(tw, "last successful run\t%s\n", stats.LastSuccessfulRun.Format("2006-01-02 15:04:05"))
	} else {
		fmt.Fprintf(tw, "last successful run\tnever\n")
	}
	tw.Flush() //nolint:errcheck
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
