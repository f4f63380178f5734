package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/quebec-market/trends-cli/internal/collector"
)

var updateDays int

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Refresh keywords whose data is stale",
	Long:  "Checks every configured keyword's last collection time and re-collects only those older than the staleness threshold. When nothing is stale the provider is not contacted.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		days := updateDays
		if days <= 0 {
			days = cfg.Collection.StalenessDays
		}

		delay := time.Duration(cfg.Collection.DelaySeconds) * time.Second
		col, st, err := initCollector(ctx, collector.NewFixedPacer(delay))
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		stats, err := col.UpdateStale(ctx, time.Duration(days)*24*time.Hour)
		if stats != nil {
			fmt.Fprintf(os.Stdout, "checked %d keywords, updated %d (%d failed), %d records inserted\n",
				stats.KeywordsChecked, stats.KeywordsUpdated, stats.Failed, stats.RecordsInserted)
		}
		return err
	},
}

func init() {
	updateCmd.Flags().IntVar(&updateDays, "days", 0, "staleness threshold in days (default from config)")
	rootCmd.AddCommand(updateCmd)
}
