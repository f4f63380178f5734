package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/quebec-market/trends-cli/internal/collector"
	"github.com/quebec-market/trends-cli/internal/model"
)

var (
	collectAll   bool
	collectDelay int
)

var collectCmd = &cobra.Command{
	Use:   "collect [category]",
	Short: "Collect trends data for one category or all of them",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if !collectAll && len(args) == 0 {
			return eris.New("provide a category or pass --all")
		}

		delay := time.Duration(collectDelay) * time.Second
		if collectDelay < 0 {
			delay = time.Duration(cfg.Collection.DelaySeconds) * time.Second
		}

		col, st, err := initCollector(ctx, collector.NewFixedPacer(delay))
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if collectAll {
			overall, err := col.CollectAll(ctx)
			if overall != nil {
				printOverall(overall)
			}
			return err
		}

		stats, err := col.CollectCategory(ctx, args[0])
		if stats != nil {
			printCategory(stats)
		}
		return err
	},
}

func printCategory(s *model.CategoryStats) {
	fmt.Fprintf(os.Stdout, "%s: %d/%d keywords, %d records inserted\n",
		s.Category, s.Successful, s.TotalKeywords, s.RecordsInserted)
	if len(s.FailedKeywords) > 0 {
		fmt.Fprintf(os.Stdout, "  failed: %v\n", s.FailedKeywords)
	}
}

func printOverall(o *model.OverallStats) {
	fmt.Fprintln(os.Stdout, "Collection complete")
	fmt.Fprintf(os.Stdout, "  categories: %d\n", o.Categories)
	fmt.Fprintf(os.Stdout, "  keywords:   %d (%d ok, %d failed)\n", o.TotalKeywords, o.TotalSuccessful, o.TotalFailed)
	fmt.Fprintf(os.Stdout, "  records:    %d\n", o.TotalRecords)
	fmt.Fprintf(os.Stdout, "  duration:   %.2fs\n", o.Duration.Seconds())
	for _, s := range o.CategoryStats {
		fmt.Fprintf(os.Stdout, "  - ")
		printCategory(&s)
	}
}

func init() {
	collectCmd.Flags().BoolVar(&collectAll, "all", false, "collect every configured category")
	collectCmd.Flags().IntVar(&collectDelay, "delay", -1, "seconds between provider requests (default from config)")
	rootCmd.AddCommand(collectCmd)
}
