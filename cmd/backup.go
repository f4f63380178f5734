package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
)

var backupCmd = &cobra.Command{
	Use:   "backup [dest]",
	Short: "Write a point-in-time copy of the store",
	Long:  "Produces a byte-consistent snapshot of the database. Without an argument the copy lands in a timestamped file under <db dir>/backups/. Do not run while a collection job is writing.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		dest := ""
		if len(args) == 1 {
			dest = args[0]
		} else {
			dest = defaultBackupPath(cfg.Store.Path, time.Now())
		}

		if err := st.Snapshot(ctx, dest); err != nil {
			return err
		}

		fmt.Fprintf(os.Stdout, "backup written to %s\n", dest)
		return nil
	},
}

func defaultBackupPath(dbPath string, now time.Time) string {
	dir := filepath.Join(filepath.Dir(dbPath), "backups")
	return filepath.Join(dir, fmt.Sprintf("trends_backup_%s.db", now.Format("20060102_150405")))
}

func init() {
	rootCmd.AddCommand(backupCmd)
}
