package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/equilibrar/migratr/internal/migratr/config"
	"github.com/equilibrar/migratr/internal/migratr/runner"
	"github.com/equilibrar/migratr/internal/migratr/store"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run the full CSV → relational migration",
	RunE:  runMigrate,
}

var (
	flagCSVPath string
	flagDriver  string
	flagDSN     string
	flagRunLog  string
)

func init() {
	migrateCmd.Flags().StringVar(&flagCSVPath, "csv-path", "", "directory holding the legacy CSV exports")
	migrateCmd.Flags().StringVar(&flagDriver, "driver", "", "target driver: mysql|postgres")
	migrateCmd.Flags().StringVar(&flagDSN, "dsn", "", "target database DSN")
	migrateCmd.Flags().StringVar(&flagRunLog, "run-log", "", "file to append the run summary to")
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg := config.Get()

	// Override config with command line flags
	if flagCSVPath != "" {
		cfg.Source.Dir = flagCSVPath
	}
	if flagDriver != "" {
		cfg.Database.Driver = flagDriver
	}
	if flagDSN != "" {
		cfg.Database.DSN = flagDSN
	}
	if flagRunLog != "" {
		cfg.Logging.RunLog = flagRunLog
	}

	if cfg.Database.DSN == "" {
		return fmt.Errorf("no DSN configured: set database.dsn or pass --dsn")
	}

	st, err := store.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return err
	}
	defer st.Close()

	summary, err := runner.New(st, cfg).Run(context.Background())
	if err != nil {
		return err
	}

	fmt.Printf("migration run %s finished\n", summary.RunID)
	for _, p := range summary.Phases {
		fmt.Printf("  %-22s %-8s processed=%d emitted=%d skipped=%d\n",
			p.Phase, p.Status, p.Processed, p.Emitted, p.Skipped)
	}
	return nil
}
