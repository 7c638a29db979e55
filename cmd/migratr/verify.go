package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/equilibrar/migratr/internal/migratr/config"
	"github.com/equilibrar/migratr/internal/migratr/store"
	"github.com/equilibrar/migratr/internal/migratr/verify"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Run read-only consistency checks against the migrated schema",
	RunE:  runVerify,
}

var flagTolerance int

func init() {
	verifyCmd.Flags().StringVar(&flagDriver, "driver", "", "target driver: mysql|postgres")
	verifyCmd.Flags().StringVar(&flagDSN, "dsn", "", "target database DSN")
	verifyCmd.Flags().IntVar(&flagTolerance, "tolerance", -1, "allowed gap in financial breakdowns (default from config)")
}

func runVerify(cmd *cobra.Command, args []string) error {
	cfg := config.Get()

	if flagDriver != "" {
		cfg.Database.Driver = flagDriver
	}
	if flagDSN != "" {
		cfg.Database.DSN = flagDSN
	}
	tolerance := cfg.Verify.FinancialTolerance
	if flagTolerance >= 0 {
		tolerance = flagTolerance
	}

	if cfg.Database.DSN == "" {
		return fmt.Errorf("no DSN configured: set database.dsn or pass --dsn")
	}

	st, err := store.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return err
	}
	defer st.Close()

	rep, err := verify.Run(context.Background(), st, verify.Options{FinancialTolerance: tolerance})
	if err != nil {
		return err
	}
	rep.Print(os.Stdout)

	if !rep.Clean() {
		fmt.Printf("%d checks reported findings\n", len(rep.Findings))
	}
	return nil
}
