package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/equilibrar/migratr/internal/migratr/config"
	"github.com/equilibrar/migratr/internal/migratr/logger"
)

var (
	cfgFile string
	Version = "v0.1"
	rootCmd = &cobra.Command{
		Use:   "migratr",
		Short: "migratr - clinic spreadsheet to relational schema migration",
		Long:  "migratr: migrate the legacy clinic CSV exports into the normalized MySQL/PostgreSQL schema, then verify the result.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// load config
			if cfgFile != "" {
				viper.SetConfigFile(cfgFile)
			} else {
				// default: ./config.yaml
				viper.SetConfigFile("config.yaml")
			}
			if err := viper.ReadInConfig(); err != nil {
				// every setting has a default or a flag, so a missing config
				// file is only worth a note
				fmt.Fprintf(os.Stderr, "Warning: could not read config (%v). Using defaults and flags.\n", err)
			}
			if err := config.Load(viper.GetViper()); err != nil {
				return err
			}

			if err := logger.InitLogger(config.Get().Logging.Level); err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			return nil
		},
	}
)

func init() {
	cobra.OnInitialize()
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(versionCmd)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
