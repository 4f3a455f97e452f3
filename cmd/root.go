// Package cmd defines and implements the CLI commands for the edgar-ingest
// executable.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/finfeed/edgar-ingest/internal/config"
	"github.com/finfeed/edgar-ingest/internal/logging"
)

var (
	cfgFile string
	cfg     config.Config
	logger  *zap.Logger
)

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edgar-ingest",
		Short: "Downloads and extracts SEC EDGAR filings.",
		Long: `edgar-ingest retrieves regulatory filings from the SEC EDGAR archive,
extracts entity, filing and holdings records from their mixed text/XML
bodies, and persists them to flat files or Postgres. Outbound requests are
paced by a process-wide token bucket below the archive's published rate
limit.`,

		// Configuration problems surface here, before any fetching begins.
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			var err error
			cfg, err = config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger, err = logging.New(cfg.Logging.Development)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			return nil
		},

		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml via env)")

	cmd.AddCommand(newFetchCmd())

	return cmd
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
