//-------------------------------------------------------------------------
//
// pgEdge Vendor Summary
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package cli implements the command-line interface for pgedge-vendorsummary.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-vendorsummary/internal/config"
	"github.com/pgEdge/pgedge-vendorsummary/internal/db"
	"github.com/pgEdge/pgedge-vendorsummary/internal/logging"
	"github.com/pgEdge/pgedge-vendorsummary/pkg/version"
)

var (
	// Global flags
	cfgFile  string
	driver   string
	database string
	logLevel string
	logFile  string

	// Global config and logger, set by initConfig
	cfg    *config.Config
	logger = logging.Nop()

	rootCmd = &cobra.Command{
		Use:   "pgedge-vendorsummary",
		Short: "Vendor sales summary ETL for inventory databases",
		Long: `pgedge-vendorsummary builds a per-vendor, per-brand sales and purchasing
summary from an inventory database. It joins purchases, reference prices,
sales and freight invoices, derives gross profit, profit margin, stock
turnover and the sales-to-purchase ratio, and writes the result to the
vendor_sales_summary table.

The database is an SQLite file (default: inventory.db) or a PostgreSQL
server. Use 'seed' to generate a synthetic inventory, 'ingest' to load CSV
exports, 'run' to build the summary and 'export' to write a report.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

// Execute runs the root command.
func Execute() error {
	defer func() { _ = logger.Close() }()
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default: ./pgedge-vendorsummary.yaml)")
	rootCmd.PersistentFlags().StringVar(&driver, "driver", "",
		"storage driver (sqlite, postgres)")
	rootCmd.PersistentFlags().StringVar(&database, "database", "",
		"database file (sqlite) or connection string (postgres)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "",
		"append log lines to this file (default: logs/get_vendor_summary.log)")

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(exportCmd)
}

func initConfig() error {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return err
	}

	// Override with CLI flags
	if driver != "" {
		cfg.Driver = driver
	}
	if database != "" {
		cfg.Database = database
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if logFile != "" {
		cfg.LogFile = logFile
	}

	_ = logger.Close()
	logCfg := logging.DefaultConfig()
	logCfg.Level = cfg.LogLevel
	logCfg.File = cfg.LogFile
	logger, err = logging.New(logCfg)
	return err
}

// openStore connects to the configured database. Callers must close it.
func openStore(ctx context.Context) (db.Store, error) {
	logger.Debug().
		Str("driver", cfg.Driver).
		Msg("Opening database")
	return db.Open(ctx, cfg.Driver, cfg.Database, logger)
}

// signalContext returns a context that is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigChan:
			logger.Info().
				Str("signal", sig.String()).
				Msg("Received shutdown signal")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigChan)
		cancel()
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Println(version.Info())
	},
}
