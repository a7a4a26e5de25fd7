//-------------------------------------------------------------------------
//
// pgEdge Vendor Summary
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/pgEdge/pgedge-vendorsummary/internal/summary"
)

var (
	runTable      string
	runBatchSize  int
	runStrictLoad bool
	runSample     int
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Build the vendor sales summary table",
	Long: `Run one summary pass: aggregate purchases, sales and freight per vendor
and brand, clean the result and derive the profit ratios, then replace the
destination table with the new rows.

A failure while writing the destination table is reported but does not fail
the command unless --strict-load is set.

Example:
  pgedge-vendorsummary run
  pgedge-vendorsummary run --database inventory.db --batch-size 1000
  pgedge-vendorsummary run --driver postgres --database "postgres://..." --strict-load`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVar(&runTable, "table", "",
		"destination table (default: vendor_sales_summary)")
	runCmd.Flags().IntVar(&runBatchSize, "batch-size", 0,
		"rows per insert batch (default: 5000)")
	runCmd.Flags().BoolVar(&runStrictLoad, "strict-load", false,
		"fail the run when the destination table cannot be written")
	runCmd.Flags().IntVar(&runSample, "sample", -1,
		"rows of each stage to log at debug level (default: 5)")
}

func runRun(cmd *cobra.Command, args []string) error {
	// Override config with CLI flags
	if runTable != "" {
		cfg.Run.Table = runTable
	}
	if runBatchSize > 0 {
		cfg.Run.BatchSize = runBatchSize
	}
	if cmd.Flags().Changed("strict-load") {
		cfg.Run.StrictLoad = runStrictLoad
	}
	if runSample >= 0 {
		cfg.Run.SampleRows = runSample
	}

	// Validate configuration
	if err := cfg.ValidateRun(); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	store, err := openStore(ctx)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer store.Close()

	pipeline := summary.New(store, logger, summary.Options{
		Table:      cfg.Run.Table,
		BatchSize:  cfg.Run.BatchSize,
		StrictLoad: cfg.Run.StrictLoad,
		SampleRows: cfg.Run.SampleRows,
		Stderr:     cmd.ErrOrStderr(),
	})

	report, err := pipeline.Run(ctx)
	if err != nil {
		return err
	}

	p := message.NewPrinter(language.English)
	out := cmd.OutOrStdout()
	if report.LoadErr != nil {
		p.Fprintf(out, "Summarized %d rows; writing %s failed (run %s)\n",
			report.Transformed, report.Table, report.RunID)
		return nil
	}
	p.Fprintf(out, "Wrote %d rows to %s in %v (run %s)\n",
		report.Loaded, report.Table, report.Duration.Round(time.Millisecond), report.RunID)
	return nil
}
