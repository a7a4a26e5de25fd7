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

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/pgEdge/pgedge-vendorsummary/internal/ingest"
)

var ingestBatchSize int

var ingestCmd = &cobra.Command{
	Use:   "ingest <file-or-dir>...",
	Short: "Load CSV files into inventory tables",
	Long: `Load CSV files into the database. Each file replaces the table named after
it (purchases.csv becomes purchases); the header row gives the column names
and column types are inferred from the data. Directories contribute every
*.csv file they contain.

Example:
  pgedge-vendorsummary ingest data/
  pgedge-vendorsummary ingest purchases.csv sales.csv --batch-size 10000`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().IntVar(&ingestBatchSize, "batch-size", 0,
		"rows per insert batch (default: 5000)")
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestBatchSize > 0 {
		cfg.Run.BatchSize = ingestBatchSize
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	store, err := openStore(ctx)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer store.Close()

	results, err := ingest.NewLoader(store, logger, cfg.Run.BatchSize).Load(ctx, args)
	p := message.NewPrinter(language.English)
	for _, r := range results {
		p.Fprintf(cmd.OutOrStdout(), "%s: %d rows into %s\n", r.File, r.Rows, r.Table)
	}
	if err != nil {
		return err
	}

	logger.Info().
		Int("files", len(results)).
		Msg("Ingest complete")
	return nil
}
