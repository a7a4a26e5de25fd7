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

	"github.com/pgEdge/pgedge-vendorsummary/internal/export"
)

var (
	exportOutput string
	exportFormat string
	exportTable  string
	exportTop    int
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the vendor sales summary to a file",
	Long: `Read the summary table written by 'run' and save it as an Excel workbook
(a summary sheet plus the data) or as a CSV file. Rows keep the summary
order, largest purchase dollars first.

Example:
  pgedge-vendorsummary export
  pgedge-vendorsummary export --format csv --output summary.csv --top 100`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportOutput, "output", "",
		"output file (default: vendor_sales_summary.xlsx)")
	exportCmd.Flags().StringVar(&exportFormat, "format", "",
		"output format: xlsx or csv")
	exportCmd.Flags().StringVar(&exportTable, "table", "",
		"summary table to read (default: vendor_sales_summary)")
	exportCmd.Flags().IntVar(&exportTop, "top", -1,
		"export only the first N rows (0 = all)")
}

func runExport(cmd *cobra.Command, args []string) error {
	// Override config with CLI flags
	if exportOutput != "" {
		cfg.Export.Output = exportOutput
	}
	if exportFormat != "" {
		cfg.Export.Format = exportFormat
	}
	if exportTable != "" {
		cfg.Run.Table = exportTable
	}
	if exportTop >= 0 {
		cfg.Export.Top = exportTop
	}

	// Validate configuration
	if err := cfg.ValidateExport(); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	store, err := openStore(ctx)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer store.Close()

	report, err := export.Read(ctx, store, cfg.Run.Table, cfg.Export.Top)
	if err != nil {
		return err
	}
	if err := export.Write(report, cfg.Export.Format, cfg.Export.Output); err != nil {
		return err
	}

	logger.Info().
		Str("table", report.Table).
		Str("output", cfg.Export.Output).
		Str("format", cfg.Export.Format).
		Int("rows", len(report.Rows)).
		Msg("Export complete")

	p := message.NewPrinter(language.English)
	p.Fprintf(cmd.OutOrStdout(), "Exported %d rows to %s\n", len(report.Rows), cfg.Export.Output)
	return nil
}
