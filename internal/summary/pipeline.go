//-------------------------------------------------------------------------
//
// pgEdge Vendor Summary
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package summary builds the vendor sales summary: it aggregates purchases,
// sales and freight per vendor and brand, derives profit ratios, and writes
// the result back to the database.
package summary

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/pgEdge/pgedge-vendorsummary/internal/db"
	"github.com/pgEdge/pgedge-vendorsummary/internal/logging"
)

// Stage identifies a pipeline stage.
type Stage string

// Pipeline stages, in execution order.
const (
	StageAggregate Stage = "aggregate"
	StageTransform Stage = "transform"
	StageLoad      Stage = "load"
)

// StageError reports which stage of a run failed.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Options configures a pipeline run.
type Options struct {
	// Table is the destination table (default vendor_sales_summary).
	Table string

	// BatchSize is the number of rows per insert batch (default 5000).
	BatchSize int

	// StrictLoad makes a load failure fail the run. By default a load
	// failure is logged, printed and recorded in the Report only.
	StrictLoad bool

	// SampleRows is how many rows of each stage are logged at debug level.
	SampleRows int

	// Stderr receives the printed load error (default os.Stderr).
	Stderr io.Writer
}

// Report describes a finished run.
type Report struct {
	RunID       string
	Table       string
	Aggregated  int
	Transformed int
	Loaded      int64
	LoadErr     error
	StartedAt   time.Time
	Duration    time.Duration
}

// Pipeline runs aggregate, transform and load in sequence against one store.
type Pipeline struct {
	store db.Store
	log   *logging.Logger
	opts  Options
}

// New creates a pipeline. The store stays owned by the caller.
func New(store db.Store, log *logging.Logger, opts Options) *Pipeline {
	if opts.Table == "" {
		opts.Table = DefaultTable
	}
	if opts.BatchSize < 1 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	return &Pipeline{store: store, log: log, opts: opts}
}

// Run executes one summary pass. Aggregate and transform failures stop the
// run and are returned as *StageError. A load failure is returned only when
// StrictLoad is set; otherwise it is reported in Report.LoadErr and the run
// still completes.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	report := &Report{
		RunID:     uuid.NewString(),
		Table:     p.opts.Table,
		StartedAt: time.Now().UTC(),
	}
	log := p.log.With("run_id", report.RunID)

	log.Info().Msg("Creating vendor summary table")
	aggregated, err := Aggregate(ctx, p.store, log)
	if err != nil {
		return report, p.fail(log, report, StageAggregate, err)
	}
	report.Aggregated = len(aggregated)
	for i := range min(p.opts.SampleRows, len(aggregated)) {
		a := aggregated[i]
		log.Debug().
			Int("row", i).
			Str("vendor_number", textOrZero(a.VendorNumber)).
			Str("brand", textOrZero(a.Brand)).
			Float64("total_purchase_dollars", floatOrZero(a.TotalPurchaseDollars)).
			Bool("has_sales", a.TotalSalesDollars != nil).
			Bool("has_freight", a.TotalFreightCost != nil).
			Msg("Sample summary data")
	}

	log.Info().Msg("Cleaning data")
	rows, err := Transform(ctx, aggregated, log)
	if err != nil {
		return report, p.fail(log, report, StageTransform, err)
	}
	report.Transformed = len(rows)
	for i := range min(p.opts.SampleRows, len(rows)) {
		r := rows[i]
		log.Debug().
			Int("row", i).
			Str("vendor_number", r.VendorNumber.String()).
			Str("vendor_name", r.VendorName).
			Str("brand", r.Brand.String()).
			Float64("gross_profit", r.GrossProfit).
			Float64("profit_margin", r.ProfitMargin).
			Float64("stock_turnover", r.StockTurnOver).
			Float64("sales_to_purchase_ratio", r.SalestoPurchaseRatio).
			Msg("Sample clean data")
	}

	log.Info().Msg("Ingesting clean data into database")
	loaded, err := Load(ctx, p.store, p.opts.Table, rows, p.opts.BatchSize, log)
	if err != nil {
		report.LoadErr = err
		fmt.Fprintf(p.opts.Stderr, "Error while inserting '%s': %v\n", p.opts.Table, err)
		if p.opts.StrictLoad {
			return report, p.fail(log, report, StageLoad, err)
		}
	}
	report.Loaded = loaded
	report.Duration = time.Since(report.StartedAt)

	p.recordRun(ctx, log, report)

	log.Info().
		Int("rows", report.Transformed).
		Int64("loaded", report.Loaded).
		Bool("load_failed", report.LoadErr != nil).
		Dur("duration", report.Duration).
		Msg("Completed")

	return report, nil
}

func (p *Pipeline) fail(log *logging.Logger, report *Report, stage Stage, err error) error {
	report.Duration = time.Since(report.StartedAt)
	log.Error().
		Err(err).
		Str("stage", string(stage)).
		Msg("Vendor summary run failed")
	return &StageError{Stage: stage, Err: err}
}

// recordRun stores the outcome of the run in the metadata table. A failure
// here is logged and otherwise ignored.
func (p *Pipeline) recordRun(ctx context.Context, log *logging.Logger, report *Report) {
	status := "ok"
	if report.LoadErr != nil {
		status = "failed: " + report.LoadErr.Error()
	}

	err := db.SaveMetadata(ctx, p.store, map[string]string{
		"last_run_id":          report.RunID,
		"last_run_at":          report.StartedAt.Format(time.RFC3339),
		"last_run_table":       report.Table,
		"last_run_rows":        strconv.Itoa(report.Transformed),
		"last_run_load_status": status,
	})
	if err != nil {
		log.Warn().
			Err(err).
			Msg("Could not record run metadata")
	}
}
