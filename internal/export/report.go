//-------------------------------------------------------------------------
//
// pgEdge Vendor Summary
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package export reads a persisted vendor sales summary and writes it out
// as an Excel workbook or a CSV file.
package export

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/pgEdge/pgedge-vendorsummary/internal/db"
	"github.com/pgEdge/pgedge-vendorsummary/internal/summary"
)

// Totals are the report-level sums shown on the summary sheet.
type Totals struct {
	Vendors         int
	Brands          int
	PurchaseDollars float64
	SalesDollars    float64
	GrossProfit     float64
	FreightCost     float64
}

// Report is a summary table read back from the store.
type Report struct {
	Table       string
	Columns     []string
	Rows        [][]any
	Totals      Totals
	GeneratedAt time.Time
}

// Read loads table in summary order. A positive top limits the report to
// the first top rows.
func Read(ctx context.Context, store db.Store, table string, top int) (*Report, error) {
	if table == "" {
		table = summary.DefaultTable
	}
	if top < 0 {
		return nil, fmt.Errorf("top must not be negative")
	}

	exists, err := db.TableExists(ctx, store, table)
	if err != nil {
		return nil, fmt.Errorf("failed to check table %s: %w", table, err)
	}
	if !exists {
		return nil, fmt.Errorf("table %s does not exist; run the summary first", table)
	}

	columns := summary.ColumnNames()
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = db.QuoteIdent(c)
	}

	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY %s DESC, %s, %s",
		strings.Join(quoted, ", "), db.QuoteIdent(table),
		db.QuoteIdent("TotalPurchaseDollars"), db.QuoteIdent("VendorNumber"), db.QuoteIdent("Brand"))
	var args []any
	if top > 0 {
		query += " LIMIT ?"
		args = append(args, top)
	}

	report := &Report{
		Table:       table,
		Columns:     columns,
		GeneratedAt: time.Now().UTC(),
	}
	err = store.Query(ctx, query, func(s db.Scanner) error {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := s.Scan(ptrs...); err != nil {
			return err
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		report.Rows = append(report.Rows, values)
		return nil
	}, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", table, err)
	}

	report.Totals = totals(columns, report.Rows)
	return report, nil
}

func totals(columns []string, rows [][]any) Totals {
	idx := make(map[string]int, len(columns))
	for i, c := range columns {
		idx[c] = i
	}

	var t Totals
	vendors := make(map[any]bool)
	brands := make(map[any]bool)
	for _, row := range rows {
		vendors[row[idx["VendorNumber"]]] = true
		brands[row[idx["Brand"]]] = true
		t.PurchaseDollars += finite(row[idx["TotalPurchaseDollars"]])
		t.SalesDollars += finite(row[idx["TotalSalesDollars"]])
		t.GrossProfit += finite(row[idx["GrossProfit"]])
		t.FreightCost += finite(row[idx["TotalFreightCost"]])
	}
	t.Vendors = len(vendors)
	t.Brands = len(brands)
	return t
}

func finite(v any) float64 {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case int64:
		f = float64(n)
	default:
		return 0
	}
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return 0
	}
	return f
}

// cellText renders a value for CSV output and for non-finite spreadsheet
// cells.
func cellText(v any) string {
	switch n := v.(type) {
	case nil:
		return ""
	case string:
		return n
	case float64:
		return db.FormatFloat(n)
	case int64:
		return fmt.Sprintf("%d", n)
	default:
		return fmt.Sprint(n)
	}
}
