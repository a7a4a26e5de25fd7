//-------------------------------------------------------------------------
//
// pgEdge Vendor Summary
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package summary

import (
	"bytes"
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pgEdge/pgedge-vendorsummary/internal/db"
	"github.com/pgEdge/pgedge-vendorsummary/internal/ingest"
	"github.com/pgEdge/pgedge-vendorsummary/internal/logging"
	"github.com/pgEdge/pgedge-vendorsummary/internal/testutil"
)

var (
	purchaseCols = []db.Column{
		{Name: "VendorNumber", Type: db.TypeInteger},
		{Name: "VendorName", Type: db.TypeText},
		{Name: "Brand", Type: db.TypeInteger},
		{Name: "Description", Type: db.TypeText},
		{Name: "PurchasePrice", Type: db.TypeDouble},
		{Name: "Quantity", Type: db.TypeInteger},
		{Name: "Dollars", Type: db.TypeDouble},
	}
	priceCols = []db.Column{
		{Name: "Brand", Type: db.TypeInteger},
		{Name: "Price", Type: db.TypeDouble},
		{Name: "Volume", Type: db.TypeText},
	}
	salesCols = []db.Column{
		{Name: "VendorNo", Type: db.TypeInteger},
		{Name: "Brand", Type: db.TypeInteger},
		{Name: "SalesDollars", Type: db.TypeDouble},
		{Name: "SalesPrice", Type: db.TypeDouble},
		{Name: "SalesQuantity", Type: db.TypeInteger},
		{Name: "ExciseTax", Type: db.TypeDouble},
	}
	invoiceCols = []db.Column{
		{Name: "VendorNumber", Type: db.TypeInteger},
		{Name: "Freight", Type: db.TypeDouble},
	}
)

// inventory is a small dataset covering the interesting joins.
type inventory struct {
	purchases [][]any
	prices    [][]any
	sales     [][]any
	invoices  [][]any
}

func (inv inventory) write(t *testing.T, store db.Store) {
	t.Helper()
	testutil.WriteTable(t, store, "purchases", purchaseCols, inv.purchases)
	testutil.WriteTable(t, store, "purchase_prices", priceCols, inv.prices)
	testutil.WriteTable(t, store, "sales", salesCols, inv.sales)
	testutil.WriteTable(t, store, "vendor_invoice", invoiceCols, inv.invoices)
}

// writeTextBrands writes inv with every Brand column declared as text.
func (inv inventory) writeTextBrands(t *testing.T, store db.Store) {
	t.Helper()
	testutil.WriteTable(t, store, "purchases", textBrand(purchaseCols), inv.purchases)
	testutil.WriteTable(t, store, "purchase_prices", textBrand(priceCols), inv.prices)
	testutil.WriteTable(t, store, "sales", textBrand(salesCols), inv.sales)
	testutil.WriteTable(t, store, "vendor_invoice", invoiceCols, inv.invoices)
}

func textBrand(cols []db.Column) []db.Column {
	out := make([]db.Column, len(cols))
	copy(out, cols)
	for i := range out {
		if out[i].Name == "Brand" {
			out[i].Type = db.TypeText
		}
	}
	return out
}

func sampleInventory() inventory {
	return inventory{
		purchases: [][]any{
			// Vendor 1, brand 100: sold, no freight.
			{int64(1), "ALPHA  ", int64(100), "Alpha Ale", 10.0, int64(5), 50.0},
			// Vendor 2, brand 200: never sold, two purchase lines.
			{int64(2), " BETA", int64(200), "Beta Bock", 20.0, int64(3), 60.0},
			{int64(2), " BETA", int64(200), "Beta Bock", 20.0, int64(2), 40.0},
			// Zero price: excluded.
			{int64(2), " BETA", int64(201), "Beta Free", 0.0, int64(9), 0.0},
			// Vendor 3, brand 300: unknown volume.
			{int64(3), "GAMMA", int64(300), "Gamma Gin", 7.0, int64(10), 70.0},
		},
		prices: [][]any{
			{int64(100), 14.99, "750"},
			{int64(200), 29.99, "1750"},
			{int64(201), 9.99, "750"},
			{int64(300), 11.0, "Unknown"},
		},
		sales: [][]any{
			{int64(1), int64(100), 80.0, 20.0, int64(4), 0.5},
			{int64(3), int64(300), 35.0, 11.0, int64(3), 1.0},
			{int64(3), int64(300), 22.0, 11.0, int64(2), 0.5},
			// Sale for a brand with no qualifying purchase.
			{int64(2), int64(201), 9.99, 9.99, int64(1), 0.1},
		},
		invoices: [][]any{
			{int64(2), 4.0},
			{int64(2), 1.5},
			{int64(3), 2.25},
		},
	}
}

func runPipeline(t *testing.T, store db.Store, opts Options) (*Report, string, error) {
	t.Helper()
	var stderr bytes.Buffer
	opts.Stderr = &stderr
	report, err := New(store, logging.Nop(), opts).Run(context.Background())
	return report, stderr.String(), err
}

func readSummary(t *testing.T, store db.Store, table string) []Row {
	t.Helper()

	query := `SELECT CAST("VendorNumber" AS TEXT), "VendorName", CAST("Brand" AS TEXT), "Description", "Volume",
        "TotalPurchaseQuantity", "TotalPurchaseDollars", "TotalSalesQuantity", "TotalSalesDollars",
        "TotalSalesPrice", "TotalExciseTax", "TotalFreightCost", "GrossProfit", "ProfitMargin",
        "StockTurnOver", "SalestoPurchaseRatio"
        FROM "` + table + `" ORDER BY "TotalPurchaseDollars" DESC, "VendorNumber", "Brand"`

	var rows []Row
	err := store.Query(context.Background(), query, func(s db.Scanner) error {
		var r Row
		var vendor, brand *string
		var margin *float64
		if err := s.Scan(&vendor, &r.VendorName, &brand, &r.Description, &r.Volume.Text,
			&r.TotalPurchaseQuantity, &r.TotalPurchaseDollars, &r.TotalSalesQuantity, &r.TotalSalesDollars,
			&r.TotalSalesPrice, &r.TotalExciseTax, &r.TotalFreightCost, &r.GrossProfit, &margin,
			&r.StockTurnOver, &r.SalestoPurchaseRatio); err != nil {
			return err
		}
		r.VendorNumber = ParseCode(vendor)
		r.Brand = ParseCode(brand)
		if margin != nil {
			r.ProfitMargin = *margin
		}
		rows = append(rows, r)
		return nil
	})
	if err != nil {
		t.Fatalf("Failed to read summary: %v", err)
	}
	return rows
}

func TestPipelineRun(t *testing.T) {
	store := testutil.OpenSQLite(t)
	sampleInventory().write(t, store)

	report, stderr, err := runPipeline(t, store, Options{BatchSize: 2})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if stderr != "" {
		t.Errorf("unexpected stderr output: %q", stderr)
	}
	if report.Aggregated != 3 || report.Transformed != 3 || report.Loaded != 3 {
		t.Errorf("report = %+v, want 3 rows through every stage", report)
	}
	if report.LoadErr != nil {
		t.Errorf("LoadErr = %v", report.LoadErr)
	}
	if report.RunID == "" {
		t.Error("RunID is empty")
	}

	rows := readSummary(t, store, DefaultTable)
	if len(rows) != 3 {
		t.Fatalf("got %d summary rows, want 3", len(rows))
	}

	for i := 1; i < len(rows); i++ {
		if rows[i].TotalPurchaseDollars > rows[i-1].TotalPurchaseDollars {
			t.Errorf("rows not sorted by TotalPurchaseDollars: %v then %v",
				rows[i-1].TotalPurchaseDollars, rows[i].TotalPurchaseDollars)
		}
	}
	for _, r := range rows {
		if r.VendorName != strings.TrimSpace(r.VendorName) {
			t.Errorf("VendorName %q is not trimmed", r.VendorName)
		}
		if r.Brand == NumericCode(201) {
			t.Error("zero-price purchase must be excluded")
		}
		if math.IsInf(r.ProfitMargin, 0) {
			t.Errorf("brand %s ProfitMargin is infinite", r.Brand)
		}
	}

	// Vendor 2 brand 200: TPD 100, no sales, freight 5.5.
	beta := rows[0]
	if beta.Brand != NumericCode(200) || beta.TotalPurchaseDollars != 100 || beta.TotalPurchaseQuantity != 5 {
		t.Errorf("first row = %+v, want brand 200 with TPD 100", beta)
	}
	if beta.TotalSalesDollars != 0 || beta.TotalSalesQuantity != 0 || beta.TotalSalesPrice != 0 ||
		beta.TotalExciseTax != 0 {
		t.Errorf("unsold brand has sales values: %+v", beta)
	}
	if beta.GrossProfit != -100 || beta.StockTurnOver != 0 || beta.ProfitMargin != 0 {
		t.Errorf("unsold brand metrics: GP=%v STO=%v PM=%v", beta.GrossProfit, beta.StockTurnOver, beta.ProfitMargin)
	}
	if beta.TotalFreightCost != 5.5 {
		t.Errorf("freight = %v, want 5.5", beta.TotalFreightCost)
	}

	// Vendor 3 keeps its text volume, so the whole column is text.
	gamma := rows[1]
	if gamma.Brand != NumericCode(300) || gamma.Volume.Text != "Unknown" {
		t.Errorf("second row = %+v, want brand 300 with Unknown volume", gamma)
	}
	if gamma.TotalSalesDollars != 57 || gamma.TotalSalesQuantity != 5 {
		t.Errorf("gamma sales = %v/%v, want 57/5", gamma.TotalSalesDollars, gamma.TotalSalesQuantity)
	}
}

func TestPipelineScenarioSoldWithoutFreight(t *testing.T) {
	tests := []struct {
		name  string
		inv   inventory
		text  bool
		brand Code
	}{
		{
			name: "integer brand",
			inv: inventory{
				purchases: [][]any{{int64(1), "ALPHA", int64(100), "Alpha Ale", 10.0, int64(5), 50.0}},
				prices:    [][]any{{int64(100), 14.99, "750"}},
				sales:     [][]any{{int64(1), int64(100), 80.0, 20.0, int64(4), 0.5}},
			},
			brand: NumericCode(100),
		},
		{
			name: "text brand",
			inv: inventory{
				purchases: [][]any{{int64(1), "ALPHA", "A", "Alpha Ale", 10.0, int64(5), 50.0}},
				prices:    [][]any{{"A", 14.99, "750"}},
				sales:     [][]any{{int64(1), "A", 80.0, 20.0, int64(4), 0.5}},
			},
			text:  true,
			brand: TextCode("A"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := testutil.OpenSQLite(t)
			if tt.text {
				tt.inv.writeTextBrands(t, store)
			} else {
				tt.inv.write(t, store)
			}

			if _, _, err := runPipeline(t, store, Options{}); err != nil {
				t.Fatalf("Run failed: %v", err)
			}

			rows := readSummary(t, store, DefaultTable)
			if len(rows) != 1 {
				t.Fatalf("got %d rows, want 1", len(rows))
			}
			r := rows[0]

			metrics := []struct {
				name string
				got  float64
				want float64
			}{
				{"TotalPurchaseDollars", r.TotalPurchaseDollars, 50},
				{"TotalSalesDollars", r.TotalSalesDollars, 80},
				{"TotalFreightCost", r.TotalFreightCost, 0},
				{"GrossProfit", r.GrossProfit, 30},
				{"ProfitMargin", r.ProfitMargin, 37.5},
				{"StockTurnOver", r.StockTurnOver, 0.8},
				{"SalestoPurchaseRatio", r.SalestoPurchaseRatio, 1.6},
			}
			for _, m := range metrics {
				if math.Abs(m.got-m.want) > 1e-9 {
					t.Errorf("%s = %v, want %v", m.name, m.got, m.want)
				}
			}
			if r.Volume.Text != "750" {
				t.Errorf("Volume = %q, want 750", r.Volume.Text)
			}
			if r.Brand != tt.brand || r.VendorNumber != NumericCode(1) {
				t.Errorf("codes = %s/%s, want 1/%s", r.VendorNumber, r.Brand, tt.brand)
			}

			wantType := "integer"
			if tt.text {
				wantType = "text"
			}
			if got := storedType(t, store, "Brand"); got != wantType {
				t.Errorf("stored Brand type = %s, want %s", got, wantType)
			}
			if got := storedType(t, store, "VendorNumber"); got != "integer" {
				t.Errorf("stored VendorNumber type = %s, want integer", got)
			}
		})
	}
}

// storedType returns the SQLite storage class of column in the first
// summary row.
func storedType(t *testing.T, store db.Store, column string) string {
	t.Helper()
	var typ string
	err := store.Query(context.Background(), `SELECT typeof("`+column+`") FROM "`+DefaultTable+`" LIMIT 1`,
		func(s db.Scanner) error { return s.Scan(&typ) })
	if err != nil {
		t.Fatalf("Failed to read type of %s: %v", column, err)
	}
	return typ
}

func TestPipelineIngestedTextBrands(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"purchases.csv": "VendorNumber,VendorName,Brand,Description,PurchasePrice,Quantity,Dollars\n" +
			"1,ALPHA ,A12,Alpha Ale,10,5,50\n" +
			"2,BETA,B7,Beta Bock,20,3,60\n" +
			"2,BETA,B7,Beta Bock,20,2,40\n",
		"purchase_prices.csv": "Brand,Price,Volume\n" +
			"A12,14.99,750\n" +
			"B7,29.99,1750\n",
		"sales.csv": "VendorNo,Brand,SalesDollars,SalesPrice,SalesQuantity,ExciseTax\n" +
			"1,A12,80,20,4,0.5\n",
		"vendor_invoice.csv": "VendorNumber,Freight\n" +
			"2,4\n" +
			"2,1.5\n",
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
	}

	store := testutil.OpenSQLite(t)
	results, err := ingest.NewLoader(store, logging.Nop(), 2).Load(context.Background(), []string{dir})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(results) != len(files) {
		t.Fatalf("loaded %d files, want %d", len(results), len(files))
	}

	report, stderr, err := runPipeline(t, store, Options{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if report.LoadErr != nil || stderr != "" {
		t.Fatalf("load failed: %v %q", report.LoadErr, stderr)
	}

	rows := readSummary(t, store, DefaultTable)
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}

	beta := rows[0]
	if beta.Brand != TextCode("B7") || beta.VendorNumber != NumericCode(2) {
		t.Errorf("first row codes = %s/%s, want 2/B7", beta.VendorNumber, beta.Brand)
	}
	if beta.TotalPurchaseDollars != 100 || beta.TotalFreightCost != 5.5 || beta.TotalSalesDollars != 0 {
		t.Errorf("first row = %+v", beta)
	}

	alpha := rows[1]
	if alpha.Brand != TextCode("A12") || alpha.VendorName != "ALPHA" {
		t.Errorf("second row = %s %q, want A12 ALPHA", alpha.Brand, alpha.VendorName)
	}
	if alpha.GrossProfit != 30 || alpha.TotalSalesQuantity != 4 {
		t.Errorf("second row metrics = %+v", alpha)
	}
	if got := storedType(t, store, "Brand"); got != "text" {
		t.Errorf("stored Brand type = %s, want text", got)
	}
}

func TestPipelineUndefinedRatiosStoredAsNull(t *testing.T) {
	store := testutil.OpenSQLite(t)
	// Zero quantity and dollars at a positive price: every ratio is 0/0.
	inventory{
		purchases: [][]any{{int64(1), "ALPHA", int64(100), "Alpha Ale", 10.0, int64(0), 0.0}},
		prices:    [][]any{{int64(100), 14.99, "750"}},
		sales:     [][]any{{int64(1), int64(100), 0.0, 0.0, int64(0), 0.0}},
	}.write(t, store)

	if _, _, err := runPipeline(t, store, Options{}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	var margin, turnover, ratio *float64
	var gross float64
	err := store.Query(context.Background(),
		`SELECT "GrossProfit", "ProfitMargin", "StockTurnOver", "SalestoPurchaseRatio" FROM "`+DefaultTable+`"`,
		func(s db.Scanner) error { return s.Scan(&gross, &margin, &turnover, &ratio) })
	if err != nil {
		t.Fatalf("Failed to read summary: %v", err)
	}
	if gross != 0 {
		t.Errorf("GrossProfit = %v, want 0", gross)
	}
	// SQLite has no NaN; the undefined ratios are stored as NULL.
	for name, v := range map[string]*float64{
		"ProfitMargin":         margin,
		"StockTurnOver":        turnover,
		"SalestoPurchaseRatio": ratio,
	} {
		if v != nil {
			t.Errorf("%s = %v, want NULL", name, *v)
		}
	}
}

func TestPipelineRecordsMetadata(t *testing.T) {
	store := testutil.OpenSQLite(t)
	sampleInventory().write(t, store)

	report, _, err := runPipeline(t, store, Options{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	meta, err := db.GetAllMetadata(context.Background(), store)
	if err != nil {
		t.Fatalf("GetAllMetadata failed: %v", err)
	}
	if meta["last_run_id"] != report.RunID {
		t.Errorf("last_run_id = %q, want %q", meta["last_run_id"], report.RunID)
	}
	if meta["last_run_rows"] != "3" || meta["last_run_load_status"] != "ok" {
		t.Errorf("metadata = %v", meta)
	}
}

func TestPipelineLoadFailureCompletes(t *testing.T) {
	store := testutil.OpenSQLite(t)
	sampleInventory().write(t, store)

	// A view with the destination name cannot be dropped as a table.
	if err := store.Exec(context.Background(), `CREATE VIEW "vendor_sales_summary" AS SELECT 1 AS x`); err != nil {
		t.Fatalf("Failed to create view: %v", err)
	}

	report, stderr, err := runPipeline(t, store, Options{})
	if err != nil {
		t.Fatalf("Run returned %v, want nil for a non-strict load failure", err)
	}
	if report.LoadErr == nil {
		t.Fatal("LoadErr is nil")
	}
	if report.Loaded != 0 {
		t.Errorf("Loaded = %d, want 0", report.Loaded)
	}
	if !strings.Contains(stderr, "Error while inserting 'vendor_sales_summary'") {
		t.Errorf("stderr = %q", stderr)
	}

	status, ok, err := db.GetMetadataValue(context.Background(), store, "last_run_load_status")
	if err != nil || !ok {
		t.Fatalf("GetMetadataValue = %q, %v, %v", status, ok, err)
	}
	if !strings.HasPrefix(status, "failed") {
		t.Errorf("load status = %q, want failed", status)
	}
}

func TestPipelineStrictLoadFails(t *testing.T) {
	store := testutil.OpenSQLite(t)
	sampleInventory().write(t, store)
	if err := store.Exec(context.Background(), `CREATE VIEW "vendor_sales_summary" AS SELECT 1 AS x`); err != nil {
		t.Fatalf("Failed to create view: %v", err)
	}

	report, _, err := runPipeline(t, store, Options{StrictLoad: true})
	var stageErr *StageError
	if !errors.As(err, &stageErr) {
		t.Fatalf("Run returned %v, want *StageError", err)
	}
	if stageErr.Stage != StageLoad {
		t.Errorf("Stage = %s, want %s", stageErr.Stage, StageLoad)
	}
	if report.LoadErr == nil {
		t.Error("LoadErr is nil")
	}
}

func TestPipelineAggregateFailure(t *testing.T) {
	store := testutil.OpenSQLite(t)

	_, _, err := runPipeline(t, store, Options{})
	var stageErr *StageError
	if !errors.As(err, &stageErr) {
		t.Fatalf("Run returned %v, want *StageError", err)
	}
	if stageErr.Stage != StageAggregate {
		t.Errorf("Stage = %s, want %s", stageErr.Stage, StageAggregate)
	}

	exists, err := db.TableExists(context.Background(), store, DefaultTable)
	if err != nil {
		t.Fatalf("TableExists failed: %v", err)
	}
	if exists {
		t.Error("summary table must not be written when aggregation fails")
	}
}

func TestPipelineReplacesPreviousRun(t *testing.T) {
	store := testutil.OpenSQLite(t)
	inv := sampleInventory()
	inv.write(t, store)

	if _, _, err := runPipeline(t, store, Options{Table: "summary_copy"}); err != nil {
		t.Fatalf("first Run failed: %v", err)
	}

	inv.purchases = inv.purchases[:1]
	inv.write(t, store)
	if _, _, err := runPipeline(t, store, Options{Table: "summary_copy"}); err != nil {
		t.Fatalf("second Run failed: %v", err)
	}

	n, err := db.CountRows(context.Background(), store, "summary_copy")
	if err != nil {
		t.Fatalf("CountRows failed: %v", err)
	}
	if n != 1 {
		t.Errorf("summary_copy has %d rows, want 1", n)
	}
}
