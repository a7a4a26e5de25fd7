//-------------------------------------------------------------------------
//
// pgEdge Vendor Summary
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package summary

import (
	"math"
	"strconv"
	"strings"

	"github.com/pgEdge/pgedge-vendorsummary/internal/db"
)

// DefaultTable is the destination table written by the pipeline.
const DefaultTable = "vendor_sales_summary"

// DefaultBatchSize is the number of rows written per insert batch.
const DefaultBatchSize = 5000

// AggregateRow is one row of the aggregate query. Every column may be NULL:
// sales and freight come from outer joins, and the source tables allow
// NULLs everywhere.
type AggregateRow struct {
	VendorNumber          *string
	VendorName            *string
	Brand                 *string
	Description           *string
	PurchasePrice         *float64
	ActualPrice           *float64
	Volume                *string
	TotalPurchaseQuantity *float64
	TotalPurchaseDollars  *float64
	TotalSalesQuantity    *float64
	TotalSalesDollars     *float64
	TotalSalesPrice       *float64
	TotalExciseTax        *float64
	TotalFreightCost      *float64
}

// scanTargets returns the scan destinations in query column order.
func (r *AggregateRow) scanTargets() []any {
	return []any{
		&r.VendorNumber,
		&r.VendorName,
		&r.Brand,
		&r.Description,
		&r.PurchasePrice,
		&r.ActualPrice,
		&r.Volume,
		&r.TotalPurchaseQuantity,
		&r.TotalPurchaseDollars,
		&r.TotalSalesQuantity,
		&r.TotalSalesDollars,
		&r.TotalSalesPrice,
		&r.TotalExciseTax,
		&r.TotalFreightCost,
	}
}

// Code is a vendor number or brand code. Codes that parse as integers are
// kept as int64; anything else, such as "A12", keeps its text.
type Code struct {
	Int     int64
	Text    string
	Numeric bool
}

// NumericCode returns an integer Code.
func NumericCode(v int64) Code {
	return Code{Int: v, Numeric: true}
}

// TextCode returns a text Code.
func TextCode(s string) Code {
	return Code{Text: s}
}

// ParseCode casts raw text to a Code. A NULL code becomes 0.
func ParseCode(raw *string) Code {
	if raw == nil {
		return NumericCode(0)
	}
	if v, err := strconv.ParseInt(strings.TrimSpace(*raw), 10, 64); err == nil {
		return NumericCode(v)
	}
	// Integer-valued REALs come back from the text cast as "1001.0".
	if f, err := strconv.ParseFloat(strings.TrimSpace(*raw), 64); err == nil && f == math.Trunc(f) &&
		math.Abs(f) < 1<<53 {
		return NumericCode(int64(f))
	}
	return TextCode(*raw)
}

// String formats the code.
func (c Code) String() string {
	if c.Numeric {
		return strconv.FormatInt(c.Int, 10)
	}
	return c.Text
}

// value returns the code as a storable value.
func (c Code) value() any {
	if c.Numeric {
		return c.Int
	}
	return c.Text
}

// Volume is a bottle volume. Values that parse as numbers are kept as
// float64; anything else keeps its original text.
type Volume struct {
	Value   float64
	Text    string
	Numeric bool
}

// NumericVolume returns a numeric Volume.
func NumericVolume(v float64) Volume {
	return Volume{Value: v, Numeric: true}
}

// ParseVolume casts raw text to a Volume. A NULL volume becomes 0.
func ParseVolume(raw *string) Volume {
	if raw == nil {
		return NumericVolume(0)
	}
	if v, err := strconv.ParseFloat(strings.TrimSpace(*raw), 64); err == nil {
		return NumericVolume(v)
	}
	return Volume{Text: *raw}
}

// String formats the volume.
func (v Volume) String() string {
	if v.Numeric {
		return db.FormatFloat(v.Value)
	}
	return v.Text
}

// value returns the volume as a storable value.
func (v Volume) value() any {
	if v.Numeric {
		return v.Value
	}
	return v.Text
}

// Row is one row of the vendor sales summary.
type Row struct {
	VendorNumber          Code
	VendorName            string
	Brand                 Code
	Description           string
	PurchasePrice         float64
	ActualPrice           float64
	Volume                Volume
	TotalPurchaseQuantity float64
	TotalPurchaseDollars  float64
	TotalSalesQuantity    float64
	TotalSalesDollars     float64
	TotalSalesPrice       float64
	TotalExciseTax        float64
	TotalFreightCost      float64
	GrossProfit           float64
	ProfitMargin          float64
	StockTurnOver         float64
	SalestoPurchaseRatio  float64
}

// Values returns the row in ColumnNames order.
func (r Row) Values() []any {
	return []any{
		r.VendorNumber.value(),
		r.VendorName,
		r.Brand.value(),
		r.Description,
		r.PurchasePrice,
		r.ActualPrice,
		r.Volume.value(),
		r.TotalPurchaseQuantity,
		r.TotalPurchaseDollars,
		r.TotalSalesQuantity,
		r.TotalSalesDollars,
		r.TotalSalesPrice,
		r.TotalExciseTax,
		r.TotalFreightCost,
		r.GrossProfit,
		r.ProfitMargin,
		r.StockTurnOver,
		r.SalestoPurchaseRatio,
	}
}

// Indexes of the output columns whose type depends on the values.
const (
	vendorNumberColumn = 0
	brandColumn        = 2
	volumeColumn       = 6
)

var outputColumns = []db.Column{
	{Name: "VendorNumber", Type: db.TypeInteger},
	{Name: "VendorName", Type: db.TypeText},
	{Name: "Brand", Type: db.TypeInteger},
	{Name: "Description", Type: db.TypeText},
	{Name: "PurchasePrice", Type: db.TypeDouble},
	{Name: "ActualPrice", Type: db.TypeDouble},
	{Name: "Volume", Type: db.TypeDouble},
	{Name: "TotalPurchaseQuantity", Type: db.TypeDouble},
	{Name: "TotalPurchaseDollars", Type: db.TypeDouble},
	{Name: "TotalSalesQuantity", Type: db.TypeDouble},
	{Name: "TotalSalesDollars", Type: db.TypeDouble},
	{Name: "TotalSalesPrice", Type: db.TypeDouble},
	{Name: "TotalExciseTax", Type: db.TypeDouble},
	{Name: "TotalFreightCost", Type: db.TypeDouble},
	{Name: "GrossProfit", Type: db.TypeDouble},
	{Name: "ProfitMargin", Type: db.TypeDouble},
	{Name: "StockTurnOver", Type: db.TypeDouble},
	{Name: "SalestoPurchaseRatio", Type: db.TypeDouble},
}

// ColumnNames returns the output column names in table order.
func ColumnNames() []string {
	names := make([]string, len(outputColumns))
	for i, c := range outputColumns {
		names[i] = c.Name
	}
	return names
}

// Columns returns the output schema for rows. VendorNumber and Brand are
// integers and Volume is a double unless some row kept a non-numeric
// value, in which case that whole column is text.
func Columns(rows []Row) []db.Column {
	columns := make([]db.Column, len(outputColumns))
	copy(columns, outputColumns)
	for _, r := range rows {
		if !r.VendorNumber.Numeric {
			columns[vendorNumberColumn].Type = db.TypeText
		}
		if !r.Brand.Numeric {
			columns[brandColumn].Type = db.TypeText
		}
		if !r.Volume.Numeric {
			columns[volumeColumn].Type = db.TypeText
		}
	}
	return columns
}
