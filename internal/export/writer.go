//-------------------------------------------------------------------------
//
// pgEdge Vendor Summary
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/xuri/excelize/v2"
)

// Output formats.
const (
	FormatXLSX = "xlsx"
	FormatCSV  = "csv"
)

const (
	summarySheet = "Summary"
	dataSheet    = "Vendor Sales Summary"
)

// Write saves report to path in the given format.
func Write(report *Report, format, path string) error {
	switch format {
	case FormatXLSX:
		return WriteXLSX(report, path)
	case FormatCSV:
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", path, err)
		}
		if err := WriteCSV(report, f); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	default:
		return fmt.Errorf("unknown export format: %s", format)
	}
}

// WriteCSV writes a header row followed by one line per report row.
func WriteCSV(report *Report, w io.Writer) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(report.Columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	record := make([]string, len(report.Columns))
	for _, row := range report.Rows {
		for i, v := range row {
			record[i] = cellText(v)
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteXLSX writes a workbook with a summary sheet and a data sheet.
func WriteXLSX(report *Report, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return fmt.Errorf("failed to create summary sheet: %w", err)
	}
	if _, err := f.NewSheet(dataSheet); err != nil {
		return fmt.Errorf("failed to create data sheet: %w", err)
	}

	titleStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 14, Family: "Arial", Color: "#FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "left",
			Vertical:   "center",
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create title style: %w", err)
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Family: "Arial", Color: "#FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	if err := writeSummarySheet(f, report, titleStyle); err != nil {
		return err
	}
	if err := writeDataSheet(f, report, headerStyle); err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}

func writeSummarySheet(f *excelize.File, report *Report, titleStyle int) error {
	cells := [][]any{
		{"Vendor Sales Summary"},
		{"Table", report.Table},
		{"Generated At", report.GeneratedAt.Format("2006-01-02 15:04:05 MST")},
		{"Rows", len(report.Rows)},
		{"Vendors", report.Totals.Vendors},
		{"Brands", report.Totals.Brands},
		{"Total Purchase Dollars", report.Totals.PurchaseDollars},
		{"Total Sales Dollars", report.Totals.SalesDollars},
		{"Total Gross Profit", report.Totals.GrossProfit},
		{"Total Freight Cost", report.Totals.FreightCost},
	}
	for i, row := range cells {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write summary: %w", err)
		}
	}

	if err := f.MergeCell(summarySheet, "A1", "B1"); err != nil {
		return fmt.Errorf("failed to format summary: %w", err)
	}
	if err := f.SetCellStyle(summarySheet, "A1", "B1", titleStyle); err != nil {
		return fmt.Errorf("failed to format summary: %w", err)
	}
	return f.SetColWidth(summarySheet, "A", "B", 26)
}

func writeDataSheet(f *excelize.File, report *Report, headerStyle int) error {
	if err := f.SetSheetRow(dataSheet, "A1", &report.Columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	last, _ := excelize.CoordinatesToCellName(len(report.Columns), 1)
	if err := f.SetCellStyle(dataSheet, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("failed to format header: %w", err)
	}

	for i, row := range report.Rows {
		values := make([]any, len(row))
		for j, v := range row {
			values[j] = sheetValue(v)
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(dataSheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	lastCol, _ := excelize.ColumnNumberToName(len(report.Columns))
	if err := f.SetColWidth(dataSheet, "A", lastCol, 18); err != nil {
		return fmt.Errorf("failed to format data sheet: %w", err)
	}
	return f.SetPanes(dataSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

// sheetValue keeps finite numbers numeric; Inf and NaN have no cell
// representation and are written as text.
func sheetValue(v any) any {
	if n, ok := v.(float64); ok && (math.IsInf(n, 0) || math.IsNaN(n)) {
		return cellText(n)
	}
	return v
}
