//-------------------------------------------------------------------------
//
// pgEdge Vendor Summary
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package datagen

import (
	"context"
	"fmt"

	"github.com/pgEdge/pgedge-vendorsummary/internal/db"
)

// Source table names.
const (
	TablePurchases      = "purchases"
	TablePurchasePrices = "purchase_prices"
	TableSales          = "sales"
	TableVendorInvoice  = "vendor_invoice"
)

// SourceTables lists the inventory tables in creation order.
var SourceTables = []string{
	TablePurchasePrices,
	TablePurchases,
	TableSales,
	TableVendorInvoice,
}

// Column layouts of the inventory tables. Dates are ISO-8601 text.
var (
	PurchasesColumns = []db.Column{
		{Name: "InventoryId", Type: db.TypeText},
		{Name: "Store", Type: db.TypeInteger},
		{Name: "Brand", Type: db.TypeInteger},
		{Name: "Description", Type: db.TypeText},
		{Name: "Size", Type: db.TypeText},
		{Name: "VendorNumber", Type: db.TypeInteger},
		{Name: "VendorName", Type: db.TypeText},
		{Name: "PONumber", Type: db.TypeInteger},
		{Name: "PODate", Type: db.TypeText},
		{Name: "ReceivingDate", Type: db.TypeText},
		{Name: "InvoiceDate", Type: db.TypeText},
		{Name: "PayDate", Type: db.TypeText},
		{Name: "PurchasePrice", Type: db.TypeDouble},
		{Name: "Quantity", Type: db.TypeInteger},
		{Name: "Dollars", Type: db.TypeDouble},
		{Name: "Classification", Type: db.TypeInteger},
	}

	PurchasePricesColumns = []db.Column{
		{Name: "Brand", Type: db.TypeInteger},
		{Name: "Description", Type: db.TypeText},
		{Name: "Price", Type: db.TypeDouble},
		{Name: "Size", Type: db.TypeText},
		{Name: "Volume", Type: db.TypeText},
		{Name: "Classification", Type: db.TypeInteger},
		{Name: "PurchasePrice", Type: db.TypeDouble},
		{Name: "VendorNumber", Type: db.TypeInteger},
		{Name: "VendorName", Type: db.TypeText},
	}

	SalesColumns = []db.Column{
		{Name: "InventoryId", Type: db.TypeText},
		{Name: "Store", Type: db.TypeInteger},
		{Name: "Brand", Type: db.TypeInteger},
		{Name: "Description", Type: db.TypeText},
		{Name: "Size", Type: db.TypeText},
		{Name: "SalesQuantity", Type: db.TypeInteger},
		{Name: "SalesDollars", Type: db.TypeDouble},
		{Name: "SalesPrice", Type: db.TypeDouble},
		{Name: "SalesDate", Type: db.TypeText},
		{Name: "Volume", Type: db.TypeText},
		{Name: "Classification", Type: db.TypeInteger},
		{Name: "ExciseTax", Type: db.TypeDouble},
		{Name: "VendorNo", Type: db.TypeInteger},
		{Name: "VendorName", Type: db.TypeText},
	}

	VendorInvoiceColumns = []db.Column{
		{Name: "VendorNumber", Type: db.TypeInteger},
		{Name: "VendorName", Type: db.TypeText},
		{Name: "InvoiceDate", Type: db.TypeText},
		{Name: "PONumber", Type: db.TypeInteger},
		{Name: "PODate", Type: db.TypeText},
		{Name: "PayDate", Type: db.TypeText},
		{Name: "Quantity", Type: db.TypeInteger},
		{Name: "Dollars", Type: db.TypeDouble},
		{Name: "Freight", Type: db.TypeDouble},
		{Name: "Approval", Type: db.TypeText},
	}
)

// TableColumns returns the column layout of a source table.
func TableColumns(table string) ([]db.Column, error) {
	switch table {
	case TablePurchases:
		return PurchasesColumns, nil
	case TablePurchasePrices:
		return PurchasePricesColumns, nil
	case TableSales:
		return SalesColumns, nil
	case TableVendorInvoice:
		return VendorInvoiceColumns, nil
	default:
		return nil, fmt.Errorf("unknown source table: %s", table)
	}
}

// CreateSchema creates empty source tables, replacing any existing ones.
func CreateSchema(ctx context.Context, store db.Store) error {
	for _, table := range SourceTables {
		cols, _ := TableColumns(table)
		if _, err := store.ReplaceTable(ctx, table, cols, nil, 1, nil); err != nil {
			return fmt.Errorf("failed to create %s: %w", table, err)
		}
	}
	return nil
}

// DropSchema drops the source tables.
func DropSchema(ctx context.Context, store db.Store) error {
	for _, table := range SourceTables {
		if err := store.Exec(ctx, db.DropTableSQL(table)); err != nil {
			return fmt.Errorf("failed to drop %s: %w", table, err)
		}
	}
	return nil
}

// ExistingTables returns the source tables already present in the store.
func ExistingTables(ctx context.Context, store db.Store) ([]string, error) {
	var found []string
	for _, table := range SourceTables {
		exists, err := db.TableExists(ctx, store, table)
		if err != nil {
			return nil, err
		}
		if exists {
			found = append(found, table)
		}
	}
	return found, nil
}
