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
	"context"
	"fmt"

	"github.com/pgEdge/pgedge-vendorsummary/internal/db"
	"github.com/pgEdge/pgedge-vendorsummary/internal/logging"
)

// aggregateSQL builds one summary row per purchase group. Purchases are
// grouped by every selected column so the query is valid under strict
// GROUP BY rules; sales and freight are outer-joined so every purchase
// group survives. Aggregates are cast to double precision (REAL affinity
// in SQLite) and the codes and Volume to text so both backends scan the
// same Go types whatever the source column types are.
const aggregateSQL = `
WITH "FreightSummary" AS (
    SELECT
        vi."VendorNumber",
        CAST(SUM(vi."Freight") AS DOUBLE PRECISION) AS "TotalFreightCost"
    FROM "vendor_invoice" vi
    GROUP BY vi."VendorNumber"
),

"PurchaseSummary" AS (
    SELECT
        p."VendorNumber",
        p."VendorName",
        p."Brand",
        p."Description",
        p."PurchasePrice",
        pp."Price" AS "ActualPrice",
        pp."Volume",
        CAST(SUM(p."Quantity") AS DOUBLE PRECISION) AS "TotalPurchaseQuantity",
        CAST(SUM(p."Dollars") AS DOUBLE PRECISION) AS "TotalPurchaseDollars"
    FROM "purchases" p
    JOIN "purchase_prices" pp
        ON p."Brand" = pp."Brand"
    WHERE p."PurchasePrice" > 0
    GROUP BY p."VendorNumber", p."VendorName", p."Brand", p."Description",
        p."PurchasePrice", pp."Price", pp."Volume"
),

"SalesSummary" AS (
    SELECT
        s."VendorNo",
        s."Brand",
        CAST(SUM(s."SalesDollars") AS DOUBLE PRECISION) AS "TotalSalesDollars",
        CAST(SUM(s."SalesPrice") AS DOUBLE PRECISION) AS "TotalSalesPrice",
        CAST(SUM(s."SalesQuantity") AS DOUBLE PRECISION) AS "TotalSalesQuantity",
        CAST(SUM(s."ExciseTax") AS DOUBLE PRECISION) AS "TotalExciseTax"
    FROM "sales" s
    GROUP BY s."VendorNo", s."Brand"
)

SELECT
    CAST(ps."VendorNumber" AS TEXT),
    ps."VendorName",
    CAST(ps."Brand" AS TEXT),
    ps."Description",
    CAST(ps."PurchasePrice" AS DOUBLE PRECISION),
    CAST(ps."ActualPrice" AS DOUBLE PRECISION),
    CAST(ps."Volume" AS TEXT),
    ps."TotalPurchaseQuantity",
    ps."TotalPurchaseDollars",
    ss."TotalSalesQuantity",
    ss."TotalSalesDollars",
    ss."TotalSalesPrice",
    ss."TotalExciseTax",
    fs."TotalFreightCost"
FROM "PurchaseSummary" ps
LEFT JOIN "SalesSummary" ss
    ON ps."VendorNumber" = ss."VendorNo"
    AND ps."Brand" = ss."Brand"
LEFT JOIN "FreightSummary" fs
    ON ps."VendorNumber" = fs."VendorNumber"
ORDER BY ps."TotalPurchaseDollars" DESC, ps."VendorNumber", ps."Brand"
`

// Aggregate runs the vendor summary query and returns its rows ordered by
// TotalPurchaseDollars descending. Ties are broken by vendor number and
// brand. On error nothing is returned.
func Aggregate(ctx context.Context, store db.Store, log *logging.Logger) ([]AggregateRow, error) {
	var rows []AggregateRow
	err := store.Query(ctx, aggregateSQL, func(s db.Scanner) error {
		var r AggregateRow
		if err := s.Scan(r.scanTargets()...); err != nil {
			return fmt.Errorf("failed to scan summary row: %w", err)
		}
		rows = append(rows, r)
		return nil
	})
	if err != nil {
		log.Error().
			Err(err).
			Msg("Error creating vendor summary")
		return nil, err
	}

	log.Info().
		Int("rows", len(rows)).
		Msg("Vendor summary created successfully")

	return rows, nil
}
