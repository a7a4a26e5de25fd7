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
	"math"
	"strings"

	"github.com/pgEdge/pgedge-vendorsummary/internal/logging"
)

// cancelCheckInterval is how many rows are transformed between context checks.
const cancelCheckInterval = 4096

// Transform cleans the aggregate rows and derives the financial metrics.
//
// Volume is cast to a number where possible and kept as text otherwise.
// Every remaining NULL becomes zero ("0" for text columns) and VendorName is
// trimmed. Only ProfitMargin replaces infinities; StockTurnOver and
// SalestoPurchaseRatio keep whatever IEEE value the division produces.
func Transform(ctx context.Context, in []AggregateRow, log *logging.Logger) ([]Row, error) {
	out := make([]Row, len(in))
	for i := range in {
		if i%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				log.Error().
					Err(err).
					Int("row", i).
					Msg("Error cleaning data")
				return nil, err
			}
		}
		out[i] = transformRow(in[i])
	}

	log.Info().
		Int("rows", len(out)).
		Msg("Data cleaned successfully")

	return out, nil
}

func transformRow(a AggregateRow) Row {
	r := Row{
		VendorNumber:          ParseCode(a.VendorNumber),
		VendorName:            strings.TrimSpace(textOrZero(a.VendorName)),
		Brand:                 ParseCode(a.Brand),
		Description:           textOrZero(a.Description),
		PurchasePrice:         floatOrZero(a.PurchasePrice),
		ActualPrice:           floatOrZero(a.ActualPrice),
		Volume:                ParseVolume(a.Volume),
		TotalPurchaseQuantity: floatOrZero(a.TotalPurchaseQuantity),
		TotalPurchaseDollars:  floatOrZero(a.TotalPurchaseDollars),
		TotalSalesQuantity:    floatOrZero(a.TotalSalesQuantity),
		TotalSalesDollars:     floatOrZero(a.TotalSalesDollars),
		TotalSalesPrice:       floatOrZero(a.TotalSalesPrice),
		TotalExciseTax:        floatOrZero(a.TotalExciseTax),
		TotalFreightCost:      floatOrZero(a.TotalFreightCost),
	}

	r.GrossProfit = r.TotalSalesDollars - r.TotalPurchaseDollars
	r.ProfitMargin = r.GrossProfit / r.TotalSalesDollars * 100
	if math.IsInf(r.ProfitMargin, 0) {
		r.ProfitMargin = 0
	}
	r.StockTurnOver = r.TotalSalesQuantity / r.TotalPurchaseQuantity
	r.SalestoPurchaseRatio = r.TotalSalesDollars / r.TotalPurchaseDollars

	return r
}

func floatOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

// textOrZero fills a NULL text value with the zero sentinel.
func textOrZero(v *string) string {
	if v == nil {
		return "0"
	}
	return *v
}
