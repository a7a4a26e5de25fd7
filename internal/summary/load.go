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

	"github.com/pgEdge/pgedge-vendorsummary/internal/db"
	"github.com/pgEdge/pgedge-vendorsummary/internal/logging"
)

// Load replaces table with rows, writing batchSize rows per batch. The
// table has no row-identity column.
func Load(ctx context.Context, store db.Store, table string, rows []Row, batchSize int,
	log *logging.Logger) (int64, error) {
	if batchSize < 1 {
		batchSize = DefaultBatchSize
	}

	columns := Columns(rows)
	values := make([][]any, len(rows))
	for i, r := range rows {
		values[i] = r.Values()
	}
	db.CoerceRows(columns, values)

	n, err := store.ReplaceTable(ctx, table, columns, values, batchSize, func(batch int, total int64) {
		log.Debug().
			Str("table", table).
			Int("batch", batch).
			Int64("rows", total).
			Msg("Batch written")
	})
	if err != nil {
		log.Error().
			Err(err).
			Str("table", table).
			Msg("Error while inserting table")
		return 0, err
	}

	log.Info().
		Str("table", table).
		Int64("rows", n).
		Str("volume_type", columns[volumeColumn].Type.String()).
		Msg("Successfully inserted table in batches")

	return n, nil
}
