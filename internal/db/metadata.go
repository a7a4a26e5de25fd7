//-------------------------------------------------------------------------
//
// pgEdge Vendor Summary
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package db

import (
	"context"
	"fmt"
	"sort"
)

const metadataTable = "vendorsummary_metadata"

// createMetadataTableSQL creates the metadata table if it doesn't exist.
const createMetadataTableSQL = `
CREATE TABLE IF NOT EXISTS "vendorsummary_metadata" (
    "key"   TEXT PRIMARY KEY,
    "value" TEXT NOT NULL
)`

// SaveMetadata upserts the given key/value pairs.
func SaveMetadata(ctx context.Context, store Store, values map[string]string) error {
	if err := store.Exec(ctx, createMetadataTableSQL); err != nil {
		return fmt.Errorf("failed to create metadata table: %w", err)
	}

	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		err := store.Exec(ctx, `
            INSERT INTO "vendorsummary_metadata" ("key", "value") VALUES (?, ?)
            ON CONFLICT ("key") DO UPDATE SET "value" = EXCLUDED."value"
        `, key, values[key])
		if err != nil {
			return fmt.Errorf("failed to save metadata %s: %w", key, err)
		}
	}

	return nil
}

// GetMetadataValue retrieves a single metadata value by key. The second
// return value is false when the key (or the table) does not exist.
func GetMetadataValue(ctx context.Context, store Store, key string) (string, bool, error) {
	exists, err := TableExists(ctx, store, metadataTable)
	if err != nil || !exists {
		return "", false, err
	}

	var (
		value string
		found bool
	)
	err = store.Query(ctx, `
        SELECT "value" FROM "vendorsummary_metadata" WHERE "key" = ?
    `, func(s Scanner) error {
		found = true
		return s.Scan(&value)
	}, key)
	if err != nil {
		return "", false, err
	}
	return value, found, nil
}

// GetAllMetadata retrieves all metadata as a map.
func GetAllMetadata(ctx context.Context, store Store) (map[string]string, error) {
	metadata := make(map[string]string)

	exists, err := TableExists(ctx, store, metadataTable)
	if err != nil || !exists {
		return metadata, err
	}

	err = store.Query(ctx, `SELECT "key", "value" FROM "vendorsummary_metadata"`, func(s Scanner) error {
		var key, value string
		if err := s.Scan(&key, &value); err != nil {
			return err
		}
		metadata[key] = value
		return nil
	})
	return metadata, err
}

// DropMetadata drops the metadata table.
func DropMetadata(ctx context.Context, store Store) error {
	return store.Exec(ctx, DropTableSQL(metadataTable))
}
