// Last.fm Recommender - Collaborative Filtering for Implicit Feedback
// Copyright 2026 alabarga
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/alabarga/last-fm-recommender-system

package database

import (
	"context"
	"fmt"
	"time"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS interactions (
		user_id VARCHAR NOT NULL,
		item_id VARCHAR NOT NULL,
		weight DOUBLE NOT NULL CHECK (weight >= 0),
		source VARCHAR NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_interactions_user ON interactions(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_interactions_source ON interactions(source)`,
}

// createTables creates the schema if it does not exist.
func (db *DB) createTables() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, stmt := range schemaStatements {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}
