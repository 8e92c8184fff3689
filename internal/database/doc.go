// Last.fm Recommender - Collaborative Filtering for Implicit Feedback
// Copyright 2026 alabarga
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/alabarga/last-fm-recommender-system

// Package database stores the implicit-feedback interaction log in DuckDB.
//
// # Overview
//
// The interactions table holds raw (user_id, item_id, weight, source) rows.
// Rows arrive either through InsertInteractions, which validates each record
// with the shared validator, or through ImportFile, which bulk loads a
// delimited file with DuckDB's read_csv after checking every row.
//
// GetInteractions aggregates repeated (user, item) rows by summing their
// weights and returns them ordered by user and item, which makes the
// training input independent of insertion order.
//
// # Files
//
//   - database.go: connection lifecycle (open, configure, checkpoint, close)
//   - database_schema.go: table and index creation
//   - interactions.go: insert, import, aggregate reads and statistics
//   - provider.go: circuit-breaker protected recommend.DataProvider
//
// # Usage
//
//	db, err := database.New(&cfg.Database)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	n, err := db.ImportFile(ctx, "user_artists.dat", database.ImportOptions{Header: true})
//	engine.SetDataProvider(database.NewInteractionProvider(db, database.BreakerSettings{}))
package database
