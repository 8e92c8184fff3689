// Last.fm Recommender - Collaborative Filtering for Implicit Feedback
// Copyright 2026 alabarga
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/alabarga/last-fm-recommender-system

package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/alabarga/last-fm-recommender-system/internal/config"
	"github.com/alabarga/last-fm-recommender-system/internal/logging"
)

// DB wraps the DuckDB connection holding the interaction log.
type DB struct {
	conn *sql.DB
	cfg  *config.DatabaseConfig
}

// New opens the database described by cfg and creates the schema. An empty
// cfg.Path opens an in-memory database.
func New(cfg *config.DatabaseConfig) (*DB, error) {
	if cfg.Path != "" {
		// 0750 per gosec G301
		dbDir := filepath.Dir(cfg.Path)
		if dbDir != "" && dbDir != "." {
			if err := os.MkdirAll(dbDir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create database directory %s: %w", dbDir, err)
			}
		}
	}

	conn, err := sql.Open("duckdb", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := &DB{conn: conn, cfg: cfg}

	if err := db.configure(); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to configure database: %w", err)
	}

	if err := db.createTables(); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return db, nil
}

// configure applies database-wide settings.
func (db *DB) configure() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if db.cfg.Threads > 0 {
		if _, err := db.conn.ExecContext(ctx, fmt.Sprintf("SET threads = %d", db.cfg.Threads)); err != nil {
			return fmt.Errorf("set threads: %w", err)
		}
	}
	if db.cfg.MaxMemory != "" {
		if _, err := db.conn.ExecContext(ctx, "SET memory_limit = "+quoteLiteral(db.cfg.MaxMemory)); err != nil {
			return fmt.Errorf("set memory_limit: %w", err)
		}
	}
	return nil
}

// Conn returns the underlying SQL database connection.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Close checkpoints and closes the database.
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}
	if db.cfg.Path != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if _, err := db.conn.ExecContext(ctx, "CHECKPOINT"); err != nil {
			logging.Warn().Err(err).Msg("Failed to checkpoint database before close")
		}
		cancel()
	}
	return db.conn.Close()
}

// Ping checks if the database connection is alive
func (db *DB) Ping(ctx context.Context) error {
	if db.conn == nil {
		return fmt.Errorf("database connection is nil")
	}
	return db.conn.PingContext(ctx)
}
