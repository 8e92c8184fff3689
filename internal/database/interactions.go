// Last.fm Recommender - Collaborative Filtering for Implicit Feedback
// Copyright 2026 alabarga
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/alabarga/last-fm-recommender-system

package database

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/alabarga/last-fm-recommender-system/internal/logging"
	"github.com/alabarga/last-fm-recommender-system/internal/metrics"
	"github.com/alabarga/last-fm-recommender-system/internal/recommend"
	"github.com/alabarga/last-fm-recommender-system/internal/validation"
)

// ImportOptions controls how a delimited interaction file is read.
type ImportOptions struct {
	// Delimiter separates columns. Empty selects tab for .dat and .tsv
	// files and comma otherwise.
	Delimiter string

	// Header reports whether the first line holds column names.
	Header bool

	// Source is stored with every imported row. Empty uses the file name.
	Source string
}

// InteractionStats summarises the stored interaction log.
type InteractionStats struct {
	Rows  int64   `json:"rows"`
	Users int64   `json:"users"`
	Items int64   `json:"items"`
	Total float64 `json:"total_weight"`
}

// InsertInteractions validates and inserts records in one transaction. A
// single invalid record aborts the whole batch.
func (db *DB) InsertInteractions(ctx context.Context, records []recommend.InteractionRecord, source string) (n int, err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("insert_interactions", time.Since(start), err) }()

	for i := range records {
		if verr := validation.ValidateStruct(&records[i]); verr != nil {
			field := verr.Fields[0]
			return 0, &recommend.ValidationError{Field: field.Field, Index: i, Reason: field.Message}
		}
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback() //nolint:errcheck // rollback after failure
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO interactions (user_id, item_id, weight, source) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer closeWithLog(stmt, "prepared statement")

	for i := range records {
		r := &records[i]
		if _, err = stmt.ExecContext(ctx, r.UserID, r.ItemID, r.Weight, source); err != nil {
			return 0, fmt.Errorf("insert record %d: %w", i, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return len(records), nil
}

// ImportFile loads a delimited user,item,weight file such as Last.fm's
// user_artists.dat. The file is checked before anything is inserted.
func (db *DB) ImportFile(ctx context.Context, path string, opts ImportOptions) (n int64, err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("import_file", time.Since(start), err) }()

	delim := opts.Delimiter
	if delim == "" {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".dat", ".tsv":
			delim = "\t"
		default:
			delim = ","
		}
	}
	source := opts.Source
	if source == "" {
		source = filepath.Base(path)
	}

	reader := fmt.Sprintf(
		"read_csv(%s, delim=%s, header=%t, columns={'user_id': 'VARCHAR', 'item_id': 'VARCHAR', 'weight': 'DOUBLE'})",
		quoteLiteral(path), quoteLiteral(delim), opts.Header,
	)

	var invalid int64
	checkQuery := `SELECT COUNT(*) FROM ` + reader + `
		WHERE user_id IS NULL OR trim(user_id) = ''
		   OR item_id IS NULL OR trim(item_id) = ''
		   OR weight IS NULL OR isnan(weight) OR isinf(weight) OR weight < 0`
	if err = db.conn.QueryRowContext(ctx, checkQuery).Scan(&invalid); err != nil {
		return 0, fmt.Errorf("read %s: %w", path, err)
	}
	if invalid > 0 {
		return 0, fmt.Errorf("%w: %d rows in %s", ErrInvalidRows, invalid, path)
	}

	result, err := db.conn.ExecContext(ctx,
		`INSERT INTO interactions (user_id, item_id, weight, source)
		 SELECT user_id, item_id, weight, ? FROM `+reader, source)
	if err != nil {
		return 0, fmt.Errorf("import %s: %w", path, err)
	}
	n, err = result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}

	logging.Info().Str("path", path).Int64("rows", n).Msg("Imported interactions")
	return n, nil
}

// GetInteractions returns one record per (user, item) pair with weights of
// repeated rows summed, ordered by user then item. It implements
// recommend.DataProvider.
func (db *DB) GetInteractions(ctx context.Context) (records []recommend.InteractionRecord, err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("get_interactions", time.Since(start), err) }()

	rows, err := db.conn.QueryContext(ctx, `
		SELECT user_id, item_id, SUM(weight) AS weight
		FROM interactions
		GROUP BY user_id, item_id
		ORDER BY user_id, item_id`)
	if err != nil {
		return nil, fmt.Errorf("query interactions: %w", err)
	}
	defer closeWithLog(rows, "rows")

	for rows.Next() {
		var r recommend.InteractionRecord
		if err = rows.Scan(&r.UserID, &r.ItemID, &r.Weight); err != nil {
			return nil, fmt.Errorf("scan interaction: %w", err)
		}
		records = append(records, r)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate interactions: %w", err)
	}
	return records, nil
}

// Stats returns row, user and item counts of the interaction log.
func (db *DB) Stats(ctx context.Context) (InteractionStats, error) {
	var s InteractionStats
	err := db.conn.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(DISTINCT user_id), COUNT(DISTINCT item_id), COALESCE(SUM(weight), 0)
		FROM interactions`).Scan(&s.Rows, &s.Users, &s.Items, &s.Total)
	if err != nil {
		return InteractionStats{}, fmt.Errorf("query stats: %w", err)
	}
	return s, nil
}

// DeleteInteractions removes every row, or only rows from source when
// source is non-empty. It returns the number of deleted rows.
func (db *DB) DeleteInteractions(ctx context.Context, source string) (int64, error) {
	query := `DELETE FROM interactions`
	var args []interface{}
	if source != "" {
		query += ` WHERE source = ?`
		args = append(args, source)
	}
	result, err := db.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("delete interactions: %w", err)
	}
	return result.RowsAffected()
}
