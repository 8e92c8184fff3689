// Last.fm Recommender - Collaborative Filtering for Implicit Feedback
// Copyright 2026 alabarga
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/alabarga/last-fm-recommender-system

package database

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/alabarga/last-fm-recommender-system/internal/config"
	"github.com/alabarga/last-fm-recommender-system/internal/recommend"
)

// setupTestDB opens an in-memory database closed at test end.
func setupTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(&config.DatabaseConfig{Path: "", Threads: 1, BreakerFailures: 3})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})
	return db
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestNew_OnDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "test.duckdb")
	db, err := New(&config.DatabaseConfig{Path: path, MaxMemory: "256MB"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := db.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("database file not created: %v", err)
	}
}

func TestInsertInteractions_AggregatesAndOrders(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	records := []recommend.InteractionRecord{
		{UserID: "u2", ItemID: "b", Weight: 1},
		{UserID: "u1", ItemID: "a", Weight: 3},
		{UserID: "u2", ItemID: "a", Weight: 5},
		{UserID: "u2", ItemID: "b", Weight: 4},
	}
	n, err := db.InsertInteractions(ctx, records, "test")
	if err != nil {
		t.Fatalf("InsertInteractions() error = %v", err)
	}
	if n != 4 {
		t.Errorf("inserted = %d, want 4", n)
	}

	got, err := db.GetInteractions(ctx)
	if err != nil {
		t.Fatalf("GetInteractions() error = %v", err)
	}
	want := []recommend.InteractionRecord{
		{UserID: "u1", ItemID: "a", Weight: 3},
		{UserID: "u2", ItemID: "a", Weight: 5},
		{UserID: "u2", ItemID: "b", Weight: 5},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d records, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("record %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestInsertInteractions_InvalidRecord(t *testing.T) {
	tests := []struct {
		name   string
		record recommend.InteractionRecord
		field  string
	}{
		{"blank user", recommend.InteractionRecord{UserID: "  ", ItemID: "a", Weight: 1}, "user_id"},
		{"empty item", recommend.InteractionRecord{UserID: "u1", ItemID: "", Weight: 1}, "item_id"},
		{"negative weight", recommend.InteractionRecord{UserID: "u1", ItemID: "a", Weight: -1}, "weight"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := setupTestDB(t)
			ctx := context.Background()
			records := []recommend.InteractionRecord{{UserID: "ok", ItemID: "ok", Weight: 1}, tt.record}

			_, err := db.InsertInteractions(ctx, records, "test")
			var ve *recommend.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("error = %v, want *recommend.ValidationError", err)
			}
			if ve.Field != tt.field || ve.Index != 1 {
				t.Errorf("ValidationError = %+v, want field %q index 1", ve, tt.field)
			}

			stats, err := db.Stats(ctx)
			if err != nil {
				t.Fatalf("Stats() error = %v", err)
			}
			if stats.Rows != 0 {
				t.Errorf("rows after rejected batch = %d, want 0", stats.Rows)
			}
		})
	}
}

func TestImportFile(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		content  string
		opts     ImportOptions
		wantRows int64
	}{
		{
			name:     "lastfm dat with header",
			file:     "user_artists.dat",
			content:  "userID\tartistID\tweight\n2\t51\t13883\n2\t52\t11690\n3\t51\t228\n",
			opts:     ImportOptions{Header: true},
			wantRows: 3,
		},
		{
			name:     "csv without header",
			file:     "plays.csv",
			content:  "u1,a,5\nu2,a,5\nu2,b,5\n",
			wantRows: 3,
		},
		{
			name:     "explicit delimiter",
			file:     "plays.txt",
			content:  "u1;a;2.5\n",
			opts:     ImportOptions{Delimiter: ";"},
			wantRows: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := setupTestDB(t)
			ctx := context.Background()
			path := writeFile(t, tt.file, tt.content)

			n, err := db.ImportFile(ctx, path, tt.opts)
			if err != nil {
				t.Fatalf("ImportFile() error = %v", err)
			}
			if n != tt.wantRows {
				t.Errorf("ImportFile() rows = %d, want %d", n, tt.wantRows)
			}

			records, err := db.GetInteractions(ctx)
			if err != nil {
				t.Fatalf("GetInteractions() error = %v", err)
			}
			if int64(len(records)) != tt.wantRows {
				t.Errorf("GetInteractions() = %d records, want %d", len(records), tt.wantRows)
			}
		})
	}
}

func TestImportFile_RejectsInvalidRows(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	path := writeFile(t, "bad.csv", "u1,a,5\n,b,1\nu2,c,-3\n")

	_, err := db.ImportFile(ctx, path, ImportOptions{})
	if !errors.Is(err, ErrInvalidRows) {
		t.Fatalf("ImportFile() error = %v, want ErrInvalidRows", err)
	}

	stats, err := db.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.Rows != 0 {
		t.Errorf("rows after rejected import = %d, want 0", stats.Rows)
	}
}

func TestImportFile_MissingFile(t *testing.T) {
	db := setupTestDB(t)
	if _, err := db.ImportFile(context.Background(), filepath.Join(t.TempDir(), "nope.csv"), ImportOptions{}); err == nil {
		t.Fatal("ImportFile() should fail for a missing file")
	}
}

func TestStatsAndDelete(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	if _, err := db.InsertInteractions(ctx, []recommend.InteractionRecord{
		{UserID: "u1", ItemID: "a", Weight: 1},
		{UserID: "u1", ItemID: "b", Weight: 2},
	}, "first"); err != nil {
		t.Fatalf("InsertInteractions() error = %v", err)
	}
	if _, err := db.InsertInteractions(ctx, []recommend.InteractionRecord{
		{UserID: "u2", ItemID: "a", Weight: 4},
	}, "second"); err != nil {
		t.Fatalf("InsertInteractions() error = %v", err)
	}

	stats, err := db.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	want := InteractionStats{Rows: 3, Users: 2, Items: 2, Total: 7}
	if stats != want {
		t.Errorf("Stats() = %+v, want %+v", stats, want)
	}

	deleted, err := db.DeleteInteractions(ctx, "first")
	if err != nil {
		t.Fatalf("DeleteInteractions() error = %v", err)
	}
	if deleted != 2 {
		t.Errorf("deleted = %d, want 2", deleted)
	}

	deleted, err = db.DeleteInteractions(ctx, "")
	if err != nil {
		t.Fatalf("DeleteInteractions() error = %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}
}

func TestGetInteractions_Empty(t *testing.T) {
	db := setupTestDB(t)
	records, err := db.GetInteractions(context.Background())
	if err != nil {
		t.Fatalf("GetInteractions() error = %v", err)
	}
	if len(records) != 0 {
		t.Errorf("GetInteractions() = %v, want empty", records)
	}
}

func TestGetInteractions_Cancelled(t *testing.T) {
	db := setupTestDB(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := db.GetInteractions(ctx); err == nil {
		t.Fatal("GetInteractions() should fail with a cancelled context")
	}
}

func TestQuoteLiteral(t *testing.T) {
	tests := []struct{ in, want string }{
		{"plain", "'plain'"},
		{"it's", "'it''s'"},
		{"", "''"},
	}
	for _, tt := range tests {
		if got := quoteLiteral(tt.in); got != tt.want {
			t.Errorf("quoteLiteral(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
