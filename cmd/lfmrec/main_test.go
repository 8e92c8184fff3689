// Last.fm Recommender - Collaborative Filtering for Implicit Feedback
// Copyright 2026 alabarga
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/alabarga/last-fm-recommender-system

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/alabarga/last-fm-recommender-system/internal/recommend"
)

const sampleDat = "u1\ta\t5\nu2\ta\t5\nu2\tb\t5\nu3\tb\t2\nu3\tc\t8\n"

func writeSample(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "user_artists.dat")
	if err := os.WriteFile(path, []byte(sampleDat), 0o600); err != nil {
		t.Fatalf("write sample: %v", err)
	}
	return path
}

func runCLI(t *testing.T, args ...string) ([]byte, error) {
	t.Helper()
	var out bytes.Buffer
	err := run(context.Background(), append([]string{"lfmrec", "--log-level", "disabled"}, args...), &out)
	return out.Bytes(), err
}

func TestCLI_ImportTrainRecommend(t *testing.T) {
	input := writeSample(t)
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "log.duckdb")
	modelDir := filepath.Join(dir, "models")

	out, err := runCLI(t, "import", "--db", dbPath, input)
	if err != nil {
		t.Fatalf("import error = %v", err)
	}
	var imported struct {
		Imported int64 `json:"imported"`
	}
	if err := json.Unmarshal(out, &imported); err != nil {
		t.Fatalf("decode import output: %v", err)
	}
	if imported.Imported != 5 {
		t.Errorf("imported = %d, want 5", imported.Imported)
	}

	out, err = runCLI(t, "train", "--db", dbPath, "--model-dir", modelDir)
	if err != nil {
		t.Fatalf("train error = %v", err)
	}
	var summary trainSummary
	if err := json.Unmarshal(out, &summary); err != nil {
		t.Fatalf("decode train output: %v", err)
	}
	if summary.Version != 1 || summary.Users != 3 || summary.Items != 3 || summary.Interactions != 5 {
		t.Errorf("summary = %+v, want version 1 over 3 users, 3 items, 5 interactions", summary)
	}

	out, err = runCLI(t, "recommend", "--model-dir", modelDir, "--n", "5", "u1")
	if err != nil {
		t.Fatalf("recommend error = %v", err)
	}
	var rec struct {
		ModelVersion int                    `json:"model_version"`
		ExcludeSeen  bool                   `json:"exclude_seen"`
		Items        []recommend.ScoredItem `json:"items"`
	}
	if err := json.Unmarshal(out, &rec); err != nil {
		t.Fatalf("decode recommend output: %v", err)
	}
	if !rec.ExcludeSeen || rec.ModelVersion != 1 {
		t.Errorf("recommend = %+v, want version 1 excluding seen", rec)
	}
	for _, it := range rec.Items {
		if it.ID == "a" {
			t.Errorf("seen item a recommended: %+v", rec.Items)
		}
	}

	out, err = runCLI(t, "similar", "--model-dir", modelDir, "--n", "1", "a")
	if err != nil {
		t.Fatalf("similar error = %v", err)
	}
	var sim struct {
		Similar []recommend.ScoredItem `json:"similar"`
	}
	if err := json.Unmarshal(out, &sim); err != nil {
		t.Fatalf("decode similar output: %v", err)
	}
	if len(sim.Similar) != 1 || sim.Similar[0].ID != "b" {
		t.Errorf("similar(a) = %+v, want [b]", sim.Similar)
	}
}

func TestCLI_TrainFromInputBumpsVersion(t *testing.T) {
	input := writeSample(t)
	modelDir := t.TempDir()

	for want := 1; want <= 2; want++ {
		out, err := runCLI(t, "train", "--input", input, "--model-dir", modelDir, "--mode", "user")
		if err != nil {
			t.Fatalf("train #%d error = %v", want, err)
		}
		var summary trainSummary
		if err := json.Unmarshal(out, &summary); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if summary.Version != want || summary.Mode != recommend.ModeUserBased {
			t.Errorf("train #%d = version %d mode %s", want, summary.Version, summary.Mode)
		}
	}

	out, err := runCLI(t, "models", "--model-dir", modelDir)
	if err != nil {
		t.Fatalf("models error = %v", err)
	}
	var list []struct {
		Version int    `json:"version"`
		Mode    string `json:"mode"`
	}
	if err := json.Unmarshal(out, &list); err != nil {
		t.Fatalf("decode models output: %v", err)
	}
	if len(list) != 2 || list[0].Version != 2 || list[0].Mode != "user" {
		t.Errorf("models = %+v, want versions 2 and 1 in user mode, newest first", list)
	}
}

func TestCLI_TrainFromInputReplacesRows(t *testing.T) {
	input := writeSample(t)
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "log.duckdb")
	modelDir := filepath.Join(dir, "models")

	for run := 1; run <= 2; run++ {
		if _, err := runCLI(t, "train", "--db", dbPath, "--input", input, "--model-dir", modelDir); err != nil {
			t.Fatalf("train #%d error = %v", run, err)
		}
	}

	out, err := runCLI(t, "stats", "--db", dbPath)
	if err != nil {
		t.Fatalf("stats error = %v", err)
	}
	var stats struct {
		Rows  int64   `json:"rows"`
		Total float64 `json:"total_weight"`
	}
	if err := json.Unmarshal(out, &stats); err != nil {
		t.Fatalf("decode stats output: %v", err)
	}
	if stats.Rows != 5 || stats.Total != 25 {
		t.Errorf("stats = %+v, want 5 rows with total weight 25", stats)
	}
}

func TestCLI_Errors(t *testing.T) {
	emptyModels := t.TempDir()

	tests := []struct {
		name    string
		args    []string
		wantErr error
	}{
		{name: "import without file", args: []string{"import"}, wantErr: errMissingArg},
		{name: "recommend without user", args: []string{"recommend", "--model-dir", emptyModels}, wantErr: errMissingArg},
		{name: "recommend without model", args: []string{"recommend", "--model-dir", emptyModels, "u1"}, wantErr: recommend.ErrNotTrained},
		{name: "train on empty log", args: []string{"train", "--model-dir", emptyModels}, wantErr: recommend.ErrInsufficientData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCLI(t, tt.args...)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
