// Last.fm Recommender - Collaborative Filtering for Implicit Feedback
// Copyright 2026 alabarga
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/alabarga/last-fm-recommender-system

package recommend

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/rs/zerolog"
)

func mustPredict(t *testing.T, m *InteractionMatrix, mode Mode, diag *Diagnostics) *PredictionMatrix {
	t.Helper()
	sim := mustSimilarity(t, m, mode.Axis(), diag)
	p, err := NewPredictionEngine(SimilarityConfig{NumWorkers: 2, BlockSize: 1}, zerolog.Nop()).
		Predict(context.Background(), m, sim, mode, diag)
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	return p
}

func TestPredict_ItemBased(t *testing.T) {
	m := mustBuild(t, scenarioRecords())
	p := mustPredict(t, m, ModeItemBased, nil)

	// s(a,b) = 1/√2, Σ|s| = 1 + 1/√2 for both items.
	tests := []struct {
		user, item string
		want       float64
	}{
		{"u1", "a", 10 - 5*math.Sqrt2},
		{"u1", "b", 5 * (math.Sqrt2 - 1)},
		{"u2", "a", 5},
		{"u2", "b", 5},
	}
	for _, tt := range tests {
		u, _ := p.Users().Lookup(tt.user)
		i, _ := p.Items().Lookup(tt.item)
		if got := p.At(u, i); !approxEqual(got, tt.want) {
			t.Errorf("pred[%s, %s] = %v, want %v", tt.user, tt.item, got, tt.want)
		}
	}
}

func TestPredict_UserBased(t *testing.T) {
	m := mustBuild(t, scenarioRecords())
	p := mustPredict(t, m, ModeUserBased, nil)

	// means: u1 = 2.5, u2 = 5; s(u1,u2) = 1/√2.
	tests := []struct {
		user, item string
		want       float64
	}{
		{"u1", "a", 7.5 - 2.5*math.Sqrt2},
		{"u1", "b", 2.5*math.Sqrt2 - 2.5},
		{"u2", "a", 2.5 + 2.5*math.Sqrt2},
		{"u2", "b", 7.5 - 2.5*math.Sqrt2},
	}
	for _, tt := range tests {
		u, _ := p.Users().Lookup(tt.user)
		i, _ := p.Items().Lookup(tt.item)
		if got := p.At(u, i); !approxEqual(got, tt.want) {
			t.Errorf("pred[%s, %s] = %v, want %v", tt.user, tt.item, got, tt.want)
		}
	}
}

func TestPredict_FiniteWithDegenerateRows(t *testing.T) {
	records := append(randomishRecords(12, 9),
		InteractionRecord{UserID: "silent", ItemID: "artist000", Weight: 0},
		InteractionRecord{UserID: "user000", ItemID: "unplayed", Weight: 0},
	)
	m := mustBuild(t, records)

	for _, mode := range []Mode{ModeItemBased, ModeUserBased} {
		t.Run(string(mode), func(t *testing.T) {
			diag := &Diagnostics{}
			p := mustPredict(t, m, mode, diag)
			for _, v := range p.Values() {
				if math.IsNaN(v) || math.IsInf(v, 0) {
					t.Fatalf("non-finite prediction %v", v)
				}
			}
			if diag.Snapshot().ZeroNormVectors != 1 {
				t.Errorf("ZeroNormVectors = %d, want 1", diag.Snapshot().ZeroNormVectors)
			}
		})
	}
}

func TestPredict_ZeroVectorUser(t *testing.T) {
	records := append(scenarioRecords(), InteractionRecord{UserID: "u3", ItemID: "a", Weight: 0})
	m := mustBuild(t, records)
	p := mustPredict(t, m, ModeUserBased, nil)

	u3, _ := p.Users().Lookup("u3")
	for i, v := range p.Row(u3) {
		if v != 0 {
			t.Errorf("pred[u3, %s] = %v, want 0", p.Items().ID(i), v)
		}
	}
}

func TestPredict_DimensionMismatch(t *testing.T) {
	m := mustBuild(t, scenarioRecords())
	other := mustBuild(t, []InteractionRecord{
		{UserID: "u1", ItemID: "a", Weight: 1},
		{UserID: "u2", ItemID: "b", Weight: 1},
	})
	engine := NewPredictionEngine(SimilarityConfig{BlockSize: 4}, zerolog.Nop())

	tests := []struct {
		name string
		sim  *SimilarityMatrix
		mode Mode
	}{
		{name: "wrong axis", sim: mustSimilarity(t, m, AxisUser, nil), mode: ModeItemBased},
		{name: "different build", sim: mustSimilarity(t, other, AxisItem, nil), mode: ModeItemBased},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := engine.Predict(context.Background(), m, tt.sim, tt.mode, nil)
			var de *DimensionError
			if !errors.As(err, &de) {
				t.Errorf("error = %v, want *DimensionError", err)
			}
		})
	}
}

func TestPredict_Cancelled(t *testing.T) {
	m := mustBuild(t, scenarioRecords())
	sim := mustSimilarity(t, m, AxisItem, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewPredictionEngine(SimilarityConfig{BlockSize: 1}, zerolog.Nop()).Predict(ctx, m, sim, ModeItemBased, nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestPredict_Deterministic(t *testing.T) {
	m := mustBuild(t, randomishRecords(17, 13))
	a := mustPredict(t, m, ModeUserBased, nil)
	b := mustPredict(t, m, ModeUserBased, nil)

	va, vb := a.Values(), b.Values()
	for k := range va {
		if va[k] != vb[k] {
			t.Fatalf("value %d differs: %v vs %v", k, va[k], vb[k])
		}
	}
}

func TestNewPredictionMatrix(t *testing.T) {
	tests := []struct {
		name    string
		users   []string
		items   []string
		values  []float64
		wantErr bool
	}{
		{name: "valid", users: []string{"u1"}, items: []string{"a", "b"}, values: []float64{1, 2}},
		{name: "wrong length", users: []string{"u1"}, items: []string{"a", "b"}, values: []float64{1}, wantErr: true},
		{name: "NaN value", users: []string{"u1"}, items: []string{"a"}, values: []float64{math.NaN()}, wantErr: true},
		{name: "unsorted users", users: []string{"u2", "u1"}, items: []string{"a"}, values: []float64{1, 1}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPredictionMatrix(ModeItemBased, tt.users, tt.items, tt.values, 0)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewPredictionMatrix() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
