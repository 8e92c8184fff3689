// Last.fm Recommender - Collaborative Filtering for Implicit Feedback
// Copyright 2026 alabarga
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/alabarga/last-fm-recommender-system

package recommend

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Model is the immutable output of one pipeline run.
type Model struct {
	Matrix      *InteractionMatrix
	Similarity  *SimilarityMatrix
	Predictions *PredictionMatrix

	Diagnostics DiagnosticsSnapshot
	Evaluation  Evaluation
	TrainedAt   time.Time
	Duration    time.Duration

	recommender *Recommender
}

// NewModel assembles a model from pipeline outputs. sim may be nil for
// models restored from storage, in which case similarity lookups fail.
func NewModel(matrix *InteractionMatrix, sim *SimilarityMatrix, predictions *PredictionMatrix, excludeSeen bool) (*Model, error) {
	rec, err := NewRecommender(predictions, matrix, excludeSeen)
	if err != nil {
		return nil, err
	}
	if sim != nil {
		if err := sim.checkAgainst("model", matrix, sim.Axis()); err != nil {
			return nil, err
		}
	}
	return &Model{
		Matrix:      matrix,
		Similarity:  sim,
		Predictions: predictions,
		recommender: rec,
	}, nil
}

// Mode returns the prediction mode of the model.
func (m *Model) Mode() Mode { return m.Predictions.Mode() }

// ExcludeSeen reports the model's default exclusion policy.
func (m *Model) ExcludeSeen() bool { return m.recommender.ExcludeSeen() }

// Recommend returns the top n items for userID with the default policy.
func (m *Model) Recommend(userID string, n int) ([]ScoredItem, error) {
	return m.recommender.Recommend(userID, n)
}

// RecommendWithPolicy returns the top n items for userID.
func (m *Model) RecommendWithPolicy(userID string, n int, excludeSeen bool) ([]ScoredItem, error) {
	return m.recommender.RecommendWithPolicy(userID, n, excludeSeen)
}

// PredictionRow returns every item's predicted weight for userID in item
// order.
func (m *Model) PredictionRow(userID string) ([]ScoredItem, error) {
	u, ok := m.Predictions.Users().Lookup(userID)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownUser, userID)
	}
	row := m.Predictions.row(u)
	items := m.Predictions.Items()
	out := make([]ScoredItem, len(row))
	for i, v := range row {
		out[i] = ScoredItem{ID: items.ID(i), Score: v}
	}
	return out, nil
}

// Similar returns the n entities most similar to id along axis, excluding
// id itself. Scores are similarities (1 - distance).
func (m *Model) Similar(axis Axis, id string, n int) ([]ScoredItem, error) {
	if n < 0 {
		return nil, &ValidationError{Field: "n", Index: -1, Reason: fmt.Sprintf("must be non-negative, got %d", n)}
	}
	if m.Similarity == nil || m.Similarity.Axis() != axis {
		return nil, fmt.Errorf("%w: %s", ErrNoSimilarity, axis)
	}
	a, ok := m.Similarity.IDs().Lookup(id)
	if !ok {
		if axis == AxisUser {
			return nil, fmt.Errorf("%w: %q", ErrUnknownUser, id)
		}
		return nil, fmt.Errorf("%w: %q", ErrUnknownItem, id)
	}

	dist := m.Similarity.row(a)
	scores := make([]float64, len(dist))
	for b, d := range dist {
		scores[b] = 1 - d
	}
	skip := make([]bool, len(dist))
	skip[a] = true
	return rankRow(scores, m.Similarity.IDs(), skip, n), nil
}

// Run executes the full pipeline on records: build, similarity along the
// mode's axis, prediction and evaluation. It holds no state between calls.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func Run(ctx context.Context, cfg *Config, records []InteractionRecord, logger zerolog.Logger) (*Model, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	start := time.Now()
	diag := &Diagnostics{}

	matrix, err := BuildInteractionMatrix(records)
	if err != nil {
		return nil, fmt.Errorf("build interaction matrix: %w", err)
	}

	sim, err := NewSimilarityEngine(cfg.Similarity, logger).ComputeSimilarity(ctx, matrix, cfg.Mode.Axis(), diag)
	if err != nil {
		return nil, err
	}

	predictions, err := NewPredictionEngine(cfg.Similarity, logger).Predict(ctx, matrix, sim, cfg.Mode, diag)
	if err != nil {
		return nil, err
	}

	model, err := NewModel(matrix, sim, predictions, cfg.ExcludeSeen)
	if err != nil {
		return nil, err
	}

	ev, err := Evaluate(matrix, predictions)
	if err != nil {
		return nil, err
	}

	model.Evaluation = ev
	model.Diagnostics = diag.Snapshot()
	model.TrainedAt = time.Now()
	model.Duration = time.Since(start)
	return model, nil
}
