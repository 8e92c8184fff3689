// Last.fm Recommender - Collaborative Filtering for Implicit Feedback
// Copyright 2026 alabarga
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/alabarga/last-fm-recommender-system

package recommend

import (
	"fmt"
	"sort"
)

// Recommender ranks prediction rows into top-N lists.
type Recommender struct {
	predictions *PredictionMatrix
	matrix      *InteractionMatrix
	excludeSeen bool
}

// NewRecommender creates a recommender. predictions must belong to matrix.
func NewRecommender(predictions *PredictionMatrix, matrix *InteractionMatrix, excludeSeen bool) (*Recommender, error) {
	if predictions.NumUsers() != matrix.NumUsers() || predictions.NumItems() != matrix.NumItems() {
		return nil, &DimensionError{
			Op:   "recommender",
			Want: fmt.Sprintf("%dx%d predictions", matrix.NumUsers(), matrix.NumItems()),
			Got:  fmt.Sprintf("%dx%d predictions", predictions.NumUsers(), predictions.NumItems()),
		}
	}
	if predictions.Source() != matrix.Fingerprint() {
		return nil, &DimensionError{
			Op:   "recommender",
			Want: fmt.Sprintf("source %016x", matrix.Fingerprint()),
			Got:  fmt.Sprintf("source %016x", predictions.Source()),
		}
	}
	return &Recommender{predictions: predictions, matrix: matrix, excludeSeen: excludeSeen}, nil
}

// ExcludeSeen reports the configured exclusion policy.
func (r *Recommender) ExcludeSeen() bool { return r.excludeSeen }

// Recommend returns at most n items for userID using the configured
// exclusion policy.
func (r *Recommender) Recommend(userID string, n int) ([]ScoredItem, error) {
	return r.RecommendWithPolicy(userID, n, r.excludeSeen)
}

// RecommendWithPolicy returns at most n items for userID, sorted by
// descending score with ties broken by ascending item identifier. When
// excludeSeen is set, items the user has a nonzero weight for are skipped.
func (r *Recommender) RecommendWithPolicy(userID string, n int, excludeSeen bool) ([]ScoredItem, error) {
	if n < 0 {
		return nil, &ValidationError{Field: "n", Index: -1, Reason: fmt.Sprintf("must be non-negative, got %d", n)}
	}
	u, ok := r.predictions.Users().Lookup(userID)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownUser, userID)
	}

	var skip []bool
	if excludeSeen {
		skip = make([]bool, r.matrix.NumItems())
		for _, en := range r.matrix.UserVector(u) {
			skip[en.Index] = true
		}
	}

	return rankRow(r.predictions.row(u), r.predictions.Items(), skip, n), nil
}

// rankRow returns the top n entries of scores, skipping indices marked in
// skip (which may be nil). Because identifiers are indexed in lexical
// order, breaking ties on index is breaking ties on identifier.
func rankRow(scores []float64, ids *Index, skip []bool, n int) []ScoredItem {
	candidates := make([]int, 0, len(scores))
	for i := range scores {
		if skip != nil && skip[i] {
			continue
		}
		candidates = append(candidates, i)
	}

	sort.Slice(candidates, func(a, b int) bool {
		sa, sb := scores[candidates[a]], scores[candidates[b]]
		if sa != sb {
			return sa > sb
		}
		return candidates[a] < candidates[b]
	})

	if n < len(candidates) {
		candidates = candidates[:n]
	}
	out := make([]ScoredItem, len(candidates))
	for k, i := range candidates {
		out[k] = ScoredItem{ID: ids.ID(i), Score: scores[i]}
	}
	return out
}
