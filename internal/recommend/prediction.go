// Last.fm Recommender - Collaborative Filtering for Implicit Feedback
// Copyright 2026 alabarga
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/alabarga/last-fm-recommender-system

package recommend

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"
)

// PredictionMatrix is a dense users × items matrix of estimated weights,
// stored row-major.
type PredictionMatrix struct {
	mode   Mode
	users  *Index
	items  *Index
	values []float64
	source uint64
}

// NewPredictionMatrix rebuilds a prediction matrix from its dense row-major
// form. source is the fingerprint of the InteractionMatrix it belongs to.
func NewPredictionMatrix(mode Mode, userIDs, itemIDs []string, values []float64, source uint64) (*PredictionMatrix, error) {
	if _, err := ParseMode(string(mode)); err != nil {
		return nil, err
	}
	if err := validateSortedIDs("user_id", userIDs); err != nil {
		return nil, err
	}
	if err := validateSortedIDs("item_id", itemIDs); err != nil {
		return nil, err
	}
	if want := len(userIDs) * len(itemIDs); len(values) != want {
		return nil, &DimensionError{
			Op:   "prediction matrix",
			Want: fmt.Sprintf("%d values (%d users x %d items)", want, len(userIDs), len(itemIDs)),
			Got:  fmt.Sprintf("%d values", len(values)),
		}
	}
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, &ValidationError{Field: "prediction", Index: i, Element: "cell", Reason: "must be finite"}
		}
	}
	return &PredictionMatrix{
		mode:   mode,
		users:  newIndex(append([]string(nil), userIDs...)),
		items:  newIndex(append([]string(nil), itemIDs...)),
		values: append([]float64(nil), values...),
		source: source,
	}, nil
}

// Mode returns the aggregation mode the matrix was computed with.
func (p *PredictionMatrix) Mode() Mode { return p.mode }

// Users returns the user index.
func (p *PredictionMatrix) Users() *Index { return p.users }

// Items returns the item index.
func (p *PredictionMatrix) Items() *Index { return p.items }

// NumUsers returns the number of rows.
func (p *PredictionMatrix) NumUsers() int { return p.users.Len() }

// NumItems returns the number of columns.
func (p *PredictionMatrix) NumItems() int { return p.items.Len() }

// Source returns the fingerprint of the InteractionMatrix it was built from.
func (p *PredictionMatrix) Source() uint64 { return p.source }

// At returns the prediction for user u and item i.
func (p *PredictionMatrix) At(u, i int) float64 { return p.values[u*p.items.Len()+i] }

// Row returns a copy of user u's predictions.
func (p *PredictionMatrix) Row(u int) []float64 {
	out := make([]float64, p.items.Len())
	copy(out, p.row(u))
	return out
}

// Values returns a copy of all predictions in row-major order.
func (p *PredictionMatrix) Values() []float64 {
	return append([]float64(nil), p.values...)
}

func (p *PredictionMatrix) row(u int) []float64 {
	ni := p.items.Len()
	return p.values[u*ni : (u+1)*ni]
}

// PredictionEngine aggregates neighbour weights into predictions.
type PredictionEngine struct {
	cfg    SimilarityConfig
	logger zerolog.Logger
}

// NewPredictionEngine creates a prediction engine. Block size and worker
// count are shared with the similarity stage.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewPredictionEngine(cfg SimilarityConfig, logger zerolog.Logger) *PredictionEngine {
	return &PredictionEngine{
		cfg:    cfg,
		logger: logger.With().Str("component", "prediction").Logger(),
	}
}

// Predict computes the dense prediction matrix for mode. sim must have been
// computed over mode.Axis() of m; otherwise a DimensionError is returned.
// Neighbours are weighted by similarity = 1 - distance.
func (e *PredictionEngine) Predict(ctx context.Context, m *InteractionMatrix, sim *SimilarityMatrix, mode Mode, diag *Diagnostics) (*PredictionMatrix, error) {
	if _, err := ParseMode(string(mode)); err != nil {
		return nil, err
	}
	if err := sim.checkAgainst("predict", m, mode.Axis()); err != nil {
		return nil, err
	}
	start := time.Now()

	p := &PredictionMatrix{
		mode:   mode,
		users:  m.Users(),
		items:  m.Items(),
		values: make([]float64, m.NumUsers()*m.NumItems()),
		source: m.Fingerprint(),
	}

	// Weights are aggregated divided by the largest weight and the result
	// is scaled back, so sums over many large weights stay finite.
	scale := m.MaxWeight()
	if scale == 0 {
		scale = 1
	}

	var err error
	if mode == ModeUserBased {
		err = e.predictUserBased(ctx, m, sim, p, scale, diag)
	} else {
		err = e.predictItemBased(ctx, m, sim, p, scale, diag)
	}
	if err != nil {
		return nil, fmt.Errorf("predict %s-based: %w", mode, err)
	}
	if scale != 1 {
		for k := range p.values {
			p.values[k] *= scale
		}
	}

	for k, v := range p.values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			ni := p.items.Len()
			return nil, fmt.Errorf("predict %s-based: non-finite value at user %q item %q",
				mode, p.users.ID(k/ni), p.items.ID(k%ni))
		}
	}

	e.logger.Debug().
		Str("mode", string(mode)).
		Int("users", p.NumUsers()).
		Int("items", p.NumItems()).
		Dur("duration", time.Since(start)).
		Msg("predictions computed")

	return p, nil
}

// predictItemBased computes
//
//	pred[u,i] = Σ_j s(i,j)·w[u,j] / Σ_j |s(i,j)|
//
// over all items j. Only the user's nonzero weights contribute to the
// numerator. A zero denominator yields 0.
func (e *PredictionEngine) predictItemBased(ctx context.Context, m *InteractionMatrix, sim *SimilarityMatrix, p *PredictionMatrix, scale float64, diag *Diagnostics) error {
	ni, nu := m.NumItems(), m.NumUsers()

	absSum := make([]float64, ni)
	err := runBlocks(ctx, ni, e.cfg.BlockSize, e.cfg.Workers(), func(lo, hi int) {
		for i := lo; i < hi; i++ {
			var s float64
			for _, d := range sim.row(i) {
				s += math.Abs(1 - d)
			}
			absSum[i] = s
		}
	})
	if err != nil {
		return err
	}

	var zeroRows int64
	for _, s := range absSum {
		if s == 0 {
			zeroRows++
		}
	}
	diag.addZeroSimilaritySums(zeroRows * int64(nu))

	return runBlocks(ctx, nu, e.cfg.BlockSize, e.cfg.Workers(), func(lo, hi int) {
		for u := lo; u < hi; u++ {
			out := p.row(u)
			vec := m.UserVector(u)
			for i := 0; i < ni; i++ {
				if absSum[i] == 0 {
					out[i] = 0
					continue
				}
				simRow := sim.row(i)
				var num float64
				for _, en := range vec {
					num += (1 - simRow[en.Index]) * (en.Weight / scale)
				}
				out[i] = num / absSum[i]
			}
		}
	})
}

// predictUserBased computes
//
//	pred[u,i] = meanU[u] + Σ_v s(u,v)·(w[v,i] - meanU[v]) / Σ_v |s(u,v)|
//
// where meanU is taken over the full dense row, zeros included. The
// numerator is split into Σ_v s(u,v)·w[v,i], accumulated sparsely, minus
// the per-user constant Σ_v s(u,v)·meanU[v]. A zero denominator yields
// meanU[u].
func (e *PredictionEngine) predictUserBased(ctx context.Context, m *InteractionMatrix, sim *SimilarityMatrix, p *PredictionMatrix, scale float64, diag *Diagnostics) error {
	ni, nu := m.NumItems(), m.NumUsers()

	mean := userMeans(m, scale)

	return runBlocks(ctx, nu, e.cfg.BlockSize, e.cfg.Workers(), func(lo, hi int) {
		acc := make([]float64, ni)
		var degenerate int64

		for u := lo; u < hi; u++ {
			out := p.row(u)
			simRow := sim.row(u)

			var absSum, offset float64
			for v := 0; v < nu; v++ {
				s := 1 - simRow[v]
				absSum += math.Abs(s)
				offset += s * mean[v]
			}

			if absSum == 0 {
				for i := range out {
					out[i] = mean[u]
				}
				degenerate += int64(ni)
				continue
			}

			for i := range acc {
				acc[i] = 0
			}
			for v := 0; v < nu; v++ {
				s := 1 - simRow[v]
				if s == 0 {
					continue
				}
				for _, en := range m.UserVector(v) {
					acc[en.Index] += s * (en.Weight / scale)
				}
			}
			for i := 0; i < ni; i++ {
				out[i] = mean[u] + (acc[i]-offset)/absSum
			}
		}
		diag.addZeroSimilaritySums(degenerate)
	})
}

// userMeans returns the mean of every user's weights divided by scale,
// taken over all items.
func userMeans(m *InteractionMatrix, scale float64) []float64 {
	ni := m.NumItems()
	mean := make([]float64, m.NumUsers())
	if ni == 0 {
		return mean
	}
	for u := range mean {
		var s float64
		for _, en := range m.UserVector(u) {
			s += en.Weight / scale
		}
		mean[u] = s / float64(ni)
	}
	return mean
}
