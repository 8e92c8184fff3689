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

// SimilarityMatrix is a dense, symmetric matrix of cosine distances over the
// items or the users of one InteractionMatrix. Diagonal entries are 0 and
// all entries lie in [0, 2].
type SimilarityMatrix struct {
	axis   Axis
	ids    *Index
	n      int
	dist   []float64
	source uint64
}

// NewSimilarityMatrix rebuilds a similarity matrix from its dense row-major
// distances. ids must be strictly increasing and match the rows of the
// InteractionMatrix identified by source.
func NewSimilarityMatrix(axis Axis, ids []string, dist []float64, source uint64) (*SimilarityMatrix, error) {
	if _, err := ParseAxis(string(axis)); err != nil {
		return nil, err
	}
	if err := validateSortedIDs(string(axis)+"_id", ids); err != nil {
		return nil, err
	}
	n := len(ids)
	if len(dist) != n*n {
		return nil, &DimensionError{
			Op:   "similarity matrix",
			Want: fmt.Sprintf("%d distances (%dx%d)", n*n, n, n),
			Got:  fmt.Sprintf("%d distances", len(dist)),
		}
	}
	for a := 0; a < n; a++ {
		if dist[a*n+a] != 0 {
			return nil, &ValidationError{Field: "distance", Index: a*n + a, Element: "cell", Reason: "diagonal must be 0"}
		}
		for b := a + 1; b < n; b++ {
			d := dist[a*n+b]
			if math.IsNaN(d) || d < 0 || d > 2 {
				return nil, &ValidationError{Field: "distance", Index: a*n + b, Element: "cell", Reason: fmt.Sprintf("must lie in [0, 2], got %v", d)}
			}
			if d != dist[b*n+a] {
				return nil, &ValidationError{Field: "distance", Index: a*n + b, Element: "cell", Reason: "matrix must be symmetric"}
			}
		}
	}
	return &SimilarityMatrix{
		axis:   axis,
		ids:    newIndex(append([]string(nil), ids...)),
		n:      n,
		dist:   append([]float64(nil), dist...),
		source: source,
	}, nil
}

// Distances returns a copy of all distances in row-major order.
func (s *SimilarityMatrix) Distances() []float64 {
	return append([]float64(nil), s.dist...)
}

// Axis returns the axis the matrix was computed over.
func (s *SimilarityMatrix) Axis() Axis { return s.axis }

// Len returns the number of rows (and columns).
func (s *SimilarityMatrix) Len() int { return s.n }

// IDs returns the identifier index of the rows.
func (s *SimilarityMatrix) IDs() *Index { return s.ids }

// Source returns the fingerprint of the InteractionMatrix it was built from.
func (s *SimilarityMatrix) Source() uint64 { return s.source }

// Distance returns the cosine distance between entities a and b.
func (s *SimilarityMatrix) Distance(a, b int) float64 { return s.dist[a*s.n+b] }

// Similarity returns 1 - Distance(a, b).
func (s *SimilarityMatrix) Similarity(a, b int) float64 { return 1 - s.dist[a*s.n+b] }

// Row returns a copy of the distances from entity a to every entity.
func (s *SimilarityMatrix) Row(a int) []float64 {
	out := make([]float64, s.n)
	copy(out, s.row(a))
	return out
}

func (s *SimilarityMatrix) row(a int) []float64 { return s.dist[a*s.n : (a+1)*s.n] }

// checkAgainst returns a DimensionError unless s was computed over axis of m.
func (s *SimilarityMatrix) checkAgainst(op string, m *InteractionMatrix, axis Axis) error {
	want := m.axisIndex(axis).Len()
	if s.axis != axis || s.n != want {
		return &DimensionError{
			Op:   op,
			Want: fmt.Sprintf("%s similarity %dx%d", axis, want, want),
			Got:  fmt.Sprintf("%s similarity %dx%d", s.axis, s.n, s.n),
		}
	}
	if s.source != m.Fingerprint() {
		return &DimensionError{
			Op:   op,
			Want: fmt.Sprintf("source %016x", m.Fingerprint()),
			Got:  fmt.Sprintf("source %016x", s.source),
		}
	}
	return nil
}

// SimilarityEngine computes pairwise cosine distance matrices.
type SimilarityEngine struct {
	cfg    SimilarityConfig
	logger zerolog.Logger
}

// NewSimilarityEngine creates a similarity engine.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewSimilarityEngine(cfg SimilarityConfig, logger zerolog.Logger) *SimilarityEngine {
	return &SimilarityEngine{
		cfg:    cfg,
		logger: logger.With().Str("component", "similarity").Logger(),
	}
}

// ComputeSimilarity computes the cosine distance between every pair of
// vectors along axis:
//
//	distance(a, b) = 1 - (a·b) / (|a|·|b|)
//
// Dot products are accumulated through the inverted index of the opposite
// axis, so a pair costs time proportional to its shared nonzero entries.
// A vector with zero norm is at distance 1 from every other vector. Each
// degeneracy is recorded in diag, which may be nil.
func (e *SimilarityEngine) ComputeSimilarity(ctx context.Context, m *InteractionMatrix, axis Axis, diag *Diagnostics) (*SimilarityMatrix, error) {
	if _, err := ParseAxis(string(axis)); err != nil {
		return nil, err
	}
	start := time.Now()

	rows, inverted := m.vectors(axis)
	n := len(rows)

	// Each vector is divided by its largest weight before norms and dot
	// products are taken, so squaring never overflows. Cosine is invariant
	// under that scaling.
	scale := make([]float64, n)
	norms := make([]float64, n)
	var zeroNorm int64
	for a, vec := range rows {
		for _, en := range vec {
			scale[a] = math.Max(scale[a], en.Weight)
		}
		if scale[a] == 0 {
			zeroNorm++
			continue
		}
		var sq float64
		for _, en := range vec {
			x := en.Weight / scale[a]
			sq += x * x
		}
		norms[a] = math.Sqrt(sq)
	}
	diag.addZeroNormVectors(zeroNorm)

	dist := make([]float64, n*n)

	err := runBlocks(ctx, n, e.cfg.BlockSize, e.cfg.Workers(), func(lo, hi int) {
		dot := make([]float64, n)
		seen := make([]bool, n)
		touched := make([]int, 0, 64)
		var degenerate int64

		for a := lo; a < hi; a++ {
			out := dist[a*n : (a+1)*n]
			for b := range out {
				out[b] = 1
			}
			out[a] = 0

			if norms[a] == 0 {
				degenerate += int64(n - 1)
				continue
			}
			degenerate += zeroNorm

			// ea.Index is a coordinate on the opposite axis; its inverted
			// list holds every vector b that is nonzero at that coordinate.
			touched = touched[:0]
			for _, ea := range rows[a] {
				xa := ea.Weight / scale[a]
				for _, eb := range inverted[ea.Index] {
					if !seen[eb.Index] {
						seen[eb.Index] = true
						touched = append(touched, eb.Index)
					}
					dot[eb.Index] += xa * (eb.Weight / scale[eb.Index])
				}
			}

			for _, b := range touched {
				if b != a {
					out[b] = clampDistance(1 - dot[b]/(norms[a]*norms[b]))
				}
				dot[b] = 0
				seen[b] = false
			}
		}
		diag.addZeroNormPairs(degenerate)
	})
	if err != nil {
		return nil, fmt.Errorf("compute %s similarity: %w", axis, err)
	}

	e.logger.Debug().
		Str("axis", string(axis)).
		Int("n", n).
		Int64("zero_norm_vectors", zeroNorm).
		Dur("duration", time.Since(start)).
		Msg("similarity computed")

	return &SimilarityMatrix{
		axis:   axis,
		ids:    m.axisIndex(axis),
		n:      n,
		dist:   dist,
		source: m.Fingerprint(),
	}, nil
}

// clampDistance bounds rounding error to the cosine distance range. NaN
// maps to 1, the distance of an undefined angle.
func clampDistance(d float64) float64 {
	switch {
	case math.IsNaN(d):
		return 1
	case d < 0:
		return 0
	case d > 2:
		return 2
	default:
		return d
	}
}
