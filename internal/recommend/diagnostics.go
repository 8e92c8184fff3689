// Last.fm Recommender - Collaborative Filtering for Implicit Feedback
// Copyright 2026 alabarga
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/alabarga/last-fm-recommender-system

package recommend

import "sync/atomic"

// Diagnostics counts numeric degeneracies absorbed by fallback values during
// one pipeline run. It is safe for concurrent use by block workers.
type Diagnostics struct {
	zeroNormVectors    atomic.Int64
	zeroNormPairs      atomic.Int64
	zeroSimilaritySums atomic.Int64
}

// DiagnosticsSnapshot is a point-in-time copy of Diagnostics.
type DiagnosticsSnapshot struct {
	// ZeroNormVectors is the number of entities with an all-zero vector.
	ZeroNormVectors int64 `json:"zero_norm_vectors"`

	// ZeroNormPairs is the number of off-diagonal distances set to 1
	// because either side had zero norm.
	ZeroNormPairs int64 `json:"zero_norm_pairs"`

	// ZeroSimilaritySums is the number of predictions that fell back to 0
	// (item-based) or the user mean (user-based).
	ZeroSimilaritySums int64 `json:"zero_similarity_sums"`
}

// Total returns the sum of all counters.
func (s DiagnosticsSnapshot) Total() int64 {
	return s.ZeroNormVectors + s.ZeroNormPairs + s.ZeroSimilaritySums
}

// Add returns the element-wise sum of two snapshots.
func (s DiagnosticsSnapshot) Add(o DiagnosticsSnapshot) DiagnosticsSnapshot {
	return DiagnosticsSnapshot{
		ZeroNormVectors:    s.ZeroNormVectors + o.ZeroNormVectors,
		ZeroNormPairs:      s.ZeroNormPairs + o.ZeroNormPairs,
		ZeroSimilaritySums: s.ZeroSimilaritySums + o.ZeroSimilaritySums,
	}
}

// Snapshot returns the current counter values.
func (d *Diagnostics) Snapshot() DiagnosticsSnapshot {
	if d == nil {
		return DiagnosticsSnapshot{}
	}
	return DiagnosticsSnapshot{
		ZeroNormVectors:    d.zeroNormVectors.Load(),
		ZeroNormPairs:      d.zeroNormPairs.Load(),
		ZeroSimilaritySums: d.zeroSimilaritySums.Load(),
	}
}

func (d *Diagnostics) addZeroNormVectors(n int64) {
	if d != nil && n > 0 {
		d.zeroNormVectors.Add(n)
	}
}

func (d *Diagnostics) addZeroNormPairs(n int64) {
	if d != nil && n > 0 {
		d.zeroNormPairs.Add(n)
	}
}

func (d *Diagnostics) addZeroSimilaritySums(n int64) {
	if d != nil && n > 0 {
		d.zeroSimilaritySums.Add(n)
	}
}
