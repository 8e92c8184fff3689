// Last.fm Recommender - Collaborative Filtering for Implicit Feedback
// Copyright 2026 alabarga
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/alabarga/last-fm-recommender-system

package recommend

import (
	"fmt"
	"math"
)

// Evaluation summarises how closely predictions reproduce the observed
// weights.
type Evaluation struct {
	// RMSE is the root mean squared error over observed cells.
	RMSE float64 `json:"rmse"`

	// MAE is the mean absolute error over observed cells.
	MAE float64 `json:"mae"`

	// Observed is the number of nonzero cells compared.
	Observed int `json:"observed"`
}

// Evaluate compares predictions against the nonzero cells of m.
func Evaluate(m *InteractionMatrix, p *PredictionMatrix) (Evaluation, error) {
	if p.NumUsers() != m.NumUsers() || p.NumItems() != m.NumItems() || p.Source() != m.Fingerprint() {
		return Evaluation{}, &DimensionError{
			Op:   "evaluate",
			Want: fmt.Sprintf("%dx%d predictions from %016x", m.NumUsers(), m.NumItems(), m.Fingerprint()),
			Got:  fmt.Sprintf("%dx%d predictions from %016x", p.NumUsers(), p.NumItems(), p.Source()),
		}
	}

	var sq, abs float64
	for _, c := range m.Coordinates() {
		diff := p.At(c.User, c.Item) - c.Weight
		sq += diff * diff
		abs += math.Abs(diff)
	}

	ev := Evaluation{Observed: m.NNZ()}
	if ev.Observed > 0 {
		ev.RMSE = math.Sqrt(sq / float64(ev.Observed))
		ev.MAE = abs / float64(ev.Observed)
	}
	return ev, nil
}
