// Last.fm Recommender - Collaborative Filtering for Implicit Feedback
// Copyright 2026 alabarga
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/alabarga/last-fm-recommender-system

package recommend

import (
	"errors"
	"testing"
)

// fixedRecommender builds a recommender over hand-set prediction values.
// Users u1 and u2 each listened to one item.
func fixedRecommender(t *testing.T, excludeSeen bool) *Recommender {
	t.Helper()
	m := mustBuild(t, []InteractionRecord{
		{UserID: "u1", ItemID: "a", Weight: 1},
		{UserID: "u2", ItemID: "c", Weight: 1},
		{UserID: "u2", ItemID: "b", Weight: 0},
		{UserID: "u2", ItemID: "d", Weight: 0},
	})
	// items a b c d
	values := []float64{
		0.9, 0.5, 0.5, 0.7, // u1
		0.1, 0.3, 0.8, 0.3, // u2
	}
	p, err := NewPredictionMatrix(ModeItemBased, m.Users().IDs(), m.Items().IDs(), values, m.Fingerprint())
	if err != nil {
		t.Fatalf("NewPredictionMatrix() error = %v", err)
	}
	r, err := NewRecommender(p, m, excludeSeen)
	if err != nil {
		t.Fatalf("NewRecommender() error = %v", err)
	}
	return r
}

func ids(items []ScoredItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestRecommender_Recommend(t *testing.T) {
	tests := []struct {
		name        string
		excludeSeen bool
		user        string
		n           int
		want        []string
	}{
		{name: "exclude seen", excludeSeen: true, user: "u1", n: 10, want: []string{"d", "b", "c"}},
		{name: "include seen", excludeSeen: false, user: "u1", n: 10, want: []string{"a", "d", "b", "c"}},
		{name: "truncated", excludeSeen: false, user: "u1", n: 2, want: []string{"a", "d"}},
		{name: "tie broken by identifier", excludeSeen: true, user: "u2", n: 10, want: []string{"b", "d", "a"}},
		{name: "zero n", excludeSeen: true, user: "u1", n: 0, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := fixedRecommender(t, tt.excludeSeen)
			got, err := r.Recommend(tt.user, tt.n)
			if err != nil {
				t.Fatalf("Recommend() error = %v", err)
			}
			if !equalIDs(ids(got), tt.want) {
				t.Errorf("Recommend(%s, %d) = %v, want %v", tt.user, tt.n, ids(got), tt.want)
			}
		})
	}
}

func TestRecommender_Properties(t *testing.T) {
	m := mustBuild(t, randomishRecords(15, 11))
	p := mustPredict(t, m, ModeItemBased, nil)
	r, err := NewRecommender(p, m, true)
	if err != nil {
		t.Fatalf("NewRecommender() error = %v", err)
	}

	for _, user := range m.Users().IDs() {
		for _, n := range []int{1, 3, 100} {
			got, err := r.Recommend(user, n)
			if err != nil {
				t.Fatalf("Recommend(%s, %d) error = %v", user, n, err)
			}
			if len(got) > n {
				t.Errorf("Recommend(%s, %d) returned %d items", user, n, len(got))
			}
			seen := make(map[string]bool)
			u, _ := m.Users().Lookup(user)
			for k, it := range got {
				if seen[it.ID] {
					t.Errorf("Recommend(%s) duplicated %q", user, it.ID)
				}
				seen[it.ID] = true
				i, _ := m.Items().Lookup(it.ID)
				if m.Weight(i, u) != 0 {
					t.Errorf("Recommend(%s) returned seen item %q", user, it.ID)
				}
				if k > 0 {
					prev := got[k-1]
					if prev.Score < it.Score || (prev.Score == it.Score && prev.ID > it.ID) {
						t.Errorf("Recommend(%s) out of order at %d: %+v before %+v", user, k, prev, it)
					}
				}
			}
		}
	}
}

func TestRecommender_Errors(t *testing.T) {
	r := fixedRecommender(t, true)

	if _, err := r.Recommend("nobody", 5); !errors.Is(err, ErrUnknownUser) {
		t.Errorf("unknown user error = %v, want ErrUnknownUser", err)
	}
	if _, err := r.Recommend("u1", -1); !IsValidationError(err) {
		t.Errorf("negative n error = %v, want ValidationError", err)
	}
}

func TestNewRecommender_StaleMatrix(t *testing.T) {
	m := mustBuild(t, scenarioRecords())
	other := mustBuild(t, []InteractionRecord{
		{UserID: "u1", ItemID: "a", Weight: 2},
		{UserID: "u2", ItemID: "b", Weight: 2},
	})
	p := mustPredict(t, other, ModeItemBased, nil)

	if _, err := NewRecommender(p, m, true); !IsDimensionError(err) {
		t.Errorf("error = %v, want DimensionError", err)
	}
}
