// Last.fm Recommender - Collaborative Filtering for Implicit Feedback
// Copyright 2026 alabarga
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/alabarga/last-fm-recommender-system

package recommend

import (
	"context"
	"fmt"
	"time"
)

// InteractionRecord is one cleaned (user, item, weight) triple. Weight is an
// implicit feedback count such as the number of plays.
type InteractionRecord struct {
	UserID string  `json:"user_id" validate:"identifier"`
	ItemID string  `json:"item_id" validate:"identifier"`
	Weight float64 `json:"weight" validate:"gte=0"`
}

// Axis selects which entities a similarity matrix is computed over.
type Axis string

const (
	// AxisItem compares items by their vectors of user weights.
	AxisItem Axis = "item"

	// AxisUser compares users by their vectors of item weights.
	AxisUser Axis = "user"
)

// ParseAxis converts a string into an Axis.
func ParseAxis(s string) (Axis, error) {
	switch Axis(s) {
	case AxisItem, AxisUser:
		return Axis(s), nil
	default:
		return "", fmt.Errorf("unknown axis %q (want %q or %q)", s, AxisItem, AxisUser)
	}
}

// Mode selects the neighbourhood aggregation used for predictions.
type Mode string

const (
	// ModeItemBased aggregates a user's own weights over similar items.
	ModeItemBased Mode = "item"

	// ModeUserBased aggregates the mean-centred weights of similar users.
	ModeUserBased Mode = "user"
)

// ParseMode converts a string into a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeItemBased, ModeUserBased:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("unknown mode %q (want %q or %q)", s, ModeItemBased, ModeUserBased)
	}
}

// Axis returns the similarity axis the mode aggregates over.
func (m Mode) Axis() Axis {
	if m == ModeUserBased {
		return AxisUser
	}
	return AxisItem
}

// ScoredItem is an entity identifier paired with a score.
type ScoredItem struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

// Request contains parameters for a recommendation request.
type Request struct {
	// UserID is the user to recommend for.
	UserID string `json:"user_id"`

	// N is the maximum number of items to return.
	N int `json:"n"`

	// ExcludeSeen overrides the configured exclusion policy when non-nil.
	ExcludeSeen *bool `json:"exclude_seen,omitempty"`

	// RequestID is propagated into logs.
	RequestID string `json:"request_id,omitempty"`
}

// Response contains recommendation results.
type Response struct {
	Items    []ScoredItem     `json:"items"`
	Metadata ResponseMetadata `json:"metadata"`
}

// ResponseMetadata contains timing and diagnostic information.
type ResponseMetadata struct {
	RequestID    string    `json:"request_id"`
	UserID       string    `json:"user_id"`
	Mode         Mode      `json:"mode"`
	ExcludeSeen  bool      `json:"exclude_seen"`
	LatencyMS    int64     `json:"latency_ms"`
	CacheHit     bool      `json:"cache_hit"`
	FromSnapshot bool      `json:"from_snapshot,omitempty"`
	ModelVersion int       `json:"model_version"`
	TrainedAt    time.Time `json:"trained_at"`
	Timestamp    time.Time `json:"timestamp"`
}

// TrainingStatus describes the state of the engine's training lifecycle.
type TrainingStatus struct {
	IsTraining             bool                `json:"is_training"`
	LastTrainedAt          time.Time           `json:"last_trained_at"`
	LastTrainingDurationMS int64               `json:"last_training_duration_ms"`
	LastError              string              `json:"last_error,omitempty"`
	RunID                  string              `json:"run_id,omitempty"`
	InteractionCount       int                 `json:"interaction_count"`
	ItemCount              int                 `json:"item_count"`
	UserCount              int                 `json:"user_count"`
	ModelVersion           int                 `json:"model_version"`
	Mode                   Mode                `json:"mode"`
	Evaluation             Evaluation          `json:"evaluation"`
	Diagnostics            DiagnosticsSnapshot `json:"diagnostics"`
}

// DataProvider supplies interaction records for training.
type DataProvider interface {
	GetInteractions(ctx context.Context) ([]InteractionRecord, error)
}

// ModelStore persists trained models between runs.
type ModelStore interface {
	SaveModel(ctx context.Context, version int, model *Model) error
	LoadLatestModel(ctx context.Context) (*Model, int, error)

	// LatestVersion returns the newest stored version, or 0.
	LatestVersion() int
}

// SnapshotStore persists precomputed per-user recommendation lists.
type SnapshotStore interface {
	WriteSnapshot(ctx context.Context, version int, lists map[string][]ScoredItem) error
	ReadSnapshot(ctx context.Context, userID string) ([]ScoredItem, int, error)
}

// TrainingListener is notified after a model has been swapped in.
type TrainingListener interface {
	ModelTrained(ctx context.Context, status TrainingStatus) error
}
