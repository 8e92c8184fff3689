// Last.fm Recommender - Collaborative Filtering for Implicit Feedback
// Copyright 2026 alabarga
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/alabarga/last-fm-recommender-system

package events

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/alabarga/last-fm-recommender-system/internal/recommend"
)

// TopicModelTrained carries one ModelTrained event per completed training run.
const TopicModelTrained = "model.trained"

// ModelTrained is published after a new model is swapped in.
type ModelTrained struct {
	RunID        string               `json:"run_id"`
	ModelVersion int                  `json:"model_version"`
	Mode         recommend.Mode       `json:"mode"`
	Users        int                  `json:"users"`
	Items        int                  `json:"items"`
	Interactions int                  `json:"interactions"`
	DurationMS   int64                `json:"duration_ms"`
	TrainedAt    time.Time            `json:"trained_at"`
	Evaluation   recommend.Evaluation `json:"evaluation"`

	Diagnostics recommend.DiagnosticsSnapshot `json:"diagnostics"`
}

// FromStatus builds an event from a training status.
func FromStatus(s *recommend.TrainingStatus) ModelTrained {
	return ModelTrained{
		RunID:        s.RunID,
		ModelVersion: s.ModelVersion,
		Mode:         s.Mode,
		Users:        s.UserCount,
		Items:        s.ItemCount,
		Interactions: s.InteractionCount,
		DurationMS:   s.LastTrainingDurationMS,
		TrainedAt:    s.LastTrainedAt,
		Evaluation:   s.Evaluation,
		Diagnostics:  s.Diagnostics,
	}
}

// Marshal encodes the event as JSON.
func (e *ModelTrained) Marshal() ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal %s event: %w", TopicModelTrained, err)
	}
	return data, nil
}

// UnmarshalModelTrained decodes a JSON event payload.
func UnmarshalModelTrained(data []byte) (ModelTrained, error) {
	var e ModelTrained
	if err := json.Unmarshal(data, &e); err != nil {
		return ModelTrained{}, fmt.Errorf("unmarshal %s event: %w", TopicModelTrained, err)
	}
	return e, nil
}
