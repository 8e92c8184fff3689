// Last.fm Recommender - Collaborative Filtering for Implicit Feedback
// Copyright 2026 alabarga
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/alabarga/last-fm-recommender-system

package models

import (
	"time"

	"github.com/alabarga/last-fm-recommender-system/internal/recommend"
)

// APIResponse is the envelope of every JSON response.
//
//	{
//	  "status": "success",
//	  "data": {...},
//	  "metadata": {"timestamp": "...", "query_time_ms": 3}
//	}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata contains response timing information.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
	Cached      bool      `json:"cached,omitempty"`
	RequestID   string    `json:"request_id,omitempty"`
}

// APIError is a machine-readable error.
//
// Codes used by the API:
//   - VALIDATION_ERROR: invalid query or path parameters
//   - NOT_FOUND: unknown user or item
//   - NOT_TRAINED: no model is loaded yet
//   - SIMILARITY_UNAVAILABLE: the model holds no matrix for that axis
//   - TRAINING_IN_PROGRESS: a training run is already active
//   - RATE_LIMITED: too many training requests
//   - INTERNAL_ERROR: unexpected failure
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// RecommendationsResponse is the payload of GET /api/v1/recommendations/{userID}.
type RecommendationsResponse struct {
	UserID       string                 `json:"user_id"`
	Items        []recommend.ScoredItem `json:"items"`
	Mode         recommend.Mode         `json:"mode"`
	ExcludeSeen  bool                   `json:"exclude_seen"`
	ModelVersion int                    `json:"model_version"`
	TrainedAt    time.Time              `json:"trained_at,omitempty"`
	CacheHit     bool                   `json:"cache_hit"`
	FromSnapshot bool                   `json:"from_snapshot,omitempty"`
}

// PredictionsResponse is the payload of GET /api/v1/predictions/{userID}.
type PredictionsResponse struct {
	UserID       string                 `json:"user_id"`
	Predictions  []recommend.ScoredItem `json:"predictions"`
	ModelVersion int                    `json:"model_version"`
}

// SimilarResponse is the payload of the similar items and users endpoints.
type SimilarResponse struct {
	ID      string                 `json:"id"`
	Axis    recommend.Axis         `json:"axis"`
	Similar []recommend.ScoredItem `json:"similar"`
}

// StatusResponse is the payload of GET /api/v1/status.
type StatusResponse struct {
	Training recommend.TrainingStatus `json:"training"`
	Engine   recommend.Metrics        `json:"engine"`
}

// TrainResponse is the payload of POST /api/v1/train.
type TrainResponse struct {
	Accepted bool   `json:"accepted"`
	Message  string `json:"message"`
}

// HealthResponse is the payload of GET /health.
type HealthResponse struct {
	Status       string    `json:"status"`
	Database     bool      `json:"database"`
	ModelLoaded  bool      `json:"model_loaded"`
	ModelVersion int       `json:"model_version"`
	Uptime       float64   `json:"uptime_seconds"`
	Timestamp    time.Time `json:"timestamp"`
}
