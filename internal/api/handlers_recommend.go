// Last.fm Recommender - Collaborative Filtering for Implicit Feedback
// Copyright 2026 alabarga
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/alabarga/last-fm-recommender-system

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/alabarga/last-fm-recommender-system/internal/logging"
	"github.com/alabarga/last-fm-recommender-system/internal/models"
	"github.com/alabarga/last-fm-recommender-system/internal/recommend"
	"github.com/alabarga/last-fm-recommender-system/internal/validation"
)

// requestTimeout bounds a single read request.
const requestTimeout = 10 * time.Second

// GetRecommendations handles GET /api/v1/recommendations/{userID}.
func (h *Handler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	params, verr := parseRecommendationsRequest(r)
	if verr != nil {
		respondValidationError(w, r, verr)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	resp, err := h.engine.Recommend(ctx, recommend.Request{
		UserID:      params.UserID,
		N:           params.N,
		ExcludeSeen: params.ExcludeSeen,
		RequestID:   logging.RequestIDFromContext(r.Context()),
	})
	if err != nil {
		respondEngineError(w, r, err)
		return
	}

	md := resp.Metadata
	respondSuccess(w, r, http.StatusOK, &models.RecommendationsResponse{
		UserID:       params.UserID,
		Items:        nonNil(resp.Items),
		Mode:         md.Mode,
		ExcludeSeen:  md.ExcludeSeen,
		ModelVersion: md.ModelVersion,
		TrainedAt:    md.TrainedAt,
		CacheHit:     md.CacheHit,
		FromSnapshot: md.FromSnapshot,
	}, start)
}

// GetPredictions handles GET /api/v1/predictions/{userID}. It returns the
// full prediction row, including items the user has already interacted with.
func (h *Handler) GetPredictions(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	params := &EntityRequest{ID: chi.URLParam(r, "userID")}
	if verr := validation.ValidateStruct(params); verr != nil {
		respondValidationError(w, r, verr)
		return
	}

	row, version, err := h.engine.PredictionRow(params.ID)
	if err != nil {
		respondEngineError(w, r, err)
		return
	}

	respondSuccess(w, r, http.StatusOK, &models.PredictionsResponse{
		UserID:       params.ID,
		Predictions:  nonNil(row),
		ModelVersion: version,
	}, start)
}

// GetSimilarItems handles GET /api/v1/similar/items/{itemID}.
func (h *Handler) GetSimilarItems(w http.ResponseWriter, r *http.Request) {
	h.similar(w, r, recommend.AxisItem, "itemID")
}

// GetSimilarUsers handles GET /api/v1/similar/users/{userID}.
func (h *Handler) GetSimilarUsers(w http.ResponseWriter, r *http.Request) {
	h.similar(w, r, recommend.AxisUser, "userID")
}

func (h *Handler) similar(w http.ResponseWriter, r *http.Request, axis recommend.Axis, param string) {
	start := time.Now()

	params, verr := parseSimilarRequest(r, param)
	if verr != nil {
		respondValidationError(w, r, verr)
		return
	}

	neighbours, err := h.engine.Similar(axis, params.ID, params.N)
	if err != nil {
		respondEngineError(w, r, err)
		return
	}

	respondSuccess(w, r, http.StatusOK, &models.SimilarResponse{
		ID:      params.ID,
		Axis:    axis,
		Similar: nonNil(neighbours),
	}, start)
}

// nonNil keeps empty lists serialised as [] rather than null.
func nonNil(items []recommend.ScoredItem) []recommend.ScoredItem {
	if items == nil {
		return []recommend.ScoredItem{}
	}
	return items
}
