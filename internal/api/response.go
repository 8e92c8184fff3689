// Last.fm Recommender - Collaborative Filtering for Implicit Feedback
// Copyright 2026 alabarga
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/alabarga/last-fm-recommender-system

package api

import (
	"errors"
	"hash/fnv"
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/alabarga/last-fm-recommender-system/internal/logging"
	"github.com/alabarga/last-fm-recommender-system/internal/models"
	"github.com/alabarga/last-fm-recommender-system/internal/recommend"
	"github.com/alabarga/last-fm-recommender-system/internal/validation"
)

// Error codes for API responses
const (
	ErrCodeValidation            = "VALIDATION_ERROR"
	ErrCodeNotFound              = "NOT_FOUND"
	ErrCodeNotTrained            = "NOT_TRAINED"
	ErrCodeSimilarityUnavailable = "SIMILARITY_UNAVAILABLE"
	ErrCodeTrainingInProgress    = "TRAINING_IN_PROGRESS"
	ErrCodeRateLimited           = "RATE_LIMITED"
	ErrCodeMethodNotAllowed      = "METHOD_NOT_ALLOWED"
	ErrCodeInternal              = "INTERNAL_ERROR"
)

// respondJSON writes response with an ETag computed over the body.
func respondJSON(w http.ResponseWriter, status int, response *models.APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")

	data, err := json.Marshal(response)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("ETag", generateETag(data))
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write JSON response")
	}
}

// respondSuccess wraps data in a success envelope.
func respondSuccess(w http.ResponseWriter, r *http.Request, status int, data interface{}, start time.Time) {
	respondJSON(w, status, &models.APIResponse{
		Status: "success",
		Data:   data,
		Metadata: models.Metadata{
			Timestamp:   time.Now(),
			QueryTimeMS: time.Since(start).Milliseconds(),
			RequestID:   logging.RequestIDFromContext(r.Context()),
		},
	})
}

// generateETag returns a quoted FNV-1a hash of data.
func generateETag(data []byte) string {
	h := fnv.New64a()
	_, _ = h.Write(data) //nolint:errcheck // hash writes never fail
	return `"` + strconv.FormatUint(h.Sum64(), 16) + `"`
}

// respondError sends an error response. Server errors are logged.
func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string, err error) {
	if err != nil && status >= http.StatusInternalServerError {
		logging.Ctx(r.Context()).Error().Str("code", code).Err(err).Msg("API Error")
	}

	respondJSON(w, status, &models.APIResponse{
		Status: "error",
		Metadata: models.Metadata{
			Timestamp: time.Now(),
			RequestID: logging.RequestIDFromContext(r.Context()),
		},
		Error: &models.APIError{
			Code:    code,
			Message: message,
		},
	})
}

// respondValidationError sends a 400 with per-field details.
func respondValidationError(w http.ResponseWriter, r *http.Request, verr *validation.RequestValidationError) {
	respondJSON(w, http.StatusBadRequest, &models.APIResponse{
		Status: "error",
		Metadata: models.Metadata{
			Timestamp: time.Now(),
			RequestID: logging.RequestIDFromContext(r.Context()),
		},
		Error: &models.APIError{
			Code:    ErrCodeValidation,
			Message: verr.Error(),
			Details: verr.Details(),
		},
	})
}

// respondEngineError maps engine errors to HTTP status codes.
func respondEngineError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case recommend.IsValidationError(err):
		respondError(w, r, http.StatusBadRequest, ErrCodeValidation, err.Error(), err)
	case errors.Is(err, recommend.ErrUnknownUser), errors.Is(err, recommend.ErrUnknownItem):
		respondError(w, r, http.StatusNotFound, ErrCodeNotFound, err.Error(), err)
	case errors.Is(err, recommend.ErrNotTrained):
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeNotTrained, "No model has been trained yet", err)
	case errors.Is(err, recommend.ErrNoSimilarity):
		respondError(w, r, http.StatusConflict, ErrCodeSimilarityUnavailable, err.Error(), err)
	case errors.Is(err, recommend.ErrTrainingInProgress):
		respondError(w, r, http.StatusConflict, ErrCodeTrainingInProgress, "Training is already in progress", err)
	default:
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternal, "Internal server error", err)
	}
}
