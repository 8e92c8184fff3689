// Last.fm Recommender - Collaborative Filtering for Implicit Feedback
// Copyright 2026 alabarga
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/alabarga/last-fm-recommender-system

package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/alabarga/last-fm-recommender-system/internal/validation"
)

// RecommendationsRequest holds the parameters of GET /recommendations/{userID}.
type RecommendationsRequest struct {
	UserID string `json:"user_id" validate:"identifier,max=256"`

	// N is the list length. Zero selects the configured default.
	N int `query:"n" validate:"gte=0"`

	// ExcludeSeen overrides the configured policy when set.
	ExcludeSeen *bool `query:"exclude_seen"`
}

// SimilarRequest holds the parameters of the similar items/users endpoints.
type SimilarRequest struct {
	ID string `json:"id" validate:"identifier,max=256"`
	N  int    `query:"n" validate:"gte=0"`
}

// EntityRequest holds a single path identifier.
type EntityRequest struct {
	ID string `json:"id" validate:"identifier,max=256"`
}

// parseIntParam reads an integer query parameter. Missing means def.
func parseIntParam(r *http.Request, name string, def int) (int, *validation.RequestValidationError) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, paramError(name, "int", raw, name+" must be an integer")
	}
	return v, nil
}

// parseBoolParam reads an optional boolean query parameter.
func parseBoolParam(r *http.Request, name string) (*bool, *validation.RequestValidationError) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, paramError(name, "bool", raw, name+" must be a boolean")
	}
	return &v, nil
}

func paramError(field, tag, value, message string) *validation.RequestValidationError {
	return &validation.RequestValidationError{Fields: []validation.FieldError{{
		Field:   field,
		Tag:     tag,
		Value:   value,
		Message: message,
	}}}
}

// parseRecommendationsRequest builds and validates a RecommendationsRequest.
func parseRecommendationsRequest(r *http.Request) (*RecommendationsRequest, *validation.RequestValidationError) {
	n, verr := parseIntParam(r, "n", 0)
	if verr != nil {
		return nil, verr
	}
	exclude, verr := parseBoolParam(r, "exclude_seen")
	if verr != nil {
		return nil, verr
	}
	req := &RecommendationsRequest{
		UserID:      chi.URLParam(r, "userID"),
		N:           n,
		ExcludeSeen: exclude,
	}
	if verr := validation.ValidateStruct(req); verr != nil {
		return nil, verr
	}
	return req, nil
}

// parseSimilarRequest builds and validates a SimilarRequest for the path
// parameter param.
func parseSimilarRequest(r *http.Request, param string) (*SimilarRequest, *validation.RequestValidationError) {
	n, verr := parseIntParam(r, "n", 0)
	if verr != nil {
		return nil, verr
	}
	req := &SimilarRequest{ID: chi.URLParam(r, param), N: n}
	if verr := validation.ValidateStruct(req); verr != nil {
		return nil, verr
	}
	return req, nil
}
