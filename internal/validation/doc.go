// Last.fm Recommender - Collaborative Filtering for Implicit Feedback
// Copyright 2026 alabarga
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/alabarga/last-fm-recommender-system

// Package validation provides struct validation using go-playground/validator v10.
//
// A single validator instance is shared process-wide; it caches struct
// metadata after the first use. Field names in error messages come from the
// json, query or koanf tag, so API clients see the parameter they sent:
//
//	type recommendationsQuery struct {
//	    UserID string `query:"user_id" validate:"identifier"`
//	    N      int    `query:"n" validate:"gte=0,lte=500"`
//	}
//
//	if verr := validation.ValidateStruct(&q); verr != nil {
//	    respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", verr.Error(), verr)
//	    return
//	}
//
// # Custom Rules
//
//   - identifier: the string must contain a non-space character
package validation
