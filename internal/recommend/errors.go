// Last.fm Recommender - Collaborative Filtering for Implicit Feedback
// Copyright 2026 alabarga
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/alabarga/last-fm-recommender-system

package recommend

import (
	"errors"
	"fmt"
)

var (
	// ErrNotTrained is returned when a model is requested before any training run completed.
	ErrNotTrained = errors.New("recommend: model not trained")

	// ErrUnknownUser is returned when the user has no row in the model.
	ErrUnknownUser = errors.New("recommend: unknown user")

	// ErrUnknownItem is returned when the item has no row in the model.
	ErrUnknownItem = errors.New("recommend: unknown item")

	// ErrTrainingInProgress is returned when Train is called while another run is active.
	ErrTrainingInProgress = errors.New("recommend: training already in progress")

	// ErrNoSimilarity is returned when a model carries no similarity matrix
	// for the requested axis.
	ErrNoSimilarity = errors.New("recommend: similarity matrix not available")

	// ErrInsufficientData is returned when fewer interactions than configured are available.
	ErrInsufficientData = errors.New("recommend: insufficient interactions")
)

// ValidationError reports malformed input. It is fatal for the build that
// produced it.
type ValidationError struct {
	// Field is the offending field name ("user_id", "item_id", "weight", "n").
	Field string

	// Index is the position of the offending element, or -1 when not applicable.
	Index int

	// Element names what Index counts ("coordinate", "cell", "id"). Empty
	// means an input record.
	Element string

	// Reason is a short human readable description.
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Index >= 0 {
		element := e.Element
		if element == "" {
			element = "record"
		}
		return fmt.Sprintf("validation: %s %d: %s %s", element, e.Index, e.Field, e.Reason)
	}
	return fmt.Sprintf("validation: %s %s", e.Field, e.Reason)
}

// DimensionError reports a shape mismatch between matrices, usually because
// they come from different builds.
type DimensionError struct {
	Op   string
	Want string
	Got  string
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("dimension mismatch in %s: want %s, got %s", e.Op, e.Want, e.Got)
}

// IsValidationError reports whether err is or wraps a *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsDimensionError reports whether err is or wraps a *DimensionError.
func IsDimensionError(err error) bool {
	var de *DimensionError
	return errors.As(err, &de)
}
