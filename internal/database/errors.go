// Last.fm Recommender - Collaborative Filtering for Implicit Feedback
// Copyright 2026 alabarga
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/alabarga/last-fm-recommender-system

package database

import (
	"errors"
	"io"
	"strings"

	"github.com/alabarga/last-fm-recommender-system/internal/logging"
)

// ErrInvalidRows is returned when an import contains rows that fail
// validation. Nothing is inserted in that case.
var ErrInvalidRows = errors.New("database: import contains invalid rows")

// closeWithLog closes a resource and logs any error.
func closeWithLog(closer io.Closer, resourceType string) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		logging.Warn().Str("type", resourceType).Err(err).Msg("Failed to close resource")
	}
}

// closeQuietly closes a resource and explicitly ignores any error.
// Use this in error paths where Close() errors are not actionable.
func closeQuietly(closer io.Closer) {
	if closer != nil {
		_ = closer.Close()
	}
}

// quoteLiteral renders s as a SQL string literal. DuckDB table functions
// and SET statements do not accept bound parameters.
func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
