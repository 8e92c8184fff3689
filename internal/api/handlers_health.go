// Last.fm Recommender - Collaborative Filtering for Implicit Feedback
// Copyright 2026 alabarga
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/alabarga/last-fm-recommender-system

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/alabarga/last-fm-recommender-system/internal/middleware"
	"github.com/alabarga/last-fm-recommender-system/internal/models"
)

// performanceResponse is the payload of GET /api/v1/performance.
type performanceResponse struct {
	Endpoints []middleware.EndpointStats `json:"endpoints"`
	Recent    []middleware.RequestSample `json:"recent"`
}

// Health handles GET /health. The service is unhealthy when the database
// does not answer; a missing model only marks it degraded.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	dbConnected := true
	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		dbConnected = h.db.Ping(ctx) == nil
		cancel()
	}

	_, version, err := h.engine.Model()
	modelLoaded := err == nil

	status := "healthy"
	code := http.StatusOK
	switch {
	case !dbConnected:
		status = "unhealthy"
		code = http.StatusServiceUnavailable
	case !modelLoaded:
		status = "degraded"
	}

	respondSuccess(w, r, code, &models.HealthResponse{
		Status:       status,
		Database:     dbConnected,
		ModelLoaded:  modelLoaded,
		ModelVersion: version,
		Uptime:       time.Since(h.startTime).Seconds(),
		Timestamp:    time.Now(),
	}, start)
}

// GetPerformance handles GET /api/v1/performance.
func (h *Handler) GetPerformance(w http.ResponseWriter, r *http.Request) {
	n, verr := parseIntParam(r, "n", 50)
	if verr != nil {
		respondValidationError(w, r, verr)
		return
	}
	if n < 0 {
		respondValidationError(w, r, paramError("n", "gte", "", "n must not be negative"))
		return
	}
	stats := h.perfMon.Stats()
	if stats == nil {
		stats = []middleware.EndpointStats{}
	}
	recent := h.perfMon.Recent(n)
	if recent == nil {
		recent = []middleware.RequestSample{}
	}
	respondSuccess(w, r, http.StatusOK, &performanceResponse{Endpoints: stats, Recent: recent}, time.Now())
}
