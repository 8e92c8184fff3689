// Last.fm Recommender - Collaborative Filtering for Implicit Feedback
// Copyright 2026 alabarga
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/alabarga/last-fm-recommender-system

package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/alabarga/last-fm-recommender-system/internal/events"
	"github.com/alabarga/last-fm-recommender-system/internal/logging"
	"github.com/alabarga/last-fm-recommender-system/internal/models"
	"github.com/alabarga/last-fm-recommender-system/internal/recommend"
)

// TriggerTraining handles POST /api/v1/train.
//
// By default training runs in the background and the handler answers 202.
// With ?wait=true the handler trains synchronously and answers 200 with the
// resulting status.
func (h *Handler) TriggerTraining(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	wait, verr := parseBoolParam(r, "wait")
	if verr != nil {
		respondValidationError(w, r, verr)
		return
	}

	if !h.trainLimiter.Allow() {
		respondError(w, r, http.StatusTooManyRequests, ErrCodeRateLimited, "Training was triggered too recently", nil)
		return
	}

	if h.engine.Status().IsTraining {
		respondEngineError(w, r, recommend.ErrTrainingInProgress)
		return
	}

	requestID := logging.RequestIDFromContext(r.Context())

	if wait != nil && *wait {
		ctx := logging.ContextWithRequestID(r.Context(), requestID)
		if err := h.engine.Train(ctx); err != nil {
			respondEngineError(w, r, err)
			return
		}
		respondSuccess(w, r, http.StatusOK, h.engine.Status(), start)
		return
	}

	ctx := logging.ContextWithRequestID(h.baseCtx, requestID)
	h.training.Add(1)
	go func() {
		defer h.training.Done()
		if err := h.engine.Train(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logging.Ctx(ctx).Error().Err(err).Msg("Background training failed")
		}
	}()

	respondSuccess(w, r, http.StatusAccepted, &models.TrainResponse{
		Accepted: true,
		Message:  "Training started",
	}, start)
}

// GetStatus handles GET /api/v1/status.
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, r, http.StatusOK, &models.StatusResponse{
		Training: h.engine.Status(),
		Engine:   h.engine.GetMetrics(),
	}, time.Now())
}

// GetDiagnostics handles GET /api/v1/diagnostics.
func (h *Handler) GetDiagnostics(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, r, http.StatusOK, h.engine.Diagnostics(), time.Now())
}

// GetTrainingHistory handles GET /api/v1/training/history.
func (h *Handler) GetTrainingHistory(w http.ResponseWriter, r *http.Request) {
	history := []events.ModelTrained{}
	if h.history != nil {
		if evs := h.history.Events(); evs != nil {
			history = evs
		}
	}
	respondSuccess(w, r, http.StatusOK, history, time.Now())
}
