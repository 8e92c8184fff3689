// Last.fm Recommender - Collaborative Filtering for Implicit Feedback
// Copyright 2026 alabarga
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/alabarga/last-fm-recommender-system

package api

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/alabarga/last-fm-recommender-system/internal/events"
	"github.com/alabarga/last-fm-recommender-system/internal/middleware"
	"github.com/alabarga/last-fm-recommender-system/internal/recommend"
)

// Pinger reports database liveness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// TrainingHistory lists recently published training events.
type TrainingHistory interface {
	Events() []events.ModelTrained
}

// HandlerConfig holds the dependencies of a Handler. Engine is required.
type HandlerConfig struct {
	Engine      *recommend.Engine
	DB          Pinger
	History     TrainingHistory
	Performance *middleware.PerformanceMonitor

	// TrainInterval and TrainBurst throttle POST /train. A zero interval
	// allows one request per minute.
	TrainInterval time.Duration
	TrainBurst    int

	// BaseContext parents asynchronous training runs. Defaults to
	// context.Background().
	BaseContext context.Context
}

// Handler contains dependencies for API handlers.
//
// Handler methods are split across multiple files:
//   - handlers.go: Handler struct and constructor (this file)
//   - handlers_recommend.go: recommendation, prediction and similarity endpoints
//   - handlers_training.go: training trigger, status and history endpoints
//   - handlers_health.go: health and performance endpoints
type Handler struct {
	engine    *recommend.Engine
	db        Pinger
	history   TrainingHistory
	perfMon   *middleware.PerformanceMonitor
	startTime time.Time

	trainLimiter *rate.Limiter
	baseCtx      context.Context
	training     sync.WaitGroup
}

// NewHandler creates a Handler from cfg.
func NewHandler(cfg HandlerConfig) *Handler {
	interval := cfg.TrainInterval
	if interval <= 0 {
		interval = time.Minute
	}
	burst := cfg.TrainBurst
	if burst <= 0 {
		burst = 1
	}
	base := cfg.BaseContext
	if base == nil {
		base = context.Background()
	}
	perf := cfg.Performance
	if perf == nil {
		perf = middleware.NewPerformanceMonitor(1000, time.Second)
	}

	return &Handler{
		engine:       cfg.Engine,
		db:           cfg.DB,
		history:      cfg.History,
		perfMon:      perf,
		startTime:    time.Now(),
		trainLimiter: rate.NewLimiter(rate.Every(interval), burst),
		baseCtx:      base,
	}
}

// Wait blocks until asynchronous training runs started by the handler finish.
func (h *Handler) Wait() {
	h.training.Wait()
}

// PerformanceMonitor returns the monitor fed by the router middleware.
func (h *Handler) PerformanceMonitor() *middleware.PerformanceMonitor {
	return h.perfMon
}
