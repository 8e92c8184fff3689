// Last.fm Recommender - Collaborative Filtering for Implicit Feedback
// Copyright 2026 alabarga
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/alabarga/last-fm-recommender-system

package database

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/alabarga/last-fm-recommender-system/internal/logging"
	"github.com/alabarga/last-fm-recommender-system/internal/metrics"
	"github.com/alabarga/last-fm-recommender-system/internal/recommend"
)

// InteractionSource is the read side of the interaction log.
type InteractionSource interface {
	GetInteractions(ctx context.Context) ([]recommend.InteractionRecord, error)
}

// BreakerSettings configures the InteractionProvider circuit breaker.
type BreakerSettings struct {
	Name string

	// ConsecutiveFailures opens the circuit.
	ConsecutiveFailures uint32

	// Timeout is how long the circuit stays open before a trial request.
	Timeout time.Duration
}

// InteractionProvider feeds training runs from an InteractionSource behind a
// circuit breaker, so a failing database is not hammered by retraining.
//
// DETERMINISM NOTE: gobreaker uses wall-clock time for Timeout. Tests that
// exercise recovery use a short Timeout and wait for it.
type InteractionProvider struct {
	source InteractionSource
	cb     *gobreaker.CircuitBreaker[[]recommend.InteractionRecord]
	name   string
}

// NewInteractionProvider wraps source with a circuit breaker.
func NewInteractionProvider(source InteractionSource, s BreakerSettings) *InteractionProvider {
	if s.Name == "" {
		s.Name = "interactions"
	}
	if s.ConsecutiveFailures == 0 {
		s.ConsecutiveFailures = 5
	}
	if s.Timeout <= 0 {
		s.Timeout = 30 * time.Second
	}

	metrics.CircuitBreakerState.WithLabelValues(s.Name).Set(0)

	cb := gobreaker.NewCircuitBreaker[[]recommend.InteractionRecord](gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: 1,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			trip := counts.ConsecutiveFailures >= s.ConsecutiveFailures
			if trip {
				logging.Warn().Uint32("consecutive_failures", counts.ConsecutiveFailures).Msg("[CIRCUIT BREAKER] Opening circuit")
			}
			return trip
		},
		// A cancelled training run says nothing about database health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("[CIRCUIT BREAKER] State transition")
			metrics.RecordCircuitBreakerTransition(name, from.String(), to.String(), stateToInt(to))
		},
	})

	return &InteractionProvider{source: source, cb: cb, name: s.Name}
}

// GetInteractions implements recommend.DataProvider.
func (p *InteractionProvider) GetInteractions(ctx context.Context) ([]recommend.InteractionRecord, error) {
	records, err := p.cb.Execute(func() ([]recommend.InteractionRecord, error) {
		return p.source.GetInteractions(ctx)
	})
	if err != nil && (errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)) {
		logging.Warn().Err(err).Str("breaker", p.name).Msg("[CIRCUIT BREAKER] Request rejected")
	}
	return records, err
}

// State returns the current breaker state name.
func (p *InteractionProvider) State() string {
	return p.cb.State().String()
}

// stateToInt converts circuit breaker state to a gauge value.
func stateToInt(state gobreaker.State) int {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
