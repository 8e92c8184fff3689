// Last.fm Recommender - Collaborative Filtering for Implicit Feedback
// Copyright 2026 alabarga
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/alabarga/last-fm-recommender-system


package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/alabarga/last-fm-recommender-system/internal/logging"
	"github.com/alabarga/last-fm-recommender-system/internal/recommend"
)

// Trainer runs one training cycle. *recommend.Engine satisfies it.
type Trainer interface {
	Train(ctx context.Context) error
}

// TrainingServiceConfig controls when the service trains.
type TrainingServiceConfig struct {
	// TrainOnStartup trains once as soon as the service starts.
	TrainOnStartup bool

	// Interval between scheduled runs. Zero disables scheduling.
	Interval time.Duration
}

// TrainingService drives the engine's training lifecycle.
//
// Failed runs are logged and retried at the next tick; the service itself
// only returns when its context ends, so suture never restarts it for a bad
// dataset. A run that overlaps a manual trigger is skipped.
type TrainingService struct {
	trainer Trainer
	config  TrainingServiceConfig
	logger  zerolog.Logger
}

// NewTrainingService creates a training service.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewTrainingService(trainer Trainer, cfg TrainingServiceConfig, logger zerolog.Logger) *TrainingService {
	return &TrainingService{
		trainer: trainer,
		config:  cfg,
		logger:  logger.With().Str("service", "training").Logger(),
	}
}

// Serve implements suture.Service.
func (s *TrainingService) Serve(ctx context.Context) error {
	s.logger.Info().
		Bool("train_on_startup", s.config.TrainOnStartup).
		Dur("interval", s.config.Interval).
		Msg("training service starting")

	if s.config.TrainOnStartup {
		s.run(ctx, "startup")
	}

	if s.config.Interval <= 0 {
		<-ctx.Done()
		return ctx.Err()
	}

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("training service shutting down")
			return ctx.Err()
		case <-ticker.C:
			s.run(ctx, "schedule")
		}
	}
}

func (s *TrainingService) run(ctx context.Context, trigger string) {
	ctx = logging.ContextWithRequestID(ctx, logging.GenerateRequestID())
	start := time.Now()

	err := s.trainer.Train(ctx)
	switch {
	case err == nil:
		s.logger.Info().Str("trigger", trigger).Dur("duration", time.Since(start)).Msg("training complete")
	case errors.Is(err, recommend.ErrTrainingInProgress):
		s.logger.Debug().Str("trigger", trigger).Msg("training already running, skipped")
	case ctx.Err() != nil:
		// Shutdown interrupted the run.
	default:
		s.logger.Warn().Err(err).Str("trigger", trigger).Msg("training failed, will retry on schedule")
	}
}

// String implements fmt.Stringer for suture logs.
func (s *TrainingService) String() string {
	return "training-service"
}
