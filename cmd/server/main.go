// Last.fm Recommender - Collaborative Filtering for Implicit Feedback
// Copyright 2026 alabarga
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/alabarga/last-fm-recommender-system


// Package main is the entry point of the recommendation server.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: defaults, config.yaml and environment variables (Koanf v2)
//  2. Logging: zerolog, bridged to slog for the supervisor
//  3. Database: DuckDB interaction log behind a circuit breaker
//  4. Engine: the collaborative-filtering engine with model and snapshot stores
//  5. Events: in-process Watermill bus publishing model.trained
//  6. HTTP server: chi REST API with Prometheus metrics
//  7. Supervisor tree: events, training schedule and HTTP layers (suture)
//
// # Signal Handling
//
// SIGINT and SIGTERM cancel the root context. The supervisor stops the HTTP
// server first, then the training loop and the event bus; the database and
// stores are closed last.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/alabarga/last-fm-recommender-system/internal/config"
	"github.com/alabarga/last-fm-recommender-system/internal/logging"
	"github.com/alabarga/last-fm-recommender-system/internal/supervisor"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(cfg.ToLoggingConfig())
	logging.Info().Str("addr", cfg.Server.Addr()).Str("mode", cfg.Recommend.Mode).Msg("Starting recommendation server")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	components, err := newApp(ctx, cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize application")
	}
	defer components.Close()

	tree := supervisor.NewTree(logging.NewSlogLogger(logging.WithComponent("supervisor")), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	components.register(tree)

	logging.Info().Msg("Supervisor tree starting")
	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor tree stopped with error")
	}

	if report, err := tree.UnstoppedServiceReport(); err == nil && len(report) > 0 {
		for _, svc := range report {
			logging.Warn().Str("service", svc.Name).Msg("Service did not stop within timeout")
		}
	}
	logging.Info().Msg("Server stopped")
}
