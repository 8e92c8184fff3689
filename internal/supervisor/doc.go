// Last.fm Recommender - Collaborative Filtering for Implicit Feedback
// Copyright 2026 alabarga
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/alabarga/last-fm-recommender-system


// Package supervisor runs the long-lived parts of the server under a
// thejerf/suture supervisor tree.
//
// Services that return an error are restarted with backoff; services that
// return after their context is cancelled are stopped. Supervisor events are
// logged through sutureslog into the process slog logger, which in turn is
// bridged to zerolog by logging.NewSlogLogger.
//
//	tree := supervisor.NewTree(logging.NewSlogLogger(logging.Logger()), supervisor.TreeConfig{})
//	tree.AddEventService(bus)
//	tree.AddEngineService(services.NewTrainingService(engine, cfg, logger))
//	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
//	err := tree.Serve(ctx)
package supervisor
