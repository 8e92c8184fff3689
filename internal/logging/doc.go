// Last.fm Recommender - Collaborative Filtering for Implicit Feedback
// Copyright 2026 alabarga
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/alabarga/last-fm-recommender-system

// Package logging provides zerolog-based structured logging for the
// recommender service.
//
// A global logger is configured once from main:
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//	logging.Info().Str("addr", addr).Msg("server starting")
//
// Components take a zerolog.Logger by value and tag it with a component
// field:
//
//	engine, err := recommend.NewEngine(cfg, logging.WithComponent("recommend"))
//
// HTTP handlers use Ctx to pick up the request ID stored by middleware:
//
//	logging.Ctx(r.Context()).Warn().Err(err).Msg("training request rejected")
//
// SlogHandler bridges slog-based libraries (sutureslog, watermill) onto the
// same zerolog output.
//
// Always terminate log chains with .Msg() or .Send(); an unterminated
// event is never written.
package logging
