// Last.fm Recommender - Collaborative Filtering for Implicit Feedback
// Copyright 2026 alabarga
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/alabarga/last-fm-recommender-system

/*
Package api serves the recommendation engine over HTTP.

Routes:

	GET  /health                              database and model health
	GET  /metrics                             Prometheus metrics
	GET  /api/v1/recommendations/{userID}     top-N list (?n=, ?exclude_seen=)
	GET  /api/v1/predictions/{userID}         full prediction row
	GET  /api/v1/similar/items/{itemID}       nearest items (?n=)
	GET  /api/v1/similar/users/{userID}       nearest users (?n=)
	POST /api/v1/train                        start training (?wait=true to block)
	GET  /api/v1/status                       training status and engine counters
	GET  /api/v1/diagnostics                  degeneracy counters of the current model
	GET  /api/v1/training/history             recent model.trained events
	GET  /api/v1/performance                  per-route latency percentiles

Every response uses the models.APIResponse envelope. Engine errors are mapped
to status codes by respondEngineError:

	validation error         400 VALIDATION_ERROR
	unknown user or item     404 NOT_FOUND
	no similarity matrix     409 SIMILARITY_UNAVAILABLE
	training already active  409 TRAINING_IN_PROGRESS
	too many requests        429 RATE_LIMITED
	no model trained         503 NOT_TRAINED

Routing uses go-chi/chi with go-chi/cors and go-chi/httprate. The training
trigger is additionally throttled by a golang.org/x/time/rate limiter.
*/
package api
