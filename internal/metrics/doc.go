// Last.fm Recommender - Collaborative Filtering for Implicit Feedback
// Copyright 2026 alabarga
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/alabarga/last-fm-recommender-system

/*
Package metrics provides Prometheus metrics for the recommender service.

Metrics are registered on the default registry through promauto and exposed
at /metrics in Prometheus text format:

	curl http://localhost:8080/metrics

# Available Metrics

Training:
  - recommend_training_duration_seconds{mode}
  - recommend_training_runs_total{mode,status}
  - recommend_training_last_success_timestamp
  - recommend_numeric_degeneracies_total{kind}
  - recommend_model_users, recommend_model_items, recommend_model_interactions

Serving:
  - recommend_request_duration_seconds
  - recommend_requests_total{result}
  - recommend_snapshot_writes_total{status}

Infrastructure:
  - api_requests_total, api_request_duration_seconds, api_active_requests
  - duckdb_query_duration_seconds, duckdb_query_errors_total
  - circuit_breaker_state, circuit_breaker_transitions_total
  - events_published_total, events_handled_total

# Usage

	start := time.Now()
	err := engine.Train(ctx)
	metrics.RecordTraining("item", time.Since(start), err)
*/
package metrics
