// Last.fm Recommender - Collaborative Filtering for Implicit Feedback
// Copyright 2026 alabarga
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/alabarga/last-fm-recommender-system

// Package middleware provides chi-compatible HTTP middleware.
//
//   - RequestID: X-Request-ID propagation and request-scoped loggers
//   - PrometheusMetrics: request count, latency and in-flight gauges
//   - PerformanceMonitor: sliding-window latency percentiles per route
//
// Metrics and performance samples are labelled with the chi route pattern
// rather than the raw path, so they must run inside the router (r.Use on a
// chi.Router) to see the matched pattern.
package middleware
