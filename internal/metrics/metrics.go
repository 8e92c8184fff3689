// Last.fm Recommender - Collaborative Filtering for Implicit Feedback
// Copyright 2026 alabarga
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/alabarga/last-fm-recommender-system

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Training Metrics
	TrainingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recommend_training_duration_seconds",
			Help:    "Duration of recommendation model training runs in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300, 900},
		},
		[]string{"mode"},
	)

	TrainingRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommend_training_runs_total",
			Help: "Total number of training runs by outcome",
		},
		[]string{"mode", "status"}, // status: "success", "error"
	)

	TrainingLastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "recommend_training_last_success_timestamp",
			Help: "Unix timestamp of the last successful training run",
		},
	)

	// NumericDegeneracies counts fallbacks applied instead of dividing by zero
	NumericDegeneracies = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommend_numeric_degeneracies_total",
			Help: "Numeric degeneracies absorbed by fallback values",
		},
		[]string{"kind"}, // "zero_norm_vector", "zero_norm_pair", "zero_similarity_sum"
	)

	// Model Size Metrics
	ModelUsers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "recommend_model_users",
			Help: "Number of users in the current model",
		},
	)

	ModelItems = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "recommend_model_items",
			Help: "Number of items in the current model",
		},
	)

	ModelInteractions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "recommend_model_interactions",
			Help: "Number of nonzero user-item cells in the current model",
		},
	)

	// Serving Metrics
	RecommendationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recommend_request_duration_seconds",
			Help:    "Duration of recommendation requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	RecommendationRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommend_requests_total",
			Help: "Total number of recommendation requests by result",
		},
		[]string{"result"}, // "computed", "cache_hit", "error"
	)

	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Number of API requests currently being processed",
		},
	)

	// Database Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// Event Metrics
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_published_total",
			Help: "Total number of events published by topic and outcome",
		},
		[]string{"topic", "status"},
	)

	EventsHandled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_handled_total",
			Help: "Total number of events consumed by topic",
		},
		[]string{"topic"},
	)

	// Snapshot Store Metrics
	SnapshotWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommend_snapshot_writes_total",
			Help: "Total number of recommendation snapshot writes by outcome",
		},
		[]string{"status"},
	)
)

func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// RecordTraining records the outcome of one training run.
func RecordTraining(mode string, duration time.Duration, err error) {
	TrainingDuration.WithLabelValues(mode).Observe(duration.Seconds())
	TrainingRuns.WithLabelValues(mode, statusLabel(err)).Inc()
	if err == nil {
		TrainingLastSuccess.Set(float64(time.Now().Unix()))
	}
}

// RecordDegeneracy adds the degeneracy counts of one training run.
func RecordDegeneracy(zeroNormVectors, zeroNormPairs, zeroSimilaritySums int64) {
	NumericDegeneracies.WithLabelValues("zero_norm_vector").Add(float64(zeroNormVectors))
	NumericDegeneracies.WithLabelValues("zero_norm_pair").Add(float64(zeroNormPairs))
	NumericDegeneracies.WithLabelValues("zero_similarity_sum").Add(float64(zeroSimilaritySums))
}

// SetModelSize updates the model size gauges.
func SetModelSize(users, items, interactions int) {
	ModelUsers.Set(float64(users))
	ModelItems.Set(float64(items))
	ModelInteractions.Set(float64(interactions))
}

// RecordRecommendation records a served recommendation request.
func RecordRecommendation(duration time.Duration, cacheHit bool, err error) {
	RecommendationDuration.Observe(duration.Seconds())
	switch {
	case err != nil:
		RecommendationRequests.WithLabelValues("error").Inc()
	case cacheHit:
		RecommendationRequests.WithLabelValues("cache_hit").Inc()
	default:
		RecommendationRequests.WithLabelValues("computed").Inc()
	}
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordDBQuery records a database query metric
func RecordDBQuery(operation string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation).Inc()
	}
}

// RecordCircuitBreakerTransition records a breaker state change. States are
// encoded 0=closed, 1=half-open, 2=open.
func RecordCircuitBreakerTransition(name, from, to string, state int) {
	CircuitBreakerTransitions.WithLabelValues(name, from, to).Inc()
	CircuitBreakerState.WithLabelValues(name).Set(float64(state))
}

// RecordEventPublished records a published event.
func RecordEventPublished(topic string, err error) {
	EventsPublished.WithLabelValues(topic, statusLabel(err)).Inc()
}

// RecordEventHandled records a consumed event.
func RecordEventHandled(topic string) {
	EventsHandled.WithLabelValues(topic).Inc()
}

// RecordSnapshotWrite records a snapshot store write.
func RecordSnapshotWrite(err error) {
	SnapshotWrites.WithLabelValues(statusLabel(err)).Inc()
}
