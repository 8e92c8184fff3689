// Last.fm Recommender - Collaborative Filtering for Implicit Feedback
// Copyright 2026 alabarga
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/alabarga/last-fm-recommender-system

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

func TestRecordTraining(t *testing.T) {
	tests := []struct {
		name   string
		mode   string
		err    error
		status string
	}{
		{name: "successful item-based run", mode: "item", status: "success"},
		{name: "failed user-based run", mode: "user", err: errors.New("no data"), status: "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := testutil.ToFloat64(TrainingRuns.WithLabelValues(tt.mode, tt.status))
			RecordTraining(tt.mode, 50*time.Millisecond, tt.err)
			after := testutil.ToFloat64(TrainingRuns.WithLabelValues(tt.mode, tt.status))
			if after-before != 1 {
				t.Errorf("training_runs_total{%s,%s} delta = %f, want 1", tt.mode, tt.status, after-before)
			}
		})
	}
}

func TestRecordDegeneracy(t *testing.T) {
	before := testutil.ToFloat64(NumericDegeneracies.WithLabelValues("zero_norm_pair"))
	RecordDegeneracy(1, 4, 0)
	after := testutil.ToFloat64(NumericDegeneracies.WithLabelValues("zero_norm_pair"))
	if after-before != 4 {
		t.Errorf("zero_norm_pair delta = %f, want 4", after-before)
	}
}

func TestSetModelSize(t *testing.T) {
	SetModelSize(3, 7, 11)

	if got := testutil.ToFloat64(ModelUsers); got != 3 {
		t.Errorf("ModelUsers = %f, want 3", got)
	}
	if got := testutil.ToFloat64(ModelItems); got != 7 {
		t.Errorf("ModelItems = %f, want 7", got)
	}
	if got := testutil.ToFloat64(ModelInteractions); got != 11 {
		t.Errorf("ModelInteractions = %f, want 11", got)
	}
}

func TestRecordRecommendation(t *testing.T) {
	tests := []struct {
		name     string
		cacheHit bool
		err      error
		result   string
	}{
		{name: "computed", result: "computed"},
		{name: "cache hit", cacheHit: true, result: "cache_hit"},
		{name: "error wins over cache hit", cacheHit: true, err: errors.New("boom"), result: "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := testutil.ToFloat64(RecommendationRequests.WithLabelValues(tt.result))
			RecordRecommendation(time.Millisecond, tt.cacheHit, tt.err)
			after := testutil.ToFloat64(RecommendationRequests.WithLabelValues(tt.result))
			if after-before != 1 {
				t.Errorf("requests_total{%s} delta = %f, want 1", tt.result, after-before)
			}
		})
	}
}

func TestRecordDBQuery(t *testing.T) {
	before := testutil.ToFloat64(DBQueryErrors.WithLabelValues("get_interactions"))
	RecordDBQuery("get_interactions", 5*time.Millisecond, nil)
	RecordDBQuery("get_interactions", 5*time.Millisecond, errors.New("connection refused"))
	after := testutil.ToFloat64(DBQueryErrors.WithLabelValues("get_interactions"))
	if after-before != 1 {
		t.Errorf("db errors delta = %f, want 1", after-before)
	}

	var m dto.Metric
	observer := DBQueryDuration.WithLabelValues("get_interactions")
	if err := observer.(interface{ Write(*dto.Metric) error }).Write(&m); err != nil {
		t.Fatalf("write histogram: %v", err)
	}
	if got := m.GetHistogram().GetSampleCount(); got < 2 {
		t.Errorf("histogram sample count = %d, want >= 2", got)
	}
}

func TestRecordCircuitBreakerTransition(t *testing.T) {
	RecordCircuitBreakerTransition("interactions", "closed", "open", 2)

	if got := testutil.ToFloat64(CircuitBreakerState.WithLabelValues("interactions")); got != 2 {
		t.Errorf("breaker state = %f, want 2", got)
	}
	if got := testutil.ToFloat64(CircuitBreakerTransitions.WithLabelValues("interactions", "closed", "open")); got < 1 {
		t.Errorf("transitions = %f, want >= 1", got)
	}
}

func TestTrackActiveRequest(t *testing.T) {
	before := testutil.ToFloat64(APIActiveRequests)
	TrackActiveRequest(true)
	TrackActiveRequest(true)
	TrackActiveRequest(false)
	if got := testutil.ToFloat64(APIActiveRequests) - before; got != 1 {
		t.Errorf("active requests delta = %f, want 1", got)
	}
}

func TestRecordEvents(t *testing.T) {
	RecordEventPublished("model.trained", nil)
	RecordEventPublished("model.trained", errors.New("closed"))
	RecordEventHandled("model.trained")
	RecordSnapshotWrite(nil)

	if got := testutil.ToFloat64(EventsPublished.WithLabelValues("model.trained", "error")); got < 1 {
		t.Errorf("published errors = %f, want >= 1", got)
	}
	if got := testutil.ToFloat64(EventsHandled.WithLabelValues("model.trained")); got < 1 {
		t.Errorf("handled = %f, want >= 1", got)
	}
}
