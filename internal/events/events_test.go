// Last.fm Recommender - Collaborative Filtering for Implicit Feedback
// Copyright 2026 alabarga
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/alabarga/last-fm-recommender-system

package events

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/alabarga/last-fm-recommender-system/internal/logging"
	"github.com/alabarga/last-fm-recommender-system/internal/recommend"
)

type countingInvalidator struct {
	calls atomic.Int32
	done  chan struct{}
}

func newCountingInvalidator() *countingInvalidator {
	return &countingInvalidator{done: make(chan struct{}, 16)}
}

func (c *countingInvalidator) InvalidateCache() {
	c.calls.Add(1)
	c.done <- struct{}{}
}

type failingPublisher struct{}

func (failingPublisher) Publish(string, ...*message.Message) error { return errors.New("closed") }
func (failingPublisher) Close() error                              { return nil }

func testStatus() recommend.TrainingStatus {
	return recommend.TrainingStatus{
		RunID:                  "run-1",
		ModelVersion:           3,
		Mode:                   recommend.ModeItemBased,
		UserCount:              2,
		ItemCount:              2,
		InteractionCount:       3,
		LastTrainingDurationMS: 12,
		LastTrainedAt:          time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Evaluation:             recommend.Evaluation{RMSE: 0.5, MAE: 0.25, Observed: 3},
		Diagnostics:            recommend.DiagnosticsSnapshot{ZeroNormVectors: 1},
	}
}

// startBus runs a bus until the test ends.
func startBus(t *testing.T, register func(*Bus)) *Bus {
	t.Helper()
	cfg := DefaultBusConfig()
	cfg.CloseTimeout = time.Second
	bus, err := NewBus(cfg, watermill.NopLogger{})
	if err != nil {
		t.Fatalf("NewBus() error = %v", err)
	}
	register(bus)

	ctx, cancel := context.WithCancel(context.Background())
	served := make(chan error, 1)
	go func() { served <- bus.Serve(ctx) }()

	select {
	case <-bus.Running():
	case <-time.After(5 * time.Second):
		t.Fatal("bus did not start")
	}

	t.Cleanup(func() {
		cancel()
		if err := bus.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
		<-served
	})
	return bus
}

func TestModelTrained_RoundTrip(t *testing.T) {
	status := testStatus()
	event := FromStatus(&status)

	data, err := event.Marshal()
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	got, err := UnmarshalModelTrained(data)
	if err != nil {
		t.Fatalf("UnmarshalModelTrained() error = %v", err)
	}
	if got.RunID != "run-1" || got.ModelVersion != 3 || got.Mode != recommend.ModeItemBased {
		t.Errorf("decoded = %+v", got)
	}
	if !got.TrainedAt.Equal(status.LastTrainedAt) {
		t.Errorf("TrainedAt = %v, want %v", got.TrainedAt, status.LastTrainedAt)
	}
	if got.Diagnostics.ZeroNormVectors != 1 {
		t.Errorf("ZeroNormVectors = %d, want 1", got.Diagnostics.ZeroNormVectors)
	}

	if _, err := UnmarshalModelTrained([]byte("{not json")); err == nil {
		t.Error("UnmarshalModelTrained should fail on malformed input")
	}
}

func TestTrainingPublisher_DeliversToHandlers(t *testing.T) {
	inv := newCountingInvalidator()
	history := NewHistory(10)
	bus := startBus(t, func(b *Bus) {
		b.AddConsumerHandler("cache-invalidation", TopicModelTrained, NewCacheInvalidationHandler(inv))
		b.AddConsumerHandler("training-history", TopicModelTrained, history.Handler())
	})

	if got := len(bus.Handlers()); got != 2 {
		t.Fatalf("Handlers() = %d, want 2", got)
	}

	pub := NewTrainingPublisher(bus.Publisher())
	ctx := logging.ContextWithRequestID(context.Background(), "req-1")
	if err := pub.ModelTrained(ctx, testStatus()); err != nil {
		t.Fatalf("ModelTrained() error = %v", err)
	}

	select {
	case <-inv.done:
	case <-time.After(5 * time.Second):
		t.Fatal("cache invalidation handler not called")
	}

	deadline := time.Now().Add(5 * time.Second)
	for len(history.Events()) == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	events := history.Events()
	if len(events) != 1 {
		t.Fatalf("history has %d events, want 1", len(events))
	}
	if events[0].ModelVersion != 3 {
		t.Errorf("ModelVersion = %d, want 3", events[0].ModelVersion)
	}
}

func TestTrainingPublisher_PublishError(t *testing.T) {
	pub := NewTrainingPublisher(failingPublisher{})
	if err := pub.ModelTrained(context.Background(), testStatus()); err == nil {
		t.Fatal("ModelTrained() should fail when publishing fails")
	}
}

func TestCacheInvalidationHandler_MalformedPayload(t *testing.T) {
	inv := newCountingInvalidator()
	handler := NewCacheInvalidationHandler(inv)

	msg := message.NewMessage(watermill.NewUUID(), []byte("garbage"))
	if err := handler(msg); err != nil {
		t.Fatalf("handler error = %v, want nil (ack)", err)
	}
	if inv.calls.Load() != 0 {
		t.Error("malformed payload must not invalidate the cache")
	}
}

func TestHistory_Limit(t *testing.T) {
	h := NewHistory(2)
	for v := 1; v <= 3; v++ {
		h.Add(ModelTrained{ModelVersion: v})
	}
	events := h.Events()
	if len(events) != 2 {
		t.Fatalf("len(Events()) = %d, want 2", len(events))
	}
	if events[0].ModelVersion != 3 || events[1].ModelVersion != 2 {
		t.Errorf("Events() versions = [%d %d], want [3 2]", events[0].ModelVersion, events[1].ModelVersion)
	}

	if NewHistory(0).limit != 1 {
		t.Error("NewHistory(0) should clamp the limit to 1")
	}
}

func TestBus_CloseIdempotent(t *testing.T) {
	bus, err := NewBus(DefaultBusConfig(), nil)
	if err != nil {
		t.Fatalf("NewBus() error = %v", err)
	}
	if err := bus.Close(); err != nil {
		t.Fatalf("first Close() error = %v", err)
	}
	if err := bus.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}
	if bus.String() != "event-bus" {
		t.Errorf("String() = %q, want event-bus", bus.String())
	}
}

func TestZerologAdapter(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewZerologAdapter(logging.NewTestLogger(&buf)).With(watermill.LogFields{"topic": TopicModelTrained})

	adapter.Info("handler started", watermill.LogFields{"handler": "history"})
	adapter.Error("handler failed", errors.New("boom"), nil)

	out := buf.String()
	for _, want := range []string{`"topic":"model.trained"`, `"handler":"history"`, `"error":"boom"`, "handler failed"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %s:\n%s", want, out)
		}
	}
}
