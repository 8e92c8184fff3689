// Last.fm Recommender - Collaborative Filtering for Implicit Feedback
// Copyright 2026 alabarga
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/alabarga/last-fm-recommender-system

package events

import (
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/alabarga/last-fm-recommender-system/internal/logging"
	"github.com/alabarga/last-fm-recommender-system/internal/metrics"
)

// CacheInvalidator drops cached responses.
type CacheInvalidator interface {
	InvalidateCache()
}

// NewCacheInvalidationHandler returns a handler that invalidates c on every
// ModelTrained event. Malformed payloads are acked and logged.
func NewCacheInvalidationHandler(c CacheInvalidator) message.NoPublishHandlerFunc {
	return func(msg *message.Message) error {
		event, err := UnmarshalModelTrained(msg.Payload)
		if err != nil {
			logging.Warn().Err(err).Str("message_uuid", msg.UUID).Msg("Dropping malformed training event")
			return nil
		}
		c.InvalidateCache()
		metrics.RecordEventHandled(TopicModelTrained)
		logging.Info().
			Str("run_id", event.RunID).
			Int("model_version", event.ModelVersion).
			Msg("Response cache invalidated after training")
		return nil
	}
}

// History keeps the most recent ModelTrained events, newest last.
type History struct {
	mu     sync.RWMutex
	events []ModelTrained
	limit  int
}

// NewHistory creates a history holding at most limit events.
func NewHistory(limit int) *History {
	if limit < 1 {
		limit = 1
	}
	return &History{limit: limit}
}

// Handler returns the consumer that records events into h.
func (h *History) Handler() message.NoPublishHandlerFunc {
	return func(msg *message.Message) error {
		event, err := UnmarshalModelTrained(msg.Payload)
		if err != nil {
			logging.Warn().Err(err).Str("message_uuid", msg.UUID).Msg("Dropping malformed training event")
			return nil
		}
		h.Add(event)
		metrics.RecordEventHandled(TopicModelTrained)
		return nil
	}
}

// Add appends an event, evicting the oldest beyond the limit.
func (h *History) Add(e ModelTrained) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, e)
	if over := len(h.events) - h.limit; over > 0 {
		h.events = append(h.events[:0:0], h.events[over:]...)
	}
}

// Events returns a copy of the recorded events, newest first.
func (h *History) Events() []ModelTrained {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]ModelTrained, len(h.events))
	for i, e := range h.events {
		out[len(h.events)-1-i] = e
	}
	return out
}
