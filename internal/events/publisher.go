// Last.fm Recommender - Collaborative Filtering for Implicit Feedback
// Copyright 2026 alabarga
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/alabarga/last-fm-recommender-system

package events

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/alabarga/last-fm-recommender-system/internal/logging"
	"github.com/alabarga/last-fm-recommender-system/internal/metrics"
	"github.com/alabarga/last-fm-recommender-system/internal/recommend"
)

// Metadata keys set on every published message.
const (
	MetadataRunID     = "run_id"
	MetadataVersion   = "model_version"
	MetadataRequestID = "request_id"
)

// TrainingPublisher publishes a ModelTrained event for every completed
// training run. It implements recommend.TrainingListener.
type TrainingPublisher struct {
	publisher message.Publisher
	topic     string
}

// NewTrainingPublisher creates a publisher writing to TopicModelTrained.
func NewTrainingPublisher(publisher message.Publisher) *TrainingPublisher {
	return &TrainingPublisher{publisher: publisher, topic: TopicModelTrained}
}

// ModelTrained implements recommend.TrainingListener.
func (p *TrainingPublisher) ModelTrained(ctx context.Context, status recommend.TrainingStatus) (err error) {
	defer func() { metrics.RecordEventPublished(p.topic, err) }()

	event := FromStatus(&status)
	payload, err := event.Marshal()
	if err != nil {
		return err
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set(MetadataRunID, status.RunID)
	msg.Metadata.Set(MetadataVersion, fmt.Sprintf("%d", status.ModelVersion))
	if id := logging.RequestIDFromContext(ctx); id != "" {
		msg.Metadata.Set(MetadataRequestID, id)
	}

	if err := p.publisher.Publish(p.topic, msg); err != nil {
		return fmt.Errorf("publish %s: %w", p.topic, err)
	}
	return nil
}
