// Last.fm Recommender - Collaborative Filtering for Implicit Feedback
// Copyright 2026 alabarga
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/alabarga/last-fm-recommender-system

// Package events carries training lifecycle events over an in-process
// Watermill bus.
//
// The engine notifies a TrainingPublisher after each model swap, which
// publishes a ModelTrained JSON payload on TopicModelTrained. Consumers are
// registered on a Bus router before it starts:
//
//	bus, _ := events.NewBus(events.DefaultBusConfig(), watermill.NewSlogLogger(slogger))
//	bus.AddConsumerHandler("cache-invalidation", events.TopicModelTrained, events.NewCacheInvalidationHandler(engine))
//	bus.AddConsumerHandler("training-history", events.TopicModelTrained, history.Handler())
//	engine.AddTrainingListener(events.NewTrainingPublisher(bus.Publisher()))
//	go bus.Serve(ctx)
//
// The gochannel transport does not persist messages. Events published while
// no router is running are dropped.
package events
