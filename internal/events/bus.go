// Last.fm Recommender - Collaborative Filtering for Implicit Feedback
// Copyright 2026 alabarga
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/alabarga/last-fm-recommender-system

package events

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// BusConfig holds configuration for the in-process event bus.
type BusConfig struct {
	// OutputBuffer is the per-subscriber channel buffer.
	OutputBuffer int64

	// CloseTimeout is how long to wait for handlers to finish when closing.
	CloseTimeout time.Duration

	// Retry configuration for failing handlers.
	RetryMaxRetries      int
	RetryInitialInterval time.Duration
}

// DefaultBusConfig returns defaults for the event bus.
func DefaultBusConfig() BusConfig {
	return BusConfig{
		OutputBuffer:         64,
		CloseTimeout:         10 * time.Second,
		RetryMaxRetries:      3,
		RetryInitialInterval: 100 * time.Millisecond,
	}
}

// Bus is an in-process pub/sub backed by Watermill's gochannel transport
// with a router dispatching messages to registered handlers.
type Bus struct {
	pubsub *gochannel.GoChannel
	router *message.Router
	logger watermill.LoggerAdapter

	mu       sync.Mutex
	handlers []string
	closed   bool
}

// NewBus creates a bus. Handlers must be added before Run.
func NewBus(cfg BusConfig, logger watermill.LoggerAdapter) (*Bus, error) {
	if logger == nil {
		logger = watermill.NopLogger{}
	}

	pubsub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: cfg.OutputBuffer,
	}, logger)

	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: cfg.CloseTimeout}, logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill router: %w", err)
	}

	// Recoverer: convert handler panics to errors
	router.AddMiddleware(middleware.Recoverer)

	if cfg.RetryMaxRetries > 0 {
		retry := middleware.Retry{
			MaxRetries:      cfg.RetryMaxRetries,
			InitialInterval: cfg.RetryInitialInterval,
			Multiplier:      2.0,
			Logger:          logger,
		}
		router.AddMiddleware(retry.Middleware)
	}

	return &Bus{pubsub: pubsub, router: router, logger: logger}, nil
}

// Publisher returns the publishing side of the bus.
func (b *Bus) Publisher() message.Publisher {
	return b.pubsub
}

// AddConsumerHandler registers handler for topic under a unique name.
func (b *Bus) AddConsumerHandler(name, topic string, handler message.NoPublishHandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.router.AddConsumerHandler(name, topic, b.pubsub, handler)
	b.handlers = append(b.handlers, name)
}

// Handlers returns the registered handler names.
func (b *Bus) Handlers() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.handlers...)
}

// Running returns a channel that closes when the router is running.
func (b *Bus) Running() <-chan struct{} {
	return b.router.Running()
}

// Close stops the router and the transport.
func (b *Bus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	return errors.Join(b.router.Close(), b.pubsub.Close())
}
