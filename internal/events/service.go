// Last.fm Recommender - Collaborative Filtering for Implicit Feedback
// Copyright 2026 alabarga
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/alabarga/last-fm-recommender-system

package events

import (
	"context"
	"errors"
	"fmt"
)

// Serve runs the router until ctx is cancelled. It satisfies
// suture.Service.
func (b *Bus) Serve(ctx context.Context) error {
	err := b.router.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("event router: %w", err)
	}
	return ctx.Err()
}

// String returns the service name for supervisor logging.
func (b *Bus) String() string {
	return "event-bus"
}
