// Last.fm Recommender - Collaborative Filtering for Implicit Feedback
// Copyright 2026 alabarga
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/alabarga/last-fm-recommender-system

/*
Package cache provides a thread-safe in-memory cache with TTL expiration.

The recommendation engine caches responses keyed by model version, user,
list length and exclusion policy. The whole cache is cleared whenever a new
model is swapped in, either directly by the engine or by the model.trained
event subscriber.

# Expiration

Entries expire lazily on Get and are swept periodically by a background
goroutine that runs until Close is called.

# Usage Example

	c := cache.New(5 * time.Minute)
	defer c.Close()

	c.Set(key, resp)
	if v, ok := c.Get(key); ok {
	    return v.(*recommend.Response), nil
	}

# Thread Safety

All methods are safe for concurrent use. Counters are atomic; the entry map
is guarded by a sync.RWMutex.
*/
package cache
