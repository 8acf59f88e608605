// Bondscore - Reciprocal Relationship Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bondscore

/*
Package cache provides a thread-safe LRU cache with TTL support.

LRU keeps a hash map for O(1) lookups and a doubly linked list for recency
ordering. When the cache is full the least recently used entry is evicted.
Expired entries are dropped lazily by Get and eagerly by CleanupExpired.

Entries carry a tag so related entries can be invalidated together. The
recommender tags each cached response with the requesting user and calls
RemoveTag when that user's relations change:

	c := cache.NewLRU[*Response](1000, 5*time.Minute)
	c.Add("rec:alice:10:...", "alice", resp)
	if resp, ok := c.Get("rec:alice:10:..."); ok {
	    // serve cached response
	}
	c.RemoveTag("alice")

The clock is injectable with WithClock so expiry can be tested without
sleeping.
*/
package cache
