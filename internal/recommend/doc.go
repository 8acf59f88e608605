// Bondscore - Reciprocal Relationship Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bondscore

// Package recommend ranks users by compatibility with a requester.
//
// # Scoring
//
// Each candidate from the signal provider's pool is scored from three
// normalized factors:
//
//   - interest: Jaccard similarity of declared interests
//   - interaction: volume x recency, where volume = min(count/VolumeCap, 1)
//     and recency = 0.5^(days since last interaction / HalfLife)
//   - mutual: min(mutual connections/MutualCap, 1)
//
// The score is 100 x the weighted sum with normalized weights (default
// 0.4/0.4/0.2). Results are ordered by score, then by more recent last
// interaction, then by user id, so equal inputs always rank identically.
//
// # Filtering
//
// Users with an ACTIVE or PENDING relation with the requester are always
// excluded. Config.Filters (or Request.Filters) can additionally drop users
// who recently rejected the requester, users without two-way interaction
// and candidates under a minimum score.
//
// # Failure Handling
//
// A failure reading one signal is logged and reported in
// ResponseMetadata.MissingSignals; that signal contributes zero. Only a
// failure to read the candidate pool or the relation store fails the request.
//
// # Caching
//
// Responses are cached in an LRU (internal/cache) keyed by user, limit and
// filters, and tagged with the requesting user. Invalidate drops a user's
// entries after their relations change; PruneCache removes expired ones.
// Request.SkipCache bypasses the cache for a single call.
//
// # Usage
//
//	rec, err := recommend.NewRecommender(recommend.DefaultConfig(), provider, relStore, logger)
//	if err != nil {
//	    return err
//	}
//
//	resp, err := rec.Recommend(ctx, recommend.Request{UserID: "user-1", Limit: 5})
//
// # Thread Safety
//
// Recommender is safe for concurrent use. It never writes to the store.
package recommend
