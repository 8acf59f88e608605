// Bondscore - Reciprocal Relationship Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bondscore

package recommend

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/bondscore/internal/cache"
	"github.com/tomtom215/bondscore/internal/metrics"
	"github.com/tomtom215/bondscore/internal/models"
	"github.com/tomtom215/bondscore/internal/signals"
	"github.com/tomtom215/bondscore/internal/store"
)

// ErrInvalidRequest is returned for requests without a usable user id.
var ErrInvalidRequest = errors.New("invalid recommendation request")

// Signal names reported in ResponseMetadata.MissingSignals.
const (
	SignalInterests    = "interests"
	SignalInteractions = "interactions"
	SignalMutual       = "mutual_connections"
)

// Recommender ranks compatible users for a requester.
// It is safe for concurrent use.
type Recommender struct {
	cfg     *Config
	weights Weights
	logger  zerolog.Logger

	signals   signals.Provider
	relations store.RelationReader

	now func() time.Time

	requestCount atomic.Int64
	cacheHits    atomic.Int64
	cacheMisses  atomic.Int64
	errorCount   atomic.Int64

	cache *cache.LRU[*Response]
}

// Stats is a snapshot of the recommender counters.
type Stats struct {
	Requests    int64 `json:"requests"`
	CacheHits   int64 `json:"cache_hits"`
	CacheMisses int64 `json:"cache_misses"`
	Errors      int64 `json:"errors"`
	CacheSize   int   `json:"cache_size"`
}

// NewRecommender creates a recommender reading signals from provider and
// relation state from relations.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewRecommender(cfg *Config, provider signals.Provider, relations store.RelationReader, logger zerolog.Logger) (*Recommender, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if provider == nil || relations == nil {
		return nil, errors.New("recommender requires a signal provider and a relation reader")
	}

	r := &Recommender{
		cfg:       cfg,
		weights:   cfg.Weights.Normalize(),
		logger:    logger.With().Str("component", "recommend").Logger(),
		signals:   provider,
		relations: relations,
		now:       time.Now,
	}
	r.cache = cache.NewLRU[*Response](cfg.Cache.MaxEntries, cfg.Cache.TTL,
		cache.WithClock(func() time.Time { return r.now() }))
	return r, nil
}

// SetClock replaces the time source. Intended for tests.
func (r *Recommender) SetClock(now func() time.Time) {
	r.now = now
}

// Stats returns the request counters.
func (r *Recommender) Stats() Stats {
	return Stats{
		Requests:    r.requestCount.Load(),
		CacheHits:   r.cacheHits.Load(),
		CacheMisses: r.cacheMisses.Load(),
		Errors:      r.errorCount.Load(),
		CacheSize:   r.cache.Len(),
	}
}

// Recommend returns the best candidates for req.UserID.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (r *Recommender) Recommend(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	r.requestCount.Add(1)

	if err := models.ValidateUserID(req.UserID); err != nil {
		r.errorCount.Add(1)
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	req = r.prepareRequest(req)
	logger := r.logger.With().
		Str("request_id", req.RequestID).
		Str("user_id", req.UserID).
		Logger()
	logger.Debug().Msg("processing recommendation request")

	key := cacheKey(req)
	if resp := r.tryGetCachedResponse(req, key, start, logger); resp != nil {
		return resp, nil
	}

	resp, err := r.recommend(ctx, req, logger)
	if err != nil {
		r.errorCount.Add(1)
		return nil, err
	}

	resp.Metadata.LatencyMS = time.Since(start).Milliseconds()
	metrics.RecommendationDuration.Observe(time.Since(start).Seconds())
	metrics.RecommendationCandidates.Observe(float64(resp.TotalCandidates))
	r.storeCache(key, req.UserID, resp)

	logger.Debug().
		Int("pool", resp.TotalCandidates).
		Int("returned", len(resp.Candidates)).
		Strs("missing_signals", resp.Metadata.MissingSignals).
		Int64("latency_ms", resp.Metadata.LatencyMS).
		Msg("recommendation complete")
	return resp, nil
}

//nolint:gocritic // hugeParam: req passed by value for immutability
func (r *Recommender) prepareRequest(req Request) Request {
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}
	if req.Limit <= 0 {
		req.Limit = r.cfg.Limits.DefaultLimit
	}
	if req.Limit > r.cfg.Limits.MaxLimit {
		req.Limit = r.cfg.Limits.MaxLimit
	}
	if req.Filters == nil {
		f := r.cfg.Filters
		req.Filters = &f
	}
	return req
}

//nolint:gocritic // hugeParam: req passed by value for immutability
func (r *Recommender) recommend(ctx context.Context, req Request, logger zerolog.Logger) (*Response, error) {
	now := r.now()
	filters := req.Filters

	pool, err := r.signals.CandidatePool(ctx, req.UserID, r.cfg.Limits.PoolSize)
	if err != nil {
		return nil, fmt.Errorf("read candidate pool: %w", err)
	}

	excluded, err := r.excludedUsers(ctx, req.UserID, filters, now)
	if err != nil {
		return nil, err
	}

	resp := &Response{
		Candidates:      []Candidate{},
		TotalCandidates: len(pool),
		Metadata: ResponseMetadata{
			RequestID: req.RequestID,
			UserID:    req.UserID,
			Timestamp: now.UTC(),
		},
	}

	remaining := make([]string, 0, len(pool))
	for _, id := range pool {
		if _, skip := excluded[id]; skip || id == req.UserID {
			resp.Metadata.Excluded++
			continue
		}
		remaining = append(remaining, id)
	}

	if len(remaining) > 0 {
		sig := r.loadSignals(ctx, req.UserID, remaining, logger, &resp.Metadata)
		for _, id := range remaining {
			set := signalSet{
				requesterInterests: sig.interests[req.UserID],
				interests:          sig.interests[id],
				stat:               sig.stats[id],
				mutual:             sig.mutual[id],
			}
			if filters.RequireMutualInteraction && !set.stat.Mutual() {
				resp.Metadata.Excluded++
				continue
			}
			c := r.score(id, set, now)
			if c.Score < filters.MinScore {
				resp.Metadata.Excluded++
				continue
			}
			resp.Candidates = append(resp.Candidates, c)
		}
	}

	rank(resp.Candidates)
	if len(resp.Candidates) > req.Limit {
		resp.Candidates = resp.Candidates[:req.Limit]
	}

	ev := models.NewEvent(models.EventRecommendationGenerated, now)
	ev.UserID = req.UserID
	ev.Data = map[string]any{
		"count": len(resp.Candidates),
		"pool":  len(pool),
	}
	if len(resp.Candidates) > 0 {
		ev.CounterpartID = resp.Candidates[0].UserID
		ev.Data["top_score"] = resp.Candidates[0].Score
	}
	resp.Events = []models.Event{ev}
	return resp, nil
}

// excludedUsers returns the users that must never be recommended to userID.
func (r *Recommender) excludedUsers(ctx context.Context, userID string, f *Filters, now time.Time) (map[string]struct{}, error) {
	rels, err := r.relations.ListForUser(ctx, userID, models.StatusActive, models.StatusPending)
	if err != nil {
		return nil, fmt.Errorf("list relations: %w", err)
	}
	out := make(map[string]struct{}, len(rels))
	for i := range rels {
		out[rels[i].Pair().Other(userID)] = struct{}{}
	}

	if f.ExcludeRecentlyRejected {
		rejected, err := r.relations.RecentRejections(ctx, userID, now.Add(-f.RejectionLookback))
		if err != nil {
			return nil, fmt.Errorf("list rejections: %w", err)
		}
		for _, id := range rejected {
			out[id] = struct{}{}
		}
	}
	return out, nil
}

// Compatibility scores one pair regardless of filters and relation state.
// Missing signals score zero as in Recommend.
func (r *Recommender) Compatibility(ctx context.Context, userID, otherID string) (Candidate, error) {
	if _, err := models.NewPair(userID, otherID); err != nil {
		return Candidate{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	logger := r.logger.With().Str("user_id", userID).Str("other_id", otherID).Logger()

	var meta ResponseMetadata
	sig := r.loadSignals(ctx, userID, []string{otherID}, logger, &meta)
	return r.score(otherID, signalSet{
		requesterInterests: sig.interests[userID],
		interests:          sig.interests[otherID],
		stat:               sig.stats[otherID],
		mutual:             sig.mutual[otherID],
	}, r.now()), nil
}

type loadedSignals struct {
	interests map[string][]string
	stats     map[string]signals.InteractionStat
	mutual    map[string]int
}

// loadSignals reads every signal. A failed signal is logged, recorded in
// meta and left empty so it scores zero.
func (r *Recommender) loadSignals(ctx context.Context, userID string, candidates []string, logger zerolog.Logger, meta *ResponseMetadata) loadedSignals {
	var out loadedSignals

	ids := make([]string, 0, len(candidates)+1)
	ids = append(ids, userID)
	ids = append(ids, candidates...)

	var err error
	if out.interests, err = r.signals.Interests(ctx, ids); err != nil {
		r.missing(logger, meta, SignalInterests, err)
		out.interests = nil
	}
	if out.stats, err = r.signals.InteractionStats(ctx, userID); err != nil {
		r.missing(logger, meta, SignalInteractions, err)
		out.stats = nil
	}
	if out.mutual, err = r.signals.MutualConnections(ctx, userID); err != nil {
		r.missing(logger, meta, SignalMutual, err)
		out.mutual = nil
	}
	return out
}

func (r *Recommender) missing(logger zerolog.Logger, meta *ResponseMetadata, signal string, err error) {
	meta.MissingSignals = append(meta.MissingSignals, signal)
	logger.Warn().Err(err).Str("signal", signal).Msg("signal unavailable, scoring it as zero")
}

// cacheKey generates a cache key for a request.
//
//nolint:gocritic // hugeParam: req passed by value for simplicity
func cacheKey(req Request) string {
	f := req.Filters
	return fmt.Sprintf("rec:%s:%d:%t:%d:%t:%g", req.UserID, req.Limit,
		f.ExcludeRecentlyRejected, f.RejectionLookback, f.RequireMutualInteraction, f.MinScore)
}

//nolint:gocritic // hugeParam: req passed by value for immutability
func (r *Recommender) tryGetCachedResponse(req Request, key string, start time.Time, logger zerolog.Logger) *Response {
	if !r.cfg.Cache.Enabled || req.SkipCache {
		return nil
	}

	resp := r.checkCache(key)
	if resp == nil {
		r.cacheMisses.Add(1)
		return nil
	}

	r.cacheHits.Add(1)
	resp.Metadata.CacheHit = true
	resp.Metadata.RequestID = req.RequestID
	resp.Metadata.LatencyMS = time.Since(start).Milliseconds()
	logger.Debug().Msg("cache hit")
	return resp
}

// checkCache returns a copy of a live cached response.
func (r *Recommender) checkCache(key string) *Response {
	cached, ok := r.cache.Get(key)
	if !ok {
		return nil
	}

	candidates := make([]Candidate, len(cached.Candidates))
	copy(candidates, cached.Candidates)
	return &Response{
		Candidates:      candidates,
		TotalCandidates: cached.TotalCandidates,
		Metadata:        cached.Metadata,
	}
}

func (r *Recommender) storeCache(key, userID string, resp *Response) {
	if !r.cfg.Cache.Enabled {
		return
	}
	r.cache.Add(key, userID, resp)
}

// Invalidate drops cached responses for the given users, or every cached
// response when called without arguments.
func (r *Recommender) Invalidate(userIDs ...string) {
	if len(userIDs) == 0 {
		r.cache.Clear()
		return
	}
	if n := r.cache.RemoveTag(userIDs...); n > 0 {
		r.logger.Debug().Int("entries", n).Strs("users", userIDs).Msg("recommendation cache invalidated")
	}
}

// PruneCache removes expired cached responses.
func (r *Recommender) PruneCache() int {
	return r.cache.CleanupExpired()
}
