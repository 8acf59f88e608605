// Bondscore - Reciprocal Relationship Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bondscore

package recommend

import (
	"fmt"
	"time"
)

// Config contains all configuration for the recommender.
type Config struct {
	// Weights defines the contribution of each signal to the score.
	// Weights are normalized at runtime, so they don't need to sum to 1.0.
	Weights Weights `json:"weights"`

	// VolumeCap is the interaction count at which the volume factor saturates.
	// Default: 50.
	VolumeCap int `json:"volume_cap"`

	// HalfLife is the age at which an interaction counts half.
	// Default: 336h (14 days).
	HalfLife time.Duration `json:"half_life"`

	// MutualCap is the mutual connection count at which the mutual factor saturates.
	// Default: 10.
	MutualCap int `json:"mutual_cap"`

	// Filters are the defaults applied when a request carries none.
	Filters Filters `json:"filters"`

	// Limits contains operational limits.
	Limits LimitsConfig `json:"limits"`

	// Cache contains caching parameters.
	Cache CacheConfig `json:"cache"`
}

// Weights defines the relative contribution of each signal.
type Weights struct {
	Interests   float64 `json:"interests"`
	Interaction float64 `json:"interaction"`
	Mutual      float64 `json:"mutual"`
}

// Normalize returns a copy with weights normalized to sum to 1.0.
// All-zero weights become equal weights.
//
//nolint:gocritic // value receiver is intentional for immutable semantics
func (w Weights) Normalize() Weights {
	sum := w.Interests + w.Interaction + w.Mutual
	if sum == 0 {
		const equal = 1.0 / 3.0
		return Weights{Interests: equal, Interaction: equal, Mutual: equal}
	}
	return Weights{
		Interests:   w.Interests / sum,
		Interaction: w.Interaction / sum,
		Mutual:      w.Mutual / sum,
	}
}

// Filters narrow the candidate list. Users with an ACTIVE or PENDING
// relation with the requester are always excluded.
type Filters struct {
	// ExcludeRecentlyRejected drops users who rejected the requester
	// within RejectionLookback.
	ExcludeRecentlyRejected bool `json:"exclude_recently_rejected"`

	// RejectionLookback is the window for ExcludeRecentlyRejected.
	// Default: 720h (30 days).
	RejectionLookback time.Duration `json:"rejection_lookback"`

	// RequireMutualInteraction keeps only users who interacted with the
	// requester in both directions.
	RequireMutualInteraction bool `json:"require_mutual_interaction"`

	// MinScore drops candidates scoring below it.
	MinScore float64 `json:"min_score"`
}

// LimitsConfig contains operational limits.
type LimitsConfig struct {
	// PoolSize is the maximum number of candidates read from the signal provider.
	// Default: 500.
	PoolSize int `json:"pool_size"`

	// DefaultLimit is the number of candidates returned when a request sets none.
	// Default: 10.
	DefaultLimit int `json:"default_limit"`

	// MaxLimit is the maximum allowed request limit.
	// Default: 100.
	MaxLimit int `json:"max_limit"`
}

// CacheConfig contains response caching parameters.
type CacheConfig struct {
	// Enabled controls whether caching is active.
	// Default: true.
	Enabled bool `json:"enabled"`

	// TTL is the cache entry time-to-live.
	// Default: 1m.
	TTL time.Duration `json:"ttl"`

	// MaxEntries is the maximum number of cached entries.
	// Default: 10000.
	MaxEntries int `json:"max_entries"`
}

// DefaultConfig returns a Config with production defaults.
func DefaultConfig() *Config {
	return &Config{
		Weights: Weights{
			Interests:   0.4,
			Interaction: 0.4,
			Mutual:      0.2,
		},
		VolumeCap: 50,
		HalfLife:  14 * 24 * time.Hour,
		MutualCap: 10,
		Filters: Filters{
			ExcludeRecentlyRejected: true,
			RejectionLookback:       30 * 24 * time.Hour,
		},
		Limits: LimitsConfig{
			PoolSize:     500,
			DefaultLimit: 10,
			MaxLimit:     100,
		},
		Cache: CacheConfig{
			Enabled:    true,
			TTL:        time.Minute,
			MaxEntries: 10000,
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	w := c.Weights
	if w.Interests < 0 || w.Interaction < 0 || w.Mutual < 0 {
		return fmt.Errorf("weights must be non-negative, got %+v", w)
	}
	if c.VolumeCap < 1 {
		return fmt.Errorf("volume_cap must be positive, got %d", c.VolumeCap)
	}
	if c.HalfLife <= 0 {
		return fmt.Errorf("half_life must be positive, got %v", c.HalfLife)
	}
	if c.MutualCap < 1 {
		return fmt.Errorf("mutual_cap must be positive, got %d", c.MutualCap)
	}
	if err := c.Filters.Validate(); err != nil {
		return err
	}

	if c.Limits.PoolSize < 1 {
		return fmt.Errorf("limits.pool_size must be positive, got %d", c.Limits.PoolSize)
	}
	if c.Limits.DefaultLimit < 1 {
		return fmt.Errorf("limits.default_limit must be positive, got %d", c.Limits.DefaultLimit)
	}
	if c.Limits.MaxLimit < c.Limits.DefaultLimit {
		return fmt.Errorf("limits.max_limit (%d) must be >= limits.default_limit (%d)",
			c.Limits.MaxLimit, c.Limits.DefaultLimit)
	}

	if c.Cache.Enabled {
		if c.Cache.TTL <= 0 {
			return fmt.Errorf("cache.ttl must be positive when caching is enabled, got %v", c.Cache.TTL)
		}
		if c.Cache.MaxEntries < 1 {
			return fmt.Errorf("cache.max_entries must be positive when caching is enabled, got %d", c.Cache.MaxEntries)
		}
	}
	return nil
}

// Validate checks a filter set.
func (f *Filters) Validate() error {
	if f.MinScore < 0 || f.MinScore > 100 {
		return fmt.Errorf("filters.min_score must be in [0, 100], got %v", f.MinScore)
	}
	if f.ExcludeRecentlyRejected && f.RejectionLookback <= 0 {
		return fmt.Errorf("filters.rejection_lookback must be positive, got %v", f.RejectionLookback)
	}
	return nil
}
