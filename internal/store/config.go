// Bondscore - Reciprocal Relationship Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bondscore

package store

import (
	"fmt"
	"time"
)

// Config holds store configuration.
type Config struct {
	// Path is the directory where BadgerDB stores its files.
	// Ignored when InMemory is set.
	Path string

	// InMemory keeps all data in memory. Intended for tests and demos.
	InMemory bool

	// SyncWrites forces fsync after every commit.
	SyncWrites bool

	// MaxRetries bounds how often a conflicting transaction is retried.
	// Default: 8
	MaxRetries int

	// RetryBackoff is the base delay between retries; attempt n waits n*RetryBackoff.
	// Default: 2ms
	RetryBackoff time.Duration

	// IdempotencyTTL is how long an idempotency key is remembered.
	// Default: 72h
	IdempotencyTTL time.Duration

	// RelationDuration is the validity window set when a relation becomes ACTIVE.
	// Default: 720h (30 days)
	RelationDuration time.Duration

	// GCInterval is the time between value log garbage collection runs.
	// Default: 10m
	GCInterval time.Duration

	// GCRatio is the discard ratio passed to RunValueLogGC.
	// Default: 0.5
	GCRatio float64

	// Now supplies the clock for operations without an explicit timestamp.
	// Default: time.Now
	Now func() time.Time
}

// DefaultConfig returns the default store configuration.
func DefaultConfig() Config {
	return Config{
		Path:             "/data/bondscore",
		SyncWrites:       true,
		MaxRetries:       8,
		RetryBackoff:     2 * time.Millisecond,
		IdempotencyTTL:   72 * time.Hour,
		RelationDuration: 30 * 24 * time.Hour,
		GCInterval:       10 * time.Minute,
		GCRatio:          0.5,
		Now:              time.Now,
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if !c.InMemory && c.Path == "" {
		return fmt.Errorf("store path is required unless running in memory")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max retries must not be negative, got %d", c.MaxRetries)
	}
	if c.RetryBackoff < 0 {
		return fmt.Errorf("retry backoff must not be negative, got %v", c.RetryBackoff)
	}
	if c.IdempotencyTTL <= 0 {
		return fmt.Errorf("idempotency TTL must be positive, got %v", c.IdempotencyTTL)
	}
	if c.RelationDuration <= 0 {
		return fmt.Errorf("relation duration must be positive, got %v", c.RelationDuration)
	}
	if c.GCRatio <= 0 || c.GCRatio >= 1 {
		return fmt.Errorf("GC ratio must be within (0, 1), got %v", c.GCRatio)
	}
	return nil
}

func (c *Config) applyDefaults() {
	d := DefaultConfig()
	if c.MaxRetries == 0 {
		c.MaxRetries = d.MaxRetries
	}
	if c.RetryBackoff == 0 {
		c.RetryBackoff = d.RetryBackoff
	}
	if c.IdempotencyTTL == 0 {
		c.IdempotencyTTL = d.IdempotencyTTL
	}
	if c.RelationDuration == 0 {
		c.RelationDuration = d.RelationDuration
	}
	if c.GCInterval == 0 {
		c.GCInterval = d.GCInterval
	}
	if c.GCRatio == 0 {
		c.GCRatio = d.GCRatio
	}
	if c.Now == nil {
		c.Now = time.Now
	}
}
