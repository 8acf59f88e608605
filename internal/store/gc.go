// Bondscore - Reciprocal Relationship Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bondscore

package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/tomtom215/bondscore/internal/metrics"
)

// GarbageCollector periodically reclaims value log space. Idempotency
// records expire through TTLs and only free disk space once GC runs.
type GarbageCollector struct {
	store *BadgerStore

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	running bool
	lastRun time.Time
	runs    int64
}

// NewGarbageCollector creates a collector for s.
func NewGarbageCollector(s *BadgerStore) *GarbageCollector {
	return &GarbageCollector{store: s}
}

// Start begins the background GC loop.
func (g *GarbageCollector) Start(ctx context.Context) error {
	g.mu.Lock()
	if g.running {
		g.mu.Unlock()
		return nil
	}
	g.ctx, g.cancel = context.WithCancel(ctx)
	g.running = true
	g.mu.Unlock()

	g.wg.Add(1)
	go g.run()

	g.store.logger.Info().Dur("interval", g.store.cfg.GCInterval).Msg("Store GC started")
	return nil
}

// Stop stops the loop and waits for it to exit.
func (g *GarbageCollector) Stop() {
	g.mu.Lock()
	if !g.running {
		g.mu.Unlock()
		return
	}
	g.cancel()
	g.running = false
	g.mu.Unlock()

	g.wg.Wait()
	g.store.logger.Info().Msg("Store GC stopped")
}

// IsRunning reports whether the loop is active.
func (g *GarbageCollector) IsRunning() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.running
}

func (g *GarbageCollector) run() {
	defer g.wg.Done()

	ticker := time.NewTicker(g.store.cfg.GCInterval)
	defer ticker.Stop()

	for {
		select {
		case <-g.ctx.Done():
			return
		case <-ticker.C:
			g.RunNow()
		}
	}
}

// RunNow performs value log GC until Badger reports nothing to rewrite.
func (g *GarbageCollector) RunNow() {
	if g.store.cfg.InMemory || g.store.closed.Load() {
		return
	}
	rewrites := 0
	result := "nothing"
	for {
		err := g.store.db.RunValueLogGC(g.store.cfg.GCRatio)
		if err != nil {
			if !errors.Is(err, badger.ErrNoRewrite) && !errors.Is(err, badger.ErrRejected) {
				g.store.logger.Warn().Err(err).Msg("Value log GC failed")
				result = "error"
			}
			break
		}
		rewrites++
		result = "rewritten"
	}
	metrics.StoreGCRuns.WithLabelValues(result).Inc()

	g.mu.Lock()
	g.lastRun = time.Now()
	g.runs++
	g.mu.Unlock()

	g.store.logger.Debug().Int("rewrites", rewrites).Msg("Value log GC completed")
}

// Runs returns how many GC passes have completed.
func (g *GarbageCollector) Runs() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.runs
}
