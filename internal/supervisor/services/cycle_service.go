// Bondscore - Reciprocal Relationship Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bondscore

package services

import (
	"context"
	"fmt"
)

// CycleScheduler is the lifecycle of *cycle.Scheduler.
type CycleScheduler interface {
	Start(ctx context.Context) error
	Stop() error
}

// CycleService runs the weekly cycle scheduler under supervision.
//
// It adapts the scheduler's Start/Stop pattern to suture's Serve:
//  1. Start(ctx) launches the scheduler loop (and any catch-up run)
//  2. Serve blocks until the context is canceled
//  3. Stop() waits for the loop to exit
//
// An in-flight run sees the canceled context and records its partial
// statistics before Stop returns.
type CycleService struct {
	scheduler CycleScheduler
	name      string
}

// NewCycleService wraps scheduler.
//
//	sched := cycle.NewScheduler(runner, logger)
//	tree.AddEngineService(services.NewCycleService(sched))
func NewCycleService(scheduler CycleScheduler) *CycleService {
	return &CycleService{
		scheduler: scheduler,
		name:      "cycle-scheduler",
	}
}

// Serve implements suture.Service. A Start failure is returned so suture
// restarts the service with backoff.
func (s *CycleService) Serve(ctx context.Context) error {
	if err := s.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("cycle scheduler start failed: %w", err)
	}

	<-ctx.Done()

	if err := s.scheduler.Stop(); err != nil {
		return fmt.Errorf("cycle scheduler stop failed: %w", err)
	}
	return ctx.Err()
}

// String implements fmt.Stringer.
func (s *CycleService) String() string {
	return s.name
}
