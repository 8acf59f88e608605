// Bondscore - Reciprocal Relationship Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bondscore

package cycle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Scheduler triggers the weekly cycle run.
type Scheduler struct {
	runner *Runner
	cfg    Config
	logger zerolog.Logger

	// Runtime state
	mu      sync.Mutex
	running bool
	next    time.Time
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewScheduler creates a scheduler for runner.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewScheduler(runner *Runner, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		runner: runner,
		cfg:    runner.cfg,
		logger: logger.With().Str("component", "cycle-scheduler").Logger(),
	}
}

// Start begins the scheduler loop.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("scheduler already running")
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	s.mu.Unlock()

	if !s.cfg.Enabled {
		s.logger.Info().Msg("Cycle scheduler disabled")
		go func() {
			defer close(s.doneCh)
			<-s.stopCh
		}()
		return nil
	}

	s.logger.Info().
		Str("weekday", s.cfg.Weekday.String()).
		Int("hour", s.cfg.Hour).
		Int("minute", s.cfg.Minute).
		Dur("check_interval", s.cfg.CheckInterval).
		Msg("Starting cycle scheduler")

	go s.run(ctx)
	return nil
}

// Stop stops the scheduler loop and waits for it to complete.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	close(s.stopCh)
	<-s.doneCh

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	s.logger.Info().Msg("Cycle scheduler stopped")
	return nil
}

// IsRunning returns whether the scheduler loop is active.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// NextRun returns the next scheduled run time once the loop has started.
func (s *Scheduler) NextRun() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next
}

func (s *Scheduler) setNext(t time.Time) {
	s.mu.Lock()
	s.next = t
	s.mu.Unlock()
}

// run is the main scheduler loop. A run missed while the process was down
// is caught up on start.
func (s *Scheduler) run(ctx context.Context) {
	defer close(s.doneCh)

	sched := s.runner.Schedule()
	s.catchUp(ctx, sched)
	s.setNext(sched.NextRun(s.runner.now()))

	ticker := time.NewTicker(s.cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.tick(ctx, sched)
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (s *Scheduler) tick(ctx context.Context, sched Schedule) {
	now := s.runner.now()
	due := s.NextRun()
	if now.Before(due) {
		return
	}
	s.execute(ctx, sched.CycleID(due))
	s.setNext(sched.NextRun(now))
}

// catchUp runs the latest scheduled cycle if it has no recorded run.
func (s *Scheduler) catchUp(ctx context.Context, sched Schedule) {
	prev := sched.PreviousRun(s.runner.now())
	want := sched.CycleID(prev)

	runs, err := s.runner.History(ctx, 1)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to read cycle history")
		return
	}
	if len(runs) > 0 && runs[0].CycleID >= want {
		return
	}
	s.logger.Info().Str("cycle_id", want).Msg("Catching up missed cycle run")
	s.execute(ctx, want)
}

func (s *Scheduler) execute(ctx context.Context, cycleID string) {
	if _, err := s.runner.Run(ctx, cycleID); err != nil {
		if errors.Is(err, ErrRunInProgress) {
			s.logger.Info().Str("cycle_id", cycleID).Msg("Cycle already running, skipping")
			return
		}
		s.logger.Error().Err(err).Str("cycle_id", cycleID).Msg("Scheduled cycle run failed")
	}
}
