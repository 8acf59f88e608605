// Bondscore - Reciprocal Relationship Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bondscore

package cycle

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// waitForRuns polls the run history until it holds n runs.
func waitForRuns(t *testing.T, r *Runner, n int) []string {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		runs, err := r.History(context.Background(), 0)
		if err != nil {
			t.Fatalf("History() error = %v", err)
		}
		if len(runs) >= n {
			ids := make([]string, len(runs))
			for i := range runs {
				ids[i] = runs[i].CycleID
			}
			return ids
		}
		if time.Now().After(deadline) {
			t.Fatalf("got %d runs, want %d", len(runs), n)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestSchedulerCatchesUpAndTicks(t *testing.T) {
	h := newHarness(t)
	r := h.runner(t, &scriptedRecommender{}, []string{"alice"}, func(c *Config) {
		c.CheckInterval = 10 * time.Millisecond
	})

	s := NewScheduler(r, zerolog.Nop())
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer func() { _ = s.Stop() }()

	if err := s.Start(context.Background()); err == nil {
		t.Error("second Start() error = nil, want error")
	}

	ids := waitForRuns(t, r, 1)
	if ids[0] != "2026-W42" {
		t.Errorf("catch-up run = %s, want 2026-W42", ids[0])
	}

	deadline := time.Now().Add(5 * time.Second)
	for s.NextRun().IsZero() {
		if time.Now().After(deadline) {
			t.Fatal("next run never scheduled")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if want := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC); !s.NextRun().Equal(want) {
		t.Errorf("NextRun() = %v, want %v", s.NextRun(), want)
	}

	h.clock.Advance(7 * 24 * time.Hour)
	ids = waitForRuns(t, r, 2)
	if ids[0] != "2026-W43" {
		t.Errorf("latest run = %s, want 2026-W43", ids[0])
	}
}

func TestSchedulerSkipsRecordedCycle(t *testing.T) {
	h := newHarness(t)
	r := h.runner(t, &scriptedRecommender{}, nil, func(c *Config) {
		c.CheckInterval = 10 * time.Millisecond
	})
	if _, err := r.Run(context.Background(), "2026-W42"); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	s := NewScheduler(r, zerolog.Nop())
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	time.Sleep(100 * time.Millisecond)
	if err := s.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	if ids := waitForRuns(t, r, 1); len(ids) != 1 {
		t.Errorf("runs = %v, want only the recorded one", ids)
	}
}

func TestSchedulerDisabled(t *testing.T) {
	h := newHarness(t)
	r := h.runner(t, &scriptedRecommender{}, nil, func(c *Config) {
		c.Enabled = false
	})

	s := NewScheduler(r, zerolog.Nop())
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !s.IsRunning() {
		t.Error("IsRunning() = false after Start")
	}
	time.Sleep(50 * time.Millisecond)
	if err := s.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if s.IsRunning() {
		t.Error("IsRunning() = true after Stop")
	}

	runs, err := r.History(context.Background(), 0)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("disabled scheduler ran %d cycles", len(runs))
	}
}
