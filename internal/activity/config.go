// Bondscore - Reciprocal Relationship Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bondscore

package activity

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// Config holds the achievement thresholds.
type Config struct {
	// StreakDays is the number of distinct active days that completes a streak.
	StreakDays int
	// StreakBonus is awarded as a separate streak_bonus activity.
	StreakBonus float64

	IntensiveCount  int
	IntensiveWindow time.Duration

	// BalancedFloor is the total above which balance is rewarded.
	BalancedFloor float64
	// BalancedRatio bounds |p1-p2| relative to the average of both sides.
	BalancedRatio float64

	QuickResponseMinutes float64
	QuickResponderCount  int
	QuickResponderWindow time.Duration

	Milestones []float64
}

// DefaultConfig returns the standard thresholds.
func DefaultConfig() Config {
	return Config{
		StreakDays:           7,
		StreakBonus:          25,
		IntensiveCount:       15,
		IntensiveWindow:      24 * time.Hour,
		BalancedFloor:        50,
		BalancedRatio:        0.2,
		QuickResponseMinutes: 60,
		QuickResponderCount:  5,
		QuickResponderWindow: 7 * 24 * time.Hour,
		Milestones:           []float64{50, 100, 200, 500, 1000},
	}
}

// Validate checks the thresholds and sorts the milestones.
func (c *Config) Validate() error {
	var errs []error
	if c.StreakDays < 2 {
		errs = append(errs, fmt.Errorf("streak days must be at least 2, got %d", c.StreakDays))
	}
	if c.StreakBonus < 0 {
		errs = append(errs, fmt.Errorf("streak bonus must not be negative, got %v", c.StreakBonus))
	}
	if c.IntensiveCount < 1 || c.IntensiveWindow <= 0 {
		errs = append(errs, errors.New("intensive count and window must be positive"))
	}
	if c.BalancedFloor < 0 || c.BalancedRatio <= 0 || c.BalancedRatio >= 1 {
		errs = append(errs, fmt.Errorf("balanced floor must be >= 0 and ratio in (0,1), got %v/%v", c.BalancedFloor, c.BalancedRatio))
	}
	if c.QuickResponseMinutes <= 0 || c.QuickResponderCount < 1 || c.QuickResponderWindow <= 0 {
		errs = append(errs, errors.New("quick responder thresholds must be positive"))
	}
	for _, m := range c.Milestones {
		if m <= 0 {
			errs = append(errs, fmt.Errorf("milestone must be positive, got %v", m))
		}
	}
	sort.Float64s(c.Milestones)
	return errors.Join(errs...)
}

// historyWindow is how far back detectors need to look.
func (c *Config) historyWindow() time.Duration {
	w := time.Duration(c.StreakDays) * 24 * time.Hour
	if c.IntensiveWindow > w {
		w = c.IntensiveWindow
	}
	if c.QuickResponderWindow > w {
		w = c.QuickResponderWindow
	}
	return w
}
