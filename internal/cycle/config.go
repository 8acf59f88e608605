// Bondscore - Reciprocal Relationship Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bondscore

package cycle

import (
	"errors"
	"fmt"
	"time"
)

// Config holds configuration for the cycle runner and scheduler.
type Config struct {
	// Enabled controls whether the scheduler triggers runs on its own.
	// Manual runs work either way.
	Enabled bool

	// Weekday, Hour and Minute place the weekly run in Location.
	// Default: Monday 09:00
	Weekday time.Weekday
	Hour    int
	Minute  int

	// Location is the time zone for the schedule and cycle ids.
	// Default: UTC
	Location *time.Location

	// CheckInterval is how often the scheduler checks whether a run is due.
	// Default: 1 minute
	CheckInterval time.Duration

	// Workers bounds how many users are processed in parallel.
	// Default: 8
	Workers int

	// UserTimeout bounds the work done for a single user.
	// Default: 30s
	UserTimeout time.Duration

	// UserRate caps how many users start processing per second, so a large
	// cycle does not saturate the signal database. Zero means no cap.
	// Default: 0
	UserRate float64

	// NominationsPerUser is how many top candidates each user is nominated to.
	// Default: 1
	NominationsPerUser int

	// ActivityWindow is the trailing window for the interaction frequency.
	// Default: 7 days
	ActivityWindow time.Duration
}

// DefaultConfig returns the default cycle configuration.
func DefaultConfig() Config {
	return Config{
		Enabled:            true,
		Weekday:            time.Monday,
		Hour:               9,
		Location:           time.UTC,
		CheckInterval:      time.Minute,
		Workers:            8,
		UserTimeout:        30 * time.Second,
		NominationsPerUser: 1,
		ActivityWindow:     7 * 24 * time.Hour,
	}
}

// Validate checks the configuration, collecting every problem.
func (c *Config) Validate() error {
	var errs []error
	if c.Weekday < time.Sunday || c.Weekday > time.Saturday {
		errs = append(errs, fmt.Errorf("weekday must be 0-6, got %d", c.Weekday))
	}
	if c.Hour < 0 || c.Hour > 23 {
		errs = append(errs, fmt.Errorf("hour must be 0-23, got %d", c.Hour))
	}
	if c.Minute < 0 || c.Minute > 59 {
		errs = append(errs, fmt.Errorf("minute must be 0-59, got %d", c.Minute))
	}
	if c.CheckInterval <= 0 {
		errs = append(errs, fmt.Errorf("check interval must be positive, got %v", c.CheckInterval))
	}
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers must be positive, got %d", c.Workers))
	}
	if c.UserTimeout <= 0 {
		errs = append(errs, fmt.Errorf("user timeout must be positive, got %v", c.UserTimeout))
	}
	if c.UserRate < 0 {
		errs = append(errs, fmt.Errorf("user rate must not be negative, got %v", c.UserRate))
	}
	if c.NominationsPerUser < 0 {
		errs = append(errs, fmt.Errorf("nominations per user must not be negative, got %d", c.NominationsPerUser))
	}
	if c.ActivityWindow < 24*time.Hour {
		errs = append(errs, errors.New("activity window must be at least one day"))
	}
	return errors.Join(errs...)
}

func (c *Config) applyDefaults() {
	d := DefaultConfig()
	if c.Location == nil {
		c.Location = d.Location
	}
	if c.CheckInterval == 0 {
		c.CheckInterval = d.CheckInterval
	}
	if c.Workers == 0 {
		c.Workers = d.Workers
	}
	if c.UserTimeout == 0 {
		c.UserTimeout = d.UserTimeout
	}
	if c.ActivityWindow == 0 {
		c.ActivityWindow = d.ActivityWindow
	}
}

// Schedule returns the weekly schedule described by the configuration.
func (c *Config) Schedule() Schedule {
	loc := c.Location
	if loc == nil {
		loc = time.UTC
	}
	return Schedule{Weekday: c.Weekday, Hour: c.Hour, Minute: c.Minute, Location: loc}
}
