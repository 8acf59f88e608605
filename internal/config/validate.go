// Bondscore - Reciprocal Relationship Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bondscore

package config

import (
	"errors"
	"fmt"

	"github.com/tomtom215/bondscore/internal/logging"
)

// Validate checks every section and returns all problems joined, each
// prefixed with its section name.
func (c *Config) Validate() error {
	var errs []error
	add := func(section string, err error) {
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", section, err))
		}
	}

	add("server", c.Server.validate())

	storeCfg := c.StoreConfig()
	add("store", storeCfg.Validate())

	signalsCfg := c.SignalsConfig()
	add("signals", signalsCfg.Validate())

	eventsCfg := c.EventsConfig()
	add("events", eventsCfg.Validate())

	scoringCfg := c.ScoringConfig()
	add("scoring", scoringCfg.Validate())

	activityCfg := c.ActivityConfig()
	add("scoring.achievements", activityCfg.Validate())

	add("nomination", c.NominationConfig().Limits.Validate())
	add("nomination", c.Nomination.validateToken())
	add("recommend", c.RecommendConfig().Validate())

	if cycleCfg, err := c.CycleConfig(); err != nil {
		add("cycle", err)
	} else {
		add("cycle", cycleCfg.Validate())
	}

	add("logging", c.Logging.validate())
	return errors.Join(errs...)
}

func (s ServerConfig) validate() error {
	var errs []error
	if s.Port < 1 || s.Port > 65535 {
		errs = append(errs, fmt.Errorf("port must be 1-65535, got %d", s.Port))
	}
	if s.ReadTimeout <= 0 || s.WriteTimeout <= 0 || s.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("read, write and shutdown timeouts must be positive"))
	}
	if !s.RateLimitDisabled && (s.RateLimitRequests < 1 || s.RateLimitWindow <= 0) {
		errs = append(errs, fmt.Errorf("rate limit must allow at least one request per positive window, got %d/%v",
			s.RateLimitRequests, s.RateLimitWindow))
	}
	return errors.Join(errs...)
}

// maxAdminToken is the longest token bcrypt can hash.
const maxAdminToken = 72

func (n NominationConfig) validateToken() error {
	if len(n.AdminToken) > maxAdminToken {
		return fmt.Errorf("admin_token must be at most %d bytes, got %d", maxAdminToken, len(n.AdminToken))
	}
	return nil
}

func (l LoggingConfig) validate() error {
	var errs []error
	if !logging.ValidLevel(l.Level) {
		errs = append(errs, fmt.Errorf("unknown level %q", l.Level))
	}
	if l.Format != "json" && l.Format != "console" {
		errs = append(errs, fmt.Errorf("format must be json or console, got %q", l.Format))
	}
	return errors.Join(errs...)
}
