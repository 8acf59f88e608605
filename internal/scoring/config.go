// Bondscore - Reciprocal Relationship Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bondscore

package scoring

import (
	"fmt"

	"github.com/tomtom215/bondscore/internal/models"
)

// Config holds the scoring tables. All values are injected; the calculator
// holds no constants of its own beyond the bonus step functions.
type Config struct {
	// BasePoints maps interaction kinds to their unscaled points.
	BasePoints map[models.ActivityType]float64

	// SpecialPoints maps non-interaction activities to fixed values.
	SpecialPoints map[models.ActivityType]float64

	// ContentMultipliers scales BasePoints by content type. Unknown or
	// absent content types use 1.0.
	ContentMultipliers map[models.ContentType]float64

	// CallMinutesPerPoint adds one point per this many call minutes.
	// Default: 10
	CallMinutesPerPoint float64

	// MaxCallBonus caps the call duration extension.
	// Default: 10
	MaxCallBonus float64

	// Split decides each side's share of the scored points.
	Split SplitPolicy
}

// SplitPolicy is the share of a scored interaction credited to each side.
type SplitPolicy struct {
	// Actor is the acting user's share. Default: 1.0
	Actor float64

	// Counterpart is the other side's share for one-way interactions.
	// Default: 0.3
	Counterpart float64

	// ReciprocalCounterpart is the other side's share when the interaction
	// is reciprocal. Default: 0.8
	ReciprocalCounterpart float64
}

// DefaultConfig returns the standard scoring tables.
func DefaultConfig() Config {
	return Config{
		BasePoints: map[models.ActivityType]float64{
			models.ActivityLike:    1,
			models.ActivityComment: 3,
			models.ActivityShare:   5,
			models.ActivityView:    0.5,
			models.ActivitySave:    2,
		},
		SpecialPoints: map[models.ActivityType]float64{
			models.ActivityVoiceCall:   8,
			models.ActivityVideoCall:   10,
			models.ActivityMeetup:      15,
			models.ActivityMilestone:   20,
			models.ActivityStreakBonus: 25,
		},
		ContentMultipliers: map[models.ContentType]float64{
			models.ContentText:  1.0,
			models.ContentImage: 1.2,
			models.ContentAudio: 1.3,
			models.ContentVideo: 1.5,
		},
		CallMinutesPerPoint: 10,
		MaxCallBonus:        10,
		Split: SplitPolicy{
			Actor:                 1.0,
			Counterpart:           0.3,
			ReciprocalCounterpart: 0.8,
		},
	}
}

// Validate checks that the tables are usable.
func (c *Config) Validate() error {
	if len(c.BasePoints) == 0 {
		return fmt.Errorf("base points table is empty")
	}
	for kind, pts := range c.BasePoints {
		if pts < 0 {
			return fmt.Errorf("base points for %q must not be negative, got %v", kind, pts)
		}
		if _, dup := c.SpecialPoints[kind]; dup {
			return fmt.Errorf("activity %q is both an interaction and a special activity", kind)
		}
	}
	for kind, pts := range c.SpecialPoints {
		if pts < 0 {
			return fmt.Errorf("special points for %q must not be negative, got %v", kind, pts)
		}
	}
	for ct, m := range c.ContentMultipliers {
		if m <= 0 {
			return fmt.Errorf("content multiplier for %q must be positive, got %v", ct, m)
		}
	}
	if c.CallMinutesPerPoint <= 0 {
		return fmt.Errorf("call minutes per point must be positive, got %v", c.CallMinutesPerPoint)
	}
	if c.MaxCallBonus < 0 {
		return fmt.Errorf("max call bonus must not be negative, got %v", c.MaxCallBonus)
	}
	return c.Split.Validate()
}

// Validate checks the shares are within [0, 1] and the reciprocal share is
// not smaller than the one-way share.
func (s SplitPolicy) Validate() error {
	for name, v := range map[string]float64{
		"actor":                  s.Actor,
		"counterpart":            s.Counterpart,
		"reciprocal counterpart": s.ReciprocalCounterpart,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%s share must be within [0, 1], got %v", name, v)
		}
	}
	if s.ReciprocalCounterpart < s.Counterpart {
		return fmt.Errorf("reciprocal counterpart share (%v) must not be below counterpart share (%v)",
			s.ReciprocalCounterpart, s.Counterpart)
	}
	return nil
}
