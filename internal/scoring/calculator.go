// Bondscore - Reciprocal Relationship Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bondscore

package scoring

import (
	"errors"
	"fmt"
	"math"

	"github.com/tomtom215/bondscore/internal/models"
)

// ErrUnknownActivity is returned for tags missing from both tables.
var ErrUnknownActivity = errors.New("unknown activity type")

// Breakdown is the audited result of scoring one interaction.
type Breakdown struct {
	Base              float64 `json:"base"`
	ContentMultiplier float64 `json:"content_multiplier"`
	Speed             float64 `json:"speed"`
	Reciprocal        float64 `json:"reciprocal"`
	Topic             float64 `json:"topic"`
	Consistency       float64 `json:"consistency"`
	Time              float64 `json:"time"`
	Total             float64 `json:"total"`
	Special           bool    `json:"special,omitempty"`
}

// Bonuses returns the sum of every additive bonus.
func (b Breakdown) Bonuses() float64 {
	return b.Speed + b.Reciprocal + b.Topic + b.Consistency + b.Time
}

// step is one threshold of a bonus step function.
type step struct {
	threshold float64
	bonus     float64
}

// speedSteps are upper bounds on elapsed minutes, ascending.
var speedSteps = []step{
	{5, 3},
	{15, 2},
	{60, 1},
	{180, 0.5},
}

// reciprocalDaySteps are lower bounds on consecutive days, descending.
var reciprocalDaySteps = []step{
	{14, 3},
	{7, 2},
	{3, 1},
}

// consistencySteps are lower bounds on consecutive days, descending.
var consistencySteps = []step{
	{30, 3},
	{14, 2},
	{7, 1},
	{3, 0.5},
}

const (
	reciprocalFlatBonus = 2.0
	topicThreshold      = 0.5
	topicMaxBonus       = 2.0
	offPeakBonus        = 0.5
	firstOfDayBonus     = 1.0
)

// Calculator scores interactions against a Config.
type Calculator struct {
	cfg Config
}

// NewCalculator validates cfg and returns a calculator.
func NewCalculator(cfg Config) (*Calculator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scoring config: %w", err)
	}
	return &Calculator{cfg: cfg}, nil
}

// Config returns the calculator's tables.
func (c *Calculator) Config() Config {
	return c.cfg
}

// Known reports whether kind is scoreable.
func (c *Calculator) Known(kind models.ActivityType) bool {
	if _, ok := c.cfg.BasePoints[kind]; ok {
		return true
	}
	_, ok := c.cfg.SpecialPoints[kind]
	return ok
}

// BasePoints returns the table value for an interaction kind.
func (c *Calculator) BasePoints(kind models.ActivityType) (float64, bool) {
	v, ok := c.cfg.BasePoints[kind]
	return v, ok
}

// Score computes the breakdown for one interaction.
func (c *Calculator) Score(kind models.ActivityType, md models.Metadata) (Breakdown, error) {
	if special, ok := c.cfg.SpecialPoints[kind]; ok {
		b := Breakdown{Base: special, ContentMultiplier: 1, Special: true}
		if kind == models.ActivityVoiceCall || kind == models.ActivityVideoCall {
			b.Time = c.callBonus(md.CallDurationMinutes)
		}
		b.Total = round2(b.Base + b.Time)
		return b, nil
	}

	base, ok := c.cfg.BasePoints[kind]
	if !ok {
		return Breakdown{}, fmt.Errorf("%w: %q", ErrUnknownActivity, kind)
	}

	b := Breakdown{
		Base:              base,
		ContentMultiplier: c.multiplier(md.ContentType),
		Speed:             SpeedBonus(md.ElapsedMinutes),
		Reciprocal:        ReciprocalBonus(md.IsReciprocal(), md.ConsecutiveDays),
		Topic:             TopicBonus(md.TopicSimilarity),
		Consistency:       ConsistencyBonus(md.ConsecutiveDays),
		Time:              TimeBonus(md.TimeOfDay, md.FirstOfDay),
	}
	b.Total = round2(b.Base*b.ContentMultiplier + b.Bonuses())
	return b, nil
}

// Split divides scored points between the actor and the counterpart.
func (c *Calculator) Split(total float64, reciprocal bool) (actor, counterpart float64) {
	share := c.cfg.Split.Counterpart
	if reciprocal {
		share = c.cfg.Split.ReciprocalCounterpart
	}
	return round2(total * c.cfg.Split.Actor), round2(total * share)
}

func (c *Calculator) multiplier(ct models.ContentType) float64 {
	if ct == "" {
		return 1
	}
	if m, ok := c.cfg.ContentMultipliers[ct]; ok {
		return m
	}
	return 1
}

func (c *Calculator) callBonus(minutes *float64) float64 {
	if !usable(minutes) {
		return 0
	}
	return math.Min(math.Floor(*minutes/c.cfg.CallMinutesPerPoint), c.cfg.MaxCallBonus)
}

// SpeedBonus rewards reacting soon after the content was created. It is
// non-increasing in elapsed time and zero beyond 180 minutes.
func SpeedBonus(elapsedMinutes *float64) float64 {
	if !usable(elapsedMinutes) {
		return 0
	}
	for _, s := range speedSteps {
		if *elapsedMinutes <= s.threshold {
			return s.bonus
		}
	}
	return 0
}

// ReciprocalBonus is a flat bonus for mutual interaction, raised by the
// number of consecutive days of mutual activity.
func ReciprocalBonus(reciprocal bool, consecutiveDays *int) float64 {
	if !reciprocal {
		return 0
	}
	bonus := reciprocalFlatBonus
	if consecutiveDays != nil {
		bonus += descendingStep(float64(*consecutiveDays), reciprocalDaySteps)
	}
	return bonus
}

// TopicBonus scales similarity above 0.5 into (0, 2].
func TopicBonus(similarity *float64) float64 {
	if !usable(similarity) {
		return 0
	}
	s := math.Min(*similarity, 1)
	if s <= topicThreshold {
		return 0
	}
	return round2((s - topicThreshold) / (1 - topicThreshold) * topicMaxBonus)
}

// ConsistencyBonus rewards streaks of activity regardless of reciprocity.
func ConsistencyBonus(consecutiveDays *int) float64 {
	if consecutiveDays == nil || *consecutiveDays < 0 {
		return 0
	}
	return descendingStep(float64(*consecutiveDays), consistencySteps)
}

// TimeBonus adds the off-peak and first-of-day bonuses.
func TimeBonus(bucket models.TimeBucket, firstOfDay *bool) float64 {
	var bonus float64
	if bucket.OffPeak() {
		bonus += offPeakBonus
	}
	if firstOfDay != nil && *firstOfDay {
		bonus += firstOfDayBonus
	}
	return bonus
}

func descendingStep(v float64, steps []step) float64 {
	for _, s := range steps {
		if v >= s.threshold {
			return s.bonus
		}
	}
	return 0
}

// usable reports whether an optional number can feed a bonus.
func usable(v *float64) bool {
	return v != nil && !math.IsNaN(*v) && !math.IsInf(*v, 0) && *v >= 0
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
