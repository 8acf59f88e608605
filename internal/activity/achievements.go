// Bondscore - Reciprocal Relationship Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bondscore

package activity

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/tomtom215/bondscore/internal/models"
)

// Observation is what a detector sees after one successful award.
type Observation struct {
	ActorID string
	Before  models.Relation
	After   models.Relation
	Entry   models.ActivityLogEntry
	// History holds the relation's log entries from the trailing detection
	// window, including Entry. It is nil when the log could not be read.
	History []models.ActivityLogEntry
	At      time.Time
}

// window returns the history entries in (At-d, At].
func (o *Observation) window(d time.Duration) []models.ActivityLogEntry {
	from := o.At.Add(-d)
	out := make([]models.ActivityLogEntry, 0, len(o.History))
	for _, e := range o.History {
		if e.CreatedAt.After(from) && !e.CreatedAt.After(o.At) {
			out = append(out, e)
		}
	}
	return out
}

// Detector evaluates one achievement rule.
type Detector interface {
	// Kind returns the achievement this detector unlocks.
	Kind() models.AchievementKind

	// NeedsHistory reports whether Detect reads Observation.History.
	NeedsHistory() bool

	// Detect returns the achievements unlocked by the observed update.
	Detect(ctx context.Context, obs *Observation) ([]models.Achievement, error)
}

// DefaultDetectors returns the standard detector set for cfg.
func DefaultDetectors(cfg Config) []Detector {
	return []Detector{
		&streakDetector{days: cfg.StreakDays, bonus: cfg.StreakBonus},
		&intensiveDetector{count: cfg.IntensiveCount, window: cfg.IntensiveWindow},
		&balancedDetector{floor: cfg.BalancedFloor, ratio: cfg.BalancedRatio},
		&quickResponderDetector{minutes: cfg.QuickResponseMinutes, count: cfg.QuickResponderCount, window: cfg.QuickResponderWindow},
		&milestoneDetector{thresholds: cfg.Milestones},
	}
}

func day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// streakDetector fires on the first activity of a day that completes a run
// of distinct active days, unless a streak bonus was already logged in it.
type streakDetector struct {
	days  int
	bonus float64
}

func (d *streakDetector) Kind() models.AchievementKind { return models.AchievementStreak }
func (d *streakDetector) NeedsHistory() bool           { return true }

func (d *streakDetector) Detect(_ context.Context, obs *Observation) ([]models.Achievement, error) {
	today := day(obs.At)
	start := today.AddDate(0, 0, -(d.days - 1))

	active := map[time.Time]bool{today: true}
	for _, e := range obs.History {
		if e.ID == obs.Entry.ID || e.CreatedAt.After(obs.At) {
			continue
		}
		ed := day(e.CreatedAt)
		if ed.Before(start) {
			continue
		}
		if e.ActivityType == models.ActivityStreakBonus {
			return nil, nil
		}
		if ed.Equal(today) {
			return nil, nil
		}
		active[ed] = true
	}
	if len(active) < d.days {
		return nil, nil
	}
	return []models.Achievement{{
		Kind:        models.AchievementStreak,
		Title:       fmt.Sprintf("%d day streak", d.days),
		Threshold:   float64(d.days),
		BonusPoints: d.bonus,
	}}, nil
}

// intensiveDetector fires when the trailing window reaches exactly count
// activities.
type intensiveDetector struct {
	count  int
	window time.Duration
}

func (d *intensiveDetector) Kind() models.AchievementKind { return models.AchievementIntensiveDay }
func (d *intensiveDetector) NeedsHistory() bool           { return true }

func (d *intensiveDetector) Detect(_ context.Context, obs *Observation) ([]models.Achievement, error) {
	n := 0
	for _, e := range obs.window(d.window) {
		if e.ActivityType != models.ActivityStreakBonus {
			n++
		}
	}
	if n != d.count {
		return nil, nil
	}
	return []models.Achievement{{
		Kind:      models.AchievementIntensiveDay,
		Title:     "Intensive day",
		Threshold: float64(d.count),
	}}, nil
}

// balancedDetector fires when both sides become balanced above the floor.
type balancedDetector struct {
	floor float64
	ratio float64
}

func (d *balancedDetector) Kind() models.AchievementKind { return models.AchievementBalanced }
func (d *balancedDetector) NeedsHistory() bool           { return false }

func (d *balancedDetector) balanced(r *models.Relation) bool {
	if r.TotalPoints <= d.floor {
		return false
	}
	avg := (r.User1Points + r.User2Points) / 2
	return avg > 0 && math.Abs(r.User1Points-r.User2Points) < d.ratio*avg
}

func (d *balancedDetector) Detect(_ context.Context, obs *Observation) ([]models.Achievement, error) {
	if !d.balanced(&obs.After) || d.balanced(&obs.Before) {
		return nil, nil
	}
	return []models.Achievement{{
		Kind:      models.AchievementBalanced,
		Title:     "Balanced relationship",
		Threshold: d.floor,
	}}, nil
}

// quickResponderDetector fires on the quick reaction that brings the
// trailing window to exactly count quick reactions.
type quickResponderDetector struct {
	minutes float64
	count   int
	window  time.Duration
}

func (d *quickResponderDetector) Kind() models.AchievementKind {
	return models.AchievementQuickResponder
}
func (d *quickResponderDetector) NeedsHistory() bool { return true }

func (d *quickResponderDetector) Detect(_ context.Context, obs *Observation) ([]models.Achievement, error) {
	if !obs.Entry.Metadata.QuickReaction(d.minutes) {
		return nil, nil
	}
	n := 0
	for _, e := range obs.window(d.window) {
		if e.Metadata.QuickReaction(d.minutes) {
			n++
		}
	}
	if n != d.count {
		return nil, nil
	}
	return []models.Achievement{{
		Kind:      models.AchievementQuickResponder,
		Title:     "Quick responder",
		Threshold: float64(d.count),
	}}, nil
}

// milestoneDetector fires for every threshold the total crossed.
type milestoneDetector struct {
	thresholds []float64
}

func (d *milestoneDetector) Kind() models.AchievementKind { return models.AchievementMilestone }
func (d *milestoneDetector) NeedsHistory() bool           { return false }

func (d *milestoneDetector) Detect(_ context.Context, obs *Observation) ([]models.Achievement, error) {
	var out []models.Achievement
	for _, m := range d.thresholds {
		if obs.Before.TotalPoints < m && obs.After.TotalPoints >= m {
			out = append(out, models.Achievement{
				Kind:      models.AchievementMilestone,
				Title:     fmt.Sprintf("%g points", m),
				Threshold: m,
			})
		}
	}
	return out, nil
}
