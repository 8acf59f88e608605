// Bondscore - Reciprocal Relationship Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bondscore

package models

import (
	"time"

	"github.com/google/uuid"
)

// EventType names an outbound notification.
type EventType string

const (
	EventPointsAwarded           EventType = "points.awarded"
	EventTierChanged             EventType = "tier.changed"
	EventAchievementUnlocked     EventType = "achievement.unlocked"
	EventNominationCreated       EventType = "nomination.created"
	EventNominationAccepted      EventType = "nomination.accepted"
	EventNominationRejected      EventType = "nomination.rejected"
	EventNominationCancelled     EventType = "nomination.cancelled"
	EventNominationExpired       EventType = "nomination.expired"
	EventRelationExpired         EventType = "relation.expired"
	EventRecommendationGenerated EventType = "recommendation.generated"
	EventCycleCompleted          EventType = "cycle.completed"
)

// Event is a notification produced by an engine operation. Operations return
// their events to the caller; delivery is the dispatcher's concern.
type Event struct {
	ID            string         `json:"id"`
	Type          EventType      `json:"type"`
	OccurredAt    time.Time      `json:"occurred_at"`
	UserID        string         `json:"user_id,omitempty"`
	CounterpartID string         `json:"counterpart_id,omitempty"`
	RelationID    string         `json:"relation_id,omitempty"`
	NominationID  string         `json:"nomination_id,omitempty"`
	CycleID       string         `json:"cycle_id,omitempty"`
	Data          map[string]any `json:"data,omitempty"`
}

// NewEvent creates an event with a fresh identifier.
func NewEvent(t EventType, at time.Time) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       t,
		OccurredAt: at.UTC(),
	}
}

// AchievementKind names an unlocked achievement.
type AchievementKind string

const (
	AchievementStreak         AchievementKind = "streak_7_days"
	AchievementIntensiveDay   AchievementKind = "intensive_day"
	AchievementBalanced       AchievementKind = "balanced_points"
	AchievementQuickResponder AchievementKind = "quick_responder"
	AchievementMilestone      AchievementKind = "milestone"
)

// Achievement describes one unlocked achievement. BonusPoints is non-zero
// only when the achievement awarded points as a separate activity.
type Achievement struct {
	Kind        AchievementKind `json:"kind"`
	Title       string          `json:"title"`
	Threshold   float64         `json:"threshold,omitempty"`
	BonusPoints float64         `json:"bonus_points,omitempty"`
}
