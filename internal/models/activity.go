// Bondscore - Reciprocal Relationship Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bondscore

package models

import "time"

// ActivityType tags one scored interaction or special activity.
type ActivityType string

// Interaction kinds.
const (
	ActivityLike    ActivityType = "like"
	ActivityComment ActivityType = "comment"
	ActivityShare   ActivityType = "share"
	ActivityView    ActivityType = "view"
	ActivitySave    ActivityType = "save"
)

// Special activities with fixed point values.
const (
	ActivityVoiceCall   ActivityType = "voice_call"
	ActivityVideoCall   ActivityType = "video_call"
	ActivityMeetup      ActivityType = "meetup"
	ActivityMilestone   ActivityType = "milestone"
	ActivityStreakBonus ActivityType = "streak_bonus"
)

// ContentType selects the base-points multiplier.
type ContentType string

const (
	ContentText  ContentType = "text"
	ContentImage ContentType = "image"
	ContentVideo ContentType = "video"
	ContentAudio ContentType = "audio"
)

// TimeBucket is a coarse time-of-day label supplied with an interaction.
type TimeBucket string

const (
	TimeEarlyMorning TimeBucket = "early_morning"
	TimeMorning      TimeBucket = "morning"
	TimeAfternoon    TimeBucket = "afternoon"
	TimeEvening      TimeBucket = "evening"
	TimeLateNight    TimeBucket = "late_night"
)

// OffPeak reports whether the bucket earns the off-peak bonus.
func (b TimeBucket) OffPeak() bool {
	return b == TimeLateNight || b == TimeEarlyMorning
}

// Metadata holds the optional scoring inputs of one interaction.
// A nil field means the input is absent and its bonus is zero.
type Metadata struct {
	ContentType         ContentType `json:"content_type,omitempty"`
	ElapsedMinutes      *float64    `json:"elapsed_minutes,omitempty"`
	Reciprocal          *bool       `json:"reciprocal,omitempty"`
	ConsecutiveDays     *int        `json:"consecutive_days,omitempty"`
	TopicSimilarity     *float64    `json:"topic_similarity,omitempty"`
	TimeOfDay           TimeBucket  `json:"time_of_day,omitempty"`
	FirstOfDay          *bool       `json:"first_of_day,omitempty"`
	CallDurationMinutes *float64    `json:"call_duration_minutes,omitempty"`
}

// IsReciprocal reports whether the reciprocity flag is present and set.
func (m Metadata) IsReciprocal() bool {
	return m.Reciprocal != nil && *m.Reciprocal
}

// QuickReaction reports whether the interaction happened within limit minutes
// of the content it reacts to.
func (m Metadata) QuickReaction(limit float64) bool {
	return m.ElapsedMinutes != nil && *m.ElapsedMinutes >= 0 && *m.ElapsedMinutes < limit
}

// Ptr returns a pointer to v. Handy for populating Metadata literals.
func Ptr[T any](v T) *T {
	return &v
}

// ActivityLogEntry is an immutable record of one scored event.
type ActivityLogEntry struct {
	ID                string       `json:"id"`
	RelationID        string       `json:"relation_id"`
	UserID            string       `json:"user_id"`
	ActivityType      ActivityType `json:"activity_type"`
	Description       string       `json:"description,omitempty"`
	Metadata          Metadata     `json:"metadata"`
	Points            float64      `json:"points"`
	CounterpartPoints float64      `json:"counterpart_points"`
	IdempotencyKey    string       `json:"idempotency_key,omitempty"`
	CreatedAt         time.Time    `json:"created_at"`
}
