// Bondscore - Reciprocal Relationship Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bondscore

package models

import (
	"errors"
	"strings"
	"time"
)

// Pair validation errors.
var (
	ErrMissingUser = errors.New("user identifier is required")
	ErrSelfPair    = errors.New("a user cannot be paired with themselves")
	ErrInvalidUser = errors.New("user identifier contains reserved characters")
)

// Status is the lifecycle state of a relation.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusActive   Status = "ACTIVE"
	StatusExpired  Status = "EXPIRED"
	StatusRejected Status = "REJECTED"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusActive, StatusExpired, StatusRejected:
		return true
	}
	return false
}

// Terminal reports whether s can no longer change.
func (s Status) Terminal() bool {
	return s == StatusExpired || s == StatusRejected
}

// CanTransitionTo reports whether a relation in state s may move to next.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusActive || next == StatusExpired || next == StatusRejected
	case StatusActive:
		return next == StatusExpired || next == StatusRejected
	default:
		return false
	}
}

// Tier is the relationship strength bucket derived from total points.
type Tier string

const (
	TierWeak       Tier = "WEAK"
	TierModerate   Tier = "MODERATE"
	TierStrong     Tier = "STRONG"
	TierVeryStrong Tier = "VERY_STRONG"
)

// Pair is a canonical unordered pair of users. UserA always sorts before UserB.
type Pair struct {
	UserA string `json:"user_a"`
	UserB string `json:"user_b"`
}

// NewPair validates both identifiers and returns them in canonical order.
func NewPair(a, b string) (Pair, error) {
	a = strings.TrimSpace(a)
	b = strings.TrimSpace(b)
	if a == "" || b == "" {
		return Pair{}, ErrMissingUser
	}
	if err := ValidateUserID(a); err != nil {
		return Pair{}, err
	}
	if err := ValidateUserID(b); err != nil {
		return Pair{}, err
	}
	if a == b {
		return Pair{}, ErrSelfPair
	}
	if a > b {
		a, b = b, a
	}
	return Pair{UserA: a, UserB: b}, nil
}

// ValidateUserID rejects identifiers that would corrupt composite store keys.
func ValidateUserID(id string) error {
	if id == "" {
		return ErrMissingUser
	}
	if strings.ContainsAny(id, ":|") {
		return ErrInvalidUser
	}
	return nil
}

// Key returns the stable string form of the pair.
func (p Pair) Key() string {
	return p.UserA + "|" + p.UserB
}

// Contains reports whether userID is one side of the pair.
func (p Pair) Contains(userID string) bool {
	return p.UserA == userID || p.UserB == userID
}

// Other returns the counterpart of userID, or "" when userID is not in the pair.
func (p Pair) Other(userID string) string {
	switch userID {
	case p.UserA:
		return p.UserB
	case p.UserB:
		return p.UserA
	}
	return ""
}

// Relation is one pairwise relationship record.
//
// User1Points belongs to UserA and User2Points to UserB. TotalPoints,
// MutualScore and Strength are derived on every points mutation and are
// never written independently.
type Relation struct {
	ID     string `json:"id"`
	UserA  string `json:"user_a"`
	UserB  string `json:"user_b"`
	Status Status `json:"status"`

	User1Points float64 `json:"user1_points"`
	User2Points float64 `json:"user2_points"`
	TotalPoints float64 `json:"total_points"`
	MutualScore float64 `json:"mutual_score"`
	Strength    Tier    `json:"relationship_strength"`

	StartDate       time.Time `json:"start_date"`
	EndDate         time.Time `json:"end_date"`
	LastInteraction time.Time `json:"last_interaction"`
	NominatedBy     string    `json:"nominated_by,omitempty"`
	NominationWeek  string    `json:"nomination_week,omitempty"`
	ActivityCount   int64     `json:"activity_count"`

	// Periodic fields refreshed by the cycle.
	InteractionFrequency float64  `json:"interaction_frequency"`
	CompatibilityScore   float64  `json:"compatibility_score"`
	CommonInterests      []string `json:"common_interests,omitempty"`
	MutualFriends        int      `json:"mutual_friends"`

	StatusReason    string    `json:"status_reason,omitempty"`
	StatusChangedBy string    `json:"status_changed_by,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Pair returns the canonical pair of the relation.
func (r *Relation) Pair() Pair {
	return Pair{UserA: r.UserA, UserB: r.UserB}
}

// PointsFor returns the points accumulated by userID's side.
func (r *Relation) PointsFor(userID string) float64 {
	switch userID {
	case r.UserA:
		return r.User1Points
	case r.UserB:
		return r.User2Points
	}
	return 0
}

// Open reports whether the relation still occupies its pair.
func (r *Relation) Open() bool {
	return !r.Status.Terminal()
}

// WithinWindow reports whether now falls inside the validity window.
// A zero EndDate means the window has not been set yet.
func (r *Relation) WithinWindow(now time.Time) bool {
	return r.EndDate.IsZero() || now.Before(r.EndDate)
}

// DerivedStats carries the periodic fields recomputed by the cycle.
type DerivedStats struct {
	InteractionFrequency float64  `json:"interaction_frequency"`
	CompatibilityScore   float64  `json:"compatibility_score"`
	CommonInterests      []string `json:"common_interests,omitempty"`
	MutualFriends        int      `json:"mutual_friends"`
}
