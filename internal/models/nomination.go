// Bondscore - Reciprocal Relationship Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bondscore

package models

import (
	"fmt"
	"math"
	"time"
)

// NominationStatus is the state of a nomination.
type NominationStatus string

const (
	NominationPending  NominationStatus = "PENDING_RESPONSE"
	NominationAccepted NominationStatus = "ACCEPTED"
	NominationRejected NominationStatus = "REJECTED"
	NominationExpired  NominationStatus = "EXPIRED"
)

// Resolved reports whether the nomination has left PENDING_RESPONSE.
func (s NominationStatus) Resolved() bool {
	return s != NominationPending
}

// NominationSource records which path created a nomination.
type NominationSource string

const (
	SourceManual NominationSource = "manual"
	SourceCycle  NominationSource = "cycle"
	SourceAdmin  NominationSource = "admin"
)

// Nomination is a proposal from NominatorID to form a relation with NomineeID.
type Nomination struct {
	ID          string           `json:"id"`
	NominatorID string           `json:"nominator_id"`
	NomineeID   string           `json:"nominee_id"`
	RelationID  string           `json:"relation_id"`
	CycleID     string           `json:"cycle_id,omitempty"`
	Source      NominationSource `json:"source"`
	Status      NominationStatus `json:"status"`
	Message     string           `json:"message,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	ExpiresAt   time.Time        `json:"expires_at"`
	RespondedAt *time.Time       `json:"responded_at,omitempty"`
}

// ExpiredAt reports whether the nomination is past its expiry at now.
func (n *Nomination) ExpiredAt(now time.Time) bool {
	return !now.Before(n.ExpiresAt)
}

// Reason enumerates why a nomination request or response was refused.
type Reason string

const (
	ReasonNone                  Reason = ""
	ReasonSelfNomination        Reason = "self_nomination"
	ReasonMissingUser           Reason = "missing_user"
	ReasonInvalidUser           Reason = "invalid_user"
	ReasonMaxActiveNominations  Reason = "max_active_nominations"
	ReasonDailyLimit            Reason = "daily_limit"
	ReasonTargetCooldown        Reason = "target_cooldown"
	ReasonRejectionCooldown     Reason = "rejection_cooldown"
	ReasonAlreadyPending        Reason = "already_pending"
	ReasonAlreadyActive         Reason = "already_active"
	ReasonAlreadyNominatedCycle Reason = "already_nominated_in_cycle"
	ReasonNotFound              Reason = "not_found"
	ReasonNotNominee            Reason = "not_nominee"
	ReasonNotNominator          Reason = "not_nominator"
	ReasonAlreadyResolved       Reason = "already_resolved"
	ReasonNominationExpired     Reason = "nomination_expired"
	ReasonBypassUnauthorized    Reason = "bypass_unauthorized"
)

// Limits bounds how often a user may nominate.
type Limits struct {
	MaxActiveNominations int           `json:"max_active_nominations"`
	MaxPerDay            int           `json:"max_per_day"`
	TargetCooldown       time.Duration `json:"target_cooldown"`
	RejectionCooldown    time.Duration `json:"rejection_cooldown"`
	Expiry               time.Duration `json:"expiry"`
}

// DefaultLimits returns the limits used when nothing is configured.
func DefaultLimits() Limits {
	return Limits{
		MaxActiveNominations: 3,
		MaxPerDay:            5,
		TargetCooldown:       24 * time.Hour,
		RejectionCooldown:    7 * 24 * time.Hour,
		Expiry:               72 * time.Hour,
	}
}

// Unbounded relaxes every counting and cooldown limit while keeping the
// expiry of l.
func (l Limits) Unbounded() Limits {
	l.MaxActiveNominations = math.MaxInt
	l.MaxPerDay = math.MaxInt
	l.TargetCooldown = 0
	l.RejectionCooldown = 0
	return l
}

// Validate checks that the limits can be enforced.
func (l Limits) Validate() error {
	if l.MaxActiveNominations < 1 {
		return fmt.Errorf("max active nominations must be at least 1, got %d", l.MaxActiveNominations)
	}
	if l.MaxPerDay < 1 {
		return fmt.Errorf("max nominations per day must be at least 1, got %d", l.MaxPerDay)
	}
	if l.TargetCooldown < 0 || l.RejectionCooldown < 0 {
		return fmt.Errorf("cooldowns must not be negative")
	}
	if l.Expiry <= 0 {
		return fmt.Errorf("nomination expiry must be positive, got %v", l.Expiry)
	}
	return nil
}
