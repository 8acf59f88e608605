// Bondscore - Reciprocal Relationship Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bondscore

package signals

import (
	"context"
	"time"
)

// InteractionStat summarizes the interactions between a user and one
// counterpart. Last is the most recent interaction in either direction.
type InteractionStat struct {
	Sent     int       `json:"sent"`
	Received int       `json:"received"`
	Last     time.Time `json:"last"`
}

// Total returns the interaction count in both directions.
func (s InteractionStat) Total() int { return s.Sent + s.Received }

// Mutual reports whether both sides have interacted.
func (s InteractionStat) Mutual() bool { return s.Sent > 0 && s.Received > 0 }

// Provider supplies the signals used for compatibility scoring.
type Provider interface {
	// Interests returns the declared interests of each requested user.
	// Users without interests are absent from the map.
	Interests(ctx context.Context, userIDs []string) (map[string][]string, error)

	// InteractionStats returns per-counterpart interaction statistics.
	InteractionStats(ctx context.Context, userID string) (map[string]InteractionStat, error)

	// MutualConnections returns, per second-degree user, the number of
	// connections shared with userID.
	MutualConnections(ctx context.Context, userID string) (map[string]int, error)

	// CandidatePool returns up to limit active users that share history,
	// connections or interests with userID. userID itself is never returned.
	CandidatePool(ctx context.Context, userID string, limit int) ([]string, error)

	// EligibleUsers returns the active users processed by a cycle.
	EligibleUsers(ctx context.Context) ([]string, error)
}
