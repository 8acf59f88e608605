// Bondscore - Reciprocal Relationship Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bondscore

package recommend

import (
	"time"

	"github.com/tomtom215/bondscore/internal/models"
)

// Breakdown holds the normalized signal factors of a score, each in [0, 1].
type Breakdown struct {
	Interest    float64 `json:"interest"`
	Interaction float64 `json:"interaction"`
	Mutual      float64 `json:"mutual"`
}

// Candidate represents a user recommended to the requester.
type Candidate struct {
	// UserID is the recommended user.
	UserID string `json:"user_id"`

	// Score is the combined compatibility score (0-100, higher is better).
	Score float64 `json:"score"`

	// Breakdown is the per-signal contribution before weighting.
	Breakdown Breakdown `json:"breakdown"`

	CommonInterests   []string  `json:"common_interests,omitempty"`
	MutualConnections int       `json:"mutual_connections"`
	Interactions      int       `json:"interactions"`
	LastInteraction   time.Time `json:"last_interaction,omitempty"`

	// Reason provides an interpretable explanation for the recommendation.
	Reason string `json:"reason,omitempty"`
}

// Request represents a recommendation request.
type Request struct {
	// UserID is the user to generate recommendations for.
	UserID string `json:"user_id" validate:"required,userid"`

	// Limit is the number of candidates to return.
	// Defaults to Config.Limits.DefaultLimit if zero.
	Limit int `json:"limit,omitempty" validate:"omitempty,min=1,max=1000"`

	// Filters replace the configured default filters when set.
	Filters *Filters `json:"filters,omitempty"`

	// SkipCache forces a fresh computation.
	SkipCache bool `json:"-"`

	// RequestID is a unique identifier for tracing.
	RequestID string `json:"request_id,omitempty"`
}

// Response represents a recommendation response.
type Response struct {
	// Candidates is the ordered list of recommended users.
	Candidates []Candidate `json:"candidates"`

	// TotalCandidates is the size of the candidate pool before filtering.
	TotalCandidates int `json:"total_candidates"`

	// Metadata contains timing and diagnostic information.
	Metadata ResponseMetadata `json:"metadata"`

	// Events holds the recommendation.generated notification.
	Events []models.Event `json:"-"`
}

// ResponseMetadata contains timing and diagnostic information.
type ResponseMetadata struct {
	RequestID string `json:"request_id"`
	UserID    string `json:"user_id"`

	// Excluded counts pool members removed by filters.
	Excluded int `json:"excluded"`

	// MissingSignals lists signals that could not be read and scored as zero.
	MissingSignals []string `json:"missing_signals,omitempty"`

	LatencyMS int64     `json:"latency_ms"`
	CacheHit  bool      `json:"cache_hit"`
	Timestamp time.Time `json:"timestamp"`
}
