// Bondscore - Reciprocal Relationship Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bondscore

package activity

import (
	"bytes"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/bondscore/internal/models"
	"github.com/tomtom215/bondscore/internal/scoring"
)

// UnmarshalJSON decodes the envelope strictly and the metadata tolerantly.
// Unknown envelope fields are an error. Metadata goes through
// scoring.ParseMetadata, so aliases are accepted and malformed values only
// cost their bonus.
func (in *Input) UnmarshalJSON(data []byte) error {
	var aux struct {
		ActorID        string              `json:"actor_id"`
		CounterpartID  string              `json:"counterpart_id"`
		ActivityType   models.ActivityType `json:"activity_type"`
		Metadata       json.RawMessage     `json:"metadata"`
		OverridePoints *float64            `json:"override_points"`
		IdempotencyKey string              `json:"idempotency_key"`
		Description    string              `json:"description"`
		OccurredAt     time.Time           `json:"occurred_at"`
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&aux); err != nil {
		return err
	}

	*in = Input{
		ActorID:        aux.ActorID,
		CounterpartID:  aux.CounterpartID,
		ActivityType:   aux.ActivityType,
		Metadata:       scoring.ParseMetadataJSON(aux.Metadata),
		OverridePoints: aux.OverridePoints,
		IdempotencyKey: aux.IdempotencyKey,
		Description:    aux.Description,
		OccurredAt:     aux.OccurredAt,
	}
	return nil
}
