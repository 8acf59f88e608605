// Bondscore - Reciprocal Relationship Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bondscore

package store

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/bondscore/internal/models"
	"github.com/tomtom215/bondscore/internal/scoring"
)

// PointsUpdate is one atomic points award.
type PointsUpdate struct {
	RelationID string
	ActorID    string
	// Delta is added to the actor's side.
	Delta float64
	// CounterpartDelta is added to the other side.
	CounterpartDelta float64
	ActivityType     models.ActivityType
	Description      string
	Metadata         models.Metadata
	// IdempotencyKey makes the award at-most-once for this relation.
	IdempotencyKey string
	// At is the activity time. Zero means now.
	At time.Time
}

// PointsResult reports the relation before and after an award.
type PointsResult struct {
	Before models.Relation
	After  models.Relation
	Entry  models.ActivityLogEntry
	// Duplicate is set when IdempotencyKey had already been applied; Before
	// and After are then both the current state.
	Duplicate bool
}

// TierChanged reports whether the award moved the relation to another tier.
func (r *PointsResult) TierChanged() bool {
	return r.Before.Strength != r.After.Strength
}

// ApplyPoints adds points to a relation and appends one activity log entry
// in a single transaction.
func (s *BadgerStore) ApplyPoints(ctx context.Context, u PointsUpdate) (*PointsResult, error) {
	if err := validDelta(u.Delta); err != nil {
		return nil, err
	}
	if err := validDelta(u.CounterpartDelta); err != nil {
		return nil, err
	}
	at := u.At
	if at.IsZero() {
		at = s.now()
	}
	at = at.UTC()

	var result *PointsResult
	err := s.update(ctx, "apply_points", []string{"rel:" + u.RelationID}, func(txn *badger.Txn) error {
		result = nil

		if u.IdempotencyKey != "" {
			replay, err := s.replay(txn, u.RelationID, u.IdempotencyKey)
			if err != nil {
				return err
			}
			if replay != nil {
				result = replay
				return nil
			}
		}

		var rel models.Relation
		if err := getJSON(txn, relationKey(u.RelationID), &rel); err != nil {
			return err
		}
		if rel.Status != models.StatusActive || !rel.WithinWindow(at) {
			return fmt.Errorf("%w: %s is %s", ErrRelationNotActive, rel.ID, rel.Status)
		}
		before := rel

		switch u.ActorID {
		case rel.UserA:
			rel.User1Points += u.Delta
			rel.User2Points += u.CounterpartDelta
		case rel.UserB:
			rel.User2Points += u.Delta
			rel.User1Points += u.CounterpartDelta
		default:
			return fmt.Errorf("%w: %s", ErrNotParticipant, u.ActorID)
		}
		rel.TotalPoints = rel.User1Points + rel.User2Points
		rel.MutualScore = math.Min(rel.User1Points, rel.User2Points)
		rel.Strength = scoring.TierFor(rel.TotalPoints)
		if at.After(rel.LastInteraction) {
			rel.LastInteraction = at
		}
		rel.ActivityCount++
		rel.UpdatedAt = s.now()

		entry := models.ActivityLogEntry{
			ID:                uuid.NewString(),
			RelationID:        rel.ID,
			UserID:            u.ActorID,
			ActivityType:      u.ActivityType,
			Description:       u.Description,
			Metadata:          u.Metadata,
			Points:            u.Delta,
			CounterpartPoints: u.CounterpartDelta,
			IdempotencyKey:    u.IdempotencyKey,
			CreatedAt:         at,
		}

		if err := setJSON(txn, relationKey(rel.ID), &rel); err != nil {
			return err
		}
		if err := setJSON(txn, activityKey(rel.ID, at, entry.ID), &entry); err != nil {
			return err
		}
		if u.IdempotencyKey != "" {
			data, err := json.Marshal(&entry)
			if err != nil {
				return fmt.Errorf("marshal replay record: %w", err)
			}
			e := badger.NewEntry(idempotencyKey(rel.ID, u.IdempotencyKey), data).WithTTL(s.cfg.IdempotencyTTL)
			if err := txn.SetEntry(e); err != nil {
				return fmt.Errorf("set replay record: %w", err)
			}
		}

		result = &PointsResult{Before: before, After: rel, Entry: entry}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// replay returns the stored result for an idempotency key, or nil.
func (s *BadgerStore) replay(txn *badger.Txn, relationID, key string) (*PointsResult, error) {
	var entry models.ActivityLogEntry
	err := getJSON(txn, idempotencyKey(relationID, key), &entry)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var rel models.Relation
	if err := getJSON(txn, relationKey(relationID), &rel); err != nil {
		return nil, err
	}
	return &PointsResult{Before: rel, After: rel, Entry: entry, Duplicate: true}, nil
}

func validDelta(d float64) error {
	if math.IsNaN(d) || math.IsInf(d, 0) || d < 0 {
		return fmt.Errorf("%w: %v", ErrInvalidPoints, d)
	}
	return nil
}

// ListActivity returns a relation's log entries at or after since, oldest first.
func (s *BadgerStore) ListActivity(ctx context.Context, relationID string, since time.Time) ([]models.ActivityLogEntry, error) {
	var entries []models.ActivityLogEntry
	err := s.view(ctx, func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		prefix := activityScan(relationID)
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		seek := prefix
		if !since.IsZero() {
			seek = activitySeek(relationID, since)
		}
		for it.Seek(seek); it.ValidForPrefix(prefix); it.Next() {
			var entry models.ActivityLogEntry
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &entry)
			}); err != nil {
				return fmt.Errorf("decode activity entry: %w", err)
			}
			entries = append(entries, entry)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list activity for %s: %w", relationID, err)
	}
	return entries, nil
}
