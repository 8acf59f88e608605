// Bondscore - Reciprocal Relationship Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bondscore

package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/tomtom215/bondscore/internal/models"
	"github.com/tomtom215/bondscore/internal/scoring"
)

// CreateRelationParams describes a relation to insert.
type CreateRelationParams struct {
	Pair      models.Pair
	Initiator string
	CycleID   string
	// Status must be PENDING or ACTIVE. Empty means PENDING.
	Status models.Status
	At     time.Time
}

// GetRelation returns a relation by ID.
func (s *BadgerStore) GetRelation(ctx context.Context, id string) (*models.Relation, error) {
	var rel models.Relation
	err := s.view(ctx, func(txn *badger.Txn) error {
		return getJSON(txn, relationKey(id), &rel)
	})
	if err != nil {
		return nil, err
	}
	return &rel, nil
}

// FindOpen returns the PENDING or ACTIVE relation of a pair, or nil.
func (s *BadgerStore) FindOpen(ctx context.Context, pair models.Pair) (*models.Relation, error) {
	var rel *models.Relation
	err := s.view(ctx, func(txn *badger.Txn) error {
		r, err := openRelation(txn, pair)
		rel = r
		return err
	})
	if err != nil {
		return nil, err
	}
	return rel, nil
}

// FindActive returns the ACTIVE relation of a pair whose window has not
// passed, or nil when there is none.
func (s *BadgerStore) FindActive(ctx context.Context, pair models.Pair) (*models.Relation, error) {
	rel, err := s.FindOpen(ctx, pair)
	if err != nil || rel == nil {
		return nil, err
	}
	if rel.Status != models.StatusActive || !rel.WithinWindow(s.now()) {
		return nil, nil
	}
	return rel, nil
}

// openRelation resolves the pair index inside txn.
func openRelation(txn *badger.Txn, pair models.Pair) (*models.Relation, error) {
	id, err := getString(txn, relationPairKey(pair.Key()))
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var rel models.Relation
	if err := getJSON(txn, relationKey(id), &rel); err != nil {
		return nil, fmt.Errorf("load relation %s for pair %s: %w", id, pair.Key(), err)
	}
	return &rel, nil
}

// CreateRelation inserts a relation for a pair with no open relation.
func (s *BadgerStore) CreateRelation(ctx context.Context, p CreateRelationParams) (*models.Relation, error) {
	if p.Status == "" {
		p.Status = models.StatusPending
	}
	if p.Status != models.StatusPending && p.Status != models.StatusActive {
		return nil, fmt.Errorf("%w: cannot create relation in %s", ErrInvalidTransition, p.Status)
	}
	if _, err := models.NewPair(p.Pair.UserA, p.Pair.UserB); err != nil {
		return nil, err
	}
	at := p.At
	if at.IsZero() {
		at = s.now()
	}

	var created *models.Relation
	err := s.update(ctx, "create_relation", []string{"pair:" + p.Pair.Key()}, func(txn *badger.Txn) error {
		rel, err := s.insertRelation(txn, p.Pair, p.Initiator, p.CycleID, p.Status, at.UTC())
		if err != nil {
			return err
		}
		created = rel
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// insertRelation writes a new relation and its indexes.
func (s *BadgerStore) insertRelation(txn *badger.Txn, pair models.Pair, initiator, cycleID string, status models.Status, at time.Time) (*models.Relation, error) {
	existing, err := openRelation(txn, pair)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: %s (%s)", ErrDuplicateActiveRelation, existing.ID, existing.Status)
	}

	rel := &models.Relation{
		ID:             uuid.NewString(),
		UserA:          pair.UserA,
		UserB:          pair.UserB,
		Status:         status,
		Strength:       scoring.TierFor(0),
		NominatedBy:    initiator,
		NominationWeek: cycleID,
		CreatedAt:      at,
		UpdatedAt:      at,
	}
	if status == models.StatusActive {
		s.activate(rel, at)
	}

	if err := setJSON(txn, relationKey(rel.ID), rel); err != nil {
		return nil, err
	}
	if err := txn.Set(relationPairKey(pair.Key()), []byte(rel.ID)); err != nil {
		return nil, fmt.Errorf("set pair index: %w", err)
	}
	for _, u := range []string{pair.UserA, pair.UserB} {
		if err := txn.Set(relationUserKey(u, rel.ID), []byte(rel.ID)); err != nil {
			return nil, fmt.Errorf("set user index: %w", err)
		}
	}
	if status == models.StatusActive {
		if err := txn.Set(relationExpiryKey(rel.EndDate, rel.ID), []byte(rel.ID)); err != nil {
			return nil, fmt.Errorf("set expiry index: %w", err)
		}
	}
	return rel, nil
}

func (s *BadgerStore) activate(rel *models.Relation, at time.Time) {
	rel.Status = models.StatusActive
	rel.StartDate = at
	rel.EndDate = at.Add(s.cfg.RelationDuration)
}

// transition moves rel to status `to` inside txn and maintains the indexes.
func (s *BadgerStore) transition(txn *badger.Txn, rel *models.Relation, to models.Status, actor, reason string, at time.Time) error {
	if !rel.Status.CanTransitionTo(to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, rel.Status, to)
	}
	from := rel.Status
	if from == models.StatusActive && !rel.EndDate.IsZero() {
		if err := deleteKey(txn, relationExpiryKey(rel.EndDate, rel.ID)); err != nil {
			return err
		}
	}

	if to == models.StatusActive {
		s.activate(rel, at)
		if err := txn.Set(relationExpiryKey(rel.EndDate, rel.ID), []byte(rel.ID)); err != nil {
			return fmt.Errorf("set expiry index: %w", err)
		}
	} else {
		rel.Status = to
	}
	rel.StatusChangedBy = actor
	rel.StatusReason = reason
	rel.UpdatedAt = at

	if to.Terminal() {
		if err := deleteKey(txn, relationPairKey(rel.Pair().Key())); err != nil {
			return err
		}
	}
	return setJSON(txn, relationKey(rel.ID), rel)
}

// SetStatus applies a lifecycle transition to a relation.
func (s *BadgerStore) SetStatus(ctx context.Context, id string, to models.Status, actor, reason string) (*models.Relation, error) {
	if !to.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, to)
	}
	at := s.now()

	var out *models.Relation
	err := s.update(ctx, "set_status", []string{"rel:" + id}, func(txn *badger.Txn) error {
		var rel models.Relation
		if err := getJSON(txn, relationKey(id), &rel); err != nil {
			return err
		}
		if err := s.transition(txn, &rel, to, actor, reason, at); err != nil {
			return err
		}
		out = &rel
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListForUser returns the user's relations, optionally filtered by status,
// most recently updated first.
func (s *BadgerStore) ListForUser(ctx context.Context, userID string, statuses ...models.Status) ([]models.Relation, error) {
	want := make(map[models.Status]bool, len(statuses))
	for _, st := range statuses {
		want[st] = true
	}

	var rels []models.Relation
	err := s.view(ctx, func(txn *badger.Txn) error {
		for _, key := range scanKeys(txn, relationUserScan(userID), nil) {
			var rel models.Relation
			if err := getJSON(txn, relationKey(lastSegment(key)), &rel); err != nil {
				if errors.Is(err, ErrNotFound) {
					continue
				}
				return err
			}
			if len(want) > 0 && !want[rel.Status] {
				continue
			}
			rels = append(rels, rel)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list relations for %s: %w", userID, err)
	}

	sort.Slice(rels, func(i, j int) bool {
		return rels[i].UpdatedAt.After(rels[j].UpdatedAt)
	})
	return rels, nil
}

// RefreshDerived overwrites the periodic fields of an open relation.
func (s *BadgerStore) RefreshDerived(ctx context.Context, id string, stats models.DerivedStats) (*models.Relation, error) {
	var out *models.Relation
	err := s.update(ctx, "refresh_derived", []string{"rel:" + id}, func(txn *badger.Txn) error {
		var rel models.Relation
		if err := getJSON(txn, relationKey(id), &rel); err != nil {
			return err
		}
		if !rel.Open() {
			return fmt.Errorf("%w: relation %s is %s", ErrInvalidTransition, id, rel.Status)
		}
		rel.InteractionFrequency = stats.InteractionFrequency
		rel.CompatibilityScore = stats.CompatibilityScore
		rel.CommonInterests = stats.CommonInterests
		rel.MutualFriends = stats.MutualFriends
		rel.UpdatedAt = s.now()
		if err := setJSON(txn, relationKey(id), &rel); err != nil {
			return err
		}
		out = &rel
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ExpireRelations closes every ACTIVE relation whose window ended at or
// before now. Each relation is expired in its own transaction.
func (s *BadgerStore) ExpireRelations(ctx context.Context, now time.Time) ([]models.Relation, error) {
	var due []string
	err := s.view(ctx, func(txn *badger.Txn) error {
		for _, key := range scanKeys(txn, []byte(relationExpiryPrefix), nil) {
			end, ok := stampSegment(key, relationExpiryPrefix)
			if !ok {
				continue
			}
			if end.After(now) {
				break
			}
			due = append(due, lastSegment(key))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan relation expiry: %w", err)
	}

	var expired []models.Relation
	for _, id := range due {
		var out *models.Relation
		err := s.update(ctx, "expire_relation", []string{"rel:" + id}, func(txn *badger.Txn) error {
			out = nil
			var rel models.Relation
			if err := getJSON(txn, relationKey(id), &rel); err != nil {
				return err
			}
			if rel.Status != models.StatusActive || rel.WithinWindow(now) {
				return nil
			}
			if err := s.transition(txn, &rel, models.StatusExpired, "system", "validity window ended", now.UTC()); err != nil {
				return err
			}
			out = &rel
			return nil
		})
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return expired, err
		}
		if out != nil {
			expired = append(expired, *out)
		}
	}
	return expired, nil
}
