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
)

// Role selects which side of a nomination ListNominations returns.
type Role string

const (
	RoleAny       Role = ""
	RoleNominator Role = "sent"
	RoleNominee   Role = "received"
)

// NominationParams describes a nomination to create.
type NominationParams struct {
	NominatorID string
	NomineeID   string
	CycleID     string
	Source      models.NominationSource
	Message     string
	At          time.Time
}

// limitWindow is the span counted against Limits.MaxPerDay.
const limitWindow = 24 * time.Hour

// CreateNomination checks limits and inserts a nomination together with its
// PENDING relation. Limit counting happens inside the same transaction as
// the insert.
func (s *BadgerStore) CreateNomination(ctx context.Context, p NominationParams, limits models.Limits) (*models.Nomination, *models.Relation, error) {
	pair, err := models.NewPair(p.NominatorID, p.NomineeID)
	if err != nil {
		return nil, nil, err
	}
	if err := limits.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid limits: %w", err)
	}
	at := p.At
	if at.IsZero() {
		at = s.now()
	}
	at = at.UTC()
	if p.Source == "" {
		p.Source = models.SourceManual
	}

	var (
		nom *models.Nomination
		rel *models.Relation
	)
	names := []string{"user:" + p.NominatorID, "pair:" + pair.Key()}
	err = s.update(ctx, "create_nomination", names, func(txn *badger.Txn) error {
		nom, rel = nil, nil

		// Every nomination by this user rewrites the ledger, so concurrent
		// attempts conflict instead of both passing the counts below.
		if err := bumpLedger(txn, p.NominatorID); err != nil {
			return err
		}

		if p.CycleID != "" {
			if _, err := txn.Get(cycleMarkerKey(p.CycleID, pair.Key())); err == nil {
				return refuse(models.ReasonAlreadyNominatedCycle, "cycle %s", p.CycleID)
			} else if !errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("get cycle marker: %w", err)
			}
		}

		open, err := openRelation(txn, pair)
		if err != nil {
			return err
		}
		if open != nil && open.Status == models.StatusPending {
			freed, err := s.expireStalePending(txn, open, pair, at)
			if err != nil {
				return err
			}
			if freed {
				open = nil
			}
		}
		if open != nil {
			if open.Status == models.StatusActive {
				return refuse(models.ReasonAlreadyActive, "relation %s", open.ID)
			}
			return refuse(models.ReasonAlreadyPending, "relation %s", open.ID)
		}

		if err := checkRejectionCooldown(txn, p.NominatorID, p.NomineeID, at, limits.RejectionCooldown); err != nil {
			return err
		}
		if err := checkSentLimits(txn, p.NominatorID, p.NomineeID, at, limits); err != nil {
			return err
		}

		newRel, err := s.insertRelation(txn, pair, p.NominatorID, p.CycleID, models.StatusPending, at)
		if err != nil {
			return err
		}

		n := &models.Nomination{
			ID:          uuid.NewString(),
			NominatorID: p.NominatorID,
			NomineeID:   p.NomineeID,
			RelationID:  newRel.ID,
			CycleID:     p.CycleID,
			Source:      p.Source,
			Status:      models.NominationPending,
			Message:     p.Message,
			CreatedAt:   at,
			ExpiresAt:   at.Add(limits.Expiry),
		}
		if err := setJSON(txn, nominationKey(n.ID), n); err != nil {
			return err
		}
		if err := txn.Set(nominatorKey(n.NominatorID, n.CreatedAt, n.ID), []byte(n.ID)); err != nil {
			return fmt.Errorf("set nominator index: %w", err)
		}
		if err := txn.Set(nomineeKey(n.NomineeID, n.ID), []byte(n.ID)); err != nil {
			return fmt.Errorf("set nominee index: %w", err)
		}
		if err := txn.Set(pendingKey(n.ExpiresAt, n.ID), []byte(n.ID)); err != nil {
			return fmt.Errorf("set pending index: %w", err)
		}
		if p.CycleID != "" {
			if err := txn.Set(cycleMarkerKey(p.CycleID, pair.Key()), []byte(n.ID)); err != nil {
				return fmt.Errorf("set cycle marker: %w", err)
			}
		}

		nom, rel = n, newRel
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return nom, rel, nil
}

// expireStalePending expires the pending nomination behind rel when it is
// past its expiry but the sweep has not reached it yet, and reports whether
// the pair was freed.
func (s *BadgerStore) expireStalePending(txn *badger.Txn, rel *models.Relation, pair models.Pair, at time.Time) (bool, error) {
	for _, user := range []string{pair.UserA, pair.UserB} {
		for _, key := range scanKeys(txn, nominatorScan(user), nil) {
			var n models.Nomination
			if err := getJSON(txn, nominationKey(lastSegment(key)), &n); err != nil {
				if errors.Is(err, ErrNotFound) {
					continue
				}
				return false, err
			}
			if n.RelationID != rel.ID || n.Status != models.NominationPending {
				continue
			}
			if !n.ExpiredAt(at) {
				return false, nil
			}
			if err := s.transition(txn, rel, models.StatusExpired, "system", "nomination expired", at); err != nil {
				return false, err
			}
			if err := resolve(txn, &n, models.NominationExpired, at); err != nil {
				return false, err
			}
			s.logger.Debug().Str("nomination_id", n.ID).Msg("Expired stale nomination ahead of the sweep")
			return true, nil
		}
	}
	return false, nil
}

func checkRejectionCooldown(txn *badger.Txn, nominatorID, nomineeID string, at time.Time, cooldown time.Duration) error {
	if cooldown <= 0 {
		return nil
	}
	var rejectedAt time.Time
	err := getJSON(txn, rejectionKey(nominatorID, nomineeID), &rejectedAt)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if until := rejectedAt.Add(cooldown); at.Before(until) {
		return refuse(models.ReasonRejectionCooldown, "until %s", until.Format(time.RFC3339))
	}
	return nil
}

// checkSentLimits evaluates the counting limits over the nominator's history.
func checkSentLimits(txn *badger.Txn, nominatorID, nomineeID string, at time.Time, limits models.Limits) error {
	var (
		pending    int
		today      int
		lastTarget time.Time
	)
	dayStart := at.Add(-limitWindow)
	for _, key := range scanKeys(txn, nominatorScan(nominatorID), nil) {
		var n models.Nomination
		if err := getJSON(txn, nominationKey(lastSegment(key)), &n); err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return err
		}
		if n.Status == models.NominationPending && !n.ExpiredAt(at) {
			pending++
		}
		if n.CreatedAt.After(dayStart) {
			today++
		}
		if n.NomineeID == nomineeID && n.CreatedAt.After(lastTarget) {
			lastTarget = n.CreatedAt
		}
	}

	if limits.TargetCooldown > 0 && !lastTarget.IsZero() {
		if until := lastTarget.Add(limits.TargetCooldown); at.Before(until) {
			return refuse(models.ReasonTargetCooldown, "until %s", until.Format(time.RFC3339))
		}
	}
	if pending >= limits.MaxActiveNominations {
		return refuse(models.ReasonMaxActiveNominations, "%d pending of %d", pending, limits.MaxActiveNominations)
	}
	if today >= limits.MaxPerDay {
		return refuse(models.ReasonDailyLimit, "%d sent in 24h of %d", today, limits.MaxPerDay)
	}
	return nil
}

// loadPending reads a nomination inside txn and checks it can be resolved.
func loadPending(txn *badger.Txn, id string) (*models.Nomination, error) {
	var n models.Nomination
	if err := getJSON(txn, nominationKey(id), &n); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, refuse(models.ReasonNotFound, "nomination %s", id)
		}
		return nil, err
	}
	if n.Status.Resolved() {
		return nil, refuse(models.ReasonAlreadyResolved, "nomination is %s", n.Status)
	}
	return &n, nil
}

// resolve writes the final state of a nomination and drops its pending index.
func resolve(txn *badger.Txn, n *models.Nomination, status models.NominationStatus, at time.Time) error {
	if err := deleteKey(txn, pendingKey(n.ExpiresAt, n.ID)); err != nil {
		return err
	}
	n.Status = status
	respondedAt := at
	n.RespondedAt = &respondedAt
	if err := setJSON(txn, nominationKey(n.ID), n); err != nil {
		return err
	}
	return bumpLedger(txn, n.NominatorID)
}

// AcceptNomination accepts a pending nomination and activates its relation
// in the same transaction. A missing or closed pending relation is replaced
// by a fresh ACTIVE one.
func (s *BadgerStore) AcceptNomination(ctx context.Context, id, responderID string, now time.Time) (*models.Nomination, *models.Relation, error) {
	var (
		nom *models.Nomination
		rel *models.Relation
	)
	now = now.UTC()
	names, err := s.nominationLocks(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	err = s.update(ctx, "accept_nomination", names, func(txn *badger.Txn) error {
		nom, rel = nil, nil
		n, err := loadPending(txn, id)
		if err != nil {
			return err
		}
		if n.NomineeID != responderID {
			return refuse(models.ReasonNotNominee, "responder %s", responderID)
		}
		if n.ExpiredAt(now) {
			return refuse(models.ReasonNominationExpired, "expired at %s", n.ExpiresAt.Format(time.RFC3339))
		}

		var r models.Relation
		err = getJSON(txn, relationKey(n.RelationID), &r)
		switch {
		case err == nil && r.Status == models.StatusPending:
			if err := s.transition(txn, &r, models.StatusActive, responderID, "nomination accepted", now); err != nil {
				return err
			}
			rel = &r
		case err == nil || errors.Is(err, ErrNotFound):
			pair, perr := models.NewPair(n.NominatorID, n.NomineeID)
			if perr != nil {
				return perr
			}
			created, cerr := s.insertRelation(txn, pair, n.NominatorID, n.CycleID, models.StatusActive, now)
			if cerr != nil {
				return cerr
			}
			n.RelationID = created.ID
			rel = created
		default:
			return err
		}

		if err := resolve(txn, n, models.NominationAccepted, now); err != nil {
			return err
		}
		nom = n
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return nom, rel, nil
}

// RejectNomination rejects a pending nomination, closes its relation and
// starts the rejection cooldown.
func (s *BadgerStore) RejectNomination(ctx context.Context, id, responderID string, now time.Time) (*models.Nomination, *models.Relation, error) {
	return s.closeNomination(ctx, "reject_nomination", id, now, func(n *models.Nomination) error {
		if n.NomineeID != responderID {
			return refuse(models.ReasonNotNominee, "responder %s", responderID)
		}
		return nil
	}, responderID, "nomination rejected", true)
}

// CancelNomination lets the nominator withdraw a pending nomination. It is
// recorded as REJECTED without a rejection cooldown.
func (s *BadgerStore) CancelNomination(ctx context.Context, id, nominatorID string, now time.Time) (*models.Nomination, *models.Relation, error) {
	return s.closeNomination(ctx, "cancel_nomination", id, now, func(n *models.Nomination) error {
		if n.NominatorID != nominatorID {
			return refuse(models.ReasonNotNominator, "caller %s", nominatorID)
		}
		return nil
	}, nominatorID, "nomination cancelled", false)
}

func (s *BadgerStore) closeNomination(ctx context.Context, op, id string, now time.Time, authorize func(*models.Nomination) error,
	actor, reason string, cooldown bool) (*models.Nomination, *models.Relation, error) {
	var (
		nom *models.Nomination
		rel *models.Relation
	)
	now = now.UTC()
	names, err := s.nominationLocks(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	err = s.update(ctx, op, names, func(txn *badger.Txn) error {
		nom, rel = nil, nil
		n, err := loadPending(txn, id)
		if err != nil {
			return err
		}
		if err := authorize(n); err != nil {
			return err
		}

		var r models.Relation
		err = getJSON(txn, relationKey(n.RelationID), &r)
		switch {
		case err == nil && r.Status == models.StatusPending:
			if err := s.transition(txn, &r, models.StatusRejected, actor, reason, now); err != nil {
				return err
			}
			rel = &r
		case err == nil || errors.Is(err, ErrNotFound):
		default:
			return err
		}

		if cooldown {
			if err := setJSON(txn, rejectionKey(n.NominatorID, n.NomineeID), now); err != nil {
				return err
			}
		}
		if err := resolve(txn, n, models.NominationRejected, now); err != nil {
			return err
		}
		nom = n
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return nom, rel, nil
}

// nominationLocks returns the lock names for resolving nomination id.
func (s *BadgerStore) nominationLocks(ctx context.Context, id string) ([]string, error) {
	n, err := s.GetNomination(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return []string{"nom:" + id}, nil
	}
	if err != nil {
		return nil, err
	}
	pair, err := models.NewPair(n.NominatorID, n.NomineeID)
	if err != nil {
		return nil, err
	}
	return []string{"nom:" + id, "user:" + n.NominatorID, "pair:" + pair.Key()}, nil
}

// ExpireNominations moves every PENDING_RESPONSE nomination whose expiry is
// at or before now to EXPIRED. Each nomination is handled in its own
// transaction which re-checks the status, so resolved nominations are never
// touched and concurrent sweeps cannot expire one twice.
func (s *BadgerStore) ExpireNominations(ctx context.Context, now time.Time) ([]models.Nomination, error) {
	now = now.UTC()
	var due []string
	err := s.view(ctx, func(txn *badger.Txn) error {
		for _, key := range scanKeys(txn, []byte(pendingPrefix), nil) {
			exp, ok := stampSegment(key, pendingPrefix)
			if !ok {
				continue
			}
			if exp.After(now) {
				break
			}
			due = append(due, lastSegment(key))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan pending nominations: %w", err)
	}

	var expired []models.Nomination
	for _, id := range due {
		names, err := s.nominationLocks(ctx, id)
		if err != nil {
			return expired, err
		}
		var out *models.Nomination
		err = s.update(ctx, "expire_nomination", names, func(txn *badger.Txn) error {
			out = nil
			var n models.Nomination
			if err := getJSON(txn, nominationKey(id), &n); err != nil {
				return err
			}
			if n.Status != models.NominationPending || !n.ExpiredAt(now) {
				return nil
			}

			var r models.Relation
			err := getJSON(txn, relationKey(n.RelationID), &r)
			switch {
			case err == nil && r.Status == models.StatusPending:
				if err := s.transition(txn, &r, models.StatusExpired, "system", "nomination expired", now); err != nil {
					return err
				}
			case err == nil || errors.Is(err, ErrNotFound):
			default:
				return err
			}

			if err := resolve(txn, &n, models.NominationExpired, now); err != nil {
				return err
			}
			out = &n
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

// GetNomination returns a nomination by ID.
func (s *BadgerStore) GetNomination(ctx context.Context, id string) (*models.Nomination, error) {
	var n models.Nomination
	err := s.view(ctx, func(txn *badger.Txn) error {
		return getJSON(txn, nominationKey(id), &n)
	})
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// ListNominations returns the nominations a user sent, received or both,
// newest first.
func (s *BadgerStore) ListNominations(ctx context.Context, userID string, role Role) ([]models.Nomination, error) {
	var noms []models.Nomination
	err := s.view(ctx, func(txn *badger.Txn) error {
		var keys [][]byte
		if role == RoleAny || role == RoleNominator {
			keys = append(keys, scanKeys(txn, nominatorScan(userID), nil)...)
		}
		if role == RoleAny || role == RoleNominee {
			keys = append(keys, scanKeys(txn, nomineeScan(userID), nil)...)
		}
		for _, key := range keys {
			var n models.Nomination
			if err := getJSON(txn, nominationKey(lastSegment(key)), &n); err != nil {
				if errors.Is(err, ErrNotFound) {
					continue
				}
				return err
			}
			noms = append(noms, n)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list nominations for %s: %w", userID, err)
	}
	sort.Slice(noms, func(i, j int) bool {
		return noms[i].CreatedAt.After(noms[j].CreatedAt)
	})
	return noms, nil
}

// FindPendingNomination returns the PENDING_RESPONSE nomination from
// nominatorID to nomineeID, or nil.
func (s *BadgerStore) FindPendingNomination(ctx context.Context, nominatorID, nomineeID string) (*models.Nomination, error) {
	var found *models.Nomination
	err := s.view(ctx, func(txn *badger.Txn) error {
		for _, key := range scanKeys(txn, nominatorScan(nominatorID), nil) {
			var n models.Nomination
			if err := getJSON(txn, nominationKey(lastSegment(key)), &n); err != nil {
				if errors.Is(err, ErrNotFound) {
					continue
				}
				return err
			}
			if n.NomineeID == nomineeID && n.Status == models.NominationPending {
				found = &n
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// RecentRejections lists the users who rejected nominatorID at or after since.
func (s *BadgerStore) RecentRejections(ctx context.Context, nominatorID string, since time.Time) ([]string, error) {
	var users []string
	err := s.view(ctx, func(txn *badger.Txn) error {
		for _, key := range scanKeys(txn, rejectionScan(nominatorID), nil) {
			var at time.Time
			if err := getJSON(txn, key, &at); err != nil {
				if errors.Is(err, ErrNotFound) {
					continue
				}
				return err
			}
			if !at.Before(since) {
				users = append(users, lastSegment(key))
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list rejections for %s: %w", nominatorID, err)
	}
	return users, nil
}
