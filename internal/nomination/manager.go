// Bondscore - Reciprocal Relationship Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bondscore

// Package nomination arbitrates the nomination workflow: creating
// nominations under anti-abuse limits, accepting or rejecting them, and
// expiring the ones nobody answered. Limit checks and state changes run
// inside the store's transactions; this package maps their refusals to
// results, emits events and records metrics.
package nomination

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/tomtom215/bondscore/internal/metrics"
	"github.com/tomtom215/bondscore/internal/models"
	"github.com/tomtom215/bondscore/internal/store"
)

// ErrBypassUnauthorized is returned by Bypass for a missing or wrong token.
var ErrBypassUnauthorized = errors.New("limit bypass not authorized")

// Store is the part of the relationship store the manager needs.
type Store interface {
	CreateNomination(ctx context.Context, p store.NominationParams, limits models.Limits) (*models.Nomination, *models.Relation, error)
	AcceptNomination(ctx context.Context, id, responderID string, now time.Time) (*models.Nomination, *models.Relation, error)
	RejectNomination(ctx context.Context, id, responderID string, now time.Time) (*models.Nomination, *models.Relation, error)
	CancelNomination(ctx context.Context, id, nominatorID string, now time.Time) (*models.Nomination, *models.Relation, error)
	ExpireNominations(ctx context.Context, now time.Time) ([]models.Nomination, error)
	GetNomination(ctx context.Context, id string) (*models.Nomination, error)
	ListNominations(ctx context.Context, userID string, role store.Role) ([]models.Nomination, error)
	FindPendingNomination(ctx context.Context, nominatorID, nomineeID string) (*models.Nomination, error)
}

// Config configures a Manager.
type Config struct {
	Limits models.Limits
	// AdminToken unlocks Bypass. Empty disables bypass entirely.
	AdminToken string
	// AdminTokenHash is a bcrypt hash of the admin token. It takes
	// precedence over AdminToken so the plain token can stay out of config.
	AdminTokenHash string
	// MutualAutoAccept accepts the counterpart's pending nomination instead
	// of creating a second one in the opposite direction.
	MutualAutoAccept bool
}

// DefaultConfig returns the default limits with mutual auto-accept on.
func DefaultConfig() Config {
	return Config{
		Limits:           models.DefaultLimits(),
		MutualAutoAccept: true,
	}
}

// Request asks to nominate NomineeID on behalf of NominatorID.
type Request struct {
	NominatorID string                  `json:"nominator_id" validate:"required,userid"`
	NomineeID   string                  `json:"nominee_id" validate:"required,userid"`
	Message     string                  `json:"message,omitempty" validate:"omitempty,max=280"`
	CycleID     string                  `json:"cycle_id,omitempty"`
	Source      models.NominationSource `json:"source,omitempty"`
}

// Result is the outcome of a nomination operation. Success false comes with
// a Reason; errors are reserved for store failures.
type Result struct {
	Success      bool               `json:"success"`
	Reason       models.Reason      `json:"reason,omitempty"`
	Detail       string             `json:"detail,omitempty"`
	Nomination   *models.Nomination `json:"nomination,omitempty"`
	Relation     *models.Relation   `json:"relation,omitempty"`
	AutoAccepted bool               `json:"auto_accepted,omitempty"`
	Events       []models.Event     `json:"events,omitempty"`
}

// SweepResult reports one expiry sweep.
type SweepResult struct {
	Expired     int                 `json:"expired"`
	Nominations []models.Nomination `json:"nominations"`
	Events      []models.Event      `json:"events,omitempty"`
}

// Manager runs the nomination workflow.
type Manager struct {
	store  Store
	cfg    Config
	logger zerolog.Logger
	now    func() time.Time

	// tokenHash is nil when bypass is disabled.
	tokenHash []byte
}

// NewManager validates cfg and creates a manager.
func NewManager(st Store, cfg Config, logger zerolog.Logger) (*Manager, error) {
	if err := cfg.Limits.Validate(); err != nil {
		return nil, fmt.Errorf("invalid nomination limits: %w", err)
	}
	hash, err := adminTokenHash(cfg)
	if err != nil {
		return nil, err
	}
	cfg.AdminToken = ""
	return &Manager{
		store:     st,
		cfg:       cfg,
		logger:    logger.With().Str("component", "nomination").Logger(),
		now:       time.Now,
		tokenHash: hash,
	}, nil
}

func adminTokenHash(cfg Config) ([]byte, error) {
	if cfg.AdminTokenHash != "" {
		if _, err := bcrypt.Cost([]byte(cfg.AdminTokenHash)); err != nil {
			return nil, fmt.Errorf("invalid admin token hash: %w", err)
		}
		return []byte(cfg.AdminTokenHash), nil
	}
	if cfg.AdminToken == "" {
		return nil, nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminToken), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash admin token: %w", err)
	}
	return hash, nil
}

// SetClock replaces the manager's clock.
func (m *Manager) SetClock(now func() time.Time) {
	m.now = now
}

// Limits returns the limits applied to regular nominations.
func (m *Manager) Limits() models.Limits {
	return m.cfg.Limits
}

// Nominate creates a nomination under the configured limits.
func (m *Manager) Nominate(ctx context.Context, req Request) (*Result, error) {
	return m.nominate(ctx, req, m.cfg.Limits)
}

func (m *Manager) nominate(ctx context.Context, req Request, limits models.Limits) (*Result, error) {
	if _, err := models.NewPair(req.NominatorID, req.NomineeID); err != nil {
		return m.refused(pairReason(err), err.Error()), nil
	}
	if req.Source == "" {
		req.Source = models.SourceManual
	}
	now := m.now().UTC()

	// Only a person's own nomination counts as consent; cycle picks fall
	// through to CreateNomination and are refused as already_pending.
	if m.cfg.MutualAutoAccept && req.Source != models.SourceCycle && req.CycleID == "" {
		res, err := m.acceptMutual(ctx, req, now)
		if err != nil || res != nil {
			return res, err
		}
	}

	nom, rel, err := m.store.CreateNomination(ctx, store.NominationParams{
		NominatorID: req.NominatorID,
		NomineeID:   req.NomineeID,
		CycleID:     req.CycleID,
		Source:      req.Source,
		Message:     req.Message,
		At:          now,
	}, limits)
	if err != nil {
		if reason, ok := store.ReasonOf(err); ok {
			return m.refused(reason, err.Error()), nil
		}
		return nil, fmt.Errorf("create nomination: %w", err)
	}

	metrics.NominationsCreated.WithLabelValues(string(nom.Source)).Inc()
	m.logger.Info().
		Str("nomination_id", nom.ID).
		Str("nominator_id", nom.NominatorID).
		Str("nominee_id", nom.NomineeID).
		Str("source", string(nom.Source)).
		Msg("Nomination created")

	return &Result{
		Success:    true,
		Nomination: nom,
		Relation:   rel,
		Events:     []models.Event{nominationEvent(models.EventNominationCreated, nom, now)},
	}, nil
}

// acceptMutual accepts the nominee's pending nomination toward the
// nominator, if there is one. A nil result means there was nothing to accept.
func (m *Manager) acceptMutual(ctx context.Context, req Request, now time.Time) (*Result, error) {
	pending, err := m.store.FindPendingNomination(ctx, req.NomineeID, req.NominatorID)
	if err != nil {
		return nil, fmt.Errorf("find reverse nomination: %w", err)
	}
	if pending == nil || pending.ExpiredAt(now) {
		return nil, nil
	}

	nom, rel, err := m.store.AcceptNomination(ctx, pending.ID, req.NominatorID, now)
	if err != nil {
		if _, ok := store.ReasonOf(err); ok {
			// Resolved concurrently; create a nomination of our own instead.
			return nil, nil
		}
		return nil, fmt.Errorf("auto-accept nomination %s: %w", pending.ID, err)
	}

	metrics.NominationResponses.WithLabelValues("auto_accepted").Inc()
	m.logger.Info().
		Str("nomination_id", nom.ID).
		Str("relation_id", rel.ID).
		Msg("Mutual nomination auto-accepted")

	return &Result{
		Success:      true,
		Nomination:   nom,
		Relation:     rel,
		AutoAccepted: true,
		Events:       []models.Event{nominationEvent(models.EventNominationAccepted, nom, now)},
	}, nil
}

// Respond accepts or rejects a pending nomination on behalf of its nominee.
func (m *Manager) Respond(ctx context.Context, nominationID, responderID string, accept bool) (*Result, error) {
	now := m.now().UTC()
	respond, eventType, outcome := m.store.RejectNomination, models.EventNominationRejected, "rejected"
	if accept {
		respond, eventType, outcome = m.store.AcceptNomination, models.EventNominationAccepted, "accepted"
	}

	nom, rel, err := respond(ctx, nominationID, responderID, now)
	if err != nil {
		if reason, ok := store.ReasonOf(err); ok {
			return m.refused(reason, err.Error()), nil
		}
		return nil, fmt.Errorf("respond to nomination %s: %w", nominationID, err)
	}

	metrics.NominationResponses.WithLabelValues(outcome).Inc()
	m.logger.Info().Str("nomination_id", nom.ID).Str("outcome", outcome).Msg("Nomination answered")
	return &Result{
		Success:    true,
		Nomination: nom,
		Relation:   rel,
		Events:     []models.Event{nominationEvent(eventType, nom, now)},
	}, nil
}

// Cancel withdraws a pending nomination on behalf of its nominator.
func (m *Manager) Cancel(ctx context.Context, nominationID, nominatorID string) (*Result, error) {
	now := m.now().UTC()
	nom, rel, err := m.store.CancelNomination(ctx, nominationID, nominatorID, now)
	if err != nil {
		if reason, ok := store.ReasonOf(err); ok {
			return m.refused(reason, err.Error()), nil
		}
		return nil, fmt.Errorf("cancel nomination %s: %w", nominationID, err)
	}

	metrics.NominationResponses.WithLabelValues("cancelled").Inc()
	return &Result{
		Success:    true,
		Nomination: nom,
		Relation:   rel,
		Events:     []models.Event{nominationEvent(models.EventNominationCancelled, nom, now)},
	}, nil
}

// ExpireSweep expires every pending nomination past its expiry.
func (m *Manager) ExpireSweep(ctx context.Context) (*SweepResult, error) {
	now := m.now().UTC()
	expired, err := m.store.ExpireNominations(ctx, now)
	res := &SweepResult{Expired: len(expired), Nominations: expired}
	for i := range expired {
		res.Events = append(res.Events, nominationEvent(models.EventNominationExpired, &expired[i], now))
	}
	metrics.NominationResponses.WithLabelValues("expired").Add(float64(len(expired)))
	if err != nil {
		return res, fmt.Errorf("expire nominations: %w", err)
	}
	if len(expired) > 0 {
		m.logger.Info().Int("expired", len(expired)).Msg("Nomination expiry sweep completed")
	}
	return res, nil
}

// Get returns one nomination.
func (m *Manager) Get(ctx context.Context, id string) (*models.Nomination, error) {
	return m.store.GetNomination(ctx, id)
}

// List returns the nominations a user sent, received or both.
func (m *Manager) List(ctx context.Context, userID string, role store.Role) ([]models.Nomination, error) {
	return m.store.ListNominations(ctx, userID, role)
}

func (m *Manager) refused(reason models.Reason, detail string) *Result {
	metrics.RecordNominationRefusal(string(reason))
	m.logger.Debug().Str("reason", string(reason)).Str("detail", detail).Msg("Nomination refused")
	return &Result{Reason: reason, Detail: detail}
}

func pairReason(err error) models.Reason {
	switch {
	case errors.Is(err, models.ErrSelfPair):
		return models.ReasonSelfNomination
	case errors.Is(err, models.ErrMissingUser):
		return models.ReasonMissingUser
	default:
		return models.ReasonInvalidUser
	}
}

func nominationEvent(t models.EventType, n *models.Nomination, at time.Time) models.Event {
	e := models.NewEvent(t, at)
	e.UserID = n.NominatorID
	e.CounterpartID = n.NomineeID
	e.RelationID = n.RelationID
	e.NominationID = n.ID
	e.CycleID = n.CycleID
	e.Data = map[string]any{
		"status": string(n.Status),
		"source": string(n.Source),
	}
	return e
}

// BypassSession nominates without counting limits or cooldowns. It is only
// obtainable through Manager.Bypass with the configured admin token.
type BypassSession struct {
	m *Manager
}

// Bypass opens a limit-bypass session. The token is checked against its
// bcrypt hash, which compares in constant time.
func (m *Manager) Bypass(token string) (*BypassSession, error) {
	if m.tokenHash == nil || token == "" || bcrypt.CompareHashAndPassword(m.tokenHash, []byte(token)) != nil {
		metrics.RecordNominationRefusal(string(models.ReasonBypassUnauthorized))
		m.logger.Warn().Msg("Rejected limit bypass attempt")
		return nil, ErrBypassUnauthorized
	}
	return &BypassSession{m: m}, nil
}

// Nominate creates a nomination with unbounded limits. Pair validation,
// duplicate checks and cycle dedupe still apply.
func (b *BypassSession) Nominate(ctx context.Context, req Request) (*Result, error) {
	req.Source = models.SourceAdmin
	b.m.logger.Info().
		Str("nominator_id", req.NominatorID).
		Str("nominee_id", req.NomineeID).
		Msg("Nominating with limit bypass")
	return b.m.nominate(ctx, req, b.m.cfg.Limits.Unbounded())
}
