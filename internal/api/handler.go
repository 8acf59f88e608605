// Bondscore - Reciprocal Relationship Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bondscore

package api

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/bondscore/internal/activity"
	"github.com/tomtom215/bondscore/internal/logging"
	"github.com/tomtom215/bondscore/internal/models"
	"github.com/tomtom215/bondscore/internal/nomination"
	"github.com/tomtom215/bondscore/internal/recommend"
	"github.com/tomtom215/bondscore/internal/store"
)

// ActivityProcessor applies interactions to relations.
type ActivityProcessor interface {
	Process(ctx context.Context, in activity.Input) (*activity.Result, error)
	ProcessBatch(ctx context.Context, inputs []activity.Input) ([]*activity.Result, error)
}

// NominationService runs the nomination workflow.
type NominationService interface {
	Nominate(ctx context.Context, req nomination.Request) (*nomination.Result, error)
	Respond(ctx context.Context, nominationID, responderID string, accept bool) (*nomination.Result, error)
	Cancel(ctx context.Context, nominationID, nominatorID string) (*nomination.Result, error)
	List(ctx context.Context, userID string, role store.Role) ([]models.Nomination, error)
	Bypass(token string) (*nomination.BypassSession, error)
}

// RelationReader reads relations and their activity log.
type RelationReader interface {
	GetRelation(ctx context.Context, id string) (*models.Relation, error)
	ListForUser(ctx context.Context, userID string, statuses ...models.Status) ([]models.Relation, error)
	ListActivity(ctx context.Context, relationID string, since time.Time) ([]models.ActivityLogEntry, error)
}

// Recommender ranks compatible users.
type Recommender interface {
	Recommend(ctx context.Context, req recommend.Request) (*recommend.Response, error)
	Invalidate(userIDs ...string)
}

// CycleRunner triggers and lists cycle runs.
type CycleRunner interface {
	Run(ctx context.Context, cycleID string) (*models.CycleRun, error)
	RunNow(ctx context.Context) (*models.CycleRun, error)
	History(ctx context.Context, limit int) ([]models.CycleRun, error)
}

// Publisher delivers notification events.
type Publisher interface {
	Publish(ctx context.Context, evs ...models.Event) error
}

// HealthCheck reports whether one dependency is usable.
type HealthCheck func(ctx context.Context) error

// Dependencies are the engine components served over HTTP. Publisher and
// Checks are optional.
type Dependencies struct {
	Activities  ActivityProcessor
	Nominations NominationService
	Relations   RelationReader
	Recommender Recommender
	Cycles      CycleRunner
	Publisher   Publisher
	Checks      map[string]HealthCheck
}

// Handler serves the HTTP API.
type Handler struct {
	deps      Dependencies
	audit     *logging.AuditLogger
	logger    zerolog.Logger
	startTime time.Time

	// RequestTimeout bounds the engine call of every request.
	RequestTimeout time.Duration
	// CycleTimeout bounds manual cycle runs, which scan every eligible user.
	CycleTimeout time.Duration
	// DefaultFilters is the base that recommendation query filters override.
	DefaultFilters recommend.Filters
}

// NewHandler creates a handler over deps.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewHandler(deps Dependencies, logger zerolog.Logger) (*Handler, error) {
	switch {
	case deps.Activities == nil:
		return nil, errors.New("api: activity processor is required")
	case deps.Nominations == nil:
		return nil, errors.New("api: nomination service is required")
	case deps.Relations == nil:
		return nil, errors.New("api: relation reader is required")
	case deps.Recommender == nil:
		return nil, errors.New("api: recommender is required")
	case deps.Cycles == nil:
		return nil, errors.New("api: cycle runner is required")
	}

	logger = logger.With().Str("component", "api").Logger()
	return &Handler{
		deps:           deps,
		audit:          logging.NewAuditLogger(logger),
		logger:         logger,
		startTime:      time.Now(),
		RequestTimeout: 10 * time.Second,
		CycleTimeout:   10 * time.Minute,
	}, nil
}

// publish hands events to the dispatcher. Delivery failures are logged and
// never fail the request, since the state change has been committed.
func (h *Handler) publish(ctx context.Context, evs []models.Event) {
	if h.deps.Publisher == nil || len(evs) == 0 {
		return
	}
	// Detach from the request so a client disconnect cannot drop events.
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := h.deps.Publisher.Publish(pubCtx, evs...); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Int("events", len(evs)).Msg("Event delivery failed")
	}
}

func (h *Handler) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if h.RequestTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, h.RequestTimeout)
}
