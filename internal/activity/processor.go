// Bondscore - Reciprocal Relationship Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bondscore

package activity

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/bondscore/internal/metrics"
	"github.com/tomtom215/bondscore/internal/models"
	"github.com/tomtom215/bondscore/internal/scoring"
	"github.com/tomtom215/bondscore/internal/store"
)

// Store is the part of the relationship store the processor writes through.
type Store interface {
	FindActive(ctx context.Context, pair models.Pair) (*models.Relation, error)
	ApplyPoints(ctx context.Context, u store.PointsUpdate) (*store.PointsResult, error)
	ListActivity(ctx context.Context, relationID string, since time.Time) ([]models.ActivityLogEntry, error)
}

// Status is the outcome of processing one interaction.
type Status string

const (
	StatusApplied         Status = "applied"
	StatusDuplicate       Status = "duplicate"
	StatusInvalid         Status = "invalid"
	StatusUnknownActivity Status = "unknown_activity"
	StatusNoRelationship  Status = "no_relationship"
	StatusZeroPoints      Status = "zero_points"
	// StatusFailed is only used by ProcessBatch for items whose store
	// update failed.
	StatusFailed Status = "failed"
)

// Input is one interaction between two users. OverridePoints replaces the
// computed total when set.
type Input struct {
	ActorID        string              `json:"actor_id" validate:"required,userid"`
	CounterpartID  string              `json:"counterpart_id" validate:"required,userid"`
	ActivityType   models.ActivityType `json:"activity_type" validate:"required"`
	Metadata       models.Metadata     `json:"metadata"`
	OverridePoints *float64            `json:"override_points,omitempty"`
	IdempotencyKey string              `json:"idempotency_key,omitempty" validate:"omitempty,max=128"`
	Description    string              `json:"description,omitempty" validate:"omitempty,max=500"`
	OccurredAt     time.Time           `json:"occurred_at,omitempty"`
}

// Result reports what happened to one interaction.
type Result struct {
	Status            Status                   `json:"status"`
	Reason            string                   `json:"reason,omitempty"`
	RelationID        string                   `json:"relation_id,omitempty"`
	Breakdown         *scoring.Breakdown       `json:"breakdown,omitempty"`
	Points            float64                  `json:"points"`
	ActorPoints       float64                  `json:"actor_points"`
	CounterpartPoints float64                  `json:"counterpart_points"`
	TotalBefore       float64                  `json:"total_before"`
	TotalAfter        float64                  `json:"total_after"`
	PreviousTier      models.Tier              `json:"previous_tier,omitempty"`
	Tier              models.Tier              `json:"tier,omitempty"`
	TierChanged       bool                     `json:"tier_changed"`
	Progress          *scoring.Progress        `json:"progress,omitempty"`
	Achievements      []models.Achievement     `json:"achievements"`
	Entry             *models.ActivityLogEntry `json:"entry,omitempty"`
	Events            []models.Event           `json:"events,omitempty"`
}

// Awarded reports whether points were written by this call.
func (r *Result) Awarded() bool {
	return r.Status == StatusApplied
}

// Processor applies interactions to relations.
type Processor struct {
	store     Store
	calc      *scoring.Calculator
	cfg       Config
	detectors []Detector
	logger    zerolog.Logger
	now       func() time.Time
}

// NewProcessor creates a processor with the default detectors.
func NewProcessor(st Store, calc *scoring.Calculator, cfg Config, logger zerolog.Logger) (*Processor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid activity config: %w", err)
	}
	return &Processor{
		store:     st,
		calc:      calc,
		cfg:       cfg,
		detectors: DefaultDetectors(cfg),
		logger:    logger.With().Str("component", "activity").Logger(),
		now:       time.Now,
	}, nil
}

// SetDetectors replaces the detector set.
func (p *Processor) SetDetectors(detectors ...Detector) {
	p.detectors = detectors
}

// Process scores one interaction and applies it to the pair's ACTIVE
// relation. Only store failures are returned as errors.
func (p *Processor) Process(ctx context.Context, in Input) (*Result, error) {
	start := time.Now()
	res, err := p.process(ctx, in)
	status := StatusFailed
	var points float64
	if res != nil {
		status = res.Status
		if res.Awarded() {
			points = res.Points
		}
	}
	metrics.RecordActivity(string(status), string(in.ActivityType), points, time.Since(start))
	return res, err
}

func (p *Processor) process(ctx context.Context, in Input) (*Result, error) {
	actor := strings.TrimSpace(in.ActorID)
	pair, err := models.NewPair(actor, in.CounterpartID)
	if err != nil {
		return &Result{Status: StatusInvalid, Reason: err.Error()}, nil
	}
	if !p.calc.Known(in.ActivityType) {
		return &Result{Status: StatusUnknownActivity, Reason: fmt.Sprintf("unknown activity type %q", in.ActivityType)}, nil
	}

	rel, err := p.store.FindActive(ctx, pair)
	if err != nil {
		return nil, fmt.Errorf("find active relation: %w", err)
	}
	if rel == nil {
		return &Result{Status: StatusNoRelationship, Reason: "no active relationship"}, nil
	}

	breakdown, err := p.calc.Score(in.ActivityType, in.Metadata)
	if err != nil {
		return &Result{Status: StatusUnknownActivity, Reason: err.Error()}, nil
	}
	total := breakdown.Total
	if in.OverridePoints != nil {
		total = *in.OverridePoints
	}
	res := &Result{
		RelationID:   rel.ID,
		Breakdown:    &breakdown,
		TotalBefore:  rel.TotalPoints,
		TotalAfter:   rel.TotalPoints,
		PreviousTier: rel.Strength,
		Tier:         rel.Strength,
		Achievements: []models.Achievement{},
	}
	if math.IsNaN(total) || math.IsInf(total, 0) || total <= 0 {
		res.Status = StatusZeroPoints
		return res, nil
	}

	actorPts, counterpartPts := p.calc.Split(total, in.Metadata.IsReciprocal())
	at := in.OccurredAt
	if at.IsZero() {
		at = p.now()
	}
	at = at.UTC()

	applied, err := p.store.ApplyPoints(ctx, store.PointsUpdate{
		RelationID:       rel.ID,
		ActorID:          actor,
		Delta:            actorPts,
		CounterpartDelta: counterpartPts,
		ActivityType:     in.ActivityType,
		Description:      in.Description,
		Metadata:         in.Metadata,
		IdempotencyKey:   in.IdempotencyKey,
		At:               at,
	})
	if errors.Is(err, store.ErrRelationNotActive) {
		res.Status = StatusNoRelationship
		res.Reason = "relationship is no longer active"
		return res, nil
	}
	if err != nil {
		return nil, fmt.Errorf("apply points: %w", err)
	}

	entry := applied.Entry
	res.Entry = &entry
	res.Points = entry.Points + entry.CounterpartPoints
	res.ActorPoints = entry.Points
	res.CounterpartPoints = entry.CounterpartPoints
	if applied.Duplicate {
		res.Status = StatusDuplicate
		res.TotalBefore = applied.After.TotalPoints
		res.PreviousTier = applied.After.Strength
		p.finish(res, &applied.After)
		return res, nil
	}
	res.Status = StatusApplied
	res.TotalBefore = applied.Before.TotalPoints
	res.PreviousTier = applied.Before.Strength

	obs := &Observation{
		ActorID: actor,
		Before:  applied.Before,
		After:   applied.After,
		Entry:   entry,
		At:      at,
	}
	res.Achievements = p.detect(ctx, obs)

	final := applied.After
	res.Achievements, final = p.awardStreak(ctx, obs, res.Achievements, final)
	if final.TotalPoints > applied.After.TotalPoints {
		res.Achievements = append(res.Achievements, p.bonusMilestones(ctx, obs, final)...)
	}
	p.finish(res, &final)

	res.Events = p.events(res, pair.Other(actor), actor, at)
	return res, nil
}

// finish fills the fields that depend on the final relation state.
func (p *Processor) finish(res *Result, rel *models.Relation) {
	res.TotalAfter = rel.TotalPoints
	res.Tier = rel.Strength
	res.TierChanged = res.PreviousTier != res.Tier
	progress := scoring.ProgressFor(rel.TotalPoints)
	res.Progress = &progress
}

// detect runs every detector, loading the log once for those that need it.
// Failures are logged and dropped.
func (p *Processor) detect(ctx context.Context, obs *Observation) []models.Achievement {
	needsHistory := false
	for _, d := range p.detectors {
		if d.NeedsHistory() {
			needsHistory = true
			break
		}
	}
	historyOK := true
	if needsHistory {
		history, err := p.store.ListActivity(ctx, obs.Entry.RelationID, obs.At.Add(-p.cfg.historyWindow()))
		if err != nil {
			p.logger.Warn().Err(err).Str("relation_id", obs.Entry.RelationID).Msg("Failed to load activity history, skipping history detectors")
			historyOK = false
		}
		obs.History = history
	}

	achievements := []models.Achievement{}
	for _, d := range p.detectors {
		if d.NeedsHistory() && !historyOK {
			continue
		}
		found, err := d.Detect(ctx, obs)
		if err != nil {
			p.logger.Warn().Err(err).Str("detector", string(d.Kind())).Msg("Achievement detector failed")
			continue
		}
		achievements = append(achievements, found...)
	}
	return achievements
}

// awardStreak writes the bonus of a streak achievement as its own activity.
// The achievement is dropped when the award was already made or failed.
func (p *Processor) awardStreak(ctx context.Context, obs *Observation, achievements []models.Achievement,
	final models.Relation) ([]models.Achievement, models.Relation) {
	out := achievements[:0]
	for _, a := range achievements {
		if a.Kind != models.AchievementStreak || a.BonusPoints <= 0 {
			out = append(out, a)
			continue
		}
		half := a.BonusPoints / 2
		applied, err := p.store.ApplyPoints(ctx, store.PointsUpdate{
			RelationID:       obs.Entry.RelationID,
			ActorID:          obs.ActorID,
			Delta:            half,
			CounterpartDelta: a.BonusPoints - half,
			ActivityType:     models.ActivityStreakBonus,
			Description:      a.Title,
			IdempotencyKey:   fmt.Sprintf("streak:%s:%s", obs.Entry.RelationID, day(obs.At).Format(time.DateOnly)),
			At:               obs.At,
		})
		if err != nil {
			p.logger.Warn().Err(err).Str("relation_id", obs.Entry.RelationID).Msg("Failed to award streak bonus")
			continue
		}
		if applied.Duplicate {
			continue
		}
		final = applied.After
		out = append(out, a)
	}
	return out, final
}

// bonusMilestones reruns the milestone detectors over the points added by
// streak bonuses, so a threshold crossed only by the bonus still fires.
func (p *Processor) bonusMilestones(ctx context.Context, obs *Observation, final models.Relation) []models.Achievement {
	bonus := *obs
	bonus.Before = obs.After
	bonus.After = final

	var out []models.Achievement
	for _, d := range p.detectors {
		if d.Kind() != models.AchievementMilestone {
			continue
		}
		found, err := d.Detect(ctx, &bonus)
		if err != nil {
			p.logger.Warn().Err(err).Str("detector", string(d.Kind())).Msg("Achievement detector failed")
			continue
		}
		out = append(out, found...)
	}
	return out
}

func (p *Processor) events(res *Result, counterpartID, actorID string, at time.Time) []models.Event {
	base := func(t models.EventType) models.Event {
		e := models.NewEvent(t, at)
		e.UserID = actorID
		e.CounterpartID = counterpartID
		e.RelationID = res.RelationID
		return e
	}

	awarded := base(models.EventPointsAwarded)
	awarded.Data = map[string]any{
		"activity_type":      string(res.Entry.ActivityType),
		"points":             res.Points,
		"actor_points":       res.ActorPoints,
		"counterpart_points": res.CounterpartPoints,
		"total":              res.TotalAfter,
	}
	out := []models.Event{awarded}

	if res.TierChanged {
		metrics.RecordTierTransition(string(res.PreviousTier), string(res.Tier))
		changed := base(models.EventTierChanged)
		changed.Data = map[string]any{
			"from": string(res.PreviousTier),
			"to":   string(res.Tier),
		}
		out = append(out, changed)
	}

	for _, a := range res.Achievements {
		metrics.AchievementsUnlocked.WithLabelValues(string(a.Kind)).Inc()
		unlocked := base(models.EventAchievementUnlocked)
		unlocked.Data = map[string]any{
			"kind":      string(a.Kind),
			"title":     a.Title,
			"threshold": a.Threshold,
		}
		if a.BonusPoints > 0 {
			unlocked.Data["bonus_points"] = a.BonusPoints
		}
		out = append(out, unlocked)
	}
	return out
}

// ProcessBatch processes inputs in order. A store failure on one item is
// recorded as StatusFailed and does not stop the batch; only context
// cancellation does.
func (p *Processor) ProcessBatch(ctx context.Context, inputs []Input) ([]*Result, error) {
	results := make([]*Result, 0, len(inputs))
	for i, in := range inputs {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res, err := p.Process(ctx, in)
		if err != nil {
			p.logger.Error().Err(err).Int("index", i).Str("actor_id", in.ActorID).Msg("Batch item failed")
			res = &Result{Status: StatusFailed, Reason: err.Error(), Achievements: []models.Achievement{}}
		}
		results = append(results, res)
	}
	return results, nil
}
