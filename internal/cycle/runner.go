// Bondscore - Reciprocal Relationship Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bondscore

package cycle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/tomtom215/bondscore/internal/metrics"
	"github.com/tomtom215/bondscore/internal/models"
	"github.com/tomtom215/bondscore/internal/nomination"
	"github.com/tomtom215/bondscore/internal/recommend"
)

// ErrRunInProgress is returned when a run is requested while one is active.
var ErrRunInProgress = errors.New("a cycle run is already in progress")

// Store is the persistence used by the runner.
type Store interface {
	ExpireRelations(ctx context.Context, now time.Time) ([]models.Relation, error)
	ListForUser(ctx context.Context, userID string, statuses ...models.Status) ([]models.Relation, error)
	ListActivity(ctx context.Context, relationID string, since time.Time) ([]models.ActivityLogEntry, error)
	RefreshDerived(ctx context.Context, id string, stats models.DerivedStats) (*models.Relation, error)
	SaveCycleRun(ctx context.Context, run *models.CycleRun) error
	ListCycleRuns(ctx context.Context, limit int) ([]models.CycleRun, error)
}

// Nominator creates and expires nominations.
type Nominator interface {
	Nominate(ctx context.Context, req nomination.Request) (*nomination.Result, error)
	ExpireSweep(ctx context.Context) (*nomination.SweepResult, error)
}

// Recommender ranks and scores candidate pairs.
type Recommender interface {
	Recommend(ctx context.Context, req recommend.Request) (*recommend.Response, error)
	Compatibility(ctx context.Context, userID, otherID string) (recommend.Candidate, error)
	Invalidate(userIDs ...string)
	PruneCache() int
}

// UserSource lists the users a cycle processes.
type UserSource interface {
	EligibleUsers(ctx context.Context) ([]string, error)
}

// Publisher delivers the events a run produces.
type Publisher interface {
	Publish(ctx context.Context, evs ...models.Event) error
}

// Runner executes cycles. Concurrent runs are refused.
type Runner struct {
	cfg         Config
	store       Store
	nominator   Nominator
	recommender Recommender
	users       UserSource
	publisher   Publisher
	logger      zerolog.Logger
	now         func() time.Time

	running atomic.Bool
}

// NewRunner creates a cycle runner. publisher may be nil.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewRunner(cfg Config, st Store, nom Nominator, rec Recommender, users UserSource, pub Publisher, logger zerolog.Logger) (*Runner, error) {
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid cycle config: %w", err)
	}
	if st == nil || nom == nil || rec == nil || users == nil {
		return nil, errors.New("cycle runner requires a store, nominator, recommender and user source")
	}
	return &Runner{
		cfg:         cfg,
		store:       st,
		nominator:   nom,
		recommender: rec,
		users:       users,
		publisher:   pub,
		logger:      logger.With().Str("component", "cycle").Logger(),
		now:         time.Now,
	}, nil
}

// SetClock replaces the time source. Intended for tests.
func (r *Runner) SetClock(now func() time.Time) {
	r.now = now
}

// Schedule returns the configured weekly schedule.
func (r *Runner) Schedule() Schedule {
	return r.cfg.Schedule()
}

// History returns the most recent runs, newest first.
func (r *Runner) History(ctx context.Context, limit int) ([]models.CycleRun, error) {
	return r.store.ListCycleRuns(ctx, limit)
}

// RunNow runs the cycle of the current week.
func (r *Runner) RunNow(ctx context.Context) (*models.CycleRun, error) {
	return r.Run(ctx, r.Schedule().CycleID(r.now()))
}

// runTally accumulates per-user outcomes from concurrent workers.
type runTally struct {
	mu     sync.Mutex
	run    *models.CycleRun
	events []models.Event
}

func (t *runTally) add(fn func(run *models.CycleRun)) {
	t.mu.Lock()
	fn(t.run)
	t.mu.Unlock()
}

func (t *runTally) emit(evs ...models.Event) {
	t.mu.Lock()
	t.events = append(t.events, evs...)
	t.mu.Unlock()
}

// Run executes the cycle identified by cycleID: expiry sweep, per-user
// recommendation and auto-nomination, derived field refresh and run
// statistics. Per-user failures are counted in CycleRun.Errors and never
// abort the run. Running the same cycle id twice creates no duplicate
// nominations.
func (r *Runner) Run(ctx context.Context, cycleID string) (run *models.CycleRun, err error) {
	if cycleID == "" {
		return nil, errors.New("cycle id is required")
	}
	if !r.running.CompareAndSwap(false, true) {
		return nil, ErrRunInProgress
	}
	defer r.running.Store(false)

	start := time.Now()
	run = &models.CycleRun{CycleID: cycleID, StartedAt: r.now().UTC()}
	tally := &runTally{run: run}
	logger := r.logger.With().Str("cycle_id", cycleID).Logger()
	logger.Info().Msg("Starting cycle run")

	defer func() {
		metrics.RecordCycle(time.Since(start), run.Errors, err)
	}()

	if err = r.sweep(ctx, tally); err != nil {
		logger.Error().Err(err).Msg("Cycle expiry sweep failed")
		return run, err
	}

	users, err := r.users.EligibleUsers(ctx)
	if err != nil {
		err = fmt.Errorf("list eligible users: %w", err)
		logger.Error().Err(err).Msg("Cycle aborted")
		return run, err
	}

	r.forEachUser(ctx, users, func(uctx context.Context, userID string) error {
		return r.nominateFor(uctx, cycleID, userID, tally)
	}, tally)
	run.UsersProcessed = len(users)

	r.refreshDerived(ctx, users, tally)
	if pruned := r.recommender.PruneCache(); pruned > 0 {
		logger.Debug().Int("entries", pruned).Msg("Pruned expired recommendations")
	}

	run.FinishedAt = r.now().UTC()
	if err = r.store.SaveCycleRun(ctx, run); err != nil {
		err = fmt.Errorf("save cycle run: %w", err)
		logger.Error().Err(err).Msg("Failed to record cycle run")
		return run, err
	}

	done := models.NewEvent(models.EventCycleCompleted, run.FinishedAt)
	done.CycleID = cycleID
	done.Data = map[string]any{
		"users_processed":     run.UsersProcessed,
		"nominations_created": run.NominationsCreated,
		"expired_nominations": run.ExpiredNominations,
		"expired_relations":   run.ExpiredRelations,
		"errors":              run.Errors,
	}
	tally.emit(done)
	r.publish(ctx, tally.events, logger)

	logger.Info().
		Int("users", run.UsersProcessed).
		Int("nominations", run.NominationsCreated).
		Int("duplicates", run.DuplicatesSkipped).
		Int("limit_skipped", run.LimitSkipped).
		Int("rescored", run.RelationsRescored).
		Int("errors", run.Errors).
		Dur("duration", time.Since(start)).
		Msg("Cycle run completed")
	return run, nil
}

// sweep expires overdue nominations and relations whose window ended.
func (r *Runner) sweep(ctx context.Context, tally *runTally) error {
	swept, err := r.nominator.ExpireSweep(ctx)
	if swept != nil {
		tally.run.ExpiredNominations = swept.Expired
		tally.emit(swept.Events...)
	}
	if err != nil {
		return err
	}

	now := r.now().UTC()
	expired, err := r.store.ExpireRelations(ctx, now)
	tally.run.ExpiredRelations = len(expired)
	stale := make([]string, 0, 2*len(expired))
	for i := range expired {
		stale = append(stale, expired[i].UserA, expired[i].UserB)
		ev := models.NewEvent(models.EventRelationExpired, now)
		ev.UserID = expired[i].UserA
		ev.CounterpartID = expired[i].UserB
		ev.RelationID = expired[i].ID
		ev.Data = map[string]any{"total_points": expired[i].TotalPoints, "tier": string(expired[i].Strength)}
		tally.emit(ev)
	}
	if len(stale) > 0 {
		r.recommender.Invalidate(stale...)
	}
	if err != nil {
		return fmt.Errorf("expire relations: %w", err)
	}
	return nil
}

// forEachUser runs fn for every user on a bounded worker pool, each under
// its own timeout. Failures are counted, never propagated.
func (r *Runner) forEachUser(ctx context.Context, users []string, fn func(context.Context, string) error, tally *runTally) {
	var g errgroup.Group
	g.SetLimit(r.cfg.Workers)

	var limiter *rate.Limiter
	if r.cfg.UserRate > 0 {
		limiter = rate.NewLimiter(rate.Limit(r.cfg.UserRate), r.cfg.Workers)
	}

	for _, userID := range users {
		if ctx.Err() != nil {
			tally.add(func(run *models.CycleRun) { run.Errors++ })
			continue
		}
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				tally.add(func(run *models.CycleRun) { run.Errors++ })
				continue
			}
		}
		g.Go(func() error {
			uctx, cancel := context.WithTimeout(ctx, r.cfg.UserTimeout)
			defer cancel()

			if err := fn(uctx, userID); err != nil {
				tally.add(func(run *models.CycleRun) { run.Errors++ })
				r.logger.Warn().Err(err).Str("user_id", userID).Msg("Cycle work failed for user")
			}
			return nil
		})
	}
	_ = g.Wait()
}

// nominateFor nominates userID to its top recommendations.
func (r *Runner) nominateFor(ctx context.Context, cycleID, userID string, tally *runTally) error {
	if r.cfg.NominationsPerUser == 0 {
		return nil
	}
	resp, err := r.recommender.Recommend(ctx, recommend.Request{
		UserID:    userID,
		Limit:     r.cfg.NominationsPerUser,
		SkipCache: true,
	})
	if err != nil {
		return fmt.Errorf("recommend: %w", err)
	}

	for _, c := range resp.Candidates {
		res, err := r.nominator.Nominate(ctx, nomination.Request{
			NominatorID: userID,
			NomineeID:   c.UserID,
			CycleID:     cycleID,
			Source:      models.SourceCycle,
			Message:     c.Reason,
		})
		if err != nil {
			return fmt.Errorf("nominate %s: %w", c.UserID, err)
		}
		if res.Success {
			// The new pending relation excludes the pair from both users'
			// recommendations.
			r.recommender.Invalidate(userID, c.UserID)
			tally.add(func(run *models.CycleRun) { run.NominationsCreated++ })
			tally.emit(res.Events...)
			continue
		}
		tally.add(func(run *models.CycleRun) {
			if skippedAsDuplicate(res.Reason) {
				run.DuplicatesSkipped++
			} else {
				run.LimitSkipped++
			}
		})
	}
	return nil
}

// skippedAsDuplicate reports whether a refusal means the pair is already
// covered, as opposed to a limit or cooldown.
func skippedAsDuplicate(reason models.Reason) bool {
	switch reason {
	case models.ReasonAlreadyNominatedCycle, models.ReasonAlreadyPending, models.ReasonAlreadyActive:
		return true
	}
	return false
}

// refreshDerived recomputes the periodic fields of every ACTIVE relation
// of the processed users. Each relation is refreshed once.
func (r *Runner) refreshDerived(ctx context.Context, users []string, tally *runTally) {
	var seen sync.Map
	r.forEachUser(ctx, users, func(uctx context.Context, userID string) error {
		rels, err := r.store.ListForUser(uctx, userID, models.StatusActive)
		if err != nil {
			return fmt.Errorf("list relations: %w", err)
		}
		var errs []error
		for i := range rels {
			if _, dup := seen.LoadOrStore(rels[i].ID, struct{}{}); dup {
				continue
			}
			if err := r.rescore(uctx, &rels[i]); err != nil {
				errs = append(errs, err)
				continue
			}
			tally.add(func(run *models.CycleRun) { run.RelationsRescored++ })
		}
		return errors.Join(errs...)
	}, tally)
}

func (r *Runner) rescore(ctx context.Context, rel *models.Relation) error {
	since := r.now().Add(-r.cfg.ActivityWindow)
	entries, err := r.store.ListActivity(ctx, rel.ID, since)
	if err != nil {
		return fmt.Errorf("list activity of %s: %w", rel.ID, err)
	}
	compat, err := r.recommender.Compatibility(ctx, rel.UserA, rel.UserB)
	if err != nil {
		return fmt.Errorf("score %s: %w", rel.ID, err)
	}

	days := r.cfg.ActivityWindow.Hours() / 24
	_, err = r.store.RefreshDerived(ctx, rel.ID, models.DerivedStats{
		InteractionFrequency: float64(len(entries)) / days,
		CompatibilityScore:   compat.Score,
		CommonInterests:      compat.CommonInterests,
		MutualFriends:        compat.MutualConnections,
	})
	if err != nil {
		return fmt.Errorf("refresh %s: %w", rel.ID, err)
	}
	return nil
}

func (r *Runner) publish(ctx context.Context, evs []models.Event, logger zerolog.Logger) {
	if r.publisher == nil || len(evs) == 0 {
		return
	}
	if err := r.publisher.Publish(ctx, evs...); err != nil {
		logger.Warn().Err(err).Int("events", len(evs)).Msg("Failed to publish cycle events")
	}
}
