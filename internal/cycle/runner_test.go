// Bondscore - Reciprocal Relationship Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bondscore

package cycle

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/bondscore/internal/models"
	"github.com/tomtom215/bondscore/internal/nomination"
	"github.com/tomtom215/bondscore/internal/recommend"
	"github.com/tomtom215/bondscore/internal/store"
)

// testClock is a settable clock shared by every component.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// scriptedRecommender returns fixed candidates per user.
type scriptedRecommender struct {
	picks map[string][]string
	fail  map[string]error
	block map[string]bool

	mu          sync.Mutex
	invalidated []string
}

func (s *scriptedRecommender) Invalidate(userIDs ...string) {
	s.mu.Lock()
	s.invalidated = append(s.invalidated, userIDs...)
	s.mu.Unlock()
}

func (s *scriptedRecommender) PruneCache() int { return 0 }

func (s *scriptedRecommender) Recommend(ctx context.Context, req recommend.Request) (*recommend.Response, error) {
	if s.block[req.UserID] {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err := s.fail[req.UserID]; err != nil {
		return nil, err
	}
	resp := &recommend.Response{}
	for _, id := range s.picks[req.UserID] {
		resp.Candidates = append(resp.Candidates, recommend.Candidate{UserID: id, Score: 50, Reason: "test pick"})
	}
	if len(resp.Candidates) > req.Limit {
		resp.Candidates = resp.Candidates[:req.Limit]
	}
	return resp, nil
}

func (s *scriptedRecommender) Compatibility(_ context.Context, userID, otherID string) (recommend.Candidate, error) {
	return recommend.Candidate{
		UserID:            otherID,
		Score:             42,
		CommonInterests:   []string{"chess"},
		MutualConnections: 3,
	}, nil
}

type staticUsers []string

func (u staticUsers) EligibleUsers(context.Context) ([]string, error) {
	return u, nil
}

type capturePublisher struct {
	mu     sync.Mutex
	events []models.Event
}

func (p *capturePublisher) Publish(_ context.Context, evs ...models.Event) error {
	p.mu.Lock()
	p.events = append(p.events, evs...)
	p.mu.Unlock()
	return nil
}

func (p *capturePublisher) count(t models.EventType) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, ev := range p.events {
		if ev.Type == t {
			n++
		}
	}
	return n
}

type harness struct {
	store   *store.BadgerStore
	manager *nomination.Manager
	clock   *testClock
	pub     *capturePublisher
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return newHarnessWith(t, func(c *nomination.Config) { c.MutualAutoAccept = false })
}

func newHarnessWith(t *testing.T, mutate func(*nomination.Config)) *harness {
	t.Helper()
	clock := &testClock{now: time.Date(2026, 10, 12, 9, 0, 0, 0, time.UTC)}

	st, err := store.Open(store.Config{InMemory: true, Now: clock.Now}, zerolog.Nop())
	if err != nil {
		t.Fatalf("store.Open() error = %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	cfg := nomination.DefaultConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	m, err := nomination.NewManager(st, cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	m.SetClock(clock.Now)

	return &harness{store: st, manager: m, clock: clock, pub: &capturePublisher{}}
}

func (h *harness) runner(t *testing.T, rec Recommender, users []string, mutate func(*Config)) *Runner {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Workers = 1
	if mutate != nil {
		mutate(&cfg)
	}
	r, err := NewRunner(cfg, h.store, h.manager, rec, staticUsers(users), h.pub, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewRunner() error = %v", err)
	}
	r.SetClock(h.clock.Now)
	return r
}

func (h *harness) activeRelation(t *testing.T, a, b string) *models.Relation {
	t.Helper()
	pair, err := models.NewPair(a, b)
	if err != nil {
		t.Fatalf("NewPair() error = %v", err)
	}
	rel, err := h.store.CreateRelation(context.Background(), store.CreateRelationParams{
		Pair:      pair,
		Initiator: a,
		Status:    models.StatusActive,
		At:        h.clock.Now(),
	})
	if err != nil {
		t.Fatalf("CreateRelation() error = %v", err)
	}
	return rel
}

func TestRunNominatesAndIsolatesFailures(t *testing.T) {
	h := newHarness(t)
	rec := &scriptedRecommender{
		picks: map[string][]string{
			"alice": {"bob"},
			"bob":   {"alice"},
			"carol": {"dave"},
		},
		fail: map[string]error{"dave": errors.New("signals offline")},
	}
	r := h.runner(t, rec, []string{"alice", "bob", "carol", "dave"}, nil)

	run, err := r.Run(context.Background(), "2026-W42")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	tests := []struct {
		name string
		got  int
		want int
	}{
		{"UsersProcessed", run.UsersProcessed, 4},
		{"NominationsCreated", run.NominationsCreated, 2},
		{"DuplicatesSkipped", run.DuplicatesSkipped, 1},
		{"Errors", run.Errors, 1},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %d, want %d", tt.name, tt.got, tt.want)
		}
	}

	noms, err := h.manager.List(context.Background(), "alice", store.RoleNominator)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(noms) != 1 || noms[0].CycleID != "2026-W42" || noms[0].Source != models.SourceCycle {
		t.Errorf("alice nominations = %+v, want one cycle nomination for 2026-W42", noms)
	}

	if h.pub.count(models.EventNominationCreated) != 2 {
		t.Errorf("nomination.created events = %d, want 2", h.pub.count(models.EventNominationCreated))
	}
	if h.pub.count(models.EventCycleCompleted) != 1 {
		t.Errorf("cycle.completed events = %d, want 1", h.pub.count(models.EventCycleCompleted))
	}

	history, err := r.History(context.Background(), 10)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) != 1 || history[0].NominationsCreated != 2 {
		t.Errorf("History() = %+v, want the recorded run", history)
	}
}

func TestRunNeverAutoAcceptsMutualPicks(t *testing.T) {
	h := newHarnessWith(t, nil)
	rec := &scriptedRecommender{picks: map[string][]string{
		"alice": {"bob"},
		"bob":   {"alice"},
	}}
	r := h.runner(t, rec, []string{"alice", "bob"}, nil)

	run, err := r.Run(context.Background(), "2026-W42")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if run.NominationsCreated != 1 || run.DuplicatesSkipped != 1 {
		t.Errorf("run = %+v, want 1 created and 1 duplicate", run)
	}
	if h.pub.count(models.EventNominationAccepted) != 0 {
		t.Errorf("nomination.accepted events = %d, want 0", h.pub.count(models.EventNominationAccepted))
	}

	pair, err := models.NewPair("alice", "bob")
	if err != nil {
		t.Fatalf("NewPair() error = %v", err)
	}
	rel, err := h.store.FindOpen(context.Background(), pair)
	if err != nil {
		t.Fatalf("FindOpen() error = %v", err)
	}
	if rel == nil || rel.Status != models.StatusPending {
		t.Fatalf("relation = %+v, want PENDING", rel)
	}

	var noms []models.Nomination
	for _, user := range []string{"alice", "bob"} {
		sent, err := h.manager.List(context.Background(), user, store.RoleNominator)
		if err != nil {
			t.Fatalf("List(%s) error = %v", user, err)
		}
		noms = append(noms, sent...)
	}
	if len(noms) != 1 || noms[0].Status != models.NominationPending {
		t.Errorf("nominations = %+v, want one PENDING_RESPONSE", noms)
	}
}

func TestRunInvalidatesNominatedPairs(t *testing.T) {
	h := newHarness(t)
	rec := &scriptedRecommender{picks: map[string][]string{
		"alice": {"bob"},
		"carol": {"dave"},
	}}
	r := h.runner(t, rec, []string{"alice", "carol"}, nil)

	if _, err := r.Run(context.Background(), "2026-W42"); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	rec.mu.Lock()
	seen := make(map[string]bool, len(rec.invalidated))
	for _, id := range rec.invalidated {
		seen[id] = true
	}
	rec.mu.Unlock()
	for _, id := range []string{"alice", "bob", "carol", "dave"} {
		if !seen[id] {
			t.Errorf("user %s not invalidated; got %v", id, rec.invalidated)
		}
	}
}

func TestRunIsIdempotentPerCycle(t *testing.T) {
	h := newHarness(t)
	rec := &scriptedRecommender{picks: map[string][]string{
		"alice": {"bob"},
		"carol": {"dave"},
	}}
	r := h.runner(t, rec, []string{"alice", "carol"}, nil)

	first, err := r.Run(context.Background(), "2026-W42")
	if err != nil {
		t.Fatalf("first Run() error = %v", err)
	}
	h.clock.Advance(time.Hour)
	second, err := r.Run(context.Background(), "2026-W42")
	if err != nil {
		t.Fatalf("second Run() error = %v", err)
	}

	if first.NominationsCreated != 2 {
		t.Errorf("first run created %d, want 2", first.NominationsCreated)
	}
	if second.NominationsCreated != 0 || second.DuplicatesSkipped != 2 {
		t.Errorf("second run = %+v, want 0 created and 2 duplicates", second)
	}
}

func TestRunExpiresAndRescores(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	stale := h.activeRelation(t, "erin", "frank")
	h.clock.Advance(31 * 24 * time.Hour)
	fresh := h.activeRelation(t, "alice", "erin")

	if _, err := h.store.ApplyPoints(ctx, store.PointsUpdate{
		RelationID:       fresh.ID,
		ActorID:          "alice",
		Delta:            3,
		CounterpartDelta: 0.9,
		ActivityType:     models.ActivityComment,
	}); err != nil {
		t.Fatalf("ApplyPoints() error = %v", err)
	}

	res, err := h.manager.Nominate(ctx, nomination.Request{NominatorID: "gina", NomineeID: "hank"})
	if err != nil || !res.Success {
		t.Fatalf("Nominate() = %+v, %v", res, err)
	}
	h.clock.Advance(73 * time.Hour)

	rec := &scriptedRecommender{}
	r := h.runner(t, rec, []string{"alice"}, nil)
	run, err := r.Run(ctx, "2026-W47")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if run.ExpiredRelations != 1 || run.ExpiredNominations != 1 {
		t.Errorf("expired = %d relations, %d nominations, want 1 and 1", run.ExpiredRelations, run.ExpiredNominations)
	}
	if len(rec.invalidated) != 2 {
		t.Errorf("invalidated = %v, want both members of the expired relation", rec.invalidated)
	}
	if run.RelationsRescored != 1 {
		t.Errorf("RelationsRescored = %d, want 1", run.RelationsRescored)
	}

	got, err := h.store.GetRelation(ctx, stale.ID)
	if err != nil {
		t.Fatalf("GetRelation() error = %v", err)
	}
	if got.Status != models.StatusExpired {
		t.Errorf("stale relation status = %s, want EXPIRED", got.Status)
	}

	got, err = h.store.GetRelation(ctx, fresh.ID)
	if err != nil {
		t.Fatalf("GetRelation() error = %v", err)
	}
	if got.CompatibilityScore != 42 || got.MutualFriends != 3 || len(got.CommonInterests) != 1 {
		t.Errorf("derived fields = %v/%d/%v, want 42/3/[chess]", got.CompatibilityScore, got.MutualFriends, got.CommonInterests)
	}
	if want := 1.0 / 7; got.InteractionFrequency < want-1e-9 || got.InteractionFrequency > want+1e-9 {
		t.Errorf("InteractionFrequency = %v, want %v", got.InteractionFrequency, want)
	}

	if h.pub.count(models.EventRelationExpired) != 1 || h.pub.count(models.EventNominationExpired) != 1 {
		t.Error("expiry events were not published")
	}
}

func TestRunUserTimeout(t *testing.T) {
	h := newHarness(t)
	rec := &scriptedRecommender{
		picks: map[string][]string{"alice": {"bob"}},
		block: map[string]bool{"slow": true},
	}
	r := h.runner(t, rec, []string{"slow", "alice"}, func(c *Config) {
		c.UserTimeout = 50 * time.Millisecond
	})

	run, err := r.Run(context.Background(), "2026-W42")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if run.Errors != 1 || run.NominationsCreated != 1 {
		t.Errorf("run = %+v, want 1 error and 1 nomination", run)
	}
}

func TestRunUserRate(t *testing.T) {
	h := newHarness(t)
	rec := &scriptedRecommender{picks: map[string][]string{"alice": {"bob"}}}
	r := h.runner(t, rec, []string{"alice", "bob", "carol", "dave"}, func(c *Config) {
		c.Workers = 1
		c.UserRate = 20
	})

	start := time.Now()
	run, err := r.Run(context.Background(), "2026-W42")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	// One token up front, then one every 50ms for the remaining three users.
	if elapsed := time.Since(start); elapsed < 100*time.Millisecond {
		t.Errorf("Run() took %v, want the user rate to space out the batch", elapsed)
	}
	if run.UsersProcessed != 4 || run.Errors != 0 {
		t.Errorf("run = %+v, want 4 users and no errors", run)
	}
}

func TestRunRefusesConcurrentRuns(t *testing.T) {
	h := newHarness(t)
	rec := &scriptedRecommender{block: map[string]bool{"slow": true}}
	r := h.runner(t, rec, []string{"slow"}, func(c *Config) {
		c.UserTimeout = 500 * time.Millisecond
	})

	done := make(chan error, 1)
	go func() {
		_, err := r.Run(context.Background(), "2026-W42")
		done <- err
	}()

	deadline := time.Now().Add(2 * time.Second)
	for !r.running.Load() {
		if time.Now().After(deadline) {
			t.Fatal("first run never started")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if _, err := r.RunNow(context.Background()); !errors.Is(err, ErrRunInProgress) {
		t.Errorf("RunNow() error = %v, want ErrRunInProgress", err)
	}
	if err := <-done; err != nil {
		t.Errorf("first Run() error = %v", err)
	}
}

func TestRunRequiresCycleID(t *testing.T) {
	h := newHarness(t)
	r := h.runner(t, &scriptedRecommender{}, nil, nil)
	if _, err := r.Run(context.Background(), ""); err == nil {
		t.Error("Run(\"\") error = nil, want error")
	}
}
