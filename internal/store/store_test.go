// Bondscore - Reciprocal Relationship Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bondscore

package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"

	"github.com/tomtom215/bondscore/internal/models"
)

// testClock is a settable clock shared by the store and the test.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 10, 12, 9, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// createTestBadgerDB opens an in-memory database closed at test cleanup.
func createTestBadgerDB(t *testing.T) *badger.DB {
	t.Helper()
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		t.Fatalf("Failed to open BadgerDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestStore(t *testing.T) (*BadgerStore, *testClock) {
	t.Helper()
	clock := newTestClock()
	cfg := DefaultConfig()
	cfg.Path = ""
	cfg.InMemory = true
	cfg.Now = clock.Now
	s, err := New(createTestBadgerDB(t), cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return s, clock
}

func mustPair(t *testing.T, a, b string) models.Pair {
	t.Helper()
	p, err := models.NewPair(a, b)
	if err != nil {
		t.Fatalf("NewPair(%q, %q) error = %v", a, b, err)
	}
	return p
}

func createActive(t *testing.T, s *BadgerStore, a, b string) *models.Relation {
	t.Helper()
	rel, err := s.CreateRelation(context.Background(), CreateRelationParams{
		Pair:      mustPair(t, a, b),
		Initiator: a,
		Status:    models.StatusActive,
	})
	if err != nil {
		t.Fatalf("CreateRelation() error = %v", err)
	}
	return rel
}

func TestCreateRelationDuplicate(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	rel := createActive(t, s, "alice", "bob")
	if rel.Status != models.StatusActive {
		t.Errorf("Status = %s, want ACTIVE", rel.Status)
	}
	if rel.EndDate.Sub(rel.StartDate) != s.RelationDuration() {
		t.Errorf("window = %v, want %v", rel.EndDate.Sub(rel.StartDate), s.RelationDuration())
	}

	_, err := s.CreateRelation(ctx, CreateRelationParams{Pair: mustPair(t, "bob", "alice")})
	if !errors.Is(err, ErrDuplicateActiveRelation) {
		t.Fatalf("second CreateRelation() error = %v, want ErrDuplicateActiveRelation", err)
	}

	found, err := s.FindActive(ctx, mustPair(t, "bob", "alice"))
	if err != nil {
		t.Fatalf("FindActive() error = %v", err)
	}
	if found == nil || found.ID != rel.ID {
		t.Fatalf("FindActive() = %v, want %s", found, rel.ID)
	}
}

func TestFindActiveMissing(t *testing.T) {
	s, _ := newTestStore(t)
	rel, err := s.FindActive(context.Background(), mustPair(t, "x", "y"))
	if err != nil || rel != nil {
		t.Errorf("FindActive() = %v, %v, want nil, nil", rel, err)
	}
}

func TestApplyPoints(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	rel := createActive(t, s, "alice", "bob")

	res, err := s.ApplyPoints(ctx, PointsUpdate{
		RelationID:       rel.ID,
		ActorID:          "bob",
		Delta:            10,
		CounterpartDelta: 3,
		ActivityType:     models.ActivityComment,
	})
	if err != nil {
		t.Fatalf("ApplyPoints() error = %v", err)
	}

	after := res.After
	if after.User2Points != 10 || after.User1Points != 3 {
		t.Errorf("sides = %v/%v, want 3/10", after.User1Points, after.User2Points)
	}
	if after.TotalPoints != 13 || after.MutualScore != 3 {
		t.Errorf("total/mutual = %v/%v, want 13/3", after.TotalPoints, after.MutualScore)
	}
	if after.Strength != models.TierWeak {
		t.Errorf("Strength = %s, want WEAK", after.Strength)
	}
	if after.ActivityCount != 1 {
		t.Errorf("ActivityCount = %d, want 1", after.ActivityCount)
	}
	if res.Before.TotalPoints != 0 {
		t.Errorf("Before.TotalPoints = %v, want 0", res.Before.TotalPoints)
	}

	res, err = s.ApplyPoints(ctx, PointsUpdate{RelationID: rel.ID, ActorID: "alice", Delta: 20, ActivityType: models.ActivityShare})
	if err != nil {
		t.Fatalf("ApplyPoints() error = %v", err)
	}
	if !res.TierChanged() || res.After.Strength != models.TierModerate {
		t.Errorf("expected WEAK -> MODERATE, got %s -> %s", res.Before.Strength, res.After.Strength)
	}

	entries, err := s.ListActivity(ctx, rel.ID, time.Time{})
	if err != nil {
		t.Fatalf("ListActivity() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}
	if entries[0].UserID != "bob" || entries[0].Points != 10 || entries[0].CounterpartPoints != 3 {
		t.Errorf("first entry = %+v", entries[0])
	}
}

func TestApplyPointsRejected(t *testing.T) {
	s, clock := newTestStore(t)
	ctx := context.Background()
	rel := createActive(t, s, "alice", "bob")

	tests := []struct {
		name    string
		update  PointsUpdate
		wantErr error
	}{
		{"stranger", PointsUpdate{RelationID: rel.ID, ActorID: "carol", Delta: 1}, ErrNotParticipant},
		{"negative", PointsUpdate{RelationID: rel.ID, ActorID: "alice", Delta: -1}, ErrInvalidPoints},
		{"missing relation", PointsUpdate{RelationID: "nope", ActorID: "alice", Delta: 1}, ErrNotFound},
		{"after window", PointsUpdate{RelationID: rel.ID, ActorID: "alice", Delta: 1, At: clock.Now().Add(31 * 24 * time.Hour)}, ErrRelationNotActive},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.ApplyPoints(ctx, tt.update); !errors.Is(err, tt.wantErr) {
				t.Errorf("ApplyPoints() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	pending, err := s.CreateRelation(ctx, CreateRelationParams{Pair: mustPair(t, "carol", "dave")})
	if err != nil {
		t.Fatalf("CreateRelation() error = %v", err)
	}
	if _, err := s.ApplyPoints(ctx, PointsUpdate{RelationID: pending.ID, ActorID: "carol", Delta: 1}); !errors.Is(err, ErrRelationNotActive) {
		t.Errorf("ApplyPoints(pending) error = %v, want ErrRelationNotActive", err)
	}
}

func TestApplyPointsConcurrent(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	rel := createActive(t, s, "alice", "bob")

	const (
		workers = 50
		points  = 2.0
	)
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			actor := "alice"
			if i%2 == 1 {
				actor = "bob"
			}
			_, err := s.ApplyPoints(ctx, PointsUpdate{RelationID: rel.ID, ActorID: actor, Delta: points, ActivityType: models.ActivityLike})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("ApplyPoints() error = %v", err)
		}
	}

	got, err := s.GetRelation(ctx, rel.ID)
	if err != nil {
		t.Fatalf("GetRelation() error = %v", err)
	}
	if got.TotalPoints != workers*points {
		t.Errorf("TotalPoints = %v, want %v", got.TotalPoints, workers*points)
	}
	if got.ActivityCount != workers {
		t.Errorf("ActivityCount = %d, want %d", got.ActivityCount, workers)
	}
}

func TestApplyPointsIdempotent(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	rel := createActive(t, s, "alice", "bob")

	u := PointsUpdate{RelationID: rel.ID, ActorID: "alice", Delta: 5, ActivityType: models.ActivityShare, IdempotencyKey: "evt-1"}
	first, err := s.ApplyPoints(ctx, u)
	if err != nil {
		t.Fatalf("ApplyPoints() error = %v", err)
	}
	second, err := s.ApplyPoints(ctx, u)
	if err != nil {
		t.Fatalf("replayed ApplyPoints() error = %v", err)
	}
	if !second.Duplicate {
		t.Error("replay not flagged as duplicate")
	}
	if second.Entry.ID != first.Entry.ID {
		t.Errorf("replay entry = %s, want %s", second.Entry.ID, first.Entry.ID)
	}
	if second.After.TotalPoints != 5 {
		t.Errorf("TotalPoints after replay = %v, want 5", second.After.TotalPoints)
	}
}

func TestSetStatus(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	rel := createActive(t, s, "alice", "bob")

	closed, err := s.SetStatus(ctx, rel.ID, models.StatusRejected, "alice", "ended")
	if err != nil {
		t.Fatalf("SetStatus() error = %v", err)
	}
	if closed.Status != models.StatusRejected || closed.StatusReason != "ended" {
		t.Errorf("closed = %+v", closed)
	}

	if _, err := s.SetStatus(ctx, rel.ID, models.StatusActive, "alice", "reopen"); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("reopening terminal relation error = %v, want ErrInvalidTransition", err)
	}
	if _, err := s.SetStatus(ctx, rel.ID, "BOGUS", "alice", ""); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("unknown status error = %v, want ErrInvalidTransition", err)
	}

	// The pair is free again once its relation is terminal.
	again := createActive(t, s, "bob", "alice")
	if again.ID == rel.ID {
		t.Error("expected a new relation ID")
	}

	all, err := s.ListForUser(ctx, "alice")
	if err != nil {
		t.Fatalf("ListForUser() error = %v", err)
	}
	if len(all) != 2 {
		t.Errorf("ListForUser() = %d relations, want 2", len(all))
	}
	active, err := s.ListForUser(ctx, "alice", models.StatusActive)
	if err != nil {
		t.Fatalf("ListForUser(ACTIVE) error = %v", err)
	}
	if len(active) != 1 || active[0].ID != again.ID {
		t.Errorf("ListForUser(ACTIVE) = %+v", active)
	}
}

func TestExpireRelations(t *testing.T) {
	s, clock := newTestStore(t)
	ctx := context.Background()
	rel := createActive(t, s, "alice", "bob")

	expired, err := s.ExpireRelations(ctx, clock.Now())
	if err != nil {
		t.Fatalf("ExpireRelations() error = %v", err)
	}
	if len(expired) != 0 {
		t.Fatalf("expired %d relations before the window ended", len(expired))
	}

	clock.Advance(s.RelationDuration())
	expired, err = s.ExpireRelations(ctx, clock.Now())
	if err != nil {
		t.Fatalf("ExpireRelations() error = %v", err)
	}
	if len(expired) != 1 || expired[0].ID != rel.ID || expired[0].Status != models.StatusExpired {
		t.Fatalf("ExpireRelations() = %+v", expired)
	}

	again, err := s.ExpireRelations(ctx, clock.Now())
	if err != nil || len(again) != 0 {
		t.Errorf("second sweep = %d, %v; want 0, nil", len(again), err)
	}
}

func TestRefreshDerived(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	rel := createActive(t, s, "alice", "bob")

	got, err := s.RefreshDerived(ctx, rel.ID, models.DerivedStats{
		InteractionFrequency: 1.5,
		CompatibilityScore:   72,
		CommonInterests:      []string{"climbing"},
		MutualFriends:        4,
	})
	if err != nil {
		t.Fatalf("RefreshDerived() error = %v", err)
	}
	if got.CompatibilityScore != 72 || got.MutualFriends != 4 || len(got.CommonInterests) != 1 {
		t.Errorf("RefreshDerived() = %+v", got)
	}
	if got.TotalPoints != rel.TotalPoints {
		t.Error("RefreshDerived() must not touch points")
	}
}

func TestCycleRuns(t *testing.T) {
	s, clock := newTestStore(t)
	ctx := context.Background()

	for i, id := range []string{"2026-W41", "2026-W42"} {
		run := &models.CycleRun{CycleID: id, StartedAt: clock.Now().Add(time.Duration(i) * time.Hour), UsersProcessed: i + 1}
		if err := s.SaveCycleRun(ctx, run); err != nil {
			t.Fatalf("SaveCycleRun() error = %v", err)
		}
	}
	runs, err := s.ListCycleRuns(ctx, 1)
	if err != nil {
		t.Fatalf("ListCycleRuns() error = %v", err)
	}
	if len(runs) != 1 || runs[0].CycleID != "2026-W42" {
		t.Errorf("ListCycleRuns(1) = %+v", runs)
	}
	if err := s.SaveCycleRun(ctx, &models.CycleRun{}); err == nil {
		t.Error("SaveCycleRun() accepted a run without cycle ID")
	}
}

func TestClosedStore(t *testing.T) {
	s, _ := newTestStore(t)
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("Ping() on open store error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if _, err := s.GetRelation(context.Background(), "x"); !errors.Is(err, ErrClosed) {
		t.Errorf("GetRelation() after Close error = %v, want ErrClosed", err)
	}
	if err := s.Ping(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("Ping() after Close error = %v, want ErrClosed", err)
	}
}
