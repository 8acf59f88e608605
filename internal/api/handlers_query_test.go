// Bondscore - Reciprocal Relationship Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bondscore

package api

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"testing"
	"time"

	"github.com/tomtom215/bondscore/internal/cycle"
	"github.com/tomtom215/bondscore/internal/models"
	"github.com/tomtom215/bondscore/internal/recommend"
)

var errBoom = errors.New("boom")

func TestRelationStats(t *testing.T) {
	t.Parallel()
	h := newAPIHarness(t, nil)
	rel := h.activeRelation(t, "alice", "bob")

	for i, kind := range []string{"comment", "comment", "like"} {
		rec, _ := h.do(t, http.MethodPost, "/api/v1/activities", map[string]string{
			"actor_id":        "alice",
			"counterpart_id":  "bob",
			"activity_type":   kind,
			"idempotency_key": fmt.Sprintf("evt-%d", i),
		}, nil)
		if rec.Code != http.StatusCreated {
			t.Fatalf("activity %d status = %d", i, rec.Code)
		}
	}

	rec, env := h.do(t, http.MethodGet, "/api/v1/relations/"+rel.ID+"/stats?limit=2", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d (body %s)", rec.Code, rec.Body.String())
	}
	var stats RelationStats
	decodeData(t, env, &stats)

	if stats.Relation.ID != rel.ID {
		t.Errorf("relation = %s, want %s", stats.Relation.ID, rel.ID)
	}
	if stats.ActivityByType[models.ActivityComment] != 2 || stats.ActivityByType[models.ActivityLike] != 1 {
		t.Errorf("ActivityByType = %v", stats.ActivityByType)
	}
	if len(stats.RecentActivity) != 2 {
		t.Fatalf("RecentActivity = %d entries, want 2", len(stats.RecentActivity))
	}
	if stats.RecentActivity[0].IdempotencyKey != "evt-2" {
		t.Errorf("newest entry = %s, want evt-2", stats.RecentActivity[0].IdempotencyKey)
	}
	if sum := stats.PointsByUser["alice"] + stats.PointsByUser["bob"]; math.Abs(sum-stats.Relation.TotalPoints) > 1e-6 {
		t.Errorf("PointsByUser = %v, sum %v != total %v", stats.PointsByUser, sum, stats.Relation.TotalPoints)
	}
	if stats.Relation.Progress.Tier != stats.Relation.Strength {
		t.Errorf("progress tier %s != strength %s", stats.Relation.Progress.Tier, stats.Relation.Strength)
	}
}

func TestRelationQueriesRejectBadInput(t *testing.T) {
	t.Parallel()
	h := newAPIHarness(t, nil)

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantCode   string
	}{
		{"unknown relation", "/api/v1/relations/missing/stats", http.StatusNotFound, ErrCodeNotFound},
		{"bad since", "/api/v1/relations/missing/stats?since=yesterday", http.StatusBadRequest, ErrCodeBadRequest},
		{"bad limit", "/api/v1/relations/missing/stats?limit=0", http.StatusBadRequest, ErrCodeBadRequest},
		{"unknown status", "/api/v1/users/alice/relations?status=FRIENDLY", http.StatusBadRequest, ErrCodeBadRequest},
		{"reserved user id", "/api/v1/users/a:b/relations", http.StatusBadRequest, ErrCodeBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := h.do(t, http.MethodGet, tt.path, nil, nil)
			expectError(t, rec, env, tt.wantStatus, tt.wantCode)
		})
	}
}

func TestGetRecommendations(t *testing.T) {
	t.Parallel()
	h := newAPIHarness(t, nil)
	h.handler.DefaultFilters = recommend.Filters{ExcludeRecentlyRejected: true, MinScore: 10}
	h.rec.resp = &recommend.Response{
		Candidates: []recommend.Candidate{{UserID: "carol", Score: 72}},
		Metadata:   recommend.ResponseMetadata{LatencyMS: 7},
		Events:     []models.Event{models.NewEvent(models.EventRecommendationGenerated, time.Now())},
	}

	rec, env := h.do(t, http.MethodGet,
		"/api/v1/users/alice/recommendations?limit=5&refresh=true&min_score=40&mutual_only=true", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d (body %s)", rec.Code, rec.Body.String())
	}
	var resp recommend.Response
	decodeData(t, env, &resp)
	if len(resp.Candidates) != 1 || resp.Candidates[0].UserID != "carol" {
		t.Errorf("candidates = %+v", resp.Candidates)
	}
	if env.Meta.QueryTimeMS != 7 {
		t.Errorf("query_time_ms = %d, want 7", env.Meta.QueryTimeMS)
	}

	got := h.rec.last
	if got.UserID != "alice" || got.Limit != 5 || !got.SkipCache {
		t.Errorf("request = %+v", got)
	}
	if got.Filters == nil {
		t.Fatal("filters should be set when filter parameters are present")
	}
	if got.Filters.MinScore != 40 || !got.Filters.RequireMutualInteraction || !got.Filters.ExcludeRecentlyRejected {
		t.Errorf("filters = %+v, want min 40, mutual, defaults kept", *got.Filters)
	}
	if h.pub.count(models.EventRecommendationGenerated) != 1 {
		t.Error("recommendation.generated not published")
	}
}

func TestGetRecommendationsDefaults(t *testing.T) {
	t.Parallel()
	h := newAPIHarness(t, nil)

	rec, _ := h.do(t, http.MethodGet, "/api/v1/users/alice/recommendations", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if h.rec.last.Filters != nil || h.rec.last.Limit != 0 || h.rec.last.SkipCache {
		t.Errorf("request = %+v, want configured defaults", h.rec.last)
	}
}

func TestGetRecommendationsErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		path       string
		engineErr  error
		wantStatus int
		wantCode   string
	}{
		{"limit too large", "/api/v1/users/alice/recommendations?limit=1000", nil, http.StatusBadRequest, ErrCodeBadRequest},
		{"bad min score", "/api/v1/users/alice/recommendations?min_score=high", nil, http.StatusBadRequest, ErrCodeBadRequest},
		{"bad bool", "/api/v1/users/alice/recommendations?mutual_only=maybe", nil, http.StatusBadRequest, ErrCodeBadRequest},
		{"invalid request", "/api/v1/users/alice/recommendations", recommend.ErrInvalidRequest, http.StatusBadRequest, ErrCodeBadRequest},
		{"engine failure", "/api/v1/users/alice/recommendations", fmt.Errorf("duckdb: %w", errBoom), http.StatusInternalServerError, ErrCodeInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h := newAPIHarness(t, nil)
			h.rec.err = tt.engineErr
			rec, env := h.do(t, http.MethodGet, tt.path, nil, nil)
			expectError(t, rec, env, tt.wantStatus, tt.wantCode)
			if tt.wantStatus == http.StatusInternalServerError && env.Error.Message != "Failed to generate recommendations" {
				t.Errorf("message = %q, internal errors must not leak", env.Error.Message)
			}
		})
	}
}

func TestRunCycle(t *testing.T) {
	t.Parallel()
	h := newAPIHarness(t, nil)

	rec, env := h.do(t, http.MethodPost, "/api/v1/cycles/run", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d (body %s)", rec.Code, rec.Body.String())
	}
	var run models.CycleRun
	decodeData(t, env, &run)
	if run.CycleID != "2026-W42" || h.cycles.ranNow != 1 {
		t.Errorf("run = %+v, RunNow calls = %d", run, h.cycles.ranNow)
	}

	rec, _ = h.do(t, http.MethodPost, "/api/v1/cycles/run", map[string]string{"cycle_id": "2026-W40"}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("explicit cycle status = %d", rec.Code)
	}
	if last := h.cycles.ranIDs[len(h.cycles.ranIDs)-1]; last != "2026-W40" {
		t.Errorf("ran %s, want 2026-W40", last)
	}

	rec, env = h.do(t, http.MethodPost, "/api/v1/cycles/run", map[string]string{"cycle_id": "2026-40"}, nil)
	expectError(t, rec, env, http.StatusBadRequest, "VALIDATION_ERROR")

	h.cycles.err = cycle.ErrRunInProgress
	rec, env = h.do(t, http.MethodPost, "/api/v1/cycles/run", nil, nil)
	expectError(t, rec, env, http.StatusConflict, ErrCodeConflict)
}

func TestListCycles(t *testing.T) {
	t.Parallel()
	h := newAPIHarness(t, nil)
	h.cycles.history = []models.CycleRun{{CycleID: "2026-W42"}, {CycleID: "2026-W41"}, {CycleID: "2026-W40"}}

	rec, env := h.do(t, http.MethodGet, "/api/v1/cycles?limit=2", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Cycles []models.CycleRun `json:"cycles"`
		Count  int               `json:"count"`
	}
	decodeData(t, env, &body)
	if body.Count != 2 || body.Cycles[0].CycleID != "2026-W42" {
		t.Errorf("cycles = %+v", body)
	}

	rec, env = h.do(t, http.MethodGet, "/api/v1/cycles?limit=abc", nil, nil)
	expectError(t, rec, env, http.StatusBadRequest, ErrCodeBadRequest)
}
