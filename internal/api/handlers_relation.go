// Bondscore - Reciprocal Relationship Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bondscore

package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/bondscore/internal/models"
	"github.com/tomtom215/bondscore/internal/scoring"
)

// RelationView is a relation together with its tier progress.
type RelationView struct {
	models.Relation
	Progress scoring.Progress `json:"progress"`
}

// RelationStats is the body of GET /api/v1/relations/{id}/stats.
type RelationStats struct {
	Relation       RelationView                `json:"relation"`
	PointsByUser   map[string]float64          `json:"points_by_user"`
	ActivityByType map[models.ActivityType]int `json:"activity_by_type"`
	RecentActivity []models.ActivityLogEntry   `json:"recent_activity"`
	Since          time.Time                   `json:"since"`
}

func viewOf(rel *models.Relation) RelationView {
	return RelationView{Relation: *rel, Progress: scoring.ProgressFor(rel.TotalPoints)}
}

// ListRelations handles GET /api/v1/users/{userID}/relations?status=ACTIVE,PENDING.
func (h *Handler) ListRelations(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if err := models.ValidateUserID(userID); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, err.Error(), nil)
		return
	}

	var statuses []models.Status
	for _, s := range parseCommaSeparated(r.URL.Query().Get("status")) {
		st := models.Status(strings.ToUpper(s))
		if !st.Valid() {
			respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "unknown status "+sanitizeLogValue(s), nil)
			return
		}
		statuses = append(statuses, st)
	}

	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()

	rels, err := h.deps.Relations.ListForUser(ctx, userID, statuses...)
	if err != nil {
		respondEngineError(w, r, "Failed to list relations", err)
		return
	}

	views := make([]RelationView, 0, len(rels))
	for i := range rels {
		views = append(views, viewOf(&rels[i]))
	}
	respondData(w, r, http.StatusOK, map[string]interface{}{
		"relations": views,
		"count":     len(views),
	})
}

// GetRelationStats handles GET /api/v1/relations/{id}/stats. The activity
// window starts at ?since= (RFC 3339) or defaults to the last 30 days;
// recent_activity holds at most ?limit= entries, newest first.
func (h *Handler) GetRelationStats(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	limit, err := getIntParam(r, "limit", 50, 1, 500)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, err.Error(), nil)
		return
	}
	since := time.Now().UTC().AddDate(0, 0, -30)
	if raw := r.URL.Query().Get("since"); raw != "" {
		since, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "since must be an RFC 3339 timestamp", nil)
			return
		}
	}

	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()

	rel, err := h.deps.Relations.GetRelation(ctx, id)
	if err != nil {
		respondEngineError(w, r, "Failed to load relation", err)
		return
	}
	entries, err := h.deps.Relations.ListActivity(ctx, id, since)
	if err != nil {
		respondEngineError(w, r, "Failed to load relation activity", err)
		return
	}

	stats := RelationStats{
		Relation: viewOf(rel),
		PointsByUser: map[string]float64{
			rel.UserA: rel.User1Points,
			rel.UserB: rel.User2Points,
		},
		ActivityByType: make(map[models.ActivityType]int),
		Since:          since,
	}
	for i := range entries {
		stats.ActivityByType[entries[i].ActivityType]++
	}

	// ListActivity is oldest first.
	recent := make([]models.ActivityLogEntry, 0, min(limit, len(entries)))
	for i := len(entries) - 1; i >= 0 && len(recent) < limit; i-- {
		recent = append(recent, entries[i])
	}
	stats.RecentActivity = recent

	respondData(w, r, http.StatusOK, stats)
}
