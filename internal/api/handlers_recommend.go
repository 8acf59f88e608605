// Bondscore - Reciprocal Relationship Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bondscore

package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/bondscore/internal/logging"
	"github.com/tomtom215/bondscore/internal/models"
	"github.com/tomtom215/bondscore/internal/recommend"
)

var errMinScore = errors.New("min_score must be a number between 0 and 100")

// GetRecommendations handles GET /api/v1/users/{userID}/recommendations.
//
// Query parameters:
//   - limit: number of candidates (1-100, default from configuration)
//   - refresh: bypass the response cache
//   - min_score: drop candidates scoring below it (0-100)
//   - mutual_only: keep only users with two-way interaction history
//   - exclude_rejected: drop users who recently rejected the requester
//
// Filter parameters override the configured default filters one by one.
func (h *Handler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if err := models.ValidateUserID(userID); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, err.Error(), nil)
		return
	}

	req, err := h.recommendRequest(r, userID)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, err.Error(), nil)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondErrorDetails(w, r, http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details, nil)
		return
	}

	ctx, cancel := h.withTimeout(logging.ContextWithUserID(r.Context(), userID))
	defer cancel()

	resp, err := h.deps.Recommender.Recommend(ctx, req)
	if err != nil {
		respondEngineError(w, r, "Failed to generate recommendations", err)
		return
	}
	h.publish(r.Context(), resp.Events)

	meta := responseMeta(r)
	meta.QueryTimeMS = resp.Metadata.LatencyMS
	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   resp,
		Meta:   meta,
	})
}

func (h *Handler) recommendRequest(r *http.Request, userID string) (recommend.Request, error) {
	req := recommend.Request{
		UserID:    userID,
		RequestID: logging.RequestIDFromContext(r.Context()),
	}

	limit, err := getIntParam(r, "limit", 0, 1, 100)
	if err != nil {
		return req, err
	}
	req.Limit = limit

	if req.SkipCache, err = getBoolParam(r, "refresh", false); err != nil {
		return req, err
	}

	q := r.URL.Query()
	if q.Get("min_score") == "" && q.Get("mutual_only") == "" && q.Get("exclude_rejected") == "" {
		return req, nil
	}

	filters := h.DefaultFilters
	if raw := q.Get("min_score"); raw != "" {
		score, perr := strconv.ParseFloat(raw, 64)
		if perr != nil || score < 0 || score > 100 {
			return req, errMinScore
		}
		filters.MinScore = score
	}
	if filters.RequireMutualInteraction, err = getBoolParam(r, "mutual_only", filters.RequireMutualInteraction); err != nil {
		return req, err
	}
	if filters.ExcludeRecentlyRejected, err = getBoolParam(r, "exclude_rejected", filters.ExcludeRecentlyRejected); err != nil {
		return req, err
	}
	req.Filters = &filters
	return req, nil
}
