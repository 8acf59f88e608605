// Bondscore - Reciprocal Relationship Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bondscore

package api

import (
	"net/http"
	"strings"

	"github.com/tomtom215/bondscore/internal/activity"
	"github.com/tomtom215/bondscore/internal/models"
)

// IdempotencyKeyHeader supplies the idempotency key of a single activity.
const IdempotencyKeyHeader = "Idempotency-Key"

// BatchActivityRequest is the body of POST /api/v1/activities/batch. At
// most 500 items are accepted per call.
type BatchActivityRequest struct {
	Activities []activity.Input `json:"activities" validate:"required,min=1,max=500,dive"`
}

// BatchActivityResponse summarizes a processed batch.
type BatchActivityResponse struct {
	Results    []*activity.Result `json:"results"`
	Applied    int                `json:"applied"`
	Duplicates int                `json:"duplicates"`
	Skipped    int                `json:"skipped"`
	Failed     int                `json:"failed"`
}

// ProcessActivity handles POST /api/v1/activities.
// The Idempotency-Key header fills idempotency_key when the body omits it.
func (h *Handler) ProcessActivity(w http.ResponseWriter, r *http.Request) {
	var in activity.Input
	if err := decodeJSON(w, r, &in, false); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, err.Error(), nil)
		return
	}

	if key := strings.TrimSpace(r.Header.Get(IdempotencyKeyHeader)); key != "" {
		if in.IdempotencyKey != "" && in.IdempotencyKey != key {
			respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest,
				"Idempotency-Key header and idempotency_key field disagree", nil)
			return
		}
		in.IdempotencyKey = key
	}

	if apiErr := validateRequest(&in); apiErr != nil {
		respondErrorDetails(w, r, http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details, nil)
		return
	}

	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()

	res, err := h.deps.Activities.Process(ctx, in)
	if err != nil {
		respondEngineError(w, r, "Failed to process activity", err)
		return
	}
	h.publish(r.Context(), res.Events)

	status, code := activityStatus(res.Status)
	if code != "" {
		message := res.Reason
		if message == "" {
			message = string(res.Status)
		}
		respondErrorDetails(w, r, status, code, message, map[string]interface{}{
			"status": string(res.Status),
		}, nil)
		return
	}
	respondData(w, r, status, res)
}

// ProcessActivityBatch handles POST /api/v1/activities/batch.
// Items are processed in order; a failing item never aborts the batch.
func (h *Handler) ProcessActivityBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchActivityRequest
	if !decodeAndValidate(w, r, &req, false) {
		return
	}

	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()

	results, err := h.deps.Activities.ProcessBatch(ctx, req.Activities)
	if err != nil && len(results) == 0 {
		respondEngineError(w, r, "Failed to process batch", err)
		return
	}

	resp := BatchActivityResponse{Results: results}
	var evs []models.Event
	for _, res := range results {
		evs = append(evs, res.Events...)
		switch res.Status {
		case activity.StatusApplied:
			resp.Applied++
		case activity.StatusDuplicate:
			resp.Duplicates++
		case activity.StatusFailed:
			resp.Failed++
		default:
			resp.Skipped++
		}
	}
	h.publish(r.Context(), evs)

	if err != nil {
		// Cancelled part way: report what was committed.
		resp.Failed += len(req.Activities) - len(results)
		h.logger.Warn().Err(err).
			Int("processed", len(results)).
			Int("submitted", len(req.Activities)).
			Msg("Batch interrupted")
	}
	respondData(w, r, http.StatusOK, resp)
}
