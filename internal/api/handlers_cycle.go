// Bondscore - Reciprocal Relationship Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bondscore

package api

import (
	"context"
	"net/http"

	"github.com/tomtom215/bondscore/internal/models"
)

// RunCycleRequest is the optional body of POST /api/v1/cycles/run. An empty
// cycle_id runs the current week.
type RunCycleRequest struct {
	CycleID string `json:"cycle_id,omitempty" validate:"omitempty,cycleid"`
}

// RunCycle handles POST /api/v1/cycles/run. The run is synchronous and
// returns its statistics; a run already in progress yields 409.
func (h *Handler) RunCycle(w http.ResponseWriter, r *http.Request) {
	var req RunCycleRequest
	if !decodeAndValidate(w, r, &req, true) {
		return
	}

	ctx := r.Context()
	if h.CycleTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.CycleTimeout)
		defer cancel()
	}

	var (
		run *models.CycleRun
		err error
	)
	if req.CycleID == "" {
		run, err = h.deps.Cycles.RunNow(ctx)
	} else {
		run, err = h.deps.Cycles.Run(ctx, req.CycleID)
	}
	if err != nil {
		respondEngineError(w, r, "Cycle run failed", err)
		return
	}

	h.logger.Info().
		Str("cycle_id", run.CycleID).
		Int("nominations_created", run.NominationsCreated).
		Int("errors", run.Errors).
		Msg("Manual cycle run completed")
	respondData(w, r, http.StatusOK, run)
}

// ListCycles handles GET /api/v1/cycles?limit=N, newest first.
func (h *Handler) ListCycles(w http.ResponseWriter, r *http.Request) {
	limit, err := getIntParam(r, "limit", 20, 1, 200)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, err.Error(), nil)
		return
	}

	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()

	runs, err := h.deps.Cycles.History(ctx, limit)
	if err != nil {
		respondEngineError(w, r, "Failed to list cycle runs", err)
		return
	}
	if runs == nil {
		runs = []models.CycleRun{}
	}
	respondData(w, r, http.StatusOK, map[string]interface{}{
		"cycles": runs,
		"count":  len(runs),
	})
}
