// Bondscore - Reciprocal Relationship Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bondscore

package api

import (
	"context"
	"net/http"
	"sort"
	"time"
)

// HealthStatus is the body of GET /health.
type HealthStatus struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
	Uptime float64           `json:"uptime_seconds"`
}

// Health handles GET /health. Every registered check runs with a short
// timeout; any failure reports "degraded" with 503.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	names := make([]string, 0, len(h.deps.Checks))
	for name := range h.deps.Checks {
		names = append(names, name)
	}
	sort.Strings(names)

	health := HealthStatus{
		Status: "healthy",
		Checks: make(map[string]string, len(names)),
		Uptime: time.Since(h.startTime).Seconds(),
	}
	for _, name := range names {
		if err := h.deps.Checks[name](ctx); err != nil {
			health.Status = "degraded"
			health.Checks[name] = err.Error()
			h.logger.Warn().Err(err).Str("check", name).Msg("Health check failed")
			continue
		}
		health.Checks[name] = "ok"
	}

	status := http.StatusOK
	if health.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}
	respondData(w, r, status, health)
}
