// Bondscore - Reciprocal Relationship Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bondscore

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/bondscore/internal/metrics"
	"github.com/tomtom215/bondscore/internal/middleware"
)

// NewRouter configures all HTTP routes. mw may be nil for defaults.
func NewRouter(h *Handler, mw *ChiMiddleware) http.Handler {
	if mw == nil {
		mw = NewChiMiddleware(nil)
	}
	r := chi.NewRouter()

	// Applied to ALL routes in order
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(mw.CORS()) // CORS must be global to handle OPTIONS preflight
	r.Use(middleware.PrometheusMetrics)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusNotFound, ErrCodeNotFound, "Route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
	})

	r.With(mw.RateLimitHealth()).Get("/health", h.Health)
	r.Handle("/metrics", metricsHandler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(mw.RateLimit())
		r.Use(chimiddleware.Compress(5, "application/json"))

		r.Post("/activities", h.ProcessActivity)
		r.Post("/activities/batch", h.ProcessActivityBatch)

		r.Route("/nominations", func(r chi.Router) {
			r.Post("/", h.CreateNomination)
			r.Post("/{id}/respond", h.RespondNomination)
			r.Post("/{id}/cancel", h.CancelNomination)
		})

		// Token-protected; strict limiting against token guessing.
		r.With(mw.RateLimitAdmin()).Post("/admin/nominations", h.CreateAdminNomination)

		r.Route("/users/{userID}", func(r chi.Router) {
			r.Get("/nominations", h.ListNominations)
			r.Get("/relations", h.ListRelations)
			r.Get("/recommendations", h.GetRecommendations)
		})

		r.Get("/relations/{id}/stats", h.GetRelationStats)

		r.Route("/cycles", func(r chi.Router) {
			r.Get("/", h.ListCycles)
			r.With(mw.RateLimitCycle()).Post("/run", h.RunCycle)
		})
	})

	return r
}

// metricsHandler serves the Prometheus registry with a fresh uptime reading.
func metricsHandler() http.Handler {
	next := promhttp.Handler()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		metrics.RefreshUptime(time.Now())
		next.ServeHTTP(w, r)
	})
}
