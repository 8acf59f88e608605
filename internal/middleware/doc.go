// Bondscore - Reciprocal Relationship Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bondscore

/*
Package middleware provides the chi-compatible HTTP middleware shared by the
API router.

Key Components:

  - RequestID: accepts or generates X-Request-ID and stores it in the
    request context for logging.Ctx and response envelopes
  - PrometheusMetrics: request count, latency and in-flight gauge, labelled
    by chi route pattern rather than raw path

Usage:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.PrometheusMetrics)

PrometheusMetrics reads the route pattern after the handler has run, so it
must be installed on the router (or a route group), not wrapped around it.
*/
package middleware
