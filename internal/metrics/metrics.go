// Bondscore - Reciprocal Relationship Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bondscore

package metrics

import (
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Store Metrics
	StoreConflicts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bondscore_store_conflicts_total",
			Help: "Transaction conflicts retried by the relationship store",
		},
		[]string{"op"},
	)

	StoreRetriesExhausted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bondscore_store_retries_exhausted_total",
			Help: "Store operations that failed after all conflict retries",
		},
		[]string{"op"},
	)

	StoreGCRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bondscore_store_gc_runs_total",
			Help: "Value log garbage collection passes",
		},
		[]string{"result"}, // "rewritten", "nothing", "error"
	)

	// Activity Metrics
	ActivitiesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bondscore_activities_processed_total",
			Help: "Activities handled by the processor, by outcome",
		},
		[]string{"status"},
	)

	PointsAwarded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bondscore_points_awarded_total",
			Help: "Points credited to relations, by activity type",
		},
		[]string{"activity_type"},
	)

	ActivityDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bondscore_activity_duration_seconds",
			Help:    "Time to score and persist one activity",
			Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5},
		},
	)

	TierTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bondscore_tier_transitions_total",
			Help: "Relationship strength tier changes",
		},
		[]string{"from", "to"},
	)

	AchievementsUnlocked = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bondscore_achievements_unlocked_total",
			Help: "Achievements unlocked by kind",
		},
		[]string{"kind"},
	)

	// Nomination Metrics
	NominationsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bondscore_nominations_created_total",
			Help: "Nominations created by source",
		},
		[]string{"source"}, // "manual", "cycle", "admin"
	)

	NominationRefusals = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bondscore_nomination_refusals_total",
			Help: "Nomination requests or responses refused, by reason",
		},
		[]string{"reason"},
	)

	NominationResponses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bondscore_nomination_responses_total",
			Help: "Nomination outcomes",
		},
		[]string{"outcome"}, // "accepted", "rejected", "cancelled", "expired", "auto_accepted"
	)

	// Recommendation Metrics
	RecommendationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bondscore_recommendation_duration_seconds",
			Help:    "Time to rank candidates for one user",
			Buckets: prometheus.DefBuckets,
		},
	)

	RecommendationCandidates = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bondscore_recommendation_candidates",
			Help:    "Candidates considered per recommendation request",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
	)

	// Signal source (DuckDB) Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bondscore_duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB signal queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bondscore_duckdb_query_errors_total",
			Help: "DuckDB signal query errors",
		},
		[]string{"operation"},
	)

	// Cycle Metrics
	CycleRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bondscore_cycle_runs_total",
			Help: "Weekly cycle executions",
		},
		[]string{"result"}, // "success", "partial", "failed"
	)

	CycleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bondscore_cycle_duration_seconds",
			Help:    "Duration of a full weekly cycle",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800, 3600},
		},
	)

	CycleUserErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bondscore_cycle_user_errors_total",
			Help: "Per-user failures isolated during weekly cycles",
		},
	)

	CycleLastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bondscore_cycle_last_success_timestamp",
			Help: "Unix timestamp of the last cycle that finished without errors",
		},
	)

	// Event Metrics
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bondscore_events_published_total",
			Help: "Domain events published",
		},
		[]string{"type"},
	)

	EventPublishErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bondscore_event_publish_errors_total",
			Help: "Domain events that could not be published",
		},
		[]string{"type"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Number of API requests currently being processed",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate-limited requests",
		},
		[]string{"endpoint"},
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)

	AppUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "app_uptime_seconds",
			Help: "Application uptime in seconds",
		},
	)
)

// startedAt holds the process start as Unix nanoseconds.
var startedAt atomic.Int64

// RecordStartup publishes the build information and starts the uptime clock.
func RecordStartup(version string, at time.Time) {
	if version == "" {
		version = "dev"
	}
	AppInfo.Reset()
	AppInfo.WithLabelValues(version, runtime.Version()).Set(1)
	startedAt.Store(at.UnixNano())
	AppUptime.Set(0)
}

// RefreshUptime sets AppUptime to the time elapsed since RecordStartup.
// Nothing is recorded before startup.
func RefreshUptime(now time.Time) {
	start := startedAt.Load()
	if start == 0 {
		return
	}
	if up := now.Sub(time.Unix(0, start)); up > 0 {
		AppUptime.Set(up.Seconds())
	}
}

// RecordActivity records one processed activity.
func RecordActivity(status, activityType string, points float64, duration time.Duration) {
	ActivitiesProcessed.WithLabelValues(status).Inc()
	ActivityDuration.Observe(duration.Seconds())
	if points > 0 {
		PointsAwarded.WithLabelValues(activityType).Add(points)
	}
}

// RecordTierTransition records a relation moving between strength tiers.
func RecordTierTransition(from, to string) {
	if from == to {
		return
	}
	TierTransitions.WithLabelValues(from, to).Inc()
}

// RecordNominationRefusal records a refused nomination operation.
func RecordNominationRefusal(reason string) {
	if reason == "" {
		reason = "unknown"
	}
	NominationRefusals.WithLabelValues(reason).Inc()
}

// RecordDBQuery records a DuckDB signal query.
func RecordDBQuery(operation string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation).Inc()
	}
}

// RecordCycle records a finished weekly cycle.
func RecordCycle(duration time.Duration, userErrors int, fatal error) {
	CycleDuration.Observe(duration.Seconds())
	CycleUserErrors.Add(float64(userErrors))
	switch {
	case fatal != nil:
		CycleRuns.WithLabelValues("failed").Inc()
	case userErrors > 0:
		CycleRuns.WithLabelValues("partial").Inc()
	default:
		CycleRuns.WithLabelValues("success").Inc()
		CycleLastSuccess.Set(float64(time.Now().Unix()))
	}
}

// RecordEventPublish records the outcome of publishing a domain event.
func RecordEventPublish(eventType string, err error) {
	if err != nil {
		EventPublishErrors.WithLabelValues(eventType).Inc()
		return
	}
	EventsPublished.WithLabelValues(eventType).Inc()
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}
