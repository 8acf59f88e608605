// Bondscore - Reciprocal Relationship Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bondscore

/*
Package metrics provides Prometheus metrics for the relationship engine.

All collectors are registered on the default registry at package init through
promauto and exposed by the HTTP server at /metrics:

	curl http://localhost:8080/metrics

# Available Metrics

Store:
  - bondscore_store_conflicts_total{op}: transaction conflicts that were retried
  - bondscore_store_retries_exhausted_total{op}: operations that gave up after retries
  - bondscore_store_gc_runs_total{result}: value log GC passes

Activities:
  - bondscore_activities_processed_total{status}
  - bondscore_points_awarded_total{activity_type}
  - bondscore_activity_duration_seconds
  - bondscore_tier_transitions_total{from,to}
  - bondscore_achievements_unlocked_total{kind}

Nominations:
  - bondscore_nominations_created_total{source}
  - bondscore_nomination_refusals_total{reason}
  - bondscore_nomination_responses_total{outcome}

Recommendations and signals:
  - bondscore_recommendation_duration_seconds
  - bondscore_recommendation_candidates
  - bondscore_duckdb_query_duration_seconds{operation}
  - bondscore_duckdb_query_errors_total{operation}

Weekly cycle:
  - bondscore_cycle_runs_total{result}: success, partial or failed
  - bondscore_cycle_duration_seconds
  - bondscore_cycle_user_errors_total
  - bondscore_cycle_last_success_timestamp

Events and circuit breaker:
  - bondscore_events_published_total{type}
  - bondscore_event_publish_errors_total{type}
  - circuit_breaker_state{name}: 0=closed, 1=half-open, 2=open
  - circuit_breaker_requests_total{name,result}
  - circuit_breaker_state_transitions_total{name,from_state,to_state}

HTTP:
  - api_requests_total{method,endpoint,status_code}
  - api_request_duration_seconds{method,endpoint}
  - api_active_requests
  - api_rate_limit_hits_total{endpoint}

# Usage

Record helpers keep label handling in one place:

	start := time.Now()
	res, err := processor.Process(ctx, act)
	metrics.RecordActivity(string(res.Status), string(act.Type), res.Points, time.Since(start))

# Thread Safety

Every collector is safe for concurrent use.
*/
package metrics
