// Bondscore - Reciprocal Relationship Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bondscore

/*
Package api provides the HTTP REST API layer for Bondscore.

It exposes the engine operations (activity ingestion, nominations,
relation queries, recommendations and weekly cycles) as JSON endpoints
on a chi router.

Key Components:

  - Router: route table and middleware stack (NewRouter)
  - Handler: request handlers bound to engine components via Dependencies
  - ChiMiddleware: CORS and per-route httprate limits
  - Response formatting: models.APIResponse envelope with request metadata
  - Error mapping: refusal reasons and engine errors to HTTP status codes

Endpoints:

	GET  /health
	GET  /metrics
	POST /api/v1/activities
	POST /api/v1/activities/batch
	POST /api/v1/nominations
	POST /api/v1/nominations/{id}/respond
	POST /api/v1/nominations/{id}/cancel
	POST /api/v1/admin/nominations          (X-Admin-Token)
	GET  /api/v1/users/{userID}/nominations?role=sent|received|all
	GET  /api/v1/users/{userID}/relations?status=ACTIVE,PENDING
	GET  /api/v1/users/{userID}/recommendations
	GET  /api/v1/relations/{id}/stats
	GET  /api/v1/cycles
	POST /api/v1/cycles/run

Response Format:

	{
	  "status": "success",
	  "data": { ... },
	  "meta": {"request_id": "...", "timestamp": "...", "query_time_ms": 12}
	}

Errors use status "error" and carry an error object with a machine-readable
code. Nomination refusals add the refusal reason under error.details.reason.

Events returned by engine operations are handed to the Publisher after the
operation commits. Publish failures are logged and never fail the request.

Thread Safety:

Handler is safe for concurrent use. Its tunables (timeouts, default
recommendation filters) must be set before the router starts serving.
*/
package api
