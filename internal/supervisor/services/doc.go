// Bondscore - Reciprocal Relationship Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bondscore

/*
Package services adapts Bondscore's long-running components to suture's
Service interface.

Each wrapper translates a component's own lifecycle into a blocking
Serve(ctx) that returns when the supervisor cancels the context:

  - APIService: binds the listener, serves and drains the HTTP API
  - CycleService: cycle.Scheduler Start / Stop
  - StoreGCService: store.GarbageCollector Start / Stop

Wrappers depend on small interfaces rather than the concrete packages so
they can be tested with fakes.

Returning an error from Serve makes suture restart the service with
backoff; returning ctx.Err() after cancellation is a normal stop.
*/
package services
