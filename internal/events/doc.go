// Bondscore - Reciprocal Relationship Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bondscore

/*
Package events delivers the notifications returned by engine operations.

Engine components never publish on their own: every operation returns its
[]models.Event and the caller hands them to a Dispatcher. The dispatcher
serializes each event as JSON into a Watermill message whose UUID is the
event id and publishes it on the topic "<prefix>.<type>", for example
"bondscore.tier.changed".

# Backends

  - channel: Watermill GoChannel, in-process and non-persistent
  - nats: Watermill NATS publisher, optionally against an embedded
    nats-server, with JetStream when NATSConfig.JetStream is set

Publishing runs through a gobreaker circuit breaker. While the breaker is
open, publishes fail fast with gobreaker.ErrOpenState and are counted as
rejected in bondscore_circuit_breaker_requests_total.
*/
package events
