// Bondscore - Reciprocal Relationship Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bondscore

/*
Package main is the entry point for the Bondscore server.

Bondscore scores reciprocal relationships between users from their
interactions, manages best-friend nominations and recommends compatible
users. A weekly cycle nominates top candidates, expires stale relations and
refreshes derived statistics.

# Application Architecture

Component initialization order:

 1. Configuration: Koanf v2 (defaults, optional YAML file, environment)
 2. Logging: zerolog with JSON or console output
 3. Store: BadgerDB for relations, activity log, nominations and cycle runs
 4. Signals: DuckDB holding interests and interaction history
 5. Events: Watermill over NATS (embedded or external) or Go channels
 6. Engine: points calculator, activity processor, nomination manager,
    recommender and cycle runner
 7. HTTP: chi router with CORS, rate limiting and Prometheus metrics
 8. Supervisor Tree: suture v4

	Root ("bondscore")
	├── data-layer:   store GC
	├── engine-layer: cycle scheduler
	└── api-layer:    HTTP server

# Configuration

Priority: environment variables > config file > defaults.

	CONFIG_PATH=/etc/bondscore/config.yaml
	HTTP_PORT=8080
	LOG_LEVEL=info               # trace, debug, info, warn, error
	LOG_FORMAT=json              # json or console
	BADGER_PATH=/data/badger
	DUCKDB_PATH=/data/signals.duckdb
	EVENTS_BACKEND=nats          # nats or channel
	NATS_EMBEDDED=true
	ADMIN_TOKEN=<secret>         # enables POST /api/v1/admin/nominations
	ADMIN_TOKEN_HASH=<bcrypt>    # alternative to ADMIN_TOKEN

Any setting can also be given as BONDSCORE_<SECTION>__<KEY>, for example
BONDSCORE_CYCLE__WEEKDAY=monday. Changes to the log level in the config
file are applied without a restart.

# Signal Handling

SIGINT and SIGTERM cancel the supervisor tree. The HTTP server drains
in-flight requests for server.shutdown_timeout, a running cycle records its
partial statistics, and the event transport, signal database and store are
closed in that order.
*/
package main
