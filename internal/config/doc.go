// Bondscore - Reciprocal Relationship Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bondscore

/*
Package config loads the process configuration with koanf.

# Sources

Sources are layered, later ones winning:

 1. Built-in defaults (Default)
 2. A YAML file: CONFIG_PATH, else the first of config.yaml, config.yml,
    /etc/bondscore/config.yaml, /etc/bondscore/config.yml
 3. Conventional environment variables (HTTP_PORT, LOG_LEVEL, NATS_URL,
    ADMIN_TOKEN, ...)
 4. Generic environment variables of the form BONDSCORE_<SECTION>__<KEY>,
    for example BONDSCORE_RECOMMEND__CACHE_TTL=5m

# Sections

  - server: HTTP listener, CORS and rate limiting
  - store: BadgerDB path, retries and garbage collection
  - relation: validity window of ACTIVE relations
  - signals: DuckDB signal database
  - events: outbound event transport (channel or nats) and circuit breaker
  - scoring: point tables, split policy and achievement thresholds
  - nomination: anti-abuse limits, mutual auto-accept and the admin token
  - recommend: signal weights, filters, limits and response cache
  - cycle: weekly schedule and worker pool
  - logging: level, format and caller info

Each section converts to the configuration type of the package it drives,
for example (*Config).StoreConfig returns a store.Config. Validate runs the
same checks those packages run and reports every problem at once.

# Example

	server:
	  port: 8080
	nomination:
	  max_per_day: 3
	cycle:
	  weekday: friday
	  hour: 18
	  timezone: Europe/Berlin
	scoring:
	  base_points:
	    comment: 4
*/
package config
