// Bondscore - Reciprocal Relationship Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bondscore

/*
Package models defines the data structures shared by the Bondscore engine.

The package is the single source of truth for persisted records and the
values that flow between components. It has no dependencies on storage or
transport and contains only small, pure helpers.

Key Components:

  - Relation: one pairwise relationship with its points, tier and lifecycle
  - ActivityLogEntry: append-only record of a single scored interaction
  - Metadata: typed optional inputs for the points calculator
  - Nomination: an outstanding proposal to form a relation
  - Limits: anti-abuse bounds applied to nominations
  - Event: outbound notification emitted by every mutating operation
  - CycleRun: statistics recorded for one scheduled cycle

Pairs are canonicalized through NewPair so that (a, b) and (b, a) address
the same relation.

Relation lifecycle:

	PENDING -> ACTIVE -> EXPIRED | REJECTED
	PENDING -> EXPIRED | REJECTED

Terminal states are immutable.
*/
package models
