// Bondscore - Reciprocal Relationship Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bondscore

/*
Package activity turns interaction events into points on a relation.

A Processor resolves the ACTIVE relation of the two users, scores the
interaction with the scoring.Calculator (or takes the override), splits the
points and persists them with one store.ApplyPoints call. Achievement
detectors then inspect the update and the trailing activity log.

# Outcomes

Business conditions are reported through Result.Status, never as errors:

  - StatusApplied: points were written
  - StatusDuplicate: the idempotency key was already applied
  - StatusInvalid: missing or self-referencing user ids
  - StatusUnknownActivity: the activity tag has no points table entry
  - StatusNoRelationship: the pair has no ACTIVE relation in its window
  - StatusZeroPoints: the computed or override points were not positive

Only store failures of the main update are returned as errors.

# Achievements

Detectors implement the Detector interface and are transition based, so each
achievement fires once per crossing:

  - streak_7_days: first activity of the day completes 7 distinct active days
  - intensive_day: the trailing 24h reaches exactly 15 activities
  - balanced_points: both sides within 20% of their average above 50 points
  - quick_responder: the 5th sub-60-minute reaction within 7 days
  - milestone: total crosses 50, 100, 200, 500 or 1000

The streak achievement awards its bonus through a second ApplyPoints call
keyed "streak:<relation>:<date>", split evenly between both users. Detector
failures are logged and dropped.
*/
package activity
