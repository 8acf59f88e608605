// Bondscore - Reciprocal Relationship Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bondscore

/*
Package scoring converts one interaction and its metadata into points.

Everything in this package is a pure function of its inputs and the
injected Config. There is no storage access and no clock.

# Combination Law

The content-type multiplier scales only the base points. Every bonus is
additive:

	total = base * multiplier + speed + reciprocal + topic + consistency + time

Special activities (calls, meetups, milestones, streak bonuses) use a
fixed value instead of the base table and receive no bonuses, except the
per-minute extension for calls.

# Tiers

	WEAK         0 - 30
	MODERATE    31 - 60
	STRONG      61 - 90
	VERY_STRONG 91+

Fractional totals belong to the lower tier up to and including its
boundary (30.0 is WEAK, 30.5 is MODERATE).

# Point Split

SplitPolicy decides how much of a scored interaction each side receives.
The actor keeps the full amount by default; the counterpart receives a
smaller share that grows when the interaction is reciprocal.
*/
package scoring
