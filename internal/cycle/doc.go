// Bondscore - Reciprocal Relationship Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bondscore

/*
Package cycle runs the weekly matching cycle.

A cycle is identified by the ISO week of its scheduled start in the
configured location, for example "2026-W42". One run performs, in order:

 1. Expiry sweep: overdue PENDING nominations and ACTIVE relations whose
    validity window ended are moved to EXPIRED.
 2. Auto-nomination: every eligible user is nominated to their top
    recommendations, tagged with the cycle id. Per-user work runs on a
    bounded worker pool with its own timeout.
 3. Derived refresh: interaction frequency, compatibility score, common
    interests and mutual friends of every ACTIVE relation are recomputed.
 4. Bookkeeping: the run statistics are stored and a cycle.completed event
    is published.

Runs are idempotent per cycle id. The store refuses a second nomination of
the same pair within one cycle, so re-running a cycle only counts
duplicates. Only one run may be active per Runner.

The Scheduler checks the clock every CheckInterval, triggers the run when
the weekly slot is due and, on start, catches up a slot missed while the
process was down.
*/
package cycle
