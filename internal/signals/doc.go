// Bondscore - Reciprocal Relationship Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bondscore

/*
Package signals provides read access to the profile signals the recommender
scores candidates with: declared interests, pairwise interaction history,
the connection graph and the set of users eligible for a cycle.

The Provider interface is the only contract the engine depends on.
DuckDBProvider implements it over four tables:

	users(user_id, active)
	user_interests(user_id, interest)
	interactions(user_id, other_id, occurred_at)
	connections(user_id, other_id)

Connections are treated as undirected. Interactions are directed: user_id
is the sender and other_id the receiver.

Every query runs under the configured query timeout and is recorded in the
bondscore_db_query_duration_seconds histogram.

Example:

	p, err := signals.Open(signals.Config{Path: "/data/signals.duckdb"}, logger)
	if err != nil {
		return err
	}
	defer p.Close()

	pool, err := p.CandidatePool(ctx, "user-1", 200)
*/
package signals
