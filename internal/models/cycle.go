// Bondscore - Reciprocal Relationship Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bondscore

package models

import "time"

// CycleRun records the outcome of one scheduled cycle execution.
type CycleRun struct {
	CycleID            string    `json:"cycle_id"`
	StartedAt          time.Time `json:"started_at"`
	FinishedAt         time.Time `json:"finished_at"`
	ExpiredNominations int       `json:"expired_nominations"`
	ExpiredRelations   int       `json:"expired_relations"`
	UsersProcessed     int       `json:"users_processed"`
	NominationsCreated int       `json:"nominations_created"`
	DuplicatesSkipped  int       `json:"duplicates_skipped"`
	LimitSkipped       int       `json:"limit_skipped"`
	RelationsRescored  int       `json:"relations_rescored"`
	Errors             int       `json:"errors"`
}

// Duration returns how long the run took.
func (r *CycleRun) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
