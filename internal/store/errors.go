// Bondscore - Reciprocal Relationship Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bondscore

package store

import (
	"errors"
	"fmt"

	"github.com/tomtom215/bondscore/internal/models"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateActiveRelation is returned when creating a relation for a
	// pair that already has a non-terminal relation.
	ErrDuplicateActiveRelation = errors.New("pair already has an open relation")

	// ErrInvalidTransition is returned for a lifecycle change the state
	// machine does not allow.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrRelationNotActive is returned when points are applied to a relation
	// that is not ACTIVE or whose validity window has passed.
	ErrRelationNotActive = errors.New("relation is not active")

	// ErrNotParticipant is returned when the acting user is not in the pair.
	ErrNotParticipant = errors.New("user is not part of the relation")

	// ErrInvalidPoints is returned for negative or non-finite deltas.
	ErrInvalidPoints = errors.New("invalid points delta")

	// ErrRetriesExhausted is returned when a transaction keeps conflicting.
	ErrRetriesExhausted = errors.New("transaction retries exhausted")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("store is closed")
)

// RefusalError reports a nomination transition or limit check that was
// refused for a specific, enumerable reason.
type RefusalError struct {
	Reason models.Reason
	Detail string
}

func (e *RefusalError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("nomination refused: %s (%s)", e.Reason, e.Detail)
	}
	return fmt.Sprintf("nomination refused: %s", e.Reason)
}

func refuse(reason models.Reason, format string, args ...any) *RefusalError {
	return &RefusalError{Reason: reason, Detail: fmt.Sprintf(format, args...)}
}

// ReasonOf extracts the refusal reason from err, if any.
func ReasonOf(err error) (models.Reason, bool) {
	var re *RefusalError
	if errors.As(err, &re) {
		return re.Reason, true
	}
	return models.ReasonNone, false
}
