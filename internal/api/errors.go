// Bondscore - Reciprocal Relationship Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bondscore

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/tomtom215/bondscore/internal/activity"
	"github.com/tomtom215/bondscore/internal/cycle"
	"github.com/tomtom215/bondscore/internal/models"
	"github.com/tomtom215/bondscore/internal/nomination"
	"github.com/tomtom215/bondscore/internal/recommend"
	"github.com/tomtom215/bondscore/internal/store"
)

// Error codes for API responses
const (
	ErrCodeBadRequest         = "BAD_REQUEST"
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeConflict           = "CONFLICT"
	ErrCodeGone               = "GONE"
	ErrCodeLimitExceeded      = "LIMIT_EXCEEDED"
	ErrCodeCooldown           = "COOLDOWN"
	ErrCodeUnknownActivity    = "UNKNOWN_ACTIVITY"
	ErrCodeNoRelationship     = "NO_RELATIONSHIP"
	ErrCodeRefused            = "REFUSED"
	ErrCodeTooManyRequests    = "TOO_MANY_REQUESTS"
	ErrCodeInternalError      = "INTERNAL_ERROR"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	ErrCodeTimeout            = "TIMEOUT"
)

// reasonStatus maps a nomination refusal reason to an HTTP status and code.
func reasonStatus(reason models.Reason) (int, string) {
	switch reason {
	case models.ReasonSelfNomination, models.ReasonMissingUser, models.ReasonInvalidUser:
		return http.StatusBadRequest, ErrCodeBadRequest
	case models.ReasonMaxActiveNominations, models.ReasonDailyLimit:
		return http.StatusTooManyRequests, ErrCodeLimitExceeded
	case models.ReasonTargetCooldown, models.ReasonRejectionCooldown:
		return http.StatusTooManyRequests, ErrCodeCooldown
	case models.ReasonAlreadyPending, models.ReasonAlreadyActive,
		models.ReasonAlreadyNominatedCycle, models.ReasonAlreadyResolved:
		return http.StatusConflict, ErrCodeConflict
	case models.ReasonNominationExpired:
		return http.StatusGone, ErrCodeGone
	case models.ReasonNotFound:
		return http.StatusNotFound, ErrCodeNotFound
	case models.ReasonNotNominee, models.ReasonNotNominator:
		return http.StatusForbidden, ErrCodeForbidden
	case models.ReasonBypassUnauthorized:
		return http.StatusUnauthorized, ErrCodeUnauthorized
	default:
		return http.StatusUnprocessableEntity, ErrCodeRefused
	}
}

// activityStatus maps a processed interaction to an HTTP status. Outcomes
// that leave the relation untouched without being the caller's fault are
// reported as success.
func activityStatus(s activity.Status) (int, string) {
	switch s {
	case activity.StatusApplied:
		return http.StatusCreated, ""
	case activity.StatusDuplicate, activity.StatusZeroPoints:
		return http.StatusOK, ""
	case activity.StatusInvalid:
		return http.StatusBadRequest, ErrCodeBadRequest
	case activity.StatusUnknownActivity:
		return http.StatusBadRequest, ErrCodeUnknownActivity
	case activity.StatusNoRelationship:
		return http.StatusUnprocessableEntity, ErrCodeNoRelationship
	default:
		return http.StatusInternalServerError, ErrCodeInternalError
	}
}

// errorStatus maps a Go error returned by an engine component to an HTTP
// status and code.
func errorStatus(err error) (int, string) {
	if reason, ok := store.ReasonOf(err); ok {
		return reasonStatus(reason)
	}
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, ErrCodeNotFound
	case errors.Is(err, nomination.ErrBypassUnauthorized):
		return http.StatusUnauthorized, ErrCodeUnauthorized
	case errors.Is(err, recommend.ErrInvalidRequest),
		errors.Is(err, models.ErrMissingUser),
		errors.Is(err, models.ErrSelfPair),
		errors.Is(err, models.ErrInvalidUser):
		return http.StatusBadRequest, ErrCodeBadRequest
	case errors.Is(err, cycle.ErrRunInProgress), errors.Is(err, store.ErrInvalidTransition):
		return http.StatusConflict, ErrCodeConflict
	case errors.Is(err, store.ErrRetriesExhausted), errors.Is(err, store.ErrClosed):
		return http.StatusServiceUnavailable, ErrCodeServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, ErrCodeTimeout
	default:
		return http.StatusInternalServerError, ErrCodeInternalError
	}
}
