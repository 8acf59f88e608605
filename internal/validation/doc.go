// Bondscore - Reciprocal Relationship Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bondscore

// Package validation provides struct validation using go-playground/validator v10.
//
// A single validator instance is shared by the whole process. Field names in
// errors are the JSON names of the request fields, so messages can be shown
// to API clients as they are.
//
// # Custom Tags
//
//   - userid: non-empty user identifier without ':' or '|'
//   - cycleid: ISO week identifier such as 2026-W42
//
// # Usage
//
//	type NominateRequest struct {
//	    NominatorID string `json:"nominator_id" validate:"required,userid"`
//	    NomineeID   string `json:"nominee_id" validate:"required,userid"`
//	}
//
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    apiErr := verr.ToAPIError()
//	    respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
//	    return
//	}
package validation
