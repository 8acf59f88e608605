// Bondscore - Reciprocal Relationship Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bondscore

package models

import "time"

// APIResponse is the envelope written by every HTTP endpoint.
//
// Status field values:
//   - "success": Request completed successfully, see Data field
//   - "error": Request failed, see Error field for details
//
// Example error response:
//
//	{
//	  "status": "error",
//	  "error": {
//	    "code": "LIMIT_EXCEEDED",
//	    "message": "nomination refused",
//	    "details": {"reason": "daily_limit"}
//	  },
//	  "meta": {"timestamp": "2026-10-12T09:00:00Z"}
//	}
type APIResponse struct {
	Status string       `json:"status"`
	Data   interface{}  `json:"data"`
	Meta   ResponseMeta `json:"meta"`
	Error  *APIError    `json:"error,omitempty"`
}

// ResponseMeta carries response timing information.
type ResponseMeta struct {
	RequestID   string    `json:"request_id,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
}

// APIError is the structured error body of a failed request.
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
