// Bondscore - Reciprocal Relationship Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bondscore

package logging

import (
	"strings"

	"github.com/rs/zerolog"
)

// AuditEvent is one privileged operation worth an audit line.
type AuditEvent struct {
	// Action names the operation, e.g. "bypass_nomination" or "cycle_trigger".
	Action string
	// ActorID is the user the operation acted for, if any.
	ActorID string
	// TargetID is the counterpart or object of the operation.
	TargetID  string
	IPAddress string
	// Token is the credential presented. Only a masked form is logged.
	Token   string
	Success bool
	Error   string
	Details map[string]string
}

// AuditLogger writes privileged operations with credentials masked.
type AuditLogger struct {
	logger zerolog.Logger
}

// NewAuditLogger creates an audit logger on top of logger.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewAuditLogger(logger zerolog.Logger) *AuditLogger {
	return &AuditLogger{
		logger: logger.With().Str("component", "audit").Logger(),
	}
}

// Log writes ev. Failures are logged at warn level.
func (l *AuditLogger) Log(ev *AuditEvent) {
	e := l.logger.Info()
	status := "success"
	if !ev.Success {
		e = l.logger.Warn()
		status = "failed"
	}
	e = e.Str("action", ev.Action).Str("status", status)

	if ev.ActorID != "" {
		e = e.Str("actor_id", ev.ActorID)
	}
	if ev.TargetID != "" {
		e = e.Str("target_id", ev.TargetID)
	}
	if ev.IPAddress != "" {
		e = e.Str("ip", ev.IPAddress)
	}
	if ev.Token != "" {
		e = e.Str("token", SanitizeToken(ev.Token))
	}
	if ev.Error != "" && !ev.Success {
		e = e.Str("error", SanitizeError(ev.Error))
	}
	for k, v := range ev.Details {
		e = e.Str(k, SanitizeValue(k, v))
	}
	e.Msg("audit")
}

// SanitizeToken masks a token, keeping only its first and last 4 characters.
func SanitizeToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 12 {
		return "***"
	}
	return token[:4] + "..." + token[len(token)-4:]
}

// SanitizeError hides error messages that mention credentials and truncates
// long ones.
func SanitizeError(err string) string {
	lower := strings.ToLower(err)
	for _, pattern := range []string{"password", "secret", "token", "bearer", "authorization"} {
		if strings.Contains(lower, pattern) {
			return "credential error"
		}
	}
	return truncateString(err, 200)
}

// sensitiveKeys are detail keys whose values are masked.
var sensitiveKeys = map[string]bool{
	"token":         true,
	"admin_token":   true,
	"authorization": true,
	"bearer":        true,
	"password":      true,
	"secret":        true,
	"api_key":       true,
}

// SanitizeValue masks value when key names a credential.
func SanitizeValue(key, value string) string {
	if sensitiveKeys[strings.ToLower(key)] {
		return SanitizeToken(value)
	}
	return truncateString(value, 200)
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
