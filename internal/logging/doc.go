// Bondscore - Reciprocal Relationship Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bondscore

// Package logging provides the process-wide zerolog logger.
//
// Components receive a zerolog.Logger at construction and derive their own
// child with a "component" field. The global logger configured by Init is
// the root of that tree:
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//	store, err := store.Open(cfg.Store, logging.WithComponent("store"))
//
// Request-scoped values travel in the context and are attached by Ctx:
//
//	ctx = logging.ContextWithRequestID(ctx, id)
//	logging.Ctx(ctx).Info().Msg("Recommendation served")
//
// SlogHandler adapts zerolog for libraries that log through log/slog, and
// AuditLogger records privileged operations with credentials masked.
//
// Always terminate log chains with .Msg() or .Send(); an unterminated event
// is never written.
package logging
