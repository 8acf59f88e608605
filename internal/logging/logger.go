// Bondscore - Reciprocal Relationship Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bondscore

package logging

import (
	"io"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Config holds logging configuration.
type Config struct {
	// Level is the minimum level: trace, debug, info, warn, error, fatal,
	// panic or disabled. Unknown names mean info.
	Level string `koanf:"level"`

	// Format is json or console.
	Format string `koanf:"format"`

	// Caller adds file:line to every entry.
	Caller bool `koanf:"caller"`

	// Timestamp adds the entry time.
	Timestamp bool `koanf:"timestamp"`

	// Output defaults to os.Stderr.
	Output io.Writer `koanf:"-"`
}

// DefaultConfig returns JSON at info level with timestamps on stderr.
func DefaultConfig() Config {
	return Config{
		Level:     "info",
		Format:    "json",
		Timestamp: true,
		Output:    os.Stderr,
	}
}

// root is the process-wide logger. Readers never block on Init.
var root atomic.Pointer[zerolog.Logger]

//nolint:gochecknoinits // logging must work before Init runs
func init() {
	Init(DefaultConfig())
}

// Init builds the global logger from cfg and sets the global level. It may
// be called again, for example after a configuration reload.
func Init(cfg Config) {
	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.TimestampFieldName = "time"
	zerolog.MessageFieldName = "message"
	zerolog.SetGlobalLevel(parseLevel(cfg.Level))

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if strings.EqualFold(cfg.Format, "console") {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}
	}

	ctx := zerolog.New(out).With()
	if cfg.Timestamp {
		ctx = ctx.Timestamp()
	}
	if cfg.Caller {
		ctx = ctx.Caller()
	}
	l := ctx.Logger()
	root.Store(&l)
}

// parseLevel maps a configured level name to zerolog, accepting "warning"
// and falling back to info.
func parseLevel(level string) zerolog.Level {
	name := strings.ToLower(strings.TrimSpace(level))
	if name == "warning" {
		name = "warn"
	}
	if name == "" {
		return zerolog.InfoLevel
	}
	l, err := zerolog.ParseLevel(name)
	if err != nil || l == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return l
}

// ValidLevel reports whether level names a zerolog level.
func ValidLevel(level string) bool {
	name := strings.ToLower(strings.TrimSpace(level))
	if name == "warning" {
		return true
	}
	l, err := zerolog.ParseLevel(name)
	return err == nil && name != "" && l != zerolog.NoLevel
}

// SetLevelString changes the global level without rebuilding the logger.
func SetLevelString(level string) {
	zerolog.SetGlobalLevel(parseLevel(level))
}

// Logger returns the global logger.
func Logger() zerolog.Logger {
	return *root.Load()
}

// WithComponent returns a child of the global logger tagged with component.
//
//	store.Open(cfg, logging.WithComponent("store"))
func WithComponent(component string) zerolog.Logger {
	return root.Load().With().Str("component", component).Logger()
}

// Info starts an info entry on the global logger.
func Info() *zerolog.Event { return root.Load().Info() }

// Warn starts a warning entry on the global logger.
func Warn() *zerolog.Event { return root.Load().Warn() }

// Error starts an error entry on the global logger.
func Error() *zerolog.Event { return root.Load().Error() }

// Fatal starts a fatal entry; the process exits after it is written.
func Fatal() *zerolog.Event { return root.Load().Fatal() }

// NewTestLogger returns a JSON logger writing to w.
func NewTestLogger(w io.Writer) zerolog.Logger {
	return zerolog.New(w).With().Timestamp().Logger()
}
