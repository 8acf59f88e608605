// Bondscore - Reciprocal Relationship Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bondscore

package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Level != "info" || cfg.Format != "json" {
		t.Errorf("DefaultConfig() = %s/%s, want info/json", cfg.Level, cfg.Format)
	}
	if cfg.Caller {
		t.Error("expected default caller to be false")
	}
	if !cfg.Timestamp {
		t.Error("expected default timestamp to be true")
	}
}

func TestInit(t *testing.T) {
	defer Init(DefaultConfig())

	tests := []struct {
		name    string
		cfg     Config
		emit    func()
		want    []string
		wantNot []string
	}{
		{
			name: "json info",
			cfg:  Config{Level: "info", Format: "json"},
			emit: func() { Info().Str("cycle_id", "2026-W42").Msg("Cycle started") },
			want: []string{`"level":"info"`, `"cycle_id":"2026-W42"`, `"message":"Cycle started"`},
		},
		{
			name:    "level filters info",
			cfg:     Config{Level: "warn", Format: "json"},
			emit:    func() { Info().Msg("hidden") },
			wantNot: []string{"hidden"},
		},
		{
			name: "console",
			cfg:  Config{Level: "debug", Format: "console"},
			emit: func() { Warn().Msg("console line") },
			want: []string{"console line", "WRN"},
		},
		{
			name: "caller",
			cfg:  Config{Level: "info", Format: "json", Caller: true},
			emit: func() { Info().Msg("with caller") },
			want: []string{`"caller":`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.cfg.Output = &buf
			Init(tt.cfg)
			tt.emit()

			out := buf.String()
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("output %q missing %q", out, w)
				}
			}
			for _, w := range tt.wantNot {
				if strings.Contains(out, w) {
					t.Errorf("output %q contains %q", out, w)
				}
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
		valid bool
	}{
		{"trace", zerolog.TraceLevel, true},
		{"debug", zerolog.DebugLevel, true},
		{"info", zerolog.InfoLevel, true},
		{"warn", zerolog.WarnLevel, true},
		{"warning", zerolog.WarnLevel, true},
		{"ERROR", zerolog.ErrorLevel, true},
		{" Warn ", zerolog.WarnLevel, true},
		{"disabled", zerolog.Disabled, true},
		{"verbose", zerolog.InfoLevel, false},
		{"", zerolog.InfoLevel, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseLevel(tt.input); got != tt.want {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
			if got := ValidLevel(tt.input); got != tt.valid {
				t.Errorf("ValidLevel(%q) = %v, want %v", tt.input, got, tt.valid)
			}
		})
	}
}

func TestWithComponent(t *testing.T) {
	defer Init(DefaultConfig())

	var buf bytes.Buffer
	Init(Config{Level: "info", Format: "json", Output: &buf})
	l := WithComponent("store")
	l.Info().Msg("opened")
	Error().Msg("failed")

	out := buf.String()
	for _, want := range []string{`"component":"store"`, "opened", `"level":"error"`} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
}

func TestSetLevelString(t *testing.T) {
	defer Init(DefaultConfig())

	var buf bytes.Buffer
	Init(Config{Level: "info", Format: "json", Output: &buf})
	SetLevelString("error")
	Warn().Msg("suppressed")
	SetLevelString("warning")
	Warn().Msg("shown")

	out := buf.String()
	if strings.Contains(out, "suppressed") || !strings.Contains(out, "shown") {
		t.Errorf("output %q, want only the second warning", out)
	}
}
