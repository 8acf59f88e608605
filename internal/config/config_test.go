// Bondscore - Reciprocal Relationship Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bondscore

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/bondscore/internal/models"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default().Validate() error = %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr []string
	}{
		{
			name:    "bad port",
			mutate:  func(c *Config) { c.Server.Port = 0 },
			wantErr: []string{"server: port must be 1-65535"},
		},
		{
			name:    "rate limit ignored when disabled",
			mutate:  func(c *Config) { c.Server.RateLimitDisabled = true; c.Server.RateLimitRequests = 0 },
			wantErr: nil,
		},
		{
			name:    "store path",
			mutate:  func(c *Config) { c.Store.Path = "" },
			wantErr: []string{"store: store path is required"},
		},
		{
			name:    "in-memory store needs no path",
			mutate:  func(c *Config) { c.Store.Path = ""; c.Store.InMemory = true },
			wantErr: nil,
		},
		{
			name:    "relation duration",
			mutate:  func(c *Config) { c.Relation.Duration = -time.Hour },
			wantErr: []string{"store: relation duration must be positive"},
		},
		{
			name:    "admin token too long",
			mutate:  func(c *Config) { c.Nomination.AdminToken = strings.Repeat("x", 73) },
			wantErr: []string{"nomination: admin_token must be at most 72 bytes"},
		},
		{
			name:    "events backend",
			mutate:  func(c *Config) { c.Events.Backend = "kafka" },
			wantErr: []string{"events: backend must be"},
		},
		{
			name:    "negative points",
			mutate:  func(c *Config) { c.Scoring.BasePoints["like"] = -1 },
			wantErr: []string{"scoring: base points for \"like\""},
		},
		{
			name:    "nomination limits",
			mutate:  func(c *Config) { c.Nomination.MaxPerDay = 0 },
			wantErr: []string{"nomination: max nominations per day"},
		},
		{
			name:    "cycle weekday",
			mutate:  func(c *Config) { c.Cycle.Weekday = "someday" },
			wantErr: []string{"cycle: invalid weekday"},
		},
		{
			name:    "cycle timezone",
			mutate:  func(c *Config) { c.Cycle.Timezone = "Mars/Olympus" },
			wantErr: []string{"cycle: invalid cycle timezone"},
		},
		{
			name:    "logging",
			mutate:  func(c *Config) { c.Logging.Level = "loud"; c.Logging.Format = "xml" },
			wantErr: []string{"logging: unknown level", "format must be json or console"},
		},
		{
			name: "collects every section",
			mutate: func(c *Config) {
				c.Server.Port = 70000
				c.Recommend.VolumeCap = 0
				c.Cycle.Hour = 24
			},
			wantErr: []string{"server:", "recommend: volume_cap", "cycle: hour must be 0-23"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if len(tt.wantErr) == 0 {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Validate() error = nil, want error")
			}
			for _, want := range tt.wantErr {
				if !strings.Contains(err.Error(), want) {
					t.Errorf("Validate() error = %q, missing %q", err, want)
				}
			}
		})
	}
}

func TestConversions(t *testing.T) {
	cfg := Default()
	cfg.Relation.Duration = 14 * 24 * time.Hour
	cfg.Scoring.BasePoints = map[string]float64{"Comment": 4}
	cfg.Cycle.Weekday = "fri"
	cfg.Cycle.Timezone = "Asia/Tokyo"

	if got := cfg.StoreConfig().RelationDuration; got != 14*24*time.Hour {
		t.Errorf("StoreConfig().RelationDuration = %v", got)
	}

	sc := cfg.ScoringConfig()
	if sc.BasePoints[models.ActivityComment] != 4 {
		t.Errorf("comment points = %v, want 4", sc.BasePoints[models.ActivityComment])
	}
	if sc.BasePoints[models.ActivityLike] != 1 {
		t.Errorf("like points = %v, want the built-in 1", sc.BasePoints[models.ActivityLike])
	}

	cc, err := cfg.CycleConfig()
	if err != nil {
		t.Fatalf("CycleConfig() error = %v", err)
	}
	if cc.Weekday != time.Friday || cc.Location.String() != "Asia/Tokyo" {
		t.Errorf("CycleConfig() = %v in %v, want Friday in Asia/Tokyo", cc.Weekday, cc.Location)
	}

	nc := cfg.NominationConfig()
	if nc.Limits != models.DefaultLimits() || !nc.MutualAutoAccept {
		t.Errorf("NominationConfig() = %+v, want default limits with auto-accept", nc)
	}

	rc := cfg.RecommendConfig()
	if rc.Weights.Interests != 0.4 || rc.Cache.MaxEntries != 10000 {
		t.Errorf("RecommendConfig() = %+v", rc)
	}

	if ec := cfg.EventsConfig(); ec.Breaker.Name == "" {
		t.Error("EventsConfig() lost the breaker name")
	}
	if addr := cfg.Server.Addr(); addr != "0.0.0.0:8080" {
		t.Errorf("Addr() = %q", addr)
	}
}

func TestParseWeekday(t *testing.T) {
	tests := []struct {
		in   string
		want time.Weekday
		ok   bool
	}{
		{"monday", time.Monday, true},
		{"Sunday", time.Sunday, true},
		{" SAT ", time.Saturday, true},
		{"wed", time.Wednesday, true},
		{"mo", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, err := parseWeekday(tt.in)
		if (err == nil) != tt.ok || got != tt.want {
			t.Errorf("parseWeekday(%q) = %v, %v; want %v, ok=%v", tt.in, got, err, tt.want, tt.ok)
		}
	}
}

func TestLoadLayers(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
server:
  port: 9090
store:
  in_memory: true
scoring:
  split:
    counterpart: 0.5
cycle:
  weekday: friday
  hour: 18
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("HTTP_PORT", "9191")
	t.Setenv("BONDSCORE_RECOMMEND__CACHE_TTL", "5m")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"env beats file", cfg.Server.Port, 9191},
		{"file value", cfg.Store.InMemory, true},
		{"nested file value", cfg.Scoring.Split.Counterpart, 0.5},
		{"default kept", cfg.Scoring.Split.Actor, 1.0},
		{"cycle weekday", cfg.Cycle.Weekday, "friday"},
		{"cycle hour", cfg.Cycle.Hour, 18},
		{"mapped env", cfg.Logging.Level, "debug"},
		{"prefixed env", cfg.Recommend.CacheTTL, 5 * time.Minute},
		{"default duration", cfg.Nomination.Expiry, 72 * time.Hour},
		{"slice env", len(cfg.Server.CORSOrigins), 2},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Setenv("CYCLE_HOUR", "25")
	if _, err := LoadFile(""); err == nil {
		t.Fatal("LoadFile() error = nil, want validation error")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("LoadFile() error = nil, want error for missing file")
	}
}

func TestEnvTransform(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"HTTP_PORT", "server.port"},
		{"ADMIN_TOKEN", "nomination.admin_token"},
		{"ADMIN_TOKEN_HASH", "nomination.admin_token_hash"},
		{"PATH", ""},
	}
	for _, tt := range tests {
		if got := envTransformFunc(tt.key); got != tt.want {
			t.Errorf("envTransformFunc(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
	if got := prefixedEnvKey("BONDSCORE_EVENTS__NATS__QUEUE_GROUP"); got != "events.nats.queue_group" {
		t.Errorf("prefixedEnvKey() = %q", got)
	}
}
