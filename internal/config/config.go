// Bondscore - Reciprocal Relationship Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bondscore

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/bondscore/internal/activity"
	"github.com/tomtom215/bondscore/internal/cycle"
	"github.com/tomtom215/bondscore/internal/events"
	"github.com/tomtom215/bondscore/internal/logging"
	"github.com/tomtom215/bondscore/internal/models"
	"github.com/tomtom215/bondscore/internal/nomination"
	"github.com/tomtom215/bondscore/internal/recommend"
	"github.com/tomtom215/bondscore/internal/scoring"
	"github.com/tomtom215/bondscore/internal/signals"
	"github.com/tomtom215/bondscore/internal/store"
)

// Config is the complete process configuration. Each section converts to
// the configuration type of the package it drives.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Store      StoreConfig      `koanf:"store"`
	Relation   RelationConfig   `koanf:"relation"`
	Signals    SignalsConfig    `koanf:"signals"`
	Events     EventsConfig     `koanf:"events"`
	Scoring    ScoringConfig    `koanf:"scoring"`
	Nomination NominationConfig `koanf:"nomination"`
	Recommend  RecommendConfig  `koanf:"recommend"`
	Cycle      CycleConfig      `koanf:"cycle"`
	Logging    LoggingConfig    `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port"`

	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	CORSOrigins []string `koanf:"cors_origins"`

	// Requests allowed per client IP within RateLimitWindow.
	RateLimitRequests int           `koanf:"rate_limit_requests"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// StoreConfig holds BadgerDB settings.
type StoreConfig struct {
	Path           string        `koanf:"path"`
	InMemory       bool          `koanf:"in_memory"`
	SyncWrites     bool          `koanf:"sync_writes"`
	MaxRetries     int           `koanf:"max_retries"`
	RetryBackoff   time.Duration `koanf:"retry_backoff"`
	IdempotencyTTL time.Duration `koanf:"idempotency_ttl"`
	GCInterval     time.Duration `koanf:"gc_interval"`
	GCRatio        float64       `koanf:"gc_ratio"`
}

// RelationConfig holds relation lifecycle settings.
type RelationConfig struct {
	// Duration is the validity window of an ACTIVE relation.
	Duration time.Duration `koanf:"duration"`
}

// SignalsConfig holds the DuckDB signal database settings.
type SignalsConfig struct {
	Path         string        `koanf:"path"`
	Threads      int           `koanf:"threads"`
	MaxMemory    string        `koanf:"max_memory"`
	QueryTimeout time.Duration `koanf:"query_timeout"`
	ReadOnly     bool          `koanf:"read_only"`
}

// EventsConfig holds outbound event transport settings.
type EventsConfig struct {
	Backend       string              `koanf:"backend"`
	TopicPrefix   string              `koanf:"topic_prefix"`
	ChannelBuffer int64               `koanf:"channel_buffer"`
	NATS          EventsNATSConfig    `koanf:"nats"`
	Breaker       EventsBreakerConfig `koanf:"breaker"`
}

// EventsNATSConfig holds NATS settings.
type EventsNATSConfig struct {
	URL           string        `koanf:"url"`
	Embedded      bool          `koanf:"embedded"`
	Host          string        `koanf:"host"`
	Port          int           `koanf:"port"`
	StoreDir      string        `koanf:"store_dir"`
	JetStream     bool          `koanf:"jetstream"`
	QueueGroup    string        `koanf:"queue_group"`
	MaxReconnects int           `koanf:"max_reconnects"`
	ReconnectWait time.Duration `koanf:"reconnect_wait"`
}

// EventsBreakerConfig holds the publisher circuit breaker settings.
type EventsBreakerConfig struct {
	MaxRequests      uint32        `koanf:"max_requests"`
	Interval         time.Duration `koanf:"interval"`
	Timeout          time.Duration `koanf:"timeout"`
	FailureThreshold uint32        `koanf:"failure_threshold"`
}

// ScoringConfig holds point values, the split policy and achievement
// thresholds.
type ScoringConfig struct {
	BasePoints          map[string]float64 `koanf:"base_points"`
	SpecialPoints       map[string]float64 `koanf:"special_points"`
	ContentMultipliers  map[string]float64 `koanf:"content_multipliers"`
	CallMinutesPerPoint float64            `koanf:"call_minutes_per_point"`
	MaxCallBonus        float64            `koanf:"max_call_bonus"`
	Split               SplitConfig        `koanf:"split"`
	Achievements        AchievementsConfig `koanf:"achievements"`
}

// SplitConfig is each side's share of scored points.
type SplitConfig struct {
	Actor                 float64 `koanf:"actor"`
	Counterpart           float64 `koanf:"counterpart"`
	ReciprocalCounterpart float64 `koanf:"reciprocal_counterpart"`
}

// AchievementsConfig holds achievement detection thresholds.
type AchievementsConfig struct {
	StreakDays           int           `koanf:"streak_days"`
	StreakBonus          float64       `koanf:"streak_bonus"`
	IntensiveCount       int           `koanf:"intensive_count"`
	IntensiveWindow      time.Duration `koanf:"intensive_window"`
	BalancedFloor        float64       `koanf:"balanced_floor"`
	BalancedRatio        float64       `koanf:"balanced_ratio"`
	QuickResponseMinutes float64       `koanf:"quick_response_minutes"`
	QuickResponderCount  int           `koanf:"quick_responder_count"`
	QuickResponderWindow time.Duration `koanf:"quick_responder_window"`
	Milestones           []float64     `koanf:"milestones"`
}

// NominationConfig holds nomination limits.
type NominationConfig struct {
	MaxActive         int           `koanf:"max_active"`
	MaxPerDay         int           `koanf:"max_per_day"`
	TargetCooldown    time.Duration `koanf:"target_cooldown"`
	RejectionCooldown time.Duration `koanf:"rejection_cooldown"`
	Expiry            time.Duration `koanf:"expiry"`
	MutualAutoAccept  bool          `koanf:"mutual_auto_accept"`

	// AdminToken unlocks the bypass endpoint. Empty disables bypass.
	AdminToken string `koanf:"admin_token"`
	// AdminTokenHash is a bcrypt hash used instead of AdminToken.
	AdminTokenHash string `koanf:"admin_token_hash"`
}

// RecommendConfig holds recommender settings.
type RecommendConfig struct {
	InterestWeight    float64 `koanf:"interest_weight"`
	InteractionWeight float64 `koanf:"interaction_weight"`
	MutualWeight      float64 `koanf:"mutual_weight"`

	VolumeCap int           `koanf:"volume_cap"`
	HalfLife  time.Duration `koanf:"half_life"`
	MutualCap int           `koanf:"mutual_cap"`

	ExcludeRecentlyRejected  bool          `koanf:"exclude_recently_rejected"`
	RejectionLookback        time.Duration `koanf:"rejection_lookback"`
	RequireMutualInteraction bool          `koanf:"require_mutual_interaction"`
	MinScore                 float64       `koanf:"min_score"`

	PoolSize     int `koanf:"pool_size"`
	DefaultLimit int `koanf:"default_limit"`
	MaxLimit     int `koanf:"max_limit"`

	CacheEnabled    bool          `koanf:"cache_enabled"`
	CacheTTL        time.Duration `koanf:"cache_ttl"`
	CacheMaxEntries int           `koanf:"cache_max_entries"`
}

// CycleConfig holds the weekly cycle settings.
type CycleConfig struct {
	Enabled bool `koanf:"enabled"`
	// Weekday is an English day name, e.g. "monday".
	Weekday string `koanf:"weekday"`
	Hour    int    `koanf:"hour"`
	Minute  int    `koanf:"minute"`
	// Timezone is an IANA zone name.
	Timezone           string        `koanf:"timezone"`
	CheckInterval      time.Duration `koanf:"check_interval"`
	Workers            int           `koanf:"workers"`
	UserTimeout        time.Duration `koanf:"user_timeout"`
	UserRate           float64       `koanf:"user_rate"`
	NominationsPerUser int           `koanf:"nominations_per_user"`
	ActivityWindow     time.Duration `koanf:"activity_window"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// StoreConfig converts the store and relation sections.
func (c *Config) StoreConfig() store.Config {
	cfg := store.DefaultConfig()
	cfg.Path = c.Store.Path
	cfg.InMemory = c.Store.InMemory
	cfg.SyncWrites = c.Store.SyncWrites
	cfg.MaxRetries = c.Store.MaxRetries
	cfg.RetryBackoff = c.Store.RetryBackoff
	cfg.IdempotencyTTL = c.Store.IdempotencyTTL
	cfg.GCInterval = c.Store.GCInterval
	cfg.GCRatio = c.Store.GCRatio
	cfg.RelationDuration = c.Relation.Duration
	return cfg
}

// SignalsConfig converts the signals section.
func (c *Config) SignalsConfig() signals.Config {
	return signals.Config{
		Path:         c.Signals.Path,
		Threads:      c.Signals.Threads,
		MaxMemory:    c.Signals.MaxMemory,
		QueryTimeout: c.Signals.QueryTimeout,
		ReadOnly:     c.Signals.ReadOnly,
	}
}

// EventsConfig converts the events section.
func (c *Config) EventsConfig() events.Config {
	cfg := events.DefaultConfig()
	cfg.Backend = c.Events.Backend
	cfg.TopicPrefix = c.Events.TopicPrefix
	cfg.ChannelBuffer = c.Events.ChannelBuffer
	cfg.NATS = events.NATSConfig{
		URL:           c.Events.NATS.URL,
		Embedded:      c.Events.NATS.Embedded,
		Host:          c.Events.NATS.Host,
		Port:          c.Events.NATS.Port,
		StoreDir:      c.Events.NATS.StoreDir,
		JetStream:     c.Events.NATS.JetStream,
		QueueGroup:    c.Events.NATS.QueueGroup,
		MaxReconnects: c.Events.NATS.MaxReconnects,
		ReconnectWait: c.Events.NATS.ReconnectWait,
	}
	cfg.Breaker.MaxRequests = c.Events.Breaker.MaxRequests
	cfg.Breaker.Interval = c.Events.Breaker.Interval
	cfg.Breaker.Timeout = c.Events.Breaker.Timeout
	cfg.Breaker.FailureThreshold = c.Events.Breaker.FailureThreshold
	return cfg
}

// ScoringConfig converts the scoring section into the calculator
// configuration. Configured point tables overlay the built-in ones, so a
// file may override a single entry.
func (c *Config) ScoringConfig() scoring.Config {
	cfg := scoring.DefaultConfig()
	cfg.CallMinutesPerPoint = c.Scoring.CallMinutesPerPoint
	cfg.MaxCallBonus = c.Scoring.MaxCallBonus
	cfg.Split = scoring.SplitPolicy{
		Actor:                 c.Scoring.Split.Actor,
		Counterpart:           c.Scoring.Split.Counterpart,
		ReciprocalCounterpart: c.Scoring.Split.ReciprocalCounterpart,
	}
	for k, v := range c.Scoring.BasePoints {
		cfg.BasePoints[models.ActivityType(strings.ToLower(k))] = v
	}
	for k, v := range c.Scoring.SpecialPoints {
		cfg.SpecialPoints[models.ActivityType(strings.ToLower(k))] = v
	}
	for k, v := range c.Scoring.ContentMultipliers {
		cfg.ContentMultipliers[models.ContentType(strings.ToLower(k))] = v
	}
	return cfg
}

// ActivityConfig converts the achievement thresholds.
func (c *Config) ActivityConfig() activity.Config {
	a := c.Scoring.Achievements
	return activity.Config{
		StreakDays:           a.StreakDays,
		StreakBonus:          a.StreakBonus,
		IntensiveCount:       a.IntensiveCount,
		IntensiveWindow:      a.IntensiveWindow,
		BalancedFloor:        a.BalancedFloor,
		BalancedRatio:        a.BalancedRatio,
		QuickResponseMinutes: a.QuickResponseMinutes,
		QuickResponderCount:  a.QuickResponderCount,
		QuickResponderWindow: a.QuickResponderWindow,
		Milestones:           append([]float64(nil), a.Milestones...),
	}
}

// NominationConfig converts the nomination section.
func (c *Config) NominationConfig() nomination.Config {
	return nomination.Config{
		Limits: models.Limits{
			MaxActiveNominations: c.Nomination.MaxActive,
			MaxPerDay:            c.Nomination.MaxPerDay,
			TargetCooldown:       c.Nomination.TargetCooldown,
			RejectionCooldown:    c.Nomination.RejectionCooldown,
			Expiry:               c.Nomination.Expiry,
		},
		AdminToken:       c.Nomination.AdminToken,
		AdminTokenHash:   c.Nomination.AdminTokenHash,
		MutualAutoAccept: c.Nomination.MutualAutoAccept,
	}
}

// RecommendConfig converts the recommend section.
func (c *Config) RecommendConfig() *recommend.Config {
	r := c.Recommend
	return &recommend.Config{
		Weights: recommend.Weights{
			Interests:   r.InterestWeight,
			Interaction: r.InteractionWeight,
			Mutual:      r.MutualWeight,
		},
		VolumeCap: r.VolumeCap,
		HalfLife:  r.HalfLife,
		MutualCap: r.MutualCap,
		Filters: recommend.Filters{
			ExcludeRecentlyRejected:  r.ExcludeRecentlyRejected,
			RejectionLookback:        r.RejectionLookback,
			RequireMutualInteraction: r.RequireMutualInteraction,
			MinScore:                 r.MinScore,
		},
		Limits: recommend.LimitsConfig{
			PoolSize:     r.PoolSize,
			DefaultLimit: r.DefaultLimit,
			MaxLimit:     r.MaxLimit,
		},
		Cache: recommend.CacheConfig{
			Enabled:    r.CacheEnabled,
			TTL:        r.CacheTTL,
			MaxEntries: r.CacheMaxEntries,
		},
	}
}

// CycleConfig converts the cycle section. Weekday and timezone must have
// passed Validate.
func (c *Config) CycleConfig() (cycle.Config, error) {
	weekday, err := parseWeekday(c.Cycle.Weekday)
	if err != nil {
		return cycle.Config{}, err
	}
	loc, err := time.LoadLocation(c.Cycle.Timezone)
	if err != nil {
		return cycle.Config{}, fmt.Errorf("invalid cycle timezone %q: %w", c.Cycle.Timezone, err)
	}
	return cycle.Config{
		Enabled:            c.Cycle.Enabled,
		Weekday:            weekday,
		Hour:               c.Cycle.Hour,
		Minute:             c.Cycle.Minute,
		Location:           loc,
		CheckInterval:      c.Cycle.CheckInterval,
		Workers:            c.Cycle.Workers,
		UserTimeout:        c.Cycle.UserTimeout,
		UserRate:           c.Cycle.UserRate,
		NominationsPerUser: c.Cycle.NominationsPerUser,
		ActivityWindow:     c.Cycle.ActivityWindow,
	}, nil
}

// LoggingConfig converts the logging section.
func (c *Config) LoggingConfig() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = c.Logging.Level
	cfg.Format = c.Logging.Format
	cfg.Caller = c.Logging.Caller
	return cfg
}

// parseWeekday accepts full or three-letter English day names.
func parseWeekday(s string) (time.Weekday, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for d := time.Sunday; d <= time.Saturday; d++ {
		full := strings.ToLower(d.String())
		if name == full || name == full[:3] {
			return d, nil
		}
	}
	return 0, fmt.Errorf("invalid weekday %q", s)
}
