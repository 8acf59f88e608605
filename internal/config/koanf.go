// Bondscore - Reciprocal Relationship Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bondscore

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/bondscore/config.yaml",
	"/etc/bondscore/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// envPrefix marks the generic environment overrides: BONDSCORE_CYCLE__HOUR
// sets cycle.hour. A double underscore separates path segments.
const envPrefix = "BONDSCORE_"

// Default returns the configuration used when no file or environment
// override is present.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:              "0.0.0.0",
			Port:              8080,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			ShutdownTimeout:   10 * time.Second,
			CORSOrigins:       []string{"*"},
			RateLimitRequests: 100,
			RateLimitWindow:   time.Minute,
		},
		Store: StoreConfig{
			Path:           "/data/bondscore",
			SyncWrites:     true,
			MaxRetries:     8,
			RetryBackoff:   2 * time.Millisecond,
			IdempotencyTTL: 72 * time.Hour,
			GCInterval:     10 * time.Minute,
			GCRatio:        0.5,
		},
		Relation: RelationConfig{
			Duration: 30 * 24 * time.Hour,
		},
		Signals: SignalsConfig{
			Path:         "/data/signals.duckdb",
			MaxMemory:    "1GB",
			QueryTimeout: 5 * time.Second,
		},
		Events: EventsConfig{
			Backend:       "channel",
			TopicPrefix:   "bondscore",
			ChannelBuffer: 256,
			NATS: EventsNATSConfig{
				URL:           "nats://127.0.0.1:4222",
				Host:          "127.0.0.1",
				Port:          4222,
				StoreDir:      "/data/nats",
				MaxReconnects: -1,
				ReconnectWait: 2 * time.Second,
			},
			Breaker: EventsBreakerConfig{
				MaxRequests:      1,
				Interval:         time.Minute,
				Timeout:          30 * time.Second,
				FailureThreshold: 5,
			},
		},
		Scoring: ScoringConfig{
			BasePoints: map[string]float64{
				"like":    1,
				"comment": 3,
				"share":   5,
				"view":    0.5,
				"save":    2,
			},
			SpecialPoints: map[string]float64{
				"voice_call":   8,
				"video_call":   10,
				"meetup":       15,
				"milestone":    20,
				"streak_bonus": 25,
			},
			ContentMultipliers: map[string]float64{
				"text":  1.0,
				"image": 1.2,
				"audio": 1.3,
				"video": 1.5,
			},
			CallMinutesPerPoint: 10,
			MaxCallBonus:        10,
			Split: SplitConfig{
				Actor:                 1.0,
				Counterpart:           0.3,
				ReciprocalCounterpart: 0.8,
			},
			Achievements: AchievementsConfig{
				StreakDays:           7,
				StreakBonus:          25,
				IntensiveCount:       15,
				IntensiveWindow:      24 * time.Hour,
				BalancedFloor:        50,
				BalancedRatio:        0.2,
				QuickResponseMinutes: 60,
				QuickResponderCount:  5,
				QuickResponderWindow: 7 * 24 * time.Hour,
				Milestones:           []float64{50, 100, 200, 500, 1000},
			},
		},
		Nomination: NominationConfig{
			MaxActive:         3,
			MaxPerDay:         5,
			TargetCooldown:    24 * time.Hour,
			RejectionCooldown: 7 * 24 * time.Hour,
			Expiry:            72 * time.Hour,
			MutualAutoAccept:  true,
		},
		Recommend: RecommendConfig{
			InterestWeight:          0.4,
			InteractionWeight:       0.4,
			MutualWeight:            0.2,
			VolumeCap:               50,
			HalfLife:                14 * 24 * time.Hour,
			MutualCap:               10,
			ExcludeRecentlyRejected: true,
			RejectionLookback:       30 * 24 * time.Hour,
			PoolSize:                500,
			DefaultLimit:            10,
			MaxLimit:                100,
			CacheEnabled:            true,
			CacheTTL:                time.Minute,
			CacheMaxEntries:         10000,
		},
		Cycle: CycleConfig{
			Enabled:            true,
			Weekday:            "monday",
			Hour:               9,
			Timezone:           "UTC",
			CheckInterval:      time.Minute,
			Workers:            8,
			UserTimeout:        30 * time.Second,
			NominationsPerUser: 1,
			ActivityWindow:     7 * 24 * time.Hour,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads the configuration from layered sources:
//  1. Defaults: Default()
//  2. Config File: optional YAML file (CONFIG_PATH or DefaultConfigPaths)
//  3. Environment Variables: mapped names such as HTTP_PORT, then the
//     generic BONDSCORE_<SECTION>__<KEY> form
//
// The result is validated before it is returned.
func Load() (*Config, error) {
	return load(FindConfigFile())
}

// LoadFile is Load with an explicit config file path. An empty path skips
// the file layer.
func LoadFile(path string) (*Config, error) {
	return load(path)
}

func load(configPath string) (*Config, error) {
	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional)
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: Environment variables, mapped names first so the explicit
	// BONDSCORE_ form wins when both are set.
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}
	if err := k.Load(env.Provider(envPrefix, ".", prefixedEnvKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load %s environment variables: %w", envPrefix, err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// FindConfigFile returns the config file Load would read, or "".
func FindConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths defines which config paths are parsed as comma-separated
// lists when they arrive as strings.
var sliceConfigPaths = []string{
	"server.cors_origins",
	"scoring.achievements.milestones",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// prefixedEnvKey maps BONDSCORE_RECOMMEND__CACHE_TTL to recommend.cache_ttl.
func prefixedEnvKey(key string) string {
	key = strings.TrimPrefix(key, envPrefix)
	return strings.ReplaceAll(strings.ToLower(key), "__", ".")
}

// envMappings maps conventional environment variable names to config
// paths.
var envMappings = map[string]string{
	// Server mappings
	"http_host":           "server.host",
	"http_port":           "server.port",
	"cors_origins":        "server.cors_origins",
	"rate_limit_requests": "server.rate_limit_requests",
	"rate_limit_window":   "server.rate_limit_window",
	"disable_rate_limit":  "server.rate_limit_disabled",

	// Store mappings
	"badger_path":        "store.path",
	"badger_in_memory":   "store.in_memory",
	"badger_sync_writes": "store.sync_writes",
	"relation_duration":  "relation.duration",

	// Signals mappings
	"duckdb_path":       "signals.path",
	"duckdb_max_memory": "signals.max_memory",
	"duckdb_threads":    "signals.threads",

	// Events mappings
	"events_backend":   "events.backend",
	"events_prefix":    "events.topic_prefix",
	"nats_url":         "events.nats.url",
	"nats_embedded":    "events.nats.embedded",
	"nats_port":        "events.nats.port",
	"nats_store_dir":   "events.nats.store_dir",
	"nats_jetstream":   "events.nats.jetstream",
	"nats_queue_group": "events.nats.queue_group",

	// Nomination mappings
	"admin_token":              "nomination.admin_token",
	"admin_token_hash":         "nomination.admin_token_hash",
	"nomination_max_active":    "nomination.max_active",
	"nomination_max_per_day":   "nomination.max_per_day",
	"nomination_expiry":        "nomination.expiry",
	"nomination_mutual_accept": "nomination.mutual_auto_accept",

	// Cycle mappings
	"cycle_enabled":   "cycle.enabled",
	"cycle_weekday":   "cycle.weekday",
	"cycle_hour":      "cycle.hour",
	"cycle_minute":    "cycle.minute",
	"cycle_timezone":  "cycle.timezone",
	"cycle_workers":   "cycle.workers",
	"cycle_user_rate": "cycle.user_rate",

	// Logging mappings
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc maps an environment variable name to its config path.
// Unmapped names return "" so unrelated variables never reach the config.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}

// WatchConfigFile calls callback whenever the file at path changes. The
// caller reloads and swaps the configuration under its own lock.
func WatchConfigFile(path string, callback func()) error {
	return file.Provider(path).Watch(func(_ interface{}, err error) {
		if err != nil {
			return
		}
		callback()
	})
}
