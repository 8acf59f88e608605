// Bondscore - Reciprocal Relationship Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bondscore

package events

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Backend names.
const (
	BackendChannel = "channel"
	BackendNATS    = "nats"
)

// Config holds dispatcher configuration.
type Config struct {
	// Backend selects the transport: "channel" (in-process) or "nats".
	Backend string

	// TopicPrefix is prepended to every event type: <prefix>.<type>.
	TopicPrefix string

	// ChannelBuffer is the per-subscriber buffer of the in-process backend.
	ChannelBuffer int64

	NATS    NATSConfig
	Breaker BreakerConfig
}

// NATSConfig configures the NATS transport.
type NATSConfig struct {
	// URL of the NATS server. Ignored when Embedded is set.
	URL string

	// Embedded starts an in-process NATS server and connects to it.
	Embedded bool
	Host     string
	// Port of the embedded server; -1 picks a random free port.
	Port     int
	StoreDir string

	// JetStream publishes through JetStream with stream auto-provisioning
	// instead of core NATS.
	JetStream bool

	// QueueGroup makes subscribers of the same topic share messages.
	QueueGroup string

	MaxReconnects int
	ReconnectWait time.Duration
}

// BreakerConfig configures the publish circuit breaker.
type BreakerConfig struct {
	Name             string
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold uint32
}

// DefaultConfig returns the default dispatcher configuration.
func DefaultConfig() Config {
	return Config{
		Backend:       BackendChannel,
		TopicPrefix:   "bondscore",
		ChannelBuffer: 256,
		NATS: NATSConfig{
			URL:           "nats://127.0.0.1:4222",
			Host:          "127.0.0.1",
			Port:          4222,
			StoreDir:      "/data/nats",
			MaxReconnects: -1,
			ReconnectWait: 2 * time.Second,
		},
		Breaker: BreakerConfig{
			Name:             "event-publisher",
			MaxRequests:      1,
			Interval:         time.Minute,
			Timeout:          30 * time.Second,
			FailureThreshold: 5,
		},
	}
}

// Validate checks the configuration, collecting every problem.
func (c *Config) Validate() error {
	var errs []error
	switch c.Backend {
	case BackendChannel, BackendNATS:
	default:
		errs = append(errs, fmt.Errorf("backend must be %q or %q, got %q", BackendChannel, BackendNATS, c.Backend))
	}
	if c.TopicPrefix == "" || strings.ContainsAny(c.TopicPrefix, " *>") {
		errs = append(errs, fmt.Errorf("topic prefix %q is not a valid subject token", c.TopicPrefix))
	}
	if c.ChannelBuffer < 0 {
		errs = append(errs, fmt.Errorf("channel buffer must not be negative, got %d", c.ChannelBuffer))
	}
	if c.Backend == BackendNATS && !c.NATS.Embedded && c.NATS.URL == "" {
		errs = append(errs, errors.New("nats url is required unless the embedded server is enabled"))
	}
	if c.Breaker.FailureThreshold == 0 {
		errs = append(errs, errors.New("breaker failure threshold must be positive"))
	}
	if c.Breaker.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("breaker timeout must be positive, got %v", c.Breaker.Timeout))
	}
	return errors.Join(errs...)
}

// Topic returns the topic events of type t are published on.
func (c *Config) Topic(t string) string {
	return c.TopicPrefix + "." + t
}
