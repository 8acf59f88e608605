// Bondscore - Reciprocal Relationship Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bondscore

package events

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/bondscore/internal/metrics"
	"github.com/tomtom215/bondscore/internal/models"
)

// ErrClosed is returned when publishing on a closed dispatcher.
var ErrClosed = errors.New("dispatcher is closed")

// ErrNoSubscriber is returned by Subscribe when the backend cannot subscribe.
var ErrNoSubscriber = errors.New("dispatcher has no subscriber")

// Dispatcher delivers engine events to the configured transport.
// It is safe for concurrent use.
type Dispatcher struct {
	cfg      Config
	pub      message.Publisher
	sub      message.Subscriber
	breaker  *gobreaker.CircuitBreaker[struct{}]
	embedded *EmbeddedServer
	logger   zerolog.Logger
	closed   atomic.Bool
}

// New builds the transport described by cfg, starting an embedded NATS
// server when configured.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func New(cfg Config, logger zerolog.Logger) (*Dispatcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid events config: %w", err)
	}
	wmLogger := NewLoggerAdapter(logger.With().Str("component", "watermill").Logger())

	if cfg.Backend == BackendChannel {
		ch := gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer: cfg.ChannelBuffer,
		}, wmLogger)
		return NewDispatcher(cfg, ch, ch, logger)
	}

	var embedded *EmbeddedServer
	url := cfg.NATS.URL
	if cfg.NATS.Embedded {
		srv, err := StartEmbeddedServer(&cfg.NATS)
		if err != nil {
			return nil, err
		}
		embedded = srv
		url = srv.ClientURL()
	}

	pub, err := NewNATSPublisher(url, &cfg.NATS, wmLogger)
	if err != nil {
		shutdown(embedded)
		return nil, err
	}
	sub, err := NewNATSSubscriber(url, &cfg.NATS, wmLogger)
	if err != nil {
		_ = pub.Close()
		shutdown(embedded)
		return nil, err
	}

	d, err := NewDispatcher(cfg, pub, sub, logger)
	if err != nil {
		_ = pub.Close()
		_ = sub.Close()
		shutdown(embedded)
		return nil, err
	}
	d.embedded = embedded

	d.logger.Info().
		Str("url", url).
		Bool("embedded", cfg.NATS.Embedded).
		Bool("jetstream", cfg.NATS.JetStream).
		Msg("NATS event transport ready")
	return d, nil
}

// NewDispatcher wraps an existing publisher. sub may be nil.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewDispatcher(cfg Config, pub message.Publisher, sub message.Subscriber, logger zerolog.Logger) (*Dispatcher, error) {
	if pub == nil {
		return nil, errors.New("dispatcher requires a publisher")
	}
	if cfg.TopicPrefix == "" {
		cfg.TopicPrefix = DefaultConfig().TopicPrefix
	}
	if cfg.Breaker.Name == "" {
		cfg.Breaker = DefaultConfig().Breaker
	}
	logger = logger.With().Str("component", "events").Logger()
	return &Dispatcher{
		cfg:     cfg,
		pub:     pub,
		sub:     sub,
		breaker: NewCircuitBreaker(cfg.Breaker, logger),
		logger:  logger,
	}, nil
}

// Topic returns the topic an event type is published on.
func (d *Dispatcher) Topic(t models.EventType) string {
	return d.cfg.Topic(string(t))
}

// BreakerState returns the circuit breaker state name.
func (d *Dispatcher) BreakerState() string {
	return d.breaker.State().String()
}

// Publish delivers every event. A failed event does not stop the others;
// all failures are returned joined.
func (d *Dispatcher) Publish(ctx context.Context, evs ...models.Event) error {
	if d.closed.Load() {
		return ErrClosed
	}

	var errs []error
	for i := range evs {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := d.publish(ctx, &evs[i]); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (d *Dispatcher) publish(ctx context.Context, ev *models.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		metrics.RecordEventPublish(string(ev.Type), err)
		return fmt.Errorf("marshal event %s: %w", ev.ID, err)
	}

	msg := message.NewMessage(ev.ID, payload)
	msg.Metadata.Set("type", string(ev.Type))
	if ev.UserID != "" {
		msg.Metadata.Set("user_id", ev.UserID)
	}
	if ev.RelationID != "" {
		msg.Metadata.Set("relation_id", ev.RelationID)
	}
	msg.SetContext(ctx)

	topic := d.Topic(ev.Type)
	_, err = d.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, d.pub.Publish(topic, msg)
	})
	metrics.CircuitBreakerRequests.WithLabelValues(d.cfg.Breaker.Name, breakerResult(err)).Inc()
	metrics.RecordEventPublish(string(ev.Type), err)
	if err != nil {
		d.logger.Warn().Err(err).
			Str("event_id", ev.ID).
			Str("topic", topic).
			Msg("Failed to publish event")
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

// Subscribe returns the messages published for one event type.
func (d *Dispatcher) Subscribe(ctx context.Context, t models.EventType) (<-chan *message.Message, error) {
	if d.sub == nil {
		return nil, ErrNoSubscriber
	}
	return d.sub.Subscribe(ctx, d.Topic(t))
}

// Decode parses an event message.
func Decode(msg *message.Message) (models.Event, error) {
	var ev models.Event
	if err := json.Unmarshal(msg.Payload, &ev); err != nil {
		return models.Event{}, fmt.Errorf("decode event %s: %w", msg.UUID, err)
	}
	return ev, nil
}

// Close shuts the transport down. It is safe to call more than once.
func (d *Dispatcher) Close() error {
	if !d.closed.CompareAndSwap(false, true) {
		return nil
	}

	var errs []error
	if err := d.pub.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close publisher: %w", err))
	}
	if d.sub != nil && any(d.sub) != any(d.pub) {
		if err := d.sub.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close subscriber: %w", err))
		}
	}
	shutdown(d.embedded)
	return errors.Join(errs...)
}

func shutdown(s *EmbeddedServer) {
	if s != nil {
		s.Shutdown()
	}
}
