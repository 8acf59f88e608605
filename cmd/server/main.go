// Bondscore - Reciprocal Relationship Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bondscore

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/bondscore/internal/activity"
	"github.com/tomtom215/bondscore/internal/api"
	"github.com/tomtom215/bondscore/internal/config"
	"github.com/tomtom215/bondscore/internal/cycle"
	"github.com/tomtom215/bondscore/internal/events"
	"github.com/tomtom215/bondscore/internal/logging"
	"github.com/tomtom215/bondscore/internal/metrics"
	"github.com/tomtom215/bondscore/internal/nomination"
	"github.com/tomtom215/bondscore/internal/recommend"
	"github.com/tomtom215/bondscore/internal/scoring"
	"github.com/tomtom215/bondscore/internal/signals"
	"github.com/tomtom215/bondscore/internal/store"
	"github.com/tomtom215/bondscore/internal/supervisor"
	"github.com/tomtom215/bondscore/internal/supervisor/services"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := run(); err != nil {
		logging.Fatal().Err(err).Msg("Bondscore stopped with an error")
	}
}

// components are the engine parts that own resources.
type components struct {
	store      *store.BadgerStore
	signals    *signals.DuckDBProvider
	dispatcher *events.Dispatcher
}

func (c *components) close() {
	if c.dispatcher != nil {
		if err := c.dispatcher.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing event transport")
		}
	}
	if c.signals != nil {
		if err := c.signals.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing signal database")
		}
	}
	if c.store != nil {
		if err := c.store.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing store")
		}
	}
}

//nolint:gocyclo // sequential startup wiring
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	logging.Init(cfg.LoggingConfig())
	metrics.RecordStartup(version, time.Now())
	logging.Info().
		Str("version", version).
		Str("addr", cfg.Server.Addr()).
		Str("store_path", cfg.Store.Path).
		Str("signals_path", cfg.Signals.Path).
		Str("events_backend", cfg.Events.Backend).
		Msg("Starting Bondscore")

	cycleCfg, err := cfg.CycleConfig()
	if err != nil {
		return fmt.Errorf("cycle configuration: %w", err)
	}

	comps := &components{}
	defer comps.close()

	comps.store, err = store.Open(cfg.StoreConfig(), logging.Logger())
	if err != nil {
		return err
	}

	comps.signals, err = signals.Open(cfg.SignalsConfig(), logging.Logger())
	if err != nil {
		return err
	}
	if !cfg.Signals.ReadOnly {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err = comps.signals.EnsureSchema(ctx)
		cancel()
		if err != nil {
			return fmt.Errorf("prepare signal schema: %w", err)
		}
	}

	comps.dispatcher, err = events.New(cfg.EventsConfig(), logging.Logger())
	if err != nil {
		return fmt.Errorf("start event transport: %w", err)
	}

	calc, err := scoring.NewCalculator(cfg.ScoringConfig())
	if err != nil {
		return fmt.Errorf("scoring configuration: %w", err)
	}
	processor, err := activity.NewProcessor(comps.store, calc, cfg.ActivityConfig(), logging.WithComponent("activity"))
	if err != nil {
		return err
	}
	nominations, err := nomination.NewManager(comps.store, cfg.NominationConfig(), logging.WithComponent("nomination"))
	if err != nil {
		return err
	}
	recCfg := cfg.RecommendConfig()
	recommender, err := recommend.NewRecommender(recCfg, comps.signals, comps.store, logging.WithComponent("recommend"))
	if err != nil {
		return err
	}
	runner, err := cycle.NewRunner(cycleCfg, comps.store, nominations, recommender, comps.signals, comps.dispatcher, logging.WithComponent("cycle"))
	if err != nil {
		return err
	}

	handler, err := api.NewHandler(api.Dependencies{
		Activities:  processor,
		Nominations: nominations,
		Relations:   comps.store,
		Recommender: recommender,
		Cycles:      runner,
		Publisher:   comps.dispatcher,
		Checks:      healthChecks(comps),
	}, logging.WithComponent("api"))
	if err != nil {
		return err
	}
	handler.DefaultFilters = recCfg.Filters

	middleware := api.NewChiMiddlewareFromServer(
		cfg.Server.CORSOrigins,
		cfg.Server.RateLimitRequests,
		cfg.Server.RateLimitWindow,
		cfg.Server.RateLimitDisabled,
	)
	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           api.NewRouter(handler, middleware),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}

	tree := supervisor.NewTree(
		logging.NewSlogLogger(logging.WithComponent("supervisor")),
		supervisor.DefaultTreeConfig(),
	)
	tree.AddDataService(services.NewStoreGCService(store.NewGarbageCollector(comps.store)))
	tree.AddEngineService(services.NewCycleService(cycle.NewScheduler(runner, logging.Logger())))
	tree.AddAPIService(services.NewAPIService(server, cfg.Server.ShutdownTimeout))

	watchConfig()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.Info().Str("addr", server.Addr).Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	var serveErr error
	select {
	case <-ctx.Done():
		logging.Info().Msg("Shutdown signal received, stopping services")
		serveErr = <-errCh
	case serveErr = <-errCh:
	}
	if serveErr != nil && !errors.Is(serveErr, context.Canceled) {
		return fmt.Errorf("supervisor tree: %w", serveErr)
	}

	if unstopped, err := tree.UnstoppedServiceReport(); err == nil {
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
		}
	}
	logging.Info().Msg("Bondscore stopped gracefully")
	return nil
}

func healthChecks(c *components) map[string]api.HealthCheck {
	return map[string]api.HealthCheck{
		"store": c.store.Ping,
		"signals": func(ctx context.Context) error {
			return c.signals.DB().PingContext(ctx)
		},
		"events": func(context.Context) error {
			if state := c.dispatcher.BreakerState(); state == "open" {
				return fmt.Errorf("publisher circuit breaker %s", state)
			}
			return nil
		},
	}
}

// watchConfig applies log level changes from the config file without a
// restart. Other settings take effect on the next start.
func watchConfig() {
	path := config.FindConfigFile()
	if path == "" {
		return
	}
	err := config.WatchConfigFile(path, func() {
		cfg, err := config.LoadFile(path)
		if err != nil {
			logging.Warn().Err(err).Str("path", path).Msg("Ignoring invalid configuration change")
			return
		}
		logging.SetLevelString(cfg.Logging.Level)
		logging.Info().Str("level", cfg.Logging.Level).Msg("Configuration file changed, log level applied")
	})
	if err != nil {
		logging.Warn().Err(err).Str("path", path).Msg("Config file watch unavailable")
	}
}
