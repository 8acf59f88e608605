// Bondscore - Reciprocal Relationship Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bondscore

/*
Package supervisor provides process supervision for Bondscore using suture v4.

The tree organizes long-running services into three layers:

	Root ("bondscore")
	├── data-layer
	│   └── StoreGCService
	├── engine-layer
	│   └── CycleService
	└── api-layer
	    └── APIService

Each layer restarts its services independently, so a scheduler that keeps
failing backs off without taking the API down.

# Restart Policy

Crashed services are restarted by suture. After FailureThreshold failures
(decaying at FailureDecay per second) the supervisor waits FailureBackoff
before the next restart. On shutdown every service gets ShutdownTimeout to
return; stragglers are listed by UnstoppedServiceReport.

# Logging

Supervisor events go through sutureslog. The slog logger passed to NewTree
is normally logging.NewSlogLogger, which writes through zerolog:

	tree := supervisor.NewTree(
	    logging.NewSlogLogger(logging.WithComponent("supervisor")),
	    supervisor.DefaultTreeConfig(),
	)
	tree.AddDataService(services.NewStoreGCService(store.NewGarbageCollector(st)))
	tree.AddEngineService(services.NewCycleService(cycle.NewScheduler(runner, logger)))
	tree.AddAPIService(services.NewAPIService(server, 10*time.Second))
	err := tree.Serve(ctx)
*/
package supervisor
