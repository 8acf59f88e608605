// Bondscore - Reciprocal Relationship Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bondscore

package services

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
)

// errServerStopped reports that the API server returned while its service
// was still meant to run, so the supervisor restarts it.
var errServerStopped = errors.New("api server stopped unexpectedly")

// APIServer is the part of *http.Server the API service drives.
type APIServer interface {
	Serve(l net.Listener) error
	Shutdown(ctx context.Context) error
}

type listenFunc func(ctx context.Context, network, address string) (net.Listener, error)

// APIService runs the Bondscore HTTP API under supervision.
//
// The listener is bound inside Serve, so a bind failure is the service's
// error and a supervisor restart rebinds the address. On cancellation the
// server drains in-flight requests for up to the drain timeout.
//
//	tree.AddAPIService(services.NewAPIService(server, cfg.Server.ShutdownTimeout))
type APIService struct {
	server APIServer
	addr   string
	drain  time.Duration
	listen listenFunc
}

// NewAPIService serves server on server.Addr. A non-positive drain means 10s.
func NewAPIService(server *http.Server, drain time.Duration) *APIService {
	return newAPIService(server, server.Addr, drain, nil)
}

func newAPIService(server APIServer, addr string, drain time.Duration, listen listenFunc) *APIService {
	if drain <= 0 {
		drain = 10 * time.Second
	}
	if listen == nil {
		var lc net.ListenConfig
		listen = lc.Listen
	}
	return &APIService{server: server, addr: addr, drain: drain, listen: listen}
}

// Serve implements suture.Service. It returns ctx.Err() after a clean drain.
func (s *APIService) Serve(ctx context.Context) error {
	ln, err := s.listen(ctx, "tcp", s.addr)
	if err != nil {
		return fmt.Errorf("bind api listener %s: %w", s.addr, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := s.server.Serve(ln)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve api: %w", err)
		}
		if ctx.Err() == nil {
			return errServerStopped
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		drainCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.drain)
		defer cancel()
		if err := s.server.Shutdown(drainCtx); err != nil {
			return fmt.Errorf("drain api: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// String implements fmt.Stringer for supervisor logs.
func (s *APIService) String() string {
	return "api-server"
}
