// Bondscore - Reciprocal Relationship Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bondscore

package services

import (
	"context"
	"fmt"
)

// StartStopper matches background loops whose Stop blocks until the loop
// goroutine exits, such as *store.GarbageCollector.
type StartStopper interface {
	Start(ctx context.Context) error
	Stop()
}

// StoreGCService runs the Badger value log collector under supervision.
type StoreGCService struct {
	gc   StartStopper
	name string
}

// NewStoreGCService wraps gc.
//
//	tree.AddDataService(services.NewStoreGCService(store.NewGarbageCollector(st)))
func NewStoreGCService(gc StartStopper) *StoreGCService {
	return &StoreGCService{
		gc:   gc,
		name: "store-gc",
	}
}

// Serve implements suture.Service.
func (s *StoreGCService) Serve(ctx context.Context) error {
	if err := s.gc.Start(ctx); err != nil {
		return fmt.Errorf("store gc start failed: %w", err)
	}

	<-ctx.Done()

	s.gc.Stop()
	return ctx.Err()
}

// String implements fmt.Stringer.
func (s *StoreGCService) String() string {
	return s.name
}
