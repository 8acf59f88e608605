// Bondscore - Reciprocal Relationship Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bondscore

package supervisor

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/bondscore/internal/logging"
)

// testService runs until canceled, optionally failing its first starts.
type testService struct {
	name     string
	failures int32
	starts   atomic.Int32
}

func (s *testService) Serve(ctx context.Context) error {
	n := s.starts.Add(1)
	if n <= s.failures {
		return errors.New("simulated failure")
	}
	<-ctx.Done()
	return ctx.Err()
}

func (s *testService) String() string { return s.name }

// syncBuffer guards a buffer written by the supervisor goroutines.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func quietLogger() *slog.Logger {
	return logging.NewSlogLogger(logging.NewTestLogger(&syncBuffer{}))
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met within 2s")
}

func TestNewTreeDefaults(t *testing.T) {
	t.Parallel()

	tree := NewTree(quietLogger(), TreeConfig{FailureBackoff: time.Second})
	got := tree.Config()
	want := DefaultTreeConfig()

	if got.FailureThreshold != want.FailureThreshold || got.FailureDecay != want.FailureDecay {
		t.Errorf("failure params = %v/%v, want defaults", got.FailureThreshold, got.FailureDecay)
	}
	if got.FailureBackoff != time.Second {
		t.Errorf("FailureBackoff = %v, explicit value should be kept", got.FailureBackoff)
	}
	if got.ShutdownTimeout != want.ShutdownTimeout {
		t.Errorf("ShutdownTimeout = %v, want %v", got.ShutdownTimeout, want.ShutdownTimeout)
	}
	if tree.Root() == nil {
		t.Error("root supervisor is nil")
	}
}

func TestTreeStartsEveryLayer(t *testing.T) {
	t.Parallel()

	tree := NewTree(quietLogger(), TreeConfig{ShutdownTimeout: time.Second})

	tests := []struct {
		name string
		add  func(suture.Service) suture.ServiceToken
	}{
		{"data", tree.AddDataService},
		{"engine", tree.AddEngineService},
		{"api", tree.AddAPIService},
	}
	svcs := make([]*testService, len(tests))
	for i, tt := range tests {
		svcs[i] = &testService{name: tt.name}
		tt.add(svcs[i])
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := tree.ServeBackground(ctx)

	for _, svc := range svcs {
		waitFor(t, func() bool { return svc.starts.Load() >= 1 })
	}

	cancel()
	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() error = %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("tree did not stop")
	}

	report, err := tree.UnstoppedServiceReport()
	if err != nil {
		t.Fatal(err)
	}
	if len(report) != 0 {
		t.Errorf("unstopped services: %v", report)
	}
}

func TestTreeRestartsFailingService(t *testing.T) {
	t.Parallel()

	buf := &syncBuffer{}
	logger := logging.NewSlogLogger(logging.NewTestLogger(buf))
	tree := NewTree(logger, TreeConfig{
		FailureThreshold: 10,
		FailureBackoff:   10 * time.Millisecond,
		ShutdownTimeout:  time.Second,
	})

	flaky := &testService{name: "flaky-scheduler", failures: 2}
	stable := &testService{name: "stable-http"}
	tree.AddEngineService(flaky)
	tree.AddAPIService(stable)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	tree.ServeBackground(ctx)

	waitFor(t, func() bool { return flaky.starts.Load() >= 3 })
	if stable.starts.Load() != 1 {
		t.Errorf("stable service started %d times, want 1", stable.starts.Load())
	}
	// Supervisor events are routed through the zerolog adapter.
	waitFor(t, func() bool { return strings.Contains(buf.String(), "flaky-scheduler") })
}
