package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/devfong/cinema-gate/pkg/logger"
)

func TestDriverRunsCyclesUntilStopped(t *testing.T) {
	var cycles atomic.Int64
	d := NewDriver("test", 5*time.Millisecond, func(ctx context.Context) error {
		cycles.Add(1)
		return nil
	}, logger.InitializeTestZapLogger())

	ctx := context.Background()
	d.Start(ctx)

	deadline := time.Now().Add(time.Second)
	for cycles.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	d.Stop(ctx)

	if got := cycles.Load(); got < 3 {
		t.Fatalf("ran %d cycles, want at least 3", got)
	}

	after := cycles.Load()
	time.Sleep(30 * time.Millisecond)
	if cycles.Load() != after {
		t.Error("cycles continued after Stop")
	}
}

func TestDriverSurvivesCycleErrors(t *testing.T) {
	var cycles atomic.Int64
	d := NewDriver("flaky", 5*time.Millisecond, func(ctx context.Context) error {
		cycles.Add(1)
		return errors.New("cycle failed")
	}, logger.InitializeTestZapLogger())

	ctx := context.Background()
	d.Start(ctx)

	deadline := time.Now().Add(time.Second)
	for cycles.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	d.Stop(ctx)

	if got := cycles.Load(); got < 2 {
		t.Fatalf("ran %d cycles, want at least 2 despite errors", got)
	}
}

func TestDriverStopIsIdempotent(t *testing.T) {
	d := NewDriver("test", time.Millisecond, func(ctx context.Context) error {
		return nil
	}, logger.InitializeTestZapLogger())

	ctx := context.Background()
	d.Start(ctx)
	d.Start(ctx)
	d.Stop(ctx)
	d.Stop(ctx)
}

func TestDriverStopsOnContextCancel(t *testing.T) {
	var cycles atomic.Int64
	d := NewDriver("test", time.Millisecond, func(ctx context.Context) error {
		cycles.Add(1)
		return nil
	}, logger.InitializeTestZapLogger())

	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)
	cancel()
	time.Sleep(20 * time.Millisecond)

	after := cycles.Load()
	time.Sleep(20 * time.Millisecond)
	if cycles.Load() != after {
		t.Error("cycles continued after context cancel")
	}
}
