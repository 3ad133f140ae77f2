package refresh

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestTickHonorsGate(t *testing.T) {
	var enabled atomic.Bool
	var runs atomic.Int32

	s := New(time.Hour, GateFunc(enabled.Load), func(context.Context) { runs.Add(1) }, nil)

	if s.Tick(context.Background()) {
		t.Error("expected tick to be skipped while disabled")
	}
	enabled.Store(true)
	if !s.Tick(context.Background()) {
		t.Error("expected tick to run while enabled")
	}
	if runs.Load() != 1 {
		t.Errorf("expected 1 run, got %d", runs.Load())
	}
}

func TestStartRunsUntilStopped(t *testing.T) {
	runs := make(chan struct{}, 16)
	s := New(5*time.Millisecond, nil, func(context.Context) {
		select {
		case runs <- struct{}{}:
		default:
		}
	}, nil)

	s.Start(context.Background())
	s.Start(context.Background()) // second start is ignored

	for i := 0; i < 2; i++ {
		select {
		case <-runs:
		case <-time.After(2 * time.Second):
			t.Fatal("scheduler did not tick")
		}
	}

	s.Stop()
	for len(runs) > 0 {
		<-runs
	}
	time.Sleep(20 * time.Millisecond)
	if len(runs) != 0 {
		t.Error("expected no ticks after Stop")
	}
}

func TestStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := New(time.Millisecond, nil, func(context.Context) {}, nil)
	s.Start(ctx)
	cancel()

	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return after context cancel")
	}
}

func TestDefaultInterval(t *testing.T) {
	s := New(0, nil, func(context.Context) {}, nil)
	if s.interval != DefaultInterval {
		t.Errorf("expected %v, got %v", DefaultInterval, s.interval)
	}
}

func TestHungCycleDoesNotBlockLaterTicks(t *testing.T) {
	var calls atomic.Int32
	later := make(chan struct{}, 16)

	s := New(5*time.Millisecond, nil, func(ctx context.Context) {
		if calls.Add(1) == 1 {
			// First cycle hangs until the scheduler is stopped.
			<-ctx.Done()
			return
		}
		select {
		case later <- struct{}{}:
		default:
		}
	}, nil)

	s.Start(context.Background())
	for i := 0; i < 3; i++ {
		select {
		case <-later:
		case <-time.After(2 * time.Second):
			t.Fatalf("ticks stalled behind a hung cycle after %d calls", calls.Load())
		}
	}

	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not cancel the hung cycle")
	}
}
