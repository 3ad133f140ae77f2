package refresh

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultInterval is the poll period used when none is configured
const DefaultInterval = 2 * time.Second

// Gate reports whether a poll cycle may run
type Gate interface {
	PollingEnabled() bool
}

// GateFunc adapts a function to Gate
type GateFunc func() bool

func (f GateFunc) PollingEnabled() bool {
	return f()
}

// Scheduler runs a poll cycle on a fixed interval while its gate allows it
type Scheduler struct {
	interval time.Duration
	gate     Gate
	fn       func(ctx context.Context)
	log      *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a stopped scheduler. A nil gate always allows polling.
func New(interval time.Duration, gate Gate, fn func(ctx context.Context), log *zap.Logger) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if gate == nil {
		gate = GateFunc(func() bool { return true })
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{
		interval: interval,
		gate:     gate,
		fn:       fn,
		log:      log,
	}
}

// Tick runs one poll cycle inline if the gate allows it and reports whether it ran
func (s *Scheduler) Tick(ctx context.Context) bool {
	if !s.gate.PollingEnabled() {
		s.log.Debug("poll skipped, polling suspended")
		return false
	}
	s.fn(ctx)
	return true
}

// Start launches the ticker loop. It stops when ctx is done or Stop is called.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	ticker := time.NewTicker(s.interval)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.launch(ctx)
			case <-ctx.Done():
				s.log.Info("stopping refresh scheduler")
				return
			}
		}
	}()
	s.log.Info("refresh scheduler started", zap.Duration("interval", s.interval))
}

// launch starts one poll cycle on its own goroutine so a hung fetch only
// delays its own cycle. Stop waits for launched cycles.
func (s *Scheduler) launch(ctx context.Context) {
	if !s.gate.PollingEnabled() {
		s.log.Debug("poll skipped, polling suspended")
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.fn(ctx)
	}()
}

// Stop ends the loop, cancels in-flight cycles and waits for them to finish
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
}
