package videotexture

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// TickFunc receives the host timestamp of one refresh tick.
type TickFunc func(now time.Time)

// RefreshSignal is an externally ticked, frame-rate-locked refresh
// source. The player keeps it running exactly while playback is active
// or a frame is owed to the consumer, regardless of play/pause state.
type RefreshSignal interface {
	// Start begins delivering ticks to fn. Idempotent while running.
	Start(fn TickFunc)

	// Stop halts tick delivery. Idempotent. A tick already in flight
	// may still be delivered once after Stop returns.
	Stop()

	// Close releases the signal. A closed signal cannot be restarted.
	Close() error
}

// driverShouldRun is the desired running state of the refresh signal,
// a pure function of the playback tuple. The signal must never idle
// while a frame is owed (visually stuck output), and must not run while
// paused and caught up.
func driverShouldRun(playing, frameOwed bool) bool {
	return playing || frameOwed
}

// TickerSignal is the default RefreshSignal. It drives ticks from a
// time.Ticker at a fixed frame interval on its own goroutine.
type TickerSignal struct {
	interval time.Duration

	mu      sync.Mutex
	cancel  context.CancelFunc
	running atomic.Bool
	closed  atomic.Bool
}

// NewTickerSignal creates a signal ticking at the given frame interval.
func NewTickerSignal(interval time.Duration) *TickerSignal {
	if interval <= 0 {
		interval = time.Second / 30
	}
	return &TickerSignal{interval: interval}
}

// Start implements RefreshSignal.
func (s *TickerSignal) Start(fn TickFunc) {
	if s.closed.Load() || fn == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running.Load() {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.running.Store(true)

	go s.loop(ctx, fn)
}

// Stop implements RefreshSignal. It does not wait for the tick
// goroutine to exit, so it is safe to call from within a tick.
func (s *TickerSignal) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.running.Store(false)
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// Close implements RefreshSignal.
func (s *TickerSignal) Close() error {
	s.closed.Store(true)
	s.Stop()
	return nil
}

// Running reports whether the signal is currently delivering ticks.
func (s *TickerSignal) Running() bool {
	return s.running.Load()
}

func (s *TickerSignal) loop(ctx context.Context, fn TickFunc) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			fn(now)
		}
	}
}

var _ RefreshSignal = (*TickerSignal)(nil)
