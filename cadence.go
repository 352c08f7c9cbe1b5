package videotexture

import "time"

const (
	// cadenceWindowSize is the number of ticks measured per window.
	cadenceWindowSize = 10

	// cadenceUnreliableFraction: an average tick interval below this
	// fraction of the nominal frame duration means ticks fire far more
	// often than frames actually change, so tick-driven notifications
	// are misleading.
	cadenceUnreliableFraction = 0.5

	// cadenceNominalResetFraction: a nominal frame duration change
	// beyond 1% invalidates the window (stream frame rate changed).
	cadenceNominalResetFraction = 0.01
)

// cadenceMonitor measures actual inter-tick intervals against the
// nominal frame interval over a sliding window and decides whether the
// self-driven refresh mechanism is keeping up on its own.
//
// The unreliable verdict is a one-way latch for the life of the player:
// once the measurement indicated notifications are misleading, the
// player falls back to consumer-driven polling and never resumes
// proactive notification. This is a diagnostic safety valve, not a
// correctness mechanism; the frame store invariant holds either way.
//
// Not safe for concurrent use; driven under the player's lock.
type cadenceMonitor struct {
	nominal      time.Duration
	windowStart  time.Time
	samples      int
	lastObserved time.Duration
	unreliable   bool
}

func newCadenceMonitor() *cadenceMonitor {
	return &cadenceMonitor{}
}

// Observe records one refresh tick at host time now, measured against
// the current nominal frame duration.
func (m *cadenceMonitor) Observe(now time.Time, nominal time.Duration) {
	if m.nominalChanged(nominal) {
		m.nominal = nominal
		m.windowStart = now
		m.samples = 0
		return
	}

	if m.windowStart.IsZero() {
		m.windowStart = now
		return
	}

	m.samples++
	if m.samples < cadenceWindowSize {
		return
	}

	elapsed := now.Sub(m.windowStart)
	m.lastObserved = elapsed / cadenceWindowSize
	if !m.unreliable && float64(m.lastObserved) < float64(m.nominal)*cadenceUnreliableFraction {
		m.unreliable = true
	}
	m.windowStart = now
	m.samples = 0
}

// Reliable reports whether tick-driven notifications are still trusted.
func (m *cadenceMonitor) Reliable() bool {
	return !m.unreliable
}

// AverageInterval returns the last completed window's average tick
// interval, or zero before the first window completes.
func (m *cadenceMonitor) AverageInterval() time.Duration {
	return m.lastObserved
}

func (m *cadenceMonitor) nominalChanged(nominal time.Duration) bool {
	if m.nominal == 0 {
		return nominal != 0
	}
	diff := float64(nominal - m.nominal)
	if diff < 0 {
		diff = -diff
	}
	return diff > float64(m.nominal)*cadenceNominalResetFraction
}
