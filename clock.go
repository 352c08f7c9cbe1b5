package videotexture

import "time"

// defaultDriftResetFraction is the fraction of a frame duration beyond
// which the timeline resynchronizes to host time instead of advancing
// incrementally.
const defaultDriftResetFraction = 0.5

// Clock converts a free-running host wall-clock into a sequence of
// evenly spaced target presentation timestamps. Ticks arrive at
// irregular intervals; sampling the host clock directly causes frame
// skips, while pure incremental advancement lags without bound after
// any stall (app backgrounding, scheduler hiccups). The clock advances
// incrementally while the host stays within the drift band and snaps
// back to host time once it leaves it.
//
// Clock is not safe for concurrent use; it is driven from the refresh
// signal goroutine only.
type Clock struct {
	target             time.Time
	driftResetFraction float64
	resyncs            uint64
}

// NewClock creates a clock with the default drift band.
func NewClock() *Clock {
	return &Clock{driftResetFraction: defaultDriftResetFraction}
}

// Next returns the next target timestamp for the given host time and
// frame duration. Target times are monotonically non-decreasing except
// across a resynchronization.
func (c *Clock) Next(now time.Time, frameDuration time.Duration) time.Time {
	band := time.Duration(float64(frameDuration) * c.driftResetFraction)
	drift := c.target.Sub(now)
	if drift < 0 {
		drift = -drift
	}
	if c.target.IsZero() || drift > band {
		c.target = now
		c.resyncs++
	}
	c.target = c.target.Add(frameDuration)
	return c.target
}

// Target returns the most recently emitted target timestamp.
func (c *Clock) Target() time.Time {
	return c.target
}

// Resyncs returns how many times the timeline snapped back to host time.
func (c *Clock) Resyncs() uint64 {
	return c.resyncs
}
