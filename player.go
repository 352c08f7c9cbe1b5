package videotexture

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/pion/logging"
)

// PlayerStats provides frame delivery statistics.
type PlayerStats struct {
	Ticks             uint64 // Refresh ticks handled
	FramesDelivered   uint64 // Successful retrievals installed in the store
	RetrievalMisses   uint64 // Ticks with no frame available (not errors)
	ClockResyncs      uint64 // Timeline snaps back to host time
	Notifications     uint64 // NotifyFrameAvailable calls issued
	CadenceUnreliable bool   // Tick cadence latched unreliable
}

// Config configures a Player.
type Config struct {
	Backend  Backend         // Required: the black-box decoding player
	Registry TextureRegistry // Consumer notified on frame delivery
	Signal   RefreshSignal   // Refresh source; default: TickerSignal at the nominal rate
	Surface  PiPSurface      // Native PiP surface; nil = no PiP support
	Observer PiPObserver     // Outward PiP notifications

	LoggerFactory logging.LoggerFactory
}

// Player paces frame delivery from one Backend into a single-slot
// texture buffer. The refresh signal goroutine drives ticks and buffer
// installation; the consumer's pull goroutine may call LatestBuffer
// concurrently with a tick in progress.
type Player struct {
	id       string
	backend  Backend
	registry TextureRegistry
	signal   RefreshSignal
	store    *frameStore
	clock    *Clock
	monitor  *cadenceMonitor
	pip      *PiPCoordinator
	log      logging.LeveledLogger

	mu        sync.Mutex
	playing   bool
	frameOwed bool
	attached  bool
	textureID int64

	disposed atomic.Bool

	stats   PlayerStats
	statsMu sync.Mutex
}

// NewPlayer creates a player around the given backend.
func NewPlayer(cfg Config) (*Player, error) {
	if cfg.Backend == nil {
		return nil, fmt.Errorf("backend is required")
	}

	lf := cfg.LoggerFactory
	if lf == nil {
		lf = logging.NewDefaultLoggerFactory()
	}

	signal := cfg.Signal
	if signal == nil {
		signal = NewTickerSignal(cfg.Backend.NominalFrameDuration())
	}

	p := &Player{
		id:       uuid.NewString(),
		backend:  cfg.Backend,
		registry: cfg.Registry,
		signal:   signal,
		store:    newFrameStore(cfg.Backend),
		clock:    NewClock(),
		monitor:  newCadenceMonitor(),
		log:      lf.NewLogger("videotexture"),
	}
	p.pip = NewPiPCoordinator(cfg.Surface, pipRelay{p: p, next: cfg.Observer}, lf.NewLogger("pip"))

	return p, nil
}

// ID returns the player's unique identifier.
func (p *Player) ID() string {
	return p.id
}

// PiP returns the picture-in-picture coordinator for this player.
func (p *Player) PiP() *PiPCoordinator {
	return p.pip
}

// IsLive reports whether the backend is a live stream.
func (p *Player) IsLive() bool {
	return p.backend.IsLive()
}

// Attach binds the player to a rendering target. A frame is owed to the
// consumer from this point until the first successful retrieval, so the
// refresh driver runs even if playback is paused.
func (p *Player) Attach(textureID int64) error {
	if p.disposed.Load() {
		return ErrDisposed
	}

	p.mu.Lock()
	p.attached = true
	p.textureID = textureID
	p.frameOwed = true
	p.mu.Unlock()

	p.log.Debugf("player %s attached to texture %d", p.id, textureID)
	p.updateDriver()
	return nil
}

// Detach unbinds the rendering target. Any still-owed frame keeps the
// driver running so the buffer stays warm for a re-attach.
func (p *Player) Detach() error {
	if p.disposed.Load() {
		return ErrDisposed
	}

	p.mu.Lock()
	p.attached = false
	p.mu.Unlock()

	p.updateDriver()
	return nil
}

// Play starts playback.
func (p *Player) Play() error {
	if p.disposed.Load() {
		return ErrDisposed
	}
	if err := p.backend.Play(); err != nil {
		return fmt.Errorf("failed to start playback: %w", err)
	}

	p.mu.Lock()
	p.playing = true
	p.mu.Unlock()

	p.updateDriver()
	return nil
}

// Pause pauses playback. The refresh driver keeps running while a
// frame is still owed.
func (p *Player) Pause() error {
	if p.disposed.Load() {
		return ErrDisposed
	}
	if err := p.backend.Pause(); err != nil {
		return fmt.Errorf("failed to pause playback: %w", err)
	}

	p.mu.Lock()
	p.playing = false
	p.mu.Unlock()

	p.updateDriver()
	return nil
}

// SeekTo seeks to the given presentation position. Completion is
// delivered asynchronously via done with the backend's verbatim error,
// if any. A position-changing seek owes the consumer a frame until a
// later retrieval succeeds; overlapping seeks collapse onto the same
// owed flag, and a seek failure does not clear it.
func (p *Player) SeekTo(pos time.Duration, done func(error)) error {
	if p.disposed.Load() {
		return ErrDisposed
	}

	// On live streams the position comparison is meaningless; every
	// seek owes a frame.
	if p.backend.IsLive() || p.backend.Position() != pos {
		p.mu.Lock()
		p.frameOwed = true
		p.mu.Unlock()
		p.updateDriver()
	}

	p.backend.SeekTo(pos, func(err error) {
		if err != nil {
			p.log.Warnf("player %s seek to %v failed: %v", p.id, pos, err)
		}
		if done != nil {
			done(err)
		}
	})
	return nil
}

// SetLooping toggles automatic restart at end of media.
func (p *Player) SetLooping(loop bool) error {
	if p.disposed.Load() {
		return ErrDisposed
	}
	p.backend.SetLooping(loop)
	return nil
}

// SetVolume sets the playback volume in [0, 1].
func (p *Player) SetVolume(volume float64) error {
	if p.disposed.Load() {
		return ErrDisposed
	}
	if volume < 0 {
		volume = 0
	} else if volume > 1 {
		volume = 1
	}
	return p.backend.SetVolume(volume)
}

// SetPlaybackSpeed sets the playback speed multiplier.
func (p *Player) SetPlaybackSpeed(rate float64) error {
	if p.disposed.Load() {
		return ErrDisposed
	}
	return p.backend.SetRate(rate)
}

// LatestBuffer returns the most recent frame buffer with an added
// consumer-owned reference, or nil before the first successful
// retrieval. Callers must Release the returned buffer. Safe to call
// concurrently with a tick in progress.
func (p *Player) LatestBuffer() (*Buffer, error) {
	if p.disposed.Load() {
		return nil, ErrDisposed
	}
	return p.store.Latest(), nil
}

// Stats returns a snapshot of delivery statistics.
func (p *Player) Stats() PlayerStats {
	p.statsMu.Lock()
	defer p.statsMu.Unlock()
	return p.stats
}

// Dispose is terminal and one-way: it detaches the overlay surface,
// stops the refresh driver, releases the owned buffer and closes the
// backend. Any later call on the player returns ErrDisposed, and the
// PiP coordinator ignores requests and native callbacks alike.
func (p *Player) Dispose() error {
	if !p.disposed.CompareAndSwap(false, true) {
		return ErrDisposed
	}

	p.pip.close()
	p.signal.Stop()

	var result *multierror.Error
	if err := p.signal.Close(); err != nil {
		result = multierror.Append(result, fmt.Errorf("close refresh signal: %w", err))
	}

	p.store.close()

	p.mu.Lock()
	p.playing = false
	p.frameOwed = false
	p.attached = false
	p.mu.Unlock()

	if err := p.backend.Close(); err != nil {
		result = multierror.Append(result, fmt.Errorf("close backend: %w", err))
	}

	p.log.Debugf("player %s disposed", p.id)
	return result.ErrorOrNil()
}

// handleTick runs the clock -> retrieval sequence for one refresh tick.
// It executes on the refresh signal goroutine.
func (p *Player) handleTick(now time.Time) {
	if p.disposed.Load() {
		return
	}

	// Query the backend before taking the lock so a slow callback
	// cannot extend the critical section against the API surface.
	nominal := p.backend.NominalFrameDuration()

	p.mu.Lock()
	p.monitor.Observe(now, nominal)
	target := p.clock.Next(now, nominal)
	wasOwed := p.frameOwed
	p.mu.Unlock()

	_, ok := p.store.TryRetrieve(target)

	var notified bool
	if ok {
		p.mu.Lock()
		p.frameOwed = false
		notify := p.attached && p.registry != nil && p.monitor.Reliable()
		textureID := p.textureID
		p.mu.Unlock()

		if wasOwed {
			p.log.Tracef("player %s owed frame satisfied at %v", p.id, target)
		}
		if notify {
			p.registry.NotifyFrameAvailable(textureID)
			notified = true
		}
	}

	p.statsMu.Lock()
	p.stats.Ticks++
	if ok {
		p.stats.FramesDelivered++
	} else {
		p.stats.RetrievalMisses++
	}
	if notified {
		p.stats.Notifications++
	}
	p.stats.ClockResyncs = p.clock.Resyncs()
	if !p.monitor.Reliable() && !p.stats.CadenceUnreliable {
		p.stats.CadenceUnreliable = true
		p.log.Infof("player %s tick cadence unreliable, falling back to polling", p.id)
	}
	p.statsMu.Unlock()

	// A successful delivery while paused and caught up turns the
	// driver off for the next cycle.
	p.updateDriver()
}

// updateDriver reconciles the refresh signal with the desired running
// state derived from {playing, frameOwed}.
func (p *Player) updateDriver() {
	p.mu.Lock()
	run := driverShouldRun(p.playing, p.frameOwed)
	p.mu.Unlock()

	if run {
		p.signal.Start(p.handleTick)
	} else {
		p.signal.Stop()
	}
}

// pipRelay forwards coordinator notifications to the configured
// observer and keeps the refresh driver running across PiP entry: the
// PiP surface needs a frame even while playback is paused.
type pipRelay struct {
	p    *Player
	next PiPObserver
}

func (r pipRelay) PiPStarted() {
	r.p.mu.Lock()
	if !driverShouldRun(r.p.playing, r.p.frameOwed) {
		r.p.frameOwed = true
	}
	r.p.mu.Unlock()
	r.p.updateDriver()

	if r.next != nil {
		r.next.PiPStarted()
	}
}

func (r pipRelay) PiPStopped() {
	if r.next != nil {
		r.next.PiPStopped()
	}
}
