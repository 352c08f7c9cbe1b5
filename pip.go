package videotexture

import (
	"sync"

	"github.com/pion/logging"
)

// PiPState represents the picture-in-picture overlay state.
type PiPState int32

const (
	PiPStateInactive PiPState = iota // No PiP window
	PiPStateStarting                 // Local start requested, native transition pending
	PiPStateActive                   // PiP window presented
	PiPStateStopping                 // Local stop requested, native transition pending
)

func (s PiPState) String() string {
	switch s {
	case PiPStateInactive:
		return "inactive"
	case PiPStateStarting:
		return "starting"
	case PiPStateActive:
		return "active"
	case PiPStateStopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// Rect is the overlay geometry of the inline video surface, in the
// consumer's coordinate space.
type Rect struct {
	Top    float64
	Left   float64
	Width  float64
	Height float64
}

// Capabilities describes what the native PiP surface supports. It is
// fetched once at construction; absence of support is permanent for
// the life of the player, and unsupported operations are silent no-ops,
// never errors.
type Capabilities struct {
	PiP       bool // Picture-in-picture available at all
	AutoStart bool // Automatic PiP entry on inline dismissal available
}

// PiPSurface is the native picture-in-picture surface boundary. The
// surface can also start or stop PiP outside the coordinator's control
// (user swipe); those transitions arrive through HandleDidStart and
// HandleDidStop on the coordinator.
type PiPSurface interface {
	Capabilities() Capabilities
	SetOverlayGeometry(rect Rect)
	SetAutoStartOnInline(enabled bool)
	Start()
	Stop()
}

// PiPObserver receives outward PiP notifications. The observer is a
// capability fixed at construction, not a rebindable property.
type PiPObserver interface {
	PiPStarted()
	PiPStopped()
}

// PiPCoordinator overlays presentation geometry and start/stop
// transitions on top of the frame pipeline. Native started/stopped
// callbacks are always authoritative: they move the state machine even
// when no local request preceded them. Requests issued while a
// transition is in flight are idempotent no-ops, never queued.
type PiPCoordinator struct {
	surface  PiPSurface
	caps     Capabilities
	observer PiPObserver
	log      logging.LeveledLogger

	mu        sync.Mutex
	state     PiPState
	geometry  Rect
	autoStart bool
	closed    bool
}

// NewPiPCoordinator creates a coordinator bound to the given surface
// and observer. Either may be nil: a nil surface reports no PiP
// support, a nil observer drops notifications.
func NewPiPCoordinator(surface PiPSurface, observer PiPObserver, log logging.LeveledLogger) *PiPCoordinator {
	var caps Capabilities
	if surface != nil {
		caps = surface.Capabilities()
	}
	if log == nil {
		log = logging.NewDefaultLoggerFactory().NewLogger("pip")
	}
	return &PiPCoordinator{
		surface:  surface,
		caps:     caps,
		observer: observer,
		log:      log,
	}
}

// State returns the current overlay state.
func (c *PiPCoordinator) State() PiPState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Capabilities returns the capability descriptor fetched at construction.
func (c *PiPCoordinator) Capabilities() Capabilities {
	return c.caps
}

// ConfigureOverlay updates the overlay geometry. No state transition;
// geometry is recorded regardless of PiP support or activation state.
func (c *PiPCoordinator) ConfigureOverlay(rect Rect) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.geometry = rect
	c.mu.Unlock()

	if c.caps.PiP {
		c.surface.SetOverlayGeometry(rect)
	}
}

// OverlayGeometry returns the last configured overlay geometry.
func (c *PiPCoordinator) OverlayGeometry() Rect {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.geometry
}

// SetAutoStartOnInline configures automatic PiP entry for future
// triggers. Silently ignored when the platform lacks support.
func (c *PiPCoordinator) SetAutoStartOnInline(enabled bool) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.autoStart = enabled
	c.mu.Unlock()

	if c.caps.AutoStart {
		c.surface.SetAutoStartOnInline(enabled)
	}
}

// AutoStartOnInline returns the configured auto-start flag.
func (c *PiPCoordinator) AutoStartOnInline() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.autoStart
}

// RequestStart asks the native surface to enter PiP. Observers are
// notified optimistically before the native start is invoked, so UI
// can update immediately while the native transition is still in
// flight. No-op when unsupported or when not currently inactive.
func (c *PiPCoordinator) RequestStart() {
	if !c.caps.PiP {
		return
	}

	c.mu.Lock()
	if c.closed || c.state != PiPStateInactive {
		c.mu.Unlock()
		return
	}
	c.state = PiPStateStarting
	c.mu.Unlock()

	c.log.Debugf("pip start requested")
	c.notifyStarted()
	c.surface.Start()
}

// RequestStop asks the native surface to leave PiP. Completion is
// confirmed later through HandleDidStop. No-op unless currently active.
func (c *PiPCoordinator) RequestStop() {
	if !c.caps.PiP {
		return
	}

	c.mu.Lock()
	if c.closed || c.state != PiPStateActive {
		c.mu.Unlock()
		return
	}
	c.state = PiPStateStopping
	c.mu.Unlock()

	c.log.Debugf("pip stop requested")
	c.surface.Stop()
}

// HandleDidStart is the native surface's started callback. It is
// authoritative and covers user-initiated PiP entry: the state becomes
// Active even when no local request preceded it. Observers that were
// already notified optimistically by RequestStart are not notified a
// second time.
func (c *PiPCoordinator) HandleDidStart() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	prev := c.state
	c.state = PiPStateActive
	c.mu.Unlock()

	c.log.Debugf("pip did start (was %s)", prev)
	if prev != PiPStateStarting && prev != PiPStateActive {
		c.notifyStarted()
	}
}

// HandleDidStop is the native surface's stopped callback. It is
// authoritative and covers user-driven dismissal: the state is forced
// to Inactive from wherever it was, and observers are notified exactly
// once per activation.
func (c *PiPCoordinator) HandleDidStop() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	prev := c.state
	c.state = PiPStateInactive
	c.mu.Unlock()

	c.log.Debugf("pip did stop (was %s)", prev)
	if prev != PiPStateInactive {
		c.notifyStopped()
	}
}

// close terminally detaches the coordinator from the native surface.
// If PiP was active or a start was in flight, the native surface is
// asked to stop and observers hear a final stopped notification so
// they stay consistent. Every later entry point, including native
// callbacks, is a no-op. Idempotent.
func (c *PiPCoordinator) close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	prev := c.state
	c.state = PiPStateInactive
	c.mu.Unlock()

	if prev == PiPStateInactive {
		return
	}
	c.log.Debugf("pip detached (was %s)", prev)
	if c.caps.PiP && prev != PiPStateStopping {
		c.surface.Stop()
	}
	c.notifyStopped()
}

func (c *PiPCoordinator) notifyStarted() {
	if c.observer != nil {
		c.observer.PiPStarted()
	}
}

func (c *PiPCoordinator) notifyStopped() {
	if c.observer != nil {
		c.observer.PiPStopped()
	}
}
