package videotexture

import (
	"errors"
	"io"
	"time"
)

// ErrNotSupported is returned when an optional operation is not supported.
var ErrNotSupported = errors.New("operation not supported")

// ErrDisposed is returned when an operation is invoked on a disposed
// player. Disposal is terminal; any further use is a lifecycle misuse
// by the caller and is rejected rather than silently ignored.
var ErrDisposed = errors.New("player disposed")

// FrameSource answers frame queries against a monotonically increasing
// presentation-time axis. Timestamps are host wall-clock instants;
// implementations translate them to their own media timebase.
type FrameSource interface {
	// HasFrameAt reports whether a frame is available for the given
	// host timestamp. Must be non-blocking.
	HasFrameAt(host time.Time) bool

	// FrameAt returns the frame for the given host timestamp, or nil
	// if none is available. The returned frame may be empty; an empty
	// frame is a transient miss, not an error. Must be non-blocking.
	FrameAt(host time.Time) *VideoFrame

	// Position returns the source's current presentation time.
	Position() time.Duration

	// NominalFrameDuration returns the frame interval derived from the
	// source frame rate. May change mid-stream (variable frame rate,
	// renditions switching).
	NominalFrameDuration() time.Duration

	// IsLive reports whether the source is a live stream.
	IsLive() bool
}

// Transport is the playback-control side of the underlying player.
type Transport interface {
	// Play starts playback.
	Play() error

	// Pause pauses playback.
	Pause() error

	// SeekTo seeks to the given presentation position. Completion is
	// delivered asynchronously via done; the error, if any, is the
	// player's verbatim seek failure. done may be nil.
	SeekTo(pos time.Duration, done func(error))

	// SetLooping toggles automatic restart at end of media.
	SetLooping(loop bool)

	// SetVolume sets the playback volume in [0, 1].
	SetVolume(volume float64) error

	// SetRate sets the playback speed multiplier.
	SetRate(rate float64) error
}

// Backend is the black-box decoding player the engine drives. Decoding,
// demuxing and retrieval live entirely behind this interface.
type Backend interface {
	io.Closer
	FrameSource
	Transport
}

// TextureRegistry is the consumer the engine delivers frames to. It
// pulls the latest buffer on its own schedule; NotifyFrameAvailable is
// a hint fired only while the refresh cadence is considered reliable.
type TextureRegistry interface {
	NotifyFrameAvailable(textureID int64)
}
