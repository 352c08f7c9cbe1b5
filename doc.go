// Package videotexture implements texture-based frame delivery and
// pacing for video playback.
//
// It sits between a decoding player (the Backend) and a texture
// registry that pulls pixel buffers on its own schedule. The package
// owns the timing and bookkeeping in between:
//   - Clock: turns irregular host ticks into evenly spaced target
//     presentation timestamps, resynchronizing after stalls
//   - frame store: single-slot, reference-counted latest-frame buffer,
//     safe to pull concurrently with frame installation
//   - cadence monitor: detects when tick cadence is mismatched with the
//     decode cadence and demotes the player to polling-only delivery
//   - RefreshSignal: the externally ticked, frame-rate-locked refresh
//     source, kept running exactly while playing or a frame is owed
//   - PiPCoordinator: the picture-in-picture overlay state machine,
//     synchronized with the native PiP surface
//
// # Architecture
//
//	RefreshSignal tick -> Clock.Next -> Backend.FrameAt -> frame store swap
//	                                 -> TextureRegistry.NotifyFrameAvailable
//	TextureRegistry pull -> Player.LatestBuffer (borrowed reference)
//
// Decoding, demuxing and media retrieval are out of scope: the Backend
// is a black box that answers frame queries on a monotonically
// increasing presentation-time axis.
package videotexture
