package videotexture

import (
	"sync/atomic"
	"time"
)

// Buffer is a reference-counted handle to a delivered frame. The store
// keeps one reference for its slot; every Latest call hands out an
// additional consumer-owned reference that must be given back with
// Release, independently of the store's own copy.
type Buffer struct {
	frame *VideoFrame
	refs  atomic.Int32
}

func newBuffer(frame *VideoFrame) *Buffer {
	b := &Buffer{frame: frame}
	b.refs.Store(1)
	return b
}

// Frame returns the underlying frame. It stays valid until the holder
// calls Release.
func (b *Buffer) Frame() *VideoFrame {
	return b.frame
}

// Release gives up the holder's reference. Safe on a nil buffer.
func (b *Buffer) Release() {
	if b == nil {
		return
	}
	if b.refs.Add(-1) == 0 {
		b.frame = nil
	}
}

// tryRetain adds a reference unless the count already hit zero, in
// which case the buffer is dead and a newer one has been installed.
func (b *Buffer) tryRetain() bool {
	for {
		n := b.refs.Load()
		if n <= 0 {
			return false
		}
		if b.refs.CompareAndSwap(n, n+1) {
			return true
		}
	}
}

// frameStore owns the single most-recent decoded frame for one player.
// Replacement is an atomic pointer swap with the old slot reference
// released only after the swap, so a consumer pulling concurrently with
// a retrieval never observes a torn or missing value. There is no
// queueing: only the latest frame matters.
type frameStore struct {
	source FrameSource
	latest atomic.Pointer[Buffer]
}

func newFrameStore(source FrameSource) *frameStore {
	return &frameStore{source: source}
}

// TryRetrieve queries the source for a frame at the target timestamp
// and, on success, copies it and installs it as the latest buffer.
// A miss (no frame, or an empty frame) leaves the previous buffer
// authoritative and reports ok == false; misses are not errors.
func (s *frameStore) TryRetrieve(target time.Time) (*VideoFrame, bool) {
	if !s.source.HasFrameAt(target) {
		return nil, false
	}
	frame := s.source.FrameAt(target)
	if frame.Empty() {
		return nil, false
	}
	frame = frame.Clone()

	next := newBuffer(frame)
	old := s.latest.Swap(next)
	old.Release()
	return frame, true
}

// Latest returns the latest installed buffer with an added reference,
// or nil before the first successful retrieval. Callers own the
// returned reference and must Release it.
func (s *frameStore) Latest() *Buffer {
	for {
		b := s.latest.Load()
		if b == nil {
			return nil
		}
		if b.tryRetain() {
			return b
		}
		// Lost the race against a swap that dropped the last
		// reference; a newer buffer is already installed.
	}
}

// close releases the store's slot reference.
func (s *frameStore) close() {
	old := s.latest.Swap(nil)
	old.Release()
}
