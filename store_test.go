package videotexture

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// stubSource implements FrameSource for store and player tests.
type stubSource struct {
	mu      sync.Mutex
	has     bool
	frame   *VideoFrame
	pos     time.Duration
	nominal time.Duration
	live    bool
	queries int
}

func newStubSource() *stubSource {
	return &stubSource{nominal: 33 * time.Millisecond}
}

func (s *stubSource) setFrame(frame *VideoFrame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.has = frame != nil
	s.frame = frame
}

func (s *stubSource) setPos(pos time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pos = pos
}

func (s *stubSource) setLive(live bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.live = live
}

func (s *stubSource) HasFrameAt(time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries++
	return s.has
}

func (s *stubSource) FrameAt(time.Time) *VideoFrame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frame
}

func (s *stubSource) Position() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pos
}

func (s *stubSource) NominalFrameDuration() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nominal
}

func (s *stubSource) IsLive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.live
}

func testFrame(seq byte) *VideoFrame {
	data := make([]byte, BGRASize(2, 2))
	for i := range data {
		data[i] = seq
	}
	return &VideoFrame{
		Data:   [][]byte{data},
		Stride: []int{8},
		Width:  2,
		Height: 2,
		Format: PixelFormatBGRA32,
	}
}

func TestFrameStoreInstallsLatest(t *testing.T) {
	src := newStubSource()
	store := newFrameStore(src)
	now := time.Unix(1, 0)

	require.Nil(t, store.Latest(), "no buffer before first retrieval")

	_, ok := store.TryRetrieve(now)
	require.False(t, ok, "no frame available yet")

	src.setFrame(testFrame(1))
	frame, ok := store.TryRetrieve(now)
	require.True(t, ok)
	require.Equal(t, byte(1), frame.Data[0][0])

	buf := store.Latest()
	require.NotNil(t, buf)
	require.Equal(t, byte(1), buf.Frame().Data[0][0])
	buf.Release()
}

func TestFrameStoreMissKeepsPreviousBuffer(t *testing.T) {
	src := newStubSource()
	store := newFrameStore(src)
	now := time.Unix(1, 0)

	src.setFrame(testFrame(1))
	_, ok := store.TryRetrieve(now)
	require.True(t, ok)

	// Transient miss: previous buffer stays authoritative.
	src.setFrame(nil)
	_, ok = store.TryRetrieve(now)
	require.False(t, ok)

	buf := store.Latest()
	require.NotNil(t, buf)
	require.Equal(t, byte(1), buf.Frame().Data[0][0])
	buf.Release()
}

func TestFrameStoreEmptyFrameIsMiss(t *testing.T) {
	src := newStubSource()
	store := newFrameStore(src)
	now := time.Unix(1, 0)

	src.setFrame(&VideoFrame{Width: 2, Height: 2, Format: PixelFormatBGRA32})
	_, ok := store.TryRetrieve(now)
	require.False(t, ok, "an empty frame does not satisfy a delivery")
	require.Nil(t, store.Latest())
}

func TestFrameStoreBorrowOutlivesReplacement(t *testing.T) {
	src := newStubSource()
	store := newFrameStore(src)
	now := time.Unix(1, 0)

	src.setFrame(testFrame(1))
	_, ok := store.TryRetrieve(now)
	require.True(t, ok)

	borrowed := store.Latest()
	require.NotNil(t, borrowed)

	// Replacement releases only the store's own reference; the
	// borrowed buffer stays valid until the consumer releases it.
	src.setFrame(testFrame(2))
	_, ok = store.TryRetrieve(now)
	require.True(t, ok)

	require.Equal(t, byte(1), borrowed.Frame().Data[0][0])
	borrowed.Release()

	latest := store.Latest()
	require.Equal(t, byte(2), latest.Frame().Data[0][0])
	latest.Release()
}

func TestFrameStoreConcurrentPullNeverObservesMissingFrame(t *testing.T) {
	src := newStubSource()
	store := newFrameStore(src)
	now := time.Unix(1, 0)

	src.setFrame(testFrame(0))
	_, ok := store.TryRetrieve(now)
	require.True(t, ok)

	var (
		stop     atomic.Bool
		failures atomic.Int64
		wg       sync.WaitGroup
	)

	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for !stop.Load() {
				buf := store.Latest()
				if buf == nil || buf.Frame() == nil {
					failures.Add(1)
					continue
				}
				buf.Release()
			}
		}()
	}

	for i := 1; i < 500; i++ {
		src.setFrame(testFrame(byte(i)))
		_, ok := store.TryRetrieve(now.Add(time.Duration(i) * time.Millisecond))
		require.True(t, ok)
	}
	stop.Store(true)
	wg.Wait()

	require.Zero(t, failures.Load(), "latest buffer must never be torn or missing after first success")
}

func TestFrameStoreCloseReleasesSlot(t *testing.T) {
	src := newStubSource()
	store := newFrameStore(src)

	src.setFrame(testFrame(1))
	_, ok := store.TryRetrieve(time.Unix(1, 0))
	require.True(t, ok)

	store.close()
	require.Nil(t, store.Latest())
}
