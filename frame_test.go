package videotexture

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVideoFrameClone(t *testing.T) {
	orig := testFrame(9)
	orig.Timestamp = 1000
	orig.Duration = 33

	clone := orig.Clone()
	require.Equal(t, orig.Width, clone.Width)
	require.Equal(t, orig.Height, clone.Height)
	require.Equal(t, orig.Format, clone.Format)
	require.Equal(t, orig.Timestamp, clone.Timestamp)
	require.Equal(t, orig.Data, clone.Data)

	// Deep copy: mutating the original must not leak into the clone.
	orig.Data[0][0] = 0xFF
	assert.Equal(t, byte(9), clone.Data[0][0])
}

func TestVideoFrameEmpty(t *testing.T) {
	assert.True(t, (*VideoFrame)(nil).Empty())
	assert.True(t, (&VideoFrame{Width: 2, Height: 2}).Empty())
	assert.True(t, (&VideoFrame{Data: [][]byte{{}}}).Empty())
	assert.False(t, testFrame(1).Empty())
}

func TestPixelFormatPlaneCount(t *testing.T) {
	assert.Equal(t, 3, PixelFormatI420.PlaneCount())
	assert.Equal(t, 2, PixelFormatNV12.PlaneCount())
	assert.Equal(t, 1, PixelFormatBGRA32.PlaneCount())
	assert.Equal(t, 0, PixelFormat(99).PlaneCount())
}

func TestPixelFormatString(t *testing.T) {
	assert.Equal(t, "I420", PixelFormatI420.String())
	assert.Equal(t, "BGRA32", PixelFormatBGRA32.String())
	assert.Equal(t, "Unknown", PixelFormat(99).String())
}

func TestBGRASize(t *testing.T) {
	assert.Equal(t, 16, BGRASize(2, 2))
}
