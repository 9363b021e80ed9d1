package media

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1broseidon/scrollfocus/internal/framelayout"
)

func TestNewVideoFrameView_TrimsToLayout(t *testing.T) {
	// I420 7x5: 35, 12, 12
	y := make([]byte, 64)
	u := make([]byte, 16)
	v := make([]byte, 12)

	view, err := NewVideoFrameView(framelayout.I420, 7, 5, [][]byte{y, u, v}, []uint32{8, 4, 4}, 1234)
	require.NoError(t, err)

	assert.Equal(t, 3, view.PlaneCount())
	for i, want := range []int{35, 12, 12} {
		plane, ok := view.Plane(i)
		require.True(t, ok)
		assert.Len(t, plane, want)
		assert.Equal(t, want, cap(plane), "plane %d must not expose bytes past the layout", i)
	}

	ls, ok := view.Linesize(1)
	require.True(t, ok)
	assert.Equal(t, uint32(4), ls)
	assert.Equal(t, uint64(1234), view.Timestamp())

	_, ok = view.Plane(3)
	assert.False(t, ok)
	_, ok = view.Plane(-1)
	assert.False(t, ok)
}

func TestNewVideoFrameView_Errors(t *testing.T) {
	tests := []struct {
		name   string
		format framelayout.PixelFormat
		planes [][]byte
		want   error
	}{
		{"unknown format", framelayout.PixelFormat(77), [][]byte{make([]byte, 100)}, ErrUnknownLayout},
		{"missing plane", framelayout.NV12, [][]byte{make([]byte, 35)}, ErrPlaneTooSmall},
		{"short plane", framelayout.RGBA, [][]byte{make([]byte, 139)}, ErrPlaneTooSmall},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewVideoFrameView(tt.format, 7, 5, tt.planes, nil, 0)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSplitPlanes(t *testing.T) {
	buf := make([]byte, 35+40)
	for i := range buf {
		buf[i] = byte(i)
	}

	planes, err := SplitPlanes(framelayout.NV12, 7, 5, buf)
	require.NoError(t, err)
	require.Len(t, planes, 2)
	assert.Len(t, planes[0], 35)
	assert.Len(t, planes[1], 40)
	assert.Equal(t, byte(35), planes[1][0])

	_, err = SplitPlanes(framelayout.NV12, 7, 5, buf[:74])
	assert.ErrorIs(t, err, ErrPlaneTooSmall)

	_, err = SplitPlanes(framelayout.PixelFormat(-3), 7, 5, buf)
	assert.ErrorIs(t, err, ErrUnknownLayout)
}

func TestPlaneStats(t *testing.T) {
	view, err := NewVideoFrameView(framelayout.Y800, 2, 2, [][]byte{{10, 20, 30, 40}}, []uint32{2}, 0)
	require.NoError(t, err)

	stats, ok := view.PlaneStats(0)
	require.True(t, ok)
	assert.Equal(t, 4, stats.Bytes)
	assert.Equal(t, byte(10), stats.Min)
	assert.Equal(t, byte(40), stats.Max)
	assert.InDelta(t, 25.0, stats.Mean, 1e-9)
}

func TestVideoInfo_FrameSize(t *testing.T) {
	info := VideoInfo{Width: 1920, Height: 1080, FrameRate: 60, Format: framelayout.NV12}
	total, ok := info.FrameSize().Total()
	require.True(t, ok)
	// NV12 carries a luma plane plus a chroma plane of 2*half_size, where
	// half_size = ceil(w/2)*h.
	assert.Equal(t, 1920*1080+960*1080*2, total)
}

func TestAudioView(t *testing.T) {
	left := []float32{0.1, 0.2, 0.3, 0.4}
	right := []float32{-0.1, -0.2, -0.3, -0.4, 9}

	view, err := NewAudioView(4, [][]float32{left, right, nil})
	require.NoError(t, err)
	assert.Equal(t, 4, view.Frames())
	assert.Equal(t, 3, view.Channels())

	ch, ok := view.Channel(1)
	require.True(t, ok)
	assert.Len(t, ch, 4)

	ch[0] = 1
	assert.Equal(t, float32(1), right[0], "view must alias host memory")

	_, ok = view.Channel(2)
	assert.False(t, ok)
	_, ok = view.Channel(3)
	assert.False(t, ok)

	_, err = NewAudioView(6, [][]float32{left})
	assert.Error(t, err)
}

func TestBytesAt(t *testing.T) {
	backing := []byte{1, 2, 3, 4}
	got := BytesAt(unsafe.Pointer(&backing[0]), 3)
	assert.Equal(t, []byte{1, 2, 3}, got)
	assert.Nil(t, BytesAt(nil, 3))

	samples := []float32{0.5, 0.25}
	assert.Equal(t, samples, SamplesAt(unsafe.Pointer(&samples[0]), 2))
}
