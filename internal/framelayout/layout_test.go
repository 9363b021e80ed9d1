package framelayout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameSize_PerFormat(t *testing.T) {
	// 7x5 exercises the odd-dimension rounding:
	// half_width=4, half_height=3, full=35, half=20, quarter=12.
	const w, h = 7, 5

	tests := []struct {
		format PixelFormat
		kind   Kind
		planes []int
	}{
		{None, Uniform, []int{}},
		{I420, Explicit, []int{35, 12, 12}},
		{NV12, Explicit, []int{35, 40}},
		{Y800, Explicit, []int{35}},
		{YVYU, Explicit, []int{80}},
		{YUY2, Explicit, []int{80}},
		{UYVY, Explicit, []int{80}},
		{RGBA, Explicit, []int{140}},
		{BGRA, Explicit, []int{140}},
		{BGRX, Explicit, []int{140}},
		{AYUV, Explicit, []int{140}},
		{I444, Uniform, []int{35, 35, 35}},
		{I412, Uniform, []int{70, 70, 70}},
		{BGR3, Explicit, []int{105}},
		{I422, Explicit, []int{35, 20, 20}},
		{I210, Explicit, []int{70, 40, 40}},
		{I40A, Explicit, []int{35, 12, 12, 35}},
		{I42A, Explicit, []int{35, 20, 20, 35}},
		{YUVA, Uniform, []int{35, 35, 35, 35}},
		{YA2L, Uniform, []int{70, 70, 70, 70}},
		{I010, Explicit, []int{70, 24, 24}},
		{P010, Explicit, []int{70, 48}},
	}

	for _, tt := range tests {
		t.Run(tt.format.String(), func(t *testing.T) {
			layout := FrameSize(tt.format, w, h)
			assert.Equal(t, tt.kind, layout.Kind)

			planes, ok := layout.Planes()
			require.True(t, ok)
			assert.Equal(t, tt.planes, planes)

			count, ok := layout.PlaneCount()
			require.True(t, ok)
			assert.Equal(t, len(tt.planes), count)
		})
	}
}

func TestFrameSize_CoversEveryFormat(t *testing.T) {
	for _, f := range Formats() {
		layout := FrameSize(f, 1920, 1080)
		assert.True(t, layout.Known(), "format %s has no layout", f)
	}
}

func TestFrameSize_QuarterPlaneRoundsUp(t *testing.T) {
	layout := FrameSize(I420, 7, 5)
	planes, ok := layout.Planes()
	require.True(t, ok)
	require.Len(t, planes, 3)
	assert.Equal(t, 12, planes[1])
	assert.Equal(t, 12, planes[2])
}

func TestFrameSize_Deterministic(t *testing.T) {
	dims := [][2]uint32{{1, 1}, {2, 2}, {3, 7}, {640, 480}, {1921, 1081}}
	for _, f := range Formats() {
		for _, d := range dims {
			first, ok := FrameSize(f, d[0], d[1]).Total()
			require.True(t, ok)
			for i := 0; i < 3; i++ {
				again, ok := FrameSize(f, d[0], d[1]).Total()
				require.True(t, ok)
				assert.Equal(t, first, again, "%s %dx%d", f, d[0], d[1])
			}
		}
	}
}

func TestFrameSize_InvalidFormatIsUnknown(t *testing.T) {
	for _, f := range []PixelFormat{PixelFormat(-1), PixelFormat(22), PixelFormat(999)} {
		layout := FrameSize(f, 640, 480)
		assert.Equal(t, Unknown, layout.Kind)
		assert.False(t, layout.Known())

		planes, ok := layout.Planes()
		assert.False(t, ok)
		assert.Nil(t, planes)

		_, ok = layout.Total()
		assert.False(t, ok, "unknown layout must not report a total")
	}
}

func TestFrameSize_NoneIsEmptyNotUnknown(t *testing.T) {
	layout := FrameSize(None, 640, 480)
	assert.True(t, layout.Known())
	total, ok := layout.Total()
	assert.True(t, ok)
	assert.Equal(t, 0, total)
}

func TestParsePixelFormat(t *testing.T) {
	f, err := ParsePixelFormat(" nv12 ")
	require.NoError(t, err)
	assert.Equal(t, NV12, f)

	for _, want := range Formats() {
		got, err := ParsePixelFormat(want.String())
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err = ParsePixelFormat("YV12")
	assert.Error(t, err)
}

func TestPixelFormatString_Invalid(t *testing.T) {
	assert.Equal(t, "PixelFormat(42)", PixelFormat(42).String())
	assert.Equal(t, "YA2L", YA2L.String())
	assert.Equal(t, 21, int(YA2L))
}
