// Package media provides read-only views over audio and video buffers owned
// by the host. A view never copies or frees the memory it describes and is
// only valid for the duration of the host callback that handed it out.
package media

import (
	"errors"
	"fmt"

	"github.com/1broseidon/scrollfocus/internal/framelayout"
)

var (
	// ErrUnknownLayout is returned when the frame format has no known plane
	// layout, so the buffer extent cannot be determined.
	ErrUnknownLayout = errors.New("unknown frame layout")

	// ErrPlaneTooSmall is returned when a plane holds fewer bytes than the
	// layout requires.
	ErrPlaneTooSmall = errors.New("plane smaller than frame layout")
)

// VideoInfo describes a video output.
type VideoInfo struct {
	Width     uint32
	Height    uint32
	FrameRate float64
	Format    framelayout.PixelFormat
}

// FrameSize returns the plane layout of one frame of this output.
func (i VideoInfo) FrameSize() framelayout.Layout {
	return framelayout.FrameSize(i.Format, i.Width, i.Height)
}

// VideoFrameView is a bounds-checked view over one raw video frame.
type VideoFrameView struct {
	format    framelayout.PixelFormat
	width     uint32
	height    uint32
	planes    [][]byte
	linesize  []uint32
	timestamp uint64
}

// NewVideoFrameView validates planes against the frame layout and wraps them.
// Each plane is trimmed to its layout size; extra planes are ignored.
func NewVideoFrameView(format framelayout.PixelFormat, width, height uint32, planes [][]byte, linesize []uint32, timestamp uint64) (*VideoFrameView, error) {
	sizes, ok := framelayout.FrameSize(format, width, height).Planes()
	if !ok {
		return nil, fmt.Errorf("%w: format %s", ErrUnknownLayout, format)
	}
	if len(planes) < len(sizes) {
		return nil, fmt.Errorf("%w: format %s needs %d planes, got %d",
			ErrPlaneTooSmall, format, len(sizes), len(planes))
	}

	view := &VideoFrameView{
		format:    format,
		width:     width,
		height:    height,
		planes:    make([][]byte, len(sizes)),
		linesize:  make([]uint32, len(sizes)),
		timestamp: timestamp,
	}
	for i, size := range sizes {
		if len(planes[i]) < size {
			return nil, fmt.Errorf("%w: plane %d has %d bytes, layout needs %d",
				ErrPlaneTooSmall, i, len(planes[i]), size)
		}
		view.planes[i] = planes[i][:size:size]
		if i < len(linesize) {
			view.linesize[i] = linesize[i]
		}
	}
	return view, nil
}

func (v *VideoFrameView) Format() framelayout.PixelFormat { return v.format }
func (v *VideoFrameView) Width() uint32                   { return v.width }
func (v *VideoFrameView) Height() uint32                  { return v.height }
func (v *VideoFrameView) Timestamp() uint64               { return v.timestamp }
func (v *VideoFrameView) PlaneCount() int                 { return len(v.planes) }

// Plane returns plane idx, exactly as long as the layout says.
func (v *VideoFrameView) Plane(idx int) ([]byte, bool) {
	if idx < 0 || idx >= len(v.planes) {
		return nil, false
	}
	return v.planes[idx], true
}

// Linesize returns the row stride of plane idx as reported by the host.
func (v *VideoFrameView) Linesize(idx int) (uint32, bool) {
	if idx < 0 || idx >= len(v.linesize) {
		return 0, false
	}
	return v.linesize[idx], true
}

// PlaneStats summarizes the byte values of one plane.
type PlaneStats struct {
	Bytes int
	Min   byte
	Max   byte
	Mean  float64
}

// PlaneStats computes byte statistics for plane idx.
func (v *VideoFrameView) PlaneStats(idx int) (PlaneStats, bool) {
	plane, ok := v.Plane(idx)
	if !ok {
		return PlaneStats{}, false
	}
	stats := PlaneStats{Bytes: len(plane)}
	if len(plane) == 0 {
		return stats, true
	}

	stats.Min = 0xff
	var sum uint64
	for _, b := range plane {
		if b < stats.Min {
			stats.Min = b
		}
		if b > stats.Max {
			stats.Max = b
		}
		sum += uint64(b)
	}
	stats.Mean = float64(sum) / float64(len(plane))
	return stats, true
}

// SplitPlanes cuts a contiguous buffer into planes following the frame
// layout, as produced by raw dumps with tightly packed planes.
func SplitPlanes(format framelayout.PixelFormat, width, height uint32, buf []byte) ([][]byte, error) {
	sizes, ok := framelayout.FrameSize(format, width, height).Planes()
	if !ok {
		return nil, fmt.Errorf("%w: format %s", ErrUnknownLayout, format)
	}

	planes := make([][]byte, len(sizes))
	offset := 0
	for i, size := range sizes {
		if offset+size > len(buf) {
			return nil, fmt.Errorf("%w: buffer has %d bytes, plane %d ends at %d",
				ErrPlaneTooSmall, len(buf), i, offset+size)
		}
		planes[i] = buf[offset : offset+size : offset+size]
		offset += size
	}
	return planes, nil
}
