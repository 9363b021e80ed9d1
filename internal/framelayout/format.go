// Package framelayout computes the memory plane layout of raw video frames.
//
// The plane sizes follow the packing convention of the host video library
// (libobs media-io/video-frame.c): chroma subsampling ratio, bit depth and
// alpha plane presence all change how many bytes each plane occupies.
// Code that indexes raw frame memory must take its extents from here.
package framelayout

import (
	"fmt"
	"strings"
)

// PixelFormat identifies a raw video pixel format. Values match the
// numbering used by the host video library.
type PixelFormat int

const (
	None PixelFormat = iota

	// I420 is planar 4:2:0, three planes.
	I420
	// NV12 is planar 4:2:0, luma plane plus interleaved chroma plane.
	NV12

	// YVYU is packed 4:2:2.
	YVYU
	// YUY2 is packed 4:2:2 (YUYV).
	YUY2
	// UYVY is packed 4:2:2.
	UYVY

	RGBA
	BGRA
	BGRX
	// Y800 is single plane grayscale.
	Y800

	// I444 is planar 4:4:4.
	I444
	// BGR3 is packed 3 bytes per pixel.
	BGR3
	// I422 is planar 4:2:2.
	I422
	// I40A is planar 4:2:0 with an alpha plane.
	I40A
	// I42A is planar 4:2:2 with an alpha plane.
	I42A
	// YUVA is planar 4:4:4 with an alpha plane.
	YUVA
	// AYUV is packed 4:4:4 with alpha.
	AYUV

	// I010 is planar 4:2:0, 10 bits per sample, three planes.
	I010
	// P010 is planar 4:2:0, 10 bits per sample, luma plus interleaved chroma.
	P010
	// I210 is planar 4:2:2, 10 bits per sample, little endian.
	I210
	// I412 is planar 4:4:4, 12 bits per sample, little endian.
	I412
	// YA2L is planar 4:4:4 with alpha, 12 bits per sample, little endian.
	YA2L
)

var formatNames = [...]string{
	None: "NONE",
	I420: "I420",
	NV12: "NV12",
	YVYU: "YVYU",
	YUY2: "YUY2",
	UYVY: "UYVY",
	RGBA: "RGBA",
	BGRA: "BGRA",
	BGRX: "BGRX",
	Y800: "Y800",
	I444: "I444",
	BGR3: "BGR3",
	I422: "I422",
	I40A: "I40A",
	I42A: "I42A",
	YUVA: "YUVA",
	AYUV: "AYUV",
	I010: "I010",
	P010: "P010",
	I210: "I210",
	I412: "I412",
	YA2L: "YA2L",
}

// Formats returns every known pixel format, None included, in numeric order.
func Formats() []PixelFormat {
	out := make([]PixelFormat, len(formatNames))
	for i := range formatNames {
		out[i] = PixelFormat(i)
	}
	return out
}

// Valid reports whether f is one of the enumerated formats.
func (f PixelFormat) Valid() bool {
	return f >= None && int(f) < len(formatNames)
}

func (f PixelFormat) String() string {
	if !f.Valid() {
		return fmt.Sprintf("PixelFormat(%d)", int(f))
	}
	return formatNames[f]
}

// ParsePixelFormat resolves a format name (case-insensitive).
func ParsePixelFormat(name string) (PixelFormat, error) {
	want := strings.ToUpper(strings.TrimSpace(name))
	for i, n := range formatNames {
		if n == want {
			return PixelFormat(i), nil
		}
	}
	return None, fmt.Errorf("unknown pixel format %q", name)
}
