package framelayout

import "fmt"

// MaxPlanes is the largest plane count any format uses.
const MaxPlanes = 4

// Kind distinguishes the shapes a Layout can take.
type Kind int

const (
	// Unknown means the buffer extent cannot be determined. It is not an
	// empty frame.
	Unknown Kind = iota
	// Uniform is Count planes of Size bytes each.
	Uniform
	// Explicit lists one to four independently sized planes.
	Explicit
)

func (k Kind) String() string {
	switch k {
	case Unknown:
		return "unknown"
	case Uniform:
		return "uniform"
	case Explicit:
		return "explicit"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Layout is the plane layout of one frame.
type Layout struct {
	Kind Kind

	// Uniform layouts.
	Count int
	Size  int

	// Explicit layouts; only the first n entries are meaningful.
	sizes [MaxPlanes]int
	n     int
}

func uniform(count, size int) Layout {
	return Layout{Kind: Uniform, Count: count, Size: size}
}

func explicit(sizes ...int) Layout {
	l := Layout{Kind: Explicit, n: len(sizes)}
	copy(l.sizes[:], sizes)
	return l
}

// Known reports whether the layout describes a determinable extent.
func (l Layout) Known() bool {
	return l.Kind != Unknown
}

// Planes returns the byte size of every plane. ok is false for Unknown.
func (l Layout) Planes() (sizes []int, ok bool) {
	switch l.Kind {
	case Uniform:
		sizes = make([]int, l.Count)
		for i := range sizes {
			sizes[i] = l.Size
		}
		return sizes, true
	case Explicit:
		sizes = make([]int, l.n)
		copy(sizes, l.sizes[:l.n])
		return sizes, true
	default:
		return nil, false
	}
}

// PlaneCount returns the number of planes. ok is false for Unknown.
func (l Layout) PlaneCount() (int, bool) {
	switch l.Kind {
	case Uniform:
		return l.Count, true
	case Explicit:
		return l.n, true
	default:
		return 0, false
	}
}

// Total returns the byte size of all planes together. ok is false for Unknown.
func (l Layout) Total() (int, bool) {
	sizes, ok := l.Planes()
	if !ok {
		return 0, false
	}
	total := 0
	for _, s := range sizes {
		total += s
	}
	return total, true
}

func (l Layout) String() string {
	sizes, ok := l.Planes()
	if !ok {
		return "unknown"
	}
	return fmt.Sprintf("%s%v", l.Kind, sizes)
}

// FrameSize returns the plane layout for a frame of the given format and
// dimensions. Formats outside the enumeration yield an Unknown layout.
func FrameSize(format PixelFormat, width, height uint32) Layout {
	if !format.Valid() {
		return Layout{Kind: Unknown}
	}

	w := int(width)
	h := int(height)
	halfWidth := (w + 1) / 2
	halfHeight := (h + 1) / 2
	fullSize := w * h
	halfSize := halfWidth * h
	quarterSize := halfWidth * halfHeight

	switch format {
	case None:
		return uniform(0, 0)
	case I420:
		return explicit(fullSize, quarterSize, quarterSize)
	case NV12:
		return explicit(fullSize, halfSize*2)
	case Y800:
		return explicit(fullSize)
	case YVYU, YUY2, UYVY:
		return explicit(halfSize * 4)
	case RGBA, BGRA, BGRX, AYUV:
		return explicit(fullSize * 4)
	case I444:
		return uniform(3, fullSize)
	case I412:
		return uniform(3, fullSize*2)
	case BGR3:
		return explicit(fullSize * 3)
	case I422:
		return explicit(fullSize, halfSize, halfSize)
	case I210:
		return explicit(fullSize*2, halfSize*2, halfSize*2)
	case I40A:
		return explicit(fullSize, quarterSize, quarterSize, fullSize)
	case I42A:
		return explicit(fullSize, halfSize, halfSize, fullSize)
	case YUVA:
		return uniform(4, fullSize)
	case YA2L:
		return uniform(4, fullSize*2)
	case I010:
		return explicit(fullSize*2, quarterSize*2, quarterSize*2)
	case P010:
		return explicit(fullSize*2, quarterSize*4)
	}

	return Layout{Kind: Unknown}
}
