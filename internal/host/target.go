package host

import (
	"errors"

	"github.com/1broseidon/scrollfocus/internal/filter"
)

// ErrNoFrame is returned when the upstream source has no size to render.
var ErrNoFrame = errors.New("upstream source has no frame")

// Target is a fixed-size upstream source. Processing a frame binds the
// effect and runs the filter's parameter callback, which is all a GPU
// pass would observe.
type Target struct {
	width, height uint32
	frames        uint64
}

func NewTarget(width, height uint32) *Target {
	return &Target{width: width, height: height}
}

func (t *Target) BaseSize() (uint32, uint32) {
	return t.width, t.height
}

// Resize changes the base size from the next frame.
func (t *Target) Resize(width, height uint32) {
	t.width, t.height = width, height
}

func (t *Target) ProcessFilter(effect filter.Effect, cx, cy uint32, format filter.ColorFormat, direct filter.AllowDirect, set func()) error {
	if cx == 0 || cy == 0 {
		return ErrNoFrame
	}
	if effect == nil {
		return errors.New("no effect bound")
	}
	set()
	t.frames++
	return nil
}

// Frames counts processed frames.
func (t *Target) Frames() uint64 {
	return t.frames
}
