// Package focus turns telemetry snapshots into the shift and scale a render
// pass applies to keep the focused window centred.
package focus

import (
	"math"

	"github.com/1broseidon/scrollfocus/internal/telemetry"
)

const (
	MinZoom  = 0.0
	MaxZoom  = 2.0
	ZoomStep = 0.001
)

// Vec2 is a 2D value in normalized source coordinates.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Centre is where both focal points start.
var Centre = Vec2{X: 0.5, Y: 0.5}

// ShaderParams are the values a render pass hands to the effect.
type ShaderParams struct {
	Add Vec2 `json:"add"`
	Mul Vec2 `json:"mul"`
}

// Receiver is the non-blocking end of a telemetry bridge.
type Receiver interface {
	TryRecv() (telemetry.Message, bool)
}

// State is a copy of the controller's values.
type State struct {
	Current   Vec2    `json:"current"`
	Target    Vec2    `json:"target"`
	Zoom      float64 `json:"zoom"`
	Smoothing float64 `json:"smoothing"`
	Applied   uint64  `json:"applied"`
}

// Controller holds per-instance focus state. It is not safe for concurrent
// use: Tick, Render and the setters belong to the render goroutine.
type Controller struct {
	msgs Receiver

	current Vec2
	target  Vec2
	zoom    float64

	// smoothing is a rate per second; 0 renders target directly.
	smoothing float64
	applied   uint64
}

// New creates a controller reading from msgs.
func New(msgs Receiver, zoom float64) *Controller {
	return &Controller{
		msgs:    msgs,
		current: Centre,
		target:  Centre,
		zoom:    ClampZoom(zoom),
	}
}

// TargetFromSnapshot returns the normalized centre of the snapshot's
// rectangle. ok is false when the root area is empty.
func TargetFromSnapshot(s telemetry.Snapshot) (Vec2, bool) {
	if s.RootWidth <= 0 || s.RootHeight <= 0 {
		return Vec2{}, false
	}
	return Vec2{
		X: (s.X + s.Width/2) / s.RootWidth,
		Y: (s.Y + s.Height/2) / s.RootHeight,
	}, true
}

// Tick drains every pending message and keeps only the last usable
// snapshot as the new target. It never blocks and reports whether the
// target changed.
func (c *Controller) Tick(seconds float64) bool {
	var (
		last  Vec2
		found bool
	)
	if c.msgs != nil {
		for {
			msg, ok := c.msgs.TryRecv()
			if !ok {
				break
			}
			if msg.Kind != telemetry.MessageSnapshot {
				continue
			}
			if t, ok := TargetFromSnapshot(msg.Snapshot); ok {
				last, found = t, true
			}
		}
	}

	if found {
		c.target = last
		c.applied++
	}
	c.advance(seconds)
	return found
}

func (c *Controller) advance(seconds float64) {
	if c.smoothing <= 0 {
		c.current = c.target
		return
	}
	if seconds <= 0 {
		return
	}
	k := 1 - math.Exp(-c.smoothing*seconds)
	c.current.X += (c.target.X - c.current.X) * k
	c.current.Y += (c.target.Y - c.current.Y) * k
}

// Focal is the point Render centres on.
func (c *Controller) Focal() Vec2 {
	if c.smoothing > 0 {
		return c.current
	}
	return c.target
}

// Render produces the effect parameters for the current frame.
func (c *Controller) Render() ShaderParams {
	f := c.Focal()
	return ShaderParams{
		Add: Vec2{X: f.X - 0.5, Y: f.Y - 0.5},
		Mul: Vec2{X: c.zoom, Y: c.zoom},
	}
}

// SetZoom applies from the next Render.
func (c *Controller) SetZoom(z float64) {
	c.zoom = ClampZoom(z)
}

func (c *Controller) Zoom() float64 {
	return c.zoom
}

// SetSmoothing sets the approach rate of current toward target. Negative
// values disable smoothing.
func (c *Controller) SetSmoothing(rate float64) {
	if rate < 0 || math.IsNaN(rate) {
		rate = 0
	}
	if rate > 0 && c.smoothing <= 0 {
		c.current = c.target
	}
	c.smoothing = rate
}

func (c *Controller) State() State {
	return State{
		Current:   c.current,
		Target:    c.target,
		Zoom:      c.zoom,
		Smoothing: c.smoothing,
		Applied:   c.applied,
	}
}

// ClampZoom limits z to [MinZoom, MaxZoom]. NaN becomes MinZoom.
func ClampZoom(z float64) float64 {
	switch {
	case math.IsNaN(z) || z < MinZoom:
		return MinZoom
	case z > MaxZoom:
		return MaxZoom
	default:
		return z
	}
}
