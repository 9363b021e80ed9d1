package focus

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1broseidon/scrollfocus/internal/telemetry"
)

type queue struct {
	msgs  []telemetry.Message
	calls int
}

func (q *queue) push(s telemetry.Snapshot) {
	q.msgs = append(q.msgs, telemetry.Message{Kind: telemetry.MessageSnapshot, Snapshot: s})
}

func (q *queue) TryRecv() (telemetry.Message, bool) {
	q.calls++
	if len(q.msgs) == 0 {
		return telemetry.Message{}, false
	}
	m := q.msgs[0]
	q.msgs = q.msgs[1:]
	return m, true
}

func rect(x, y, w, h, rw, rh float64) telemetry.Snapshot {
	return telemetry.Snapshot{X: x, Y: y, Width: w, Height: h, RootWidth: rw, RootHeight: rh}
}

func TestTargetFromSnapshot(t *testing.T) {
	tests := []struct {
		name   string
		snap   telemetry.Snapshot
		want   Vec2
		wantOK bool
	}{
		{name: "centre of rect", snap: rect(40, 60, 20, 10, 200, 100), want: Vec2{0.25, 0.65}, wantOK: true},
		{name: "whole root", snap: rect(0, 0, 1920, 1080, 1920, 1080), want: Vec2{0.5, 0.5}, wantOK: true},
		{name: "zero size point", snap: rect(30, 30, 0, 0, 100, 100), want: Vec2{0.3, 0.3}, wantOK: true},
		{name: "empty root width", snap: rect(1, 1, 1, 1, 0, 100)},
		{name: "negative root height", snap: rect(1, 1, 1, 1, 100, -1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := TargetFromSnapshot(tt.snap)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.InDelta(t, tt.want.X, got.X, 1e-9)
				assert.InDelta(t, tt.want.Y, got.Y, 1e-9)
			}
		})
	}
}

func TestTick_CoalescesBurst(t *testing.T) {
	q := &queue{}
	c := New(q, 1)

	q.push(rect(10, 10, 0, 0, 100, 100))
	q.push(rect(20, 20, 0, 0, 100, 100))
	q.push(rect(30, 30, 0, 0, 100, 100))

	assert.True(t, c.Tick(1.0/60))
	assert.Empty(t, q.msgs, "tick must drain every pending message")

	st := c.State()
	assert.InDelta(t, 0.3, st.Target.X, 1e-9)
	assert.InDelta(t, 0.3, st.Target.Y, 1e-9)
	assert.Equal(t, uint64(1), st.Applied)
}

func TestTick_SkipsUnusableSnapshots(t *testing.T) {
	q := &queue{}
	c := New(q, 1)

	q.push(rect(10, 10, 0, 0, 100, 100))
	q.push(rect(90, 90, 0, 0, 0, 0))

	assert.True(t, c.Tick(0))
	assert.InDelta(t, 0.1, c.State().Target.X, 1e-9)

	q.push(rect(90, 90, 0, 0, 0, 0))
	assert.False(t, c.Tick(0))
	assert.InDelta(t, 0.1, c.State().Target.X, 1e-9)
}

func TestTick_EmptyIsNoop(t *testing.T) {
	q := &queue{}
	c := New(q, 0.5)
	before := c.State()

	for i := 0; i < 3; i++ {
		assert.False(t, c.Tick(1.0/30))
	}
	assert.Equal(t, before, c.State())
	assert.Equal(t, 3, q.calls)
}

func TestTick_NilReceiver(t *testing.T) {
	c := New(nil, 1)
	assert.False(t, c.Tick(0.016))
	assert.Equal(t, Centre, c.State().Target)
}

func TestRender(t *testing.T) {
	q := &queue{}
	c := New(q, 1.25)

	p := c.Render()
	assert.Equal(t, Vec2{0, 0}, p.Add)
	assert.Equal(t, Vec2{1.25, 1.25}, p.Mul)

	q.push(rect(40, 60, 20, 10, 200, 100))
	c.Tick(0.016)
	p = c.Render()
	assert.InDelta(t, -0.25, p.Add.X, 1e-9)
	assert.InDelta(t, 0.15, p.Add.Y, 1e-9)
}

func TestSetZoom(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, 0},
		{0.75, 0.75},
		{2, 2},
		{2.5, 2},
		{-1, 0},
		{math.NaN(), 0},
		{math.Inf(1), 2},
	}
	c := New(nil, 1)
	for _, tt := range tests {
		c.SetZoom(tt.in)
		assert.Equal(t, tt.want, c.Zoom(), "SetZoom(%v)", tt.in)
		assert.Equal(t, tt.want, c.Render().Mul.X)
	}
}

func TestSmoothing(t *testing.T) {
	q := &queue{}
	c := New(q, 1)
	c.SetSmoothing(10)

	q.push(rect(100, 100, 0, 0, 100, 100))
	require.True(t, c.Tick(0.1))

	// One tick of 0.1s at rate 10 covers 1-e^-1 of the distance.
	want := 0.5 + 0.5*(1-math.Exp(-1))
	st := c.State()
	assert.InDelta(t, 1.0, st.Target.X, 1e-9)
	assert.InDelta(t, want, st.Current.X, 1e-9)
	assert.InDelta(t, want-0.5, c.Render().Add.X, 1e-9)

	for i := 0; i < 100; i++ {
		c.Tick(0.1)
	}
	assert.InDelta(t, 1.0, c.State().Current.X, 1e-6)
}

func TestSmoothing_DisabledRendersTarget(t *testing.T) {
	q := &queue{}
	c := New(q, 1)
	c.SetSmoothing(-3)

	q.push(rect(0, 0, 0, 0, 100, 100))
	c.Tick(0.001)
	assert.Equal(t, Vec2{-0.5, -0.5}, c.Render().Add)
	assert.Equal(t, 0.0, c.State().Smoothing)
}

func TestController_WithBridge(t *testing.T) {
	src := &burstSource{pending: []telemetry.Snapshot{
		rect(10, 10, 0, 0, 100, 100),
		rect(20, 20, 0, 0, 100, 100),
		rect(30, 30, 0, 0, 100, 100),
	}}
	b, err := telemetry.Start(func() (telemetry.Source, error) { return src, nil }, telemetry.Options{})
	require.NoError(t, err)
	defer b.Stop()

	require.Eventually(t, func() bool { return b.Stats().Delivered == 3 }, time.Second, time.Millisecond)

	c := New(b, 1)
	require.True(t, c.Tick(0.016))
	assert.InDelta(t, 0.3, c.State().Target.X, 1e-9)
	assert.InDelta(t, 0.3, c.State().Target.Y, 1e-9)
	assert.False(t, c.Tick(0.016))
}

// burstSource emits its snapshots once, then idles.
type burstSource struct {
	pending []telemetry.Snapshot
}

func (s *burstSource) WaitForEvent() (telemetry.Snapshot, bool) {
	if len(s.pending) == 0 {
		time.Sleep(time.Millisecond)
		return telemetry.Snapshot{}, false
	}
	next := s.pending[0]
	s.pending = s.pending[1:]
	return next, true
}

func (s *burstSource) Close() error { return nil }
