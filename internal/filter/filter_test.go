package filter

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1broseidon/scrollfocus/internal/focus"
	"github.com/1broseidon/scrollfocus/internal/telemetry"
)

type fakeParam struct {
	set  []focus.Vec2
	last focus.Vec2
}

func (p *fakeParam) SetVec2(v focus.Vec2) {
	p.set = append(p.set, v)
	p.last = v
}

type fakeEffect struct {
	params map[string]*fakeParam
}

func newFakeEffect(names ...string) *fakeEffect {
	e := &fakeEffect{params: make(map[string]*fakeParam)}
	for _, n := range names {
		e.params[n] = &fakeParam{}
	}
	return e
}

func (e *fakeEffect) Param(name string) (EffectParam, bool) {
	p, ok := e.params[name]
	if !ok {
		return nil, false
	}
	return p, true
}

type fakeLoader struct {
	effect Effect
	err    error
	asked  []string
}

func (l *fakeLoader) LoadEffect(name string) (Effect, error) {
	l.asked = append(l.asked, name)
	return l.effect, l.err
}

type fakeTarget struct {
	w, h   uint32
	calls  int
	format ColorFormat
	direct AllowDirect
	cx, cy uint32
	err    error
}

func (t *fakeTarget) BaseSize() (uint32, uint32) { return t.w, t.h }

func (t *fakeTarget) ProcessFilter(effect Effect, cx, cy uint32, format ColorFormat, direct AllowDirect, set func()) error {
	t.calls++
	t.cx, t.cy = cx, cy
	t.format, t.direct = format, direct
	if t.err != nil {
		return t.err
	}
	set()
	return nil
}

type chanSource struct {
	events chan telemetry.Snapshot
	closed atomic.Bool
}

func (s *chanSource) WaitForEvent() (telemetry.Snapshot, bool) {
	select {
	case e := <-s.events:
		return e, true
	case <-time.After(time.Millisecond):
		return telemetry.Snapshot{}, false
	}
}

func (s *chanSource) Close() error {
	s.closed.Store(true)
	return nil
}

type fixture struct {
	effect *fakeEffect
	loader *fakeLoader
	target *fakeTarget
	source *chanSource
}

func newFixture() *fixture {
	effect := newFakeEffect(ParamAdd, ParamMul, ParamImage)
	return &fixture{
		effect: effect,
		loader: &fakeLoader{effect: effect},
		target: &fakeTarget{w: 1920, h: 1080},
		source: &chanSource{events: make(chan telemetry.Snapshot, 8)},
	}
}

func (fx *fixture) deps() Deps {
	logger, _ := test.NewNullLogger()
	return Deps{
		Effects:   fx.loader,
		Target:    fx.target,
		Telemetry: func() (telemetry.Source, error) { return fx.source, nil },
		Logger:    logger,
	}
}

func TestCreate_RenderUsesLatestSnapshot(t *testing.T) {
	fx := newFixture()
	f, err := Create(MapSettings{SettingZoom: 1.5}, fx.deps())
	require.NoError(t, err)
	defer f.Destroy()

	assert.Equal(t, []string{EffectName}, fx.loader.asked)

	require.NoError(t, f.Render())
	assert.Equal(t, focus.Vec2{X: 0, Y: 0}, fx.effect.params[ParamAdd].last)
	assert.Equal(t, focus.Vec2{X: 1.5, Y: 1.5}, fx.effect.params[ParamMul].last)

	fx.source.events <- telemetry.Snapshot{X: 40, Y: 60, Width: 20, Height: 10, RootWidth: 200, RootHeight: 100}
	require.Eventually(t, func() bool { return f.TelemetryStats().Delivered == 1 }, time.Second, time.Millisecond)

	f.Tick(1.0 / 60)
	require.NoError(t, f.Render())

	add := fx.effect.params[ParamAdd].last
	assert.InDelta(t, -0.25, add.X, 1e-9)
	assert.InDelta(t, 0.15, add.Y, 1e-9)

	assert.Equal(t, 2, fx.target.calls)
	assert.Equal(t, uint32(1920), fx.target.cx)
	assert.Equal(t, uint32(1080), fx.target.cy)
	assert.Equal(t, ColorFormatRGBA, fx.target.format)
	assert.Equal(t, NoDirectRendering, fx.target.direct)
	assert.Empty(t, fx.effect.params[ParamImage].set, "image is bound by the host")
}

func TestCreate_DefaultZoomIsZero(t *testing.T) {
	fx := newFixture()
	f, err := Create(nil, fx.deps())
	require.NoError(t, err)
	defer f.Destroy()

	assert.Equal(t, 0.0, f.State().Zoom)
}

func TestUpdate_AppliesAtNextRender(t *testing.T) {
	fx := newFixture()
	f, err := Create(MapSettings{SettingZoom: 1}, fx.deps())
	require.NoError(t, err)
	defer f.Destroy()

	f.Update(MapSettings{SettingZoom: 3})
	assert.Empty(t, fx.effect.params[ParamMul].set)

	require.NoError(t, f.Render())
	assert.Equal(t, focus.Vec2{X: 2, Y: 2}, fx.effect.params[ParamMul].last)

	f.Update(MapSettings{SettingSmoothing: 4})
	assert.Equal(t, 2.0, f.State().Zoom, "absent keys keep their value")
	assert.Equal(t, 4.0, f.State().Smoothing)
}

func TestCreate_Failures(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name    string
		mutate  func(fx *fixture, d *Deps)
		wantErr error
	}{
		{
			name:    "effect fails to load",
			mutate:  func(fx *fixture, d *Deps) { fx.loader.err = boom },
			wantErr: ErrEffectMissing,
		},
		{
			name:    "loader returns nothing",
			mutate:  func(fx *fixture, d *Deps) { fx.loader.effect = nil },
			wantErr: ErrEffectMissing,
		},
		{
			name:    "missing add_val",
			mutate:  func(fx *fixture, d *Deps) { delete(fx.effect.params, ParamAdd) },
			wantErr: ErrParamMissing,
		},
		{
			name:    "missing image",
			mutate:  func(fx *fixture, d *Deps) { delete(fx.effect.params, ParamImage) },
			wantErr: ErrParamMissing,
		},
		{
			name: "telemetry unavailable",
			mutate: func(fx *fixture, d *Deps) {
				d.Telemetry = func() (telemetry.Source, error) { return nil, boom }
			},
			wantErr: ErrSourceUnavailable,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newFixture()
			deps := fx.deps()
			tt.mutate(fx, &deps)

			f, err := Create(MapSettings{}, deps)
			assert.Nil(t, f)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.False(t, fx.source.closed.Load(), "source must not have been opened")
		})
	}
}

func TestCreate_RequiresCollaborators(t *testing.T) {
	_, err := Create(nil, Deps{})
	assert.Error(t, err)
}

func TestRender_PropagatesTargetError(t *testing.T) {
	fx := newFixture()
	fx.target.err = errors.New("no upstream frame")
	f, err := Create(nil, fx.deps())
	require.NoError(t, err)
	defer f.Destroy()

	assert.EqualError(t, f.Render(), "no upstream frame")
	assert.Empty(t, fx.effect.params[ParamAdd].set)
}

func TestDestroy(t *testing.T) {
	fx := newFixture()
	f, err := Create(nil, fx.deps())
	require.NoError(t, err)

	f.Destroy()
	assert.True(t, fx.source.closed.Load())
	assert.Panics(t, f.Destroy)
}

func TestInstancesHaveDistinctIDs(t *testing.T) {
	a, err := Create(nil, newFixture().deps())
	require.NoError(t, err)
	defer a.Destroy()
	b, err := Create(nil, newFixture().deps())
	require.NoError(t, err)
	defer b.Destroy()

	assert.NotEqual(t, a.ID(), b.ID())
}

func TestProperties(t *testing.T) {
	props := Properties()
	require.Len(t, props, 1)
	assert.Equal(t, Property{
		Name:        "zoom",
		Description: "Amount to zoom in window",
		Kind:        PropertyFloatSlider,
		Min:         0,
		Max:         2,
		Step:        0.001,
	}, props[0])
}
