// Package filter is one scroll focus filter instance as a video host sees
// it: created with settings, ticked and rendered once per frame, destroyed
// once.
package filter

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/1broseidon/scrollfocus/internal/focus"
	"github.com/1broseidon/scrollfocus/internal/telemetry"
)

const (
	ID   = "scroll_focus_filter"
	Name = "Scroll Focus Filter"

	SettingZoom      = "zoom"
	SettingSmoothing = "smoothing"

	ParamAdd   = "add_val"
	ParamMul   = "mul_val"
	ParamImage = "image"
)

var (
	// ErrEffectMissing means the crop effect could not be loaded.
	ErrEffectMissing = errors.New("effect unavailable")
	// ErrParamMissing means the effect lacks a required parameter.
	ErrParamMissing = errors.New("effect parameter missing")
	// ErrSourceUnavailable is telemetry.ErrSourceUnavailable.
	ErrSourceUnavailable = telemetry.ErrSourceUnavailable
)

// ColorFormat of the intermediate texture.
type ColorFormat int

const (
	ColorFormatRGBA ColorFormat = iota
)

// AllowDirect says whether the host may skip the intermediate texture.
type AllowDirect bool

const (
	NoDirectRendering    AllowDirect = false
	AllowDirectRendering AllowDirect = true
)

// EffectParam is a handle to one effect uniform.
type EffectParam interface {
	SetVec2(v focus.Vec2)
}

// Effect is a compiled GPU effect.
type Effect interface {
	Param(name string) (EffectParam, bool)
}

type EffectLoader interface {
	LoadEffect(name string) (Effect, error)
}

// Target is the upstream source the filter is attached to.
type Target interface {
	BaseSize() (width, height uint32)
	// ProcessFilter renders the upstream frame through effect, calling set
	// once the effect is bound so its parameters can be assigned.
	ProcessFilter(effect Effect, cx, cy uint32, format ColorFormat, direct AllowDirect, set func()) error
}

// Settings is the host's stored configuration for an instance.
type Settings interface {
	Float(key string) (float64, bool)
}

// MapSettings is a Settings backed by a map.
type MapSettings map[string]float64

func (m MapSettings) Float(key string) (float64, bool) {
	v, ok := m[key]
	return v, ok
}

// Deps are the collaborators Create wires together.
type Deps struct {
	Effects   EffectLoader
	Target    Target
	Telemetry telemetry.Opener
	Bridge    telemetry.Options
	Logger    logrus.FieldLogger
}

// Filter is one instance. Every method runs on the host's media goroutine.
type Filter struct {
	id  uuid.UUID
	log logrus.FieldLogger

	effect Effect
	add    EffectParam
	mul    EffectParam
	image  EffectParam

	target Target
	bridge *telemetry.Bridge
	ctrl   *focus.Controller
}

// Create builds an instance. Any failure aborts creation and releases
// whatever was already started.
func Create(settings Settings, deps Deps) (*Filter, error) {
	if deps.Effects == nil || deps.Target == nil {
		return nil, errors.New("filter: effect loader and target are required")
	}
	log := deps.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	f := &Filter{id: uuid.New(), target: deps.Target}
	f.log = log.WithFields(logrus.Fields{"filter": ID, "instance": f.id.String()})

	effect, err := deps.Effects.LoadEffect(EffectName)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrEffectMissing, EffectName, err)
	}
	if effect == nil {
		return nil, fmt.Errorf("%w: %s", ErrEffectMissing, EffectName)
	}
	f.effect = effect

	for _, p := range []struct {
		name string
		dst  *EffectParam
	}{
		{ParamAdd, &f.add},
		{ParamMul, &f.mul},
		{ParamImage, &f.image},
	} {
		param, ok := effect.Param(p.name)
		if !ok || param == nil {
			return nil, fmt.Errorf("%w: %s", ErrParamMissing, p.name)
		}
		*p.dst = param
	}

	bopts := deps.Bridge
	if bopts.Logger == nil {
		bopts.Logger = f.log
	}
	f.bridge, err = telemetry.Start(deps.Telemetry, bopts)
	if err != nil {
		return nil, err
	}

	f.ctrl = focus.New(f.bridge, 0)
	f.Update(settings)

	f.log.WithField("zoom", f.ctrl.Zoom()).Info("Filter created")
	return f, nil
}

// ID returns the instance identifier.
func (f *Filter) ID() uuid.UUID {
	return f.id
}

// Update applies changed settings from the next render. Keys that are
// absent keep their current value.
func (f *Filter) Update(settings Settings) {
	if settings == nil {
		return
	}
	if z, ok := settings.Float(SettingZoom); ok {
		f.ctrl.SetZoom(z)
	}
	if s, ok := settings.Float(SettingSmoothing); ok {
		f.ctrl.SetSmoothing(s)
	}
}

// Tick folds pending telemetry into the focus target.
func (f *Filter) Tick(seconds float64) {
	if f.ctrl.Tick(seconds) {
		f.log.WithField("target", f.ctrl.State().Target).Trace("Focus target moved")
	}
}

// Render draws the upstream frame through the crop effect.
func (f *Filter) Render() error {
	cx, cy := f.target.BaseSize()
	params := f.ctrl.Render()

	return f.target.ProcessFilter(f.effect, cx, cy, ColorFormatRGBA, NoDirectRendering, func() {
		f.add.SetVec2(params.Add)
		f.mul.SetVec2(params.Mul)
	})
}

// State returns the focus state for status reporting.
func (f *Filter) State() focus.State {
	return f.ctrl.State()
}

// TelemetryStats returns the bridge counters.
func (f *Filter) TelemetryStats() telemetry.Stats {
	return f.bridge.Stats()
}

// Destroy stops the telemetry worker. A second call panics.
func (f *Filter) Destroy() {
	f.bridge.Stop()
	f.log.Info("Filter destroyed")
}
