package host

import (
	"fmt"
	"sort"

	"github.com/1broseidon/scrollfocus/internal/filter"
	"github.com/1broseidon/scrollfocus/internal/focus"
)

// SoftwareParam remembers the last value assigned to a uniform.
type SoftwareParam struct {
	uniform filter.Uniform
	value   focus.Vec2
	sets    uint64
}

func (p *SoftwareParam) SetVec2(v focus.Vec2) {
	p.value = v
	p.sets++
}

// Value returns the last value and whether one was ever set.
func (p *SoftwareParam) Value() (focus.Vec2, bool) {
	return p.value, p.sets > 0
}

// SoftwareEffect stands in for a compiled GPU effect: it exposes one
// parameter per declared uniform and records what the filter writes.
type SoftwareEffect struct {
	name   string
	params map[string]*SoftwareParam
}

// NewSoftwareEffect parses src for its uniforms.
func NewSoftwareEffect(name, src string) (*SoftwareEffect, error) {
	uniforms, err := filter.ParseEffectUniforms(src)
	if err != nil {
		return nil, fmt.Errorf("failed to parse effect %s: %w", name, err)
	}
	e := &SoftwareEffect{name: name, params: make(map[string]*SoftwareParam, len(uniforms))}
	for _, u := range uniforms {
		e.params[u.Name] = &SoftwareParam{uniform: u}
	}
	return e, nil
}

func (e *SoftwareEffect) Param(name string) (filter.EffectParam, bool) {
	p, ok := e.params[name]
	if !ok {
		return nil, false
	}
	return p, true
}

// Values returns the parameters that have been set, by name.
func (e *SoftwareEffect) Values() map[string]focus.Vec2 {
	out := make(map[string]focus.Vec2, len(e.params))
	for name, p := range e.params {
		if v, ok := p.Value(); ok {
			out[name] = v
		}
	}
	return out
}

// Uniforms lists the effect's parameters sorted by name.
func (e *SoftwareEffect) Uniforms() []filter.Uniform {
	out := make([]filter.Uniform, 0, len(e.params))
	for _, p := range e.params {
		out = append(out, p.uniform)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// EffectLoader serves the bundled crop effect and remembers what it loaded.
type EffectLoader struct {
	loaded *SoftwareEffect
}

func (l *EffectLoader) LoadEffect(name string) (filter.Effect, error) {
	if name != filter.EffectName {
		return nil, fmt.Errorf("unknown effect %q", name)
	}
	e, err := NewSoftwareEffect(name, filter.EffectSource())
	if err != nil {
		return nil, err
	}
	l.loaded = e
	return e, nil
}

// Loaded returns the last effect handed out, nil before the first load.
func (l *EffectLoader) Loaded() *SoftwareEffect {
	return l.loaded
}
