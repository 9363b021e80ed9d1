package filter

import "github.com/1broseidon/scrollfocus/internal/focus"

// PropertyKind is the UI control a property maps to.
type PropertyKind string

const PropertyFloatSlider PropertyKind = "float_slider"

// Property describes one user-editable setting.
type Property struct {
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Kind        PropertyKind `json:"kind"`
	Min         float64      `json:"min"`
	Max         float64      `json:"max"`
	Step        float64      `json:"step"`
}

// Properties describes the filter's settings panel.
func Properties() []Property {
	return []Property{{
		Name:        SettingZoom,
		Description: "Amount to zoom in window",
		Kind:        PropertyFloatSlider,
		Min:         focus.MinZoom,
		Max:         focus.MaxZoom,
		Step:        focus.ZoomStep,
	}}
}
