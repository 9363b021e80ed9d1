package mcp

import "github.com/1broseidon/scrollfocus/internal/focus"

// GetFocusInput is the input for the get_focus tool.
type GetFocusInput struct{}

// GetFocusOutput is the output for the get_focus tool.
type GetFocusOutput struct {
	Running   bool       `json:"running"`
	Instance  string     `json:"instance"`
	Target    focus.Vec2 `json:"target"`
	Current   focus.Vec2 `json:"current"`
	Zoom      float64    `json:"zoom"`
	Frames    uint64     `json:"frames"`
	Delivered uint64     `json:"snapshots_delivered"`
	Dropped   uint64     `json:"snapshots_dropped"`
	Uptime    int64      `json:"uptime_seconds"`
}

// SetZoomInput is the input for the set_zoom tool.
type SetZoomInput struct {
	Zoom    float64 `json:"zoom" jsonschema:"required,Zoom factor between 0 and 2; values outside the range are clamped"`
	Persist bool    `json:"persist,omitempty" jsonschema:"When true, also write the zoom to the config file"`
}

// SetZoomOutput is the output for the set_zoom tool.
type SetZoomOutput struct {
	Zoom      float64 `json:"zoom"`
	Persisted bool    `json:"persisted"`
	Warning   string  `json:"warning,omitempty"`
}

// FrameLayoutInput is the input for the frame_layout tool.
type FrameLayoutInput struct {
	Format string `json:"format" jsonschema:"required,Pixel format name such as I420, NV12 or RGBA, or a numeric format token"`
	Width  uint32 `json:"width" jsonschema:"required,Frame width in pixels"`
	Height uint32 `json:"height" jsonschema:"required,Frame height in pixels"`
}

// FrameLayoutOutput is the output for the frame_layout tool.
type FrameLayoutOutput struct {
	Format string `json:"format"`
	Kind   string `json:"kind"`
	Known  bool   `json:"known"`
	Planes []int  `json:"planes,omitempty"`
	Total  int    `json:"total_bytes"`
}

// ReloadInput is the input for the reload_config tool.
type ReloadInput struct{}

// ReloadOutput is the output for the reload_config tool.
type ReloadOutput struct {
	Reloaded bool `json:"reloaded"`
}
