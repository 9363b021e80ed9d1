package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/1broseidon/scrollfocus/internal/filter"
	"github.com/1broseidon/scrollfocus/internal/focus"
)

// TelemetrySource selects where snapshots come from.
type TelemetrySource string

const (
	TelemetryX11    TelemetrySource = "x11"
	TelemetryReplay TelemetrySource = "replay"
)

// FilterConfig holds the per-instance filter settings.
type FilterConfig struct {
	// Zoom is the scale handed to the effect, 0..2.
	Zoom float64 `yaml:"zoom"`
	// Smoothing is the approach rate per second of the rendered focal point
	// toward the latest target. 0 renders the target directly.
	Smoothing float64 `yaml:"smoothing"`
}

// TelemetryConfig configures the telemetry worker.
type TelemetryConfig struct {
	Source       TelemetrySource `yaml:"source"`
	Mode         string          `yaml:"mode"` // window or pointer
	PollInterval time.Duration   `yaml:"poll_interval"`
	QueueSize    int             `yaml:"queue_size"`

	ReplayFile  string  `yaml:"replay_file,omitempty"`
	ReplaySpeed float64 `yaml:"replay_speed"`
	ReplayLoop  bool    `yaml:"replay_loop"`

	// RecordFile, when set, tees every snapshot into a recording.
	RecordFile string `yaml:"record_file,omitempty"`
}

// RenderConfig describes the headless render loop.
type RenderConfig struct {
	FPS    int    `yaml:"fps"`
	Width  uint32 `yaml:"width"`
	Height uint32 `yaml:"height"`
}

// HotkeysConfig binds global X11 key sequences such as "Mod4-equal" to zoom
// changes. Empty sequences are not bound.
type HotkeysConfig struct {
	ZoomIn    string  `yaml:"zoom_in"`
	ZoomOut   string  `yaml:"zoom_out"`
	ZoomReset string  `yaml:"zoom_reset"`
	Step      float64 `yaml:"step"`
}

// Enabled reports whether any sequence is bound.
func (h HotkeysConfig) Enabled() bool {
	return h.ZoomIn != "" || h.ZoomOut != "" || h.ZoomReset != ""
}

// Config is the effective daemon configuration.
type Config struct {
	Filter    FilterConfig    `yaml:"filter"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Render    RenderConfig    `yaml:"render"`
	Hotkeys   HotkeysConfig   `yaml:"hotkeys"`
	LogLevel  string          `yaml:"log_level"`
	LogFormat string          `yaml:"log_format"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		Filter: FilterConfig{
			Zoom:      1.0,
			Smoothing: 0,
		},
		Telemetry: TelemetryConfig{
			Source:       TelemetryX11,
			Mode:         "window",
			PollInterval: 50 * time.Millisecond,
			QueueSize:    64,
			ReplaySpeed:  1.0,
		},
		Render: RenderConfig{
			FPS:    60,
			Width:  1920,
			Height: 1080,
		},
		Hotkeys: HotkeysConfig{
			Step: 0.1,
		},
		LogLevel:  "info",
		LogFormat: "auto",
	}
}

// FilterSettings exposes the filter section as host settings.
func (c *Config) FilterSettings() filter.Settings {
	return filter.MapSettings{
		filter.SettingZoom:      c.Filter.Zoom,
		filter.SettingSmoothing: c.Filter.Smoothing,
	}
}

// Save writes the config to the default location.
func (c *Config) Save() error {
	path, err := DefaultConfigPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo validates and writes the config to path.
func (c *Config) SaveTo(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Replaced by rename so a watcher only ever reads a complete file.
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace config file: %w", err)
	}
	return nil
}

// Validate checks value ranges. Errors carry the YAML path of the
// offending key.
func (c *Config) Validate() error {
	if math.IsNaN(c.Filter.Zoom) || c.Filter.Zoom < focus.MinZoom || c.Filter.Zoom > focus.MaxZoom {
		return &ValidationError{Path: "filter.zoom", Err: fmt.Errorf("zoom must be between %g and %g", focus.MinZoom, focus.MaxZoom)}
	}
	if math.IsNaN(c.Filter.Smoothing) || c.Filter.Smoothing < 0 {
		return &ValidationError{Path: "filter.smoothing", Err: fmt.Errorf("smoothing must be >= 0")}
	}

	t := c.Telemetry
	switch t.Source {
	case TelemetryX11:
	case TelemetryReplay:
		if strings.TrimSpace(t.ReplayFile) == "" {
			return &ValidationError{Path: "telemetry.replay_file", Err: fmt.Errorf("replay_file is required when source is replay")}
		}
	default:
		return &ValidationError{Path: "telemetry.source", Err: fmt.Errorf("source must be one of: x11, replay")}
	}
	switch t.Mode {
	case "window", "pointer":
	default:
		return &ValidationError{Path: "telemetry.mode", Err: fmt.Errorf("mode must be one of: window, pointer")}
	}
	if t.PollInterval < time.Millisecond || t.PollInterval > 5*time.Second {
		return &ValidationError{Path: "telemetry.poll_interval", Err: fmt.Errorf("poll_interval must be between 1ms and 5s")}
	}
	if t.QueueSize < 1 {
		return &ValidationError{Path: "telemetry.queue_size", Err: fmt.Errorf("queue_size must be >= 1")}
	}
	if t.ReplaySpeed <= 0 {
		return &ValidationError{Path: "telemetry.replay_speed", Err: fmt.Errorf("replay_speed must be > 0")}
	}

	if c.Render.FPS < 1 || c.Render.FPS > 240 {
		return &ValidationError{Path: "render.fps", Err: fmt.Errorf("fps must be between 1 and 240")}
	}
	if c.Render.Width == 0 {
		return &ValidationError{Path: "render.width", Err: fmt.Errorf("width must be > 0")}
	}
	if c.Render.Height == 0 {
		return &ValidationError{Path: "render.height", Err: fmt.Errorf("height must be > 0")}
	}

	if math.IsNaN(c.Hotkeys.Step) || c.Hotkeys.Step <= 0 || c.Hotkeys.Step > focus.MaxZoom {
		return &ValidationError{Path: "hotkeys.step", Err: fmt.Errorf("step must be > 0 and <= %g", focus.MaxZoom)}
	}

	switch strings.ToLower(c.LogLevel) {
	case "trace", "debug", "info", "warn", "warning", "error":
	default:
		return &ValidationError{Path: "log_level", Err: fmt.Errorf("log_level must be one of: trace, debug, info, warn, error")}
	}
	switch c.LogFormat {
	case "auto", "text", "json":
	default:
		return &ValidationError{Path: "log_format", Err: fmt.Errorf("log_format must be one of: auto, text, json")}
	}
	return nil
}
