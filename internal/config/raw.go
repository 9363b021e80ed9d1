package config

import "time"

// RawConfig mirrors Config with every field optional, so a file only has to
// name what it changes.
type RawConfig struct {
	Filter    *RawFilter    `yaml:"filter"`
	Telemetry *RawTelemetry `yaml:"telemetry"`
	Render    *RawRender    `yaml:"render"`
	Hotkeys   *RawHotkeys   `yaml:"hotkeys"`
	LogLevel  *string       `yaml:"log_level"`
	LogFormat *string       `yaml:"log_format"`
}

type RawFilter struct {
	Zoom      *float64 `yaml:"zoom"`
	Smoothing *float64 `yaml:"smoothing"`
}

type RawTelemetry struct {
	Source       *TelemetrySource `yaml:"source"`
	Mode         *string          `yaml:"mode"`
	PollInterval *time.Duration   `yaml:"poll_interval"`
	QueueSize    *int             `yaml:"queue_size"`
	ReplayFile   *string          `yaml:"replay_file"`
	ReplaySpeed  *float64         `yaml:"replay_speed"`
	ReplayLoop   *bool            `yaml:"replay_loop"`
	RecordFile   *string          `yaml:"record_file"`
}

type RawRender struct {
	FPS    *int    `yaml:"fps"`
	Width  *uint32 `yaml:"width"`
	Height *uint32 `yaml:"height"`
}

type RawHotkeys struct {
	ZoomIn    *string  `yaml:"zoom_in"`
	ZoomOut   *string  `yaml:"zoom_out"`
	ZoomReset *string  `yaml:"zoom_reset"`
	Step      *float64 `yaml:"step"`
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// apply overlays every field present in raw onto cfg.
func (raw RawConfig) apply(cfg *Config) {
	if f := raw.Filter; f != nil {
		set(&cfg.Filter.Zoom, f.Zoom)
		set(&cfg.Filter.Smoothing, f.Smoothing)
	}
	if t := raw.Telemetry; t != nil {
		set(&cfg.Telemetry.Source, t.Source)
		set(&cfg.Telemetry.Mode, t.Mode)
		set(&cfg.Telemetry.PollInterval, t.PollInterval)
		set(&cfg.Telemetry.QueueSize, t.QueueSize)
		set(&cfg.Telemetry.ReplayFile, t.ReplayFile)
		set(&cfg.Telemetry.ReplaySpeed, t.ReplaySpeed)
		set(&cfg.Telemetry.ReplayLoop, t.ReplayLoop)
		set(&cfg.Telemetry.RecordFile, t.RecordFile)
	}
	if r := raw.Render; r != nil {
		set(&cfg.Render.FPS, r.FPS)
		set(&cfg.Render.Width, r.Width)
		set(&cfg.Render.Height, r.Height)
	}
	if h := raw.Hotkeys; h != nil {
		set(&cfg.Hotkeys.ZoomIn, h.ZoomIn)
		set(&cfg.Hotkeys.ZoomOut, h.ZoomOut)
		set(&cfg.Hotkeys.ZoomReset, h.ZoomReset)
		set(&cfg.Hotkeys.Step, h.Step)
	}
	set(&cfg.LogLevel, raw.LogLevel)
	set(&cfg.LogFormat, raw.LogFormat)
}
