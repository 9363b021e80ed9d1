package config

import (
	"fmt"
	"sort"
)

// Explain returns the effective value at a YAML path such as
// "filter.zoom" or "telemetry.poll_interval", and where it came from.
func Explain(res *LoadResult, path string) (any, Source, error) {
	if res == nil || res.Config == nil {
		return nil, Source{}, fmt.Errorf("no config loaded")
	}
	if path == "" {
		return nil, Source{}, fmt.Errorf("path is empty")
	}

	value, ok := Value(res.Config, path)
	if !ok {
		return nil, Source{}, fmt.Errorf("unknown path: %s", path)
	}

	if src, ok := res.Sources[path]; ok {
		return value, src, nil
	}
	return value, Source{Kind: SourceDefault}, nil
}

// Value returns the value at a YAML path of cfg.
func Value(cfg *Config, path string) (any, bool) {
	get, ok := lookups[path]
	if !ok || cfg == nil {
		return nil, false
	}
	return get(cfg), true
}

// Paths lists every path Explain accepts.
func Paths() []string {
	out := make([]string, 0, len(lookups))
	for p := range lookups {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

var lookups = map[string]func(*Config) any{
	"filter.zoom":             func(c *Config) any { return c.Filter.Zoom },
	"filter.smoothing":        func(c *Config) any { return c.Filter.Smoothing },
	"telemetry.source":        func(c *Config) any { return c.Telemetry.Source },
	"telemetry.mode":          func(c *Config) any { return c.Telemetry.Mode },
	"telemetry.poll_interval": func(c *Config) any { return c.Telemetry.PollInterval },
	"telemetry.queue_size":    func(c *Config) any { return c.Telemetry.QueueSize },
	"telemetry.replay_file":   func(c *Config) any { return c.Telemetry.ReplayFile },
	"telemetry.replay_speed":  func(c *Config) any { return c.Telemetry.ReplaySpeed },
	"telemetry.replay_loop":   func(c *Config) any { return c.Telemetry.ReplayLoop },
	"telemetry.record_file":   func(c *Config) any { return c.Telemetry.RecordFile },
	"render.fps":              func(c *Config) any { return c.Render.FPS },
	"render.width":            func(c *Config) any { return c.Render.Width },
	"render.height":           func(c *Config) any { return c.Render.Height },
	"hotkeys.zoom_in":         func(c *Config) any { return c.Hotkeys.ZoomIn },
	"hotkeys.zoom_out":        func(c *Config) any { return c.Hotkeys.ZoomOut },
	"hotkeys.zoom_reset":      func(c *Config) any { return c.Hotkeys.ZoomReset },
	"hotkeys.step":            func(c *Config) any { return c.Hotkeys.Step },
	"log_level":               func(c *Config) any { return c.LogLevel },
	"log_format":              func(c *Config) any { return c.LogFormat },
}
