package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ValidationError names the config key that failed and, when known, where
// it was set.
type ValidationError struct {
	Path   string
	Source Source
	Err    error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Source.Kind == SourceFile && e.Source.File != "" && e.Source.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %v", e.Source.File, e.Source.Line, e.Source.Column, e.Path, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// BuildEffectiveConfig overlays raw on the defaults. Relative replay and
// record paths are resolved against baseDir.
func BuildEffectiveConfig(raw RawConfig, baseDir string) *Config {
	cfg := DefaultConfig()
	raw.apply(cfg)

	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	cfg.Telemetry.Mode = strings.ToLower(strings.TrimSpace(cfg.Telemetry.Mode))
	cfg.Telemetry.ReplayFile = resolvePath(baseDir, cfg.Telemetry.ReplayFile)
	cfg.Telemetry.RecordFile = resolvePath(baseDir, cfg.Telemetry.RecordFile)
	return cfg
}

func resolvePath(baseDir, p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	if strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, p[2:])
		}
	}
	if filepath.IsAbs(p) || baseDir == "" {
		return p
	}
	return filepath.Join(baseDir, p)
}
