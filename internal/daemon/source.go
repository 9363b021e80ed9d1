package daemon

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/1broseidon/scrollfocus/internal/config"
	"github.com/1broseidon/scrollfocus/internal/telemetry"
	"github.com/1broseidon/scrollfocus/internal/x11"
)

// OpenerFor builds the telemetry opener the config asks for. When
// record_file is set every snapshot is also appended to that recording.
// The returned opener runs on the bridge worker goroutine.
func OpenerFor(cfg config.TelemetryConfig, log logrus.FieldLogger) (telemetry.Opener, error) {
	var open telemetry.Opener
	switch cfg.Source {
	case config.TelemetryX11:
		mode, err := x11.ParseMode(cfg.Mode)
		if err != nil {
			return nil, err
		}
		opts := x11.WatchOptions{Mode: mode, PollInterval: cfg.PollInterval, Logger: log}
		open = func() (telemetry.Source, error) {
			return x11.OpenWatcher(opts)
		}
	case config.TelemetryReplay:
		path := cfg.ReplayFile
		opts := telemetry.ReplayOptions{
			Speed:        cfg.ReplaySpeed,
			Loop:         cfg.ReplayLoop,
			PollInterval: cfg.PollInterval,
		}
		open = func() (telemetry.Source, error) {
			return telemetry.OpenReplay(path, opts)
		}
	default:
		return nil, fmt.Errorf("unknown telemetry source %q", cfg.Source)
	}

	if cfg.RecordFile == "" {
		return open, nil
	}
	return recording(open, cfg.RecordFile, log), nil
}

func recording(open telemetry.Opener, path string, log logrus.FieldLogger) telemetry.Opener {
	return func() (telemetry.Source, error) {
		src, err := open()
		if err != nil {
			return nil, err
		}
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			src.Close()
			return nil, fmt.Errorf("failed to create recording directory: %w", err)
		}
		f, err := os.Create(path)
		if err != nil {
			src.Close()
			return nil, fmt.Errorf("failed to create recording: %w", err)
		}
		log.WithField("path", path).Info("Recording telemetry")
		return telemetry.NewRecorder(src, f), nil
	}
}
