// Package daemon runs one filter instance with its IPC server and config
// watcher, and owns the live configuration.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/1broseidon/scrollfocus/internal/config"
	"github.com/1broseidon/scrollfocus/internal/focus"
	"github.com/1broseidon/scrollfocus/internal/host"
	"github.com/1broseidon/scrollfocus/internal/hotkeys"
	"github.com/1broseidon/scrollfocus/internal/ipc"
	"github.com/1broseidon/scrollfocus/internal/telemetry"
)

// Options configures a Daemon.
type Options struct {
	ConfigPath string
	Config     *config.Config
	// Opener overrides the telemetry source built from Config.
	Opener telemetry.Opener
	// SocketPath overrides the runtime IPC socket. Empty uses the default.
	SocketPath string
	// DisableIPC skips the IPC server.
	DisableIPC bool
	// Watch reloads ConfigPath when it changes on disk.
	Watch bool
	// Signals delivers SIGHUP for reloads. May be nil.
	Signals <-chan os.Signal
	// ReportInterval is how often counters are logged. Zero disables.
	ReportInterval time.Duration
	Logger         logrus.FieldLogger
}

// Daemon implements ipc.Backend for a single host.Runner.
type Daemon struct {
	opts   Options
	log    logrus.FieldLogger
	runner *host.Runner

	mu  sync.Mutex
	cfg *config.Config
}

// New creates the filter instance. Nothing runs until Run.
func New(opts Options) (*Daemon, error) {
	if opts.Config == nil {
		return nil, errors.New("daemon: config is required")
	}
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	opts.Logger = log

	open := opts.Opener
	if open == nil {
		var err error
		open, err = OpenerFor(opts.Config.Telemetry, log)
		if err != nil {
			return nil, err
		}
	}

	cfg := *opts.Config
	runner, err := host.New(cfg.FilterSettings(), open, host.Options{
		FPS:    cfg.Render.FPS,
		Width:  cfg.Render.Width,
		Height: cfg.Render.Height,
		Bridge: telemetry.Options{QueueSize: cfg.Telemetry.QueueSize, Logger: log},
		Logger: log,
	})
	if err != nil {
		return nil, err
	}

	return &Daemon{
		opts:   opts,
		log:    log.WithField("component", "daemon"),
		runner: runner,
		cfg:    &cfg,
	}, nil
}

// Run blocks until ctx is done or a component fails.
func (d *Daemon) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	if !d.opts.DisableIPC {
		var srv *ipc.Server
		if d.opts.SocketPath != "" {
			srv = ipc.NewServerAt(d.opts.SocketPath, d, d.opts.Logger)
		} else {
			var err error
			if srv, err = ipc.NewServer(d, d.opts.Logger); err != nil {
				d.runner.Close()
				return err
			}
		}
		if err := srv.Start(); err != nil {
			d.runner.Close()
			return err
		}
		g.Go(func() error {
			<-gctx.Done()
			srv.Stop()
			return nil
		})
	}

	g.Go(func() error {
		return d.runner.Run(gctx)
	})

	if d.opts.Watch && d.opts.ConfigPath != "" {
		g.Go(func() error {
			return config.Watch(gctx, d.opts.ConfigPath, d.opts.Logger, d.apply)
		})
	}

	if d.opts.Signals != nil {
		g.Go(func() error {
			d.handleSignals(gctx)
			return nil
		})
	}

	if hk := d.Config().Hotkeys; hk.Enabled() {
		if h := d.openHotkeys(hk); h != nil {
			g.Go(func() error {
				return h.Run(gctx)
			})
		}
	}

	if d.opts.ReportInterval > 0 {
		g.Go(func() error {
			newReporter(d.runner, d.opts.ReportInterval, d.log).Run(gctx)
			return nil
		})
	}

	d.log.WithField("config", d.opts.ConfigPath).Info("scrollfocus daemon started")
	err := g.Wait()
	d.log.Info("scrollfocus daemon stopped")
	return err
}

// openHotkeys grabs the configured keys. Failures only disable hotkeys.
func (d *Daemon) openHotkeys(hk config.HotkeysConfig) *hotkeys.Handler {
	h, err := hotkeys.Open(d, d.opts.Logger)
	if err != nil {
		d.log.WithError(err).Warn("Hotkeys disabled")
		return nil
	}
	err = h.Bind(hotkeys.Bindings{
		ZoomIn:    hk.ZoomIn,
		ZoomOut:   hk.ZoomOut,
		ZoomReset: hk.ZoomReset,
		Step:      hk.Step,
	})
	if err != nil {
		d.log.WithError(err).Warn("Hotkeys disabled")
		h.Close()
		return nil
	}
	return h
}

func (d *Daemon) handleSignals(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case sig := <-d.opts.Signals:
			if sig != syscall.SIGHUP {
				continue
			}
			d.log.Info("Received SIGHUP, reloading config")
			if err := d.Reload(); err != nil {
				d.log.WithError(err).Warn("Config reload failed")
			}
		}
	}
}

// Status returns the runner's last published status.
func (d *Daemon) Status() host.Status {
	return d.runner.Status()
}

// Zoom returns the configured zoom, including changes not yet rendered.
func (d *Daemon) Zoom() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cfg.Filter.Zoom
}

// SetZoom queues a zoom change for the next frame and optionally writes it
// to the config file. A failed write returns the applied zoom and an error
// wrapping ipc.ErrNotPersisted.
func (d *Daemon) SetZoom(zoom float64, persist bool) (float64, error) {
	zoom = focus.ClampZoom(zoom)

	d.mu.Lock()
	defer d.mu.Unlock()

	next := *d.cfg
	next.Filter.Zoom = zoom
	if err := d.runner.Apply(host.Update{Settings: next.FilterSettings()}); err != nil {
		return 0, err
	}
	d.cfg = &next

	if persist {
		if d.opts.ConfigPath == "" {
			return zoom, fmt.Errorf("%w: no config path", ipc.ErrNotPersisted)
		}
		if err := d.persistZoom(zoom); err != nil {
			return zoom, fmt.Errorf("%w: %v", ipc.ErrNotPersisted, err)
		}
	}
	return zoom, nil
}

// persistZoom rewrites only the zoom in the file on disk, so live changes
// made elsewhere are not written back.
func (d *Daemon) persistZoom(zoom float64) error {
	res, err := config.LoadFromPath(d.opts.ConfigPath)
	if err != nil {
		return err
	}
	res.Config.Filter.Zoom = zoom
	return res.Config.SaveTo(d.opts.ConfigPath)
}

// Reload re-reads the config file and applies it.
func (d *Daemon) Reload() error {
	if d.opts.ConfigPath == "" {
		return fmt.Errorf("no config file to reload")
	}
	res, err := config.LoadFromPath(d.opts.ConfigPath)
	if err != nil {
		return err
	}
	d.apply(res.Config)
	return nil
}

// Config returns a copy of the live configuration.
func (d *Daemon) Config() config.Config {
	d.mu.Lock()
	defer d.mu.Unlock()
	return *d.cfg
}

// apply pushes filter and render changes to the runner. Telemetry changes
// need a restart; they are recorded but only logged.
func (d *Daemon) apply(next *config.Config) {
	d.mu.Lock()
	defer d.mu.Unlock()

	prev := d.cfg
	u := host.Update{Settings: next.FilterSettings()}
	if next.Render.Width != prev.Render.Width || next.Render.Height != prev.Render.Height {
		u.Width, u.Height = next.Render.Width, next.Render.Height
	}
	if err := d.runner.Apply(u); err != nil {
		d.log.WithError(err).Warn("Failed to apply config")
		return
	}
	if next.Telemetry != prev.Telemetry || next.Render.FPS != prev.Render.FPS || next.Hotkeys != prev.Hotkeys {
		d.log.Warn("Telemetry, fps and hotkey changes take effect after restart")
	}
	if lvl, err := logrus.ParseLevel(next.LogLevel); err == nil {
		if l, ok := d.opts.Logger.(*logrus.Logger); ok {
			l.SetLevel(lvl)
		}
	}

	cp := *next
	d.cfg = &cp
	d.log.WithFields(logrus.Fields{
		"zoom":      next.Filter.Zoom,
		"smoothing": next.Filter.Smoothing,
	}).Info("Config applied")
}

// Close releases the filter instance when Run was never called.
func (d *Daemon) Close() {
	d.runner.Close()
}
