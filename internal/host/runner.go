// Package host drives a filter instance the way a video host would: one
// media goroutine ticks and renders it at a fixed frame rate, and every
// other goroutine talks to it through a channel.
package host

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/1broseidon/scrollfocus/internal/filter"
	"github.com/1broseidon/scrollfocus/internal/focus"
	"github.com/1broseidon/scrollfocus/internal/telemetry"
)

const (
	DefaultFPS    = 60
	updateBacklog = 16
)

var (
	// ErrBusy means the update queue is full.
	ErrBusy = errors.New("host: update queue full")
	// ErrStopped means the media goroutine has exited.
	ErrStopped = errors.New("host: runner stopped")
)

// Options configures a Runner.
type Options struct {
	FPS           int
	Width, Height uint32
	Bridge        telemetry.Options
	Logger        logrus.FieldLogger
}

// Update is a change requested from outside the media goroutine.
type Update struct {
	Settings filter.Settings
	// Width and Height resize the upstream source when both are non-zero.
	Width, Height uint32
}

// Status is an immutable snapshot published after every frame.
type Status struct {
	Instance     string                `json:"instance"`
	Running      bool                  `json:"running"`
	Frames       uint64                `json:"frames"`
	RenderErrors uint64                `json:"render_errors"`
	Width        uint32                `json:"width"`
	Height       uint32                `json:"height"`
	Focus        focus.State           `json:"focus"`
	Params       map[string]focus.Vec2 `json:"params"`
	Telemetry    telemetry.Stats       `json:"telemetry"`
	StartedAt    time.Time             `json:"started_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
}

// Runner owns one filter instance.
type Runner struct {
	filter  *filter.Filter
	target  *Target
	effects *EffectLoader
	fps     int
	log     logrus.FieldLogger

	updates chan Update
	done    chan struct{}
	claimed atomic.Bool
	status  atomic.Pointer[Status]

	frames       uint64
	renderErrors uint64
	running      bool
	startedAt    time.Time
}

// New creates the filter instance. Creation failures are returned as they
// come from filter.Create.
func New(settings filter.Settings, open telemetry.Opener, opts Options) (*Runner, error) {
	if opts.FPS <= 0 {
		opts.FPS = DefaultFPS
	}
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	r := &Runner{
		target:    NewTarget(opts.Width, opts.Height),
		effects:   &EffectLoader{},
		fps:       opts.FPS,
		updates:   make(chan Update, updateBacklog),
		done:      make(chan struct{}),
		startedAt: time.Now(),
	}

	f, err := filter.Create(settings, filter.Deps{
		Effects:   r.effects,
		Target:    r.target,
		Telemetry: open,
		Bridge:    opts.Bridge,
		Logger:    log,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create filter: %w", err)
	}
	r.filter = f
	r.log = log.WithField("instance", f.ID().String())
	r.publish(r.startedAt)
	return r, nil
}

// Run ticks and renders until ctx is done, then destroys the filter. It
// may be called once.
func (r *Runner) Run(ctx context.Context) error {
	if !r.claimed.CompareAndSwap(false, true) {
		return ErrStopped
	}
	defer close(r.done)
	defer r.filter.Destroy()

	interval := time.Second / time.Duration(r.fps)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	r.running = true
	r.log.WithFields(logrus.Fields{
		"fps":    r.fps,
		"width":  r.target.width,
		"height": r.target.height,
	}).Info("Render loop started")

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			r.running = false
			r.publish(time.Now())
			r.log.WithField("frames", r.frames).Info("Render loop stopped")
			return nil
		case now := <-ticker.C:
			r.frame(now.Sub(last).Seconds(), now)
			last = now
		}
	}
}

// Close destroys the filter when Run was never started.
func (r *Runner) Close() {
	if r.claimed.CompareAndSwap(false, true) {
		close(r.done)
		r.filter.Destroy()
	}
}

func (r *Runner) frame(dt float64, now time.Time) {
	r.drainUpdates()

	r.filter.Tick(dt)
	if err := r.filter.Render(); err != nil {
		r.renderErrors++
		r.log.WithError(err).Debug("Render skipped")
	}
	r.frames++
	r.publish(now)
}

func (r *Runner) drainUpdates() {
	for {
		select {
		case u := <-r.updates:
			r.apply(u)
		default:
			return
		}
	}
}

func (r *Runner) apply(u Update) {
	if u.Settings != nil {
		r.filter.Update(u.Settings)
	}
	if u.Width > 0 && u.Height > 0 {
		r.target.Resize(u.Width, u.Height)
	}
	r.log.WithFields(logrus.Fields{
		"zoom":   r.filter.State().Zoom,
		"width":  r.target.width,
		"height": r.target.height,
	}).Debug("Settings applied")
}

// Apply queues u for the next frame. It never blocks.
func (r *Runner) Apply(u Update) error {
	select {
	case <-r.done:
		return ErrStopped
	default:
	}
	select {
	case r.updates <- u:
		return nil
	default:
		return ErrBusy
	}
}

// Status returns the last published status. Safe from any goroutine.
func (r *Runner) Status() Status {
	return *r.status.Load()
}

// Done is closed once the filter has been destroyed.
func (r *Runner) Done() <-chan struct{} {
	return r.done
}

func (r *Runner) publish(now time.Time) {
	var params map[string]focus.Vec2
	if e := r.effects.Loaded(); e != nil {
		params = e.Values()
	}
	w, h := r.target.BaseSize()
	r.status.Store(&Status{
		Instance:     r.filter.ID().String(),
		Running:      r.running,
		Frames:       r.frames,
		RenderErrors: r.renderErrors,
		Width:        w,
		Height:       h,
		Focus:        r.filter.State(),
		Params:       params,
		Telemetry:    r.filter.TelemetryStats(),
		StartedAt:    r.startedAt,
		UpdatedAt:    now,
	})
}
