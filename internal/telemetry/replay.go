package telemetry

import (
	"fmt"
	"os"
	"time"
)

// DefaultPollInterval bounds a single WaitForEvent call of the sources in
// this module.
const DefaultPollInterval = 50 * time.Millisecond

// ReplayOptions configures a Replay source.
type ReplayOptions struct {
	// Speed scales playback; 2 plays twice as fast. Zero means 1.
	Speed float64
	// Loop restarts from the first snapshot at the end of the recording.
	Loop         bool
	PollInterval time.Duration
}

// Replay is a Source that plays back a recording with its original timing.
type Replay struct {
	snapshots []Snapshot
	opts      ReplayOptions

	idx   int
	start time.Time

	now   func() time.Time
	sleep func(time.Duration)
}

// OpenReplay loads a recording file.
func OpenReplay(path string, opts ReplayOptions) (*Replay, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open recording: %w", err)
	}
	defer f.Close()

	snapshots, err := ReadRecording(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read recording %s: %w", path, err)
	}
	return NewReplay(snapshots, opts)
}

// NewReplay plays back snapshots in order.
func NewReplay(snapshots []Snapshot, opts ReplayOptions) (*Replay, error) {
	if opts.Speed < 0 {
		return nil, fmt.Errorf("invalid replay speed %.2f", opts.Speed)
	}
	if opts.Speed == 0 {
		opts.Speed = 1
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}

	return &Replay{
		snapshots: snapshots,
		opts:      opts,
		now:       time.Now,
		sleep:     time.Sleep,
	}, nil
}

// WaitForEvent returns the next snapshot once it is due. It never sleeps
// longer than the poll interval.
func (r *Replay) WaitForEvent() (Snapshot, bool) {
	if r.start.IsZero() {
		r.start = r.now()
	}

	if r.idx >= len(r.snapshots) {
		if !r.opts.Loop || len(r.snapshots) == 0 {
			r.sleep(r.opts.PollInterval)
			return Snapshot{}, false
		}
		r.idx = 0
		r.start = r.now()
	}

	next := r.snapshots[r.idx]
	offset := next.At.Sub(r.snapshots[0].At)
	if offset < 0 {
		offset = 0
	}
	due := r.start.Add(time.Duration(float64(offset) / r.opts.Speed))

	wait := due.Sub(r.now())
	if wait > r.opts.PollInterval {
		r.sleep(r.opts.PollInterval)
		return Snapshot{}, false
	}
	if wait > 0 {
		r.sleep(wait)
	}

	r.idx++
	return next, true
}

// Remaining returns how many snapshots are left in the current pass.
func (r *Replay) Remaining() int {
	return len(r.snapshots) - r.idx
}

func (r *Replay) Close() error {
	return nil
}
