package daemon

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/1broseidon/scrollfocus/internal/host"
)

type statusSource interface {
	Status() host.Status
}

// reporter periodically logs frame and telemetry counters, and warns when
// snapshots were dropped since the last report.
type reporter struct {
	interval time.Duration
	src      statusSource
	log      logrus.FieldLogger

	last host.Status
}

func newReporter(src statusSource, interval time.Duration, log logrus.FieldLogger) *reporter {
	if interval <= 0 {
		interval = time.Minute
	}
	return &reporter{interval: interval, src: src, log: log}
}

// Run blocks until ctx is cancelled.
func (r *reporter) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.last = r.src.Status()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.report()
		}
	}
}

func (r *reporter) report() {
	cur := r.src.Status()
	fields := logrus.Fields{
		"frames":        cur.Frames - r.last.Frames,
		"render_errors": cur.RenderErrors - r.last.RenderErrors,
		"delivered":     cur.Telemetry.Delivered - r.last.Telemetry.Delivered,
		"dropped":       cur.Telemetry.Dropped - r.last.Telemetry.Dropped,
		"zoom":          cur.Focus.Zoom,
	}
	if cur.Telemetry.Dropped > r.last.Telemetry.Dropped {
		r.log.WithFields(fields).Warn("Telemetry snapshots dropped")
	} else {
		r.log.WithFields(fields).Debug("Status")
	}
	r.last = cur
}
