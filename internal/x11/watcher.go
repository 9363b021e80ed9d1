package x11

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/xprop"
	"github.com/BurntSushi/xgbutil/xwindow"
	"github.com/sirupsen/logrus"

	"github.com/1broseidon/scrollfocus/internal/telemetry"
)

// Mode selects what the watcher follows.
type Mode string

const (
	// ModeWindow follows the active window.
	ModeWindow Mode = "window"
	// ModePointer follows the mouse pointer.
	ModePointer Mode = "pointer"
)

// ParseMode accepts "window", "pointer" or "" (window).
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeWindow:
		return ModeWindow, nil
	case ModePointer:
		return ModePointer, nil
	default:
		return "", fmt.Errorf("unknown telemetry mode %q (want window or pointer)", s)
	}
}

// idleStep is how long the watcher naps when the X queue is empty.
const idleStep = 5 * time.Millisecond

// WatchOptions configures OpenWatcher.
type WatchOptions struct {
	Mode         Mode
	PollInterval time.Duration
	Logger       logrus.FieldLogger
}

// Watcher is a telemetry.Source backed by the X server. It is not safe for
// concurrent use; the bridge worker owns it.
type Watcher struct {
	conn *Connection
	opts WatchOptions
	log  logrus.FieldLogger
	// poll returns the next queued X event without blocking.
	poll func() (xgb.Event, xgb.Error)

	root         xproto.Window
	activeAtom   xproto.Atom
	active       xproto.Window
	rootW, rootH int

	primed       bool
	pointerKnown bool
	lastX, lastY int
}

var _ telemetry.Source = (*Watcher)(nil)

// OpenWatcher connects to the X server and selects the input it needs.
func OpenWatcher(opts WatchOptions) (*Watcher, error) {
	mode, err := ParseMode(string(opts.Mode))
	if err != nil {
		return nil, err
	}
	opts.Mode = mode
	if opts.PollInterval <= 0 {
		opts.PollInterval = telemetry.DefaultPollInterval
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}

	conn, err := NewConnection()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		conn: conn,
		opts: opts,
		log:  opts.Logger.WithField("mode", string(mode)),
		root: conn.Root,
		poll: conn.XUtil.Conn().PollForEvent,
	}
	if err := w.init(); err != nil {
		conn.Close()
		return nil, err
	}
	return w, nil
}

func (w *Watcher) init() error {
	var err error
	w.rootW, w.rootH, err = w.conn.RootSize()
	if err != nil {
		return err
	}

	if w.opts.Mode != ModeWindow {
		return nil
	}

	w.activeAtom, err = xprop.Atm(w.conn.XUtil, "_NET_ACTIVE_WINDOW")
	if err != nil {
		return fmt.Errorf("failed to intern _NET_ACTIVE_WINDOW: %w", err)
	}

	root := xwindow.New(w.conn.XUtil, w.root)
	if err := root.Listen(xproto.EventMaskPropertyChange, xproto.EventMaskStructureNotify); err != nil {
		return fmt.Errorf("failed to select root window events: %w", err)
	}
	return nil
}

// WaitForEvent blocks for at most the poll interval.
func (w *Watcher) WaitForEvent() (telemetry.Snapshot, bool) {
	if !w.primed {
		w.primed = true
		if w.opts.Mode == ModeWindow {
			w.retarget()
			return w.sampleWindow()
		}
		return w.samplePointer()
	}

	if w.opts.Mode == ModePointer {
		return w.pollPointer()
	}
	return w.pollWindow()
}

func (w *Watcher) pollWindow() (telemetry.Snapshot, bool) {
	deadline := time.Now().Add(w.opts.PollInterval)
	dirty := false

	for {
		ev, xerr := w.poll()
		if ev == nil && xerr == nil {
			if dirty {
				return w.sampleWindow()
			}
			if !time.Now().Before(deadline) {
				return telemetry.Snapshot{}, false
			}
			time.Sleep(idleStep)
			continue
		}

		if xerr != nil {
			w.log.WithField("error", xerr.Error()).Debug("X error while watching focus")
		} else {
			switch w.classify(ev) {
			case eventRetarget:
				w.retarget()
				dirty = true
			case eventRootResized:
				e := ev.(xproto.ConfigureNotifyEvent)
				w.rootW, w.rootH = int(e.Width), int(e.Height)
				dirty = true
			case eventMoved:
				dirty = true
			}
		}

		// A busy queue must not keep the worker from its control channel.
		if !time.Now().Before(deadline) {
			if dirty {
				return w.sampleWindow()
			}
			return telemetry.Snapshot{}, false
		}
	}
}

func (w *Watcher) pollPointer() (telemetry.Snapshot, bool) {
	deadline := time.Now().Add(w.opts.PollInterval)
	for {
		if s, ok := w.samplePointer(); ok {
			return s, true
		}
		if !time.Now().Before(deadline) {
			return telemetry.Snapshot{}, false
		}
		time.Sleep(idleStep)
	}
}

type eventKind int

const (
	eventIgnored eventKind = iota
	eventRetarget
	eventRootResized
	eventMoved
)

func (w *Watcher) classify(ev xgb.Event) eventKind {
	switch e := ev.(type) {
	case xproto.PropertyNotifyEvent:
		if e.Window == w.root && e.Atom == w.activeAtom {
			return eventRetarget
		}
	case xproto.ConfigureNotifyEvent:
		if e.Window == w.root {
			return eventRootResized
		}
		if w.active != 0 && e.Window == w.active {
			return eventMoved
		}
	case xproto.DestroyNotifyEvent:
		if w.active != 0 && e.Window == w.active {
			return eventRetarget
		}
	case xproto.UnmapNotifyEvent:
		if w.active != 0 && e.Window == w.active {
			return eventRetarget
		}
	}
	return eventIgnored
}

// retarget re-reads the active window and moves StructureNotify selection to it.
func (w *Watcher) retarget() {
	win, err := w.conn.ActiveWindow()
	if err != nil {
		w.log.WithError(err).Debug("No active window")
		win = 0
	}
	if win == w.active {
		return
	}

	if w.active != 0 {
		// The old window may already be gone.
		_ = xwindow.New(w.conn.XUtil, w.active).Listen()
	}
	if win != 0 {
		if err := xwindow.New(w.conn.XUtil, win).Listen(xproto.EventMaskStructureNotify); err != nil {
			w.log.WithError(err).WithField("window", fmt.Sprintf("0x%x", uint32(win))).Debug("Failed to watch active window")
		}
	}
	w.active = win
}

func (w *Watcher) sampleWindow() (telemetry.Snapshot, bool) {
	if w.active == 0 {
		return telemetry.Snapshot{}, false
	}
	r, err := w.conn.WindowRect(w.active)
	if err != nil {
		w.log.WithError(err).Debug("Active window vanished")
		return telemetry.Snapshot{}, false
	}
	return snapshotFrom(r, w.rootW, w.rootH, w.active, time.Now()), true
}

func (w *Watcher) samplePointer() (telemetry.Snapshot, bool) {
	x, y, err := w.conn.Pointer()
	if err != nil {
		w.log.WithError(err).Debug("Pointer query failed")
		return telemetry.Snapshot{}, false
	}
	if w.pointerKnown && x == w.lastX && y == w.lastY {
		return telemetry.Snapshot{}, false
	}
	w.pointerKnown = true
	w.lastX, w.lastY = x, y
	return snapshotFrom(Rect{X: x, Y: y}, w.rootW, w.rootH, 0, time.Now()), true
}

// Close releases the X connection.
func (w *Watcher) Close() error {
	w.conn.Close()
	return nil
}

func snapshotFrom(r Rect, rootW, rootH int, win xproto.Window, at time.Time) telemetry.Snapshot {
	return telemetry.Snapshot{
		X:          float64(r.X),
		Y:          float64(r.Y),
		Width:      float64(r.Width),
		Height:     float64(r.Height),
		RootWidth:  float64(rootW),
		RootHeight: float64(rootH),
		Window:     uint32(win),
		At:         at,
	}
}
