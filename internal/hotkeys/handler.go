// Package hotkeys binds global X11 key sequences to zoom changes.
package hotkeys

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/xevent"
	"github.com/sirupsen/logrus"

	"github.com/1broseidon/scrollfocus/internal/x11"
)

// Zoomer is the daemon side of a zoom hotkey.
type Zoomer interface {
	Zoom() float64
	SetZoom(zoom float64, persist bool) (float64, error)
}

// Bindings maps key sequences in xgbutil syntax ("Mod4-equal") to zoom
// actions. Empty sequences are skipped.
type Bindings struct {
	ZoomIn    string
	ZoomOut   string
	ZoomReset string
	// Step is the zoom change per key press.
	Step float64
}

// Handler manages global keyboard shortcuts on its own X connection.
type Handler struct {
	conn   *x11.Connection
	zoomer Zoomer
	log    logrus.FieldLogger
}

var ignoreModsOnce sync.Once

// Open connects to the display and prepares key grabs.
func Open(z Zoomer, log logrus.FieldLogger) (*Handler, error) {
	conn, err := x11.NewConnection()
	if err != nil {
		return nil, err
	}
	keybind.Initialize(conn.XUtil)
	ignoreModsOnce.Do(func() {
		configureIgnoreMods(conn.XUtil)
	})
	return newHandler(conn, z, log), nil
}

func newHandler(conn *x11.Connection, z Zoomer, log logrus.FieldLogger) *Handler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Handler{conn: conn, zoomer: z, log: log.WithField("component", "hotkeys")}
}

// Bind grabs every non-empty sequence in b.
func (h *Handler) Bind(b Bindings) error {
	if b.Step <= 0 || math.IsNaN(b.Step) {
		return fmt.Errorf("invalid zoom step %g", b.Step)
	}
	actions := []struct {
		seq string
		fn  func()
	}{
		{b.ZoomIn, func() { h.adjust(b.Step) }},
		{b.ZoomOut, func() { h.adjust(-b.Step) }},
		{b.ZoomReset, func() { h.set(1) }},
	}
	for _, a := range actions {
		if a.seq == "" {
			continue
		}
		if err := h.RegisterFunc(a.seq, a.fn); err != nil {
			return fmt.Errorf("failed to register hotkey %q: %w", a.seq, err)
		}
		h.log.WithField("keys", a.seq).Info("Hotkey registered")
	}
	return nil
}

// RegisterFunc registers an arbitrary hotkey callback.
func (h *Handler) RegisterFunc(keySequence string, callback func()) error {
	return keybind.KeyPressFun(func(xu *xgbutil.XUtil, ev xevent.KeyPressEvent) {
		callback()
	}).Connect(h.conn.XUtil, h.conn.Root, keySequence, true)
}

// Run dispatches key events until ctx is done, then closes the connection.
func (h *Handler) Run(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		defer close(done)
		xevent.Main(h.conn.XUtil)
	}()

	select {
	case <-ctx.Done():
	case <-done:
		h.log.Warn("Hotkey event loop exited")
	}
	xevent.Quit(h.conn.XUtil)
	h.conn.Close()
	<-done
	return nil
}

// Close releases the connection of a handler that is not running.
func (h *Handler) Close() {
	h.conn.Close()
}

func (h *Handler) adjust(delta float64) {
	h.set(h.zoomer.Zoom() + delta)
}

func (h *Handler) set(zoom float64) {
	// Three decimals, matching the zoom slider step.
	zoom = math.Round(zoom*1000) / 1000
	got, err := h.zoomer.SetZoom(zoom, false)
	if err != nil {
		h.log.WithError(err).Warn("Hotkey zoom failed")
		return
	}
	h.log.WithField("zoom", got).Debug("Hotkey zoom")
}

func configureIgnoreMods(xu *xgbutil.XUtil) {
	// Always ignore CapsLock.
	caps := uint16(xproto.ModMaskLock)

	numLock := modMaskForKeysym(xu, "Num_Lock")
	scrollLock := modMaskForKeysym(xu, "Scroll_Lock")

	base := []uint16{caps}
	if numLock != 0 && numLock != caps {
		base = append(base, numLock)
	}
	if scrollLock != 0 && scrollLock != caps && scrollLock != numLock {
		base = append(base, scrollLock)
	}
	xevent.IgnoreMods = ignoreMasks(base)
}

// ignoreMasks returns every combination of the lock modifiers in base,
// including no modifier at all.
func ignoreMasks(base []uint16) []uint16 {
	out := make([]uint16, 0, 1<<len(base))
	for subset := 0; subset < (1 << len(base)); subset++ {
		var mask uint16
		for bit := range base {
			if subset&(1<<bit) != 0 {
				mask |= base[bit]
			}
		}
		out = append(out, mask)
	}
	return out
}

func modMaskForKeysym(xu *xgbutil.XUtil, keysym string) uint16 {
	for _, keycode := range keybind.StrToKeycodes(xu, keysym) {
		if mask := keybind.ModGet(xu, keycode); mask != 0 {
			return mask
		}
	}
	return 0
}
