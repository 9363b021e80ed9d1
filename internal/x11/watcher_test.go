package x11

import (
	"testing"
	"time"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{in: "", want: ModeWindow},
		{in: "window", want: ModeWindow},
		{in: " Pointer ", want: ModePointer},
		{in: "monitor", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMode(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOpenWatcher_RejectsModeBeforeConnecting(t *testing.T) {
	_, err := OpenWatcher(WatchOptions{Mode: "bogus"})
	assert.ErrorContains(t, err, "unknown telemetry mode")
}

func TestClassify(t *testing.T) {
	const (
		root   = xproto.Window(1)
		active = xproto.Window(0x2a00004)
		other  = xproto.Window(0x2a00009)
		atom   = xproto.Atom(301)
	)
	w := &Watcher{root: root, active: active, activeAtom: atom}

	tests := []struct {
		name string
		ev   xgb.Event
		want eventKind
	}{
		{"active window property on root", xproto.PropertyNotifyEvent{Window: root, Atom: atom}, eventRetarget},
		{"other property on root", xproto.PropertyNotifyEvent{Window: root, Atom: atom + 1}, eventIgnored},
		{"active property on other window", xproto.PropertyNotifyEvent{Window: other, Atom: atom}, eventIgnored},
		{"root resized", xproto.ConfigureNotifyEvent{Window: root, Width: 2560, Height: 1440}, eventRootResized},
		{"active moved", xproto.ConfigureNotifyEvent{Window: active}, eventMoved},
		{"other moved", xproto.ConfigureNotifyEvent{Window: other}, eventIgnored},
		{"active destroyed", xproto.DestroyNotifyEvent{Window: active}, eventRetarget},
		{"active unmapped", xproto.UnmapNotifyEvent{Window: active}, eventRetarget},
		{"other unmapped", xproto.UnmapNotifyEvent{Window: other}, eventIgnored},
		{"unrelated event", xproto.KeyPressEvent{}, eventIgnored},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, w.classify(tt.ev))
		})
	}
}

func TestClassify_NoActiveWindow(t *testing.T) {
	w := &Watcher{root: 1, activeAtom: 7}
	assert.Equal(t, eventIgnored, w.classify(xproto.ConfigureNotifyEvent{Window: 0}))
	assert.Equal(t, eventIgnored, w.classify(xproto.DestroyNotifyEvent{Window: 0}))
}

func TestSnapshotFrom(t *testing.T) {
	at := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)
	s := snapshotFrom(Rect{X: 100, Y: 500, Width: 300, Height: 200}, 1000, 1000, 0x400001, at)

	assert.Equal(t, 100.0, s.X)
	assert.Equal(t, 500.0, s.Y)
	assert.Equal(t, 300.0, s.Width)
	assert.Equal(t, 200.0, s.Height)
	assert.Equal(t, 1000.0, s.RootWidth)
	assert.Equal(t, 1000.0, s.RootHeight)
	assert.Equal(t, uint32(0x400001), s.Window)
	assert.True(t, at.Equal(s.At))
}

func TestMonitorFor(t *testing.T) {
	monitors := []Monitor{
		{ID: 0, Name: "DP-1", Width: 1920, Height: 1080},
		{ID: 1, Name: "HDMI-1", X: 1920, Width: 2560, Height: 1440},
	}

	got := MonitorFor(monitors, Rect{X: 1800, Y: 10, Width: 400, Height: 300})
	require.NotNil(t, got)
	assert.Equal(t, "HDMI-1", got.Name)

	got = MonitorFor(monitors, Rect{X: 0, Y: 0, Width: 10, Height: 10})
	require.NotNil(t, got)
	assert.Equal(t, "DP-1", got.Name)

	assert.Nil(t, MonitorFor(monitors, Rect{X: 0, Y: 2000}))
}

func TestPollWindow_BusyQueueHonoursDeadline(t *testing.T) {
	logger, _ := test.NewNullLogger()
	polls := 0
	w := &Watcher{
		root: 1,
		opts: WatchOptions{Mode: ModeWindow, PollInterval: 20 * time.Millisecond},
		log:  logger,
		poll: func() (xgb.Event, xgb.Error) {
			polls++
			return xproto.KeyPressEvent{}, nil
		},
	}

	done := make(chan bool, 1)
	go func() {
		_, ok := w.pollWindow()
		done <- ok
	}()

	select {
	case ok := <-done:
		assert.False(t, ok)
		assert.Greater(t, polls, 0)
	case <-time.After(2 * time.Second):
		t.Fatal("pollWindow never returned while events kept arriving")
	}
}

func TestPollWindow_EmptyQueueTimesOut(t *testing.T) {
	logger, _ := test.NewNullLogger()
	w := &Watcher{
		root: 1,
		opts: WatchOptions{Mode: ModeWindow, PollInterval: 10 * time.Millisecond},
		log:  logger,
		poll: func() (xgb.Event, xgb.Error) { return nil, nil },
	}

	start := time.Now()
	_, ok := w.pollWindow()
	assert.False(t, ok)
	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
}
