package hotkeys

import (
	"errors"
	"testing"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1broseidon/scrollfocus/internal/focus"
)

type fakeZoomer struct {
	zoom  float64
	calls []float64
	err   error
}

func (f *fakeZoomer) Zoom() float64 { return f.zoom }

func (f *fakeZoomer) SetZoom(zoom float64, persist bool) (float64, error) {
	f.calls = append(f.calls, zoom)
	if f.err != nil {
		return 0, f.err
	}
	f.zoom = focus.ClampZoom(zoom)
	return f.zoom, nil
}

func TestHandler_Adjust(t *testing.T) {
	logger, _ := test.NewNullLogger()
	z := &fakeZoomer{zoom: 1}
	h := newHandler(nil, z, logger)

	h.adjust(0.1)
	h.adjust(0.1)
	assert.Equal(t, 1.2, z.zoom)

	h.adjust(-2)
	assert.Equal(t, 0.0, z.zoom)

	h.set(1)
	assert.Equal(t, []float64{1.1, 1.2, -0.8, 1}, z.calls)
}

func TestHandler_SetLogsFailure(t *testing.T) {
	logger, hook := test.NewNullLogger()
	z := &fakeZoomer{zoom: 1, err: errors.New("busy")}
	h := newHandler(nil, z, logger)

	h.adjust(0.5)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "Hotkey zoom failed", hook.LastEntry().Message)
	assert.Equal(t, 1.0, z.zoom)
}

func TestBind_RejectsBadStep(t *testing.T) {
	h := newHandler(nil, &fakeZoomer{}, nil)
	assert.Error(t, h.Bind(Bindings{ZoomIn: "Mod4-equal"}))
}

func TestIgnoreMasks(t *testing.T) {
	caps := uint16(xproto.ModMaskLock)
	num := uint16(xproto.ModMask2)

	assert.Equal(t, []uint16{0, caps}, ignoreMasks([]uint16{caps}))
	assert.ElementsMatch(t, []uint16{0, caps, num, caps | num}, ignoreMasks([]uint16{caps, num}))
}
