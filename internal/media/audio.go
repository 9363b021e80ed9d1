package media

import (
	"fmt"
	"unsafe"
)

// AudioInfo describes an audio output.
type AudioInfo struct {
	SampleRate int
	Channels   int
}

// AudioView is a bounds-checked view over planar float audio owned by the
// host.
type AudioView struct {
	frames   int
	channels [][]float32
}

// NewAudioView wraps per-channel sample buffers holding at least frames
// samples each.
func NewAudioView(frames int, channels [][]float32) (*AudioView, error) {
	if frames < 0 {
		return nil, fmt.Errorf("negative frame count %d", frames)
	}
	view := &AudioView{
		frames:   frames,
		channels: make([][]float32, len(channels)),
	}
	for i, ch := range channels {
		if ch == nil {
			// Hosts leave unused channel pointers nil.
			continue
		}
		if len(ch) < frames {
			return nil, fmt.Errorf("channel %d has %d samples, need %d", i, len(ch), frames)
		}
		view.channels[i] = ch[:frames:frames]
	}
	return view, nil
}

func (a *AudioView) Frames() int   { return a.frames }
func (a *AudioView) Channels() int { return len(a.channels) }

// Channel returns the samples of channel idx. ok is false when idx is out
// of range or the host did not supply that channel.
func (a *AudioView) Channel(idx int) ([]float32, bool) {
	if idx < 0 || idx >= len(a.channels) || a.channels[idx] == nil {
		return nil, false
	}
	return a.channels[idx], true
}

// BytesAt wraps n bytes of host memory at ptr. The slice must not be
// retained past the callback that supplied ptr.
func BytesAt(ptr unsafe.Pointer, n int) []byte {
	if ptr == nil || n <= 0 {
		return nil
	}
	return unsafe.Slice((*byte)(ptr), n)
}

// SamplesAt wraps n float samples of host memory at ptr. Same lifetime rule
// as BytesAt.
func SamplesAt(ptr unsafe.Pointer, n int) []float32 {
	if ptr == nil || n <= 0 {
		return nil
	}
	return unsafe.Slice((*float32)(ptr), n)
}
