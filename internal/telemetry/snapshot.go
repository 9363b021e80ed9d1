// Package telemetry relays window focus snapshots from a blocking OS source
// to the render thread.
//
// A Bridge owns one worker goroutine. The worker waits on a Source and
// forwards each snapshot on a bounded data channel; a separate control
// channel carries the shutdown request back the other way. The consumer
// only ever performs non-blocking drains.
package telemetry

import (
	"errors"
	"time"
)

// ErrSourceUnavailable is returned when the telemetry source cannot be
// opened by the worker.
var ErrSourceUnavailable = errors.New("telemetry source unavailable")

// Snapshot is one observed focus rectangle plus the full capturable area,
// in source pixel coordinates.
type Snapshot struct {
	X      float64 `msgpack:"x" json:"x"`
	Y      float64 `msgpack:"y" json:"y"`
	Width  float64 `msgpack:"w" json:"width"`
	Height float64 `msgpack:"h" json:"height"`

	RootWidth  float64 `msgpack:"rw" json:"root_width"`
	RootHeight float64 `msgpack:"rh" json:"root_height"`

	// Window is the OS window the rectangle belongs to, 0 if none.
	Window uint32    `msgpack:"win" json:"window,omitempty"`
	At     time.Time `msgpack:"at" json:"at"`
}

// MessageKind tags messages on the data channel.
type MessageKind int

const (
	MessageSnapshot MessageKind = iota
)

// Message travels from the worker to the consumer.
type Message struct {
	Kind     MessageKind
	Snapshot Snapshot
}

// Control travels from the owner to the worker.
type Control int

const (
	// CloseConnection makes the worker exit unconditionally.
	CloseConnection Control = iota
)

// Source produces snapshots. WaitForEvent may block, but a single call
// should return within the source's own poll interval so the worker gets
// to check its control channel; ok is false when nothing changed.
type Source interface {
	WaitForEvent() (snapshot Snapshot, ok bool)
	Close() error
}

// Opener creates the Source on the worker goroutine.
type Opener func() (Source, error)
