package telemetry

import (
	"fmt"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// DefaultQueueSize bounds the data channel when Options.QueueSize is unset.
const DefaultQueueSize = 64

// Options configures a Bridge.
type Options struct {
	// QueueSize bounds the data channel. When it is full the oldest pending
	// snapshot is dropped; the consumer only applies the newest one anyway.
	QueueSize int
	Logger    logrus.FieldLogger
}

// Stats are cumulative bridge counters.
type Stats struct {
	Delivered uint64 `json:"delivered"`
	Dropped   uint64 `json:"dropped"`
	Pending   int    `json:"pending"`
}

// Bridge connects one telemetry worker goroutine to its owner.
//
// Stop must be called exactly once, before the owner is released.
type Bridge struct {
	control chan Control
	data    chan Message
	done    chan struct{}

	stopped   atomic.Bool
	delivered atomic.Uint64
	dropped   atomic.Uint64

	log logrus.FieldLogger
}

// Start spawns the worker and blocks until it has opened its source. A
// source that fails to open is fatal: Start returns the error and no
// goroutine is left running.
func Start(open Opener, opts Options) (*Bridge, error) {
	if open == nil {
		return nil, fmt.Errorf("%w: no source opener", ErrSourceUnavailable)
	}

	size := opts.QueueSize
	if size <= 0 {
		size = DefaultQueueSize
	}
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	b := &Bridge{
		control: make(chan Control, 1),
		data:    make(chan Message, size),
		done:    make(chan struct{}),
		log:     log,
	}

	ready := make(chan error, 1)
	go b.run(open, ready)

	if err := <-ready; err != nil {
		<-b.done
		return nil, err
	}
	return b, nil
}

func (b *Bridge) run(open Opener, ready chan<- error) {
	defer close(b.done)

	src, err := open()
	if err == nil && src == nil {
		err = fmt.Errorf("opener returned no source")
	}
	if err != nil {
		ready <- fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
		return
	}
	defer func() {
		if err := src.Close(); err != nil {
			b.log.WithError(err).Warn("Failed to close telemetry source")
		}
	}()

	ready <- nil
	b.log.Debug("Telemetry worker started")

	for {
		if snapshot, ok := src.WaitForEvent(); ok {
			b.publish(Message{Kind: MessageSnapshot, Snapshot: snapshot})
		}

		if b.closeRequested() {
			b.log.WithFields(logrus.Fields{
				"delivered": b.delivered.Load(),
				"dropped":   b.dropped.Load(),
			}).Debug("Telemetry worker closing")
			return
		}
	}
}

// closeRequested drains every pending control message without blocking.
func (b *Bridge) closeRequested() bool {
	for {
		select {
		case msg, ok := <-b.control:
			if !ok || msg == CloseConnection {
				return true
			}
		default:
			return false
		}
	}
}

// publish enqueues msg, evicting the oldest pending message while the queue
// is full. Delivery order stays FIFO.
func (b *Bridge) publish(msg Message) {
	for {
		select {
		case b.data <- msg:
			b.delivered.Add(1)
			return
		default:
		}

		select {
		case <-b.data:
			b.dropped.Add(1)
		default:
		}
	}
}

// TryRecv returns the next pending message without blocking.
func (b *Bridge) TryRecv() (Message, bool) {
	select {
	case msg, ok := <-b.data:
		return msg, ok
	default:
		return Message{}, false
	}
}

// Messages exposes the data channel. It is closed once Stop returns.
func (b *Bridge) Messages() <-chan Message {
	return b.data
}

// Done is closed when the worker goroutine has exited.
func (b *Bridge) Done() <-chan struct{} {
	return b.done
}

// Stats returns the current counters.
func (b *Bridge) Stats() Stats {
	return Stats{
		Delivered: b.delivered.Load(),
		Dropped:   b.dropped.Load(),
		Pending:   len(b.data),
	}
}

// Stop sends one CloseConnection, waits for the worker to exit and discards
// anything still queued, so nothing is observable after it returns.
// Calling Stop twice is a lifecycle bug and panics.
func (b *Bridge) Stop() {
	if !b.stopped.CompareAndSwap(false, true) {
		panic("telemetry: bridge stopped twice")
	}

	b.control <- CloseConnection
	close(b.control)
	<-b.done

	for {
		select {
		case <-b.data:
		default:
			close(b.data)
			return
		}
	}
}
