package telemetry

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/vmihailenco/msgpack/v5"
)

// maxRecordSize guards against reading garbage length prefixes.
const maxRecordSize = 1 << 16

// Recorder is a Source that tees every snapshot of another Source into a
// recording stream: a 4-byte big-endian length followed by the msgpack
// encoding of the snapshot.
type Recorder struct {
	src Source
	out io.WriteCloser
	buf *bufio.Writer

	mu  sync.Mutex
	n   int
	err error
}

// NewRecorder wraps src. Closing the recorder closes both src and out.
func NewRecorder(src Source, out io.WriteCloser) *Recorder {
	return &Recorder{
		src: src,
		out: out,
		buf: bufio.NewWriter(out),
	}
}

// WaitForEvent forwards to the wrapped source and records what it returns.
func (r *Recorder) WaitForEvent() (Snapshot, bool) {
	snapshot, ok := r.src.WaitForEvent()
	if !ok {
		return snapshot, false
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err == nil {
		if err := writeRecord(r.buf, snapshot); err != nil {
			r.err = err
		} else {
			r.n++
		}
	}
	return snapshot, true
}

// Count returns the number of snapshots written so far.
func (r *Recorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.n
}

// Err returns the first write error, if any. Recording stops after it.
func (r *Recorder) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Close flushes the recording and closes both ends.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	errs := []error{r.err}
	errs = append(errs, r.buf.Flush(), r.out.Close(), r.src.Close())
	return errors.Join(errs...)
}

func writeRecord(w io.Writer, snapshot Snapshot) error {
	data, err := msgpack.Marshal(&snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	var prefix [4]byte
	binary.BigEndian.PutUint32(prefix[:], uint32(len(data)))
	if _, err := w.Write(prefix[:]); err != nil {
		return fmt.Errorf("failed to write record length: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	return nil
}

// readRecord returns io.EOF at a clean end of stream.
func readRecord(r io.Reader) (Snapshot, error) {
	var prefix [4]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return Snapshot{}, fmt.Errorf("truncated record length: %w", err)
		}
		return Snapshot{}, err
	}

	size := binary.BigEndian.Uint32(prefix[:])
	if size == 0 || size > maxRecordSize {
		return Snapshot{}, fmt.Errorf("invalid record length %d", size)
	}

	data := make([]byte, size)
	if _, err := io.ReadFull(r, data); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return Snapshot{}, fmt.Errorf("truncated record: %w", err)
	}

	var snapshot Snapshot
	if err := msgpack.Unmarshal(data, &snapshot); err != nil {
		return Snapshot{}, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return snapshot, nil
}

// ReadRecording decodes every snapshot of a recording stream.
func ReadRecording(r io.Reader) ([]Snapshot, error) {
	br := bufio.NewReader(r)
	var out []Snapshot
	for {
		snapshot, err := readRecord(br)
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, snapshot)
	}
}

// WriteRecording encodes snapshots as a recording stream.
func WriteRecording(w io.Writer, snapshots []Snapshot) error {
	bw := bufio.NewWriter(w)
	for _, s := range snapshots {
		if err := writeRecord(bw, s); err != nil {
			return err
		}
	}
	return bw.Flush()
}
