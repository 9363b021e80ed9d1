package ipc

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/1broseidon/scrollfocus/internal/framelayout"
	"github.com/1broseidon/scrollfocus/internal/host"
)

// CommandType represents different IPC command types
type CommandType string

const (
	CommandGetStatus CommandType = "GET_STATUS"
	CommandSetZoom   CommandType = "SET_ZOOM"
	CommandReload    CommandType = "RELOAD"
	CommandGetLayout CommandType = "GET_LAYOUT"
)

const (
	StatusOK    = "OK"
	StatusError = "ERROR"
)

// Request represents an IPC request from client to server
type Request struct {
	Command CommandType     `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response represents an IPC response from server to client
type Response struct {
	Status string          `json:"status"` // "OK" or "ERROR"
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// StatusData is returned by GET_STATUS.
type StatusData struct {
	host.Status
	UptimeSeconds int64 `json:"uptime_seconds"`
	DaemonRunning bool  `json:"daemon_running"`
}

type SetZoomPayload struct {
	Zoom float64 `json:"zoom"`
	// Persist writes the new zoom to the config file.
	Persist bool `json:"persist,omitempty"`
}

// ErrNotPersisted wraps a SetZoom error where the zoom was applied but could
// not be written to the config file.
var ErrNotPersisted = errors.New("zoom applied but not saved")

// ZoomData echoes the zoom the daemon will render with after clamping.
type ZoomData struct {
	Zoom      float64 `json:"zoom"`
	Persisted bool    `json:"persisted"`
	// Warning is set when the zoom is live but saving it failed.
	Warning string `json:"warning,omitempty"`
}

type LayoutPayload struct {
	Format string `json:"format"`
	Width  uint32 `json:"width"`
	Height uint32 `json:"height"`
}

// LayoutData is the plane layout of one frame. Known is false when the
// extent cannot be determined, in which case Planes and Total are empty.
type LayoutData struct {
	Format string `json:"format"`
	Width  uint32 `json:"width"`
	Height uint32 `json:"height"`
	Kind   string `json:"kind"`
	Known  bool   `json:"known"`
	Planes []int  `json:"planes,omitempty"`
	Total  int    `json:"total"`
}

// ComputeLayout answers a GET_LAYOUT payload. It needs no daemon state, so
// clients without a running daemon call it directly. Format is a name or a
// numeric format token; tokens outside the enumeration give Known=false.
func ComputeLayout(p LayoutPayload) (*LayoutData, error) {
	format, err := framelayout.ParsePixelFormat(p.Format)
	if err != nil {
		n, convErr := strconv.Atoi(strings.TrimSpace(p.Format))
		if convErr != nil {
			return nil, err
		}
		format = framelayout.PixelFormat(n)
	}
	l := framelayout.FrameSize(format, p.Width, p.Height)
	data := &LayoutData{
		Format: format.String(),
		Width:  p.Width,
		Height: p.Height,
		Kind:   l.Kind.String(),
		Known:  l.Known(),
	}
	if planes, ok := l.Planes(); ok && len(planes) > 0 {
		data.Planes = planes
	}
	if total, ok := l.Total(); ok {
		data.Total = total
	}
	return data, nil
}

// NewOKResponse creates a successful response with optional data
func NewOKResponse(data interface{}) (*Response, error) {
	var dataBytes json.RawMessage
	if data != nil {
		bytes, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response data: %w", err)
		}
		dataBytes = bytes
	}

	return &Response{
		Status: StatusOK,
		Data:   dataBytes,
	}, nil
}

// NewErrorResponse creates an error response with a message
func NewErrorResponse(errMsg string) *Response {
	return &Response{
		Status: StatusError,
		Error:  errMsg,
	}
}

// ParseRequest parses a request from JSON bytes
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	if req.Command == "" {
		return nil, fmt.Errorf("failed to parse request: missing command")
	}
	return &req, nil
}

// Marshal converts a response to JSON bytes
func (r *Response) Marshal() ([]byte, error) {
	return json.Marshal(r)
}
