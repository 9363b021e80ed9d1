package ipc

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/1broseidon/scrollfocus/internal/host"
	"github.com/1broseidon/scrollfocus/internal/runtimepath"
)

// Backend is the daemon state the server exposes.
type Backend interface {
	Status() host.Status
	// SetZoom queues a zoom change and returns the value that will be
	// rendered.
	SetZoom(zoom float64, persist bool) (float64, error)
	Reload() error
}

// Server handles IPC requests from clients
type Server struct {
	socketPath   string
	listener     net.Listener
	backend      Backend
	log          logrus.FieldLogger
	startTime    time.Time
	wg           sync.WaitGroup
	shuttingDown bool
	shutdownMu   sync.Mutex
}

// NewServer creates a server on the default runtime socket.
func NewServer(backend Backend, log logrus.FieldLogger) (*Server, error) {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve IPC socket path: %w", err)
	}
	return NewServerAt(socketPath, backend, log), nil
}

// NewServerAt creates a server listening on socketPath.
func NewServerAt(socketPath string, backend Backend, log logrus.FieldLogger) *Server {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Server{
		socketPath: socketPath,
		backend:    backend,
		log:        log.WithField("component", "ipc"),
		startTime:  time.Now(),
	}
}

// SocketPath returns the path the server listens on.
func (s *Server) SocketPath() string {
	return s.socketPath
}

// ErrAlreadyRunning is returned by Start when another server answers on the
// socket.
var ErrAlreadyRunning = errors.New("ipc: another daemon is listening on the socket")

// Start begins listening for IPC connections. A socket left behind by a
// dead process is replaced; a live one is left alone.
func (s *Server) Start() error {
	if conn, err := net.DialTimeout("unix", s.socketPath, 500*time.Millisecond); err == nil {
		conn.Close()
		return fmt.Errorf("%w: %s", ErrAlreadyRunning, s.socketPath)
	}
	if err := os.Remove(s.socketPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove stale socket: %w", err)
	}

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create IPC socket: %w", err)
	}
	s.listener = listener

	if err := os.Chmod(s.socketPath, 0600); err != nil {
		listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	s.log.WithField("socket", s.socketPath).Info("IPC server listening")

	s.wg.Add(1)
	go s.acceptLoop()
	return nil
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.stopping() {
				return
			}
			s.log.WithError(err).Warn("IPC accept error")
			time.Sleep(10 * time.Millisecond)
			continue
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConnection(conn)
		}()
	}
}

func (s *Server) stopping() bool {
	s.shutdownMu.Lock()
	defer s.shutdownMu.Unlock()
	return s.shuttingDown
}

// handleConnection serves one newline-terminated request.
func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(5 * time.Second))

	reader := bufio.NewReader(conn)
	data, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		s.log.WithError(err).Debug("IPC read error")
		return
	}

	req, err := ParseRequest(data)
	if err != nil {
		s.writeResponse(conn, NewErrorResponse(fmt.Sprintf("Invalid request: %v", err)))
		return
	}

	s.log.WithField("command", req.Command).Debug("IPC request")
	s.writeResponse(conn, s.handleCommand(req))
}

func (s *Server) handleCommand(req *Request) *Response {
	switch req.Command {
	case CommandGetStatus:
		return s.handleGetStatus()
	case CommandSetZoom:
		return s.handleSetZoom(req.Payload)
	case CommandReload:
		return s.handleReload()
	case CommandGetLayout:
		return s.handleGetLayout(req.Payload)
	default:
		return NewErrorResponse(fmt.Sprintf("Unknown command: %s", req.Command))
	}
}

func (s *Server) handleGetStatus() *Response {
	data := StatusData{
		Status:        s.backend.Status(),
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		DaemonRunning: true,
	}
	return okOrError(data)
}

func (s *Server) handleSetZoom(payload json.RawMessage) *Response {
	var req SetZoomPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid zoom payload: %v", err))
	}

	zoom, err := s.backend.SetZoom(req.Zoom, req.Persist)
	if errors.Is(err, ErrNotPersisted) {
		s.log.WithError(err).WithField("zoom", zoom).Warn("Zoom changed over IPC but not saved")
		return okOrError(ZoomData{Zoom: zoom, Warning: err.Error()})
	}
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to set zoom: %v", err))
	}
	s.log.WithFields(logrus.Fields{"zoom": zoom, "persist": req.Persist}).Info("Zoom changed over IPC")
	return okOrError(ZoomData{Zoom: zoom, Persisted: req.Persist})
}

func (s *Server) handleReload() *Response {
	s.log.Info("Received RELOAD command")
	if err := s.backend.Reload(); err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to reload config: %v", err))
	}
	return okOrError(nil)
}

func (s *Server) handleGetLayout(payload json.RawMessage) *Response {
	var req LayoutPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid layout payload: %v", err))
	}
	data, err := ComputeLayout(req)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return okOrError(data)
}

func okOrError(data interface{}) *Response {
	resp, err := NewOKResponse(data)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return resp
}

func (s *Server) writeResponse(conn net.Conn, resp *Response) {
	data, err := resp.Marshal()
	if err != nil {
		s.log.WithError(err).Warn("Failed to marshal response")
		return
	}
	data = append(data, '\n')
	if _, err := conn.Write(data); err != nil {
		s.log.WithError(err).Debug("Failed to send response")
	}
}

// Stop closes the listener, waits for in-flight requests and removes the
// socket.
func (s *Server) Stop() {
	s.shutdownMu.Lock()
	if s.shuttingDown {
		s.shutdownMu.Unlock()
		return
	}
	s.shuttingDown = true
	s.shutdownMu.Unlock()

	// A server that never listened does not own the socket path.
	if s.listener == nil {
		return
	}
	s.listener.Close()
	s.wg.Wait()
	os.Remove(s.socketPath)
}
