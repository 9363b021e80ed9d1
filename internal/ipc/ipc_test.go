package ipc

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1broseidon/scrollfocus/internal/focus"
	"github.com/1broseidon/scrollfocus/internal/host"
)

type fakeBackend struct {
	mu        sync.Mutex
	status    host.Status
	zooms     []float64
	persisted bool
	reloads   int
	reloadErr error
	// persistErr is returned after the zoom was applied.
	persistErr error
}

func (b *fakeBackend) Status() host.Status {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.status
}

func (b *fakeBackend) SetZoom(zoom float64, persist bool) (float64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	z := focus.ClampZoom(zoom)
	b.zooms = append(b.zooms, z)
	if persist && b.persistErr != nil {
		return z, fmt.Errorf("%w: %v", ErrNotPersisted, b.persistErr)
	}
	b.persisted = persist
	return z, nil
}

func (b *fakeBackend) Reload() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.reloads++
	return b.reloadErr
}

// Socket paths are limited to ~108 bytes, so avoid t.TempDir's long names.
func socketPath(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "sfipc")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	return filepath.Join(dir, "s.sock")
}

func startServer(t *testing.T, backend Backend) (*Server, *Client) {
	t.Helper()
	logger, _ := test.NewNullLogger()
	srv := NewServerAt(socketPath(t), backend, logger)
	require.NoError(t, srv.Start())
	t.Cleanup(srv.Stop)
	return srv, NewClientAt(srv.SocketPath())
}

func TestGetStatus(t *testing.T) {
	backend := &fakeBackend{status: host.Status{
		Instance: "abc",
		Running:  true,
		Frames:   42,
		Focus:    focus.State{Target: focus.Vec2{X: 0.25, Y: 0.65}, Zoom: 1.5},
	}}
	_, client := startServer(t, backend)

	status, err := client.GetStatus()
	require.NoError(t, err)
	assert.True(t, status.DaemonRunning)
	assert.Equal(t, "abc", status.Instance)
	assert.Equal(t, uint64(42), status.Frames)
	assert.Equal(t, focus.Vec2{X: 0.25, Y: 0.65}, status.Focus.Target)
	assert.Equal(t, 1.5, status.Focus.Zoom)
	assert.NoError(t, client.Ping())
}

func TestSetZoom(t *testing.T) {
	backend := &fakeBackend{}
	_, client := startServer(t, backend)

	data, err := client.SetZoom(5, true)
	require.NoError(t, err)
	assert.Equal(t, focus.MaxZoom, data.Zoom)
	assert.True(t, data.Persisted)

	backend.mu.Lock()
	defer backend.mu.Unlock()
	assert.Equal(t, []float64{focus.MaxZoom}, backend.zooms)
	assert.True(t, backend.persisted)
}

func TestSetZoom_AppliedButNotSaved(t *testing.T) {
	backend := &fakeBackend{persistErr: errors.New("disk full")}
	_, client := startServer(t, backend)

	data, err := client.SetZoom(1.5, true)
	require.NoError(t, err, "the zoom is live, so the call succeeds")
	assert.Equal(t, 1.5, data.Zoom)
	assert.False(t, data.Persisted)
	assert.Contains(t, data.Warning, "disk full")

	backend.mu.Lock()
	defer backend.mu.Unlock()
	assert.Equal(t, []float64{1.5}, backend.zooms)
}

func TestReload(t *testing.T) {
	backend := &fakeBackend{}
	_, client := startServer(t, backend)

	require.NoError(t, client.Reload())

	backend.mu.Lock()
	backend.reloadErr = errors.New("bad yaml")
	backend.mu.Unlock()

	err := client.Reload()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad yaml")

	backend.mu.Lock()
	defer backend.mu.Unlock()
	assert.Equal(t, 2, backend.reloads)
}

func TestGetLayout(t *testing.T) {
	_, client := startServer(t, &fakeBackend{})

	data, err := client.GetLayout("i420", 5, 3)
	require.NoError(t, err)
	assert.Equal(t, "I420", data.Format)
	assert.True(t, data.Known)
	assert.Equal(t, []int{15, 6, 6}, data.Planes)
	assert.Equal(t, 27, data.Total)

	data, err = client.GetLayout("99", 5, 3)
	require.NoError(t, err)
	assert.False(t, data.Known)
	assert.Equal(t, "unknown", data.Kind)
	assert.Empty(t, data.Planes)

	_, err = client.GetLayout("RGB565", 5, 3)
	assert.Error(t, err)
}

func TestServer_RejectsBadRequests(t *testing.T) {
	srv, _ := startServer(t, &fakeBackend{})

	send := func(line string) string {
		conn, err := net.Dial("unix", srv.SocketPath())
		require.NoError(t, err)
		defer conn.Close()
		_, err = conn.Write([]byte(line + "\n"))
		require.NoError(t, err)
		buf := make([]byte, 4096)
		n, _ := conn.Read(buf)
		return string(buf[:n])
	}

	assert.Contains(t, send("not json"), `"status":"ERROR"`)
	assert.Contains(t, send(`{}`), "missing command")
	assert.Contains(t, send(`{"command":"UNDO"}`), "Unknown command: UNDO")
	assert.Contains(t, send(`{"command":"SET_ZOOM"}`), "Invalid zoom payload")
}

func TestClient_NoDaemon(t *testing.T) {
	client := NewClientAt(socketPath(t))
	err := client.Ping()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is the daemon running?")
}

func TestServer_StopRemovesSocket(t *testing.T) {
	logger, _ := test.NewNullLogger()
	srv := NewServerAt(socketPath(t), &fakeBackend{}, logger)
	require.NoError(t, srv.Start())

	srv.Stop()
	srv.Stop()
	_, err := os.Stat(srv.SocketPath())
	assert.True(t, os.IsNotExist(err))
}

func TestServer_RefusesLiveSocket(t *testing.T) {
	srv, client := startServer(t, &fakeBackend{})

	logger, _ := test.NewNullLogger()
	second := NewServerAt(srv.SocketPath(), &fakeBackend{}, logger)
	err := second.Start()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAlreadyRunning)
	second.Stop()

	assert.NoError(t, client.Ping(), "the first server keeps its socket")
}

func TestServer_ReplacesStaleSocket(t *testing.T) {
	path := socketPath(t)
	require.NoError(t, os.WriteFile(path, nil, 0600))

	logger, _ := test.NewNullLogger()
	srv := NewServerAt(path, &fakeBackend{}, logger)
	require.NoError(t, srv.Start())
	defer srv.Stop()

	assert.NoError(t, NewClientAt(path).Ping())
}
