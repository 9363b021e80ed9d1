package mcp

import (
	"context"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/1broseidon/scrollfocus/internal/ipc"
)

const (
	ServerName    = "scrollfocus"
	ServerVersion = "0.1.0"
)

// Daemon is the part of the IPC client the tools use.
type Daemon interface {
	GetStatus() (*ipc.StatusData, error)
	SetZoom(zoom float64, persist bool) (*ipc.ZoomData, error)
	Reload() error
}

// Server is the MCP server exposing the running filter.
type Server struct {
	mcpServer *mcpsdk.Server
	daemon    Daemon
	log       logrus.FieldLogger
}

// NewServer creates a server that talks to the daemon through d.
func NewServer(d Daemon, log logrus.FieldLogger) *Server {
	if log == nil {
		log = logrus.StandardLogger()
	}
	s := &Server{
		daemon: d,
		log:    log.WithField("component", "mcp"),
	}
	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)
	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_focus",
		Description: "Report the running filter's focal point. target is the latest window centre in normalized screen coordinates (0..1, origin top-left); current is what is being rendered. Also reports zoom and telemetry counters.",
	}, s.handleGetFocus)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "set_zoom",
		Description: "Change the filter's zoom (0..2). Takes effect on the next frame. Set persist to keep it across restarts.",
	}, s.handleSetZoom)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "frame_layout",
		Description: "Compute the plane byte sizes of a raw video frame for a pixel format and dimensions. known is false when the format's extent cannot be determined. Does not need a running daemon.",
	}, s.handleFrameLayout)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "reload_config",
		Description: "Ask the daemon to re-read its config file.",
	}, s.handleReload)
}

func (s *Server) handleGetFocus(_ context.Context, _ *mcpsdk.CallToolRequest, _ GetFocusInput) (*mcpsdk.CallToolResult, GetFocusOutput, error) {
	st, err := s.daemon.GetStatus()
	if err != nil {
		return nil, GetFocusOutput{}, err
	}
	return nil, GetFocusOutput{
		Running:   st.Running,
		Instance:  st.Instance,
		Target:    st.Focus.Target,
		Current:   st.Focus.Current,
		Zoom:      st.Focus.Zoom,
		Frames:    st.Frames,
		Delivered: st.Telemetry.Delivered,
		Dropped:   st.Telemetry.Dropped,
		Uptime:    st.UptimeSeconds,
	}, nil
}

func (s *Server) handleSetZoom(_ context.Context, _ *mcpsdk.CallToolRequest, args SetZoomInput) (*mcpsdk.CallToolResult, SetZoomOutput, error) {
	data, err := s.daemon.SetZoom(args.Zoom, args.Persist)
	if err != nil {
		return nil, SetZoomOutput{}, err
	}
	s.log.WithFields(logrus.Fields{"zoom": data.Zoom, "persist": data.Persisted}).Info("set_zoom")
	return nil, SetZoomOutput{Zoom: data.Zoom, Persisted: data.Persisted, Warning: data.Warning}, nil
}

func (s *Server) handleFrameLayout(_ context.Context, _ *mcpsdk.CallToolRequest, args FrameLayoutInput) (*mcpsdk.CallToolResult, FrameLayoutOutput, error) {
	if args.Format == "" {
		return nil, FrameLayoutOutput{}, fmt.Errorf("format is required")
	}
	data, err := ipc.ComputeLayout(ipc.LayoutPayload{Format: args.Format, Width: args.Width, Height: args.Height})
	if err != nil {
		return nil, FrameLayoutOutput{}, err
	}
	return nil, FrameLayoutOutput{
		Format: data.Format,
		Kind:   data.Kind,
		Known:  data.Known,
		Planes: data.Planes,
		Total:  data.Total,
	}, nil
}

func (s *Server) handleReload(_ context.Context, _ *mcpsdk.CallToolRequest, _ ReloadInput) (*mcpsdk.CallToolResult, ReloadOutput, error) {
	if err := s.daemon.Reload(); err != nil {
		return nil, ReloadOutput{}, err
	}
	return nil, ReloadOutput{Reloaded: true}, nil
}
