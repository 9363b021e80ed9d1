package tui

import (
	"fmt"
	"math"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/scrollfocus/internal/focus"
	"github.com/1broseidon/scrollfocus/internal/ipc"
)

const zoomStep = 0.1

// zoomRequest asks the root model to send a zoom change to the daemon.
type zoomRequest struct {
	zoom float64
}

// FocusTab shows the live focal point of the running filter.
type FocusTab struct {
	status *ipc.StatusData
	err    error

	width  int
	height int
}

func NewFocusTab() FocusTab {
	return FocusTab{}
}

// SetStatus records the latest poll result.
func (f *FocusTab) SetStatus(status *ipc.StatusData, err error) {
	f.status = status
	f.err = err
}

func (f FocusTab) Update(msg tea.Msg) (FocusTab, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		f.width = msg.Width
		f.height = msg.Height
	case tea.KeyMsg:
		if f.status == nil {
			return f, nil
		}
		zoom := f.status.Focus.Zoom
		switch msg.String() {
		case "+", "=":
			return f, requestZoom(zoom + zoomStep)
		case "-", "_":
			return f, requestZoom(zoom - zoomStep)
		case "0":
			return f, requestZoom(1)
		}
	}
	return f, nil
}

func requestZoom(z float64) tea.Cmd {
	z = focus.ClampZoom(math.Round(z*100) / 100)
	return func() tea.Msg { return zoomRequest{zoom: z} }
}

func (f FocusTab) View() string {
	style := lipgloss.NewStyle().Width(f.width).Height(f.height).Padding(1, 2)
	if f.status == nil {
		msg := "Waiting for daemon..."
		if f.err != nil {
			msg = "Daemon unavailable: " + f.err.Error()
		}
		return style.Render(dimStyle.Render(msg) + "\n\n" +
			dimStyle.Render("Start it with: scrollfocus run"))
	}

	st := f.status
	info := strings.Join([]string{
		row("Target", formatVec(st.Focus.Target)),
		row("Rendered", formatVec(st.Focus.Current)),
		row("Zoom", fmt.Sprintf("%.2f", st.Focus.Zoom)),
		row("Smoothing", fmt.Sprintf("%g/s", st.Focus.Smoothing)),
		"",
		row("Frames", fmt.Sprintf("%d", st.Frames)),
		row("Render errors", fmt.Sprintf("%d", st.RenderErrors)),
		row("Snapshots", fmt.Sprintf("%d delivered, %d dropped", st.Telemetry.Delivered, st.Telemetry.Dropped)),
		row("Output", fmt.Sprintf("%dx%d", st.Width, st.Height)),
		row("Uptime", fmt.Sprintf("%ds", st.UptimeSeconds)),
	}, "\n")

	mapW, mapH := minimapSize(f.width, f.height)
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("62")).
		Render(colorMinimap(renderMinimap(st.Focus.Target, st.Focus.Current, mapW, mapH)))
	legend := dimStyle.Render("o target  + rendered  @ both")

	return style.Render(lipgloss.JoinHorizontal(lipgloss.Top,
		info, "    ", lipgloss.JoinVertical(lipgloss.Left, box, legend)))
}

func formatVec(v focus.Vec2) string {
	return fmt.Sprintf("(%.3f, %.3f)", v.X, v.Y)
}

// minimapSize keeps a 16:9-ish map that fits beside the info column.
func minimapSize(width, height int) (int, int) {
	w := width - 60
	if w > 48 {
		w = 48
	}
	if w < 16 {
		w = 16
	}
	h := w * 9 / 32 // terminal cells are about twice as tall as wide
	if height > 0 && h > height-6 {
		h = height - 6
	}
	if h < 4 {
		h = 4
	}
	return w, h
}

// renderMinimap draws the screen as a w×h grid with the target and the
// rendered focal point marked. Coordinates outside 0..1 are clamped to the
// edge.
func renderMinimap(target, current focus.Vec2, w, h int) string {
	if w < 1 || h < 1 {
		return ""
	}
	grid := make([][]byte, h)
	for i := range grid {
		grid[i] = []byte(strings.Repeat(".", w))
	}
	tx, ty := cell(target, w, h)
	cx, cy := cell(current, w, h)
	grid[cy][cx] = '+'
	if tx == cx && ty == cy {
		grid[ty][tx] = '@'
	} else {
		grid[ty][tx] = 'o'
	}

	lines := make([]string, h)
	for i, r := range grid {
		lines[i] = string(r)
	}
	return strings.Join(lines, "\n")
}

func cell(v focus.Vec2, w, h int) (int, int) {
	return scale(v.X, w), scale(v.Y, h)
}

func scale(v float64, n int) int {
	if math.IsNaN(v) {
		v = 0.5
	}
	i := int(math.Round(v * float64(n-1)))
	if i < 0 {
		return 0
	}
	if i > n-1 {
		return n - 1
	}
	return i
}

func colorMinimap(s string) string {
	target := lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	current := lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	both := lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Bold(true)
	bg := lipgloss.NewStyle().Foreground(lipgloss.Color("238"))

	var sb strings.Builder
	for _, r := range s {
		switch r {
		case 'o':
			sb.WriteString(target.Render("o"))
		case '+':
			sb.WriteString(current.Render("+"))
		case '@':
			sb.WriteString(both.Render("@"))
		case '.':
			sb.WriteString(bg.Render("·"))
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
