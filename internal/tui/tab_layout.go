package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/scrollfocus/internal/framelayout"
)

// formatItem implements list.Item for the pixel format picker.
type formatItem struct {
	format framelayout.PixelFormat
}

func (i formatItem) Title() string       { return i.format.String() }
func (i formatItem) Description() string { return "" }
func (i formatItem) FilterValue() string { return i.format.String() }

// LayoutTab computes plane sizes for a chosen format and frame size.
type LayoutTab struct {
	list  list.Model
	input textinput.Model

	width, height uint32
	editing       bool
	inputErr      string

	viewW int
	viewH int
}

func NewLayoutTab(width, height uint32) LayoutTab {
	formats := framelayout.Formats()
	items := make([]list.Item, 0, len(formats))
	for _, f := range formats {
		items = append(items, formatItem{format: f})
	}

	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = false
	delegate.SetSpacing(0)

	l := list.New(items, delegate, 0, 0)
	l.Title = "Pixel formats"
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()
	l.Select(int(framelayout.I420))

	ti := textinput.New()
	ti.Placeholder = "1920x1080"
	ti.CharLimit = 16

	return LayoutTab{
		list:   l,
		input:  ti,
		width:  width,
		height: height,
	}
}

// Editing reports whether the dimensions input has focus.
func (lt LayoutTab) Editing() bool {
	return lt.editing
}

func (lt LayoutTab) Update(msg tea.Msg) (LayoutTab, tea.Cmd) {
	if lt.editing {
		return lt.updateEditing(msg)
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		lt.viewW = msg.Width
		lt.viewH = msg.Height
		lt.list.SetSize(lt.listWidth(), lt.viewH)
		return lt, nil
	case tea.KeyMsg:
		if msg.String() == "d" {
			lt.editing = true
			lt.inputErr = ""
			lt.input.SetValue(fmt.Sprintf("%dx%d", lt.width, lt.height))
			lt.input.CursorEnd()
			return lt, lt.input.Focus()
		}
	}

	var cmd tea.Cmd
	lt.list, cmd = lt.list.Update(msg)
	return lt, cmd
}

func (lt LayoutTab) updateEditing(msg tea.Msg) (LayoutTab, tea.Cmd) {
	if km, ok := msg.(tea.KeyMsg); ok {
		switch km.String() {
		case "enter":
			w, h, err := parseDimensions(lt.input.Value())
			if err != nil {
				lt.inputErr = err.Error()
				return lt, nil
			}
			lt.width, lt.height = w, h
			lt.editing = false
			lt.input.Blur()
			return lt, nil
		case "esc":
			lt.editing = false
			lt.inputErr = ""
			lt.input.Blur()
			return lt, nil
		}
	}

	var cmd tea.Cmd
	lt.input, cmd = lt.input.Update(msg)
	return lt, cmd
}

func (lt LayoutTab) selected() framelayout.PixelFormat {
	if item, ok := lt.list.SelectedItem().(formatItem); ok {
		return item.format
	}
	return framelayout.None
}

func (lt LayoutTab) listWidth() int {
	w := lt.viewW / 3
	if w < 18 {
		w = 18
	}
	return w
}

func (lt LayoutTab) View() string {
	var dims string
	if lt.editing {
		dims = "Dimensions: " + lt.input.View()
		if lt.inputErr != "" {
			dims += "\n" + errStyle.Render(lt.inputErr)
		}
	} else {
		dims = row("Dimensions", fmt.Sprintf("%dx%d", lt.width, lt.height))
	}

	detail := dims + "\n\n" + renderLayoutDetail(lt.selected(), lt.width, lt.height)
	right := lipgloss.NewStyle().Padding(1, 2).Render(detail)

	return lipgloss.JoinHorizontal(lipgloss.Top, lt.list.View(), right)
}

// parseDimensions accepts "WxH" (also "W H" or "W,H").
func parseDimensions(s string) (uint32, uint32, error) {
	fields := strings.FieldsFunc(strings.ToLower(strings.TrimSpace(s)), func(r rune) bool {
		return r == 'x' || r == ' ' || r == ','
	})
	if len(fields) != 2 {
		return 0, 0, fmt.Errorf("expected WIDTHxHEIGHT, got %q", s)
	}
	w, err := strconv.ParseUint(fields[0], 10, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid width %q", fields[0])
	}
	h, err := strconv.ParseUint(fields[1], 10, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid height %q", fields[1])
	}
	return uint32(w), uint32(h), nil
}

// renderLayoutDetail lists per-plane byte sizes for one format.
func renderLayoutDetail(format framelayout.PixelFormat, width, height uint32) string {
	layout := framelayout.FrameSize(format, width, height)
	planes, ok := layout.Planes()
	if !ok {
		return errStyle.Render("Cannot determine frame extent for " + format.String())
	}

	lines := []string{
		row("Format", format.String()),
		row("Layout", layout.Kind.String()),
		row("Planes", strconv.Itoa(len(planes))),
	}
	for i, size := range planes {
		lines = append(lines, row(fmt.Sprintf("Plane %d", i), formatBytes(size)))
	}
	total, _ := layout.Total()
	lines = append(lines, "", row("Total", formatBytes(total)))
	return strings.Join(lines, "\n")
}

func formatBytes(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%d B (%.2f MiB)", n, float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%d B (%.1f KiB)", n, float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
