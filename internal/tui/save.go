package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/scrollfocus/internal/config"
)

type savePhase int

const (
	saveHidden  savePhase = iota
	savePreview           // showing diff, awaiting confirm
	saveResult            // showing outcome message
)

// change is one config key whose value differs from the file on disk.
type change struct {
	path     string
	old, new string
}

// SaveOverlay manages the config save diff preview and confirmation workflow.
type SaveOverlay struct {
	phase    savePhase
	changes  []change
	err      error
	reloaded bool
}

// Active reports whether the overlay is visible.
func (s SaveOverlay) Active() bool {
	return s.phase != saveHidden
}

// Show computes the pending changes and opens the preview.
func (s *SaveOverlay) Show(original, current *config.Config) {
	s.err = nil
	s.reloaded = false
	s.changes = diffConfigs(original, current)
	if len(s.changes) == 0 {
		s.phase = saveResult
		s.err = fmt.Errorf("no changes to save")
		return
	}
	s.phase = savePreview
}

// SaveSucceeded reports whether the last save completed without error.
func (s SaveOverlay) SaveSucceeded() bool {
	return s.phase == saveResult && s.err == nil
}

// Update handles input while the overlay is active. A confirmed save writes
// path and, when the daemon is reachable, asks it to reload.
func (s SaveOverlay) Update(msg tea.Msg, cfg *config.Config, path string, client DaemonClient) SaveOverlay {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return s
	}
	switch s.phase {
	case savePreview:
		switch km.String() {
		case "esc", "n":
			s.phase = saveHidden
		case "enter", "y":
			s.err = cfg.SaveTo(path)
			if s.err == nil && client != nil {
				s.reloaded = client.Reload() == nil
			}
			s.phase = saveResult
		}
	case saveResult:
		s.phase = saveHidden
	}
	return s
}

// View renders the overlay for the given content area dimensions.
func (s SaveOverlay) View(width, height int) string {
	var content string
	switch s.phase {
	case savePreview:
		content = s.viewPreview()
	case saveResult:
		content = s.viewResult()
	default:
		return ""
	}

	boxW := width - 8
	if boxW > 72 {
		boxW = 72
	}
	if boxW < 30 {
		boxW = 30
	}
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("62")).
		Padding(1, 2).
		Width(boxW).
		Render(content)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}

func (s SaveOverlay) viewPreview() string {
	title := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Render("Save config")
	addStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	rmStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

	lines := make([]string, 0, len(s.changes)*2)
	for _, c := range s.changes {
		lines = append(lines,
			rmStyle.Render("- "+c.path+": "+c.old),
			addStyle.Render("+ "+c.path+": "+c.new))
	}
	footer := dimStyle.Render("enter: save  esc: cancel")
	return title + "\n\n" + strings.Join(lines, "\n") + "\n\n" + footer
}

func (s SaveOverlay) viewResult() string {
	var msg string
	if s.err != nil {
		msg = errStyle.Render("Error: " + s.err.Error())
	} else {
		okStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
		msg = okStyle.Render("Config saved")
		if s.reloaded {
			msg += "\n" + okStyle.Render("Daemon reloaded")
		}
	}
	return msg + "\n\n" + dimStyle.Render("press any key to dismiss")
}

// diffConfigs lists every config key whose value differs, in path order.
func diffConfigs(original, current *config.Config) []change {
	if original == nil || current == nil {
		return nil
	}
	var out []change
	for _, p := range config.Paths() {
		a, _ := config.Value(original, p)
		b, _ := config.Value(current, p)
		as, bs := fmt.Sprint(a), fmt.Sprint(b)
		if as != bs {
			out = append(out, change{path: p, old: as, new: bs})
		}
	}
	return out
}
