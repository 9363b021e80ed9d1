package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/scrollfocus/internal/config"
	"github.com/1broseidon/scrollfocus/internal/focus"
	"github.com/1broseidon/scrollfocus/internal/x11"
)

// SettingsTab shows and edits the config file.
type SettingsTab struct {
	cfg     *config.Config
	loadErr error

	width  int
	height int

	editing bool
	form    *huh.Form

	// Form-bound values (strings for huh, converted on submit)
	fZoom      string
	fSmoothing string
	fMode      string
	fPoll      string
	fFPS       string
	fLogLevel  string
}

func NewSettingsTab(cfg *config.Config, loadErr error) SettingsTab {
	return SettingsTab{cfg: cfg, loadErr: loadErr}
}

// Editing reports whether the form has focus.
func (s SettingsTab) Editing() bool {
	return s.editing
}

func (s SettingsTab) Update(msg tea.Msg) (SettingsTab, tea.Cmd) {
	if s.editing {
		return s.updateEditing(msg)
	}
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "e" && s.cfg != nil {
			s.startEditing()
			return s, s.form.Init()
		}
	case tea.WindowSizeMsg:
		s.width = msg.Width
		s.height = msg.Height
	}
	return s, nil
}

func (s SettingsTab) updateEditing(msg tea.Msg) (SettingsTab, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "esc" {
			s.editing = false
			s.form = nil
			return s, nil
		}
	case tea.WindowSizeMsg:
		s.width = msg.Width
		s.height = msg.Height
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if s.form.State == huh.StateCompleted {
		s.applyForm()
		s.editing = false
		s.form = nil
		return s, nil
	}
	return s, cmd
}

func (s *SettingsTab) startEditing() {
	cfg := s.cfg
	s.fZoom = strconv.FormatFloat(cfg.Filter.Zoom, 'g', -1, 64)
	s.fSmoothing = strconv.FormatFloat(cfg.Filter.Smoothing, 'g', -1, 64)
	s.fMode = cfg.Telemetry.Mode
	s.fPoll = cfg.Telemetry.PollInterval.String()
	s.fFPS = strconv.Itoa(cfg.Render.FPS)
	s.fLogLevel = cfg.LogLevel

	w := s.width - 4
	if w < 40 {
		w = 40
	}

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("zoom").
				Title("Zoom").
				Description(fmt.Sprintf("Scale handed to the effect (%g..%g)", focus.MinZoom, focus.MaxZoom)).
				Validate(validateFloat(focus.MinZoom, focus.MaxZoom)).
				Value(&s.fZoom),

			huh.NewInput().
				Key("smoothing").
				Title("Smoothing").
				Description("Approach rate per second; 0 jumps straight to the target").
				Validate(validateFloat(0, 1000)).
				Value(&s.fSmoothing),

			huh.NewSelect[string]().
				Key("mode").
				Title("Follow").
				Description("What the focal point tracks").
				Options(huh.NewOptions(string(x11.ModeWindow), string(x11.ModePointer))...).
				Value(&s.fMode),
		),
		huh.NewGroup(
			huh.NewInput().
				Key("poll_interval").
				Title("Poll Interval").
				Description("How often the X11 source checks for changes (e.g. 50ms)").
				Validate(validateDuration).
				Value(&s.fPoll),

			huh.NewInput().
				Key("fps").
				Title("Render FPS").
				Validate(validateInt(1, 240)).
				Value(&s.fFPS),

			huh.NewSelect[string]().
				Key("log_level").
				Title("Log Level").
				Options(huh.NewOptions("trace", "debug", "info", "warn", "error")...).
				Value(&s.fLogLevel),
		),
	).WithWidth(w).WithShowHelp(true).WithShowErrors(true)

	s.editing = true
}

func validateFloat(min, max float64) func(string) error {
	return func(v string) error {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return fmt.Errorf("not a number")
		}
		if f < min || f > max {
			return fmt.Errorf("must be between %g and %g", min, max)
		}
		return nil
	}
}

func validateInt(min, max int) func(string) error {
	return func(v string) error {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("not an integer")
		}
		if n < min || n > max {
			return fmt.Errorf("must be between %d and %d", min, max)
		}
		return nil
	}
}

func validateDuration(v string) error {
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("not a duration")
	}
	if d < time.Millisecond || d > 5*time.Second {
		return fmt.Errorf("must be between 1ms and 5s")
	}
	return nil
}

// applyForm copies valid form values into the config. Invalid values leave
// the field unchanged.
func (s *SettingsTab) applyForm() {
	if s.cfg == nil {
		return
	}
	if v, err := strconv.ParseFloat(strings.TrimSpace(s.fZoom), 64); err == nil && validateFloat(focus.MinZoom, focus.MaxZoom)(s.fZoom) == nil {
		s.cfg.Filter.Zoom = v
	}
	if v, err := strconv.ParseFloat(strings.TrimSpace(s.fSmoothing), 64); err == nil && v >= 0 {
		s.cfg.Filter.Smoothing = v
	}
	if mode, err := x11.ParseMode(s.fMode); err == nil {
		s.cfg.Telemetry.Mode = string(mode)
	}
	if validateDuration(s.fPoll) == nil {
		s.cfg.Telemetry.PollInterval, _ = time.ParseDuration(strings.TrimSpace(s.fPoll))
	}
	if validateInt(1, 240)(s.fFPS) == nil {
		s.cfg.Render.FPS, _ = strconv.Atoi(strings.TrimSpace(s.fFPS))
	}
	if s.fLogLevel != "" {
		s.cfg.LogLevel = s.fLogLevel
	}
}

func (s SettingsTab) View() string {
	if s.editing && s.form != nil {
		return s.viewEditing()
	}
	return s.viewDisplay()
}

func (s SettingsTab) viewDisplay() string {
	if s.cfg == nil {
		msg := "No config loaded"
		if s.loadErr != nil {
			msg = "Config error: " + s.loadErr.Error()
		}
		return lipgloss.NewStyle().
			Width(s.width).
			Height(s.height).
			Foreground(lipgloss.Color("241")).
			Align(lipgloss.Center, lipgloss.Center).
			Render(msg)
	}

	cfg := s.cfg
	source := string(cfg.Telemetry.Source)
	if cfg.Telemetry.Source == config.TelemetryReplay {
		source += " " + cfg.Telemetry.ReplayFile
	}
	lines := []string{
		row("Zoom", fmt.Sprintf("%g", cfg.Filter.Zoom)),
		row("Smoothing", fmt.Sprintf("%g", cfg.Filter.Smoothing)),
		"",
		row("Telemetry", source),
		row("Follow", cfg.Telemetry.Mode),
		row("Poll Interval", cfg.Telemetry.PollInterval.String()),
		row("Queue Size", strconv.Itoa(cfg.Telemetry.QueueSize)),
		row("Record File", displayOrDefault(cfg.Telemetry.RecordFile, "(off)")),
		"",
		row("Render", fmt.Sprintf("%dx%d @ %d fps", cfg.Render.Width, cfg.Render.Height, cfg.Render.FPS)),
		row("Log", cfg.LogLevel+" / "+cfg.LogFormat),
		"",
		dimStyle.Render("  Press 'e' to edit settings, ctrl-s to save"),
	}

	return lipgloss.NewStyle().
		Width(s.width).
		Height(s.height).
		Padding(1, 2).
		Render(strings.Join(lines, "\n"))
}

func (s SettingsTab) viewEditing() string {
	header := lipgloss.NewStyle().
		Foreground(lipgloss.Color("62")).
		Bold(true).
		Render("Editing Settings") +
		dimStyle.Render("  (esc to cancel)")

	return lipgloss.NewStyle().
		Width(s.width).
		Height(s.height).
		Padding(1, 2).
		Render(header + "\n\n" + s.form.View())
}

func displayOrDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
