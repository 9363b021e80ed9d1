package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/scrollfocus/internal/config"
	"github.com/1broseidon/scrollfocus/internal/ipc"
)

const pollInterval = 250 * time.Millisecond

// DaemonClient is the part of the IPC client the TUI uses.
type DaemonClient interface {
	GetStatus() (*ipc.StatusData, error)
	SetZoom(zoom float64, persist bool) (*ipc.ZoomData, error)
	Reload() error
}

type statusMsg struct {
	status *ipc.StatusData
	err    error
}

type pollTickMsg struct{}

type zoomDoneMsg struct {
	err error
}

// model is the root bubbletea model for the TUI.
type model struct {
	configPath string
	cfg        *config.Config
	original   config.Config
	client     DaemonClient

	activeTab   Tab
	focusTab    FocusTab
	layoutTab   LayoutTab
	settingsTab SettingsTab
	saveOverlay SaveOverlay

	status  *ipc.StatusData
	lastErr error

	width  int
	height int
}

func newModel(configPath string, client DaemonClient) model {
	m := model{
		configPath: configPath,
		client:     client,
		activeTab:  TabFocus,
	}

	var loadErr error
	if m.configPath == "" {
		m.configPath, loadErr = config.DefaultConfigPath()
	}
	if loadErr == nil {
		var res *config.LoadResult
		if res, loadErr = config.LoadFromPath(m.configPath); loadErr == nil {
			m.cfg = res.Config
			m.original = *res.Config
		}
	}

	width, height := uint32(1920), uint32(1080)
	if m.cfg != nil {
		width, height = m.cfg.Render.Width, m.cfg.Render.Height
	}
	m.focusTab = NewFocusTab()
	m.layoutTab = NewLayoutTab(width, height)
	m.settingsTab = NewSettingsTab(m.cfg, loadErr)
	return m
}

func fetchStatus(client DaemonClient) tea.Cmd {
	return func() tea.Msg {
		st, err := client.GetStatus()
		return statusMsg{status: st, err: err}
	}
}

func schedulePoll() tea.Cmd {
	return tea.Tick(pollInterval, func(time.Time) tea.Msg { return pollTickMsg{} })
}

// Init implements tea.Model.
func (m model) Init() tea.Cmd {
	return fetchStatus(m.client)
}

// contentHeight returns the height available for tab content.
func (m model) contentHeight() int {
	// status bar (1) + tab bar (2 with margin) + help bar (1)
	h := m.height - 4
	if h < 1 {
		h = 1
	}
	return h
}

func (m model) capturing() bool {
	return (m.activeTab == TabLayout && m.layoutTab.Editing()) ||
		(m.activeTab == TabSettings && m.settingsTab.Editing())
}

// Update implements tea.Model.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case statusMsg:
		m.status = msg.status
		m.lastErr = msg.err
		m.focusTab.SetStatus(msg.status, msg.err)
		return m, schedulePoll()
	case pollTickMsg:
		return m, fetchStatus(m.client)
	case zoomRequest:
		client := m.client
		return m, func() tea.Msg {
			_, err := client.SetZoom(msg.zoom, false)
			return zoomDoneMsg{err: err}
		}
	case zoomDoneMsg:
		m.lastErr = msg.err
		return m, nil
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		sub := tea.WindowSizeMsg{Width: m.width, Height: m.contentHeight()}
		m.focusTab, _ = m.focusTab.Update(sub)
		m.layoutTab, _ = m.layoutTab.Update(sub)
		m.settingsTab, _ = m.settingsTab.Update(sub)
		return m, nil
	}

	// Save overlay captures all keys when active
	if m.saveOverlay.Active() {
		if km, ok := msg.(tea.KeyMsg); ok {
			if km.String() == "ctrl+c" {
				return m, tea.Quit
			}
			var client DaemonClient
			if m.status != nil {
				client = m.client
			}
			prev := m.saveOverlay.phase
			m.saveOverlay = m.saveOverlay.Update(km, m.cfg, m.configPath, client)
			if prev == savePreview && m.saveOverlay.SaveSucceeded() {
				m.original = *m.cfg
			}
		}
		return m, nil
	}

	if km, ok := msg.(tea.KeyMsg); ok {
		switch km.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "ctrl+s":
			if m.cfg != nil {
				m.saveOverlay.Show(&m.original, m.cfg)
			}
			return m, nil
		}
	}

	if m.capturing() {
		return m.delegate(msg)
	}

	if km, ok := msg.(tea.KeyMsg); ok {
		switch km.String() {
		case "q":
			return m, tea.Quit
		case "tab":
			m.activeTab = (m.activeTab + 1) % tabCount
			return m, nil
		case "shift+tab":
			m.activeTab = (m.activeTab - 1 + tabCount) % tabCount
			return m, nil
		case "1":
			m.activeTab = TabFocus
			return m, nil
		case "2":
			m.activeTab = TabLayout
			return m, nil
		case "3":
			m.activeTab = TabSettings
			return m, nil
		}
	}
	return m.delegate(msg)
}

func (m model) delegate(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.activeTab {
	case TabFocus:
		m.focusTab, cmd = m.focusTab.Update(msg)
	case TabLayout:
		m.layoutTab, cmd = m.layoutTab.Update(msg)
	case TabSettings:
		m.settingsTab, cmd = m.settingsTab.Update(msg)
	}
	return m, cmd
}

// View implements tea.Model.
func (m model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	statusBar := renderStatusBar(m.status, m.width)
	tabBar := renderTabBar(m.activeTab, m.width)
	helpBar := renderHelpBar(m.activeTab, m.width)

	usedHeight := lipgloss.Height(statusBar) + lipgloss.Height(tabBar) + lipgloss.Height(helpBar)
	contentHeight := m.height - usedHeight
	if contentHeight < 1 {
		contentHeight = 1
	}

	var content string
	if m.saveOverlay.Active() {
		content = m.saveOverlay.View(m.width, contentHeight)
	} else {
		switch m.activeTab {
		case TabFocus:
			content = m.focusTab.View()
		case TabLayout:
			content = m.layoutTab.View()
		case TabSettings:
			content = m.settingsTab.View()
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		statusBar,
		tabBar,
		content,
		helpBar,
	)
}
