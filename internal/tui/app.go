package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/floattimer/internal/config"
	"github.com/1broseidon/floattimer/internal/ipc"
	"github.com/1broseidon/floattimer/internal/registry"
)

// statusLoadedMsg carries the result of a GET_STATUS round trip.
type statusLoadedMsg struct {
	status *ipc.StatusData
	err    error
}

// windowsLoadedMsg carries the registry and live window ids.
type windowsLoadedMsg struct {
	entries []registry.Entry
	live    []string
	err     error
}

// actionDoneMsg is sent after a window action completes.
type actionDoneMsg struct {
	text string
	err  error
}

// clearStatusMsg clears the status line after a delay.
type clearStatusMsg struct{}

func fetchStatus(d Daemon) tea.Cmd {
	return func() tea.Msg {
		status, err := d.GetStatus()
		return statusLoadedMsg{status: status, err: err}
	}
}

func fetchWindows(d Daemon) tea.Cmd {
	return func() tea.Msg {
		reg, err := d.GetRegistry()
		if err != nil {
			return windowsLoadedMsg{err: err}
		}
		live, err := d.ListWindowIDs()
		return windowsLoadedMsg{entries: reg.Windows, live: live, err: err}
	}
}

func refresh(d Daemon) tea.Cmd {
	return tea.Batch(fetchStatus(d), fetchWindows(d))
}

// model is the root bubbletea model for the dashboard.
type model struct {
	configPath string
	result     *config.LoadResult
	loadErr    error
	client     Daemon

	activeTab   Tab
	windowsTab  WindowsTab
	settingsTab SettingsTab

	// Save overlay
	originalConfig *config.Config
	saveOverlay    SaveOverlay

	// Daemon state
	connected bool
	status    *ipc.StatusData

	width  int
	height int
}

func newModel(configPath string, client Daemon) model {
	m := model{
		configPath: configPath,
		client:     client,
		activeTab:  TabWindows,
	}

	m.loadConfig()
	var cfg *config.Config
	if m.result != nil {
		cfg = m.result.Config
		m.originalConfig = cloneConfig(cfg)
	}

	m.windowsTab = NewWindowsTab(client)
	m.settingsTab = NewSettingsTab(cfg, m.loadErr)
	return m
}

func (m *model) loadConfig() {
	var res *config.LoadResult
	var err error

	if m.configPath == "" {
		res, err = config.LoadWithSources()
	} else {
		res, err = config.LoadFromPath(m.configPath)
	}
	if err != nil {
		m.loadErr = err
		return
	}
	m.result = res
	m.loadErr = nil
}

func (m model) contentHeight() int {
	// status bar (1) + tab bar (2 with margin) + help bar (1)
	h := m.height - 4
	if h < 1 {
		h = 1
	}
	return h
}

func (m model) resizeTabs() model {
	subMsg := tea.WindowSizeMsg{Width: m.width, Height: m.contentHeight()}
	m.windowsTab, _ = m.windowsTab.Update(subMsg)
	m.settingsTab, _ = m.settingsTab.Update(subMsg)
	return m
}

// Init implements tea.Model.
func (m model) Init() tea.Cmd {
	return refresh(m.client)
}

// Update implements tea.Model.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// Daemon round trips land regardless of which view has focus.
	switch msg := msg.(type) {
	case statusLoadedMsg:
		m.connected = msg.err == nil
		m.status = msg.status
		if msg.err != nil {
			m.status = nil
		}
		return m, nil
	case windowsLoadedMsg, clearStatusMsg:
		var cmd tea.Cmd
		m.windowsTab, cmd = m.windowsTab.Update(msg)
		return m, cmd
	case actionDoneMsg:
		var cmd tea.Cmd
		m.windowsTab, cmd = m.windowsTab.Update(msg)
		return m, tea.Batch(cmd, refresh(m.client))
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m.resizeTabs(), nil
	}

	// Save overlay captures all input when active
	if m.saveOverlay.Active() {
		if km, ok := msg.(tea.KeyMsg); ok {
			if km.String() == "ctrl+c" {
				return m, tea.Quit
			}
			prevPhase := m.saveOverlay.phase
			m.saveOverlay = m.saveOverlay.Update(km, m.result.Config, m.client, m.connected)
			if prevPhase == savePreview && m.saveOverlay.SaveSucceeded() {
				m.originalConfig = cloneConfig(m.result.Config)
				return m, fetchStatus(m.client)
			}
		}
		return m, nil
	}

	if km, ok := msg.(tea.KeyMsg); ok && km.String() == "ctrl+s" {
		if m.result != nil && m.result.Config != nil {
			m.saveOverlay.Show(m.originalConfig, m.result.Config)
		}
		return m, nil
	}

	// A form owns the keyboard while it is open; only ctrl+c escapes.
	if m.windowsTab.editing || m.settingsTab.editing {
		if km, ok := msg.(tea.KeyMsg); ok && km.String() == "ctrl+c" {
			return m, tea.Quit
		}
		return m.delegate(msg)
	}

	if km, ok := msg.(tea.KeyMsg); ok {
		switch km.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "tab":
			m.activeTab = (m.activeTab + 1) % tabCount
			return m, nil
		case "shift+tab":
			m.activeTab = (m.activeTab - 1 + tabCount) % tabCount
			return m, nil
		case "1":
			m.activeTab = TabWindows
			return m, nil
		case "2":
			m.activeTab = TabSettings
			return m, nil
		case "r":
			return m, refresh(m.client)
		}
	}

	return m.delegate(msg)
}

func (m model) delegate(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.activeTab {
	case TabWindows:
		m.windowsTab, cmd = m.windowsTab.Update(msg)
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

	statusBar := renderStatusBar(m.connected, m.status, m.width)
	tabBar := renderTabBar(m.activeTab, m.width)
	helpBar := renderHelpBar(m.width)

	usedHeight := lipgloss.Height(statusBar) + lipgloss.Height(tabBar) + lipgloss.Height(helpBar)
	contentHeight := m.height - usedHeight
	if contentHeight < 1 {
		contentHeight = 1
	}

	var content string
	switch {
	case m.saveOverlay.Active():
		content = m.saveOverlay.View(m.width, contentHeight)
	case m.activeTab == TabWindows:
		content = m.windowsTab.View()
	default:
		content = m.settingsTab.View()
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		statusBar,
		tabBar,
		content,
		helpBar,
	)
}
