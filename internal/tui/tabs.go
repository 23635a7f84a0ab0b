package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/floattimer/internal/ipc"
)

// Tab identifies a dashboard tab.
type Tab int

const (
	TabWindows Tab = iota
	TabSettings
	tabCount
)

func (t Tab) String() string {
	switch t {
	case TabWindows:
		return "Windows"
	case TabSettings:
		return "Settings"
	default:
		return "?"
	}
}

var (
	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 2)

	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("250")).
				Background(lipgloss.Color("236")).
				Padding(0, 2)

	tabBarStyle = lipgloss.NewStyle().
			MarginBottom(1)

	tabGap = lipgloss.NewStyle().
		Background(lipgloss.Color("235")).
		SetString(" ")

	dimStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	okStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
)

func renderTabBar(active Tab, width int) string {
	tabs := make([]string, 0, tabCount*2)
	for i := Tab(0); i < tabCount; i++ {
		if i > 0 {
			tabs = append(tabs, tabGap.Render())
		}
		label := fmt.Sprintf("%d:%s", int(i)+1, i)
		if i == active {
			tabs = append(tabs, activeTabStyle.Render(label))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(label))
		}
	}

	row := lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
	return tabBarStyle.Width(width).Render(row)
}

func renderStatusBar(connected bool, status *ipc.StatusData, width int) string {
	var line string
	if connected && status != nil {
		dot := okStyle.Render("●")
		parts := []string{
			dot + " daemon connected",
			fmt.Sprintf("windows:%d", status.WindowCount),
			"next:" + status.NextWindowID,
			fmt.Sprintf("ratio:%g", status.AspectRatio),
		}
		line = strings.Join(parts, "  ")
	} else {
		line = dimStyle.Render("●") + " daemon not running"
	}

	style := lipgloss.NewStyle().
		Width(width).
		Background(lipgloss.Color("235")).
		Foreground(lipgloss.Color("250")).
		Padding(0, 1)
	return style.Render(line)
}

func renderHelpBar(width int) string {
	help := "tab: switch tabs  1-2: jump to tab  r: refresh  ctrl-s: save config  q/ctrl-c: quit"
	return dimStyle.Width(width).Padding(0, 1).Render(help)
}
