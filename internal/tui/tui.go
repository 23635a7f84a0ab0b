// Package tui is an interactive dashboard for the floattimer daemon: it
// lists timer windows, spawns and closes them, edits per-window
// preferences and edits the daemon configuration.
package tui

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/1broseidon/floattimer/internal/ipc"
	"github.com/1broseidon/floattimer/internal/platform"
	"github.com/1broseidon/floattimer/internal/registry"
)

// Daemon is the subset of the IPC client the dashboard drives.
type Daemon interface {
	Ping() error
	Reload() error
	GetStatus() (*ipc.StatusData, error)
	GetRegistry() (*ipc.RegistryData, error)
	ListWindowIDs() ([]string, error)
	CreateWindow(anchor *platform.Point) (string, error)
	CloseWindow(id string) error
	SetWindowPrefs(id string, update registry.PrefsUpdate) (registry.Entry, error)
}

// Run starts the dashboard on the controlling terminal.
func Run(configPath string) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("tui requires an interactive terminal (stdin/stdout must be TTYs)")
	}

	p := tea.NewProgram(newModel(configPath, ipc.NewClient()), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
