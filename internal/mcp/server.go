// Package mcp exposes timer window management as MCP tools. Every tool
// forwards to the running daemon over IPC.
package mcp

import (
	"context"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/floattimer/internal/lifecycle"
	"github.com/1broseidon/floattimer/internal/platform"
	"github.com/1broseidon/floattimer/internal/registry"
)

const (
	ServerName    = "floattimer"
	ServerVersion = "0.1.0"
)

// Daemon is the subset of the IPC client the tools call. It is satisfied
// by *ipc.Client.
type Daemon interface {
	CreateWindow(anchor *platform.Point) (string, error)
	CloseWindow(id string) error
	GetWindowState(id string) (platform.WindowRecord, error)
	RestoreWindows(records []platform.WindowRecord) ([]lifecycle.RestoreResult, error)
	ListWindowIDs() ([]string, error)
	SetWindowPrefs(id string, update registry.PrefsUpdate) (registry.Entry, error)
}

// Server is the MCP server for timer windows.
type Server struct {
	mcpServer *mcpsdk.Server
	daemon    Daemon
}

// NewServer creates an MCP server that drives daemon.
func NewServer(daemon Daemon) *Server {
	s := &Server{daemon: daemon}
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
		Name:        "create_window",
		Description: "Open a new floating countdown-timer window. With x and y the window is placed 30px right and below that point; otherwise the window manager places it. Returns the new window label.",
	}, s.handleCreateWindow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "close_window",
		Description: "Close a timer window by label. Closing a label that does not exist succeeds.",
	}, s.handleCloseWindow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_window_state",
		Description: "Report a timer window's outer position and inner size in screen pixels.",
	}, s.handleGetWindowState)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "restore_windows",
		Description: "Recreate timer windows from saved records. The main window is skipped. Returns one outcome per record (restored, skipped or failed).",
	}, s.handleRestoreWindows)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_all_window_ids",
		Description: "List the labels of all open timer windows.",
	}, s.handleListWindows)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "set_window_prefs",
		Description: "Update the stored theme, title, mode (countdown or countup) or last duration of a timer window.",
	}, s.handleSetWindowPrefs)
}
