package mcp

import (
	"context"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/floattimer/internal/platform"
	"github.com/1broseidon/floattimer/internal/registry"
)

func (s *Server) handleCreateWindow(_ context.Context, _ *mcpsdk.CallToolRequest, args CreateWindowInput) (*mcpsdk.CallToolResult, CreateWindowOutput, error) {
	var anchor *platform.Point
	if args.X != nil && args.Y != nil {
		anchor = &platform.Point{X: *args.X, Y: *args.Y}
	}
	id, err := s.daemon.CreateWindow(anchor)
	if err != nil {
		return nil, CreateWindowOutput{}, err
	}
	return nil, CreateWindowOutput{WindowID: id}, nil
}

func (s *Server) handleCloseWindow(_ context.Context, _ *mcpsdk.CallToolRequest, args WindowInput) (*mcpsdk.CallToolResult, CloseWindowOutput, error) {
	if args.WindowID == "" {
		return nil, CloseWindowOutput{}, fmt.Errorf("window_id is required")
	}
	if err := s.daemon.CloseWindow(args.WindowID); err != nil {
		return nil, CloseWindowOutput{}, err
	}
	return nil, CloseWindowOutput{Closed: true}, nil
}

func (s *Server) handleGetWindowState(_ context.Context, _ *mcpsdk.CallToolRequest, args WindowInput) (*mcpsdk.CallToolResult, WindowStateOutput, error) {
	if args.WindowID == "" {
		return nil, WindowStateOutput{}, fmt.Errorf("window_id is required")
	}
	rec, err := s.daemon.GetWindowState(args.WindowID)
	if err != nil {
		return nil, WindowStateOutput{}, err
	}
	return nil, windowState(rec), nil
}

func (s *Server) handleRestoreWindows(_ context.Context, _ *mcpsdk.CallToolRequest, args RestoreWindowsInput) (*mcpsdk.CallToolResult, RestoreWindowsOutput, error) {
	results, err := s.daemon.RestoreWindows(args.Windows)
	if err != nil {
		return nil, RestoreWindowsOutput{}, err
	}
	return nil, RestoreWindowsOutput{Results: restoreOutcomes(results)}, nil
}

func (s *Server) handleListWindows(_ context.Context, _ *mcpsdk.CallToolRequest, _ ListWindowsInput) (*mcpsdk.CallToolResult, ListWindowsOutput, error) {
	ids, err := s.daemon.ListWindowIDs()
	if err != nil {
		return nil, ListWindowsOutput{}, err
	}
	if ids == nil {
		ids = []string{}
	}
	return nil, ListWindowsOutput{WindowIDs: ids}, nil
}

func (s *Server) handleSetWindowPrefs(_ context.Context, _ *mcpsdk.CallToolRequest, args SetWindowPrefsInput) (*mcpsdk.CallToolResult, SetWindowPrefsOutput, error) {
	if args.WindowID == "" {
		return nil, SetWindowPrefsOutput{}, fmt.Errorf("window_id is required")
	}
	if args.ThemeID == nil && args.Title == nil && args.Mode == nil && args.LastTime == nil {
		return nil, SetWindowPrefsOutput{}, fmt.Errorf("nothing to update: set at least one of theme_id, title, mode, last_time")
	}
	entry, err := s.daemon.SetWindowPrefs(args.WindowID, registry.PrefsUpdate{
		ThemeID:  args.ThemeID,
		Title:    args.Title,
		Mode:     args.Mode,
		LastTime: args.LastTime,
	})
	if err != nil {
		return nil, SetWindowPrefsOutput{}, err
	}
	return nil, prefsOutput(entry), nil
}
