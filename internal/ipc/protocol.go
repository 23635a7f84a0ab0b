package ipc

import (
	"encoding/json"
	"fmt"

	"github.com/1broseidon/floattimer/internal/lifecycle"
	"github.com/1broseidon/floattimer/internal/platform"
	"github.com/1broseidon/floattimer/internal/registry"
)

// CommandType represents different IPC command types
type CommandType string

const (
	CommandReload          CommandType = "RELOAD"
	CommandGetStatus       CommandType = "GET_STATUS"
	CommandCreateWindow    CommandType = "CREATE_WINDOW"
	CommandCloseWindow     CommandType = "CLOSE_WINDOW"
	CommandGetWindowState  CommandType = "GET_WINDOW_STATE"
	CommandRestoreWindows  CommandType = "RESTORE_WINDOWS"
	CommandGetAllWindowIDs CommandType = "GET_ALL_WINDOW_IDS"
	CommandSetWindowPrefs  CommandType = "SET_WINDOW_PREFS"
	CommandGetRegistry     CommandType = "GET_REGISTRY"
)

// Request represents an IPC request from client to server
type Request struct {
	Command CommandType     `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response represents an IPC response from server to client
type Response struct {
	Status string          `json:"status"` // "OK" or "ERROR"
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// StatusData represents the data returned by GET_STATUS
type StatusData struct {
	DaemonRunning bool    `json:"daemon_running"`
	UptimeSeconds int64   `json:"uptime_seconds"`
	WindowCount   int     `json:"window_count"`
	NextWindowID  string  `json:"next_window_id"`
	AspectRatio   float64 `json:"aspect_ratio"`
	RegistryPath  string  `json:"registry_path,omitempty"`
}

// CreateWindowPayload positions the new window relative to an anchor.
// The anchor is used only when both coordinates are present.
type CreateWindowPayload struct {
	X *int `json:"x,omitempty"`
	Y *int `json:"y,omitempty"`
}

// Anchor returns the anchor point, or nil for host placement.
func (p CreateWindowPayload) Anchor() *platform.Point {
	if p.X == nil || p.Y == nil {
		return nil
	}
	return &platform.Point{X: *p.X, Y: *p.Y}
}

type CreateWindowData struct {
	WindowID string `json:"window_id"`
}

// WindowPayload names a single window.
type WindowPayload struct {
	WindowID string `json:"window_id"`
}

type RestoreWindowsPayload struct {
	Windows []platform.WindowRecord `json:"windows"`
}

type RestoreWindowsData struct {
	Results []lifecycle.RestoreResult `json:"results"`
}

type WindowIDsData struct {
	WindowIDs []string `json:"window_ids"`
}

type SetWindowPrefsPayload struct {
	WindowID string `json:"window_id"`
	registry.PrefsUpdate
}

type RegistryData struct {
	Path    string           `json:"path"`
	Windows []registry.Entry `json:"windows"`
}

// NewOKResponse creates a successful response with optional data
func NewOKResponse(data interface{}) (*Response, error) {
	var dataBytes json.RawMessage
	if data != nil {
		bytes, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response data: %w", err)
		}
		dataBytes = bytes
	}

	return &Response{
		Status: "OK",
		Data:   dataBytes,
	}, nil
}

// NewErrorResponse creates an error response with a message
func NewErrorResponse(errMsg string) *Response {
	return &Response{
		Status: "ERROR",
		Error:  errMsg,
	}
}

// ParseRequest parses a request from JSON bytes
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	return &req, nil
}

// Marshal converts a response to JSON bytes
func (r *Response) Marshal() ([]byte, error) {
	return json.Marshal(r)
}

func decodePayload(payload json.RawMessage, out any) error {
	if len(payload) == 0 {
		return nil
	}
	return json.Unmarshal(payload, out)
}
