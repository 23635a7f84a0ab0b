package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/1broseidon/floattimer/internal/lifecycle"
	"github.com/1broseidon/floattimer/internal/platform"
	"github.com/1broseidon/floattimer/internal/registry"
	"github.com/1broseidon/floattimer/internal/runtimepath"
)

// Client handles IPC communication with the daemon
type Client struct {
	socketPath string
	timeout    time.Duration
}

// NewClient creates a new IPC client
func NewClient() *Client {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		// Keep constructor non-failing; sendRequest surfaces connection errors.
		socketPath = ""
	}

	return &Client{
		socketPath: socketPath,
		timeout:    5 * time.Second,
	}
}

func (c *Client) sendRequest(req *Request) (*Response, error) {
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to daemon: %w (is the daemon running?)", err)
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(c.timeout))

	reqData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	reqData = append(reqData, '\n')
	if _, err := conn.Write(reqData); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	reader := bufio.NewReader(conn)
	respData, err := reader.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var resp Response
	if err := json.Unmarshal(respData, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if resp.Status == "ERROR" {
		return nil, fmt.Errorf("daemon error: %s", resp.Error)
	}

	return &resp, nil
}

func (c *Client) call(cmd CommandType, payload any, out any) error {
	req := &Request{Command: cmd}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal %s payload: %w", cmd, err)
		}
		req.Payload = data
	}

	resp, err := c.sendRequest(req)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return fmt.Errorf("failed to parse %s data: %w", cmd, err)
	}
	return nil
}

// Reload sends a RELOAD command to the daemon
func (c *Client) Reload() error {
	return c.call(CommandReload, nil, nil)
}

// GetStatus retrieves daemon status
func (c *Client) GetStatus() (*StatusData, error) {
	var status StatusData
	if err := c.call(CommandGetStatus, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// CreateWindow opens a timer window, offset from anchor when given.
func (c *Client) CreateWindow(anchor *platform.Point) (string, error) {
	var payload CreateWindowPayload
	if anchor != nil {
		x, y := anchor.X, anchor.Y
		payload.X, payload.Y = &x, &y
	}
	var data CreateWindowData
	if err := c.call(CommandCreateWindow, payload, &data); err != nil {
		return "", err
	}
	return data.WindowID, nil
}

// CloseWindow closes a timer window. Unknown ids succeed.
func (c *Client) CloseWindow(id string) error {
	return c.call(CommandCloseWindow, WindowPayload{WindowID: id}, nil)
}

// GetWindowState returns the outer position and inner size of a window.
func (c *Client) GetWindowState(id string) (platform.WindowRecord, error) {
	var rec platform.WindowRecord
	if err := c.call(CommandGetWindowState, WindowPayload{WindowID: id}, &rec); err != nil {
		return platform.WindowRecord{}, err
	}
	return rec, nil
}

// RestoreWindows recreates windows from saved records.
func (c *Client) RestoreWindows(records []platform.WindowRecord) ([]lifecycle.RestoreResult, error) {
	var data RestoreWindowsData
	if err := c.call(CommandRestoreWindows, RestoreWindowsPayload{Windows: records}, &data); err != nil {
		return nil, err
	}
	return data.Results, nil
}

// ListWindowIDs returns the ids of all open timer windows.
func (c *Client) ListWindowIDs() ([]string, error) {
	var data WindowIDsData
	if err := c.call(CommandGetAllWindowIDs, nil, &data); err != nil {
		return nil, err
	}
	return data.WindowIDs, nil
}

// SetWindowPrefs updates the stored preferences of a window.
func (c *Client) SetWindowPrefs(id string, update registry.PrefsUpdate) (registry.Entry, error) {
	var entry registry.Entry
	payload := SetWindowPrefsPayload{WindowID: id, PrefsUpdate: update}
	if err := c.call(CommandSetWindowPrefs, payload, &entry); err != nil {
		return registry.Entry{}, err
	}
	return entry, nil
}

// GetRegistry returns every registry entry.
func (c *Client) GetRegistry() (*RegistryData, error) {
	var data RegistryData
	if err := c.call(CommandGetRegistry, nil, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// Ping checks if the daemon is responding
func (c *Client) Ping() error {
	_, err := c.GetStatus()
	return err
}
