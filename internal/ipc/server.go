package ipc

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"sync"
	"time"

	"github.com/1broseidon/floattimer/internal/config"
	"github.com/1broseidon/floattimer/internal/lifecycle"
	"github.com/1broseidon/floattimer/internal/platform"
	"github.com/1broseidon/floattimer/internal/registry"
	"github.com/1broseidon/floattimer/internal/runtimepath"
	"github.com/1broseidon/floattimer/internal/windowid"
)

// Windows is the window-management surface the server drives. It is
// satisfied by *lifecycle.Manager.
type Windows interface {
	CreateWindow(anchor *platform.Point) (string, error)
	CloseWindow(id string) error
	GetWindowState(id string) (platform.WindowRecord, error)
	RestoreWindows(records []platform.WindowRecord) []lifecycle.RestoreResult
	ListWindowIDs() []string
	NextID() uint32
}

// Server handles IPC requests from clients
type Server struct {
	socketPath   string
	listener     net.Listener
	cfg          *config.Config
	cfgMu        sync.RWMutex
	windows      Windows
	registry     *registry.Registry
	startTime    time.Time
	reloadChan   chan struct{}
	shuttingDown bool
	shutdownMu   sync.Mutex
}

// NewServer creates a new IPC server. reg may be nil when the daemon runs
// without a registry.
func NewServer(cfg *config.Config, windows Windows, reg *registry.Registry, reloadChan chan struct{}) (*Server, error) {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve IPC socket path: %w", err)
	}

	// Remove a stale socket from a previous run.
	os.Remove(socketPath)

	return &Server{
		socketPath: socketPath,
		cfg:        cfg,
		windows:    windows,
		registry:   reg,
		startTime:  time.Now(),
		reloadChan: reloadChan,
	}, nil
}

// Start begins listening for IPC connections
func (s *Server) Start() error {
	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create IPC socket: %w", err)
	}
	s.listener = listener

	if err := os.Chmod(s.socketPath, 0600); err != nil {
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	log.Printf("IPC server listening on %s", s.socketPath)

	go s.acceptLoop()

	return nil
}

// SocketPath returns the path the server listens on.
func (s *Server) SocketPath() string {
	return s.socketPath
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.shutdownMu.Lock()
			if s.shuttingDown {
				s.shutdownMu.Unlock()
				return
			}
			s.shutdownMu.Unlock()
			log.Printf("IPC accept error: %v", err)
			continue
		}

		go s.handleConnection(conn)
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	reader := bufio.NewReader(conn)

	// One JSON request per line.
	data, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		log.Printf("IPC read error: %v", err)
		return
	}

	req, err := ParseRequest(data)
	if err != nil {
		s.sendError(conn, fmt.Sprintf("Invalid request: %v", err))
		return
	}

	resp := s.handleCommand(req)

	respData, err := resp.Marshal()
	if err != nil {
		log.Printf("Failed to marshal response: %v", err)
		return
	}

	respData = append(respData, '\n')
	if _, err := conn.Write(respData); err != nil {
		log.Printf("Failed to send response: %v", err)
	}
}

func (s *Server) handleCommand(req *Request) *Response {
	switch req.Command {
	case CommandReload:
		return s.handleReload()
	case CommandGetStatus:
		return s.handleGetStatus()
	case CommandCreateWindow:
		return s.handleCreateWindow(req.Payload)
	case CommandCloseWindow:
		return s.handleCloseWindow(req.Payload)
	case CommandGetWindowState:
		return s.handleGetWindowState(req.Payload)
	case CommandRestoreWindows:
		return s.handleRestoreWindows(req.Payload)
	case CommandGetAllWindowIDs:
		return s.handleGetAllWindowIDs()
	case CommandSetWindowPrefs:
		return s.handleSetWindowPrefs(req.Payload)
	case CommandGetRegistry:
		return s.handleGetRegistry()
	default:
		return NewErrorResponse(fmt.Sprintf("Unknown command: %s", req.Command))
	}
}

func (s *Server) handleReload() *Response {
	log.Println("IPC: Received RELOAD command")

	newCfg, err := config.Load()
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to reload config: %v", err))
	}

	s.cfgMu.Lock()
	s.cfg = newCfg
	s.cfgMu.Unlock()

	// Non-blocking: a pending reload already covers this one.
	select {
	case s.reloadChan <- struct{}{}:
	default:
	}

	log.Println("IPC: Config reloaded successfully")

	resp, _ := NewOKResponse(nil)
	return resp
}

func (s *Server) handleGetStatus() *Response {
	cfg := s.GetConfig()
	status := StatusData{
		DaemonRunning: true,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		WindowCount:   len(s.windows.ListWindowIDs()),
		NextWindowID:  windowid.Format(s.windows.NextID()),
	}
	if cfg != nil {
		status.AspectRatio = cfg.AspectRatio
	}
	if s.registry != nil {
		status.RegistryPath = s.registry.Path()
	}

	resp, _ := NewOKResponse(status)
	return resp
}

func (s *Server) handleCreateWindow(payload json.RawMessage) *Response {
	var req CreateWindowPayload
	if err := decodePayload(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid create payload: %v", err))
	}

	id, err := s.windows.CreateWindow(req.Anchor())
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	log.Printf("IPC: Created window %s", id)

	resp, _ := NewOKResponse(CreateWindowData{WindowID: id})
	return resp
}

func (s *Server) handleCloseWindow(payload json.RawMessage) *Response {
	var req WindowPayload
	if err := decodePayload(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid close payload: %v", err))
	}
	if req.WindowID == "" {
		return NewErrorResponse("window_id is required")
	}

	if err := s.windows.CloseWindow(req.WindowID); err != nil {
		return NewErrorResponse(err.Error())
	}

	resp, _ := NewOKResponse(nil)
	return resp
}

func (s *Server) handleGetWindowState(payload json.RawMessage) *Response {
	var req WindowPayload
	if err := decodePayload(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid state payload: %v", err))
	}
	if req.WindowID == "" {
		return NewErrorResponse("window_id is required")
	}

	rec, err := s.windows.GetWindowState(req.WindowID)
	if err != nil {
		return NewErrorResponse(err.Error())
	}

	resp, _ := NewOKResponse(rec)
	return resp
}

func (s *Server) handleRestoreWindows(payload json.RawMessage) *Response {
	var req RestoreWindowsPayload
	if err := decodePayload(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid restore payload: %v", err))
	}

	results := s.windows.RestoreWindows(req.Windows)
	for _, r := range results {
		if r.Outcome == lifecycle.OutcomeFailed {
			log.Printf("IPC: Failed to restore window %q: %s", r.ID, r.Error)
		}
	}

	resp, _ := NewOKResponse(RestoreWindowsData{Results: results})
	return resp
}

func (s *Server) handleGetAllWindowIDs() *Response {
	ids := s.windows.ListWindowIDs()
	if ids == nil {
		ids = []string{}
	}
	resp, _ := NewOKResponse(WindowIDsData{WindowIDs: ids})
	return resp
}

func (s *Server) handleSetWindowPrefs(payload json.RawMessage) *Response {
	if s.registry == nil {
		return NewErrorResponse("window registry is not available")
	}
	var req SetWindowPrefsPayload
	if err := decodePayload(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid prefs payload: %v", err))
	}
	if req.WindowID == "" {
		return NewErrorResponse("window_id is required")
	}

	entry, err := s.registry.SetPrefs(req.WindowID, req.PrefsUpdate)
	if errors.Is(err, registry.ErrUnknownEntry) {
		return NewErrorResponse(fmt.Sprintf("window %s not found", req.WindowID))
	}
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to update prefs: %v", err))
	}

	resp, _ := NewOKResponse(entry)
	return resp
}

func (s *Server) handleGetRegistry() *Response {
	if s.registry == nil {
		return NewErrorResponse("window registry is not available")
	}
	resp, _ := NewOKResponse(RegistryData{
		Path:    s.registry.Path(),
		Windows: s.registry.Entries(),
	})
	return resp
}

func (s *Server) sendError(conn net.Conn, errMsg string) {
	resp := NewErrorResponse(errMsg)
	data, _ := resp.Marshal()
	data = append(data, '\n')
	conn.Write(data)
}

// Stop gracefully shuts down the IPC server
func (s *Server) Stop() {
	s.shutdownMu.Lock()
	s.shuttingDown = true
	s.shutdownMu.Unlock()

	if s.listener != nil {
		s.listener.Close()
	}
	os.Remove(s.socketPath)
}

// GetConfig returns the current config (thread-safe)
func (s *Server) GetConfig() *config.Config {
	s.cfgMu.RLock()
	defer s.cfgMu.RUnlock()
	return s.cfg
}

// UpdateConfig updates the config (thread-safe)
func (s *Server) UpdateConfig(cfg *config.Config) {
	s.cfgMu.Lock()
	defer s.cfgMu.Unlock()
	s.cfg = cfg
}
