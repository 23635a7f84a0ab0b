//go:build linux

package platform

import (
	"fmt"
	"log"
	"sort"
	"sync"

	"github.com/1broseidon/floattimer/internal/x11"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/xevent"
)

// minVisibleOverlap is how much of a saved position must land on a monitor
// before it is honored.
const minVisibleOverlap = 50

type x11Window struct {
	xid      xproto.Window
	handler  EventHandler
	lastSize Size
}

// LinuxHost realizes timer windows as X11 top-level windows.
type LinuxHost struct {
	conn *x11.Connection

	mu      sync.RWMutex
	windows map[string]*x11Window

	// destroy and detach default to the X11 connection; tests replace them.
	destroy func(xproto.Window) error
	detach  func(xproto.Window)
}

var _ Host = (*LinuxHost)(nil)

// NewLinuxHost creates a host from an existing X11 connection.
func NewLinuxHost(conn *x11.Connection) *LinuxHost {
	return &LinuxHost{
		conn:    conn,
		windows: make(map[string]*x11Window),
		destroy: conn.DestroyWindow,
		detach: func(xid xproto.Window) {
			xevent.Detach(conn.XUtil, xid)
		},
	}
}

// NewLinuxHostFromDisplay opens a new X11 connection to display ("" uses $DISPLAY).
func NewLinuxHostFromDisplay(display string) (*LinuxHost, error) {
	conn, err := x11.NewConnection(display)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X11: %w", err)
	}
	return NewLinuxHost(conn), nil
}

// Disconnect closes the X11 connection. The server destroys every window
// this host created; no close events are delivered for them.
func (h *LinuxHost) Disconnect() {
	if h != nil && h.conn != nil {
		h.conn.Close()
	}
}

// EventLoop dispatches X11 events until Quit (blocking).
func (h *LinuxHost) EventLoop() {
	if h != nil && h.conn != nil {
		h.conn.EventLoop()
	}
}

// Quit stops EventLoop.
func (h *LinuxHost) Quit() {
	if h != nil && h.conn != nil {
		h.conn.Quit()
	}
}

// XUtil returns the underlying xgbutil connection for X11-specific operations.
func (h *LinuxHost) XUtil() *xgbutil.XUtil {
	if h == nil || h.conn == nil {
		return nil
	}
	return h.conn.XUtil
}

// RootWindow returns the X11 root window ID.
func (h *LinuxHost) RootWindow() xproto.Window {
	if h == nil || h.conn == nil {
		return 0
	}
	return h.conn.Root
}

func (h *LinuxHost) CreateWindow(spec WindowSpec) error {
	if spec.ID == "" {
		return fmt.Errorf("window id is required")
	}
	h.mu.Lock()
	if _, exists := h.windows[spec.ID]; exists {
		h.mu.Unlock()
		return fmt.Errorf("window %q already exists", spec.ID)
	}
	// Reserve the id so a concurrent create with the same label fails.
	win := &x11Window{handler: spec.Handler, lastSize: spec.Size}
	h.windows[spec.ID] = win
	h.mu.Unlock()

	params := x11.WindowParams{
		Title:       spec.Title,
		URL:         spec.URL,
		Width:       int(spec.Size.Width),
		Height:      int(spec.Size.Height),
		MinWidth:    int(spec.MinSize.Width),
		MinHeight:   int(spec.MinSize.Height),
		Borderless:  !spec.Chrome.Decorations,
		Transparent: spec.Chrome.Transparent,
		AlwaysOnTop: spec.Chrome.AlwaysOnTop,
		Resizable:   spec.Chrome.Resizable,
		NoShadow:    !spec.Chrome.Shadow,
	}
	if spec.Position != nil {
		pos := *spec.Position
		if h.conn.Visible(pos.X, pos.Y, params.Width, params.Height, minVisibleOverlap) {
			params.X, params.Y, params.Placed = pos.X, pos.Y, true
		} else {
			log.Printf("Window %s: saved position (%d,%d) is off-screen, letting the window manager place it", spec.ID, pos.X, pos.Y)
		}
	}

	xid, err := h.conn.CreateWindow(params, func(xid xproto.Window) {
		h.attach(spec.ID, xid)
	})
	if err != nil {
		h.mu.Lock()
		delete(h.windows, spec.ID)
		h.mu.Unlock()
		return err
	}

	h.mu.Lock()
	win.xid = xid
	h.mu.Unlock()
	return nil
}

// CloseWindow destroys the window. The table entry and event handlers are
// released only once the server has accepted the destroy, so a failed
// close leaves the window listed and still reporting events.
func (h *LinuxHost) CloseWindow(id string) error {
	h.mu.RLock()
	win, ok := h.windows[id]
	h.mu.RUnlock()
	if !ok || win.xid == 0 {
		return fmt.Errorf("close %s: %w", id, ErrUnknownWindow)
	}

	if err := h.destroy(win.xid); err != nil {
		return fmt.Errorf("close %s: %w", id, err)
	}
	h.forget(id, win.xid)
	return nil
}

func (h *LinuxHost) OuterPosition(id string) (Point, error) {
	xid, err := h.lookup(id)
	if err != nil {
		return Point{}, err
	}
	x, y, err := h.conn.OuterPosition(xid)
	if err != nil {
		return Point{}, err
	}
	return Point{X: x, Y: y}, nil
}

func (h *LinuxHost) InnerSize(id string) (Size, error) {
	xid, err := h.lookup(id)
	if err != nil {
		return Size{}, err
	}
	w, ht, err := h.conn.InnerSize(xid)
	if err != nil {
		return Size{}, err
	}
	return Size{Width: uint(w), Height: uint(ht)}, nil
}

func (h *LinuxHost) SetSize(id string, size Size) error {
	xid, err := h.lookup(id)
	if err != nil {
		return err
	}
	return h.conn.ResizeWindow(xid, int(size.Width), int(size.Height))
}

func (h *LinuxHost) ListWindows() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ids := make([]string, 0, len(h.windows))
	for id, win := range h.windows {
		if win.xid == 0 {
			continue
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ActiveWindow returns the id of the focused timer window, if any.
func (h *LinuxHost) ActiveWindow() (string, bool) {
	active, err := h.conn.GetActiveWindow()
	if err != nil || active == 0 {
		return "", false
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for id, win := range h.windows {
		if win.xid == active {
			return id, true
		}
	}
	return "", false
}

func (h *LinuxHost) lookup(id string) (xproto.Window, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	win, ok := h.windows[id]
	if !ok || win.xid == 0 {
		return 0, fmt.Errorf("window %s: %w", id, ErrUnknownWindow)
	}
	return win.xid, nil
}

// attach subscribes the window's events. Callbacks run on the EventLoop goroutine.
func (h *LinuxHost) attach(id string, xid xproto.Window) {
	xu := h.conn.XUtil

	xevent.ConfigureNotifyFun(func(xu *xgbutil.XUtil, ev xevent.ConfigureNotifyEvent) {
		h.onConfigure(id, Size{Width: uint(ev.Width), Height: uint(ev.Height)})
	}).Connect(xu, xid)

	xevent.DestroyNotifyFun(func(xu *xgbutil.XUtil, ev xevent.DestroyNotifyEvent) {
		h.onDestroyed(id, xid)
	}).Connect(xu, xid)

	xevent.ClientMessageFun(func(xu *xgbutil.XUtil, ev xevent.ClientMessageEvent) {
		if !h.conn.IsDeleteRequest(ev.Type, ev.Data.Data32) {
			return
		}
		if err := h.CloseWindow(id); err != nil {
			log.Printf("Window %s: close request failed: %v", id, err)
		}
	}).Connect(xu, xid)
}

// onConfigure forwards size changes; pure moves are ignored.
func (h *LinuxHost) onConfigure(id string, size Size) {
	h.mu.Lock()
	win, ok := h.windows[id]
	if !ok || win.lastSize == size {
		h.mu.Unlock()
		return
	}
	win.lastSize = size
	handler := win.handler
	h.mu.Unlock()

	if handler != nil {
		handler.HandleResize(id, size)
	}
}

// onDestroyed handles windows destroyed outside CloseWindow.
func (h *LinuxHost) onDestroyed(id string, xid xproto.Window) {
	h.forget(id, xid)
}

// forget drops id from the table if it still names xid, detaches its
// handlers and reports the close. The DestroyNotify for a CloseWindow races
// the close itself; whichever gets here first reports it.
func (h *LinuxHost) forget(id string, xid xproto.Window) {
	h.mu.Lock()
	win, ok := h.windows[id]
	if !ok || win.xid != xid {
		h.mu.Unlock()
		return
	}
	delete(h.windows, id)
	h.mu.Unlock()

	h.detach(xid)
	if win.handler != nil {
		win.handler.HandleClose(id)
	}
}
