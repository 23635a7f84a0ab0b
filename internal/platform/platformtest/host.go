// Package platformtest provides an in-memory platform.Host for tests.
package platformtest

import (
	"fmt"
	"sort"
	"sync"

	"github.com/1broseidon/floattimer/internal/platform"
)

// Window is the fake host's view of one window.
type Window struct {
	Spec     platform.WindowSpec
	Position platform.Point
	Size     platform.Size
}

// Host is a platform.Host that keeps windows in memory. Resize events are
// queued by SetSize and Resize and delivered by Flush, mimicking a window
// system that reports geometry changes asynchronously.
type Host struct {
	mu      sync.Mutex
	windows map[string]*Window
	pending []resizeEvent

	// FailCreate makes CreateWindow fail for the listed ids.
	FailCreate map[string]error
	// FailClose makes CloseWindow fail for the listed ids.
	FailClose map[string]error

	SetSizeCalls []SetSizeCall
	Created      []string
}

// SetSizeCall records one SetSize request.
type SetSizeCall struct {
	ID   string
	Size platform.Size
}

type resizeEvent struct {
	id   string
	size platform.Size
}

var _ platform.Host = (*Host)(nil)

// NewHost returns an empty fake host.
func NewHost() *Host {
	return &Host{
		windows:    make(map[string]*Window),
		FailCreate: make(map[string]error),
		FailClose:  make(map[string]error),
	}
}

func (h *Host) CreateWindow(spec platform.WindowSpec) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err, ok := h.FailCreate[spec.ID]; ok {
		return err
	}
	if _, exists := h.windows[spec.ID]; exists {
		return fmt.Errorf("window %q already exists", spec.ID)
	}
	w := &Window{Spec: spec, Size: spec.Size}
	if spec.Position != nil {
		w.Position = *spec.Position
	}
	h.windows[spec.ID] = w
	h.Created = append(h.Created, spec.ID)
	return nil
}

func (h *Host) CloseWindow(id string) error {
	h.mu.Lock()
	if err, ok := h.FailClose[id]; ok {
		h.mu.Unlock()
		return err
	}
	w, ok := h.windows[id]
	if !ok {
		h.mu.Unlock()
		return fmt.Errorf("close %q: %w", id, platform.ErrUnknownWindow)
	}
	delete(h.windows, id)
	h.mu.Unlock()

	if w.Spec.Handler != nil {
		w.Spec.Handler.HandleClose(id)
	}
	return nil
}

func (h *Host) OuterPosition(id string) (platform.Point, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	w, ok := h.windows[id]
	if !ok {
		return platform.Point{}, platform.ErrUnknownWindow
	}
	return w.Position, nil
}

func (h *Host) InnerSize(id string) (platform.Size, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	w, ok := h.windows[id]
	if !ok {
		return platform.Size{}, platform.ErrUnknownWindow
	}
	return w.Size, nil
}

func (h *Host) SetSize(id string, size platform.Size) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	w, ok := h.windows[id]
	if !ok {
		return platform.ErrUnknownWindow
	}
	h.SetSizeCalls = append(h.SetSizeCalls, SetSizeCall{ID: id, Size: size})
	w.Size = size
	h.pending = append(h.pending, resizeEvent{id: id, size: size})
	return nil
}

func (h *Host) ListWindows() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	ids := make([]string, 0, len(h.windows))
	for id := range h.windows {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Window returns a copy of the window's state.
func (h *Host) Window(id string) (Window, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	w, ok := h.windows[id]
	if !ok {
		return Window{}, false
	}
	return *w, true
}

// Move sets a window's position as if the user dragged it.
func (h *Host) Move(id string, pos platform.Point) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if w, ok := h.windows[id]; ok {
		w.Position = pos
	}
}

// Resize simulates a user resize and queues the resulting event.
func (h *Host) Resize(id string, size platform.Size) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if w, ok := h.windows[id]; ok {
		w.Size = size
		h.pending = append(h.pending, resizeEvent{id: id, size: size})
	}
}

// Destroy removes a window as if the window system killed it.
func (h *Host) Destroy(id string) {
	h.mu.Lock()
	w, ok := h.windows[id]
	delete(h.windows, id)
	h.mu.Unlock()
	if ok && w.Spec.Handler != nil {
		w.Spec.Handler.HandleClose(id)
	}
}

// Flush delivers queued resize events, including ones queued while
// delivering, and returns how many were delivered. It stops after limit
// deliveries so a feedback loop fails a test instead of hanging it.
func (h *Host) Flush(limit int) int {
	delivered := 0
	for delivered < limit {
		h.mu.Lock()
		if len(h.pending) == 0 {
			h.mu.Unlock()
			return delivered
		}
		ev := h.pending[0]
		h.pending = h.pending[1:]
		w, ok := h.windows[ev.id]
		h.mu.Unlock()

		if ok && w.Spec.Handler != nil {
			w.Spec.Handler.HandleResize(ev.id, ev.size)
		}
		delivered++
	}
	return delivered
}
