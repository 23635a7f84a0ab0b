// Package lifecycle creates, closes, inspects and restores timer windows.
package lifecycle

import (
	"errors"
	"net/url"
	"sync"

	"github.com/1broseidon/floattimer/internal/aspect"
	"github.com/1broseidon/floattimer/internal/platform"
	"github.com/1broseidon/floattimer/internal/windowid"
)

// MainWindowID labels the window created at daemon start. Restore never
// recreates it.
const MainWindowID = "main"

// Options controls how new windows look.
type Options struct {
	Title       string
	URL         string
	DefaultSize platform.Size
	MinSize     platform.Size
	SpawnOffset platform.Point
	Chrome      platform.Chrome
}

// DefaultOptions returns the stock timer window settings.
func DefaultOptions() Options {
	return Options{
		Title:       "Countdown Timer",
		URL:         "index.html",
		DefaultSize: platform.Size{Width: 312, Height: 125},
		MinSize:     platform.Size{Width: 250, Height: 100},
		SpawnOffset: platform.Point{X: 30, Y: 30},
		Chrome:      platform.TimerChrome(),
	}
}

// Observer is told about windows appearing and disappearing.
type Observer interface {
	WindowCreated(rec platform.WindowRecord)
	WindowClosed(id string)
}

// Outcome is the result of restoring one record.
type Outcome string

const (
	OutcomeRestored Outcome = "restored"
	OutcomeSkipped  Outcome = "skipped"
	OutcomeFailed   Outcome = "failed"
)

// RestoreResult pairs a record id with what happened to it.
type RestoreResult struct {
	ID      string  `json:"id"`
	Outcome Outcome `json:"outcome"`
	Error   string  `json:"error,omitempty"`

	Err error `json:"-"`
}

// Manager owns the set of timer windows.
type Manager struct {
	host     platform.Host
	ids      *windowid.Allocator
	enforcer *aspect.Enforcer
	events   *windowEvents

	mu       sync.RWMutex
	opts     Options
	observer Observer
}

// NewManager wires a manager to a host. Every window it creates routes its
// resize events through enforcer.
func NewManager(host platform.Host, ids *windowid.Allocator, enforcer *aspect.Enforcer, opts Options) *Manager {
	m := &Manager{
		host:     host,
		ids:      ids,
		enforcer: enforcer,
		opts:     opts,
	}
	m.events = &windowEvents{m: m}
	return m
}

// SetObserver registers the observer for create/close notifications.
func (m *Manager) SetObserver(o Observer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observer = o
}

// UpdateOptions changes the settings used for windows created from now on.
func (m *Manager) UpdateOptions(opts Options) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.opts = opts
}

// Options returns the current window settings.
func (m *Manager) Options() Options {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.opts
}

// NextID reports the number the next generated label will carry.
func (m *Manager) NextID() uint32 {
	return m.ids.Peek()
}

// CreateWindow opens a new timer window. With an anchor the window is
// placed at anchor plus the spawn offset; without one the host places it.
func (m *Manager) CreateWindow(anchor *platform.Point) (string, error) {
	opts := m.Options()
	id, err := m.ids.Next()
	if err != nil {
		return "", err
	}

	var pos *platform.Point
	if anchor != nil {
		p := anchor.Add(opts.SpawnOffset)
		pos = &p
	}
	if err := m.create(id, opts.DefaultSize, pos, opts); err != nil {
		return "", err
	}
	return id, nil
}

// Bootstrap opens the main window, at rec's geometry when given.
func (m *Manager) Bootstrap(rec *platform.WindowRecord) error {
	opts := m.Options()
	size := opts.DefaultSize
	var pos *platform.Point
	if rec != nil {
		if rec.Width > 0 && rec.Height > 0 {
			size = rec.Size()
		}
		if p, ok := rec.Position(); ok {
			pos = &p
		}
	}
	return m.create(MainWindowID, size, pos, opts)
}

// CloseWindow closes the window. Closing an unknown id succeeds.
func (m *Manager) CloseWindow(id string) error {
	err := m.host.CloseWindow(id)
	if err == nil || errors.Is(err, platform.ErrUnknownWindow) {
		return nil
	}
	return &HostError{Op: "close window", ID: id, Err: err}
}

// GetWindowState returns the window's outer position and inner size.
func (m *Manager) GetWindowState(id string) (platform.WindowRecord, error) {
	pos, err := m.host.OuterPosition(id)
	if err != nil {
		return platform.WindowRecord{}, m.queryError("get position", id, err)
	}
	size, err := m.host.InnerSize(id)
	if err != nil {
		return platform.WindowRecord{}, m.queryError("get size", id, err)
	}
	return platform.NewWindowRecord(id, pos, size), nil
}

// RestoreWindows recreates windows from saved records. The main window is
// skipped. Each record succeeds or fails on its own; the allocator is moved
// past every restored label so new windows never collide with them.
func (m *Manager) RestoreWindows(records []platform.WindowRecord) []RestoreResult {
	opts := m.Options()
	results := make([]RestoreResult, 0, len(records))

	for _, rec := range records {
		if rec.ID == MainWindowID {
			results = append(results, RestoreResult{ID: rec.ID, Outcome: OutcomeSkipped})
			continue
		}

		m.ids.Reconcile(rec.ID)

		if rec.ID == "" {
			err := errors.New("record has no id")
			results = append(results, RestoreResult{Outcome: OutcomeFailed, Error: err.Error(), Err: err})
			continue
		}

		size := rec.Size()
		if size.Width == 0 || size.Height == 0 {
			size = opts.DefaultSize
		}
		var pos *platform.Point
		if p, ok := rec.Position(); ok {
			pos = &p
		}

		if err := m.create(rec.ID, size, pos, opts); err != nil {
			results = append(results, RestoreResult{ID: rec.ID, Outcome: OutcomeFailed, Error: err.Error(), Err: err})
			continue
		}
		results = append(results, RestoreResult{ID: rec.ID, Outcome: OutcomeRestored})
	}
	return results
}

// ListWindowIDs returns the ids of all live windows.
func (m *Manager) ListWindowIDs() []string {
	return m.host.ListWindows()
}

func (m *Manager) create(id string, size platform.Size, pos *platform.Point, opts Options) error {
	spec := platform.WindowSpec{
		ID:       id,
		Title:    opts.Title,
		URL:      WindowURL(opts.URL, id),
		Chrome:   opts.Chrome,
		Size:     size,
		MinSize:  opts.MinSize,
		Position: pos,
		Handler:  m.events,
	}
	if err := m.host.CreateWindow(spec); err != nil {
		return &HostError{Op: "create window", ID: id, Err: err}
	}

	if o := m.currentObserver(); o != nil {
		rec := platform.WindowRecord{ID: id, Width: size.Width, Height: size.Height}
		if pos != nil {
			x, y := pos.X, pos.Y
			rec.X, rec.Y = &x, &y
		}
		o.WindowCreated(rec)
	}
	return nil
}

func (m *Manager) queryError(op, id string, err error) error {
	if errors.Is(err, platform.ErrUnknownWindow) {
		return &NotFoundError{ID: id}
	}
	return &HostError{Op: op, ID: id, Err: err}
}

func (m *Manager) currentObserver() Observer {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.observer
}

// WindowURL appends the window id to the front-end page as windowId.
func WindowURL(page, id string) string {
	u, err := url.Parse(page)
	if err != nil {
		return page + "?windowId=" + url.QueryEscape(id)
	}
	q := u.Query()
	q.Set("windowId", id)
	u.RawQuery = q.Encode()
	return u.String()
}

// windowEvents is the handler subscribed on every window.
type windowEvents struct {
	m *Manager
}

func (e *windowEvents) HandleResize(id string, size platform.Size) {
	e.m.enforcer.Enforce(id, size)
}

func (e *windowEvents) HandleClose(id string) {
	if o := e.m.currentObserver(); o != nil {
		o.WindowClosed(id)
	}
}
