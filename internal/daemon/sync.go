package daemon

import (
	"log/slog"
	"sync/atomic"

	"github.com/1broseidon/floattimer/internal/lifecycle"
	"github.com/1broseidon/floattimer/internal/platform"
	"github.com/1broseidon/floattimer/internal/registry"
)

// LiveWindows reports the windows that are still open.
type LiveWindows interface {
	ListWindowIDs() []string
}

// Synchronizer keeps the window registry in step with window lifecycle
// events. It implements lifecycle.Observer.
type Synchronizer struct {
	reg          *registry.Registry
	windows      LiveWindows
	logger       *slog.Logger
	onLastClosed func()

	shuttingDown atomic.Bool
}

var _ lifecycle.Observer = (*Synchronizer)(nil)

// NewSynchronizer creates a synchronizer. onLastClosed runs once, after the
// last live window has closed and the registry has been flushed.
func NewSynchronizer(reg *registry.Registry, windows LiveWindows, logger *slog.Logger, onLastClosed func()) *Synchronizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Synchronizer{
		reg:          reg,
		windows:      windows,
		logger:       logger,
		onLastClosed: onLastClosed,
	}
}

// WindowCreated registers a new or restored window.
func (s *Synchronizer) WindowCreated(rec platform.WindowRecord) {
	if err := s.reg.Upsert(rec); err != nil {
		s.logger.Warn("failed to register window", "window_id", rec.ID, "error", err)
		return
	}
	s.logger.Debug("window registered", "window_id", rec.ID, "width", rec.Width, "height", rec.Height)
}

// WindowClosed drops a closed timer from the registry. The main window
// keeps its entry so the next start reopens it where it was; its close
// only flushes the registry.
func (s *Synchronizer) WindowClosed(id string) {
	if s.shuttingDown.Load() {
		s.logger.Debug("window closed during shutdown, keeping entry", "window_id", id)
		return
	}

	if id == lifecycle.MainWindowID {
		s.logger.Info("main window closed, flushing registry")
		if err := s.reg.Save(); err != nil {
			s.logger.Warn("failed to flush registry", "error", err)
		}
	} else {
		removed, err := s.reg.Remove(id)
		if err != nil {
			s.logger.Warn("failed to remove window from registry", "window_id", id, "error", err)
		} else if removed {
			s.logger.Info("window closed, removed from registry", "window_id", id)
		}
	}

	if s.windows != nil && len(s.windows.ListWindowIDs()) > 0 {
		return
	}
	if !s.shuttingDown.CompareAndSwap(false, true) {
		return
	}
	s.logger.Info("last window closed")
	if s.onLastClosed != nil {
		s.onLastClosed()
	}
}

// BeginShutdown stops close events from pruning the registry.
func (s *Synchronizer) BeginShutdown() {
	s.shuttingDown.Store(true)
}

// ShuttingDown reports whether BeginShutdown was called or the last window
// has closed.
func (s *Synchronizer) ShuttingDown() bool {
	return s.shuttingDown.Load()
}
