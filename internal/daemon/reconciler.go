package daemon

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/1broseidon/floattimer/internal/lifecycle"
	"github.com/1broseidon/floattimer/internal/platform"
	"github.com/1broseidon/floattimer/internal/registry"
)

// WindowStates is the part of the lifecycle manager the reconciler reads.
type WindowStates interface {
	ListWindowIDs() []string
	GetWindowState(id string) (platform.WindowRecord, error)
}

// ReconcilerConfig holds configuration for the reconciler.
type ReconcilerConfig struct {
	Interval time.Duration
	Logger   *slog.Logger
}

// Reconciler periodically copies live window geometry into the registry
// and drops entries whose window no longer exists.
type Reconciler struct {
	interval time.Duration
	reg      *registry.Registry
	windows  WindowStates
	sync     *Synchronizer
	logger   *slog.Logger
}

// NewReconciler creates a new reconciler with the given configuration.
// sync may be nil; when set, pruning pauses once shutdown has begun.
func NewReconciler(cfg ReconcilerConfig, reg *registry.Registry, windows WindowStates, sync *Synchronizer) *Reconciler {
	interval := cfg.Interval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Reconciler{
		interval: interval,
		reg:      reg,
		windows:  windows,
		sync:     sync,
		logger:   logger,
	}
}

// Run starts the reconciliation loop. Blocks until context is cancelled.
func (r *Reconciler) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("reconciler started", "interval", r.interval)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("reconciler stopped")
			return
		case <-ticker.C:
			r.reconcile()
		}
	}
}

// ReconcileNow triggers an immediate reconciliation pass.
func (r *Reconciler) ReconcileNow() {
	r.reconcile()
}

// FlushGeometry saves the current geometry of every live window without
// pruning. It runs even after shutdown has begun.
func (r *Reconciler) FlushGeometry() {
	defer func() {
		if err := recover(); err != nil {
			r.logger.Error("reconciler panic recovered", "error", err)
		}
	}()

	_, states := r.collect()
	r.saveGeometry(states)
}

func (r *Reconciler) reconcile() {
	defer func() {
		if err := recover(); err != nil {
			r.logger.Error("reconciler panic recovered", "error", err)
		}
	}()

	if r.sync != nil && r.sync.ShuttingDown() {
		return
	}

	live, states := r.collect()
	r.saveGeometry(states)

	removed, err := r.reg.Retain(live, lifecycle.MainWindowID)
	if err != nil {
		r.logger.Error("reconciler: failed to prune registry", "error", err)
		return
	}
	for _, id := range removed {
		r.logger.Info("reconciler: orphaned entry removed", "window_id", id)
	}
}

// collect returns the ids of windows that still exist and the geometry of
// those that could be read.
func (r *Reconciler) collect() ([]string, []platform.WindowRecord) {
	ids := r.windows.ListWindowIDs()
	states := make([]platform.WindowRecord, 0, len(ids))
	live := make([]string, 0, len(ids))
	for _, id := range ids {
		rec, err := r.windows.GetWindowState(id)
		if errors.Is(err, lifecycle.ErrNotFound) {
			r.logger.Debug("reconciler: window vanished", "window_id", id)
			continue
		}
		live = append(live, id)
		if err != nil {
			r.logger.Warn("reconciler: failed to read window state", "window_id", id, "error", err)
			continue
		}
		states = append(states, rec)
	}
	return live, states
}

func (r *Reconciler) saveGeometry(states []platform.WindowRecord) {
	if changed, err := r.reg.UpdateGeometry(states); err != nil {
		r.logger.Error("reconciler: failed to save geometry", "error", err)
	} else if changed {
		r.logger.Debug("reconciler: geometry saved", "windows", len(states))
	}
}
