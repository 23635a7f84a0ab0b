package daemon

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/1broseidon/floattimer/internal/aspect"
	"github.com/1broseidon/floattimer/internal/lifecycle"
	"github.com/1broseidon/floattimer/internal/platform"
	"github.com/1broseidon/floattimer/internal/platform/platformtest"
	"github.com/1broseidon/floattimer/internal/registry"
	"github.com/1broseidon/floattimer/internal/windowid"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixture struct {
	host       *platformtest.Host
	manager    *lifecycle.Manager
	reg        *registry.Registry
	sync       *Synchronizer
	reconciler *Reconciler
	lastClosed int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	reg, err := registry.Open(filepath.Join(t.TempDir(), "windows.json"), registry.Prefs{
		ThemeID: "default", Title: "Countdown Timer", Mode: registry.ModeCountdown, LastTime: 60,
	})
	if err != nil {
		t.Fatalf("open registry: %v", err)
	}

	f := &fixture{host: platformtest.NewHost(), reg: reg}
	f.manager = lifecycle.NewManager(f.host, windowid.NewAllocator(), aspect.NewEnforcer(f.host), lifecycle.DefaultOptions())
	f.sync = NewSynchronizer(reg, f.manager, logger, func() { f.lastClosed++ })
	f.manager.SetObserver(f.sync)
	f.reconciler = NewReconciler(ReconcilerConfig{Interval: time.Hour, Logger: logger}, reg, f.manager, f.sync)
	return f
}

func ids(entries []registry.Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.ID)
	}
	return out
}

func TestSynchronizer_CreateAndCloseTrackRegistry(t *testing.T) {
	f := newFixture(t)

	if err := f.manager.Bootstrap(nil); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	id, err := f.manager.CreateWindow(&platform.Point{X: 0, Y: 0})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	e, ok := f.reg.Get(id)
	if !ok {
		t.Fatalf("expected %s registered", id)
	}
	if e.Mode != registry.ModeCountdown || e.LastTime != 60 {
		t.Fatalf("expected default prefs, got %+v", e.Prefs)
	}

	if err := f.manager.CloseWindow(id); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, ok := f.reg.Get(id); ok {
		t.Fatalf("expected %s removed after close", id)
	}
	if _, ok := f.reg.Get(lifecycle.MainWindowID); !ok {
		t.Fatalf("expected main to stay registered")
	}
}

func TestSynchronizer_MainCloseKeepsOtherWindowsRunning(t *testing.T) {
	f := newFixture(t)
	if err := f.manager.Bootstrap(nil); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	id, err := f.manager.CreateWindow(nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := f.manager.CloseWindow(lifecycle.MainWindowID); err != nil {
		t.Fatalf("close main: %v", err)
	}
	if f.lastClosed != 0 {
		t.Fatalf("closing main with %s still open must not stop the daemon", id)
	}
	if f.sync.ShuttingDown() {
		t.Fatal("closing main must not begin shutdown")
	}
	if live := f.manager.ListWindowIDs(); len(live) != 1 || live[0] != id {
		t.Fatalf("expected only %s live, got %v", id, live)
	}
	if _, ok := f.reg.Get(lifecycle.MainWindowID); !ok {
		t.Fatal("expected main entry kept for the next start")
	}

	// The reconciler keeps the closed main entry as well.
	f.reconciler.ReconcileNow()
	if _, ok := f.reg.Get(lifecycle.MainWindowID); !ok {
		t.Fatal("expected reconcile to keep the main entry")
	}

	// New windows can still be opened after main is gone.
	next, err := f.manager.CreateWindow(nil)
	if err != nil {
		t.Fatalf("create after main close: %v", err)
	}
	if _, ok := f.reg.Get(next); !ok {
		t.Fatalf("expected %s registered", next)
	}
}

func TestSynchronizer_LastCloseSignalsOnce(t *testing.T) {
	f := newFixture(t)
	if err := f.manager.Bootstrap(nil); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	id, err := f.manager.CreateWindow(nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	f.host.Destroy(id)
	if f.lastClosed != 0 {
		t.Fatalf("main is still open, got %d last-closed callbacks", f.lastClosed)
	}
	if _, ok := f.reg.Get(id); ok {
		t.Fatalf("expected %s removed after close", id)
	}

	f.host.Destroy(lifecycle.MainWindowID)
	if f.lastClosed != 1 {
		t.Fatalf("expected last-closed callback once, got %d", f.lastClosed)
	}
	if !f.sync.ShuttingDown() {
		t.Fatal("expected shutdown after the last window closed")
	}
	if _, ok := f.reg.Get(lifecycle.MainWindowID); !ok {
		t.Fatal("expected main kept")
	}

	f.sync.WindowClosed(lifecycle.MainWindowID)
	if f.lastClosed != 1 {
		t.Fatalf("expected callback to fire only once, got %d", f.lastClosed)
	}
}

func TestReconciler_RefreshesGeometry(t *testing.T) {
	f := newFixture(t)
	id, err := f.manager.CreateWindow(nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	f.host.Move(id, platform.Point{X: 400, Y: 300})
	f.host.Resize(id, platform.Size{Width: 500, Height: 200})
	f.host.Flush(10)

	f.reconciler.ReconcileNow()

	e, ok := f.reg.Get(id)
	if !ok {
		t.Fatalf("expected entry for %s", id)
	}
	pos, ok := e.Position()
	if !ok || pos != (platform.Point{X: 400, Y: 300}) {
		t.Fatalf("expected position (400,300), got %+v ok=%v", pos, ok)
	}
	if e.Width != 500 || e.Height != 200 {
		t.Fatalf("expected 500x200, got %dx%d", e.Width, e.Height)
	}
}

func TestReconciler_PrunesOrphansButKeepsMain(t *testing.T) {
	f := newFixture(t)
	for _, id := range []string{lifecycle.MainWindowID, "timer-5"} {
		if err := f.reg.Upsert(platform.WindowRecord{ID: id, Width: 312, Height: 125}); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}
	live, err := f.manager.CreateWindow(nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	f.reconciler.ReconcileNow()

	got := ids(f.reg.Entries())
	if len(got) != 2 || got[0] != lifecycle.MainWindowID || got[1] != live {
		t.Fatalf("expected [main %s], got %v", live, got)
	}
}

func TestReconciler_PausedDuringShutdown(t *testing.T) {
	f := newFixture(t)
	if err := f.reg.Upsert(platform.WindowRecord{ID: "timer-8", Width: 312, Height: 125}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	f.sync.BeginShutdown()

	f.reconciler.ReconcileNow()

	if _, ok := f.reg.Get("timer-8"); !ok {
		t.Fatalf("expected entry kept while shutting down")
	}
}

func TestReconciler_RunStopsOnCancel(t *testing.T) {
	f := newFixture(t)
	f.reconciler.interval = 5 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		f.reconciler.Run(ctx)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reconciler did not stop after cancel")
	}
}

type panickyStates struct{}

func (panickyStates) ListWindowIDs() []string { panic("boom") }
func (panickyStates) GetWindowState(string) (platform.WindowRecord, error) {
	return platform.WindowRecord{}, nil
}

func TestReconciler_RecoversFromPanic(t *testing.T) {
	f := newFixture(t)
	r := NewReconciler(ReconcilerConfig{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}, f.reg, panickyStates{}, nil)
	r.ReconcileNow()
}

func TestReconciler_FlushGeometryRunsDuringShutdown(t *testing.T) {
	f := newFixture(t)
	id, err := f.manager.CreateWindow(nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := f.reg.Upsert(platform.WindowRecord{ID: "timer-30", Width: 312, Height: 125}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	f.host.Move(id, platform.Point{X: 77, Y: 88})
	f.sync.BeginShutdown()

	f.reconciler.FlushGeometry()

	e, _ := f.reg.Get(id)
	if pos, ok := e.Position(); !ok || pos != (platform.Point{X: 77, Y: 88}) {
		t.Fatalf("expected flushed position, got %+v", e.WindowRecord)
	}
	if _, ok := f.reg.Get("timer-30"); !ok {
		t.Fatalf("expected flush not to prune")
	}
}

func TestConfigWatcher_SignalsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	w, err := NewConfigWatcher(path, 20*time.Millisecond, discardLogger())
	if err != nil {
		t.Fatalf("NewConfigWatcher: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	changed := make(chan struct{}, 1)
	done := make(chan struct{})
	go func() {
		w.Run(ctx, changed)
		close(done)
	}()

	if err := os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x: 1\n"), 0644); err != nil {
		t.Fatalf("write other: %v", err)
	}
	select {
	case <-changed:
		t.Fatal("unrelated file should not trigger a reload")
	case <-time.After(150 * time.Millisecond):
	}

	if err := os.WriteFile(path, []byte("title: Tea\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	select {
	case <-changed:
	case <-time.After(3 * time.Second):
		t.Fatal("expected a change notification")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}
