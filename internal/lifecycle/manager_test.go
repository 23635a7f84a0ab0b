package lifecycle

import (
	"errors"
	"testing"

	"github.com/1broseidon/floattimer/internal/aspect"
	"github.com/1broseidon/floattimer/internal/platform"
	"github.com/1broseidon/floattimer/internal/platform/platformtest"
	"github.com/1broseidon/floattimer/internal/windowid"
)

func newTestManager() (*Manager, *platformtest.Host) {
	host := platformtest.NewHost()
	m := NewManager(host, windowid.NewAllocator(), aspect.NewEnforcer(host), DefaultOptions())
	return m, host
}

func intPtr(v int) *int { return &v }

type recordingObserver struct {
	created []string
	closed  []string
}

func (o *recordingObserver) WindowCreated(rec platform.WindowRecord) { o.created = append(o.created, rec.ID) }
func (o *recordingObserver) WindowClosed(id string)                  { o.closed = append(o.closed, id) }

func TestCreateWindow_WithAnchor(t *testing.T) {
	m, host := newTestManager()

	id, err := m.CreateWindow(&platform.Point{X: 100, Y: 200})
	if err != nil {
		t.Fatalf("CreateWindow: %v", err)
	}
	if id != "timer-1" {
		t.Fatalf("id = %q, want timer-1", id)
	}

	w, ok := host.Window(id)
	if !ok {
		t.Fatalf("window %q not created", id)
	}
	if w.Spec.Position == nil || *w.Spec.Position != (platform.Point{X: 130, Y: 230}) {
		t.Fatalf("position = %v, want (130,230)", w.Spec.Position)
	}
	if w.Spec.Size != (platform.Size{Width: 312, Height: 125}) {
		t.Fatalf("size = %v, want 312x125", w.Spec.Size)
	}
	if w.Spec.MinSize != (platform.Size{Width: 250, Height: 100}) {
		t.Fatalf("min size = %v, want 250x100", w.Spec.MinSize)
	}
	if w.Spec.Chrome != platform.TimerChrome() {
		t.Fatalf("chrome = %+v", w.Spec.Chrome)
	}
	if w.Spec.URL != "index.html?windowId=timer-1" {
		t.Fatalf("url = %q", w.Spec.URL)
	}
	if w.Spec.Handler == nil {
		t.Fatal("window created without an event handler")
	}
}

func TestCreateWindow_WithoutAnchorLetsHostPlace(t *testing.T) {
	m, host := newTestManager()

	id, err := m.CreateWindow(nil)
	if err != nil {
		t.Fatalf("CreateWindow: %v", err)
	}
	w, _ := host.Window(id)
	if w.Spec.Position != nil {
		t.Fatalf("position = %v, want nil", *w.Spec.Position)
	}
}

func TestCreateWindow_HostFailure(t *testing.T) {
	m, host := newTestManager()
	host.FailCreate["timer-1"] = errors.New("no display")

	_, err := m.CreateWindow(nil)
	var hostErr *HostError
	if !errors.As(err, &hostErr) {
		t.Fatalf("err = %v, want *HostError", err)
	}
	if hostErr.ID != "timer-1" || hostErr.Op != "create window" {
		t.Fatalf("HostError = %+v", hostErr)
	}

	id, err := m.CreateWindow(nil)
	if err != nil {
		t.Fatalf("CreateWindow after failure: %v", err)
	}
	if id != "timer-2" {
		t.Fatalf("id = %q, want timer-2 (labels are not reused)", id)
	}
}

func TestCloseWindow(t *testing.T) {
	m, host := newTestManager()
	obs := &recordingObserver{}
	m.SetObserver(obs)

	id, _ := m.CreateWindow(nil)
	if err := m.CloseWindow(id); err != nil {
		t.Fatalf("CloseWindow: %v", err)
	}
	if _, ok := host.Window(id); ok {
		t.Fatal("window still open")
	}
	if len(obs.closed) != 1 || obs.closed[0] != id {
		t.Fatalf("closed = %v", obs.closed)
	}
}

func TestCloseWindow_UnknownIsNoop(t *testing.T) {
	m, _ := newTestManager()
	if err := m.CloseWindow("nonexistent"); err != nil {
		t.Fatalf("CloseWindow(nonexistent) = %v, want nil", err)
	}
}

func TestCloseWindow_HostFailure(t *testing.T) {
	m, host := newTestManager()
	id, _ := m.CreateWindow(nil)
	host.FailClose[id] = errors.New("bad window")

	var hostErr *HostError
	if err := m.CloseWindow(id); !errors.As(err, &hostErr) {
		t.Fatalf("CloseWindow = %v, want *HostError", err)
	}
}

func TestGetWindowState(t *testing.T) {
	m, host := newTestManager()
	id, _ := m.CreateWindow(&platform.Point{X: 0, Y: 0})
	host.Move(id, platform.Point{X: -40, Y: 15})

	rec, err := m.GetWindowState(id)
	if err != nil {
		t.Fatalf("GetWindowState: %v", err)
	}
	if rec.ID != id || rec.X == nil || *rec.X != -40 || rec.Y == nil || *rec.Y != 15 {
		t.Fatalf("record = %+v", rec)
	}
	if rec.Width != 312 || rec.Height != 125 {
		t.Fatalf("size = %dx%d", rec.Width, rec.Height)
	}
}

func TestGetWindowState_Unknown(t *testing.T) {
	m, _ := newTestManager()
	_, err := m.GetWindowState("timer-99")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if err.Error() != "window timer-99 not found" {
		t.Fatalf("message = %q", err.Error())
	}
}

func TestRestoreWindows_SkipsMainAndReconciles(t *testing.T) {
	m, host := newTestManager()

	results := m.RestoreWindows([]platform.WindowRecord{
		{ID: "main", X: intPtr(0), Y: intPtr(0), Width: 312, Height: 125},
		{ID: "timer-9", X: intPtr(500), Y: intPtr(40), Width: 400, Height: 160},
	})

	if len(results) != 2 {
		t.Fatalf("results = %+v", results)
	}
	if results[0].Outcome != OutcomeSkipped || results[1].Outcome != OutcomeRestored {
		t.Fatalf("outcomes = %+v", results)
	}
	if got := host.ListWindows(); len(got) != 1 || got[0] != "timer-9" {
		t.Fatalf("windows = %v, want [timer-9]", got)
	}

	w, _ := host.Window("timer-9")
	if w.Spec.Position == nil || *w.Spec.Position != (platform.Point{X: 500, Y: 40}) {
		t.Fatalf("position = %v", w.Spec.Position)
	}
	if w.Spec.Size != (platform.Size{Width: 400, Height: 160}) {
		t.Fatalf("size = %v", w.Spec.Size)
	}
	if w.Spec.Chrome != platform.TimerChrome() || w.Spec.MinSize != DefaultOptions().MinSize {
		t.Fatalf("restored window chrome differs: %+v", w.Spec)
	}

	id, err := m.CreateWindow(nil)
	if err != nil {
		t.Fatalf("CreateWindow: %v", err)
	}
	if id != "timer-10" {
		t.Fatalf("next id = %q, want timer-10", id)
	}
}

func TestRestoreWindows_FailureDoesNotAbort(t *testing.T) {
	m, host := newTestManager()
	host.FailCreate["timer-2"] = errors.New("boom")

	results := m.RestoreWindows([]platform.WindowRecord{
		{ID: "timer-2", Width: 312, Height: 125},
		{ID: "timer-3"},
		{ID: "custom-label", X: intPtr(10), Width: 250, Height: 100},
	})

	want := []Outcome{OutcomeFailed, OutcomeRestored, OutcomeRestored}
	for i, r := range results {
		if r.Outcome != want[i] {
			t.Fatalf("results[%d] = %+v, want %s", i, r, want[i])
		}
	}
	if results[0].Err == nil || results[0].Error == "" {
		t.Fatalf("failed result carries no error: %+v", results[0])
	}

	w, _ := host.Window("timer-3")
	if w.Spec.Size != DefaultOptions().DefaultSize {
		t.Fatalf("zero-size record restored at %v, want default size", w.Spec.Size)
	}
	w, _ = host.Window("custom-label")
	if w.Spec.Position != nil {
		t.Fatalf("record with only x restored at %v, want host placement", *w.Spec.Position)
	}
	if got := m.NextID(); got != 4 {
		t.Fatalf("NextID() = %d, want 4", got)
	}
}

func TestRestoreWindows_DuplicateOfLiveWindowFails(t *testing.T) {
	m, _ := newTestManager()
	id, _ := m.CreateWindow(nil)

	results := m.RestoreWindows([]platform.WindowRecord{{ID: id, Width: 312, Height: 125}})
	if results[0].Outcome != OutcomeFailed {
		t.Fatalf("result = %+v, want failed", results[0])
	}
}

func TestBootstrap(t *testing.T) {
	m, host := newTestManager()
	obs := &recordingObserver{}
	m.SetObserver(obs)

	if err := m.Bootstrap(&platform.WindowRecord{ID: "main", X: intPtr(5), Y: intPtr(6), Width: 500, Height: 200}); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	w, ok := host.Window(MainWindowID)
	if !ok {
		t.Fatal("main window not created")
	}
	if w.Spec.Size != (platform.Size{Width: 500, Height: 200}) || *w.Spec.Position != (platform.Point{X: 5, Y: 6}) {
		t.Fatalf("main geometry = %v at %v", w.Spec.Size, *w.Spec.Position)
	}
	if len(obs.created) != 1 || obs.created[0] != MainWindowID {
		t.Fatalf("created = %v", obs.created)
	}
}

func TestResizeEventsAreCorrected(t *testing.T) {
	tests := []struct {
		name     string
		observed platform.Size
		want     []platform.Size
	}{
		{"too wide", platform.Size{Width: 400, Height: 100}, []platform.Size{{Width: 250, Height: 100}}},
		{"too tall", platform.Size{Width: 300, Height: 150}, []platform.Size{{Width: 300, Height: 120}}},
		{"within tolerance", platform.Size{Width: 312, Height: 125}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, host := newTestManager()
			id, _ := m.CreateWindow(nil)

			host.Resize(id, tt.observed)
			if n := host.Flush(10); n >= 10 {
				t.Fatalf("resize feedback loop: %d events delivered", n)
			}

			if len(host.SetSizeCalls) != len(tt.want) {
				t.Fatalf("SetSize calls = %+v, want %v", host.SetSizeCalls, tt.want)
			}
			for i, call := range host.SetSizeCalls {
				if call.ID != id || call.Size != tt.want[i] {
					t.Fatalf("SetSize[%d] = %+v, want %v", i, call, tt.want[i])
				}
			}
		})
	}
}

func TestListWindowIDs(t *testing.T) {
	m, _ := newTestManager()
	m.CreateWindow(nil)
	m.CreateWindow(nil)
	m.CloseWindow("timer-1")

	ids := m.ListWindowIDs()
	if len(ids) != 1 || ids[0] != "timer-2" {
		t.Fatalf("ListWindowIDs() = %v", ids)
	}
}

func TestWindowURL(t *testing.T) {
	tests := []struct {
		page, id, want string
	}{
		{"index.html", "timer-1", "index.html?windowId=timer-1"},
		{"http://localhost:1420/?theme=dark", "main", "http://localhost:1420/?theme=dark&windowId=main"},
	}
	for _, tt := range tests {
		if got := WindowURL(tt.page, tt.id); got != tt.want {
			t.Errorf("WindowURL(%q, %q) = %q, want %q", tt.page, tt.id, got, tt.want)
		}
	}
}
