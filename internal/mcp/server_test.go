package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/1broseidon/floattimer/internal/lifecycle"
	"github.com/1broseidon/floattimer/internal/platform"
	"github.com/1broseidon/floattimer/internal/registry"
)

type fakeDaemon struct {
	anchors  []*platform.Point
	closed   []string
	states   map[string]platform.WindowRecord
	restored []platform.WindowRecord
	ids      []string
	prefs    map[string]registry.PrefsUpdate
	err      error
}

func (f *fakeDaemon) CreateWindow(anchor *platform.Point) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.anchors = append(f.anchors, anchor)
	return "timer-1", nil
}

func (f *fakeDaemon) CloseWindow(id string) error {
	f.closed = append(f.closed, id)
	return f.err
}

func (f *fakeDaemon) GetWindowState(id string) (platform.WindowRecord, error) {
	rec, ok := f.states[id]
	if !ok {
		return platform.WindowRecord{}, &lifecycle.NotFoundError{ID: id}
	}
	return rec, nil
}

func (f *fakeDaemon) RestoreWindows(records []platform.WindowRecord) ([]lifecycle.RestoreResult, error) {
	f.restored = records
	out := make([]lifecycle.RestoreResult, 0, len(records))
	for _, r := range records {
		outcome := lifecycle.OutcomeRestored
		if r.ID == lifecycle.MainWindowID {
			outcome = lifecycle.OutcomeSkipped
		}
		out = append(out, lifecycle.RestoreResult{ID: r.ID, Outcome: outcome})
	}
	return out, nil
}

func (f *fakeDaemon) ListWindowIDs() ([]string, error) {
	return f.ids, f.err
}

func (f *fakeDaemon) SetWindowPrefs(id string, update registry.PrefsUpdate) (registry.Entry, error) {
	if f.prefs == nil {
		f.prefs = make(map[string]registry.PrefsUpdate)
	}
	f.prefs[id] = update
	e := registry.Entry{Prefs: registry.Prefs{ThemeID: "default", Mode: registry.ModeCountdown, LastTime: 60}}
	e.ID = id
	if update.Mode != nil {
		e.Mode = *update.Mode
	}
	return e, nil
}

func intPtr(v int) *int { return &v }

func TestNewServer_RegistersTools(t *testing.T) {
	s := NewServer(&fakeDaemon{})
	if s.mcpServer == nil {
		t.Fatal("expected MCP server")
	}
}

func TestCreateWindow_AnchorNeedsBothCoordinates(t *testing.T) {
	d := &fakeDaemon{}
	s := NewServer(d)
	ctx := context.Background()

	tests := []struct {
		name  string
		input CreateWindowInput
		want  *platform.Point
	}{
		{"both", CreateWindowInput{X: intPtr(100), Y: intPtr(200)}, &platform.Point{X: 100, Y: 200}},
		{"x only", CreateWindowInput{X: intPtr(100)}, nil},
		{"none", CreateWindowInput{}, nil},
	}
	for i, tt := range tests {
		_, out, err := s.handleCreateWindow(ctx, nil, tt.input)
		if err != nil {
			t.Fatalf("%s: unexpected error %v", tt.name, err)
		}
		if out.WindowID != "timer-1" {
			t.Fatalf("%s: unexpected id %q", tt.name, out.WindowID)
		}
		got := d.anchors[i]
		if (got == nil) != (tt.want == nil) || (got != nil && *got != *tt.want) {
			t.Errorf("%s: anchor = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestCreateWindow_PropagatesError(t *testing.T) {
	s := NewServer(&fakeDaemon{err: errors.New("daemon error: create window timer-1: no display")})
	if _, _, err := s.handleCreateWindow(context.Background(), nil, CreateWindowInput{}); err == nil {
		t.Fatal("expected error")
	}
}

func TestCloseAndStateRequireWindowID(t *testing.T) {
	s := NewServer(&fakeDaemon{})
	ctx := context.Background()
	if _, _, err := s.handleCloseWindow(ctx, nil, WindowInput{}); err == nil {
		t.Error("close: expected error for empty window_id")
	}
	if _, _, err := s.handleGetWindowState(ctx, nil, WindowInput{}); err == nil {
		t.Error("state: expected error for empty window_id")
	}
	if _, _, err := s.handleSetWindowPrefs(ctx, nil, SetWindowPrefsInput{}); err == nil {
		t.Error("prefs: expected error for empty window_id")
	}
}

func TestGetWindowState(t *testing.T) {
	rec := platform.NewWindowRecord("timer-2", platform.Point{X: 5, Y: 6}, platform.Size{Width: 312, Height: 125})
	s := NewServer(&fakeDaemon{states: map[string]platform.WindowRecord{"timer-2": rec}})
	ctx := context.Background()

	_, out, err := s.handleGetWindowState(ctx, nil, WindowInput{WindowID: "timer-2"})
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if out.ID != "timer-2" || out.X == nil || *out.X != 5 || out.Width != 312 {
		t.Fatalf("unexpected state %+v", out)
	}

	_, _, err = s.handleGetWindowState(ctx, nil, WindowInput{WindowID: "timer-9"})
	if !errors.Is(err, lifecycle.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRestoreWindows_ReportsOutcomes(t *testing.T) {
	d := &fakeDaemon{}
	s := NewServer(d)

	_, out, err := s.handleRestoreWindows(context.Background(), nil, RestoreWindowsInput{
		Windows: []platform.WindowRecord{{ID: "main"}, {ID: "timer-4", Width: 312, Height: 125}},
	})
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if len(d.restored) != 2 {
		t.Fatalf("expected records forwarded, got %v", d.restored)
	}
	if len(out.Results) != 2 || out.Results[0].Outcome != "skipped" || out.Results[1].Outcome != "restored" {
		t.Fatalf("unexpected results %+v", out.Results)
	}
}

func TestListWindows_EmptyIsNotNull(t *testing.T) {
	s := NewServer(&fakeDaemon{})
	_, out, err := s.handleListWindows(context.Background(), nil, ListWindowsInput{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if out.WindowIDs == nil || len(out.WindowIDs) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", out.WindowIDs)
	}
}

func TestSetWindowPrefs(t *testing.T) {
	d := &fakeDaemon{}
	s := NewServer(d)
	ctx := context.Background()

	if _, _, err := s.handleSetWindowPrefs(ctx, nil, SetWindowPrefsInput{WindowID: "timer-1"}); err == nil {
		t.Fatal("expected error when nothing is set")
	}

	mode := registry.ModeCountup
	_, out, err := s.handleSetWindowPrefs(ctx, nil, SetWindowPrefsInput{WindowID: "timer-1", Mode: &mode})
	if err != nil {
		t.Fatalf("prefs: %v", err)
	}
	if out.WindowID != "timer-1" || out.Mode != registry.ModeCountup || out.LastTime != 60 {
		t.Fatalf("unexpected output %+v", out)
	}
	if got := d.prefs["timer-1"]; got.Mode == nil || *got.Mode != registry.ModeCountup || got.ThemeID != nil {
		t.Fatalf("unexpected forwarded update %+v", got)
	}
}
