package mcp

import (
	"github.com/1broseidon/floattimer/internal/lifecycle"
	"github.com/1broseidon/floattimer/internal/platform"
	"github.com/1broseidon/floattimer/internal/registry"
)

// CreateWindowInput is the input for the create_window tool.
type CreateWindowInput struct {
	X *int `json:"x,omitempty" jsonschema:"Anchor x in screen pixels. The window opens 30px right of it. Ignored unless y is also set."`
	Y *int `json:"y,omitempty" jsonschema:"Anchor y in screen pixels. The window opens 30px below it. Ignored unless x is also set."`
}

// CreateWindowOutput is the output for the create_window tool.
type CreateWindowOutput struct {
	WindowID string `json:"window_id" jsonschema:"Label of the new window, e.g. timer-3"`
}

// WindowInput names a single window.
type WindowInput struct {
	WindowID string `json:"window_id" jsonschema:"Window label, e.g. main or timer-2"`
}

// CloseWindowOutput is the output for the close_window tool.
type CloseWindowOutput struct {
	Closed bool `json:"closed"`
}

// WindowStateOutput is the output for the get_window_state tool.
type WindowStateOutput struct {
	ID     string `json:"id"`
	X      *int   `json:"x"`
	Y      *int   `json:"y"`
	Width  uint   `json:"width"`
	Height uint   `json:"height"`
}

// RestoreWindowsInput is the input for the restore_windows tool.
type RestoreWindowsInput struct {
	Windows []platform.WindowRecord `json:"windows" jsonschema:"Saved windows to recreate. The main window is always skipped."`
}

// RestoreOutcome reports what happened to one restored record.
type RestoreOutcome struct {
	ID      string `json:"id"`
	Outcome string `json:"outcome" jsonschema:"restored, skipped or failed"`
	Error   string `json:"error,omitempty"`
}

// RestoreWindowsOutput is the output for the restore_windows tool.
type RestoreWindowsOutput struct {
	Results []RestoreOutcome `json:"results"`
}

// ListWindowsInput is the (empty) input for the get_all_window_ids tool.
type ListWindowsInput struct{}

// ListWindowsOutput is the output for the get_all_window_ids tool.
type ListWindowsOutput struct {
	WindowIDs []string `json:"window_ids"`
}

// SetWindowPrefsInput is the input for the set_window_prefs tool.
type SetWindowPrefsInput struct {
	WindowID string  `json:"window_id" jsonschema:"Window label"`
	ThemeID  *string `json:"theme_id,omitempty" jsonschema:"Theme the timer face uses"`
	Title    *string `json:"title,omitempty" jsonschema:"Label shown on the timer face"`
	Mode     *string `json:"mode,omitempty" jsonschema:"countdown or countup"`
	LastTime *int    `json:"last_time,omitempty" jsonschema:"Last timer duration in seconds"`
}

// SetWindowPrefsOutput is the output for the set_window_prefs tool.
type SetWindowPrefsOutput struct {
	WindowID string `json:"window_id"`
	ThemeID  string `json:"theme_id"`
	Title    string `json:"title"`
	Mode     string `json:"mode"`
	LastTime int    `json:"last_time"`
}

func restoreOutcomes(results []lifecycle.RestoreResult) []RestoreOutcome {
	out := make([]RestoreOutcome, 0, len(results))
	for _, r := range results {
		out = append(out, RestoreOutcome{ID: r.ID, Outcome: string(r.Outcome), Error: r.Error})
	}
	return out
}

func windowState(rec platform.WindowRecord) WindowStateOutput {
	return WindowStateOutput{ID: rec.ID, X: rec.X, Y: rec.Y, Width: rec.Width, Height: rec.Height}
}

func prefsOutput(e registry.Entry) SetWindowPrefsOutput {
	return SetWindowPrefsOutput{
		WindowID: e.ID,
		ThemeID:  e.ThemeID,
		Title:    e.Title,
		Mode:     e.Mode,
		LastTime: e.LastTime,
	}
}
