package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, dir, name, data string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
	if cfg.AspectRatio != 2.5 || cfg.AspectTolerance != 0.01 {
		t.Fatalf("unexpected aspect defaults: %v / %v", cfg.AspectRatio, cfg.AspectTolerance)
	}
	if cfg.DefaultSize != (Size{Width: 312, Height: 125}) {
		t.Fatalf("unexpected default size %+v", cfg.DefaultSize)
	}
	if cfg.MinSize != (Size{Width: 250, Height: 100}) {
		t.Fatalf("unexpected min size %+v", cfg.MinSize)
	}
	if w := cfg.Warnings(); len(w) != 0 {
		t.Fatalf("expected no warnings for defaults, got %v", w)
	}
}

func TestLoadFromPath_MissingFileUsesDefaults(t *testing.T) {
	res, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.Title != DefaultTitle {
		t.Fatalf("expected default title, got %q", res.Config.Title)
	}
	if len(res.Files) != 0 {
		t.Fatalf("expected no files, got %v", res.Files)
	}
}

func TestLoadFromPath_EmptyFileUsesDefaults(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.yaml", "# empty\n")

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.SyncIntervalSeconds != DefaultSyncInterval {
		t.Fatalf("expected sync interval %d, got %d", DefaultSyncInterval, res.Config.SyncIntervalSeconds)
	}
	if !res.Config.RestoreOnStart {
		t.Fatalf("expected restore_on_start default true")
	}
}

func TestLoadFromPath_PartialNestedOverride(t *testing.T) {
	data := strings.Join([]string{
		"title: Pomodoro",
		"default_size:",
		"  width: 400",
		"spawn_offset:",
		"  y: 50",
		"window_defaults:",
		"  mode: countup",
		"restore_on_start: false",
		"new_window_hotkey: Mod4-n",
		"",
	}, "\n")
	path := writeConfig(t, t.TempDir(), "config.yaml", data)

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg := res.Config
	if cfg.Title != "Pomodoro" {
		t.Fatalf("expected title override, got %q", cfg.Title)
	}
	if cfg.DefaultSize != (Size{Width: 400, Height: 125}) {
		t.Fatalf("expected width-only override, got %+v", cfg.DefaultSize)
	}
	if cfg.SpawnOffset != (Offset{X: 30, Y: 50}) {
		t.Fatalf("expected y-only override, got %+v", cfg.SpawnOffset)
	}
	if cfg.Defaults.Mode != "countup" || cfg.Defaults.ThemeID != DefaultThemeID || cfg.Defaults.LastTime != DefaultLastTime {
		t.Fatalf("unexpected window defaults %+v", cfg.Defaults)
	}
	if cfg.RestoreOnStart {
		t.Fatalf("expected restore_on_start false")
	}
	if cfg.NewWindowHotkey != "Mod4-n" {
		t.Fatalf("expected hotkey, got %q", cfg.NewWindowHotkey)
	}
	if w := cfg.Warnings(); len(w) != 1 {
		t.Fatalf("expected off-ratio default_size warning, got %v", w)
	}
}

func TestLoadFromPath_StrictUnknownKeyErrors(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.yaml", "unknown_key: 1\n")

	_, err := LoadFromPath(path)
	if err == nil {
		t.Fatalf("expected error for unknown key")
	}
	if !strings.Contains(err.Error(), "unknown_key") && !strings.Contains(err.Error(), "field") {
		t.Fatalf("expected unknown field error, got %v", err)
	}
	if !strings.Contains(err.Error(), path) {
		t.Fatalf("expected error to include file path, got %v", err)
	}
}

func TestLoadFromPath_ValidationErrorHasSourceContext(t *testing.T) {
	data := "title: ok\naspect_ratio: -1\n"
	path := writeConfig(t, t.TempDir(), "config.yaml", data)

	_, err := LoadFromPath(path)
	if err == nil {
		t.Fatalf("expected validation error")
	}
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if verr.Path != "aspect_ratio" {
		t.Fatalf("expected path aspect_ratio, got %q", verr.Path)
	}
	if verr.Source.Kind != SourceFile || verr.Source.Line != 2 {
		t.Fatalf("expected file source on line 2, got %+v", verr.Source)
	}
	if !strings.Contains(err.Error(), ":2:") {
		t.Fatalf("expected file:line prefix, got %v", err)
	}
}

func TestLoadFromPath_NestedValidationFallsBackToBlockSource(t *testing.T) {
	data := "min_size:\n  width: 0\n"
	path := writeConfig(t, t.TempDir(), "config.yaml", data)

	_, err := LoadFromPath(path)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Path != "min_size" || verr.Source.Kind != SourceFile {
		t.Fatalf("unexpected error %+v", verr)
	}
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		path   string
	}{
		{"empty title", func(c *Config) { c.Title = " " }, "title"},
		{"empty url", func(c *Config) { c.URL = "" }, "url"},
		{"zero ratio", func(c *Config) { c.AspectRatio = 0 }, "aspect_ratio"},
		{"zero tolerance", func(c *Config) { c.AspectTolerance = 0 }, "aspect_tolerance"},
		{"default below min", func(c *Config) { c.DefaultSize = Size{Width: 200, Height: 80} }, "default_size"},
		{"zero interval", func(c *Config) { c.SyncIntervalSeconds = 0 }, "sync_interval_seconds"},
		{"bad mode", func(c *Config) { c.Defaults.Mode = "stopwatch" }, "window_defaults.mode"},
		{"negative last time", func(c *Config) { c.Defaults.LastTime = -1 }, "window_defaults.last_time"},
		{"bad log level", func(c *Config) { c.LogLevel = "trace" }, "log_level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Path != tt.path {
				t.Fatalf("expected path %q, got %q", tt.path, verr.Path)
			}
		})
	}
}

func TestLoadFromPath_IncludeDirectoryOrderAndMainOverrides(t *testing.T) {
	dir := t.TempDir()

	configD := filepath.Join(dir, "config.d")
	if err := os.MkdirAll(configD, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	writeConfig(t, configD, "10-base.yaml", "title: one\nsync_interval_seconds: 9\n")
	writeConfig(t, configD, "20-override.yaml", "title: two\n")

	main := strings.Join([]string{
		"include:",
		"  - config.d",
		"log_level: debug",
		"",
	}, "\n")
	path := writeConfig(t, dir, "config.yaml", main)

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.Title != "two" {
		t.Fatalf("expected later include to win, got %q", res.Config.Title)
	}
	if res.Config.SyncIntervalSeconds != 9 {
		t.Fatalf("expected sync interval from include, got %d", res.Config.SyncIntervalSeconds)
	}
	if res.Config.SlogLevel() != slog.LevelDebug {
		t.Fatalf("expected debug level, got %v", res.Config.SlogLevel())
	}
	if len(res.Files) != 3 {
		t.Fatalf("expected 3 loaded files, got %v", res.Files)
	}
}

func TestLoadFromPath_IncludeMissingPathHasContext(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.yaml", "include:\n  - missing.yaml\n")

	_, err := LoadFromPath(path)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "include") || !strings.Contains(err.Error(), "missing.yaml") {
		t.Fatalf("expected include error, got %v", err)
	}
}

func TestLoadFromPath_IncludeCycleDetection(t *testing.T) {
	dir := t.TempDir()
	a := writeConfig(t, dir, "a.yaml", "include: b.yaml\n")
	writeConfig(t, dir, "b.yaml", "include: a.yaml\n")

	_, err := LoadFromPath(a)
	if err == nil || !strings.Contains(err.Error(), "include cycle") {
		t.Fatalf("expected cycle error, got %v", err)
	}
}

func TestExplain_ReportsFileAndDefaultSources(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.yaml", "title: Focus\nspawn_offset:\n  x: 10\n")

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	value, src, err := Explain(res, "title")
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	if value != "Focus" || src.Kind != SourceFile || src.Line != 1 {
		t.Fatalf("unexpected title explain: %v %+v", value, src)
	}

	value, src, err = Explain(res, "spawn_offset.x")
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	if value != 10 || src.Kind != SourceFile || src.Line != 3 {
		t.Fatalf("unexpected spawn_offset.x explain: %v %+v", value, src)
	}

	value, src, err = Explain(res, "spawn_offset.y")
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	if value != 30 || src.Kind != SourceDefault {
		t.Fatalf("unexpected spawn_offset.y explain: %v %+v", value, src)
	}

	if _, _, err := Explain(res, "aspect_ratio.nope"); err == nil {
		t.Fatalf("expected error for field on scalar")
	}
	if _, _, err := Explain(res, "nope"); err == nil {
		t.Fatalf("expected error for unknown path")
	}
}

func TestRegistryPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg := DefaultConfig()
	path, err := cfg.RegistryPath()
	if err != nil {
		t.Fatalf("registry path: %v", err)
	}
	if want := filepath.Join(home, ".config", "floattimer", "windows.json"); path != want {
		t.Fatalf("expected %q, got %q", want, path)
	}

	cfg.RegistryFile = "~/timers.json"
	path, err = cfg.RegistryPath()
	if err != nil {
		t.Fatalf("registry path: %v", err)
	}
	if want := filepath.Join(home, "timers.json"); path != want {
		t.Fatalf("expected %q, got %q", want, path)
	}
}

func TestSave_WritesLoadableFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg := DefaultConfig()
	cfg.Title = "Saved"
	if err := cfg.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Title != "Saved" {
		t.Fatalf("expected saved title, got %q", loaded.Title)
	}
}
