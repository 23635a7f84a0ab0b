package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Size is a width/height pair in device pixels.
type Size struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// Offset is an x/y displacement in device pixels.
type Offset struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
}

const (
	DefaultTitle           = "Countdown Timer"
	DefaultURL             = "index.html"
	DefaultAspectRatio     = 2.5
	DefaultAspectTolerance = 0.01
	DefaultSyncInterval    = 5
	DefaultThemeID         = "default"
	DefaultMode            = "countdown"
	DefaultLastTime        = 60
)

// Config is the effective daemon configuration.
type Config struct {
	// Display overrides $DISPLAY for the X11 connection.
	Display string `yaml:"display,omitempty"`

	Title string `yaml:"title"`
	// URL is the front-end page; "?windowId=<id>" is appended per window.
	URL string `yaml:"url"`

	AspectRatio     float64 `yaml:"aspect_ratio"`
	AspectTolerance float64 `yaml:"aspect_tolerance"`

	DefaultSize Size   `yaml:"default_size"`
	MinSize     Size   `yaml:"min_size"`
	SpawnOffset Offset `yaml:"spawn_offset"`

	// NewWindowHotkey spawns a timer next to the focused one (empty = disabled).
	NewWindowHotkey string `yaml:"new_window_hotkey,omitempty"`

	RestoreOnStart      bool   `yaml:"restore_on_start"`
	SyncIntervalSeconds int    `yaml:"sync_interval_seconds"`
	RegistryFile        string `yaml:"registry_file,omitempty"`

	Defaults WindowDefaults `yaml:"window_defaults"`

	LogLevel string `yaml:"log_level"`
}

// WindowDefaults are the front-end preferences a new registry entry starts with.
type WindowDefaults struct {
	ThemeID  string `yaml:"theme_id"`
	Mode     string `yaml:"mode"`
	LastTime int    `yaml:"last_time"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		Title:               DefaultTitle,
		URL:                 DefaultURL,
		AspectRatio:         DefaultAspectRatio,
		AspectTolerance:     DefaultAspectTolerance,
		DefaultSize:         Size{Width: 312, Height: 125},
		MinSize:             Size{Width: 250, Height: 100},
		SpawnOffset:         Offset{X: 30, Y: 30},
		RestoreOnStart:      true,
		SyncIntervalSeconds: DefaultSyncInterval,
		Defaults: WindowDefaults{
			ThemeID:  DefaultThemeID,
			Mode:     DefaultMode,
			LastTime: DefaultLastTime,
		},
		LogLevel: "info",
	}
}

// RegistryPath returns the window registry file, defaulting to
// ~/.config/floattimer/windows.json.
func (c *Config) RegistryPath() (string, error) {
	if c.RegistryFile != "" {
		return expandHome(c.RegistryFile)
	}
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "windows.json"), nil
}

// Save writes the configuration to the standard location.
//
// Note: this marshals the effective config and will not preserve comments
// from the original YAML.
func (c *Config) Save() error {
	if err := c.Validate(); err != nil {
		return err
	}

	path, err := DefaultConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks the configuration for values the daemon cannot use.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Title) == "" {
		return &ValidationError{Path: "title", Err: fmt.Errorf("title must not be empty")}
	}
	if strings.TrimSpace(c.URL) == "" {
		return &ValidationError{Path: "url", Err: fmt.Errorf("url must not be empty")}
	}
	if c.AspectRatio <= 0 {
		return &ValidationError{Path: "aspect_ratio", Err: fmt.Errorf("aspect_ratio must be > 0")}
	}
	if c.AspectTolerance <= 0 || c.AspectTolerance >= c.AspectRatio {
		return &ValidationError{Path: "aspect_tolerance", Err: fmt.Errorf("aspect_tolerance must be > 0 and smaller than aspect_ratio")}
	}
	if c.MinSize.Width <= 0 || c.MinSize.Height <= 0 {
		return &ValidationError{Path: "min_size", Err: fmt.Errorf("min_size width and height must be > 0")}
	}
	if c.DefaultSize.Width < c.MinSize.Width || c.DefaultSize.Height < c.MinSize.Height {
		return &ValidationError{Path: "default_size", Err: fmt.Errorf("default_size must be at least min_size (%dx%d)", c.MinSize.Width, c.MinSize.Height)}
	}
	if c.DefaultSize.Width > 65535 || c.DefaultSize.Height > 65535 {
		return &ValidationError{Path: "default_size", Err: fmt.Errorf("default_size must fit in 16 bits")}
	}
	if c.SyncIntervalSeconds <= 0 {
		return &ValidationError{Path: "sync_interval_seconds", Err: fmt.Errorf("sync_interval_seconds must be > 0")}
	}
	switch c.Defaults.Mode {
	case "countdown", "countup":
	default:
		return &ValidationError{Path: "window_defaults.mode", Err: fmt.Errorf("mode must be one of: countdown, countup")}
	}
	if c.Defaults.LastTime < 0 {
		return &ValidationError{Path: "window_defaults.last_time", Err: fmt.Errorf("last_time must be >= 0")}
	}
	if strings.TrimSpace(c.Defaults.ThemeID) == "" {
		return &ValidationError{Path: "window_defaults.theme_id", Err: fmt.Errorf("theme_id must not be empty")}
	}
	if c.LogLevel != "debug" && c.LogLevel != "info" && c.LogLevel != "warning" && c.LogLevel != "error" {
		return &ValidationError{Path: "log_level", Err: fmt.Errorf("log_level must be one of: debug, info, warning, error")}
	}
	return nil
}

// Warnings reports settings that are valid but probably not what the user meant.
func (c *Config) Warnings() []string {
	var warnings []string
	ratio := float64(c.DefaultSize.Width) / float64(c.DefaultSize.Height)
	if diff := ratio - c.AspectRatio; diff >= c.AspectTolerance || -diff >= c.AspectTolerance {
		warnings = append(warnings, fmt.Sprintf("default_size %dx%d is off aspect_ratio %.3g; new windows will be corrected on their first resize",
			c.DefaultSize.Width, c.DefaultSize.Height, c.AspectRatio))
	}
	return warnings
}

// SlogLevel maps log_level onto a slog level.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SyncInterval is the registry refresh period.
func (c *Config) SyncInterval() time.Duration {
	return time.Duration(c.SyncIntervalSeconds) * time.Second
}

func configDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "floattimer"), nil
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	if path == "~" {
		return home, nil
	}
	return filepath.Join(home, path[2:]), nil
}
