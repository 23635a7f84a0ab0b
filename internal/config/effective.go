package config

import (
	"fmt"
)

type ValidationError struct {
	Path   string
	Source Source
	Err    error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Source.Kind == SourceFile && e.Source.File != "" && e.Source.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %v", e.Source.File, e.Source.Line, e.Source.Column, e.Path, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// BuildEffectiveConfig applies raw over DefaultConfig.
func BuildEffectiveConfig(raw RawConfig) *Config {
	cfg := DefaultConfig()

	if raw.Display != nil {
		cfg.Display = *raw.Display
	}
	if raw.Title != nil {
		cfg.Title = *raw.Title
	}
	if raw.URL != nil {
		cfg.URL = *raw.URL
	}
	if raw.AspectRatio != nil {
		cfg.AspectRatio = *raw.AspectRatio
	}
	if raw.AspectTolerance != nil {
		cfg.AspectTolerance = *raw.AspectTolerance
	}
	if raw.DefaultSize != nil {
		cfg.DefaultSize = applySize(cfg.DefaultSize, raw.DefaultSize)
	}
	if raw.MinSize != nil {
		cfg.MinSize = applySize(cfg.MinSize, raw.MinSize)
	}
	if raw.SpawnOffset != nil {
		cfg.SpawnOffset.X = derefInt(raw.SpawnOffset.X, cfg.SpawnOffset.X)
		cfg.SpawnOffset.Y = derefInt(raw.SpawnOffset.Y, cfg.SpawnOffset.Y)
	}
	if raw.NewWindowHotkey != nil {
		cfg.NewWindowHotkey = *raw.NewWindowHotkey
	}
	if raw.RestoreOnStart != nil {
		cfg.RestoreOnStart = *raw.RestoreOnStart
	}
	if raw.SyncIntervalSeconds != nil {
		cfg.SyncIntervalSeconds = *raw.SyncIntervalSeconds
	}
	if raw.RegistryFile != nil {
		cfg.RegistryFile = *raw.RegistryFile
	}
	if raw.Defaults != nil {
		if raw.Defaults.ThemeID != nil {
			cfg.Defaults.ThemeID = *raw.Defaults.ThemeID
		}
		if raw.Defaults.Mode != nil {
			cfg.Defaults.Mode = *raw.Defaults.Mode
		}
		cfg.Defaults.LastTime = derefInt(raw.Defaults.LastTime, cfg.Defaults.LastTime)
	}
	if raw.LogLevel != nil {
		cfg.LogLevel = *raw.LogLevel
	}
	return cfg
}

func applySize(base Size, patch *RawSize) Size {
	base.Width = derefInt(patch.Width, base.Width)
	base.Height = derefInt(patch.Height, base.Height)
	return base
}

func derefInt(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}
