package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// IncludeList supports either:
//
//	include: "/path/to/file.yaml"
//
// or:
//
//	include:
//	  - "/path/to/file.yaml"
//	  - "/path/to/dir"
type IncludeList []string

func (l *IncludeList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case 0:
		*l = nil
		return nil
	case yaml.ScalarNode:
		if value.Tag != "!!str" {
			return fmt.Errorf("include must be a string or list of strings")
		}
		*l = []string{value.Value}
		return nil
	case yaml.SequenceNode:
		out := make([]string, 0, len(value.Content))
		for _, item := range value.Content {
			if item.Kind != yaml.ScalarNode || item.Tag != "!!str" {
				return fmt.Errorf("include entries must be strings")
			}
			out = append(out, item.Value)
		}
		*l = out
		return nil
	default:
		return fmt.Errorf("include must be a string or list of strings")
	}
}

type RawSize struct {
	Width  *int `yaml:"width"`
	Height *int `yaml:"height"`
}

type RawOffset struct {
	X *int `yaml:"x"`
	Y *int `yaml:"y"`
}

type RawWindowDefaults struct {
	ThemeID  *string `yaml:"theme_id"`
	Mode     *string `yaml:"mode"`
	LastTime *int    `yaml:"last_time"`
}

// RawConfig mirrors Config with every field optional so that a file only
// overrides the keys it sets.
type RawConfig struct {
	Include IncludeList `yaml:"include"`

	Display             *string            `yaml:"display"`
	Title               *string            `yaml:"title"`
	URL                 *string            `yaml:"url"`
	AspectRatio         *float64           `yaml:"aspect_ratio"`
	AspectTolerance     *float64           `yaml:"aspect_tolerance"`
	DefaultSize         *RawSize           `yaml:"default_size"`
	MinSize             *RawSize           `yaml:"min_size"`
	SpawnOffset         *RawOffset         `yaml:"spawn_offset"`
	NewWindowHotkey     *string            `yaml:"new_window_hotkey"`
	RestoreOnStart      *bool              `yaml:"restore_on_start"`
	SyncIntervalSeconds *int               `yaml:"sync_interval_seconds"`
	RegistryFile        *string            `yaml:"registry_file"`
	Defaults            *RawWindowDefaults `yaml:"window_defaults"`
	LogLevel            *string            `yaml:"log_level"`
}

func (c RawConfig) merge(overlay RawConfig) RawConfig {
	out := c
	out.Include = nil

	if overlay.Display != nil {
		out.Display = overlay.Display
	}
	if overlay.Title != nil {
		out.Title = overlay.Title
	}
	if overlay.URL != nil {
		out.URL = overlay.URL
	}
	if overlay.AspectRatio != nil {
		out.AspectRatio = overlay.AspectRatio
	}
	if overlay.AspectTolerance != nil {
		out.AspectTolerance = overlay.AspectTolerance
	}
	if overlay.DefaultSize != nil {
		out.DefaultSize = mergeRawSize(out.DefaultSize, overlay.DefaultSize)
	}
	if overlay.MinSize != nil {
		out.MinSize = mergeRawSize(out.MinSize, overlay.MinSize)
	}
	if overlay.SpawnOffset != nil {
		merged := RawOffset{}
		if out.SpawnOffset != nil {
			merged = *out.SpawnOffset
		}
		if overlay.SpawnOffset.X != nil {
			merged.X = overlay.SpawnOffset.X
		}
		if overlay.SpawnOffset.Y != nil {
			merged.Y = overlay.SpawnOffset.Y
		}
		out.SpawnOffset = &merged
	}
	if overlay.NewWindowHotkey != nil {
		out.NewWindowHotkey = overlay.NewWindowHotkey
	}
	if overlay.RestoreOnStart != nil {
		out.RestoreOnStart = overlay.RestoreOnStart
	}
	if overlay.SyncIntervalSeconds != nil {
		out.SyncIntervalSeconds = overlay.SyncIntervalSeconds
	}
	if overlay.RegistryFile != nil {
		out.RegistryFile = overlay.RegistryFile
	}
	if overlay.Defaults != nil {
		merged := RawWindowDefaults{}
		if out.Defaults != nil {
			merged = *out.Defaults
		}
		if overlay.Defaults.ThemeID != nil {
			merged.ThemeID = overlay.Defaults.ThemeID
		}
		if overlay.Defaults.Mode != nil {
			merged.Mode = overlay.Defaults.Mode
		}
		if overlay.Defaults.LastTime != nil {
			merged.LastTime = overlay.Defaults.LastTime
		}
		out.Defaults = &merged
	}
	if overlay.LogLevel != nil {
		out.LogLevel = overlay.LogLevel
	}
	return out
}

func mergeRawSize(base *RawSize, overlay *RawSize) *RawSize {
	merged := RawSize{}
	if base != nil {
		merged = *base
	}
	if overlay.Width != nil {
		merged.Width = overlay.Width
	}
	if overlay.Height != nil {
		merged.Height = overlay.Height
	}
	return &merged
}
