package config

import (
	"fmt"
	"strings"
)

// Explain returns the effective value at the given YAML-like path and its source.
//
// Supported paths are the top-level keys plus the fields of nested blocks:
//
//	title
//	aspect_ratio
//	default_size.width
//	spawn_offset.x
//	window_defaults.mode
func Explain(res *LoadResult, path string) (any, Source, error) {
	if res == nil || res.Config == nil {
		return nil, Source{}, fmt.Errorf("no config loaded")
	}
	if path == "" {
		return nil, Source{}, fmt.Errorf("path is empty")
	}

	value, err := lookupValue(res.Config, path)
	if err != nil {
		return nil, Source{}, err
	}
	if src, ok := res.Sources[path]; ok {
		return value, src, nil
	}
	return value, Source{Kind: SourceDefault, Name: "defaults"}, nil
}

func lookupValue(cfg *Config, path string) (any, error) {
	parts := strings.Split(path, ".")
	leaf := func(v any) (any, error) {
		if len(parts) != 1 {
			return nil, fmt.Errorf("%s has no field %q", parts[0], strings.Join(parts[1:], "."))
		}
		return v, nil
	}
	field := func(fields map[string]any) (any, error) {
		if len(parts) == 1 {
			return fields, nil
		}
		if len(parts) != 2 {
			return nil, fmt.Errorf("unknown path %q", path)
		}
		v, ok := fields[parts[1]]
		if !ok {
			return nil, fmt.Errorf("%s has no field %q", parts[0], parts[1])
		}
		return v, nil
	}

	switch parts[0] {
	case "display":
		return leaf(cfg.Display)
	case "title":
		return leaf(cfg.Title)
	case "url":
		return leaf(cfg.URL)
	case "aspect_ratio":
		return leaf(cfg.AspectRatio)
	case "aspect_tolerance":
		return leaf(cfg.AspectTolerance)
	case "default_size":
		return field(map[string]any{"width": cfg.DefaultSize.Width, "height": cfg.DefaultSize.Height})
	case "min_size":
		return field(map[string]any{"width": cfg.MinSize.Width, "height": cfg.MinSize.Height})
	case "spawn_offset":
		return field(map[string]any{"x": cfg.SpawnOffset.X, "y": cfg.SpawnOffset.Y})
	case "new_window_hotkey":
		return leaf(cfg.NewWindowHotkey)
	case "restore_on_start":
		return leaf(cfg.RestoreOnStart)
	case "sync_interval_seconds":
		return leaf(cfg.SyncIntervalSeconds)
	case "registry_file":
		return leaf(cfg.RegistryFile)
	case "window_defaults":
		return field(map[string]any{
			"theme_id":  cfg.Defaults.ThemeID,
			"mode":      cfg.Defaults.Mode,
			"last_time": cfg.Defaults.LastTime,
		})
	case "log_level":
		return leaf(cfg.LogLevel)
	default:
		return nil, fmt.Errorf("unknown path %q", path)
	}
}
