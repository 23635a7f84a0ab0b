package main

import (
	"strings"
	"testing"
	"time"

	"github.com/1broseidon/floattimer/internal/config"
	"github.com/1broseidon/floattimer/internal/lifecycle"
	"github.com/1broseidon/floattimer/internal/platform"
)

func TestDecodeRecords_ArrayAndRegistryDocument(t *testing.T) {
	tests := []struct {
		name string
		in   string
		ids  []string
	}{
		{"array", `[{"id":"timer-1","x":1,"y":2,"width":312,"height":125},{"id":"main","x":null,"y":null,"width":0,"height":0}]`, []string{"timer-1", "main"}},
		{"registry", `{"windows":[{"id":"timer-3","x":5,"y":6,"width":400,"height":160,"themeId":"dark","mode":"countup"}]}`, []string{"timer-3"}},
		{"empty array", `[]`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recs, err := decodeRecords(strings.NewReader(tt.in))
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if len(recs) != len(tt.ids) {
				t.Fatalf("got %d records, want %d", len(recs), len(tt.ids))
			}
			for i, id := range tt.ids {
				if recs[i].ID != id {
					t.Errorf("record %d id = %q, want %q", i, recs[i].ID, id)
				}
			}
		})
	}

	if _, err := decodeRecords(strings.NewReader("not json")); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLifecycleOptionsFromDefaults(t *testing.T) {
	got := lifecycleOptions(config.DefaultConfig())
	if got != lifecycle.DefaultOptions() {
		t.Fatalf("default config should map to default options:\n got %+v\nwant %+v", got, lifecycle.DefaultOptions())
	}
}

func TestRegistryDefaultsUseConfiguredTitle(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Title = "Tea"
	cfg.Defaults.Mode = "countup"

	got := registryDefaults(cfg)
	if got.Title != "Tea" || got.Mode != "countup" || got.ThemeID != "default" || got.LastTime != 60 {
		t.Fatalf("unexpected defaults %+v", got)
	}
}

func TestFormatPosition(t *testing.T) {
	rec := platform.NewWindowRecord("timer-1", platform.Point{X: -5, Y: 40}, platform.Size{Width: 312, Height: 125})
	if got := formatPosition(rec); got != "-5,40" {
		t.Fatalf("formatPosition = %q", got)
	}
	if got := formatPosition(platform.WindowRecord{ID: "x"}); got != "-" {
		t.Fatalf("formatPosition without position = %q", got)
	}
}

func TestFormatSource(t *testing.T) {
	if got := formatSource(config.Source{Kind: config.SourceFile, File: "/c.yaml", Line: 3, Column: 5}); got != "file:/c.yaml:3:5" {
		t.Fatalf("file source = %q", got)
	}
	if got := formatSource(config.Source{Kind: config.SourceDefault, Name: "defaults"}); got != "default:defaults" {
		t.Fatalf("default source = %q", got)
	}
}

func TestFormatUptime(t *testing.T) {
	now := time.Now()
	if got := formatUptime(180, now); got != "3 minutes ago" {
		t.Fatalf("formatUptime(180) = %q", got)
	}
	if got := formatUptime(0, now); got != "now" {
		t.Fatalf("formatUptime(0) = %q", got)
	}
}
