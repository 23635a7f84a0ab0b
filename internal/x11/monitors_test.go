package x11

import "testing"

func TestAnyOverlap(t *testing.T) {
	monitors := []Monitor{
		{ID: 0, X: 0, Y: 0, Width: 1920, Height: 1080},
		{ID: 1, X: 1920, Y: 0, Width: 1280, Height: 1024},
	}

	tests := []struct {
		name       string
		x, y, w, h int
		want       bool
	}{
		{"inside first", 100, 100, 312, 125, true},
		{"inside second", 2000, 500, 312, 125, true},
		{"straddles both", 1800, 100, 312, 125, true},
		{"left of everything", -400, 100, 312, 125, false},
		{"barely visible", 1900, 1060, 312, 125, false},
		{"below second monitor", 2000, 1030, 312, 125, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AnyOverlap(monitors, tt.x, tt.y, tt.w, tt.h, 50); got != tt.want {
				t.Fatalf("AnyOverlap(%d,%d,%d,%d) = %v, want %v", tt.x, tt.y, tt.w, tt.h, got, tt.want)
			}
		})
	}
}

func TestValidateGeometry(t *testing.T) {
	tests := []struct {
		name    string
		p       WindowParams
		wantErr bool
	}{
		{"default size", WindowParams{Width: 312, Height: 125, MinWidth: 250, MinHeight: 100}, false},
		{"placed on second monitor", WindowParams{X: 2000, Y: 500, Placed: true, Width: 312, Height: 125}, false},
		{"negative placed position", WindowParams{X: -1200, Y: 10, Placed: true, Width: 312, Height: 125}, false},
		{"width past CARD16", WindowParams{Width: 70000, Height: 125}, true},
		{"height past CARD16", WindowParams{Width: 312, Height: 65536}, true},
		{"zero width", WindowParams{Width: 0, Height: 125}, true},
		{"x past INT16", WindowParams{X: 40000, Y: 0, Placed: true, Width: 312, Height: 125}, true},
		{"y below INT16", WindowParams{X: 0, Y: -40000, Placed: true, Width: 312, Height: 125}, true},
		{"unplaced ignores position", WindowParams{X: 40000, Y: 40000, Width: 312, Height: 125}, false},
		{"min size past CARD16", WindowParams{Width: 312, Height: 125, MinWidth: 70000}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateGeometry(tt.p)
			if (err != nil) != tt.wantErr {
				t.Fatalf("validateGeometry(%+v) = %v, wantErr %v", tt.p, err, tt.wantErr)
			}
		})
	}
}
