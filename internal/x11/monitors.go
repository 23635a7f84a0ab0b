package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/randr"
)

// Monitor represents a physical display
type Monitor struct {
	ID     int
	Name   string
	X      int
	Y      int
	Width  int
	Height int
}

// GetMonitors retrieves all active monitors using XRandR
func (c *Connection) GetMonitors() ([]Monitor, error) {
	if err := randr.Init(c.XUtil.Conn()); err != nil {
		return nil, fmt.Errorf("randr init failed: %w", err)
	}

	resources, err := randr.GetScreenResources(c.XUtil.Conn(), c.Root).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get screen resources: %w", err)
	}

	var monitors []Monitor
	for i, crtc := range resources.Crtcs {
		crtcInfo, err := randr.GetCrtcInfo(c.XUtil.Conn(), crtc, resources.ConfigTimestamp).Reply()
		if err != nil {
			continue
		}

		// Skip disabled CRTCs
		if crtcInfo.Width == 0 || crtcInfo.Height == 0 || len(crtcInfo.Outputs) == 0 {
			continue
		}

		outputName := fmt.Sprintf("Monitor%d", i)
		outputInfo, err := randr.GetOutputInfo(c.XUtil.Conn(), crtcInfo.Outputs[0], resources.ConfigTimestamp).Reply()
		if err == nil {
			outputName = string(outputInfo.Name)
		}

		monitors = append(monitors, Monitor{
			ID:     i,
			Name:   outputName,
			X:      int(crtcInfo.X),
			Y:      int(crtcInfo.Y),
			Width:  int(crtcInfo.Width),
			Height: int(crtcInfo.Height),
		})
	}

	return monitors, nil
}

// Visible reports whether a rectangle overlaps any monitor by at least
// minOverlap pixels in both directions. When monitors cannot be queried the
// rectangle is assumed visible.
func (c *Connection) Visible(x, y, width, height, minOverlap int) bool {
	monitors, err := c.GetMonitors()
	if err != nil || len(monitors) == 0 {
		return true
	}
	return AnyOverlap(monitors, x, y, width, height, minOverlap)
}

// AnyOverlap reports whether the rectangle overlaps one of monitors by at
// least minOverlap pixels horizontally and vertically.
func AnyOverlap(monitors []Monitor, x, y, width, height, minOverlap int) bool {
	for _, m := range monitors {
		ow := min(x+width, m.X+m.Width) - max(x, m.X)
		oh := min(y+height, m.Y+m.Height) - max(y, m.Y)
		if ow >= minOverlap && oh >= minOverlap {
			return true
		}
	}
	return false
}
