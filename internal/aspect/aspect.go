// Package aspect pins timer windows to a fixed width/height ratio.
package aspect

import (
	"log"
	"math"
	"sync"

	"github.com/1broseidon/floattimer/internal/platform"
)

const (
	// TargetRatio is width / height. 2.5:1 fits an HH:MM:SS face.
	TargetRatio = 2.5
	// Tolerance is the band around TargetRatio treated as compliant. The
	// window system reports integer sizes, so a corrected size rarely lands
	// exactly on the ratio; without the band each correction would trigger
	// another.
	Tolerance = 0.01
)

// Correct returns the size observed should be resized to, or false when it
// is already within Tolerance of TargetRatio.
func Correct(observed platform.Size) (platform.Size, bool) {
	return CorrectTo(observed, TargetRatio, Tolerance)
}

// CorrectTo is Correct with an explicit ratio and tolerance. A window that
// is too wide keeps its height; one that is too tall keeps its width. The
// adjusted dimension is truncated so it never exceeds what the user dragged.
func CorrectTo(observed platform.Size, ratio, tolerance float64) (platform.Size, bool) {
	if observed.Width == 0 || observed.Height == 0 || ratio <= 0 {
		return observed, false
	}

	width := float64(observed.Width)
	height := float64(observed.Height)
	current := width / height

	if math.Abs(current-ratio) < tolerance {
		return observed, false
	}

	var corrected platform.Size
	if current > ratio {
		corrected = platform.Size{Width: uint(height * ratio), Height: observed.Height}
	} else {
		corrected = platform.Size{Width: observed.Width, Height: uint(width / ratio)}
	}
	// A sliver such as 2x10 floors to a zero side; leave it for the
	// window manager's minimum size to fix.
	if corrected.Width == 0 || corrected.Height == 0 {
		return observed, false
	}
	return corrected, true
}

// Sizer applies a size to a window.
type Sizer interface {
	SetSize(id string, size platform.Size) error
}

// Enforcer corrects windows after every resize event.
type Enforcer struct {
	host Sizer

	mu        sync.RWMutex
	ratio     float64
	tolerance float64
}

// NewEnforcer returns an Enforcer using TargetRatio and Tolerance.
func NewEnforcer(host Sizer) *Enforcer {
	return &Enforcer{
		host:      host,
		ratio:     TargetRatio,
		tolerance: Tolerance,
	}
}

// SetRatio replaces the target ratio and tolerance. Non-positive values
// keep the current setting.
func (e *Enforcer) SetRatio(ratio, tolerance float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if ratio > 0 {
		e.ratio = ratio
	}
	if tolerance > 0 {
		e.tolerance = tolerance
	}
}

// Ratio reports the current target ratio and tolerance.
func (e *Enforcer) Ratio() (float64, float64) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.ratio, e.tolerance
}

// Enforce handles one resize notification. When the observed size is off
// ratio it requests the corrected size from the host and returns it. The
// request is fire-and-forget: the host reports the new size as a separate
// event, which then falls inside the tolerance band.
func (e *Enforcer) Enforce(id string, observed platform.Size) (platform.Size, bool) {
	ratio, tolerance := e.Ratio()
	corrected, ok := CorrectTo(observed, ratio, tolerance)
	if !ok {
		return observed, false
	}
	if err := e.host.SetSize(id, corrected); err != nil {
		log.Printf("aspect: resize %s to %dx%d failed: %v", id, corrected.Width, corrected.Height, err)
	}
	return corrected, true
}
