// Package windowid allocates the labels that identify timer windows.
package windowid

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"sync/atomic"
)

// Prefix starts every generated window label.
const Prefix = "timer-"

// ErrExhausted is returned once timer-4294967295 has been handed out.
var ErrExhausted = errors.New("window ids exhausted")

// Allocator hands out timer-<N> labels from a counter that only moves
// forward. It is safe for concurrent use.
type Allocator struct {
	next atomic.Uint32
}

// NewAllocator returns an allocator whose first label is timer-1.
func NewAllocator() *Allocator {
	a := &Allocator{}
	a.next.Store(1)
	return a
}

// Next returns a label no earlier call has returned. The counter never
// wraps: after the last label every call fails with ErrExhausted.
func (a *Allocator) Next() (string, error) {
	for {
		cur := a.next.Load()
		if cur == 0 {
			return "", ErrExhausted
		}
		// MaxUint32+1 wraps to 0, which marks the allocator spent.
		if a.next.CompareAndSwap(cur, cur+1) {
			return Format(cur), nil
		}
	}
}

// Peek returns the number the next label will carry, or 0 once the
// allocator is exhausted.
func (a *Allocator) Peek() uint32 {
	return a.next.Load()
}

// Reconcile advances the counter past id's numeric suffix so that a label
// restored from a previous run is never handed out again. Ids that are not
// timer-<N>, or whose N is already behind the counter, leave it untouched.
// It reports whether the counter moved.
func (a *Allocator) Reconcile(id string) bool {
	n, ok := Parse(id)
	if !ok || n == math.MaxUint32 {
		return false
	}
	for {
		cur := a.next.Load()
		if cur == 0 || n < cur {
			return false
		}
		if a.next.CompareAndSwap(cur, n+1) {
			return true
		}
	}
}

// Format renders n as a window label.
func Format(n uint32) string {
	return Prefix + strconv.FormatUint(uint64(n), 10)
}

// Parse extracts N from a timer-<N> label.
func Parse(id string) (uint32, bool) {
	suffix, ok := strings.CutPrefix(id, Prefix)
	if !ok || suffix == "" {
		return 0, false
	}
	n, err := strconv.ParseUint(suffix, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint32(n), true
}
