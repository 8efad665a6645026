// Package window decides which feed indices should stay resident around the
// currently viewed item.
package window

// Window is an odd-sized range of indices centered on the viewed item.
// It holds no state beyond its size and is safe for concurrent use.
type Window struct {
	size int
}

// New returns a window of the given size. Even sizes are rounded up so the
// center sits exactly in the middle, sizes below one become one.
func New(size int) Window {
	if size < 1 {
		size = 1
	}
	if size%2 == 0 {
		size++
	}
	return Window{size: size}
}

func (w Window) Size() int { return w.size }

func (w Window) radius() int { return w.size / 2 }

// Bounds returns the half-open range [lo, hi) of indices around center,
// clipped to [0, total). An empty feed yields lo == hi == 0.
func (w Window) Bounds(center, total int) (lo, hi int) {
	if total <= 0 {
		return 0, 0
	}
	lo = max(center-w.radius(), 0)
	hi = min(center+w.radius()+1, total)
	if lo >= hi {
		return 0, 0
	}
	return lo, hi
}

// Indices lists the indices of Bounds in ascending order.
func (w Window) Indices(center, total int) []int {
	lo, hi := w.Bounds(center, total)
	out := make([]int, 0, hi-lo)
	for i := lo; i < hi; i++ {
		out = append(out, i)
	}
	return out
}

// ShouldKeepLoaded reports whether index belongs to the window around center.
func (w Window) ShouldKeepLoaded(index, center, total int) bool {
	lo, hi := w.Bounds(center, total)
	return index >= lo && index < hi
}
