package common

import (
	"cmp"
	"math"
)

// Clamp limits v to the closed range [lo, hi].
func Clamp[T cmp.Ordered](v, lo, hi T) T {
	return min(max(v, lo), hi)
}

// Snap rounds v to the nearest multiple of step counted from origin. A non-positive step returns v.
//
// Parameters:
//   - v: the value to snap
//   - origin: the value the step grid starts at
//   - step: the grid spacing
//
// Returns:
//   - float32: the snapped value
func Snap(v, origin, step float32) float32 {
	if step <= 0 {
		return v
	}
	n := math.Round(float64((v - origin) / step))
	return origin + float32(n)*step
}
