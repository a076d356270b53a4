// Package physics provides the small amount of geometry the catch games need.
package physics

import "math"

// Clamp limits v to [lo, hi]. If lo > hi the midpoint is returned, which
// keeps a too-narrow range from flipping the result.
func Clamp(v, lo, hi float64) float64 {
	if lo > hi {
		return (lo + hi) / 2
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// WithinWindow reports whether a and b are at most tolerance apart.
func WithinWindow(a, b, tolerance float64) bool {
	return math.Abs(a-b) <= tolerance
}

// InBand reports whether y lies strictly inside (top, bottom).
func InBand(y, top, bottom float64) bool {
	return y > top && y < bottom
}

// SweptBand reports whether the vertical segment travelled from y0 to y1
// touches the open band (top, bottom). Objects that move more than the band
// height in a single step are still detected.
func SweptBand(y0, y1, top, bottom float64) bool {
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	return y1 > top && y0 < bottom
}

// Wobble returns a sine offset of the given amplitude for time t (seconds)
// at frequency hz, shifted by phase (radians).
func Wobble(amplitude, hz, phase, t float64) float64 {
	if amplitude == 0 {
		return 0
	}
	return amplitude * math.Sin(phase+2*math.Pi*hz*t)
}
