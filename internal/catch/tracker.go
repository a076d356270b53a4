package catch

import "github.com/tomz197/starcatch/internal/physics"

// Bounds is the on-screen extent of the play field along the horizontal
// axis, in whatever unit pointer events are reported in.
type Bounds struct {
	Left  float64
	Width float64
}

// Tracker turns pointer and keyboard events into the player's horizontal
// position in field units. The position is always kept inside the range
// where the whole player sprite stays on the field.
type Tracker struct {
	field Field
	lo    float64
	hi    float64
	x     float64
}

// NewTracker creates a tracker for the variant, centered on the field.
func NewTracker(v Variant) *Tracker {
	lo, hi := v.PlayerBounds()
	t := &Tracker{field: v.Field, lo: lo, hi: hi}
	t.Reset()
	return t
}

// PointerMove maps a pointer at clientX through bounds onto the field.
// Missing or degenerate bounds leave the position unchanged.
func (t *Tracker) PointerMove(clientX float64, b *Bounds) {
	if b == nil || b.Width <= 0 {
		return
	}
	rel := (clientX - b.Left) * t.field.Width / b.Width
	t.Set(rel)
}

// Nudge moves the player by dx field units.
func (t *Tracker) Nudge(dx float64) {
	t.Set(t.x + dx)
}

// Set places the player at x, clamped.
func (t *Tracker) Set(x float64) {
	t.x = physics.Clamp(x, t.lo, t.hi)
}

// Reset centers the player.
func (t *Tracker) Reset() {
	t.Set(t.field.Width / 2)
}

// X returns the player's center.
func (t *Tracker) X() float64 { return t.x }

// Range returns the clamp range for the player's center.
func (t *Tracker) Range() (lo, hi float64) { return t.lo, t.hi }
