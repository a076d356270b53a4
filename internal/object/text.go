package object

import (
	"unicode/utf8"

	"github.com/tomz197/starcatch/internal/draw"
)

// FloatingText is a label that drifts upward from a point in field units and
// disappears after its lifetime, e.g. "+10" over a catch.
type FloatingText struct {
	X, Y     float64
	Value    string
	Color    string  // ANSI color sequence, empty for default
	Lifetime float64 // Seconds remaining
	Rise     float64 // Field units per second
}

// NewFloatingText creates a label that rises for lifetime seconds.
func NewFloatingText(x, y float64, value, color string, lifetime float64) *FloatingText {
	return &FloatingText{X: x, Y: y, Value: value, Color: color, Lifetime: lifetime, Rise: 40}
}

// Update moves the label and counts down its lifetime.
func (t *FloatingText) Update(ctx UpdateContext) (bool, error) {
	dt := ctx.Delta.Seconds()
	t.Lifetime -= dt
	if t.Lifetime <= 0 {
		return true, nil
	}
	t.Y -= t.Rise * dt
	return false, nil
}

// Draw writes the label centered over its position. The cells are marked
// dirty so the canvas repaints them after the label moves on.
func (t *FloatingText) Draw(ctx DrawContext) error {
	if t.Value == "" || ctx.Writer == nil {
		return nil
	}
	col, row := ctx.Canvas.LogicalToTerminal(t.X, t.Y)
	n := utf8.RuneCountInString(t.Value)
	col -= n / 2
	if row < 1 || row > ctx.Canvas.TerminalHeight() || col < 1 || col+n-1 > ctx.Canvas.TerminalWidth() {
		return nil
	}
	ctx.Writer.MoveCursor(col, row)
	if t.Color != "" {
		ctx.Writer.WriteString(t.Color + t.Value + draw.ColorReset)
	} else {
		ctx.Writer.WriteString(t.Value)
	}
	ctx.Canvas.MarkTextDirty(col, row, n)
	return nil
}
