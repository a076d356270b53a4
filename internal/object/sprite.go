package object

import (
	"math"

	"github.com/tomz197/starcatch/internal/catch"
	"github.com/tomz197/starcatch/internal/draw"
)

// Sprite sizes in field units.
const (
	starRadius   = 10.0
	meteorRadius = 12.0
	cometTail    = 28.0
	meteorSpin   = 1.5 // Radians per second
)

// DrawFalling draws one falling object centered on its position.
func DrawFalling(ctx DrawContext, o catch.FallingObject) {
	switch o.Kind {
	case catch.KindMeteor:
		drawMeteor(ctx.Canvas, o)
	case catch.KindComet:
		ctx.Canvas.DrawLine(draw.Point{X: o.X, Y: o.Y - cometTail}, draw.Point{X: o.X, Y: o.Y}, draw.InkGray)
		drawStar(ctx.Canvas, o.X, o.Y, starRadius*0.8, draw.InkCyan)
	default:
		drawStar(ctx.Canvas, o.X, o.Y, starRadius, draw.InkYellow)
	}
}

// drawStar draws a four-pointed star.
func drawStar(c *draw.Canvas, x, y, r float64, ink draw.Ink) {
	var pts [8]draw.Point
	for i := range pts {
		radius := r
		if i%2 == 1 {
			radius = r * 0.4
		}
		angle := float64(i)*math.Pi/4 - math.Pi/2
		pts[i] = draw.Point{X: x + math.Cos(angle)*radius, Y: y + math.Sin(angle)*radius}
	}
	c.DrawPolygon(pts[:], ink, true)
}

// drawMeteor draws an irregular rock. Its outline is derived from the object
// ID so it keeps its shape from frame to frame.
func drawMeteor(c *draw.Canvas, o catch.FallingObject) {
	seed := uint64(o.ID)
	n := 7 + int(seed%4)
	angle := o.Age * meteorSpin

	pts := make([]draw.Point, n)
	for i := range pts {
		seed = splitmix(seed)
		radius := meteorRadius * (0.7 + 0.6*float64(seed>>11)/float64(1<<53))
		a := angle + float64(i)*2*math.Pi/float64(n)
		pts[i] = draw.Point{X: o.X + math.Cos(a)*radius, Y: o.Y + math.Sin(a)*radius}
	}
	c.DrawPolygon(pts, draw.InkRed, true)
}

func splitmix(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}

// DrawPlayer draws the catcher paddle across the catch band, centered on x.
func DrawPlayer(ctx DrawContext, v catch.Variant, x float64, ink draw.Ink) {
	ctx.Canvas.FillRect(x-v.PlayerWidth/2, v.CatchTop, v.PlayerWidth, v.CatchBottom-v.CatchTop, ink)
}

// KindInk returns the color effects use for a kind.
func KindInk(k catch.Kind) draw.Ink {
	switch k {
	case catch.KindMeteor:
		return draw.InkRed
	case catch.KindComet:
		return draw.InkCyan
	default:
		return draw.InkYellow
	}
}
