// Package draw renders logical-space shapes to a terminal using half-block
// characters, with per-pixel ink and diffed output.
package draw

import (
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Point represents a 2D coordinate in logical space.
type Point struct {
	X, Y float64
}

// Block characters for drawing.
const (
	BlockFull      = '█'
	BlockUpperHalf = '▀'
	BlockLowerHalf = '▄'
)

// Ink is a pixel color. InkNone leaves the pixel empty.
type Ink uint8

const (
	InkNone Ink = iota
	InkWhite
	InkYellow
	InkRed
	InkCyan
	InkMagenta
	InkGray
	InkGreen
)

// inkFG holds the SGR foreground code per ink; background is +10.
var inkFG = [...]int{0, 97, 93, 91, 96, 95, 90, 92}

// dirtyCell never matches a real cell, forcing a rewrite on next Render.
const dirtyCell = 0xFFFF

// maxChunkSize is the maximum bytes to write at once for optimal network flow.
const maxChunkSize = 1400

// Canvas is a drawing buffer with 2x vertical resolution using half-block
// characters. Logical coordinates are scaled to the terminal area it covers.
type Canvas struct {
	termWidth      int
	termHeight     int
	subPixelHeight int
	pixels         []Ink    // [y * termWidth + x]
	shown          []uint16 // Last rendered cell per terminal position, top<<8 | bottom

	logicalWidth  float64
	logicalHeight float64
	scaleX        float64
	scaleY        float64

	// 0-based terminal offsets of the render area.
	offsetCol int
	offsetRow int

	renderBuf       strings.Builder
	numBuf          [20]byte
	scaledBuf       []Point
	intersectionBuf []float64
}

// NewScaledCanvas creates a canvas that maps a logicalWidth x logicalHeight
// space onto termWidth x termHeight cells.
func NewScaledCanvas(termWidth, termHeight int, logicalWidth, logicalHeight float64) *Canvas {
	c := &Canvas{
		logicalWidth:  logicalWidth,
		logicalHeight: logicalHeight,
	}
	c.Resize(termWidth, termHeight)
	return c
}

// Resize updates the canvas for new terminal dimensions while keeping the
// logical size. A size change invalidates everything shown so far.
func (c *Canvas) Resize(termWidth, termHeight int) {
	if termWidth < 0 {
		termWidth = 0
	}
	if termHeight < 0 {
		termHeight = 0
	}
	if termWidth != c.termWidth || termHeight != c.termHeight || c.pixels == nil {
		c.termWidth = termWidth
		c.termHeight = termHeight
		c.subPixelHeight = termHeight * 2
		c.pixels = make([]Ink, c.subPixelHeight*termWidth)
		c.shown = make([]uint16, termHeight*termWidth)
		c.ForceRedraw()
	}
	if c.logicalWidth > 0 {
		c.scaleX = float64(termWidth) / c.logicalWidth
	}
	if c.logicalHeight > 0 {
		c.scaleY = float64(c.subPixelHeight) / c.logicalHeight
	}
}

// SetOffset sets the 0-based column and row where the render area starts.
func (c *Canvas) SetOffset(col, row int) {
	if col != c.offsetCol || row != c.offsetRow {
		c.ForceRedraw()
	}
	c.offsetCol = col
	c.offsetRow = row
}

// OffsetCol returns the column offset used for centering.
func (c *Canvas) OffsetCol() int { return c.offsetCol }

// OffsetRow returns the row offset used for centering.
func (c *Canvas) OffsetRow() int { return c.offsetRow }

// TerminalWidth returns the render area width in columns.
func (c *Canvas) TerminalWidth() int { return c.termWidth }

// TerminalHeight returns the render area height in rows.
func (c *Canvas) TerminalHeight() int { return c.termHeight }

// LogicalWidth returns the logical width.
func (c *Canvas) LogicalWidth() float64 { return c.logicalWidth }

// LogicalHeight returns the logical height.
func (c *Canvas) LogicalHeight() float64 { return c.logicalHeight }

// Span returns the render area's left edge and width in terminal columns,
// for mapping pointer columns back into logical space.
func (c *Canvas) Span() (left, width float64) {
	return float64(c.offsetCol), float64(c.termWidth)
}

// Clear resets all pixels. What is on screen is unaffected until Render.
func (c *Canvas) Clear() {
	clear(c.pixels)
}

// ForceRedraw makes the next Render rewrite every cell.
func (c *Canvas) ForceRedraw() {
	for i := range c.shown {
		c.shown[i] = dirtyCell
	}
}

// MarkTextDirty marks n cells starting at the 1-based (col, row) of the
// render area as overwritten by text, so the next Render repaints them.
func (c *Canvas) MarkTextDirty(col, row, n int) {
	row--
	col--
	if row < 0 || row >= c.termHeight {
		return
	}
	for i := 0; i < n; i++ {
		x := col + i
		if x < 0 || x >= c.termWidth {
			continue
		}
		c.shown[row*c.termWidth+x] = dirtyCell
	}
}

func (c *Canvas) setPixel(x, y int, ink Ink) {
	if x >= 0 && x < c.termWidth && y >= 0 && y < c.subPixelHeight {
		c.pixels[y*c.termWidth+x] = ink
	}
}

func (c *Canvas) toPixel(x, y float64) (int, int) {
	return int(math.Round(x * c.scaleX)), int(math.Round(y * c.scaleY))
}

// SetFloat sets a pixel at logical coordinates.
func (c *Canvas) SetFloat(x, y float64, ink Ink) {
	px, py := c.toPixel(x, y)
	c.setPixel(px, py, ink)
}

// FillRect fills the logical rectangle with its top-left corner at (x, y).
// Every rectangle covers at least one pixel.
func (c *Canvas) FillRect(x, y, w, h float64, ink Ink) {
	x0, y0 := c.toPixel(x, y)
	x1, y1 := c.toPixel(x+w, y+h)
	if x1 <= x0 {
		x1 = x0 + 1
	}
	if y1 <= y0 {
		y1 = y0 + 1
	}
	for py := y0; py < y1; py++ {
		for px := x0; px < x1; px++ {
			c.setPixel(px, py, ink)
		}
	}
}

// DrawLine draws a line between logical points using Bresenham's algorithm.
func (c *Canvas) DrawLine(p1, p2 Point, ink Ink) {
	x1, y1 := c.toPixel(p1.X, p1.Y)
	x2, y2 := c.toPixel(p2.X, p2.Y)

	dx := abs(x2 - x1)
	dy := abs(y2 - y1)
	sx, sy := 1, 1
	if x1 > x2 {
		sx = -1
	}
	if y1 > y2 {
		sy = -1
	}
	err := dx - dy

	for {
		c.setPixel(x1, y1, ink)
		if x1 == x2 && y1 == y2 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x1 += sx
		}
		if e2 < dx {
			err += dx
			y1 += sy
		}
	}
}

// DrawPolygon draws a closed polygon, filling the interior when filled is set.
func (c *Canvas) DrawPolygon(points []Point, ink Ink, filled bool) {
	if len(points) < 3 {
		return
	}
	if filled {
		c.fillPolygon(points, ink)
	}
	n := len(points)
	for i := 0; i < n; i++ {
		c.DrawLine(points[i], points[(i+1)%n], ink)
	}
}

// fillPolygon scanline-fills a polygon in pixel space.
func (c *Canvas) fillPolygon(points []Point, ink Ink) {
	if cap(c.scaledBuf) < len(points) {
		c.scaledBuf = make([]Point, len(points))
	}
	scaled := c.scaledBuf[:len(points)]
	for i, p := range points {
		scaled[i] = Point{X: p.X * c.scaleX, Y: p.Y * c.scaleY}
	}

	minY, maxY := scaled[0].Y, scaled[0].Y
	for _, p := range scaled {
		minY = math.Min(minY, p.Y)
		maxY = math.Max(maxY, p.Y)
	}

	for y := int(math.Floor(minY)); y <= int(math.Ceil(maxY)); y++ {
		scanY := float64(y) + 0.5
		xs := c.intersectionBuf[:0]
		n := len(scaled)
		for i := 0; i < n; i++ {
			p1, p2 := scaled[i], scaled[(i+1)%n]
			if (p1.Y <= scanY && p2.Y > scanY) || (p2.Y <= scanY && p1.Y > scanY) {
				t := (scanY - p1.Y) / (p2.Y - p1.Y)
				xs = append(xs, p1.X+t*(p2.X-p1.X))
			}
		}
		c.intersectionBuf = xs
		sort.Float64s(xs)

		for i := 0; i+1 < len(xs); i += 2 {
			for x := int(math.Ceil(xs[i])); x <= int(math.Floor(xs[i+1])); x++ {
				c.setPixel(x, y, ink)
			}
		}
	}
}

// LogicalToTerminal converts logical coordinates to a 1-based (col, row)
// inside the render area.
func (c *Canvas) LogicalToTerminal(x, y float64) (col, row int) {
	px, py := c.toPixel(x, y)
	return px + 1, py/2 + 1
}

// Render writes every cell that changed since the previous Render.
func (c *Canvas) Render(w io.Writer) error {
	c.renderBuf.Reset()
	next := -1 // Cell index the cursor sits on after the last write

	for row := 0; row < c.termHeight; row++ {
		top := row * 2 * c.termWidth
		bottom := (row*2 + 1) * c.termWidth
		for col := 0; col < c.termWidth; col++ {
			t := c.pixels[top+col]
			b := c.pixels[bottom+col]
			key := uint16(t)<<8 | uint16(b)
			idx := row*c.termWidth + col
			if c.shown[idx] == key {
				continue
			}
			c.shown[idx] = key

			if idx != next {
				c.moveCursor(col+1+c.offsetCol, row+1+c.offsetRow)
			}
			c.writeCell(t, b)
			next = idx + 1
			if col == c.termWidth-1 {
				next = -1
			}
		}
	}

	return writeChunked(w, c.renderBuf.String())
}

func (c *Canvas) moveCursor(col, row int) {
	c.renderBuf.WriteString("\033[")
	c.renderBuf.Write(strconv.AppendInt(c.numBuf[:0], int64(row), 10))
	c.renderBuf.WriteByte(';')
	c.renderBuf.Write(strconv.AppendInt(c.numBuf[:0], int64(col), 10))
	c.renderBuf.WriteByte('H')
}

func (c *Canvas) sgr(codes ...int) {
	c.renderBuf.WriteString("\033[")
	for i, code := range codes {
		if i > 0 {
			c.renderBuf.WriteByte(';')
		}
		c.renderBuf.Write(strconv.AppendInt(c.numBuf[:0], int64(code), 10))
	}
	c.renderBuf.WriteByte('m')
}

func (c *Canvas) writeCell(t, b Ink) {
	switch {
	case t == InkNone && b == InkNone:
		c.renderBuf.WriteByte(' ')
		return
	case t == b:
		c.sgr(inkFG[t])
		c.renderBuf.WriteRune(BlockFull)
	case b == InkNone:
		c.sgr(inkFG[t])
		c.renderBuf.WriteRune(BlockUpperHalf)
	case t == InkNone:
		c.sgr(inkFG[b])
		c.renderBuf.WriteRune(BlockLowerHalf)
	default:
		c.sgr(inkFG[t], inkFG[b]+10)
		c.renderBuf.WriteRune(BlockUpperHalf)
	}
	c.renderBuf.WriteString(ColorReset)
}

// RenderBorder draws a box around the render area on the sides where the
// terminal has room for it.
func (c *Canvas) RenderBorder(w io.Writer) error {
	hasH := c.offsetCol >= 1
	hasV := c.offsetRow >= 1
	if !hasH && !hasV {
		return nil
	}

	left := c.offsetCol
	right := c.offsetCol + c.termWidth + 1
	top := c.offsetRow
	bottom := c.offsetRow + c.termHeight + 1
	line := strings.Repeat("─", c.termWidth)

	var buf strings.Builder
	if hasV {
		if hasH {
			buf.WriteString(cursor(left, top) + "┌" + line + "┐")
			buf.WriteString(cursor(left, bottom) + "└" + line + "┘")
		} else {
			buf.WriteString(cursor(c.offsetCol+1, top) + line)
			buf.WriteString(cursor(c.offsetCol+1, bottom) + line)
		}
	}
	if hasH {
		for row := c.offsetRow + 1; row <= c.offsetRow+c.termHeight; row++ {
			buf.WriteString(cursor(left, row) + "│" + cursor(right, row) + "│")
		}
	}
	return writeChunked(w, buf.String())
}

func writeChunked(w io.Writer, data string) error {
	for len(data) > 0 {
		chunk := data
		if len(chunk) > maxChunkSize {
			chunk = data[:maxChunkSize]
		}
		if _, err := io.WriteString(w, chunk); err != nil {
			return err
		}
		data = data[len(chunk):]
	}
	return nil
}

func cursor(col, row int) string {
	return "\033[" + strconv.Itoa(row) + ";" + strconv.Itoa(col) + "H"
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
