package draw

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestCanvas maps a 4x4 logical space 1:1 onto 4 columns x 2 rows.
func newTestCanvas() *Canvas {
	return NewScaledCanvas(4, 2, 4, 4)
}

func render(t *testing.T, c *Canvas) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, c.Render(&buf))
	return buf.String()
}

func TestRenderHalfBlocks(t *testing.T) {
	c := newTestCanvas()
	c.SetFloat(0, 0, InkWhite)
	c.SetFloat(1, 1, InkRed)
	c.SetFloat(2, 0, InkYellow)
	c.SetFloat(2, 1, InkCyan)
	c.SetFloat(3, 2, InkGreen)
	c.SetFloat(3, 3, InkGreen)

	out := render(t, c)
	assert.Contains(t, out, "\033[97m▀"+ColorReset)
	assert.Contains(t, out, "\033[91m▄"+ColorReset)
	assert.Contains(t, out, "\033[93;106m▀"+ColorReset)
	assert.Contains(t, out, "\033[92m█"+ColorReset)
	assert.True(t, strings.HasPrefix(out, "\033[1;1H"))
}

func TestRenderOnlyWritesChanges(t *testing.T) {
	c := newTestCanvas()
	c.SetFloat(0, 0, InkWhite)
	render(t, c)

	assert.Empty(t, render(t, c), "unchanged frame writes nothing")

	c.Clear()
	assert.Equal(t, "\033[1;1H ", render(t, c), "cleared pixel is blanked")

	c.ForceRedraw()
	assert.Equal(t, 8, strings.Count(render(t, c), " "), "forced redraw rewrites every cell")
}

func TestMarkTextDirty(t *testing.T) {
	c := newTestCanvas()
	render(t, c)

	c.MarkTextDirty(2, 2, 2)
	assert.Equal(t, "\033[2;2H  ", render(t, c))

	c.MarkTextDirty(10, 10, 3)
	assert.Empty(t, render(t, c), "out of range marks are ignored")
}

func TestOffsetAppliesToCursor(t *testing.T) {
	c := newTestCanvas()
	c.SetOffset(3, 2)
	c.SetFloat(0, 0, InkWhite)

	out := render(t, c)
	assert.True(t, strings.HasPrefix(out, "\033[3;4H"))

	left, width := c.Span()
	assert.Equal(t, 3.0, left)
	assert.Equal(t, 4.0, width)
}

func TestScaledFillRect(t *testing.T) {
	c := NewScaledCanvas(10, 5, 100, 100)
	c.FillRect(0, 0, 20, 20, InkCyan)

	// 20 logical units = 2 columns x 2 sub-pixels (1 row).
	out := render(t, c)
	assert.Equal(t, 2, strings.Count(out, "█"))

	c.Clear()
	c.FillRect(50, 50, 0, 0, InkCyan)
	out = render(t, c)
	assert.Equal(t, 1, strings.Count(out, "▀")+strings.Count(out, "▄"), "empty rect still covers a pixel")
}

func TestFilledPolygon(t *testing.T) {
	c := NewScaledCanvas(10, 5, 10, 10)
	c.DrawPolygon([]Point{{1, 1}, {8, 1}, {8, 8}, {1, 8}}, InkWhite, true)
	out := render(t, c)
	assert.GreaterOrEqual(t, strings.Count(out, "█"), 20)

	c.DrawPolygon([]Point{{1, 1}, {2, 2}}, InkRed, true)
	assert.Empty(t, render(t, c), "degenerate polygon draws nothing")
}

func TestLogicalToTerminal(t *testing.T) {
	c := NewScaledCanvas(30, 20, 300, 400)
	col, row := c.LogicalToTerminal(150, 200)
	assert.Equal(t, 16, col)
	assert.Equal(t, 11, row)
}

func TestResizeInvalidates(t *testing.T) {
	c := newTestCanvas()
	render(t, c)
	c.Resize(2, 1)
	assert.Equal(t, 2, strings.Count(render(t, c), " "))
}

func TestRenderBorder(t *testing.T) {
	c := newTestCanvas()
	var buf bytes.Buffer
	require.NoError(t, c.RenderBorder(&buf))
	assert.Empty(t, buf.String(), "no room for a border")

	c.SetOffset(1, 1)
	require.NoError(t, c.RenderBorder(&buf))
	assert.Contains(t, buf.String(), "┌────┐")
	assert.Contains(t, buf.String(), "└────┘")
}

func TestChunkWriter(t *testing.T) {
	var buf bytes.Buffer
	cw := NewChunkWriter(&buf, 2, 1)
	cw.WriteAt(1, 1, "hi")
	cw.WriteCentered(10, 2, "abcd", ColorBold)
	assert.Empty(t, buf.String(), "nothing written before Flush")

	require.NoError(t, cw.Flush())
	assert.Equal(t, "\033[2;3Hhi\033[3;10H"+ColorBold+"abcd"+ColorReset, buf.String())
}
