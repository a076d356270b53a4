package draw

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/term"
)

// ANSI color sequences for text overlays.
const (
	ColorReset        = "\033[0m"
	ColorBold         = "\033[1m"
	ColorDim          = "\033[2m"
	ColorBrightCyan   = "\033[96m"
	ColorBrightYellow = "\033[93m"
	ColorBrightRed    = "\033[91m"
	ColorBrightGreen  = "\033[92m"
)

// ChunkWriter accumulates text for terminal output and writes it in chunks,
// which keeps frames smooth over SSH. Coordinates passed to MoveCursor and
// WriteAt are 1-based within the render area; the offset is applied here.
type ChunkWriter struct {
	buf    strings.Builder
	bufw   *bufio.Writer
	numBuf [20]byte
	offCol int
	offRow int
}

// NewChunkWriter creates a ChunkWriter that writes to w.
func NewChunkWriter(w io.Writer, offsetCol, offsetRow int) *ChunkWriter {
	return &ChunkWriter{
		bufw:   bufio.NewWriterSize(w, 8192),
		offCol: offsetCol,
		offRow: offsetRow,
	}
}

// SetOffset updates the cursor offset (e.g. after terminal resize).
func (cw *ChunkWriter) SetOffset(offsetCol, offsetRow int) {
	cw.offCol = offsetCol
	cw.offRow = offsetRow
}

// MoveCursor appends an ANSI cursor position sequence.
func (cw *ChunkWriter) MoveCursor(col, row int) {
	cw.buf.WriteString("\033[")
	cw.buf.Write(strconv.AppendInt(cw.numBuf[:0], int64(row+cw.offRow), 10))
	cw.buf.WriteByte(';')
	cw.buf.Write(strconv.AppendInt(cw.numBuf[:0], int64(col+cw.offCol), 10))
	cw.buf.WriteByte('H')
}

// Write implements io.Writer so a Canvas can render into the same frame.
func (cw *ChunkWriter) Write(p []byte) (int, error) {
	return cw.buf.Write(p)
}

// WriteString appends s to the buffer.
func (cw *ChunkWriter) WriteString(s string) {
	cw.buf.WriteString(s)
}

// WriteAt writes s at a 1-based position.
func (cw *ChunkWriter) WriteAt(col, row int, s string) {
	cw.MoveCursor(col, row)
	cw.buf.WriteString(s)
}

// WriteCentered writes s centered on column centerCol, optionally wrapped
// in a color sequence. Text wider than the render area spills into the
// margins but never off the left edge of the terminal.
func (cw *ChunkWriter) WriteCentered(centerCol, row int, s, color string) {
	col := centerCol - utf8.RuneCountInString(s)/2
	if col+cw.offCol < 1 {
		col = 1 - cw.offCol
	}
	cw.MoveCursor(col, row)
	if color != "" {
		cw.buf.WriteString(color)
		cw.buf.WriteString(s)
		cw.buf.WriteString(ColorReset)
		return
	}
	cw.buf.WriteString(s)
}

// WriteRune appends a rune to the buffer.
func (cw *ChunkWriter) WriteRune(r rune) {
	cw.buf.WriteRune(r)
}

var _ io.Writer = (*ChunkWriter)(nil)

// Flush writes the accumulated buffer to the underlying writer in chunks.
func (cw *ChunkWriter) Flush() error {
	data := cw.buf.String()
	cw.buf.Reset()
	if err := writeChunked(cw.bufw, data); err != nil {
		return err
	}
	return cw.bufw.Flush()
}

// TermSizeFunc returns the terminal dimensions.
type TermSizeFunc func() (width, height int, err error)

// DefaultTermSizeFunc returns the terminal size of os.Stdout.
var DefaultTermSizeFunc TermSizeFunc = func() (int, int, error) {
	return term.GetSize(int(os.Stdout.Fd()))
}

// ClearScreen clears the terminal and moves the cursor to the top-left.
func ClearScreen(w io.Writer) {
	io.WriteString(w, "\033[H\033[2J")
}

// HideCursor hides the terminal cursor.
func HideCursor(w io.Writer) {
	io.WriteString(w, "\033[?25l")
}

// ShowCursor shows the terminal cursor.
func ShowCursor(w io.Writer) {
	io.WriteString(w, "\033[?25h")
}

// EnableMouse turns on any-motion tracking with SGR extended coordinates.
func EnableMouse(w io.Writer) {
	io.WriteString(w, "\033[?1003h\033[?1006h")
}

// DisableMouse reverses EnableMouse.
func DisableMouse(w io.Writer) {
	io.WriteString(w, "\033[?1006l\033[?1003l")
}

// Hyperlink wraps label in an OSC 8 link to url.
func Hyperlink(url, label string) string {
	return "\033]8;;" + url + "\033\\" + label + "\033]8;;\033\\"
}
