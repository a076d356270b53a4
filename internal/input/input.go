// Package input turns raw terminal bytes into per-frame input state: held
// keys, discrete key presses and SGR mouse reports.
package input

import (
	"bufio"
	"strconv"
	"time"
)

// keyHoldDuration is how long a key is considered "held" after its last press.
const keyHoldDuration = 30 * time.Millisecond

// escapeGrace is how long an unfinished escape sequence waits for the rest
// of its bytes before its ESC is taken as a key press.
const escapeGrace = 30 * time.Millisecond

// maxPendingSequence bounds a buffered unfinished sequence.
const maxPendingSequence = 32

// Key identifies a discrete key press.
type Key int

const (
	KeyRune Key = iota // Printable byte, see KeyEvent.Rune
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyEnter
	KeyEscape
	KeySpace
)

// KeyEvent is one key press, in arrival order.
type KeyEvent struct {
	Key  Key
	Rune rune // Lower-cased for KeyRune, zero otherwise
}

// Mouse is one SGR mouse report. Col and Row are 1-based terminal cells.
type Mouse struct {
	Col     int
	Row     int
	Button  int  // 0 left, 1 middle, 2 right, 3 none (motion only)
	Motion  bool // Reported because the pointer moved
	Pressed bool // 'M' final byte; false for release ('m')
}

// Input represents the current frame's input state.
type Input struct {
	Quit    bool
	Left    bool
	Right   bool
	Up      bool
	Down    bool
	Space   bool
	Enter   bool
	Escape  bool
	Restart bool
	Mouse   *Mouse     // Last mouse report this frame, nil if none
	Keys    []KeyEvent // Discrete presses this frame
	Pressed []byte     // Raw bytes drained this frame
}

// keyState tracks the last time each key was pressed.
type keyState struct {
	quit    time.Time
	left    time.Time
	right   time.Time
	up      time.Time
	down    time.Time
	space   time.Time
	enter   time.Time
	escape  time.Time
	restart time.Time
}

// Stream delivers input bytes via a channel and tracks key state for held keys.
type Stream struct {
	ch     chan byte
	state  keyState
	closed bool

	pending   []byte    // Unfinished escape sequence from earlier frames
	pendingAt time.Time // When pending started
}

// StartStream spawns a goroutine that reads from r and sends bytes to the stream.
// The goroutine exits when r returns an error (e.g. the session disconnects).
func StartStream(r *bufio.Reader) *Stream {
	s := &Stream{
		ch: make(chan byte, 256),
	}
	go func() {
		for {
			b, err := r.ReadByte()
			if err != nil {
				close(s.ch)
				return
			}
			s.ch <- b
		}
	}()
	return s
}

// Closed reports whether the underlying reader has ended.
func (s *Stream) Closed() bool {
	return s.closed
}

// ReadInput drains all available bytes from the stream (non-blocking) and
// parses them into this frame's input.
func ReadInput(s *Stream) Input {
	now := time.Now()
	var buf []byte

drain:
	for {
		select {
		case b, ok := <-s.ch:
			if !ok {
				s.closed = true
				break drain
			}
			buf = append(buf, b)
		default:
			break drain
		}
	}

	return s.parse(buf, now)
}

// ResetKeyInput forgets held keys so a press that started a screen
// transition does not leak into the next screen.
func ResetKeyInput(s *Stream) {
	s.state = keyState{}
}

func (s *Stream) parse(buf []byte, now time.Time) Input {
	in := Input{Pressed: buf}

	data := buf
	carried := len(s.pending) > 0
	since := s.pendingAt
	if carried {
		data = append(s.pending, buf...)
		s.pending = nil
	}
	// A sequence still unfinished after the grace period with nothing new
	// arriving is taken at face value.
	expired := carried && len(buf) == 0 && !s.closed && now.Sub(since) >= escapeGrace

	for i := 0; i < len(data); i++ {
		b := data[i]

		if b == '\x1b' && unfinishedSequence(data[i:]) {
			if !expired {
				s.pending = append([]byte(nil), data[i:]...)
				s.pendingAt = now
				if carried && i == 0 {
					s.pendingAt = since
				}
				break
			}
			if len(data)-i > 1 {
				// Never completed; drop it
				break
			}
		}

		if b == '\x1b' && i+1 < len(data) && (data[i+1] == '[' || data[i+1] == 'O') {
			if m, n, ok := parseSGRMouse(data[i:]); ok {
				in.Mouse = &m
				i += n - 1
				continue
			}
			if n := malformedSGR(data[i:]); n > 0 {
				i += n - 1
				continue
			}
			if i+2 < len(data) {
				if key, ok := arrowKey(data[i+2]); ok {
					s.pressKey(key, now)
					in.Keys = append(in.Keys, KeyEvent{Key: key})
					i += 2
					continue
				}
			}
		}

		if ev, ok := s.applyByte(b, now); ok {
			in.Keys = append(in.Keys, ev)
		}
	}

	in.Quit = now.Sub(s.state.quit) < keyHoldDuration
	in.Left = now.Sub(s.state.left) < keyHoldDuration
	in.Right = now.Sub(s.state.right) < keyHoldDuration
	in.Up = now.Sub(s.state.up) < keyHoldDuration
	in.Down = now.Sub(s.state.down) < keyHoldDuration
	in.Space = now.Sub(s.state.space) < keyHoldDuration
	in.Enter = now.Sub(s.state.enter) < keyHoldDuration
	in.Escape = now.Sub(s.state.escape) < keyHoldDuration
	in.Restart = now.Sub(s.state.restart) < keyHoldDuration
	return in
}

func arrowKey(b byte) (Key, bool) {
	switch b {
	case 'A':
		return KeyUp, true
	case 'B':
		return KeyDown, true
	case 'C':
		return KeyRight, true
	case 'D':
		return KeyLeft, true
	}
	return 0, false
}

func (s *Stream) pressKey(k Key, now time.Time) {
	switch k {
	case KeyUp:
		s.state.up = now
	case KeyDown:
		s.state.down = now
	case KeyLeft:
		s.state.left = now
	case KeyRight:
		s.state.right = now
	}
}

// applyByte updates held-key timestamps for a single byte and returns the
// discrete event it represents.
func (s *Stream) applyByte(b byte, now time.Time) (KeyEvent, bool) {
	switch b {
	case '\n', '\r':
		s.state.enter = now
		return KeyEvent{Key: KeyEnter}, true
	case '\x1b':
		s.state.escape = now
		return KeyEvent{Key: KeyEscape}, true
	case ' ':
		s.state.space = now
		return KeyEvent{Key: KeySpace}, true
	}

	if b < 0x20 || b >= 0x7f {
		return KeyEvent{}, false
	}

	r := rune(b)
	if r >= 'A' && r <= 'Z' {
		r += 'a' - 'A'
	}
	switch r {
	case 'q':
		s.state.quit = now
	case 'a', 'h':
		s.state.left = now
	case 'd', 'l':
		s.state.right = now
	case 'r':
		s.state.restart = now
	}
	return KeyEvent{Key: KeyRune, Rune: r}, true
}

// unfinishedSequence reports whether buf, starting at an ESC, is a prefix of
// an arrow key or SGR mouse report that more bytes could still complete.
func unfinishedSequence(buf []byte) bool {
	switch {
	case len(buf) == 1:
		return true
	case buf[1] != '[' && buf[1] != 'O':
		return false
	case len(buf) == 2:
		return true
	case buf[1] != '[' || buf[2] != '<' || len(buf) >= maxPendingSequence:
		return false
	}
	semicolons := 0
	for _, c := range buf[3:] {
		switch {
		case c >= '0' && c <= '9':
		case c == ';':
			semicolons++
			if semicolons > 2 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// malformedSGR returns the length of a complete but unparsable SGR report
// at the start of buf, or 0. Such reports are dropped rather than read as
// an Escape followed by text.
func malformedSGR(buf []byte) int {
	if len(buf) < 3 || buf[1] != '[' || buf[2] != '<' {
		return 0
	}
	for i := 3; i < len(buf) && i < maxPendingSequence; i++ {
		c := buf[i]
		switch {
		case c >= '0' && c <= '9', c == ';':
		case c == 'M' || c == 'm':
			return i + 1
		default:
			return 0
		}
	}
	return 0
}

// parseSGRMouse parses "ESC [ < b ; col ; row (M|m)" at the start of buf and
// returns the report and the number of bytes consumed.
func parseSGRMouse(buf []byte) (Mouse, int, bool) {
	if len(buf) < 9 || buf[0] != '\x1b' || buf[1] != '[' || buf[2] != '<' {
		return Mouse{}, 0, false
	}

	var fields [3]int
	field := 0
	start := 3
	for i := 3; i < len(buf); i++ {
		c := buf[i]
		switch {
		case c >= '0' && c <= '9':
			continue
		case c == ';':
			if field >= 2 {
				return Mouse{}, 0, false
			}
			v, err := strconv.Atoi(string(buf[start:i]))
			if err != nil {
				return Mouse{}, 0, false
			}
			fields[field] = v
			field++
			start = i + 1
		case c == 'M' || c == 'm':
			if field != 2 {
				return Mouse{}, 0, false
			}
			v, err := strconv.Atoi(string(buf[start:i]))
			if err != nil {
				return Mouse{}, 0, false
			}
			fields[2] = v
			code := fields[0]
			return Mouse{
				Col:     fields[1],
				Row:     fields[2],
				Button:  code & 3,
				Motion:  code&32 != 0,
				Pressed: c == 'M',
			}, i + 1, true
		default:
			return Mouse{}, 0, false
		}
	}
	return Mouse{}, 0, false
}
