package input

// Sequence detects a fixed run of key presses anywhere in the input stream.
// It keeps the most recent presses, so a partial attempt followed by a fresh
// one still matches.
type Sequence struct {
	pattern []KeyEvent
	recent  []KeyEvent
}

// NewSequence creates a detector for pattern.
func NewSequence(pattern ...KeyEvent) *Sequence {
	return &Sequence{
		pattern: pattern,
		recent:  make([]KeyEvent, 0, len(pattern)),
	}
}

// Runes builds a pattern that matches s typed as lower-case runes.
func Runes(s string) []KeyEvent {
	out := make([]KeyEvent, 0, len(s))
	for _, r := range s {
		if r >= 'A' && r <= 'Z' {
			r += 'a' - 'A'
		}
		out = append(out, KeyEvent{Key: KeyRune, Rune: r})
	}
	return out
}

// Konami is ↑ ↑ ↓ ↓ ← → ← → b a.
func Konami() []KeyEvent {
	return append([]KeyEvent{
		{Key: KeyUp}, {Key: KeyUp},
		{Key: KeyDown}, {Key: KeyDown},
		{Key: KeyLeft}, {Key: KeyRight},
		{Key: KeyLeft}, {Key: KeyRight},
	}, Runes("ba")...)
}

// Feed records one press and reports whether it completed the pattern.
// A completed match is consumed; the next match starts from scratch.
func (s *Sequence) Feed(ev KeyEvent) bool {
	if len(s.pattern) == 0 {
		return false
	}
	if len(s.recent) == len(s.pattern) {
		copy(s.recent, s.recent[1:])
		s.recent = s.recent[:len(s.recent)-1]
	}
	s.recent = append(s.recent, ev)

	if len(s.recent) < len(s.pattern) {
		return false
	}
	for i, want := range s.pattern {
		if s.recent[i] != want {
			return false
		}
	}
	s.recent = s.recent[:0]
	return true
}

// FeedAll feeds every event and reports whether any completed the pattern.
func (s *Sequence) FeedAll(evs []KeyEvent) bool {
	matched := false
	for _, ev := range evs {
		if s.Feed(ev) {
			matched = true
		}
	}
	return matched
}

// Reset forgets partial progress.
func (s *Sequence) Reset() {
	s.recent = s.recent[:0]
}
