package server

import (
	"sort"

	"github.com/tomz197/starcatch/internal/catch"
)

// TopScoreEntry represents a single entry on a leaderboard.
type TopScoreEntry struct {
	Username string
	Score    int
	Level    int
}

// LiveEntry is a connected player and their running score.
type LiveEntry struct {
	ClientID int
	Username string
	Variant  string
	Score    int
}

// Snapshot is an immutable view of the hub for rendering.
type Snapshot struct {
	Players   int
	Live      []LiveEntry                // Best running score first
	TopScores map[string][]TopScoreEntry // Per variant, best first
}

// Top returns the leaderboard of variant.
func (s *Snapshot) Top(variant string) []TopScoreEntry {
	if s == nil {
		return nil
	}
	return s.TopScores[variant]
}

// leaderboard keeps the best few results per variant.
type leaderboard struct {
	size    int
	entries map[string][]TopScoreEntry
}

func newLeaderboard(size int) *leaderboard {
	return &leaderboard{size: size, entries: make(map[string][]TopScoreEntry)}
}

// insert places e on the variant's board and returns its 1-based rank, or 0
// if it did not make the cut. Equal scores rank after existing ones.
func (l *leaderboard) insert(variant string, e TopScoreEntry) int {
	if l.size <= 0 || e.Score <= 0 {
		return 0
	}
	board := l.entries[variant]
	pos := sort.Search(len(board), func(i int) bool { return board[i].Score < e.Score })
	if pos >= l.size {
		return 0
	}
	board = append(board, TopScoreEntry{})
	copy(board[pos+1:], board[pos:])
	board[pos] = e
	if len(board) > l.size {
		board = board[:l.size]
	}
	l.entries[variant] = board
	return pos + 1
}

// copyOut returns a deep copy safe to publish.
func (l *leaderboard) copyOut() map[string][]TopScoreEntry {
	out := make(map[string][]TopScoreEntry, len(l.entries))
	for v, board := range l.entries {
		out[v] = append([]TopScoreEntry(nil), board...)
	}
	return out
}

// variants lists the boards the hub tracks.
var variants = []string{catch.VariantStar, catch.VariantSpace}
