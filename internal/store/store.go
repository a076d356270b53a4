// Package store persists finished games in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/tomz197/starcatch/internal/catch"
)

// ErrUnknownVariant is returned for variant names other than the built-in ones.
var ErrUnknownVariant = errors.New("unknown variant")

// MaxPlayerLength bounds stored player names.
const MaxPlayerLength = 32

// Score is one finished game.
type Score struct {
	RunID   uuid.UUID `json:"run_id"`
	Player  string    `json:"player"`
	Variant string    `json:"variant"`
	Points  int       `json:"points"`
	Level   int       `json:"level"`
	Missed  int       `json:"missed"`
	At      time.Time `json:"at"`
}

// FromResult builds a Score for a finished game.
func FromResult(player string, r catch.Result, at time.Time) Score {
	return Score{
		RunID:   uuid.New(),
		Player:  player,
		Variant: r.Variant,
		Points:  r.Score,
		Level:   r.Level,
		Missed:  r.Missed,
		At:      at,
	}
}

const schema = `
CREATE TABLE IF NOT EXISTS scores (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL UNIQUE,
	player TEXT NOT NULL,
	variant TEXT NOT NULL,
	points INTEGER NOT NULL,
	level INTEGER NOT NULL,
	missed INTEGER NOT NULL,
	at_ms INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS scores_variant_points ON scores (variant, points DESC, at_ms ASC);
`

// Store is a SQLite-backed score table. It is safe for concurrent use.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and applies the
// schema. ":memory:" gives a private in-memory database.
func Open(ctx context.Context, path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create dir for %s: %w", path, err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	// One connection serializes writers and keeps ":memory:" a single database.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func knownVariant(name string) bool {
	_, ok := catch.Builtin(name)
	return ok
}

// SaveScore stores one finished game. The player name is trimmed and
// shortened; an empty one is stored as "anonymous".
func (s *Store) SaveScore(ctx context.Context, sc Score) error {
	if !knownVariant(sc.Variant) {
		return fmt.Errorf("save score: %w: %q", ErrUnknownVariant, sc.Variant)
	}
	if sc.RunID == uuid.Nil {
		sc.RunID = uuid.New()
	}
	if sc.At.IsZero() {
		sc.At = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO scores (run_id, player, variant, points, level, missed, at_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, sc.RunID.String(), normalizePlayer(sc.Player), sc.Variant, sc.Points, sc.Level, sc.Missed, sc.At.UnixMilli())
	if err != nil {
		return fmt.Errorf("save score: %w", err)
	}
	return nil
}

// TopScores returns up to limit scores for variant, best first. Ties go to
// the earlier game.
func (s *Store) TopScores(ctx context.Context, variant string, limit int) ([]Score, error) {
	if !knownVariant(variant) {
		return nil, fmt.Errorf("top scores: %w: %q", ErrUnknownVariant, variant)
	}
	if limit <= 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, player, variant, points, level, missed, at_ms
		FROM scores
		WHERE variant = ?
		ORDER BY points DESC, at_ms ASC, id ASC
		LIMIT ?
	`, variant, limit)
	if err != nil {
		return nil, fmt.Errorf("top scores: %w", err)
	}
	defer rows.Close()

	var out []Score
	for rows.Next() {
		var (
			sc    Score
			runID string
			atMS  int64
		)
		if err := rows.Scan(&runID, &sc.Player, &sc.Variant, &sc.Points, &sc.Level, &sc.Missed, &atMS); err != nil {
			return nil, fmt.Errorf("top scores: %w", err)
		}
		if sc.RunID, err = uuid.Parse(runID); err != nil {
			return nil, fmt.Errorf("top scores: run id %q: %w", runID, err)
		}
		sc.At = time.UnixMilli(atMS).UTC()
		out = append(out, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("top scores: %w", err)
	}
	return out, nil
}

// Count returns how many games of variant have been stored.
func (s *Store) Count(ctx context.Context, variant string) (int, error) {
	if !knownVariant(variant) {
		return 0, fmt.Errorf("count: %w: %q", ErrUnknownVariant, variant)
	}
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM scores WHERE variant = ?`, variant).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return n, nil
}

func normalizePlayer(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "anonymous"
	}
	if r := []rune(name); len(r) > MaxPlayerLength {
		name = string(r[:MaxPlayerLength])
	}
	return name
}
