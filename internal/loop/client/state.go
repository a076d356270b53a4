package client

import (
	"time"

	"github.com/tomz197/starcatch/internal/catch"
	"github.com/tomz197/starcatch/internal/draw"
	"github.com/tomz197/starcatch/internal/input"
)

// GameState represents the current screen of a client.
type GameState int

const (
	GameStateTitle    GameState = iota // Title screen, no game running
	GameStatePlaying                   // A catch game is running
	GameStateGameOver                  // Miss cap reached, restart prompt
	GameStateShutdown                  // Server is shutting down
)

// ClientState holds per-session state (input, screen, scores, timers).
type ClientState struct {
	Input     input.Input
	GameState GameState
	Variant   string        // Variant of the current or last game
	NotFound  string        // Path that was not found, shown as a banner
	Score     int           // Running score, as reported by the engine
	Result    *catch.Result // Last finished game
	Rank      int           // Leaderboard rank of Result, 0 if unranked
	Running   bool

	delta         time.Duration
	missFlash     float64 // Seconds the paddle keeps blinking
	levelBanner   float64 // Seconds the level banner stays up
	level         int     // Level shown on the banner
	shutdownTimer float64
	isInactive    bool

	prevGameState GameState
	wasInactive   bool
	termSizeFunc  draw.TermSizeFunc
}

// NewClientState creates a new initialized client state.
func NewClientState() *ClientState {
	return &ClientState{
		GameState:     GameStateTitle,
		prevGameState: GameStateTitle,
		Variant:       catch.VariantStar,
		Running:       true,
	}
}
