// Package config centralizes the session and hub timing parameters.
// Per-variant game tuning lives in catch.Variant.
package config

import "time"

// Player
const (
	MaxUsernameLength = 16  // Maximum display length for player usernames
	NudgeSpeed        = 240 // Field units per second while an arrow key is held
)

// Effects
const (
	CatchBurstParticles = 10
	MissSplashParticles = 6
	MissFlashSeconds    = 0.6 // Paddle blinks this long after a miss
	PlayerBlinkHz       = 10.0
	LevelBannerSeconds  = 1.5
	ScorePopupSeconds   = 0.7
)

// Scoreboard
const (
	TopScoreCount  = 5               // Entries kept per variant
	PersistWorkers = 4               // Concurrent SQLite writers
	PersistTimeout = 5 * time.Second // Per write
)

// Shutdown
const (
	ShutdownDisplaySeconds = 10.0 // Seconds to show shutdown message before auto-disconnect
)

// Inactivity
const (
	InactivityWarnUser       = 90  // Seconds
	InactivityDisconnectUser = 120 // Seconds
)

// Render clamp. Larger terminals get a centered area with a border.
const (
	MaxTermWidth  = 96
	MaxTermHeight = 50
)

// Client rendering
const (
	ClientTargetFPS       = 60
	ClientTargetFrameTime = time.Second / ClientTargetFPS
)

// Server tick rate
const (
	ServerTickRate = 20
	ServerTickTime = time.Second / ServerTickRate
)
