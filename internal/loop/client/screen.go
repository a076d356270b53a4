package client

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/tomz197/starcatch/internal/catch"
	"github.com/tomz197/starcatch/internal/draw"
	"github.com/tomz197/starcatch/internal/loop/config"
	"github.com/tomz197/starcatch/internal/loop/server"
	"github.com/tomz197/starcatch/internal/object"
)

const repoURL = "https://github.com/tomz197/starcatch"

// drawFrame draws the current frame.
func (c *Client) drawFrame() error {
	// On game state or inactivity transitions, do a full terminal clear
	// so UI elements from the previous state don't persist on screen.
	stateChanged := c.state.GameState != c.state.prevGameState
	inactiveChanged := c.state.isInactive != c.state.wasInactive
	if stateChanged || inactiveChanged {
		c.chunkWriter.WriteString("\033[H\033[2J")
		c.canvas.ForceRedraw()
		c.state.prevGameState = c.state.GameState
		c.state.wasInactive = c.state.isInactive
	}

	c.canvas.Clear()

	ctx := object.DrawContext{
		Canvas: c.canvas,
		Writer: c.chunkWriter,
	}

	inGame := c.state.GameState == GameStatePlaying || c.state.GameState == GameStateGameOver
	if c.engine != nil && inGame && !c.state.isInactive {
		snap := c.engine.Snapshot()
		for _, o := range snap.Objects {
			object.DrawFalling(ctx, o)
		}
		// Blink the paddle after a miss
		if object.ShouldRenderBlink(c.state.missFlash, config.PlayerBlinkHz) {
			ink := draw.InkCyan
			if c.state.GameState == GameStateGameOver {
				ink = draw.InkGray
			}
			object.DrawPlayer(ctx, c.engine.Variant(), snap.PlayerX, ink)
		}
		if err := c.particles.Draw(ctx); err != nil {
			return err
		}
	}

	if err := c.canvas.Render(c.chunkWriter); err != nil {
		return err
	}
	// Draw border when terminal exceeds max render resolution
	if err := c.canvas.RenderBorder(c.chunkWriter); err != nil {
		return err
	}

	if inGame && !c.state.isInactive {
		if err := c.labels.Draw(ctx); err != nil {
			return err
		}
	}

	c.drawUI(c.server.GetSnapshot())

	return c.chunkWriter.Flush()
}

// drawUI draws the text overlay for the current screen.
func (c *Client) drawUI(snapshot *server.Snapshot) {
	termWidth := c.canvas.TerminalWidth()
	termHeight := c.canvas.TerminalHeight()
	centerX := termWidth/2 + 1
	centerY := termHeight/2 + 1

	if c.state.GameState == GameStateShutdown {
		c.drawShutdownScreen(centerX, centerY)
		return
	}

	if c.state.isInactive {
		c.drawInactivityScreen(centerX, centerY)
		return
	}

	switch c.state.GameState {
	case GameStateTitle:
		c.drawTitleScreen(centerX, centerY, snapshot)
	case GameStatePlaying:
		c.drawPlayingHUD(termWidth, termHeight, snapshot)
	case GameStateGameOver:
		c.drawPlayingHUD(termWidth, termHeight, snapshot)
		c.drawGameOverScreen(centerX, centerY, snapshot)
	}
}

// overlay writes centered text that the canvas repaints once it is gone.
func (c *Client) overlay(centerX, row int, s, color string) {
	c.chunkWriter.WriteCentered(centerX, row, s, color)
	c.canvas.MarkTextDirty(centerX-utf8.RuneCountInString(s)/2, row, utf8.RuneCountInString(s))
}

// blinkOn toggles a few times a second for prompts.
func blinkOn() bool {
	return time.Now().UnixMilli()/600%2 == 0
}

// drawInactivityScreen draws the inactivity warning screen.
func (c *Client) drawInactivityScreen(centerX, centerY int) {
	cw := c.chunkWriter
	cw.WriteCentered(centerX, centerY-2, "INACTIVITY WARNING", draw.ColorBold)

	msg := fmt.Sprintf(
		"Disconnecting in %d seconds.",
		int(config.InactivityDisconnectUser-time.Since(c.lastInput).Seconds()),
	)
	cw.WriteCentered(centerX, centerY, msg, "")
	cw.WriteCentered(centerX, centerY+2, "Press any key to continue", draw.ColorDim)
}

// drawTitleScreen draws the title screen with controls and leaderboards.
func (c *Client) drawTitleScreen(centerX, centerY int, snapshot *server.Snapshot) {
	titleArt := []string{
		`.   *    .     *   .  `,
		` S T A R  C A T C H  `,
		`  *   .     *    .  *`,
	}

	cw := c.chunkWriter
	row := max(1, centerY-9)
	for i, line := range titleArt {
		color := draw.ColorDim
		if i == 1 {
			color = draw.ColorBold + draw.ColorBrightYellow
		}
		cw.WriteCentered(centerX, row+i, line, color)
	}
	row += len(titleArt) + 1

	cw.WriteCentered(centerX, row, "~ lost in space? catch a star ~", "")
	row += 2

	controlLines := []string{
		"Mouse / < >  . . Move",
		"SPACE  . . . .  Start",
		"ESC  . . . . .  Close",
		"Q  . . . . . . . Quit",
	}
	for _, line := range controlLines {
		cw.WriteCentered(centerX, row, line, "")
		row++
	}
	row++

	if blinkOn() {
		cw.WriteCentered(centerX, row, ">>  Press SPACE to Start  <<", draw.ColorBrightCyan)
	} else {
		cw.WriteCentered(centerX, row, "                            ", "")
	}
	row += 2

	row = c.drawTopScores(centerX, row, snapshot, catch.VariantStar, "Top catchers")
	if top := snapshot.Top(catch.VariantSpace); len(top) > 0 {
		row = c.drawTopScores(centerX, row+1, snapshot, catch.VariantSpace, "Top space pilots")
	}

	// OSC 8 clickable hyperlink
	label := "github.com/tomz197/starcatch"
	cw.MoveCursor(centerX-len(label)/2, row+1)
	cw.WriteString(draw.ColorDim + draw.Hyperlink(repoURL, label) + draw.ColorReset)
}

// drawTopScores lists a variant's leaderboard and returns the next free row.
func (c *Client) drawTopScores(centerX, row int, snapshot *server.Snapshot, variant, title string) int {
	top := snapshot.Top(variant)
	if len(top) == 0 {
		return row
	}
	c.chunkWriter.WriteCentered(centerX, row, title, draw.ColorBold)
	row++
	for i, e := range top {
		if i >= 3 {
			break
		}
		line := fmt.Sprintf("%d. %-*s %6d", i+1, config.MaxUsernameLength, e.Username, e.Score)
		c.chunkWriter.WriteCentered(centerX, row, line, "")
		row++
	}
	return row
}

// drawPlayingHUD draws the in-game HUD.
// Text fields use fixed-width formatting so shrinking values don't leave
// residual characters on screen.
func (c *Client) drawPlayingHUD(termWidth, termHeight int, snapshot *server.Snapshot) {
	cw := c.chunkWriter
	snap := c.engine.Snapshot()

	scoreText := fmt.Sprintf("Score: %-6d", snap.Score)
	cw.WriteAt(2, 1, scoreText)

	levelText := fmt.Sprintf("Lv %-3d", snap.Level)
	cw.WriteAt(termWidth-len(levelText), 1, levelText)

	if snap.MaxMissed > 0 {
		color := ""
		if snap.Missed >= snap.MaxMissed-1 {
			color = draw.ColorBrightRed
		}
		cw.MoveCursor(2, 2)
		cw.WriteString(color + fmt.Sprintf("Missed: %d/%d", snap.Missed, snap.MaxMissed) + draw.ColorReset)
	}

	centerX := termWidth/2 + 1
	if c.state.NotFound != "" && c.state.GameState == GameStatePlaying {
		c.overlay(centerX, 4, "404 "+c.state.NotFound, draw.ColorBold+draw.ColorBrightRed)
		c.overlay(centerX, 5, "page not found, have a star", draw.ColorDim)
	}

	if c.state.levelBanner > 0 {
		c.overlay(centerX, termHeight/3, fmt.Sprintf("LEVEL %d", c.state.level), draw.ColorBold+draw.ColorBrightYellow)
	}

	playersText := fmt.Sprintf("Players: %-3d", snapshot.Players)
	cw.WriteAt(2, termHeight, playersText)

	best := 0
	if top := snapshot.Top(snap.Variant); len(top) > 0 {
		best = top[0].Score
	}
	bestText := fmt.Sprintf("Best: %-6d", best)
	cw.WriteAt(termWidth-len(bestText), termHeight, bestText)
}

// drawGameOverScreen draws the result and restart prompt.
func (c *Client) drawGameOverScreen(centerX, centerY int, snapshot *server.Snapshot) {
	cw := c.chunkWriter
	row := max(3, centerY-6)

	cw.WriteCentered(centerX, row, "G A M E   O V E R", draw.ColorBold+draw.ColorBrightRed)
	row += 2

	if r := c.state.Result; r != nil {
		cw.WriteCentered(centerX, row, fmt.Sprintf("Score: %d   Level: %d", r.Score, r.Level), "")
		row++
		if c.state.Rank > 0 {
			cw.WriteCentered(centerX, row, fmt.Sprintf("New high score! #%d", c.state.Rank), draw.ColorBrightYellow)
		}
		row += 2
	}

	row = c.drawTopScores(centerX, row, snapshot, c.state.Variant, "Top scores") + 1

	if blinkOn() {
		cw.WriteCentered(centerX, row, ">>  Press SPACE to Restart  <<", draw.ColorBrightCyan)
	} else {
		cw.WriteCentered(centerX, row, "                              ", "")
	}
	cw.WriteCentered(centerX, row+1, "ESC to close", draw.ColorDim)
}

// drawShutdownScreen draws the server shutdown notification screen.
func (c *Client) drawShutdownScreen(centerX, centerY int) {
	cw := c.chunkWriter
	cw.WriteCentered(centerX, centerY-3, "SERVER SHUTTING DOWN", draw.ColorBold)
	cw.WriteCentered(centerX, centerY-1, "The server is restarting for maintenance.", "")
	cw.WriteCentered(centerX, centerY, "Please reconnect in a moment.", "")

	remaining := int(c.state.shutdownTimer) + 1
	cw.WriteCentered(centerX, centerY+2, fmt.Sprintf("Disconnecting in %-2d seconds...", remaining), "")
	cw.WriteCentered(centerX, centerY+4, "Press Q to disconnect now", draw.ColorDim)
}
