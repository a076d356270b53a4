package client

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tomz197/starcatch/internal/catch"
	appconfig "github.com/tomz197/starcatch/internal/config"
	"github.com/tomz197/starcatch/internal/draw"
	"github.com/tomz197/starcatch/internal/input"
	"github.com/tomz197/starcatch/internal/loop/config"
	"github.com/tomz197/starcatch/internal/loop/server"
	"github.com/tomz197/starcatch/internal/object"
)

// Route says how a session starts.
type Route struct {
	Variant  string // Variant to start right away, empty for the title screen
	NotFound string // Unknown path to show on the banner
}

// ResolveCommand maps an SSH command or local path to a Route. Known
// commands are "", "space" and "stars"; anything else is a missing page
// and falls back to the Star Catcher.
func ResolveCommand(cmd string) Route {
	cmd = strings.Trim(strings.TrimSpace(cmd), "/")
	switch strings.ToLower(cmd) {
	case "":
		return Route{}
	case "space":
		return Route{Variant: catch.VariantSpace}
	case "stars":
		return Route{Variant: catch.VariantStar}
	}
	return Route{Variant: catch.VariantStar, NotFound: "/" + cmd}
}

// Client handles rendering and input for a single connection. It owns the
// session's engine and acts as its host.
type Client struct {
	server       server.GameServer
	handle       *server.ClientHandle
	state        *ClientState
	canvas       *draw.Canvas
	chunkWriter  *draw.ChunkWriter // Accumulates the frame for chunked output
	writer       io.Writer
	inputStream  *input.Stream
	lastInput    time.Time
	username     string
	termSizeFunc draw.TermSizeFunc
	logger       *zap.Logger

	tuning    appconfig.Tuning
	rng       *rand.Rand
	sched     *catch.FrameScheduler
	engine    *catch.Engine
	secrets   []*input.Sequence
	particles object.Effects // Drawn on the canvas
	labels    object.Effects // Drawn as text over the canvas
}

var _ catch.Host = (*Client)(nil)

// ClientOptions configures the client.
type ClientOptions struct {
	TermSizeFunc draw.TermSizeFunc
	Username     string
	Command      string            // SSH command or local path, see ResolveCommand
	Tuning       *appconfig.Tuning // Nil uses the built-in variants
	Logger       *zap.Logger
	Rand         *rand.Rand // Nil seeds from the clock
}

// NewClient creates a new client connected to the given hub.
func NewClient(gs server.GameServer, r *bufio.Reader, w io.Writer, opts ClientOptions) *Client {
	termSizeFunc := opts.TermSizeFunc
	if termSizeFunc == nil {
		termSizeFunc = draw.DefaultTermSizeFunc
	}
	tuning := appconfig.DefaultTuning()
	if opts.Tuning != nil {
		tuning = *opts.Tuning
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	rng := opts.Rand
	if rng == nil {
		seed := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(seed, seed>>17))
	}

	route := ResolveCommand(opts.Command)
	variant := route.Variant
	if variant == "" {
		variant = catch.VariantStar
	}

	handle := gs.RegisterClient(opts.Username, variant)
	state := NewClientState()
	state.termSizeFunc = termSizeFunc
	state.Variant = variant
	state.NotFound = route.NotFound

	field := tuning.Star.Field
	if v, ok := tuning.Variant(variant); ok {
		field = v.Field
	}
	termWidth, termHeight, _ := termSizeFunc()
	renderWidth, renderHeight, offsetCol, offsetRow := layout(termWidth, termHeight, field)
	canvas := draw.NewScaledCanvas(renderWidth, renderHeight, field.Width, field.Height)
	canvas.SetOffset(offsetCol, offsetRow)

	c := &Client{
		server:       gs,
		handle:       handle,
		state:        state,
		canvas:       canvas,
		chunkWriter:  draw.NewChunkWriter(w, offsetCol, offsetRow),
		writer:       w,
		lastInput:    time.Now(),
		inputStream:  input.StartStream(r),
		username:     handle.Username,
		termSizeFunc: termSizeFunc,
		logger:       logger.With(zap.Int("client_id", handle.ID), zap.String("user", handle.Username)),
		tuning:       tuning,
		rng:          rng,
		sched:        catch.NewFrameScheduler(),
		secrets: []*input.Sequence{
			input.NewSequence(input.Konami()...),
			input.NewSequence(input.Runes("stars")...),
		},
	}

	if route.Variant != "" {
		c.startGame(route.Variant, time.Now())
	}
	return c
}

// Run starts the client loop. Blocks until the client disconnects or the
// hub shuts it down.
func (c *Client) Run() error {
	draw.HideCursor(c.writer)
	draw.EnableMouse(c.writer)
	defer draw.ShowCursor(c.writer)
	defer draw.DisableMouse(c.writer)
	draw.ClearScreen(c.writer)

	lastTime := time.Now()

	for c.state.Running {
		frameStart := time.Now()
		c.state.delta = frameStart.Sub(lastTime)
		lastTime = frameStart

		c.processInput(frameStart)
		c.processServerEvents()
		c.updateScreen()
		c.update(frameStart)

		if err := c.drawFrame(); err != nil {
			c.logger.Warn("draw frame", zap.Error(err))
			break
		}

		elapsed := time.Since(frameStart)
		if elapsed < config.ClientTargetFrameTime {
			time.Sleep(config.ClientTargetFrameTime - elapsed)
		}
	}

	if c.engine != nil {
		c.engine.Stop()
	}
	c.server.UnregisterClient(c.handle.ID)

	draw.ClearScreen(c.writer)
	return nil
}

// State returns the session state. It is owned by the client goroutine.
func (c *Client) State() *ClientState {
	return c.state
}

// processInput reads this frame's input and applies it.
func (c *Client) processInput(now time.Time) {
	in := input.ReadInput(c.inputStream)
	if c.inputStream.Closed() {
		c.state.Running = false
	}
	c.handleInput(in, now)
}

// handleInput applies one frame of input to the current screen.
func (c *Client) handleInput(in input.Input, now time.Time) {
	c.state.Input = in

	idle := now.Sub(c.lastInput).Seconds()
	switch {
	case len(in.Pressed) > 0:
		c.lastInput = now
		c.state.isInactive = false
	case idle > config.InactivityDisconnectUser:
		c.state.Running = false
	case idle > config.InactivityWarnUser:
		c.state.isInactive = true
	}

	if in.Quit {
		c.state.Running = false
		return
	}
	if c.state.GameState == GameStateShutdown {
		return
	}

	unlocked := false
	for _, seq := range c.secrets {
		if seq.FeedAll(in.Keys) {
			unlocked = true
		}
	}
	if unlocked && !(c.state.GameState == GameStatePlaying && c.state.Variant == catch.VariantSpace) {
		c.logger.Info("secret sequence entered")
		c.startGame(catch.VariantSpace, now)
		return
	}

	switch c.state.GameState {
	case GameStateTitle:
		if in.Space || in.Enter {
			c.startGame(catch.VariantStar, now)
		}
	case GameStatePlaying:
		c.updatePlayingInput(in)
	case GameStateGameOver:
		switch {
		case in.Escape:
			c.engine.Close()
		case in.Space || in.Enter || in.Restart:
			c.restartGame(now)
		}
	}
}

// updatePlayingInput moves the paddle by pointer or held arrow keys.
func (c *Client) updatePlayingInput(in input.Input) {
	if in.Escape {
		c.engine.Close()
		return
	}
	if in.Mouse != nil {
		left, width := c.canvas.Span()
		c.engine.PointerMove(float64(in.Mouse.Col)-0.5, &catch.Bounds{Left: left, Width: width})
	}
	step := config.NudgeSpeed * c.state.delta.Seconds()
	if in.Left {
		c.engine.Nudge(-step)
	}
	if in.Right {
		c.engine.Nudge(step)
	}
}

// startGame replaces the running engine with a fresh one for variant.
func (c *Client) startGame(variant string, now time.Time) {
	v, ok := c.tuning.Variant(variant)
	if !ok {
		v = c.tuning.Star
	}

	input.ResetKeyInput(c.inputStream)
	if c.engine != nil {
		c.engine.Stop()
	}
	c.particles.Reset()
	c.labels.Reset()

	if v.Name != catch.VariantStar {
		c.state.NotFound = ""
	}
	c.state.Variant = v.Name
	c.state.Score = 0
	c.state.Result = nil
	c.state.Rank = 0
	c.state.missFlash = 0
	c.state.levelBanner = 0
	c.state.GameState = GameStatePlaying

	c.engine = catch.NewEngine(v, c, c.sched, c.rng)
	c.engine.Start(now)
	c.server.SetVariant(c.handle.ID, v.Name)
	c.logger.Info("game started", zap.String("variant", v.Name))
}

// restartGame resumes the same variant after a game over.
func (c *Client) restartGame(now time.Time) {
	input.ResetKeyInput(c.inputStream)
	c.particles.Reset()
	c.labels.Reset()
	c.state.Score = 0
	c.state.Result = nil
	c.state.Rank = 0
	c.state.missFlash = 0
	c.state.GameState = GameStatePlaying
	c.engine.Restart(now)
	c.server.ReportScore(c.handle.ID, 0)
}

// ReportScore implements catch.Host.
func (c *Client) ReportScore(score int) {
	c.state.Score = score
	c.server.ReportScore(c.handle.ID, score)
}

// ReportGameOver implements catch.Host.
func (c *Client) ReportGameOver(result catch.Result) {
	c.state.Result = &result
	c.state.Rank = 0
	c.state.GameState = GameStateGameOver
	c.server.SubmitResult(c.handle.ID, result)
}

// RequestClose implements catch.Host: the game hands control back to the
// title screen.
func (c *Client) RequestClose() {
	c.state.GameState = GameStateTitle
	c.state.NotFound = ""
	c.state.Score = 0
	c.particles.Reset()
	c.labels.Reset()
	c.server.ReportScore(c.handle.ID, 0)
}

// processServerEvents handles events from the hub.
func (c *Client) processServerEvents() {
	for {
		select {
		case event, ok := <-c.handle.EventsCh:
			if !ok {
				c.state.Running = false
				return
			}
			switch event.Type {
			case server.EventHighScore:
				if c.state.Result != nil && c.state.Result.Score == event.Score {
					c.state.Rank = event.Rank
				}
			case server.EventServerShutdown:
				if c.engine != nil {
					c.engine.Stop()
				}
				c.state.GameState = GameStateShutdown
				c.state.shutdownTimer = config.ShutdownDisplaySeconds
			}
		default:
			return
		}
	}
}

// update advances the engine and effects by one frame.
func (c *Client) update(now time.Time) {
	dt := c.state.delta.Seconds()

	if c.state.GameState == GameStateShutdown {
		c.state.shutdownTimer -= dt
		if c.state.shutdownTimer <= 0 {
			c.state.Running = false
		}
	}

	c.sched.Fire(now)
	if c.engine != nil {
		for _, ev := range c.engine.DrainEvents() {
			c.applyEvent(ev)
		}
	}

	if err := c.particles.Update(c.state.delta); err != nil {
		c.logger.Debug("update particles", zap.Error(err))
	}
	if err := c.labels.Update(c.state.delta); err != nil {
		c.logger.Debug("update labels", zap.Error(err))
	}
	c.state.missFlash = math.Max(0, c.state.missFlash-dt)
	c.state.levelBanner = math.Max(0, c.state.levelBanner-dt)
}

// applyEvent turns engine events into effects.
func (c *Client) applyEvent(ev catch.Event) {
	v := c.engine.Variant()
	switch ev.Type {
	case catch.EventCatch:
		ink := object.KindInk(ev.Object.Kind)
		object.SpawnBurst(ev.Object.X, v.CatchTop, config.CatchBurstParticles, 60, 0.5, ink, &c.particles)
		label := fmt.Sprintf("+%d", ev.Object.Points)
		c.labels.Spawn(object.NewFloatingText(ev.Object.X, v.CatchTop-10, label, draw.ColorBrightYellow, config.ScorePopupSeconds))
	case catch.EventMiss:
		object.SpawnSplash(ev.Object.X, v.Field.Height-1, config.MissSplashParticles, object.KindInk(ev.Object.Kind), &c.particles)
		c.state.missFlash = config.MissFlashSeconds
	case catch.EventLevelUp:
		c.state.level = ev.Level
		c.state.levelBanner = config.LevelBannerSeconds
	case catch.EventGameOver:
		snap := c.engine.Snapshot()
		object.SpawnBurst(snap.PlayerX, v.CatchTop, 30, 90, 1.0, draw.InkRed, &c.particles)
	}
}

// currentField is the play field of the active variant.
func (c *Client) currentField() catch.Field {
	if c.engine != nil {
		return c.engine.Variant().Field
	}
	if v, ok := c.tuning.Variant(c.state.Variant); ok {
		return v.Field
	}
	return c.tuning.Star.Field
}

// updateScreen handles terminal resize and variant field changes. On actual
// changes it clears the terminal to remove residual pixels outside the new
// canvas area.
func (c *Client) updateScreen() {
	termWidth, termHeight, err := c.termSizeFunc()
	if err != nil {
		return
	}
	field := c.currentField()
	renderWidth, renderHeight, offsetCol, offsetRow := layout(termWidth, termHeight, field)

	if field.Width != c.canvas.LogicalWidth() || field.Height != c.canvas.LogicalHeight() {
		c.canvas = draw.NewScaledCanvas(renderWidth, renderHeight, field.Width, field.Height)
		draw.ClearScreen(c.chunkWriter)
	} else if renderWidth != c.canvas.TerminalWidth() || renderHeight != c.canvas.TerminalHeight() ||
		offsetCol != c.canvas.OffsetCol() || offsetRow != c.canvas.OffsetRow() {
		draw.ClearScreen(c.chunkWriter)
		c.canvas.ForceRedraw()
	}

	c.canvas.Resize(renderWidth, renderHeight)
	c.canvas.SetOffset(offsetCol, offsetRow)
	c.chunkWriter.SetOffset(offsetCol, offsetRow)
}

// layout fits the field into the terminal, clamped to the max render
// resolution and centered. A cell holds two square sub-pixels stacked, so
// the area keeps the field's aspect ratio. The result is never empty.
func layout(termWidth, termHeight int, field catch.Field) (renderWidth, renderHeight, offsetCol, offsetRow int) {
	maxWidth := max(1, min(termWidth, config.MaxTermWidth))
	maxHeight := max(1, min(termHeight, config.MaxTermHeight))

	renderHeight = maxHeight
	renderWidth = int(math.Round(float64(renderHeight) * 2 * field.Width / field.Height))
	if renderWidth > maxWidth {
		renderWidth = maxWidth
		renderHeight = int(math.Round(float64(renderWidth) * field.Height / (2 * field.Width)))
	}
	renderWidth = max(1, renderWidth)
	renderHeight = max(1, renderHeight)

	offsetCol = max(0, (termWidth-renderWidth)/2)
	offsetRow = max(0, (termHeight-renderHeight)/2)
	return
}
