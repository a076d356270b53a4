package client

import (
	"bufio"
	"bytes"
	"math/rand/v2"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomz197/starcatch/internal/catch"
	"github.com/tomz197/starcatch/internal/input"
	"github.com/tomz197/starcatch/internal/loop/server"
)

// fakeServer records what a session reports.
type fakeServer struct {
	mu       sync.Mutex
	handle   *server.ClientHandle
	variants []string
	scores   []int
	results  []catch.Result
	snapshot *server.Snapshot
	gone     bool
}

func newFakeServer() *fakeServer {
	return &fakeServer{snapshot: &server.Snapshot{
		Players: 1,
		TopScores: map[string][]server.TopScoreEntry{
			catch.VariantStar: {{Username: "ada", Score: 12, Level: 2}},
		},
	}}
}

func (f *fakeServer) RegisterClient(username, variant string) *server.ClientHandle {
	f.handle = &server.ClientHandle{ID: 1, Username: username, Variant: variant, EventsCh: make(chan server.ClientEvent, 4)}
	return f.handle
}

func (f *fakeServer) UnregisterClient(int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gone = true
}

func (f *fakeServer) SetVariant(_ int, variant string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.variants = append(f.variants, variant)
}

func (f *fakeServer) ReportScore(_ int, score int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scores = append(f.scores, score)
}

func (f *fakeServer) SubmitResult(_ int, result catch.Result) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results = append(f.results, result)
}

func (f *fakeServer) GetSnapshot() *server.Snapshot { return f.snapshot }

func newTestClient(t *testing.T, command string) (*Client, *fakeServer, *bytes.Buffer) {
	t.Helper()
	fs := newFakeServer()
	var out bytes.Buffer
	c := NewClient(fs, bufio.NewReader(strings.NewReader("")), &out, ClientOptions{
		TermSizeFunc: func() (int, int, error) { return 80, 24, nil },
		Username:     "tester",
		Command:      command,
		Rand:         rand.New(rand.NewPCG(1, 2)),
	})
	return c, fs, &out
}

func TestResolveCommand(t *testing.T) {
	tests := []struct {
		cmd  string
		want Route
	}{
		{"", Route{}},
		{"/", Route{}},
		{"space", Route{Variant: catch.VariantSpace}},
		{"/SPACE", Route{Variant: catch.VariantSpace}},
		{"stars", Route{Variant: catch.VariantStar}},
		{"blog/post-1", Route{Variant: catch.VariantStar, NotFound: "/blog/post-1"}},
	}
	for _, tt := range tests {
		t.Run(tt.cmd, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveCommand(tt.cmd))
		})
	}
}

func TestLayoutKeepsFieldAspect(t *testing.T) {
	field := catch.Field{Width: 300, Height: 400}
	tests := []struct {
		name                 string
		termW, termH         int
		w, h, offCol, offRow int
	}{
		{"standard", 80, 24, 36, 24, 22, 0},
		{"clamped", 200, 60, 75, 50, 62, 5},
		{"narrow", 30, 50, 30, 20, 0, 15},
		{"empty", 0, 0, 1, 1, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h, offCol, offRow := layout(tt.termW, tt.termH, field)
			assert.Equal(t, []int{tt.w, tt.h, tt.offCol, tt.offRow}, []int{w, h, offCol, offRow})
		})
	}
}

func TestNewClientStartsOnTitle(t *testing.T) {
	c, fs, _ := newTestClient(t, "")
	assert.Equal(t, GameStateTitle, c.State().GameState)
	assert.Nil(t, c.engine)
	assert.Equal(t, catch.VariantStar, fs.handle.Variant)
}

func TestCommandStartsGame(t *testing.T) {
	c, fs, _ := newTestClient(t, "space")
	assert.Equal(t, GameStatePlaying, c.State().GameState)
	assert.Equal(t, catch.VariantSpace, c.engine.Variant().Name)
	assert.Equal(t, []string{catch.VariantSpace}, fs.variants)
}

func TestUnknownCommandShowsNotFound(t *testing.T) {
	c, _, _ := newTestClient(t, "missing")
	assert.Equal(t, GameStatePlaying, c.State().GameState)
	assert.Equal(t, catch.VariantStar, c.State().Variant)
	assert.Equal(t, "/missing", c.State().NotFound)
}

func TestTitleStartAndEscapeClose(t *testing.T) {
	c, _, _ := newTestClient(t, "")
	now := time.Now()

	c.handleInput(input.Input{Space: true, Pressed: []byte{' '}}, now)
	require.Equal(t, GameStatePlaying, c.State().GameState)
	assert.Equal(t, catch.StateActive, c.engine.State())

	c.handleInput(input.Input{Escape: true, Pressed: []byte{27}}, now)
	assert.Equal(t, GameStateTitle, c.State().GameState)
	assert.Equal(t, catch.StateInactive, c.engine.State())
}

func TestSecretSequenceSwitchesToSpace(t *testing.T) {
	c, fs, _ := newTestClient(t, "")
	c.handleInput(input.Input{Keys: input.Konami(), Pressed: []byte{'a'}}, time.Now())

	assert.Equal(t, GameStatePlaying, c.State().GameState)
	assert.Equal(t, catch.VariantSpace, c.engine.Variant().Name)
	assert.Equal(t, []string{catch.VariantSpace}, fs.variants)
}

func TestTypedStarsSwitchesToSpace(t *testing.T) {
	c, _, _ := newTestClient(t, "stars")
	c.handleInput(input.Input{Keys: input.Runes("stars"), Pressed: []byte("stars")}, time.Now())
	assert.Equal(t, catch.VariantSpace, c.State().Variant)
}

func TestGameOverAndRestart(t *testing.T) {
	c, fs, _ := newTestClient(t, "stars")
	now := time.Now()

	c.ReportScore(3)
	result := catch.Result{Variant: catch.VariantStar, Score: 3, Level: 1, Missed: 5}
	c.ReportGameOver(result)
	assert.Equal(t, GameStateGameOver, c.State().GameState)
	assert.Equal(t, []catch.Result{result}, fs.results)

	fs.handle.EventsCh <- server.ClientEvent{Type: server.EventHighScore, Rank: 2, Score: 3}
	c.processServerEvents()
	assert.Equal(t, 2, c.State().Rank)

	c.handleInput(input.Input{Restart: true, Pressed: []byte{'r'}}, now)
	assert.Equal(t, GameStatePlaying, c.State().GameState)
	assert.Zero(t, c.State().Score)
	assert.Nil(t, c.State().Result)
	assert.Equal(t, 0, fs.scores[len(fs.scores)-1])
}

func TestMousePointerMovesPaddle(t *testing.T) {
	c, _, _ := newTestClient(t, "stars")
	c.updateScreen()

	left, width := c.canvas.Span()
	col := int(left + width) // right edge of the render area
	c.handleInput(input.Input{Mouse: &input.Mouse{Col: col, Button: 3, Motion: true}, Pressed: []byte{27}}, time.Now())

	_, hi := c.engine.Variant().PlayerBounds()
	assert.InDelta(t, hi, c.engine.Snapshot().PlayerX, 1e-9)
}

func TestSplitMouseReportKeepsGameRunning(t *testing.T) {
	fs := newFakeServer()
	var out bytes.Buffer
	c := NewClient(fs, bufio.NewReader(strings.NewReader("\x1b[<35;1")), &out, ClientOptions{
		TermSizeFunc: func() (int, int, error) { return 80, 24, nil },
		Command:      "space",
		Rand:         rand.New(rand.NewPCG(1, 2)),
	})
	require.Equal(t, GameStatePlaying, c.State().GameState)

	deadline := time.Now().Add(2 * time.Second)
	for !c.inputStream.Closed() {
		require.True(t, time.Now().Before(deadline), "input never closed")
		c.processInput(time.Now())
	}

	assert.Equal(t, GameStatePlaying, c.State().GameState, "pointer motion must not close the game")
	assert.Equal(t, catch.StateActive, c.engine.State())
}

func TestHeldArrowNudgesPaddle(t *testing.T) {
	c, _, _ := newTestClient(t, "stars")
	start := c.engine.Snapshot().PlayerX
	c.state.delta = 100 * time.Millisecond
	c.handleInput(input.Input{Left: true, Pressed: []byte{'a'}}, time.Now())
	assert.Less(t, c.engine.Snapshot().PlayerX, start)
}

func TestInactivity(t *testing.T) {
	c, _, _ := newTestClient(t, "")
	start := c.lastInput

	c.handleInput(input.Input{}, start.Add(95*time.Second))
	assert.True(t, c.State().isInactive)
	assert.True(t, c.State().Running)

	c.handleInput(input.Input{Pressed: []byte{'x'}}, start.Add(96*time.Second))
	assert.False(t, c.State().isInactive)

	c.handleInput(input.Input{}, start.Add(300*time.Second))
	assert.False(t, c.State().Running)
}

func TestQuitStopsSession(t *testing.T) {
	c, _, _ := newTestClient(t, "stars")
	c.handleInput(input.Input{Quit: true, Pressed: []byte{'q'}}, time.Now())
	assert.False(t, c.State().Running)
}

func TestShutdownEvent(t *testing.T) {
	c, fs, _ := newTestClient(t, "stars")
	fs.handle.EventsCh <- server.ClientEvent{Type: server.EventServerShutdown}
	c.processServerEvents()

	assert.Equal(t, GameStateShutdown, c.State().GameState)
	assert.Equal(t, catch.StateInactive, c.engine.State())

	close(fs.handle.EventsCh)
	c.processServerEvents()
	assert.False(t, c.State().Running)
}

func TestEventsSpawnEffects(t *testing.T) {
	c, _, _ := newTestClient(t, "stars")
	obj := catch.FallingObject{X: 100, Y: 370, Kind: catch.KindStar, Points: 1}

	c.applyEvent(catch.Event{Type: catch.EventCatch, Object: obj, Score: 1, Level: 1})
	assert.Positive(t, c.particles.Len())
	assert.Equal(t, 1, c.labels.Len())

	c.applyEvent(catch.Event{Type: catch.EventMiss, Object: obj})
	assert.Positive(t, c.State().missFlash)

	c.applyEvent(catch.Event{Type: catch.EventLevelUp, Score: 10, Level: 2})
	assert.Equal(t, 2, c.State().level)
	assert.Positive(t, c.State().levelBanner)
}

func TestDrawFrameScreens(t *testing.T) {
	c, _, out := newTestClient(t, "")
	c.updateScreen()

	require.NoError(t, c.drawFrame())
	assert.Contains(t, out.String(), "S T A R  C A T C H")
	assert.Contains(t, out.String(), "ada")

	out.Reset()
	c.handleInput(input.Input{Enter: true, Pressed: []byte{'\r'}}, time.Now())
	require.NoError(t, c.drawFrame())
	assert.Contains(t, out.String(), "Score: 0")
	assert.Contains(t, out.String(), "Missed: 0/5")
	assert.Contains(t, out.String(), "Best: 12")

	out.Reset()
	c.ReportGameOver(catch.Result{Variant: catch.VariantStar, Score: 0, Level: 1, Missed: 5})
	require.NoError(t, c.drawFrame())
	assert.Contains(t, out.String(), "G A M E   O V E R")
}

func TestRunEndsOnClosedInput(t *testing.T) {
	c, fs, out := newTestClient(t, "stars")

	done := make(chan error, 1)
	go func() { done <- c.Run() }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("client did not stop after input closed")
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()
	assert.True(t, fs.gone)
	assert.Contains(t, out.String(), "\033[?1003h")
	assert.Contains(t, out.String(), "\033[?1003l")
}
