package server

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/tomz197/starcatch/internal/catch"
	"github.com/tomz197/starcatch/internal/store"
)

type fakeScores struct {
	mu      sync.Mutex
	saved   []store.Score
	top     map[string][]store.Score
	saveErr error
}

func (f *fakeScores) SaveScore(_ context.Context, sc store.Score) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, sc)
	return nil
}

func (f *fakeScores) TopScores(_ context.Context, variant string, limit int) ([]store.Score, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	top := f.top[variant]
	if len(top) > limit {
		top = top[:limit]
	}
	return top, nil
}

func (f *fakeScores) savedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.saved)
}

func newTestServer(t *testing.T, scores Scores) (*Server, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	s, err := NewServer(Options{Scores: scores, Logger: zap.New(core)})
	require.NoError(t, err)
	t.Cleanup(s.releasePool)
	return s, logs
}

func TestRegisterAndUnregister(t *testing.T) {
	s, logs := newTestServer(t, nil)

	a := s.RegisterClient("ada", catch.VariantStar)
	b := s.RegisterClient("", catch.VariantSpace)
	assert.Equal(t, "player-2", b.Username)
	s.tick()

	snap := s.GetSnapshot()
	assert.Equal(t, 2, snap.Players)
	assert.Equal(t, 2, logs.FilterMessage("client registered").Len())

	s.UnregisterClient(a.ID)
	s.tick()
	assert.Equal(t, 1, s.GetSnapshot().Players)

	_, open := <-a.EventsCh
	assert.False(t, open, "events channel closed on unregister")
}

func TestLongUsernameIsTrimmed(t *testing.T) {
	s, _ := newTestServer(t, nil)
	h := s.RegisterClient("a-very-long-username-indeed", catch.VariantStar)
	assert.Equal(t, "a-very-long-user", h.Username)
}

func TestLiveScoresSortedAndResetOnVariantChange(t *testing.T) {
	s, _ := newTestServer(t, nil)
	a := s.RegisterClient("ada", catch.VariantStar)
	b := s.RegisterClient("bob", catch.VariantStar)
	s.tick()

	s.ReportScore(a.ID, 3)
	s.ReportScore(b.ID, 7)
	s.tick()

	live := s.GetSnapshot().Live
	require.Len(t, live, 2)
	assert.Equal(t, "bob", live[0].Username)
	assert.Equal(t, 7, live[0].Score)

	s.SetVariant(b.ID, catch.VariantSpace)
	s.tick()
	live = s.GetSnapshot().Live
	assert.Equal(t, "ada", live[0].Username)
	assert.Equal(t, catch.VariantSpace, live[1].Variant)
	assert.Zero(t, live[1].Score)
}

func TestResultBeforeLeavingIsKept(t *testing.T) {
	s, _ := newTestServer(t, nil)
	h := s.RegisterClient("ada", catch.VariantStar)
	s.tick()

	s.SubmitResult(h.ID, catch.Result{Variant: catch.VariantStar, Score: 4, Level: 1, Missed: 5})
	s.UnregisterClient(h.ID)
	s.tick()

	top := s.GetSnapshot().Top(catch.VariantStar)
	require.Len(t, top, 1)
	assert.Equal(t, "ada", top[0].Username)
	assert.Zero(t, s.GetSnapshot().Players)
}

func TestUpdatesForUnknownClientsAreIgnored(t *testing.T) {
	s, _ := newTestServer(t, nil)
	s.ReportScore(99, 5)
	s.SubmitResult(99, catch.Result{Variant: catch.VariantStar, Score: 5})
	assert.NotPanics(t, s.tick)
	assert.Empty(t, s.GetSnapshot().Top(catch.VariantStar))
}

func TestSubmitResultRanksAndPersists(t *testing.T) {
	scores := &fakeScores{}
	s, _ := newTestServer(t, scores)
	h := s.RegisterClient("ada", catch.VariantSpace)
	s.tick()

	s.ReportScore(h.ID, 40)
	s.SubmitResult(h.ID, catch.Result{Variant: catch.VariantSpace, Score: 40, Level: 1})
	s.tick()

	ev := <-h.EventsCh
	assert.Equal(t, ClientEvent{Type: EventHighScore, Rank: 1, Score: 40}, ev)

	top := s.GetSnapshot().Top(catch.VariantSpace)
	require.Len(t, top, 1)
	assert.Equal(t, TopScoreEntry{Username: "ada", Score: 40, Level: 1}, top[0])
	assert.Zero(t, s.GetSnapshot().Live[0].Score, "running score resets after a result")

	require.Eventually(t, func() bool { return scores.savedCount() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "ada", scores.saved[0].Player)
	assert.Equal(t, 40, scores.saved[0].Points)
}

func TestZeroScoreIsNotRanked(t *testing.T) {
	s, _ := newTestServer(t, nil)
	h := s.RegisterClient("ada", catch.VariantStar)
	s.tick()
	s.SubmitResult(h.ID, catch.Result{Variant: catch.VariantStar, Missed: 5})
	s.tick()

	assert.Empty(t, s.GetSnapshot().Top(catch.VariantStar))
	select {
	case ev := <-h.EventsCh:
		t.Fatalf("unexpected event %+v", ev)
	default:
	}
}

func TestFailedSaveIsLogged(t *testing.T) {
	scores := &fakeScores{saveErr: errors.New("disk full")}
	s, logs := newTestServer(t, scores)
	h := s.RegisterClient("ada", catch.VariantStar)
	s.tick()
	s.SubmitResult(h.ID, catch.Result{Variant: catch.VariantStar, Score: 3})
	s.tick()

	require.Eventually(t, func() bool {
		return logs.FilterMessage("save score").Len() == 1
	}, time.Second, 5*time.Millisecond)
}

func TestRunSeedsLeaderboardAndStops(t *testing.T) {
	scores := &fakeScores{top: map[string][]store.Score{
		catch.VariantStar: {
			{Player: "old", Points: 9, Level: 1},
			{Player: "older", Points: 4, Level: 1},
		},
	}}
	s, _ := newTestServer(t, scores)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return len(s.GetSnapshot().Top(catch.VariantStar)) == 2
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, "old", s.GetSnapshot().Top(catch.VariantStar)[0].Username)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestStoppedHubNeverBlocksClients(t *testing.T) {
	s, logs := newTestServer(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.Run(ctx)

	finished := make(chan struct{})
	go func() {
		defer close(finished)
		h := s.RegisterClient("late", catch.VariantStar)
		_, open := <-h.EventsCh
		assert.False(t, open, "late client is told the hub is gone")
		for i := 0; i < cap(s.updateCh)+10; i++ {
			s.SubmitResult(h.ID, catch.Result{Variant: catch.VariantStar, Score: i})
		}
		for i := 0; i < cap(s.unregisterCh)+10; i++ {
			s.UnregisterClient(h.ID)
		}
	}()

	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("client blocked on a stopped hub")
	}
	assert.Positive(t, logs.FilterMessage("result after hub stopped").Len())
}

func TestShutdownNotifiesClients(t *testing.T) {
	s, _ := newTestServer(t, nil)
	h := s.RegisterClient("ada", catch.VariantStar)
	s.tick()

	go func() {
		ev := <-h.EventsCh
		if ev.Type == EventServerShutdown {
			s.UnregisterClient(h.ID)
			s.tick()
		}
	}()

	start := time.Now()
	s.Shutdown(5 * time.Second)
	assert.Less(t, time.Since(start), 2*time.Second, "returns once every client left")
}

func TestShutdownTimesOut(t *testing.T) {
	s, _ := newTestServer(t, nil)
	s.RegisterClient("ada", catch.VariantStar)
	s.tick()

	start := time.Now()
	s.Shutdown(300 * time.Millisecond)
	assert.GreaterOrEqual(t, time.Since(start), 300*time.Millisecond)
}

func TestLeaderboardInsert(t *testing.T) {
	b := newLeaderboard(3)
	assert.Equal(t, 1, b.insert("v", TopScoreEntry{Username: "a", Score: 10}))
	assert.Equal(t, 1, b.insert("v", TopScoreEntry{Username: "b", Score: 20}))
	assert.Equal(t, 3, b.insert("v", TopScoreEntry{Username: "c", Score: 10}), "ties rank after existing")
	assert.Equal(t, 0, b.insert("v", TopScoreEntry{Username: "d", Score: 5}))
	assert.Equal(t, 2, b.insert("v", TopScoreEntry{Username: "e", Score: 15}))

	names := []string{}
	for _, e := range b.copyOut()["v"] {
		names = append(names, e.Username)
	}
	assert.Equal(t, []string{"b", "e", "a"}, names)
}
