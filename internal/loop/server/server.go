package server

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/tomz197/starcatch/internal/catch"
	"github.com/tomz197/starcatch/internal/loop/config"
	"github.com/tomz197/starcatch/internal/store"
)

// GameServer is the interface clients use to talk to the hub. It decouples
// the Client from the concrete Server so sessions can be tested alone.
type GameServer interface {
	RegisterClient(username, variant string) *ClientHandle
	UnregisterClient(clientID int)
	SetVariant(clientID int, variant string)
	ReportScore(clientID int, score int)
	SubmitResult(clientID int, result catch.Result)
	GetSnapshot() *Snapshot
}

// Scores is the persistence the hub needs. *store.Store implements it.
type Scores interface {
	SaveScore(ctx context.Context, sc store.Score) error
	TopScores(ctx context.Context, variant string, limit int) ([]store.Score, error)
}

// Options configures a Server. Every field is optional.
type Options struct {
	Scores Scores
	Logger *zap.Logger
	Now    func() time.Time
}

// Server is the hub shared by every session: it tracks who is playing,
// keeps the leaderboards and hands finished games to the persistence pool.
type Server struct {
	snapshot     atomic.Pointer[Snapshot]
	clients      map[int]*ClientHandle
	nextClientID int
	registerCh   chan *ClientHandle
	unregisterCh chan int
	updateCh     chan clientUpdate
	done         chan struct{} // Closed when Run returns
	mu           sync.RWMutex

	board  *leaderboard
	scores Scores
	pool   *ants.Pool
	logger *zap.Logger
	now    func() time.Time
}

// Compile-time check that Server implements GameServer.
var _ GameServer = (*Server)(nil)

// ClientHandle represents a client's connection to the hub.
type ClientHandle struct {
	ID       int
	Username string
	Variant  string
	Score    int
	EventsCh chan ClientEvent // Events sent to the client
}

// ClientEvent represents an event sent from the hub to a client.
type ClientEvent struct {
	Type  ClientEventType
	Rank  int // 1-based leaderboard position, EventHighScore only
	Score int
}

// ClientEventType identifies the type of client event.
type ClientEventType int

const (
	EventHighScore ClientEventType = iota
	EventServerShutdown
)

type updateKind int

const (
	updateScore updateKind = iota
	updateVariant
	updateResult
)

// clientUpdate carries anything a session reports to the hub.
type clientUpdate struct {
	kind     updateKind
	clientID int
	variant  string
	score    int
	result   catch.Result
}

// NewServer creates a hub. Call Run to start it.
func NewServer(opts Options) (*Server, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	pool, err := ants.NewPool(
		config.PersistWorkers,
		ants.WithNonblocking(true),
		ants.WithPanicHandler(func(p any) {
			logger.Error("persist worker panic", zap.Any("panic", p))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("create persist pool: %w", err)
	}

	s := &Server{
		clients:      make(map[int]*ClientHandle),
		nextClientID: 1,
		registerCh:   make(chan *ClientHandle, 16),
		unregisterCh: make(chan int, 16),
		updateCh:     make(chan clientUpdate, 256),
		done:         make(chan struct{}),
		board:        newLeaderboard(config.TopScoreCount),
		scores:       opts.Scores,
		pool:         pool,
		logger:       logger,
		now:          now,
	}
	s.snapshot.Store(&Snapshot{TopScores: map[string][]TopScoreEntry{}})
	return s, nil
}

// Run starts the hub loop. Blocks until the context is cancelled, then waits
// for pending score writes. Clients that talk to a stopped hub are ignored
// and new registrations get a closed events channel.
func (s *Server) Run(ctx context.Context) {
	s.loadTopScores(ctx)
	s.tick()

	ticker := time.NewTicker(config.ServerTickTime)
	defer ticker.Stop()
	defer s.releasePool()
	defer close(s.done)

	for {
		select {
		case <-ctx.Done():
			s.tick()
			return
		case <-ticker.C:
			s.tick()
		}
	}
}

// tick is one hub step: apply queued messages and publish a snapshot.
func (s *Server) tick() {
	s.processRegistrations()
	s.processUpdates()
	s.processUnregistrations()
	s.createSnapshot()
}

func (s *Server) releasePool() {
	if err := s.pool.ReleaseTimeout(config.PersistTimeout); err != nil {
		s.logger.Warn("persist pool did not drain", zap.Error(err))
	}
}

// loadTopScores seeds the leaderboards from storage.
func (s *Server) loadTopScores(ctx context.Context) {
	if s.scores == nil {
		return
	}
	for _, v := range variants {
		top, err := s.scores.TopScores(ctx, v, config.TopScoreCount)
		if err != nil {
			s.logger.Warn("load top scores", zap.String("variant", v), zap.Error(err))
			continue
		}
		// Stored order is best first, so appending keeps it.
		for _, sc := range top {
			s.board.insert(v, TopScoreEntry{Username: sc.Player, Score: sc.Points, Level: sc.Level})
		}
	}
}

// Shutdown notifies every connected client and waits for them to disconnect,
// up to timeout. The caller should cancel the Run context afterwards.
func (s *Server) Shutdown(timeout time.Duration) {
	s.mu.RLock()
	for _, handle := range s.clients {
		select {
		case handle.EventsCh <- ClientEvent{Type: EventServerShutdown}:
		default:
		}
	}
	s.mu.RUnlock()

	deadline := time.After(timeout)
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-deadline:
			return
		case <-ticker.C:
			s.mu.RLock()
			remaining := len(s.clients)
			s.mu.RUnlock()
			if remaining == 0 {
				return
			}
		}
	}
}

// RegisterClient registers a new client and returns its handle.
func (s *Server) RegisterClient(username, variant string) *ClientHandle {
	s.mu.Lock()
	id := s.nextClientID
	s.nextClientID++
	s.mu.Unlock()

	handle := &ClientHandle{
		ID:       id,
		Username: displayName(username, id),
		Variant:  variant,
		EventsCh: make(chan ClientEvent, 16),
	}

	if s.stopped() {
		close(handle.EventsCh)
		return handle
	}
	select {
	case s.registerCh <- handle:
	case <-s.done:
		close(handle.EventsCh)
	}
	return handle
}

// stopped reports whether Run has returned.
func (s *Server) stopped() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// displayName trims a username to the display limit, naming anonymous
// players by their client ID.
func displayName(username string, id int) string {
	if username == "" {
		return fmt.Sprintf("player-%d", id)
	}
	if utf8.RuneCountInString(username) > config.MaxUsernameLength {
		return string([]rune(username)[:config.MaxUsernameLength])
	}
	return username
}

// UnregisterClient removes a client from the hub.
func (s *Server) UnregisterClient(clientID int) {
	select {
	case s.unregisterCh <- clientID:
	case <-s.done:
	}
}

// SetVariant records which game a client switched to. Its running score
// restarts at zero.
func (s *Server) SetVariant(clientID int, variant string) {
	s.send(clientUpdate{kind: updateVariant, clientID: clientID, variant: variant})
}

// ReportScore updates a client's running score.
func (s *Server) ReportScore(clientID int, score int) {
	s.send(clientUpdate{kind: updateScore, clientID: clientID, score: score})
}

// SubmitResult records a finished game on the leaderboard and persists it.
func (s *Server) SubmitResult(clientID int, result catch.Result) {
	s.send(clientUpdate{kind: updateResult, clientID: clientID, result: result})
}

func (s *Server) send(u clientUpdate) {
	if u.kind == updateResult {
		// Results are rare and must not be lost while the hub runs.
		select {
		case s.updateCh <- u:
		case <-s.done:
			s.logger.Warn("result after hub stopped",
				zap.Int("client_id", u.clientID),
				zap.Int("score", u.result.Score))
		}
		return
	}
	select {
	case s.updateCh <- u:
	default:
		// Update channel full, drop the live score
	}
}

// GetSnapshot returns the current hub snapshot.
func (s *Server) GetSnapshot() *Snapshot {
	return s.snapshot.Load()
}

// processRegistrations adds newly registered clients.
func (s *Server) processRegistrations() {
	for {
		select {
		case handle := <-s.registerCh:
			s.mu.Lock()
			s.clients[handle.ID] = handle
			s.mu.Unlock()
			s.logger.Info("client registered",
				zap.Int("client_id", handle.ID),
				zap.String("user", handle.Username),
				zap.String("variant", handle.Variant))
		default:
			return
		}
	}
}

// processUnregistrations removes clients that left. Updates a client sent
// before leaving are applied first so a final result is never lost.
func (s *Server) processUnregistrations() {
	for {
		select {
		case clientID := <-s.unregisterCh:
			s.processUpdates()
			s.mu.Lock()
			if handle, ok := s.clients[clientID]; ok {
				close(handle.EventsCh)
				delete(s.clients, clientID)
			}
			s.mu.Unlock()
			s.logger.Info("client unregistered", zap.Int("client_id", clientID))
		default:
			return
		}
	}
}

// processUpdates applies queued score, variant and result updates.
func (s *Server) processUpdates() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for {
		select {
		case u := <-s.updateCh:
			handle, ok := s.clients[u.clientID]
			if !ok {
				continue
			}
			switch u.kind {
			case updateScore:
				handle.Score = u.score
			case updateVariant:
				handle.Variant = u.variant
				handle.Score = 0
			case updateResult:
				handle.Score = 0
				s.recordResult(handle, u.result)
			}
		default:
			return
		}
	}
}

// recordResult ranks a finished game and queues it for storage. Must be
// called with the lock held.
func (s *Server) recordResult(handle *ClientHandle, result catch.Result) {
	rank := s.board.insert(result.Variant, TopScoreEntry{
		Username: handle.Username,
		Score:    result.Score,
		Level:    result.Level,
	})
	s.logger.Info("game over",
		zap.Int("client_id", handle.ID),
		zap.String("user", handle.Username),
		zap.String("variant", result.Variant),
		zap.Int("score", result.Score),
		zap.Int("rank", rank))

	if rank > 0 {
		select {
		case handle.EventsCh <- ClientEvent{Type: EventHighScore, Rank: rank, Score: result.Score}:
		default:
		}
	}

	s.persist(store.FromResult(handle.Username, result, s.now()))
}

// persist hands a score to the pool so a slow write never stalls a tick.
func (s *Server) persist(sc store.Score) {
	if s.scores == nil {
		return
	}
	err := s.pool.Submit(func() {
		ctx, cancel := context.WithTimeout(context.Background(), config.PersistTimeout)
		defer cancel()
		if err := s.scores.SaveScore(ctx, sc); err != nil {
			s.logger.Error("save score",
				zap.String("run_id", sc.RunID.String()),
				zap.String("variant", sc.Variant),
				zap.Error(err))
		}
	})
	if err != nil {
		s.logger.Warn("score dropped",
			zap.String("run_id", sc.RunID.String()),
			zap.Int("score", sc.Points),
			zap.Error(err))
	}
}

// createSnapshot publishes an immutable view of the hub.
func (s *Server) createSnapshot() {
	s.mu.RLock()
	live := make([]LiveEntry, 0, len(s.clients))
	for _, h := range s.clients {
		live = append(live, LiveEntry{ClientID: h.ID, Username: h.Username, Variant: h.Variant, Score: h.Score})
	}
	top := s.board.copyOut()
	s.mu.RUnlock()

	sort.Slice(live, func(i, j int) bool {
		if live[i].Score != live[j].Score {
			return live[i].Score > live[j].Score
		}
		return live[i].ClientID < live[j].ClientID
	})

	s.snapshot.Store(&Snapshot{
		Players:   len(live),
		Live:      live,
		TopScores: top,
	})
}
