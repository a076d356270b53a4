package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/activeterm"
	"github.com/charmbracelet/wish/logging"
	"go.uber.org/zap"

	"github.com/tomz197/starcatch/internal/config"
	"github.com/tomz197/starcatch/internal/draw"
	applog "github.com/tomz197/starcatch/internal/logging"
	"github.com/tomz197/starcatch/internal/loop/client"
	"github.com/tomz197/starcatch/internal/loop/server"
	"github.com/tomz197/starcatch/internal/store"
)

const (
	defaultHost        = "::"
	defaultPort        = "2222"
	defaultHostKeyPath = "/app/keys/host_key"
	defaultDBPath      = "/app/data/scores.db"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
		os.Exit(1)
	}

	logger := applog.Must(applog.FromEnv())
	defer func() { _ = logger.Sync() }()

	if err := run(logger); err != nil {
		logger.Fatal("ssh server", zap.Error(err))
	}
}

func run(logger *zap.Logger) error {
	host := config.GetEnv("SSH_HOST", defaultHost)
	port := config.GetEnv("SSH_PORT", defaultPort)
	hostKeyPath := config.GetEnv("SSH_HOST_KEY", defaultHostKeyPath)
	dbPath := config.GetEnv("STARCATCH_DB", defaultDBPath)
	logger.Info("ssh config",
		zap.String("host", host),
		zap.String("port", port),
		zap.String("host_key", hostKeyPath),
		zap.String("db", dbPath))

	tuning, err := config.LoadTuning(config.GetEnv("STARCATCH_TUNING", ""))
	if err != nil {
		return fmt.Errorf("load tuning: %w", err)
	}

	st, err := store.Open(context.Background(), dbPath)
	if err != nil {
		return fmt.Errorf("open score store: %w", err)
	}
	defer st.Close()

	// Shared scoreboard hub for every SSH session
	hub, err := server.NewServer(server.Options{Scores: st, Logger: logger})
	if err != nil {
		return err
	}
	hubCtx, cancelHub := context.WithCancel(context.Background())
	hubDone := make(chan struct{})
	go func() {
		defer close(hubDone)
		hub.Run(hubCtx)
	}()
	logger.Info("scoreboard hub started")

	sessions := &sessionHandler{hub: hub, tuning: &tuning, logger: logger}
	opts := []ssh.Option{
		wish.WithAddress(net.JoinHostPort(host, port)),
		wish.WithMiddleware(
			sessions.middleware,
			activeterm.Middleware(),
			logging.Middleware(),
		),
		// Set TCP_NODELAY to reduce latency for game input
		ssh.WrapConn(func(ctx ssh.Context, conn net.Conn) net.Conn {
			if tcpConn, ok := conn.(*net.TCPConn); ok {
				_ = tcpConn.SetNoDelay(true)
			}
			return conn
		}),
	}
	if hostKeyPath != "" {
		opts = append(opts, wish.WithHostKeyPath(hostKeyPath))
	}

	s, err := wish.NewServer(opts...)
	if err != nil {
		cancelHub()
		<-hubDone
		return fmt.Errorf("create server: %w", err)
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	serveErr := make(chan error, 1)
	logger.Info("starting ssh server", zap.String("addr", net.JoinHostPort(host, port)))
	go func() {
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case <-done:
	case err := <-serveErr:
		logger.Error("serve", zap.Error(err))
	}
	logger.Info("shutting down server")

	// Notify players and wait for them to disconnect
	hub.Shutdown(15 * time.Second)

	// Stop accepting sessions before the hub goes away
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	shutdownErr := s.Shutdown(ctx)

	// Flush pending scores
	cancelHub()
	<-hubDone
	logger.Info("scoreboard hub stopped")

	if shutdownErr != nil {
		return fmt.Errorf("shutdown: %w", shutdownErr)
	}
	return nil
}

// sessionHandler runs one game client per SSH session.
type sessionHandler struct {
	hub    *server.Server
	tuning *config.Tuning
	logger *zap.Logger
}

// middleware handles SSH sessions and runs the game client.
func (h *sessionHandler) middleware(next ssh.Handler) ssh.Handler {
	return func(sess ssh.Session) {
		pty, winCh, ok := sess.Pty()
		if !ok {
			fmt.Fprintln(sess, "Error: PTY required. Please connect with: ssh -t user@host")
			return
		}

		command := strings.Join(sess.Command(), " ")
		logger := h.logger.With(zap.String("user", sess.User()), zap.String("remote", sess.RemoteAddr().String()))
		logger.Info("new game session",
			zap.String("terminal", pty.Term),
			zap.String("command", command),
			zap.Int("width", pty.Window.Width),
			zap.Int("height", pty.Window.Height))

		// Create a terminal size tracker that updates on window changes
		sizeTracker := newSizeTracker(pty.Window.Width, pty.Window.Height)
		go func() {
			for win := range winCh {
				sizeTracker.update(win.Width, win.Height)
			}
		}()

		c := client.NewClient(h.hub, bufio.NewReader(sess), sess, client.ClientOptions{
			TermSizeFunc: sizeTracker.getSize,
			Username:     sess.User(),
			Command:      command,
			Tuning:       h.tuning,
			Logger:       h.logger,
		})
		if err := c.Run(); err != nil {
			logger.Warn("game error", zap.Error(err))
		}

		logger.Info("session ended")
		next(sess)
	}
}

// sizeTracker tracks terminal size from SSH window change events.
type sizeTracker struct {
	mu     sync.RWMutex
	width  int
	height int
}

func newSizeTracker(width, height int) *sizeTracker {
	return &sizeTracker{width: width, height: height}
}

func (s *sizeTracker) update(width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.width = width
	s.height = height
}

func (s *sizeTracker) getSize() (int, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.width, s.height, nil
}

// Ensure sizeTracker.getSize satisfies draw.TermSizeFunc
var _ draw.TermSizeFunc = (*sizeTracker)(nil).getSize
