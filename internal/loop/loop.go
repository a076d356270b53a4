// Package loop runs a single local session: a private scoreboard hub and
// one client on the current terminal.
package loop

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/tomz197/starcatch/internal/config"
	"github.com/tomz197/starcatch/internal/draw"
	"github.com/tomz197/starcatch/internal/loop/client"
	"github.com/tomz197/starcatch/internal/loop/server"
)

// Options configures a local session.
type Options struct {
	Username     string
	Command      string         // Path to open, see client.ResolveCommand
	Tuning       *config.Tuning // Nil uses the built-in variants
	Scores       server.Scores  // Nil keeps scores in memory only
	Logger       *zap.Logger
	TermSizeFunc draw.TermSizeFunc
}

// Run starts the hub, runs one client on r and w until it quits, then stops
// the hub and waits for pending score writes.
func Run(r *bufio.Reader, w io.Writer, opts Options) error {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	hub, err := server.NewServer(server.Options{Scores: opts.Scores, Logger: logger})
	if err != nil {
		return fmt.Errorf("create hub: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		hub.Run(ctx)
	}()
	defer func() {
		cancel()
		<-done
	}()

	c := client.NewClient(hub, r, w, client.ClientOptions{
		TermSizeFunc: opts.TermSizeFunc,
		Username:     opts.Username,
		Command:      opts.Command,
		Tuning:       opts.Tuning,
		Logger:       logger,
	})
	if err := c.Run(); err != nil {
		return fmt.Errorf("run client: %w", err)
	}
	return nil
}
