package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/tomz197/starcatch/internal/config"
	"github.com/tomz197/starcatch/internal/logging"
	"github.com/tomz197/starcatch/internal/loop"
	"github.com/tomz197/starcatch/internal/loop/server"
	"github.com/tomz197/starcatch/internal/store"
)

func main() {
	path := flag.String("path", "", `page to open: "" for the title, "space", "stars" or any missing path`)
	name := flag.String("name", os.Getenv("USER"), "name on the leaderboard")
	flag.Parse()

	os.Exit(run(*path, *name))
}

// run plays one local session and returns the process exit code. Deferred
// cleanup (terminal, store, logger) always runs before main exits.
func run(path, name string) int {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
		return 1
	}

	// Raw mode owns the terminal, so logs go to a file or nowhere.
	logCfg := logging.FromEnv()
	logger := zap.NewNop()
	if logPath := config.GetEnv("LOG_FILE", ""); logPath != "" {
		logCfg.OutputPaths = []string{logPath}
		logger = logging.Must(logCfg)
	}
	defer func() { _ = logger.Sync() }()

	tuning, err := config.LoadTuning(config.GetEnv("STARCATCH_TUNING", ""))
	if err != nil {
		fmt.Fprintf(os.Stderr, "load tuning: %v\n", err)
		return 1
	}

	var scores server.Scores
	if dbPath := config.GetEnv("STARCATCH_DB", ""); dbPath != "" {
		st, err := store.Open(context.Background(), dbPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "open score store: %v\n", err)
			return 1
		}
		defer st.Close()
		scores = st
	}

	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to enable raw mode: %v\n", err)
		logger.Error("enable raw mode", zap.Error(err))
		return 1
	}
	restored := false
	restore := func() {
		if !restored {
			_ = term.Restore(fd, oldState)
			restored = true
		}
	}
	defer restore()

	reader := bufio.NewReader(os.Stdin)
	err = loop.Run(reader, os.Stdout, loop.Options{
		Username: name,
		Command:  path,
		Tuning:   &tuning,
		Scores:   scores,
		Logger:   logger,
	})
	if err != nil {
		restore()
		fmt.Fprintf(os.Stderr, "game error: %v\n", err)
		logger.Error("game error", zap.Error(err))
		return 1
	}
	return 0
}
