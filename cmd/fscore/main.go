package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/quantmind-br/fscore/internal/cmd"
	"github.com/quantmind-br/fscore/internal/config"
	"github.com/quantmind-br/fscore/internal/logging"
	"github.com/quantmind-br/fscore/internal/score"
	"github.com/quantmind-br/fscore/internal/ui"
)

var version = "dev"

// Exit codes: 0 full success (or any success in quiet mode), 1 partial
// or total failure, 130 interrupted.
const (
	exitFailure     = 1
	exitInterrupted = 130
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		return exitFailure
	}

	// Initialize logger
	log := logging.NewLogger(logging.Config{
		Level:   cfg.Logging.Level,
		LogFile: cfg.Paths.LogFile,
		NoColor: cfg.Logging.Color == "never",
	})
	if cfg.Logging.Color == "never" {
		os.Setenv("NO_COLOR", "1")
	}
	ui.InitColors()

	// Execute root command
	rootCmd := cmd.NewRootCmd(cfg, log, version)
	err = rootCmd.ExecuteContext(ctx)
	switch {
	case err == nil:
		return 0
	case errors.Is(err, cmd.ErrInterrupted):
		return exitInterrupted
	case errors.Is(err, cmd.ErrNoFiles), errors.Is(err, cmd.ErrIncomplete), errors.Is(err, score.ErrInvalidInput):
		// Notices were already printed by the command.
		return exitFailure
	default:
		log.Error().Err(err).Msg("command failed")
		return exitFailure
	}
}
