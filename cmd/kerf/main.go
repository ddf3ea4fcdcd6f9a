package main

import (
	"log/slog"
	"os"

	"github.com/chazu/kerf/internal/cli"
	"github.com/chazu/kerf/pkg/logging"
)

// main is the entry point for the kerf CLI binary.
func main() {
	logger := logging.New(os.Stderr, slog.LevelInfo)
	if err := cli.Execute(os.Args[1:], logger); err != nil {
		logger.Error("command failed", "error", err)
		os.Exit(1)
	}
}
