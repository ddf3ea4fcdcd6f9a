// Package cli defines the command-line interface for kerf.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	envparse "github.com/caarlos0/env/v11"
	"github.com/spf13/cobra"

	"github.com/chazu/kerf/pkg/logging"
)

// baseEnv defines root CLI defaults sourced from KERF_* env vars.
type baseEnv struct {
	LogLevel string `env:"KERF_LOG_LEVEL"`
}

// Execute builds the root command, runs it with the provided args and
// logger, and returns any error.
func Execute(args []string, logger *slog.Logger) error {
	if logger == nil {
		logger = logging.New(os.Stderr, slog.LevelInfo)
	}

	rootCmd, err := newRootCommand(logger)
	if err != nil {
		return err
	}
	rootCmd.SetArgs(args)

	return rootCmd.Execute()
}

// newRootCommand constructs the root cobra.Command with global flags and
// subcommands.
func newRootCommand(logger *slog.Logger) (*cobra.Command, error) {
	var defaults baseEnv
	if err := envparse.Parse(&defaults); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if defaults.LogLevel == "" {
		defaults.LogLevel = "info"
	}

	cmd := &cobra.Command{
		Use:   "kerf",
		Short: "kerf is a parametric CAD rebuild engine",
		Long:  "kerf evaluates a feature timeline (sketches, sweeps, booleans, dress-ups) from a studio YAML document into solid geometry and meshes.",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			level := logging.ParseLevel(cmd.Flag("log-level").Value.String())
			logger = logging.New(os.Stderr, level)
			cmd.SetContext(context.WithValue(cmd.Context(), loggerKey{}, logger))
			logger.Debug("logger initialized", "level", level)
			return nil
		},
	}

	cmd.PersistentFlags().String("log-level", defaults.LogLevel, "Log level (debug, info, warn, error)")

	cmd.AddCommand(
		newRebuildCommand(),
		newOrderCommand(),
		newWatchCommand(),
	)

	return cmd, nil
}

// loggerKey is a private context key used to store a logger in command
// contexts.
type loggerKey struct{}

// loggerFromContext extracts a logger from the context or falls back to a
// default logger.
func loggerFromContext(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return logging.New(os.Stderr, slog.LevelInfo)
	}
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok && l != nil {
		return l
	}
	return logging.New(os.Stderr, slog.LevelInfo)
}
