// Package commands implements the bayeslite subcommands.
package commands

import (
	"context"
	"io"
	"log/slog"

	"github.com/aiyi2099/bayeslite/internal/config"
)

type configKey struct{}

type loggerKey struct{}

// WithConfig stores the loaded configuration in the command context.
func WithConfig(ctx context.Context, cfg *config.Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// ConfigFromContext retrieves the configuration, falling back to the
// defaults when the root command did not load one.
func ConfigFromContext(ctx context.Context) *config.Config {
	if cfg, ok := ctx.Value(configKey{}).(*config.Config); ok {
		return cfg
	}
	return &config.Config{
		StatePath: config.DefaultStateFile,
		Output:    config.DefaultOutput,
	}
}

// WithLogger stores the logger in the command context.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// LoggerFromContext retrieves the logger, falling back to a discarding
// logger.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
