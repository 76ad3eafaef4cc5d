package finchat

import (
	"log/slog"
	"os"
)

// LoggingConfig configures the agent's logger.
type LoggingConfig struct {
	// Logger overrides the logger used by the agent if provided.
	Logger *slog.Logger

	// Handler is used to build a logger if Logger is nil.
	Handler slog.Handler

	// Level is used when creating a default handler if Logger and Handler
	// are nil.
	Level slog.Level

	// LogResponses enables logging generation response summaries.
	LogResponses bool

	// LogToolCalls enables logging tool dispatch summaries.
	LogToolCalls bool
}

// DefaultLoggingConfig returns the default logging configuration.
func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		Level: slog.LevelInfo,
	}
}

func resolveLogger(cfg LoggingConfig) *slog.Logger {
	if cfg.Logger != nil {
		return cfg.Logger
	}
	if cfg.Handler != nil {
		return slog.New(cfg.Handler)
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Level}))
}
