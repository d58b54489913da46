package config

import (
	"log/slog"
	"os"
)

// NewLogger builds the process logger from the runtime config: JSON to
// stdout in production, text with source locations elsewhere. LOG_LEVEL
// overrides the environment's default level; every line carries the
// service name for log aggregation.
func NewLogger(cfg *Config) *slog.Logger {
	level := slog.LevelDebug
	if cfg.IsProduction() {
		level = slog.LevelInfo
	}
	if cfg.LogLevel != "" {
		var override slog.Level
		if err := override.UnmarshalText([]byte(cfg.LogLevel)); err == nil {
			level = override
		}
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: !cfg.IsProduction(),
	}

	var handler slog.Handler
	if cfg.IsProduction() {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler).With(slog.String("service", cfg.ServiceName))
}
