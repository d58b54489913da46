package config

import (
	"context"
	"log/slog"
	"testing"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		debugOn bool
	}{
		{
			name:    "production defaults to info",
			cfg:     Config{Environment: "production", ServiceName: "faceclock"},
			debugOn: false,
		},
		{
			name:    "development defaults to debug",
			cfg:     Config{Environment: "development", ServiceName: "faceclock"},
			debugOn: true,
		},
		{
			name:    "LOG_LEVEL overrides the environment default",
			cfg:     Config{Environment: "production", LogLevel: "debug", ServiceName: "faceclock"},
			debugOn: true,
		},
		{
			name:    "unparseable LOG_LEVEL falls back to the default",
			cfg:     Config{Environment: "production", LogLevel: "loud", ServiceName: "faceclock"},
			debugOn: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := NewLogger(&tt.cfg)
			if got := logger.Enabled(context.Background(), slog.LevelDebug); got != tt.debugOn {
				t.Errorf("Enabled(debug) = %v, want %v", got, tt.debugOn)
			}
		})
	}
}
