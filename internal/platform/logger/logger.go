// Package logger builds the process-wide slog logger.
package logger

import (
	"log/slog"
	"os"

	"lobby/internal/platform/config"
)

// New returns a structured logger. Production emits JSON at info level;
// development keeps human-readable text with debug enabled.
func New(env config.Env) *slog.Logger {
	if env == config.EnvProduction {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}
