// Package logger provides structured logging for the history backend.
package logger

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New creates a zerolog logger. Development gets a console writer,
// everything else plain JSON on stdout.
func New(level, environment string) zerolog.Logger {
	lvl := zerolog.InfoLevel
	switch level {
	case "debug":
		lvl = zerolog.DebugLevel
	case "info":
		lvl = zerolog.InfoLevel
	case "warn":
		lvl = zerolog.WarnLevel
	case "error":
		lvl = zerolog.ErrorLevel
	}

	var out = zerolog.New(os.Stdout)
	if environment == "development" {
		out = zerolog.New(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		})
	}

	return out.Level(lvl).
		With().
		Timestamp().
		Str("service", "smart-mermaid-api").
		Logger()
}
