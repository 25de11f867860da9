// Package logging configures the process-wide zerolog logger and hands out
// component-scoped child loggers.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the root logger. It discards output until Init is called so
// packages used as a library stay quiet by default.
var Logger = zerolog.Nop()

// Config holds logging configuration.
type Config struct {
	Level  string
	JSON   bool
	Output io.Writer
}

// ParseLevel maps a level name to a zerolog level, defaulting to info.
func ParseLevel(s string) zerolog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// New builds a logger without touching the global one.
func New(cfg Config) zerolog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if !cfg.JSON {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	return zerolog.New(out).Level(ParseLevel(cfg.Level)).With().Timestamp().Logger()
}

// Init replaces the root logger.
func Init(cfg Config) {
	Logger = New(cfg)
}

// WithComponent creates a child logger with a component field.
func WithComponent(component string) zerolog.Logger {
	return Logger.With().Str("component", component).Logger()
}
