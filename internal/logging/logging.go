// Package logging configures the structured logger shared by every Tribbler
// process (back-end, keeper, front-end launchers).
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New builds a zerolog.Logger writing to w (os.Stderr in production, a
// buffer in tests) at the given level, tagged with component so that logs
// from a back-end, a keeper, and an HTTP adapter interleave legibly.
//
// Accepted levels: "debug", "info", "warn", "error". Unknown or empty
// strings fall back to "info".
func New(w io.Writer, level, component string) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	zerolog.TimeFieldFormat = time.RFC3339
	return zerolog.New(w).
		Level(parseLevel(level)).
		With().
		Timestamp().
		Str("component", component).
		Logger()
}

// NewConsole builds a human-readable (non-JSON) logger for interactive CLI
// tools such as the KV and bin REPL clients.
func NewConsole(w io.Writer, level, component string) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	cw := zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	return zerolog.New(cw).
		Level(parseLevel(level)).
		With().
		Timestamp().
		Str("component", component).
		Logger()
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
