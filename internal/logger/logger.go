// Package logger provides a thin wrapper around zerolog.Logger for notelock.
//
// Loggers must never receive plaintext, passwords, hints or key material.
// Callers log format versions, scope levels, file names and durations only.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Logger embeds zerolog.Logger so the full zerolog API is available
type Logger struct {
	zerolog.Logger
}

// New builds a console logger writing to out at the given level name
// ("debug", "info", "warn", ...). Unknown names fall back to warn.
func New(level string, out io.Writer) *Logger {
	if out == nil {
		out = os.Stderr
	}

	console := zerolog.ConsoleWriter{Out: out, NoColor: true, TimeFormat: "15:04:05"}
	l := zerolog.New(console).Level(parseLevel(level)).With().
		Str("app", "notelock").
		Timestamp().
		Logger()

	return &Logger{l}
}

// NewJSON builds a JSON logger, used when output is collected by other tools
func NewJSON(level string, out io.Writer) *Logger {
	if out == nil {
		out = os.Stderr
	}

	l := zerolog.New(out).Level(parseLevel(level)).With().
		Str("app", "notelock").
		Timestamp().
		Logger()

	return &Logger{l}
}

// parseLevel maps a level name to a zerolog level, falling back to warn
func parseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.WarnLevel
	}
	return lvl
}

// Nop returns a logger that discards everything
func Nop() *Logger {
	return &Logger{zerolog.Nop()}
}

// With returns a child logger tagged with a component name
func (l *Logger) With(component string) *Logger {
	return &Logger{l.Logger.With().Str("component", component).Logger()}
}
