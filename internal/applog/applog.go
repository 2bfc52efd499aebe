// Package applog provides structured logging with zerolog for Holdfast.
// It supports multiple output formats (JSON for production, console for
// development) and convenience functions for logging with context.
package applog

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the global logger instance.
var Logger zerolog.Logger

// Init initializes the global logger. If pretty is true, logs are
// formatted for human readability; otherwise they are JSON.
func Init(pretty bool, level string) {
	var output io.Writer = os.Stdout

	if pretty {
		output = zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
	}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}

	zerolog.SetGlobalLevel(lvl)
	Logger = zerolog.New(output).With().Timestamp().Caller().Logger()
}

func Info() *zerolog.Event  { return Logger.Info() }
func Debug() *zerolog.Event { return Logger.Debug() }
func Warn() *zerolog.Event  { return Logger.Warn() }
func Error() *zerolog.Event { return Logger.Error() }
func Fatal() *zerolog.Event { return Logger.Fatal() }

// WithPlayer returns a logger scoped to a player.
func WithPlayer(name string) zerolog.Logger {
	return Logger.With().Str("player", name).Logger()
}

// WithRoom returns a logger scoped to a room.
func WithRoom(roomID string) zerolog.Logger {
	return Logger.With().Str("room", roomID).Logger()
}

// WithSession returns a logger scoped to a session.
func WithSession(sessionID string) zerolog.Logger {
	return Logger.With().Str("session", sessionID).Logger()
}

// WithCombat returns a logger scoped to a combat instance.
func WithCombat(instanceID string) zerolog.Logger {
	return Logger.With().Str("combat", instanceID).Logger()
}
