// Package logger provides the leveled logger shared across the client.
package logger

import (
	"io"
	"log/slog"
	"strings"
)

// Logger defines the logging interface used throughout the application.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// SlogLogger wraps slog.Logger to implement our Logger interface.
type SlogLogger struct {
	logger *slog.Logger
}

// New creates a logger writing text records to w at the given level.
func New(w io.Writer, level slog.Level) *SlogLogger {
	return &SlogLogger{
		logger: slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
			Level: level,
		})),
	}
}

// Nop returns a logger that discards everything. Useful in tests.
func Nop() *SlogLogger {
	return New(io.Discard, slog.LevelError)
}

func (l *SlogLogger) Debug(msg string, args ...any) { l.logger.Debug(msg, args...) }
func (l *SlogLogger) Info(msg string, args ...any)  { l.logger.Info(msg, args...) }
func (l *SlogLogger) Warn(msg string, args ...any)  { l.logger.Warn(msg, args...) }
func (l *SlogLogger) Error(msg string, args ...any) { l.logger.Error(msg, args...) }

// ParseLevel converts a string log level to slog.Level.
// Accepts: debug, info, warn, error (case-insensitive).
// Returns slog.LevelInfo if the level is not recognized.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
