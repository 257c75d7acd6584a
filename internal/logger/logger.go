// Package logger provides a simple wrapper around slog for structured logging.
//
// The TUI owns the terminal, so Init points the logger at a file; before
// Init (and in tests) messages go to stderr.
package logger

import (
	"log/slog"
	"os"
)

// Logger is the global logger instance.
var Logger = slog.New(slog.NewTextHandler(os.Stderr, nil))

// Init redirects logging to the given file, creating it if needed. Returns
// a close function. Failure to open the file leaves the stderr logger in
// place.
func Init(path string) func() {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
	if err != nil {
		return func() {}
	}
	Logger = slog.New(slog.NewTextHandler(f, nil))
	return func() { _ = f.Close() }
}

// Error logs an error message.
func Error(msg string, args ...any) {
	Logger.Error(msg, args...)
}

// Info logs an informational message.
func Info(msg string, args ...any) {
	Logger.Info(msg, args...)
}

// Warn logs a warning message.
func Warn(msg string, args ...any) {
	Logger.Warn(msg, args...)
}

// Debug logs a debug message.
func Debug(msg string, args ...any) {
	Logger.Debug(msg, args...)
}
