// ABOUTME: Structured logging configuration using log/slog.
// ABOUTME: Writes to a log file in the config dir so terminal output stays clean.

package logger

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// FileName is the log file created inside the config directory
const FileName = "debug.log"

// New builds a slog logger writing to w.
// level: debug, info, warn, error (default: info)
// format: text, json (default: text)
func New(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: parseLevel(level),
	}

	var handler slog.Handler
	if strings.ToLower(format) == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}

// Init configures the default slog logger and returns it together with a
// function that releases the underlying file.
// If configDir is empty, or the log file cannot be opened, logs are discarded.
// When verbose is set, logs go to stderr instead of the file.
func Init(configDir, level, format string, verbose bool) (*slog.Logger, func()) {
	var (
		w       io.Writer = io.Discard
		closeFn           = func() {}
	)

	switch {
	case verbose:
		w = os.Stderr
	case configDir != "":
		if f, err := openLogFile(configDir); err == nil {
			w = f
			closeFn = func() { f.Close() }
		}
	}

	l := New(w, level, format)
	slog.SetDefault(l)
	return l, closeFn
}

// Discard returns a logger that drops everything, for tests and defaults.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func openLogFile(configDir string) (*os.File, error) {
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, err
	}
	logPath := filepath.Join(configDir, FileName)
	return os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
}

// parseLevel converts a string log level to slog.Level.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
