// Package log configures slog for the binaries and tags loggers with a
// component name.
package log

import (
	"log/slog"
	"os"
	"strings"
)

// Logger wraps slog.Logger with a component tag carried on every record.
type Logger struct {
	*slog.Logger
	component string
}

// Setup installs a text handler on stdout as the process default and
// returns the root logger. Level comes from LOG_LEVEL (debug, info,
// warn, error), defaulting to info.
func Setup(component string) *Logger {
	level := parseLevel(os.Getenv("LOG_LEVEL"))
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	logger := slog.New(handler).With("component", component)
	slog.SetDefault(logger)
	return &Logger{Logger: logger, component: component}
}

// WithComponent returns a child logger tagged with a different component.
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{
		Logger:    l.Logger.With("component", component),
		component: component,
	}
}

func (l *Logger) Component() string {
	return l.component
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
