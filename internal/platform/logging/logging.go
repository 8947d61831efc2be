package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// New creates a JSON structured logger at the given level and installs it as
// the slog default. A nil writer means stdout.
func New(level string, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: ParseLevel(level),
	}))
	slog.SetDefault(logger)
	return logger
}

func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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

// Printf adapts the logger to printf-style hooks such as automaxprocs.
func Printf(logger *slog.Logger) func(string, ...any) {
	return func(format string, args ...any) {
		logger.Info(strings.TrimSpace(fmt.Sprintf(format, args...)),
			"module", "internal/platform/logging",
			"layer", "platform",
		)
	}
}
