package logger

import (
	"io"
	"log/slog"
	"strings"
)

// ParseLevel понимает debug/info/warn/error, всё остальное — info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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

// New создаёт JSON-логгер и делает его логгером по умолчанию.
func New(level string, w io.Writer) *slog.Logger {
	l := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)}))
	slog.SetDefault(l)
	return l
}

func Component(l *slog.Logger, name string) *slog.Logger {
	return l.With("component", name)
}
