package logger

import (
	"log/slog"
	"os"
	"strings"
)

// Setup 按配置的级别初始化全局 slog
func Setup(level string) {
	opts := &slog.HandlerOptions{
		Level: parseLevel(level),
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, opts)))
}

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
