package config

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// serviceName tags every log line so this backend stays distinguishable when
// it shares a log sink with the rest of the parking platform.
const serviceName = "prkcar-backend"

// InitLogger installs the process-wide structured logger
func InitLogger(cfg *Config) {
	logger := slog.New(newLogHandler(cfg, os.Stdout)).With("service", serviceName)
	slog.SetDefault(logger)

	slog.Info("Logger initialized",
		"level", cfg.LogLevel,
		"format", cfg.LogFormat,
	)
}

// newLogHandler builds the handler selected by LOG_FORMAT and LOG_LEVEL.
// JSON is the default; anything but "text" falls back to it.
func newLogHandler(cfg *Config, w io.Writer) slog.Handler {
	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}

	if strings.ToLower(cfg.LogFormat) == "text" {
		return slog.NewTextHandler(w, opts)
	}
	return slog.NewJSONHandler(w, opts)
}

// parseLogLevel maps a level name to its slog level, defaulting to info
func parseLogLevel(name string) slog.Level {
	switch strings.ToLower(name) {
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
