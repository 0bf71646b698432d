package log

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joshuarp/idempotency-api/internal/shared/config"
)

// NewJSONLogger builds the process logger. The level follows logging.level
// and is re-read whenever the config file reloads.
func NewJSONLogger(cfg config.ConfigProvider) *slog.Logger {
	return newJSONLogger(cfg, os.Stdout)
}

func newJSONLogger(cfg config.ConfigProvider, w io.Writer) *slog.Logger {
	level := new(slog.LevelVar)
	level.Set(parseLevel(cfg.GetString("logging.level")))

	cfg.OnChange(func() {
		level.Set(parseLevel(cfg.GetString("logging.level")))
	})

	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
			if attr.Key == slog.TimeKey && len(groups) == 0 {
				return slog.String(slog.TimeKey, attr.Value.Time().UTC().Format(time.RFC3339))
			}
			return attr
		},
	})

	return slog.New(handler).With(slog.String("service", "idempotency-api"))
}

func parseLevel(level string) slog.Level {
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
