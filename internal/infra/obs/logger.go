package obs

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// NewLogger picks the slog handler for the environment: tinted debug output
// for local work, JSON at info level everywhere else.
func NewLogger(env string) *slog.Logger {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local", "test", "testing":
		return slog.New(tint.NewHandler(os.Stdout, &tint.Options{
			Level:      slog.LevelDebug,
			TimeFormat: time.TimeOnly,
		}))
	default:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	}
}
