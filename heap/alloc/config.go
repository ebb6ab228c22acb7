package alloc

import (
	"log/slog"
	"os"
)

// logEnv enables debug logging to stderr when set and Config.Logger is nil.
const logEnv = "HEAP_LOG_ALLOC"

// Config tunes an Allocator.
type Config struct {
	// MinGrowPages is the smallest growth request, in provider pages.
	// Values below 1 are treated as 1.
	MinGrowPages int

	// CheckInvariants validates the whole heap after every mutating call
	// and turns a violation into the call's error. Slow; for debugging.
	CheckInvariants bool

	// Logger receives debug events (growth, splits, merges, failures).
	// Nil selects a stderr logger when HEAP_LOG_ALLOC is set and discards
	// otherwise.
	Logger *slog.Logger
}

// DefaultConfig is used when nil is passed to New.
var DefaultConfig = Config{
	MinGrowPages: 1,
}

// newLogger resolves the logger for a config.
func newLogger(cfg *Config) *slog.Logger {
	if cfg.Logger != nil {
		return cfg.Logger.With("component", "alloc")
	}
	if os.Getenv(logEnv) != "" {
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})).With("component", "alloc")
	}
	return slog.New(slog.DiscardHandler)
}
