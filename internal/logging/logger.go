// Package logging holds the process-wide zerolog logger.
//
// Call Init once at startup; until then a JSON logger at info level writes to
// stderr so packages can log during tests without setup.
package logging

import (
	"context"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Config selects the level and output format.
type Config struct {
	Level  string
	Format string
	Output io.Writer
}

var (
	mu     sync.RWMutex
	logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
)

// Init replaces the global logger.
func Init(cfg Config) {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if strings.EqualFold(cfg.Format, "console") {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	l := zerolog.New(out).Level(level).With().Timestamp().Logger()

	mu.Lock()
	logger = l
	mu.Unlock()
}

// L returns the global logger.
func L() *zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	l := logger
	return &l
}

// With returns a child logger tagged with the component name.
func With(component string) zerolog.Logger {
	return L().With().Str("component", component).Logger()
}

func Debug() *zerolog.Event { return L().Debug() }
func Info() *zerolog.Event  { return L().Info() }
func Warn() *zerolog.Event  { return L().Warn() }
func Error() *zerolog.Event { return L().Error() }

// Ctx returns the logger attached to ctx, falling back to the global one.
func Ctx(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l != nil && l.GetLevel() != zerolog.Disabled {
		return l
	}
	return L()
}
