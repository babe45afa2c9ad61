// Package log is a small leveled logger around log/slog.
//
// Diagnostics go to stderr so they never interleave with table output on
// stdout. The level is global and can be changed at any time.
package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"
)

// Level constants matching slog levels.
const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

var (
	level  atomic.Int64
	mu     sync.RWMutex
	logger *slog.Logger
)

func init() {
	level.Store(int64(LevelWarn))
	SetOutput(os.Stderr)
}

// leveler reads the global level on every call so SetLevel takes effect
// without rebuilding the handler.
type leveler struct{}

func (leveler) Level() slog.Level { return GetLevel() }

// SetOutput redirects log records to w.
func SetOutput(w io.Writer) {
	h := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: leveler{},
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && len(groups) == 0 {
				return slog.Attr{}
			}
			return a
		},
	})
	mu.Lock()
	logger = slog.New(h)
	mu.Unlock()
}

// SetLevel sets the global log level.
func SetLevel(l slog.Level) {
	level.Store(int64(l))
}

// GetLevel returns the current log level.
func GetLevel() slog.Level {
	return slog.Level(level.Load())
}

// ParseLevel maps a config string ("debug", "info", "warn", "error") to a
// level. Unknown values fall back to warn.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "info":
		return LevelInfo
	case "error":
		return LevelError
	default:
		return LevelWarn
	}
}

func emit(l slog.Level, format string, args ...any) {
	mu.RLock()
	lg := logger
	mu.RUnlock()
	if !lg.Enabled(context.Background(), l) {
		return
	}
	lg.Log(context.Background(), l, fmt.Sprintf(format, args...))
}

// Debug logs a debug message if the level allows it.
func Debug(format string, args ...any) { emit(LevelDebug, format, args...) }

// Info logs an info message if the level allows it.
func Info(format string, args ...any) { emit(LevelInfo, format, args...) }

// Warn logs a warning message if the level allows it.
func Warn(format string, args ...any) { emit(LevelWarn, format, args...) }

// Error logs an error message.
func Error(format string, args ...any) { emit(LevelError, format, args...) }
