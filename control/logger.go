// control/logger.go
// Author: momentics <momentics@gmail.com>
//
// Leveled logger over the standard log package, implementing api.Logger.

package control

import (
	"fmt"
	"io"
	"log"
	"strings"
	"sync/atomic"

	"github.com/momentics/hioload-coop/api"
)

// Level orders log severities.
type Level int32

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

// ParseLevel maps a level name to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	}
	return LevelInfo, fmt.Errorf("log level %q: %w", s, api.ErrInvalidArgument)
}

// Logger writes leveled lines through a *log.Logger.
// The level may be changed concurrently (e.g. from a reload hook).
type Logger struct {
	out   *log.Logger
	level atomic.Int32
}

// NewLogger creates a logger writing to w at the given minimum level.
func NewLogger(w io.Writer, level Level) *Logger {
	l := &Logger{out: log.New(w, "", log.LstdFlags|log.Lmicroseconds)}
	l.level.Store(int32(level))
	return l
}

// SetLevel changes the minimum level.
func (l *Logger) SetLevel(level Level) {
	l.level.Store(int32(level))
}

// Level returns the current minimum level.
func (l *Logger) Level() Level {
	return Level(l.level.Load())
}

func (l *Logger) logf(level Level, format string, args []any) {
	if level < l.Level() {
		return
	}
	l.out.Printf("[%s] %s", strings.ToUpper(level.String()), fmt.Sprintf(format, args...))
}

func (l *Logger) Debugf(format string, args ...any) { l.logf(LevelDebug, format, args) }
func (l *Logger) Infof(format string, args ...any)  { l.logf(LevelInfo, format, args) }
func (l *Logger) Warnf(format string, args ...any)  { l.logf(LevelWarn, format, args) }
func (l *Logger) Errorf(format string, args ...any) { l.logf(LevelError, format, args) }

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any) {}
func (nopLogger) Infof(string, ...any)  {}
func (nopLogger) Warnf(string, ...any)  {}
func (nopLogger) Errorf(string, ...any) {}

// NopLogger discards everything.
func NopLogger() api.Logger {
	return nopLogger{}
}
