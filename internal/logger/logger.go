package logger

import (
	"context"
	"io"
	"log"
	"os"
	"strings"
)

// Level is a logging severity
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = map[string]Level{
	"debug":   LevelDebug,
	"info":    LevelInfo,
	"warn":    LevelWarn,
	"warning": LevelWarn,
	"error":   LevelError,
}

// ParseLevel maps a level name to a Level. Unknown names fall back to info.
func ParseLevel(name string) (Level, bool) {
	level, ok := levelNames[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return LevelInfo, false
	}
	return level, true
}

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "INFO"
	}
}

type implLogger struct {
	logger *log.Logger
	level  Level
}

// New creates a Logger writing to stdout
func New(level string) Logger {
	return NewWithWriter(level, os.Stdout)
}

// NewWithWriter creates a Logger writing to out
func NewWithWriter(level string, out io.Writer) Logger {
	parsed, _ := ParseLevel(level)
	return &implLogger{
		logger: log.New(out, "", log.LstdFlags),
		level:  parsed,
	}
}

// NewNop returns a Logger that discards everything
func NewNop() Logger {
	return &implLogger{
		logger: log.New(io.Discard, "", 0),
		level:  LevelError + 1,
	}
}

func (l *implLogger) shouldLog(level Level) bool {
	return level >= l.level
}

func (l *implLogger) print(level Level, msg string, args ...interface{}) {
	if !l.shouldLog(level) {
		return
	}
	l.logger.Printf("["+level.String()+"] "+msg, args...)
}

func (l *implLogger) Debug(ctx context.Context, msg string, args ...interface{}) {
	l.print(LevelDebug, msg, args...)
}

func (l *implLogger) Info(ctx context.Context, msg string, args ...interface{}) {
	l.print(LevelInfo, msg, args...)
}

func (l *implLogger) Warn(ctx context.Context, msg string, args ...interface{}) {
	l.print(LevelWarn, msg, args...)
}

func (l *implLogger) Error(ctx context.Context, msg string, args ...interface{}) {
	l.print(LevelError, msg, args...)
}
