// Package logging provides the structured logging interface shared by every
// runtime package.
package logging

import (
	"log/slog"
	"os"
)

// Logger is the structured logging interface used across the runtime. It is
// intentionally shaped so that *slog.Logger satisfies it without an adapter,
// and so logrus/zap wrappers are a few lines away for callers who want one.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	Debug(msg string, args ...any)
}

// NewSlog builds the default Logger, writing leveled text to os.Stderr.
func NewSlog(level slog.Level) Logger {
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return slog.New(h)
}

// Nop is a Logger that discards everything; useful in tests.
type Nop struct{}

func (Nop) Info(string, ...any)  {}
func (Nop) Warn(string, ...any)  {}
func (Nop) Error(string, ...any) {}
func (Nop) Debug(string, ...any) {}
