// Package logging provides a thin abstraction over slog so the rest of the
// module depends on a minimal interface (Logger) while callers can plug any
// structured logger. It also offers a richer LucasLogger with contextual
// helpers (session, component) and domain specific helpers for model calls,
// tool executions and routing decisions.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"
)

// Logger defines the minimal logging interface used throughout Lucas.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// SlogAdapter wraps *slog.Logger to implement the Logger interface.
type SlogAdapter struct {
	*slog.Logger
}

// Debug logs a debug message.
func (s *SlogAdapter) Debug(msg string, args ...any) { s.Logger.Debug(msg, args...) }

// Info logs an informational message.
func (s *SlogAdapter) Info(msg string, args ...any) { s.Logger.Info(msg, args...) }

// Warn logs a warning message.
func (s *SlogAdapter) Warn(msg string, args ...any) { s.Logger.Warn(msg, args...) }

// Error logs an error message.
func (s *SlogAdapter) Error(msg string, args ...any) { s.Logger.Error(msg, args...) }

// NewSlogAdapter creates a Logger from *slog.Logger.
func NewSlogAdapter(logger *slog.Logger) Logger {
	return &SlogAdapter{Logger: logger}
}

// NewDefaultSlogLogger creates a Logger using slog.Default().
func NewDefaultSlogLogger() Logger {
	return NewSlogAdapter(slog.Default())
}

// NoOpLogger discards all log messages. Useful for tests or when logging is disabled.
type NoOpLogger struct{}

// Debug logs a debug message.
func (NoOpLogger) Debug(string, ...any) {}

// Info logs an informational message.
func (NoOpLogger) Info(string, ...any) {}

// Warn logs a warning message.
func (NoOpLogger) Warn(string, ...any) {}

// Error logs an error message.
func (NoOpLogger) Error(string, ...any) {}

// Config configures construction of a LucasLogger.
type Config struct {
	Level     slog.Level
	Format    string // json or text
	Output    io.Writer
	AddSource bool
	Component string
	SessionID string
}

// DefaultConfig returns a baseline JSON info-level configuration.
func DefaultConfig() *Config {
	return &Config{Level: slog.LevelInfo, Format: "json", Output: os.Stdout}
}

// LucasLogger wraps slog.Logger adding contextual cloning helpers and domain
// convenience methods. Copies produced by With* methods are cheap.
type LucasLogger struct {
	logger    *slog.Logger
	component string
	sessionID string
}

// New builds a LucasLogger from a config (or defaults if nil).
func New(cfg *Config) *LucasLogger {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	opts := &slog.HandlerOptions{Level: cfg.Level, AddSource: cfg.AddSource}
	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(out, opts)
	} else {
		handler = slog.NewJSONHandler(out, opts)
	}
	return &LucasLogger{logger: slog.New(handler), component: cfg.Component, sessionID: cfg.SessionID}
}

// WithComponent returns a copy bound to a logical component (engine, registry, ...).
func (l *LucasLogger) WithComponent(c string) *LucasLogger {
	nl := *l
	nl.component = c
	return &nl
}

// WithSession returns a copy bound to a session identifier.
func (l *LucasLogger) WithSession(sid string) *LucasLogger {
	nl := *l
	nl.sessionID = sid
	return &nl
}

func (l *LucasLogger) attrs(extra ...slog.Attr) []slog.Attr {
	attrs := make([]slog.Attr, 0, len(extra)+2)
	if l.component != "" {
		attrs = append(attrs, slog.String("component", l.component))
	}
	if l.sessionID != "" {
		attrs = append(attrs, slog.String("session_id", l.sessionID))
	}
	return append(attrs, extra...)
}

func (l *LucasLogger) log(level slog.Level, msg string, args ...any) {
	rec := l.logger
	if l.component != "" {
		rec = rec.With(slog.String("component", l.component))
	}
	if l.sessionID != "" {
		rec = rec.With(slog.String("session_id", l.sessionID))
	}
	rec.Log(context.Background(), level, msg, args...)
}

// Debug logs at debug level.
func (l *LucasLogger) Debug(msg string, args ...any) { l.log(slog.LevelDebug, msg, args...) }

// Info logs at info level.
func (l *LucasLogger) Info(msg string, args ...any) { l.log(slog.LevelInfo, msg, args...) }

// Warn logs at warn level.
func (l *LucasLogger) Warn(msg string, args ...any) { l.log(slog.LevelWarn, msg, args...) }

// Error logs at error level.
func (l *LucasLogger) Error(msg string, args ...any) { l.log(slog.LevelError, msg, args...) }

// LogModelCall records model call latency and success.
func (l *LucasLogger) LogModelCall(model string, dur time.Duration, success bool, err error) {
	attrs := l.attrs(slog.String("model", model), slog.Duration("duration", dur), slog.Bool("success", success))
	level := slog.LevelInfo
	msg := "Model call completed"
	if !success {
		level = slog.LevelError
		msg = "Model call failed"
		if err != nil {
			attrs = append(attrs, slog.String("error", err.Error()))
		}
	}
	l.logger.LogAttrs(context.Background(), level, msg, attrs...)
}

// LogToolCall records execution details for a tool invocation.
func (l *LucasLogger) LogToolCall(tool string, dur time.Duration, success bool, err error) {
	attrs := l.attrs(slog.String("tool_name", tool), slog.Duration("duration", dur), slog.Bool("success", success))
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	level := slog.LevelInfo
	msg := "Tool execution completed"
	if !success {
		level = slog.LevelError
		msg = "Tool execution failed"
	}
	l.logger.LogAttrs(context.Background(), level, msg, attrs...)
}

// LogRouting records a coordinator routing decision.
func (l *LucasLogger) LogRouting(token, destination string, hops int) {
	attrs := l.attrs(
		slog.String("token", token),
		slog.String("destination", destination),
		slog.Int("hops", hops),
	)
	l.logger.LogAttrs(context.Background(), slog.LevelInfo, "Routing decision", attrs...)
}
