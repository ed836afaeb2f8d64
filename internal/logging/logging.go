// Package logging carries a structured logger through context.Context and
// records operations as span lines: "<Op>/S" on entry, "<Op>/EOK" or
// "<Op>/EFAIL" on exit.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"
)

// Logger is the logging surface used across layers. The f variants format
// their message and carry no attributes.
type Logger interface {
	Debug(ctx context.Context, msg string, kv ...any)
	Debugf(ctx context.Context, format string, args ...any)
	Info(ctx context.Context, msg string, kv ...any)
	Infof(ctx context.Context, format string, args ...any)
	Warn(ctx context.Context, msg string, kv ...any)
	Warnf(ctx context.Context, format string, args ...any)
	Error(ctx context.Context, msg string, kv ...any)
	Errorf(ctx context.Context, format string, args ...any)
	With(kv ...any) Logger
}

type contextKey struct{}

// WithLogger returns a copy of ctx carrying l.
func WithLogger(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

var (
	fallbackOnce sync.Once
	fallback     Logger
)

// FromContext returns the logger of ctx, or a human logger on stderr at
// INFO when ctx carries none.
func FromContext(ctx context.Context) Logger {
	if l, ok := ctx.Value(contextKey{}).(Logger); ok && l != nil {
		return l
	}
	fallbackOnce.Do(func() {
		fallback = &slogLogger{l: slog.New(humanHandler(os.Stderr, slog.LevelInfo))}
	})
	return fallback
}

// ParseLevel maps DEBUG, INFO, WARN and ERROR (any case) to a slog level.
// An empty string means INFO.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToUpper(s) {
	case "", "INFO":
		return slog.LevelInfo, nil
	case "DEBUG":
		return slog.LevelDebug, nil
	case "WARN", "WARNING":
		return slog.LevelWarn, nil
	case "ERROR":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unsupported log level: %s", s)
}

// errSummaryLength bounds the error text written on span failure lines.
const errSummaryLength = 64

// Span attaches kv to the context logger, logs "<op>/S" and returns the
// derived context with a func that logs "<op>/EOK" or "<op>/EFAIL" with the
// elapsed seconds. Pass the operation's final error to the func.
func Span(ctx context.Context, op string, kv ...any) (context.Context, func(err error)) {
	start := time.Now()
	logger := FromContext(ctx)
	if len(kv) > 0 {
		logger = logger.With(kv...)
	}
	ctx = WithLogger(ctx, logger)
	logger.Info(ctx, op+"/S")
	return ctx, func(err error) {
		elapsed := time.Since(start).Seconds()
		if err == nil {
			logger.Info(ctx, op+"/EOK", "elapsed", elapsed)
			return
		}
		msg := err.Error()
		if len(msg) > errSummaryLength {
			msg = msg[:errSummaryLength] + "..."
		}
		logger.Info(ctx, op+"/EFAIL", "err", msg, "elapsed", elapsed)
	}
}

// New returns a logger of format writing to stderr.
func New(format string, level slog.Leveler) (Logger, error) {
	return NewWithWriter(format, level, os.Stderr)
}

// NewWithWriter returns a logger of format writing to w. Formats are
// "human" (the default: text without timestamps), "text" and "json".
func NewWithWriter(format string, level slog.Leveler, w io.Writer) (Logger, error) {
	var h slog.Handler
	switch format {
	case "", "human":
		h = humanHandler(w, level)
	case "text":
		h = slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	case "json":
		h = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	default:
		return nil, fmt.Errorf("unsupported log format: %s", format)
	}
	return &slogLogger{l: slog.New(h)}, nil
}

func humanHandler(w io.Writer, level slog.Leveler) slog.Handler {
	return slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) == 0 && a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			return a
		},
	})
}

type slogLogger struct{ l *slog.Logger }

func (s *slogLogger) log(ctx context.Context, level slog.Level, msg string, kv []any) {
	s.l.Log(ctx, level, msg, kv...)
}

func (s *slogLogger) Debug(ctx context.Context, msg string, kv ...any) {
	s.log(ctx, slog.LevelDebug, msg, kv)
}
func (s *slogLogger) Info(ctx context.Context, msg string, kv ...any) {
	s.log(ctx, slog.LevelInfo, msg, kv)
}
func (s *slogLogger) Warn(ctx context.Context, msg string, kv ...any) {
	s.log(ctx, slog.LevelWarn, msg, kv)
}
func (s *slogLogger) Error(ctx context.Context, msg string, kv ...any) {
	s.log(ctx, slog.LevelError, msg, kv)
}
func (s *slogLogger) Debugf(ctx context.Context, format string, args ...any) {
	s.log(ctx, slog.LevelDebug, fmt.Sprintf(format, args...), nil)
}
func (s *slogLogger) Infof(ctx context.Context, format string, args ...any) {
	s.log(ctx, slog.LevelInfo, fmt.Sprintf(format, args...), nil)
}
func (s *slogLogger) Warnf(ctx context.Context, format string, args ...any) {
	s.log(ctx, slog.LevelWarn, fmt.Sprintf(format, args...), nil)
}
func (s *slogLogger) Errorf(ctx context.Context, format string, args ...any) {
	s.log(ctx, slog.LevelError, fmt.Sprintf(format, args...), nil)
}

func (s *slogLogger) With(kv ...any) Logger { return &slogLogger{l: s.l.With(kv...)} }
