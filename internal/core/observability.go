package core

import (
	"context"
	"log/slog"
	"time"
)

// Logger is the minimal structured logging seam used by the service layer.
// Arguments follow the slog convention of alternating keys and values.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// MetricsRecorder aggregates per-operation timing and outcome counters.
type MetricsRecorder interface {
	Observe(ctx context.Context, operation string, success bool, duration time.Duration)
}

// Tracer starts spans around service operations.
type Tracer interface {
	Start(ctx context.Context, operation string) (context.Context, TraceSpan)
}

// TraceSpan finishes a single traced operation.
type TraceSpan interface {
	End(err error)
}

// NopLogger discards all log output. It is the default service logger.
type NopLogger struct{}

func (NopLogger) Debug(string, ...any) {}
func (NopLogger) Info(string, ...any)  {}
func (NopLogger) Warn(string, ...any)  {}
func (NopLogger) Error(string, ...any) {}

// SlogLogger adapts a *slog.Logger to the Logger seam.
type SlogLogger struct {
	logger *slog.Logger
}

// NewSlogLogger wraps the given slog logger; a nil logger falls back to
// slog.Default().
func NewSlogLogger(logger *slog.Logger) *SlogLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogLogger{logger: logger}
}

func (l *SlogLogger) Debug(msg string, args ...any) { l.logger.Debug(msg, args...) }
func (l *SlogLogger) Info(msg string, args ...any)  { l.logger.Info(msg, args...) }
func (l *SlogLogger) Warn(msg string, args ...any)  { l.logger.Warn(msg, args...) }
func (l *SlogLogger) Error(msg string, args ...any) { l.logger.Error(msg, args...) }

type nopMetrics struct{}

func (nopMetrics) Observe(context.Context, string, bool, time.Duration) {}

type nopTracer struct{}

type nopSpan struct{}

func (nopSpan) End(error) {}

func (nopTracer) Start(ctx context.Context, _ string) (context.Context, TraceSpan) {
	return ctx, nopSpan{}
}
