// Package logger provides adapters for the logging interface.
package logger

import (
	"context"
	"maps"
)

// Logger defines the logging interface used throughout the application.
// External loggers that implement these methods can be wrapped with ZapAdapter.
type Logger interface {
	Info(ctx context.Context, msg string, fields map[string]any)
	Debug(ctx context.Context, msg string, fields map[string]any)
	Warn(ctx context.Context, msg string, fields map[string]any)
	Error(ctx context.Context, msg string, err error, fields map[string]any)
}

// ZapAdapter adapts a Logger to the application's logging interface and
// stamps every entry with its base fields.
type ZapAdapter struct {
	log    Logger
	fields map[string]any
}

// NewZapAdapter creates a new ZapAdapter wrapping the given logger.
// A nil logger discards everything.
func NewZapAdapter(log Logger) *ZapAdapter {
	if log == nil {
		log = Nop{}
	}
	return &ZapAdapter{log: log}
}

// With returns an adapter that adds fields to every entry. Per-call fields
// win over base fields with the same key.
func (a *ZapAdapter) With(fields map[string]any) *ZapAdapter {
	merged := make(map[string]any, len(a.fields)+len(fields))
	maps.Copy(merged, a.fields)
	maps.Copy(merged, fields)
	return &ZapAdapter{log: a.log, fields: merged}
}

// Component is shorthand for With({"component": name}).
func (a *ZapAdapter) Component(name string) *ZapAdapter {
	return a.With(map[string]any{"component": name})
}

func (a *ZapAdapter) merge(fields map[string]any) map[string]any {
	if len(a.fields) == 0 {
		return fields
	}
	merged := make(map[string]any, len(a.fields)+len(fields))
	maps.Copy(merged, a.fields)
	maps.Copy(merged, fields)
	return merged
}

// Info logs an info message.
func (a *ZapAdapter) Info(ctx context.Context, msg string, fields map[string]any) {
	a.log.Info(ctx, msg, a.merge(fields))
}

// Debug logs a debug message.
func (a *ZapAdapter) Debug(ctx context.Context, msg string, fields map[string]any) {
	a.log.Debug(ctx, msg, a.merge(fields))
}

// Warn logs a warning message.
func (a *ZapAdapter) Warn(ctx context.Context, msg string, fields map[string]any) {
	a.log.Warn(ctx, msg, a.merge(fields))
}

// Error logs an error message.
func (a *ZapAdapter) Error(ctx context.Context, msg string, err error, fields map[string]any) {
	a.log.Error(ctx, msg, err, a.merge(fields))
}

// Nop discards all entries.
type Nop struct{}

func (Nop) Info(context.Context, string, map[string]any)         {}
func (Nop) Debug(context.Context, string, map[string]any)        {}
func (Nop) Warn(context.Context, string, map[string]any)         {}
func (Nop) Error(context.Context, string, error, map[string]any) {}
