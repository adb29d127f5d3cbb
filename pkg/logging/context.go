package logging

import (
	"context"

	"github.com/rs/zerolog"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey int

const (
	loggerKey contextKey = iota
	runIDKey
)

// WithLogger adds a logger to the context.
func WithLogger(ctx context.Context, logger *zerolog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, OrNop(logger))
}

// FromContext extracts the logger from context, or a discarding logger.
func FromContext(ctx context.Context) *zerolog.Logger {
	if ctx != nil {
		if logger, ok := ctx.Value(loggerKey).(*zerolog.Logger); ok && logger != nil {
			return logger
		}
	}
	return OrNop(nil)
}

// Ctx is a shorter alias for FromContext.
func Ctx(ctx context.Context) *zerolog.Logger {
	return FromContext(ctx)
}

// WithRunID tags the context and its logger with a run identifier.
func WithRunID(ctx context.Context, runID string) context.Context {
	ctx = context.WithValue(ctx, runIDKey, runID)
	return WithField(ctx, "run_id", runID)
}

// RunID extracts the run identifier from context.
func RunID(ctx context.Context) string {
	if id, ok := ctx.Value(runIDKey).(string); ok {
		return id
	}
	return ""
}

// WithFields adds structured fields to the logger in the context.
func WithFields(ctx context.Context, fields map[string]any) context.Context {
	logCtx := FromContext(ctx).With()
	for key, value := range fields {
		logCtx = addField(logCtx, key, value)
	}
	logger := logCtx.Logger()
	return WithLogger(ctx, &logger)
}

// WithField adds a single field to the logger in the context.
func WithField(ctx context.Context, key string, value any) context.Context {
	logger := addField(FromContext(ctx).With(), key, value).Logger()
	return WithLogger(ctx, &logger)
}

// WithPartition tags the logger with the branch, service and year of a run.
func WithPartition(ctx context.Context, branch, service string, year int) context.Context {
	logger := FromContext(ctx).With().
		Str("branch", branch).
		Str("service", service).
		Int("year", year).
		Logger()
	return WithLogger(ctx, &logger)
}

// WithStage tags the logger with the pipeline stage.
func WithStage(ctx context.Context, stage string) context.Context {
	return WithField(ctx, "stage", stage)
}
