package observability

import (
	"context"

	"github.com/rs/zerolog"
)

type requestIDKey struct{}

// WithRequestID stores the correlation ID of the current request.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// RequestIDFromContext returns the ID stored by WithRequestID, or "".
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// WithLogger stores a logger in the context, tagged with the request ID when one is present.
func WithLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	if reqID := RequestIDFromContext(ctx); reqID != "" {
		logger = logger.With().Str("request_id", reqID).Logger()
	}
	return logger.WithContext(ctx)
}

// LoggerFromContext returns the logger stored by WithLogger, or fallback when none is set.
// The result is a value; assign it before logging since zerolog's level methods
// have pointer receivers.
func LoggerFromContext(ctx context.Context, fallback zerolog.Logger) zerolog.Logger {
	if l := zerolog.Ctx(ctx); l != nil && l.GetLevel() != zerolog.Disabled {
		return *l
	}
	return fallback
}

// ComponentLogger is LoggerFromContext tagged with a component field. Loggers
// stored with WithLogger and the fallback are expected to carry no component.
func ComponentLogger(ctx context.Context, fallback zerolog.Logger, component string) zerolog.Logger {
	return LoggerFromContext(ctx, fallback).With().Str("component", component).Logger()
}
