package logging

import (
	"context"

	"go.uber.org/zap"
)

type requestCtxKey struct{}
type sourceCtxKey struct{}

// ContextWithRequestID attaches an HTTP request id to the context.
func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestCtxKey{}, requestID)
}

// RequestIDFromContext returns the request id, or "" if absent.
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestCtxKey{}).(string); ok {
		return id
	}
	return ""
}

// ContextWithSource attaches the source document name being processed.
func ContextWithSource(ctx context.Context, source string) context.Context {
	if source == "" {
		return ctx
	}
	return context.WithValue(ctx, sourceCtxKey{}, source)
}

// SourceFromContext returns the source document name, or "" if absent.
func SourceFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(sourceCtxKey{}).(string); ok {
		return s
	}
	return ""
}

// ContextFields extracts correlation data from context.
func ContextFields(ctx context.Context) []zap.Field {
	fields := make([]zap.Field, 0, 2)

	if requestID := RequestIDFromContext(ctx); requestID != "" {
		fields = append(fields, zap.String("request.id", requestID))
	}
	if source := SourceFromContext(ctx); source != "" {
		fields = append(fields, zap.String("document.source", source))
	}

	return fields
}
