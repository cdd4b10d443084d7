package services

import "context"

type contextKey string

const (
	lessonIDKey  contextKey = "lesson_id"
	sourceIDKey  contextKey = "source_id"
	requestIDKey contextKey = "request_id"
)

// WithLessonID annotates context with the lesson identifier being processed.
func WithLessonID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, lessonIDKey, id)
}

// LessonIDFromContext extracts the lesson identifier if present.
func LessonIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(lessonIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithSourceID annotates context with the library source being synced or read.
func WithSourceID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, sourceIDKey, id)
}

// SourceIDFromContext extracts the source identifier if present.
func SourceIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(sourceIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
