package logger

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const (
	requestIDKey contextKey = "request_id"
	userIDKey    contextKey = "user_id"
	entryIDKey   contextKey = "entry_id"
	weekStartKey contextKey = "week_start"
	loggerKey    contextKey = "logger"
)

// WithRequestID adds a request ID to the context.
// If requestID is empty, a new UUID is generated.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	if requestID == "" {
		requestID = uuid.NewString()
	}
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext extracts the request ID from context
func RequestIDFromContext(ctx context.Context) string {
	return stringValue(ctx, requestIDKey)
}

// WithUserID adds the authenticated user ID to the context
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext extracts the user ID from context
func UserIDFromContext(ctx context.Context) string {
	return stringValue(ctx, userIDKey)
}

// WithEntryID tags log lines with the daily entry being processed
func WithEntryID(ctx context.Context, entryID string) context.Context {
	return context.WithValue(ctx, entryIDKey, entryID)
}

// WithWeekStart tags log lines with the weekly insight week
func WithWeekStart(ctx context.Context, weekStart string) context.Context {
	return context.WithValue(ctx, weekStartKey, weekStart)
}

// WithLogger adds a logger to the context
func WithLogger(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext extracts the logger from context, or returns the default logger
func FromContext(ctx context.Context) Logger {
	if l, ok := ctx.Value(loggerKey).(Logger); ok {
		return l
	}
	return Default()
}

// Ctx returns the context logger enriched with the ids stored in ctx
func Ctx(ctx context.Context) Logger {
	return FromContext(ctx).WithContext(ctx)
}

func stringValue(ctx context.Context, key contextKey) string {
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}

func extractContextFields(ctx context.Context) []Field {
	var fields []Field
	for _, key := range []contextKey{requestIDKey, userIDKey, entryIDKey, weekStartKey} {
		if v := stringValue(ctx, key); v != "" {
			fields = append(fields, String(string(key), v))
		}
	}
	return fields
}
