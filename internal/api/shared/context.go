package shared

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/phrazzld/takeatask-api/internal/domain"
)

// ContextKey is the type of request context keys set by this package.
type ContextKey string

const (
	// CallerContextKey holds the authenticated *domain.User.
	CallerContextKey ContextKey = "caller"

	// TraceIDKey holds the request's trace ID.
	TraceIDKey ContextKey = "traceID"

	// TraceIDHeader echoes the trace ID back to clients.
	TraceIDHeader = "X-Trace-ID"
)

// WithCaller stores the authenticated user in ctx.
func WithCaller(ctx context.Context, caller *domain.User) context.Context {
	return context.WithValue(ctx, CallerContextKey, caller)
}

// CallerFromContext returns the authenticated user, if any.
func CallerFromContext(ctx context.Context) (*domain.User, bool) {
	caller, ok := ctx.Value(CallerContextKey).(*domain.User)
	if !ok || caller == nil {
		return nil, false
	}
	return caller, true
}

// SetTraceID adds a fresh trace ID to the context.
func SetTraceID(ctx context.Context) context.Context {
	return context.WithValue(ctx, TraceIDKey, newTraceID())
}

// GetTraceID returns the trace ID of ctx, or "" when none was set.
func GetTraceID(ctx context.Context) string {
	traceID, ok := ctx.Value(TraceIDKey).(string)
	if !ok {
		return ""
	}
	return traceID
}

// newTraceID returns 32 hex characters.
func newTraceID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
