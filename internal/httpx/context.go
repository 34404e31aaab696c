package httpx

import (
	"context"
	"net/http"
)

type contextKey string

const (
	userIDKey    contextKey = "userID"
	staffKey     contextKey = "staff"
	requestIDKey contextKey = "requestID"
)

// UserIDFrom retrieves the authenticated user ID from the request context.
func UserIDFrom(r *http.Request) string {
	if v, ok := r.Context().Value(userIDKey).(string); ok {
		return v
	}
	return ""
}

// IsStaffFrom reports whether the authenticated user is staff.
func IsStaffFrom(r *http.Request) bool {
	v, _ := r.Context().Value(staffKey).(bool)
	return v
}

// ContextWithUser returns a new context carrying the user ID and staff flag.
func ContextWithUser(ctx context.Context, userID string, staff bool) context.Context {
	ctx = context.WithValue(ctx, userIDKey, userID)
	return context.WithValue(ctx, staffKey, staff)
}

func RequestIDFrom(r *http.Request) string {
	return RequestIDFromContext(r.Context())
}

func RequestIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}

func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}
