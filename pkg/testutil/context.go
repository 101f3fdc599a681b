package testutil

import (
	"context"
	"net/http"

	"bloodlink/internal/platform/middleware"
)

// WithAuth primes the request context the way the auth middleware would for
// an authenticated caller.
func WithAuth(req *http.Request, userID, role, sessionID string) *http.Request {
	ctx := req.Context()
	if userID != "" {
		ctx = context.WithValue(ctx, middleware.ContextKeyUserID, userID)
	}
	if role != "" {
		ctx = context.WithValue(ctx, middleware.ContextKeyRole, role)
	}
	if sessionID != "" {
		ctx = context.WithValue(ctx, middleware.ContextKeySessionID, sessionID)
	}
	return req.WithContext(ctx)
}

// WithRequestID adds a correlation ID to the request context.
func WithRequestID(req *http.Request, id string) *http.Request {
	ctx := context.WithValue(req.Context(), middleware.ContextKeyRequestID, id)
	return req.WithContext(ctx)
}
