package httpx

import (
	"context"
	"net/http"
	"strings"
)

type contextKey string

const userIDKey contextKey = "user_id"

// UserIDHeader carries the authenticated caller identity. Session issuance
// and header verification happen upstream; this service trusts the value.
const UserIDHeader = "X-User-ID"

// SetUserID stores the caller identity in the context.
func SetUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext returns the caller identity, or "" when unauthenticated.
func UserIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(userIDKey).(string); ok {
		return v
	}
	return ""
}

// userIDFromRequest extracts the trusted identity header.
func userIDFromRequest(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(UserIDHeader))
}
