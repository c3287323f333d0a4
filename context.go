package fleetcheck

import (
	"context"

	"github.com/google/uuid"
)

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey int

const (
	profileContextKey contextKey = iota + 1
	requestIDContextKey
)

// NewContextWithProfile attaches the signed-in profile to the context.
// Only the transport layer should read it back; the reporting core takes
// the profile as an explicit argument.
func NewContextWithProfile(ctx context.Context, profile *Profile) context.Context {
	return context.WithValue(ctx, profileContextKey, profile)
}

// ProfileFromContext returns the signed-in profile from the context, or nil.
func ProfileFromContext(ctx context.Context) *Profile {
	profile, _ := ctx.Value(profileContextKey).(*Profile)
	return profile
}

// ProfileIDFromContext returns the signed-in profile's ID, or a zero UUID.
func ProfileIDFromContext(ctx context.Context) uuid.UUID {
	if p := ProfileFromContext(ctx); p != nil {
		return p.ID
	}
	return uuid.UUID{}
}

// NewContextWithRequestID attaches a request ID to the context.
func NewContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDContextKey, requestID)
}

// RequestIDFromContext returns the request ID from the context, or empty string.
func RequestIDFromContext(ctx context.Context) string {
	requestID, _ := ctx.Value(requestIDContextKey).(string)
	return requestID
}
