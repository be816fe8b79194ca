// Package requestcontext carries request-scoped values through
// context.Context without importing net/http.
//
// Middleware writes them; the onboarding service, the remote client and the
// event publisher read them:
//
//	identity := requestcontext.Identity(ctx) // "" for guests
//	now := requestcontext.Now(ctx)
package requestcontext

import (
	"context"
	"time"
)

type key uint8

const (
	identityKey key = iota
	bearerTokenKey
	requestIDKey
	requestTimeKey
)

func lookup[T any](ctx context.Context, k key) (T, bool) {
	v, ok := ctx.Value(k).(T)
	return v, ok
}

// Identity is the authenticated user's email, or "" for a guest.
func Identity(ctx context.Context) string {
	v, _ := lookup[string](ctx, identityKey)
	return v
}

func WithIdentity(ctx context.Context, identity string) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// BearerToken is the caller's raw credential, forwarded on remote calls.
func BearerToken(ctx context.Context) string {
	v, _ := lookup[string](ctx, bearerTokenKey)
	return v
}

func WithBearerToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, bearerTokenKey, token)
}

func RequestID(ctx context.Context) string {
	v, _ := lookup[string](ctx, requestIDKey)
	return v
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// Now is the time the request arrived. Outside a request (CLI, background
// publishing) it is the wall clock.
func Now(ctx context.Context) time.Time {
	if t, ok := lookup[time.Time](ctx, requestTimeKey); ok {
		return t
	}
	return time.Now()
}

// WithTime pins Now for ctx.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey, t)
}
