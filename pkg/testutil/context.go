package testutil

import (
	"net/http"

	"keystone/pkg/requestcontext"
)

// WithIdentity binds identity to req the way the identity middleware does for
// a valid bearer token.
func WithIdentity(req *http.Request, identity, token string) *http.Request {
	ctx := requestcontext.WithIdentity(req.Context(), identity)
	if token != "" {
		ctx = requestcontext.WithBearerToken(ctx, token)
	}
	return req.WithContext(ctx)
}
