package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"keystone/pkg/platform/httputil"
	"keystone/pkg/requestcontext"

	dErrors "keystone/pkg/domain-errors"
)

// IdentityValidator resolves a bearer token to the identity it carries.
type IdentityValidator interface {
	ValidateIdentity(tokenString string) (string, error)
}

// Identity binds the caller's identity to the request. Requests without an
// Authorization header continue as guests; a present but invalid bearer is
// rejected with 401.
func Identity(validator IdentityValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok || token == "" {
				logger.WarnContext(ctx, "unauthorized access - malformed authorization header",
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "Missing or invalid Authorization header"))
				return
			}
			identity, err := validator.ValidateIdentity(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "Invalid or expired token"))
				return
			}

			ctx = requestcontext.WithIdentity(ctx, identity)
			ctx = requestcontext.WithBearerToken(ctx, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
