package ratelimit

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"

	dErrors "keystone/pkg/domain-errors"
	"keystone/pkg/platform/httputil"
	"keystone/pkg/platform/middleware/metadata"
	"keystone/pkg/requestcontext"
)

// Middleware limits each caller, keyed by identity when signed in and by
// client IP otherwise.
func Middleware(w *Window, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			key := callerKey(r)
			res := w.Allow(key)

			rw.Header().Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
			rw.Header().Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
			rw.Header().Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))

			if !res.Allowed {
				logger.WarnContext(ctx, "rate limit exceeded",
					"request_id", requestcontext.RequestID(ctx),
					"path", r.URL.Path,
				)
				rw.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(res.RetryAfter.Seconds()))))
				httputil.WriteError(rw, dErrors.New(dErrors.CodeRateLimited, "Too many requests. Please try again later."))
				return
			}
			next.ServeHTTP(rw, r)
		})
	}
}

func callerKey(r *http.Request) string {
	if id := requestcontext.Identity(r.Context()); id != "" {
		return "identity:" + id
	}
	ip := metadata.GetClientIP(r.Context())
	if ip == "" {
		ip = metadata.ClientIPFromRequest(r)
	}
	return "ip:" + ip
}
