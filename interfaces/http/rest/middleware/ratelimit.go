package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ShreYansHSachan11/Oration-AI-CareerCounselor-sub001/pkg/auth"
	pkgerrors "github.com/ShreYansHSachan11/Oration-AI-CareerCounselor-sub001/pkg/errors"
	"github.com/ShreYansHSachan11/Oration-AI-CareerCounselor-sub001/pkg/ratelimit"
)

// RateLimit creates a middleware that throttles requests against the given
// limiter under the named endpoint. The identity is the authenticated user
// when present, otherwise the client IP. Rejections go through the shared
// error handler, which maps the rate-limit error to a 429 with a
// Retry-After header.
func RateLimit(limiter *ratelimit.Limiter, endpoint string, errorHandler *pkgerrors.ErrorHandler) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := requestIdentity(r)

			if err := limiter.Allow(identity, endpoint); err != nil {
				var limitErr *ratelimit.LimitExceededError
				if errors.As(err, &limitErr) {
					appErr := pkgerrors.NewRateLimitError(
						limitErr.Limit,
						limitErr.Window.String(),
						limitErr.RetryAfterSeconds(),
					).WithCode("TOO_MANY_REQUESTS")
					errorHandler.Handle(w, r, appErr)
					return
				}

				errorHandler.Handle(w, r, err)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// requestIdentity resolves who the request counts against
func requestIdentity(r *http.Request) string {
	if user, err := auth.GetUserFromContext(r.Context()); err == nil {
		return user.UserID
	}
	return clientIP(r)
}

// clientIP extracts the client IP address
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	addr := r.RemoteAddr
	if idx := strings.LastIndex(addr, ":"); idx != -1 {
		return addr[:idx]
	}
	return addr
}
