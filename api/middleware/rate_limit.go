package middleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/campground-backend/api/responses"
	pkgerrors "github.com/angelmondragon/campground-backend/pkg/errors"
	"github.com/angelmondragon/campground-backend/pkg/logger"
)

type fixedWindowLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// quota is one fixed window counted under scope.
type quota struct {
	kind   string
	scope  string
	limit  int
	window time.Duration
}

// take counts one hit and sets the X-RateLimit headers. Retry-After is only
// set when the hit is over quota.
func (q quota) take(ctx context.Context, limiter fixedWindowLimiter, w http.ResponseWriter) (bool, int64, error) {
	allowed, count, err := limiter.FixedWindowAllow(ctx, q.scope, int64(q.limit), q.window)
	if err != nil {
		return false, count, err
	}
	remaining := max(int64(q.limit)-count, 0)
	h := w.Header()
	h.Set("X-RateLimit-Limit", strconv.Itoa(q.limit))
	h.Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
	if !allowed {
		h.Set("Retry-After", retryAfter(q.window))
	}
	return allowed, count, nil
}

func retryAfter(window time.Duration) string {
	secs := int((window + time.Second - 1) / time.Second)
	return strconv.Itoa(max(secs, 1))
}

// RateLimit applies a per-IP fixed window across the whole API. A limiter
// error lets the request through.
func RateLimit(limiter fixedWindowLimiter, limit int, window time.Duration, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil || limit <= 0 || window <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			ip := clientIP(r)
			q := quota{kind: "ip", scope: "global:ip:" + ip, limit: limit, window: window}

			allowed, count, err := q.take(ctx, limiter, w)
			switch {
			case err != nil:
				if logg != nil {
					logg.Error(ctx, "rate_limit.unavailable", err)
				}
			case !allowed:
				if logg != nil {
					logg.Warn(logg.WithFields(ctx, map[string]any{
						"ip":       ip,
						"attempts": count,
						"limit":    limit,
					}), "rate_limit.blocked")
				}
				responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "Too many requests, please try again later"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP prefers the first X-Forwarded-For hop, then X-Real-IP, then the
// socket peer.
func clientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}
