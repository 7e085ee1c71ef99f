package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/angelmondragon/campground-backend/api/responses"
	pkgerrors "github.com/angelmondragon/campground-backend/pkg/errors"
	"github.com/angelmondragon/campground-backend/pkg/logger"
)

// emailPeekBytes bounds how much of the body is buffered to find the email.
const emailPeekBytes = 64 << 10

// AuthRateLimitPolicy throttles one credential endpoint. A zero limit turns
// that dimension off.
type AuthRateLimitPolicy struct {
	name       string
	window     time.Duration
	ipLimit    int
	emailLimit int
}

func NewAuthRateLimitPolicy(name string, window time.Duration, ipLimit, emailLimit int) AuthRateLimitPolicy {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = "auth"
	}
	return AuthRateLimitPolicy{name: name, window: window, ipLimit: ipLimit, emailLimit: emailLimit}
}

func (p AuthRateLimitPolicy) enabled() bool {
	return p.window > 0 && (p.ipLimit > 0 || p.emailLimit > 0)
}

func (p AuthRateLimitPolicy) quota(kind, value string, limit int) quota {
	return quota{kind: kind, scope: "auth:" + p.name + ":" + kind + ":" + value, limit: limit, window: p.window}
}

// AuthRateLimit counts attempts per client IP and per normalised email.
// Emails are stored as sha256 digests. Unlike RateLimit it fails closed.
func AuthRateLimit(policy AuthRateLimitPolicy, limiter fixedWindowLimiter, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.enabled() || limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			var quotas []quota
			if ip := clientIP(r); policy.ipLimit > 0 && ip != "" {
				quotas = append(quotas, policy.quota("ip", ip, policy.ipLimit))
			}
			if policy.emailLimit > 0 {
				email, err := peekEmail(r)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request"))
					return
				}
				if email != "" {
					quotas = append(quotas, policy.quota("email", digest(email), policy.emailLimit))
				}
			}

			for _, q := range quotas {
				if !admit(ctx, w, limiter, logg, policy.name, q) {
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// admit writes the rejection itself and reports whether the request may
// continue.
func admit(ctx context.Context, w http.ResponseWriter, limiter fixedWindowLimiter, logg *logger.Logger, policy string, q quota) bool {
	allowed, count, err := q.take(ctx, limiter, w)
	if err != nil {
		responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
		return false
	}
	if allowed {
		return true
	}
	if logg != nil {
		logg.Warn(logg.WithFields(ctx, map[string]any{
			"scope":          q.kind,
			"policy":         policy,
			"attempts":       count,
			"limit":          q.limit,
			"window_seconds": int(q.window.Seconds()),
		}), "auth.rate_limit.blocked")
	}
	responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "Too many attempts, please try again later"))
	return false
}

// peekEmail reads the email field from a JSON body and restores the body for
// the next handler. Anything past emailPeekBytes is passed through unread.
func peekEmail(r *http.Request) (string, error) {
	if r.Body == nil {
		return "", nil
	}
	head, err := io.ReadAll(io.LimitReader(r.Body, emailPeekBytes))
	if err != nil {
		return "", err
	}
	r.Body = readCloser{Reader: io.MultiReader(bytes.NewReader(head), r.Body), Closer: r.Body}

	var body struct {
		Email string `json:"email"`
	}
	if json.Unmarshal(head, &body) != nil {
		return "", nil
	}
	return strings.ToLower(strings.TrimSpace(body.Email)), nil
}

type readCloser struct {
	io.Reader
	io.Closer
}

func digest(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}
