package middleware

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	internal_errors "github.com/ligaac/practica/shared/errors"
	"github.com/ligaac/practica/shared/logger"
	"github.com/ligaac/practica/shared/middleware/ratelimiter"
	"github.com/ligaac/practica/shared/utils"
)

// maxIdentityBody caps how much of a request body is buffered to find the rate limit identity.
const maxIdentityBody = 64 << 10

// IdentityFunc names the bucket a request is charged to.
type IdentityFunc func(r *http.Request) (string, error)

// RateLimit charges every request to the bucket returned by identity.
// Staff and superusers are never limited, so they must be authenticated by an
// earlier OptionalAuth or NeedAuth for the bypass to apply.
func RateLimit(rl *ratelimiter.Limiter, identity IdentityFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if user := GetUserFromContext(r); user != nil && user.HasAdminAccess() {
				next.ServeHTTP(w, r)
				return
			}

			key, err := identity(r)
			if err != nil {
				utils.WriteErrorAndStatusCode(w, err)
				return
			}
			if ok, wait := rl.Allow(key); !ok {
				logger.Log.Debug("rate limited", "path", r.URL.Path, "method", r.Method, "retry_after", wait)
				w.Header().Set("Retry-After", retryAfterSeconds(wait))
				http.Error(w, "Too many requests, try again later", http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// retryAfterSeconds rounds up to whole seconds, never below one.
func retryAfterSeconds(wait time.Duration) string {
	return strconv.Itoa(max(1, int(math.Ceil(wait.Seconds()))))
}

// GlobalRateLimit charges every request to one shared bucket.
func GlobalRateLimit(rl *ratelimiter.Limiter) func(http.Handler) http.Handler {
	return RateLimit(rl, func(r *http.Request) (string, error) { return "global", nil })
}

// GetUserIDFromContext works only behind NeedAuth.
func GetUserIDFromContext(r *http.Request) (string, error) {
	user := GetUserFromContext(r)
	if user == nil {
		return "", &internal_errors.ErrorWithStatusCode{Message: "Please sign-in", StatusCode: http.StatusUnauthorized}
	}
	return fmt.Sprintf("user_%d", user.Id), nil
}

// GetIP takes the client address from RemoteAddr and ignores forwarding headers.
func GetIP(r *http.Request) (string, error) {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}
	if net.ParseIP(ip) == nil {
		return "", fmt.Errorf("invalid IP address: %s", ip)
	}
	return ip, nil
}

// GetProxiedIP prefers X-Real-IP, then the first valid X-Forwarded-For entry, then RemoteAddr.
// Only use it when the server sits behind a reverse proxy that overwrites those headers.
func GetProxiedIP(r *http.Request) (string, error) {
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); net.ParseIP(ip) != nil {
		return ip, nil
	}
	for _, ip := range strings.Split(r.Header.Get("X-Forwarded-For"), ",") {
		ip = strings.TrimSpace(ip)
		if net.ParseIP(ip) != nil {
			return ip, nil
		}
	}
	return GetIP(r)
}

// GetEmailFromBody keys login attempts by the lowercased e-mail of a JSON body.
// The body is restored for the handler.
func GetEmailFromBody(r *http.Request) (string, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxIdentityBody))
	if err != nil {
		return "", &internal_errors.ErrorWithStatusCode{Message: "Failed to read request body", StatusCode: http.StatusBadRequest}
	}
	r.Body = io.NopCloser(bytes.NewReader(body))

	var login struct {
		Email string `json:"email"`
	}
	if err := json.Unmarshal(body, &login); err != nil {
		return "", &internal_errors.ErrorWithStatusCode{Message: "Body is invalid json", StatusCode: http.StatusBadRequest}
	}

	email := strings.ToLower(strings.TrimSpace(login.Email))
	if email == "" {
		return "", &internal_errors.ErrorWithStatusCode{Message: "Required fields missing", StatusCode: http.StatusBadRequest}
	}
	return "email_" + email, nil
}
