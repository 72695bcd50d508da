package middleware

import (
	"net/http"
	"strings"
)

// APICSP is the policy for JSON and download responses: nothing may be loaded or framed.
const APICSP = "default-src 'none'; frame-ancestors 'none'"

const hstsValue = "max-age=31536000; includeSubDomains"

// SecurityHeaders sets the fixed response headers of the API.
type SecurityHeaders struct {
	// HSTS adds Strict-Transport-Security; enable only when served over https.
	HSTS bool
	// CSP is sent as Content-Security-Policy when not empty.
	CSP string
	// PrivatePrefixes are paths whose responses must never be cached even
	// without an Authorization header, such as capability-link downloads.
	PrivatePrefixes []string
}

func (s SecurityHeaders) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Frame-Options", "DENY")
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Permissions-Policy", "camera=(), microphone=(), geolocation=(), payment=()")
		h.Set("Cross-Origin-Resource-Policy", "same-site")

		if s.private(r) {
			h.Set("Cache-Control", "no-store")
		}
		if s.CSP != "" {
			h.Set("Content-Security-Policy", s.CSP)
		}
		if s.HSTS {
			h.Set("Strict-Transport-Security", hstsValue)
		}

		next.ServeHTTP(w, r)
	})
}

func (s SecurityHeaders) private(r *http.Request) bool {
	if r.Header.Get("Authorization") != "" {
		return true
	}
	for _, prefix := range s.PrivatePrefixes {
		if strings.HasPrefix(r.URL.Path, prefix) {
			return true
		}
	}
	return false
}
