package middleware

import (
	"net/http"
	"strings"
)

// StripCookies drops the Cookie request header and any Set-Cookie response header
// for paths under one of prefixes.
func StripCookies(prefixes ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !hasAnyPrefix(r.URL.Path, prefixes) {
				next.ServeHTTP(w, r)
				return
			}
			r.Header.Del("Cookie")
			next.ServeHTTP(&cookielessWriter{ResponseWriter: w}, r)
		})
	}
}

func hasAnyPrefix(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

type cookielessWriter struct {
	http.ResponseWriter
	wroteHeader bool
}

func (w *cookielessWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.wroteHeader = true
		w.Header().Del("Set-Cookie")
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *cookielessWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

func (w *cookielessWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
