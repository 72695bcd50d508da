package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/ligaac/practica/shared/logger"
)

const readyTimeout = 2 * time.Second

// Readiness combines checks; every check runs and the failures are joined.
type Readiness []HealthChecker

func (r Readiness) Ping(ctx context.Context) error {
	var errs []error
	for _, c := range r {
		if err := c.Ping(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func writeStatus(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

// Health answers as long as the process serves HTTP.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeStatus(w, http.StatusOK, "ok")
}

// Ready is 200 once PostgreSQL and the media root answer, 503 otherwise.
// The cause is logged, never returned.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	if err := h.health.Ping(ctx); err != nil {
		logger.Log.Warn("readiness check failed", "error", err)
		writeStatus(w, http.StatusServiceUnavailable, "not ready")
		return
	}
	writeStatus(w, http.StatusOK, "ok")
}
