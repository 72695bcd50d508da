package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/ligaac/practica/backend/internal/service"
	"github.com/ligaac/practica/shared/config"
	"github.com/ligaac/practica/shared/logger"
)

type HealthChecker interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	auth      service.AuthService
	tokens    service.TokenService
	students  service.StudentService
	catalogue service.CatalogueService
	admin     service.AdminService
	export    service.ExportService
	health    HealthChecker
	cfg       *config.Config
}

func New(
	auth service.AuthService,
	tokens service.TokenService,
	students service.StudentService,
	catalogue service.CatalogueService,
	admin service.AdminService,
	export service.ExportService,
	health HealthChecker,
	cfg *config.Config,
) *Handler {
	return &Handler{
		auth:      auth,
		tokens:    tokens,
		students:  students,
		catalogue: catalogue,
		admin:     admin,
		export:    export,
		health:    health,
		cfg:       cfg,
	}
}

// writeJSON encodes before writing so an encoding failure can still become a 500.
func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		logger.Log.Error("failed to encode response", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

// parseIntParam parses an integer parameter from a string and returns a meaningful error
func parseIntParam(param string, paramName string) (int, error) {
	val, err := strconv.Atoi(param)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: must be an integer", paramName)
	}
	return val, nil
}

func parseUUIDParam(param string, paramName string) (uuid.UUID, error) {
	id, err := uuid.Parse(param)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s", paramName)
	}
	return id, nil
}
