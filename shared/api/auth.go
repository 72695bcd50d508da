package api

import (
	"time"

	"github.com/ligaac/practica/shared/domain"
)

// Request DTOs

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LogoutRequest deletes Token (defaults to the presented token) or, with All,
// every other token of the caller. Token and All are mutually exclusive.
type LogoutRequest struct {
	Token string `json:"token,omitempty"`
	All   bool   `json:"all,omitempty"`
}

// Response DTOs

type LoginResponse struct {
	Me        domain.User `json:"me"`
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
}

type LogoutResponse struct {
	LoggedOut bool `json:"logged_out"`
}

// SessionResponse describes one active token; Key is redacted.
type SessionResponse struct {
	Key       string    `json:"key"`
	Current   bool      `json:"current"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

type SessionsResponse struct {
	Sessions []SessionResponse `json:"sessions"`
}
