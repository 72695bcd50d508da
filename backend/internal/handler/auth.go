package handler

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/ligaac/practica/shared/api"
	"github.com/ligaac/practica/shared/domain"
	mw "github.com/ligaac/practica/shared/middleware"
	"github.com/ligaac/practica/shared/logger"
	"github.com/ligaac/practica/shared/utils"
)

// Login handles POST /v1/auth/login for students, authenticated by the university directory.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	h.login(w, r, h.auth.Login)
}

// StaffLogin handles POST /v1/auth/staff/login for accounts with a local password.
func (h *Handler) StaffLogin(w http.ResponseWriter, r *http.Request) {
	h.login(w, r, h.auth.StaffLogin)
}

type loginFunc func(ctx context.Context, email, password string) (domain.User, domain.Token, error)

func (h *Handler) login(w http.ResponseWriter, r *http.Request, do loginFunc) {
	var body api.LoginRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	user, token, err := do(r.Context(), strings.TrimSpace(body.Email), body.Password)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	writeJSON(w, api.LoginResponse{Me: user, Token: token.Key, ExpiresAt: token.ExpiresAt})
}

// Logout handles POST /v1/auth/logout. The body is optional; without one the presented token is deleted.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	var body api.LogoutRequest
	raw, err := io.ReadAll(io.LimitReader(r.Body, 4<<10))
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := utils.Decode(io.NopCloser(bytes.NewReader(raw)), &body); err != nil {
			utils.WriteErrorAndStatusCode(w, err)
			return
		}
	}

	loggedOut, err := h.tokens.Logout(r.Context(), mw.GetUserFromContext(r), mw.GetTokenFromContext(r), body.Token, body.All)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	writeJSON(w, api.LogoutResponse{LoggedOut: loggedOut})
}

// Sessions handles GET /v1/auth/tokens
func (h *Handler) Sessions(w http.ResponseWriter, r *http.Request) {
	user := mw.GetUserFromContext(r)
	current := mw.GetTokenFromContext(r)

	tokens, err := h.tokens.UserTokens(r.Context(), user.Id)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	sessions := make([]api.SessionResponse, len(tokens))
	for i, t := range tokens {
		sessions[i] = api.SessionResponse{
			Key:       logger.RedactToken(t.Key),
			Current:   t.Key == current,
			CreatedAt: t.CreatedAt,
			ExpiresAt: t.ExpiresAt,
		}
	}
	writeJSON(w, api.SessionsResponse{Sessions: sessions})
}
