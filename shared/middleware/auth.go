package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/ligaac/practica/shared/domain"
	internal_errors "github.com/ligaac/practica/shared/errors"
	"github.com/ligaac/practica/shared/logger"
	"github.com/ligaac/practica/shared/utils"
)

// TokenValidator resolves a bearer key to its owner.
type TokenValidator interface {
	Validate(ctx context.Context, key string) (domain.User, error)
}

type key int

const (
	UserClaimsKey key = iota
	TokenKey
)

// Auth holds dependencies for authentication middleware
type Auth struct {
	tokens TokenValidator
}

func NewAuth(tokens TokenValidator) *Auth {
	return &Auth{tokens: tokens}
}

type role int

const (
	anyUser role = iota
	staff
	superuser
)

// NeedAuth returns middleware that requires a valid bearer token
func (a *Auth) NeedAuth() func(http.Handler) http.Handler {
	return a.auth(anyUser)
}

// StaffOnly requires a staff or superuser account
func (a *Auth) StaffOnly() func(http.Handler) http.Handler {
	return a.auth(staff)
}

func (a *Auth) SuperuserOnly() func(http.Handler) http.Handler {
	return a.auth(superuser)
}

// OptionalAuth populates the user context if the token is valid, but doesn't require auth.
// Invalid or expired tokens are treated as anonymous.
func (a *Auth) OptionalAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, tokenKey, err := a.extractUser(r)
			if err != nil {
				if err != errNoToken && !internal_errors.Is[*internal_errors.TokenError](err) {
					logger.Log.Error("token lookup failed", "error", err)
				}
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(withUser(r.Context(), user, tokenKey)))
		})
	}
}

// BearerToken extracts the key from "Authorization: Bearer <key>". The scheme is case-insensitive.
func BearerToken(r *http.Request) string {
	fields := strings.Fields(r.Header.Get("Authorization"))
	if len(fields) != 2 || !strings.EqualFold(fields[0], "bearer") {
		return ""
	}
	return fields[1]
}

func (a *Auth) extractUser(r *http.Request) (*domain.User, string, error) {
	tokenKey := BearerToken(r)
	if tokenKey == "" {
		return nil, "", errNoToken
	}
	user, err := a.tokens.Validate(r.Context(), tokenKey)
	if err != nil {
		return nil, "", err
	}
	return &user, tokenKey, nil
}

var errNoToken = errorString("no token")

type errorString string

func (e errorString) Error() string { return string(e) }

func (a *Auth) auth(required role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, tokenKey, err := a.extractUser(r)
			if err != nil {
				if err == errNoToken {
					http.Error(w, "Please sign-in", http.StatusUnauthorized)
					return
				}
				utils.WriteErrorAndStatusCode(w, err)
				return
			}

			switch {
			case required == staff && !user.HasAdminAccess():
				utils.WriteErrorAndStatusCode(w, internal_errors.ErrInsufficientRole)
				return
			case required == superuser && !user.IsSuperuser:
				http.Error(w, "Access denied. Only for superusers", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r.WithContext(withUser(r.Context(), user, tokenKey)))
		})
	}
}

func withUser(ctx context.Context, user *domain.User, tokenKey string) context.Context {
	ctx = context.WithValue(ctx, UserClaimsKey, user)
	return context.WithValue(ctx, TokenKey, tokenKey)
}

// GetUserFromContext retrieves the user from the context
func GetUserFromContext(r *http.Request) *domain.User {
	user, ok := r.Context().Value(UserClaimsKey).(*domain.User)
	if !ok {
		return nil
	}
	return user
}

// GetTokenFromContext returns the bearer key the request was authenticated with.
func GetTokenFromContext(r *http.Request) string {
	tokenKey, _ := r.Context().Value(TokenKey).(string)
	return tokenKey
}
