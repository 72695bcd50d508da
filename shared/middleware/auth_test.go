package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ligaac/practica/shared/domain"
	internal_errors "github.com/ligaac/practica/shared/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockValidator struct {
	ValidateFunc func(ctx context.Context, key string) (domain.User, error)
}

func (m *mockValidator) Validate(ctx context.Context, key string) (domain.User, error) {
	return m.ValidateFunc(ctx, key)
}

var (
	testStudent   = domain.User{Id: 1, Email: "ana@student.upt.ro"}
	testStaff     = domain.User{Id: 2, Email: "hr@acme.ro", IsStaff: true}
	testSuperuser = domain.User{Id: 3, Email: "root@ligaac.ro", IsStaff: true, IsSuperuser: true}
)

func testValidator() *mockValidator {
	users := map[string]domain.User{
		"student-key":   testStudent,
		"staff-key":     testStaff,
		"superuser-key": testSuperuser,
	}
	return &mockValidator{ValidateFunc: func(ctx context.Context, key string) (domain.User, error) {
		switch key {
		case "expired-key":
			return domain.User{}, &internal_errors.TokenError{Kind: internal_errors.TokenExpired}
		case "broken-key":
			return domain.User{}, errors.New("db down")
		}
		u, ok := users[key]
		if !ok {
			return domain.User{}, &internal_errors.TokenError{Kind: internal_errors.TokenNotFound}
		}
		return u, nil
	}}
}

func TestAuth(t *testing.T) {
	tests := []struct {
		name           string
		middleware     func(*Auth) func(http.Handler) http.Handler
		header         string
		expectedStatus int
		expectedUser   domain.UserId
	}{
		{"student on NeedAuth", (*Auth).NeedAuth, "Bearer student-key", http.StatusOK, testStudent.Id},
		{"scheme is case-insensitive", (*Auth).NeedAuth, "bearer student-key", http.StatusOK, testStudent.Id},
		{"no header", (*Auth).NeedAuth, "", http.StatusUnauthorized, 0},
		{"wrong scheme", (*Auth).NeedAuth, "Token student-key", http.StatusUnauthorized, 0},
		{"unknown token", (*Auth).NeedAuth, "Bearer nope", http.StatusUnauthorized, 0},
		{"expired token", (*Auth).NeedAuth, "Bearer expired-key", http.StatusUnauthorized, 0},
		{"storage failure", (*Auth).NeedAuth, "Bearer broken-key", http.StatusInternalServerError, 0},
		{"student on StaffOnly", (*Auth).StaffOnly, "Bearer student-key", http.StatusForbidden, 0},
		{"staff on StaffOnly", (*Auth).StaffOnly, "Bearer staff-key", http.StatusOK, testStaff.Id},
		{"superuser on StaffOnly", (*Auth).StaffOnly, "Bearer superuser-key", http.StatusOK, testSuperuser.Id},
		{"staff on SuperuserOnly", (*Auth).SuperuserOnly, "Bearer staff-key", http.StatusForbidden, 0},
		{"superuser on SuperuserOnly", (*Auth).SuperuserOnly, "Bearer superuser-key", http.StatusOK, testSuperuser.Id},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "http://example.com/v1/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			authMw := NewAuth(testValidator())
			handler := tt.middleware(authMw)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				user := GetUserFromContext(r)
				require.NotNil(t, user, "Auth should always propagate user thru context")
				assert.Equal(t, tt.expectedUser, user.Id)
				assert.NotEmpty(t, GetTokenFromContext(r))
				w.WriteHeader(http.StatusOK)
			}))
			handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code, "handler returned wrong status code")
		})
	}
}

func TestOptionalAuth(t *testing.T) {
	authMw := NewAuth(testValidator())

	tests := []struct {
		name         string
		header       string
		expectedUser *domain.UserId
	}{
		{"valid token", "Bearer staff-key", &testStaff.Id},
		{"no token", "", nil},
		{"invalid token is anonymous", "Bearer nope", nil},
		{"lookup failure is anonymous", "Bearer broken-key", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/v1/auth/logout", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			called := false
			handler := authMw.OptionalAuth()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				user := GetUserFromContext(r)
				if tt.expectedUser == nil {
					assert.Nil(t, user)
					assert.Empty(t, GetTokenFromContext(r))
					return
				}
				require.NotNil(t, user)
				assert.Equal(t, *tt.expectedUser, user.Id)
				assert.Equal(t, "staff-key", GetTokenFromContext(r))
			}))
			handler.ServeHTTP(httptest.NewRecorder(), req)
			assert.True(t, called)
		})
	}
}

func TestBearerToken(t *testing.T) {
	for header, want := range map[string]string{
		"Bearer abc":     "abc",
		"BEARER abc":     "abc",
		"Bearer":         "",
		"Bearer a b":     "",
		"Basic dXNlcjpw": "",
		"":               "",
	} {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Authorization", header)
		assert.Equal(t, want, BearerToken(req), header)
	}
}

func TestGetUserFromContext(t *testing.T) {
	t.Run("no user in context", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		assert.Nil(t, GetUserFromContext(req))
		assert.Empty(t, GetTokenFromContext(req))
	})

	t.Run("user in context", func(t *testing.T) {
		user := &domain.User{Id: 1, Email: "test@example.com", IsStaff: true}
		req := httptest.NewRequest("GET", "/", nil)
		req = req.WithContext(withUser(req.Context(), user, "k"))

		assert.Equal(t, user, GetUserFromContext(req))
		assert.Equal(t, "k", GetTokenFromContext(req))
	})
}
