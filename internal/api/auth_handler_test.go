package api

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/takeatask-api/internal/domain"
	"github.com/phrazzld/takeatask-api/internal/service/auth"
)

func TestAuthHandler_Register(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	rec := h.do(http.MethodPost, "/api/auth/register", nil, RegisterRequest{
		Name:     "Dana Scully",
		Login:    "dana",
		Email:    "dana@example.com",
		Password: "trustno1",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	resp := decode[AuthResponse](t, rec)
	assert.Equal(t, "access-token", resp.AccessToken)
	assert.Equal(t, "refresh-token", resp.RefreshToken)
	assert.NotEmpty(t, resp.ExpiresAt)
	assert.Equal(t, "dana", resp.User.Login)
	assert.Equal(t, domain.RoleStandardUser, resp.User.Role)

	t.Run("duplicate login", func(t *testing.T) {
		rec := h.do(http.MethodPost, "/api/auth/register", nil, RegisterRequest{
			Name:     "Another Alice",
			Login:    "alice",
			Email:    "other@example.com",
			Password: "secret123",
		})
		requireError(t, rec, http.StatusConflict, "Login already exists")
	})

	t.Run("short password", func(t *testing.T) {
		rec := h.do(http.MethodPost, "/api/auth/register", nil, RegisterRequest{
			Name:     "Fox Mulder",
			Login:    "fox",
			Email:    "fox@example.com",
			Password: "123",
		})
		requireError(t, rec, http.StatusBadRequest, "Invalid password: too short")
	})

	t.Run("malformed body", func(t *testing.T) {
		rec := h.do(http.MethodPost, "/api/auth/register", nil, "{")
		requireError(t, rec, http.StatusBadRequest, "Invalid request format")
	})
}

func TestAuthHandler_Login(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.addUser("Ina Active", "inactive", domain.RoleStandardUser, false)

	tests := []struct {
		name     string
		login    string
		password string
		status   int
		message  string
	}{
		{name: "valid", login: "alice", password: testPassword, status: http.StatusOK},
		{name: "wrong password", login: "alice", password: "wrong-pass", status: http.StatusUnauthorized, message: "Invalid credentials"},
		{name: "unknown login", login: "nobody", password: testPassword, status: http.StatusUnauthorized, message: "Invalid credentials"},
		{name: "inactive account", login: "inactive", password: testPassword, status: http.StatusUnauthorized, message: "Account is inactive"},
		{name: "missing password", login: "alice", status: http.StatusBadRequest, message: "Invalid password: required field"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := h.do(http.MethodPost, "/api/auth/login", nil, LoginRequest{Login: tt.login, Password: tt.password})
			if tt.message != "" {
				requireError(t, rec, tt.status, tt.message)
				return
			}
			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			resp := decode[AuthResponse](t, rec)
			assert.Equal(t, h.alice.ID, resp.User.ID)
			assert.Equal(t, "access-token", resp.AccessToken)
		})
	}
}

func TestAuthHandler_Login_TokenFailure(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.jwt.Err = errors.New("signing key unavailable")

	rec := h.do(http.MethodPost, "/api/auth/login", nil, LoginRequest{Login: "alice", Password: testPassword})
	requireError(t, rec, http.StatusInternalServerError, "Failed to generate authentication token")
}

func TestAuthHandler_RefreshToken(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	inactive := h.addUser("Ina Active", "inactive", domain.RoleStandardUser, false)

	claimsFor := func(id int64) func(context.Context, string) (*auth.Claims, error) {
		return func(context.Context, string) (*auth.Claims, error) {
			return &auth.Claims{UserID: id, TokenType: "refresh"}, nil
		}
	}

	tests := []struct {
		name     string
		validate func(context.Context, string) (*auth.Claims, error)
		status   int
		message  string
	}{
		{name: "valid", validate: claimsFor(h.bob.ID), status: http.StatusOK},
		{
			name: "expired",
			validate: func(context.Context, string) (*auth.Claims, error) {
				return nil, auth.ErrExpiredRefreshToken
			},
			status:  http.StatusUnauthorized,
			message: "Invalid refresh token",
		},
		{name: "deleted user", validate: claimsFor(9999), status: http.StatusUnauthorized, message: "Invalid refresh token"},
		{name: "inactive user", validate: claimsFor(inactive.ID), status: http.StatusUnauthorized, message: "Account is inactive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h.jwt.ValidateRefreshTokenFn = tt.validate
			rec := h.do(http.MethodPost, "/api/auth/refresh", nil, RefreshTokenRequest{RefreshToken: "some-token"})
			if tt.message != "" {
				requireError(t, rec, tt.status, tt.message)
				return
			}
			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Equal(t, h.bob.ID, decode[AuthResponse](t, rec).User.ID)
		})
	}
}
