package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/takeatask-api/internal/config"
)

const testSecret = "test-jwt-secret-that-is-32-chars-long"

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		JWTSecret:                   testSecret,
		TokenLifetimeMinutes:        60,
		RefreshTokenLifetimeMinutes: 1440,
	}
}

func newTestService(t *testing.T, now time.Time) *hmacJWTService {
	t.Helper()
	svc, err := newHMACJWTService(testAuthConfig(), func() time.Time { return now })
	require.NoError(t, err)
	return svc
}

func TestNewJWTServiceRejectsShortSecret(t *testing.T) {
	cfg := testAuthConfig()
	cfg.JWTSecret = "short"
	_, err := NewJWTService(cfg)
	assert.Error(t, err)
}

func TestGenerateAndValidateToken(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestService(t, now)
	ctx := context.Background()

	token, err := svc.GenerateToken(ctx, 42)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "42", claims.Subject)
	assert.Equal(t, TokenTypeAccess, claims.TokenType)
	assert.Equal(t, now.Unix(), claims.IssuedAt.Unix())
	assert.Equal(t, now.Add(time.Hour).Unix(), claims.ExpiresAt.Unix())
	assert.NotEmpty(t, claims.ID)
	assert.Equal(t, time.Hour, svc.AccessTokenLifetime())
}

func TestValidateTokenErrors(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()
	issuer := newTestService(t, now)

	access, err := issuer.GenerateToken(ctx, 7)
	require.NoError(t, err)
	refresh, err := issuer.GenerateRefreshToken(ctx, 7)
	require.NoError(t, err)

	otherCfg := testAuthConfig()
	otherCfg.JWTSecret = "another-secret-that-is-32-chars-long!"
	forger, err := newHMACJWTService(otherCfg, func() time.Time { return now })
	require.NoError(t, err)
	forged, err := forger.GenerateToken(ctx, 7)
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		at      time.Time
		wantErr error
	}{
		{"malformed", "not-a-token", now, ErrInvalidToken},
		{"wrong signature", forged, now, ErrInvalidToken},
		{"expired", access, now.Add(2 * time.Hour), ErrExpiredToken},
		{"within clock skew", access, now.Add(61 * time.Minute), nil},
		{"refresh used as access", refresh, now, ErrWrongTokenType},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := newTestService(t, tc.at)
			_, err := svc.ValidateToken(ctx, tc.token)
			if tc.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestValidateTokenRejectsOtherAlgorithms(t *testing.T) {
	claims := jwtCustomClaims{
		UserID:    1,
		TokenType: TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	svc := newTestService(t, time.Now())
	_, err = svc.ValidateToken(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshTokens(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()
	svc := newTestService(t, now)

	refresh, err := svc.GenerateRefreshToken(ctx, 9)
	require.NoError(t, err)
	access, err := svc.GenerateToken(ctx, 9)
	require.NoError(t, err)

	claims, err := svc.ValidateRefreshToken(ctx, refresh)
	require.NoError(t, err)
	assert.Equal(t, int64(9), claims.UserID)
	assert.Equal(t, TokenTypeRefresh, claims.TokenType)

	_, err = svc.ValidateRefreshToken(ctx, access)
	assert.ErrorIs(t, err, ErrWrongTokenType)

	_, err = svc.ValidateRefreshToken(ctx, "garbage")
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)

	later := newTestService(t, now.Add(25*time.Hour))
	_, err = later.ValidateRefreshToken(ctx, refresh)
	assert.ErrorIs(t, err, ErrExpiredRefreshToken)
}
