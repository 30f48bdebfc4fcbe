package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/phrazzld/takeatask-api/internal/api/shared"
	"github.com/phrazzld/takeatask-api/internal/domain"
	"github.com/phrazzld/takeatask-api/internal/platform/logger"
	"github.com/phrazzld/takeatask-api/internal/service"
	"github.com/phrazzld/takeatask-api/internal/service/auth"
	"github.com/phrazzld/takeatask-api/internal/store"
)

// AuthHandler handles login, self-registration and token refresh.
type AuthHandler struct {
	userStore        store.UserStore
	userService      service.UserService
	jwtService       auth.JWTService
	passwordVerifier auth.PasswordVerifier
	logger           *slog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(
	userStore store.UserStore,
	userService service.UserService,
	jwtService auth.JWTService,
	passwordVerifier auth.PasswordVerifier,
	logger *slog.Logger,
) *AuthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthHandler{
		userStore:        userStore,
		userService:      userService,
		jwtService:       jwtService,
		passwordVerifier: passwordVerifier,
		logger:           logger.With(slog.String("component", "auth_handler")),
	}
}

// Register handles POST /api/auth/register. New accounts are always
// standard users.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req RegisterRequest
	if !decodeAndValidate(w, r, log, &req) {
		return
	}

	user, err := h.userService.Register(r.Context(), req.toInput())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create user")
		return
	}

	resp, err := h.issueTokens(r.Context(), user)
	if err != nil {
		log.Error("failed to generate tokens", slog.String("error", err.Error()), slog.Int64("user_id", user.ID))
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Failed to generate authentication token")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, resp)
}

// Login handles POST /api/auth/login. Unknown logins and wrong passwords
// get the same response.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req LoginRequest
	if !decodeAndValidate(w, r, log, &req) {
		return
	}

	user, err := h.userStore.GetByLogin(r.Context(), req.Login)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			err = auth.ErrInvalidCredentials
		}
		HandleAPIError(w, r, err, "Failed to authenticate user")
		return
	}
	if err := h.passwordVerifier.Compare(user.HashedPassword, req.Password); err != nil {
		HandleAPIError(w, r, auth.ErrInvalidCredentials, "")
		return
	}
	if !user.Active {
		HandleAPIError(w, r, service.ErrInactiveUser, "")
		return
	}

	resp, err := h.issueTokens(r.Context(), user)
	if err != nil {
		log.Error("failed to generate tokens", slog.String("error", err.Error()), slog.Int64("user_id", user.ID))
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Failed to generate authentication token")
		return
	}
	log.Info("user logged in", slog.Int64("user_id", user.ID))
	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

// RefreshToken handles POST /api/auth/refresh, exchanging a refresh token
// for a new token pair.
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req RefreshTokenRequest
	if !decodeAndValidate(w, r, log, &req) {
		return
	}

	claims, err := h.jwtService.ValidateRefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to refresh token")
		return
	}
	user, err := h.userStore.GetByID(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			err = auth.ErrInvalidRefreshToken
		}
		HandleAPIError(w, r, err, "Failed to refresh token")
		return
	}
	if !user.Active {
		HandleAPIError(w, r, service.ErrInactiveUser, "")
		return
	}

	resp, err := h.issueTokens(r.Context(), user)
	if err != nil {
		log.Error("failed to generate tokens", slog.String("error", err.Error()), slog.Int64("user_id", user.ID))
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Failed to generate authentication token")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

func (h *AuthHandler) issueTokens(ctx context.Context, user *domain.User) (AuthResponse, error) {
	access, err := h.jwtService.GenerateToken(ctx, user.ID)
	if err != nil {
		return AuthResponse{}, err
	}
	refresh, err := h.jwtService.GenerateRefreshToken(ctx, user.ID)
	if err != nil {
		return AuthResponse{}, err
	}
	return AuthResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    time.Now().UTC().Add(h.jwtService.AccessTokenLifetime()).Format(time.RFC3339),
		User: UserSummary{
			ID:    user.ID,
			Name:  user.Name,
			Login: user.Login,
			Role:  user.Role,
		},
	}, nil
}
