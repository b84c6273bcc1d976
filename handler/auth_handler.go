package handler

import (
	"context"
	"errors"
	"go-auth-api/common"
	"go-auth-api/logger"
	"go-auth-api/model"
	"go-auth-api/service"
	"net/http"

	"github.com/sirupsen/logrus"
)

// AuthService is the part of service.AuthService the HTTP layer drives.
type AuthService interface {
	Signup(ctx context.Context, name, email, password string) (*model.Session, error)
	Login(ctx context.Context, email, password string) (*model.Session, error)
	RefreshSession(ctx context.Context, accessToken, refreshToken string) (*model.Session, error)
	Logout(ctx context.Context, userID int) error
	GetProfile(ctx context.Context, userID int) (*model.Profile, error)
	IsEmailAvailable(ctx context.Context, email string) (bool, error)
	ChangePassword(ctx context.Context, userID int, currentPassword, newPassword string) error
}

type AuthHandler struct {
	service AuthService
}

func NewAuthHandler(service AuthService) *AuthHandler {
	return &AuthHandler{service: service}
}

// Signup godoc
// @Summary      Register a new user
// @Description  Creates an active account and returns a fresh session.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request  body      model.SignupRequest  true  "Signup payload"
// @Success      201      {object}  model.Session
// @Failure      400      {object}  common.AppError
// @Failure      500      {object}  common.AppError
// @Router       /api/auth/signup [post]
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.SignupRequest
	if appErr := common.ValidateAndDecode(w, r, &req); appErr != nil {
		return appErr
	}

	session, err := h.service.Signup(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		return authError(err)
	}

	common.WriteJSON(w, http.StatusCreated, session)
	return nil
}

// Login godoc
// @Summary      Log in with email and password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request  body      model.LoginRequest  true  "Credentials"
// @Success      200      {object}  model.Session
// @Failure      400      {object}  common.AppError
// @Failure      401      {object}  common.AppError
// @Router       /api/auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.LoginRequest
	if appErr := common.ValidateAndDecode(w, r, &req); appErr != nil {
		return appErr
	}

	session, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		return authError(err)
	}

	common.WriteJSON(w, http.StatusOK, session)
	return nil
}

// RefreshToken godoc
// @Summary      Rotate the session tokens
// @Description  Exchanges a signed (possibly expired) access token and the current refresh token for a new pair.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request  body      model.RefreshTokenRequest  true  "Current tokens"
// @Success      200      {object}  model.Session
// @Failure      401      {object}  common.AppError
// @Router       /api/auth/refresh-token [post]
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.RefreshTokenRequest
	if appErr := common.ValidateAndDecode(w, r, &req); appErr != nil {
		return appErr
	}

	session, err := h.service.RefreshSession(r.Context(), req.AccessToken, req.RefreshToken)
	if err != nil {
		return authError(err)
	}

	common.WriteJSON(w, http.StatusOK, session)
	return nil
}

// Logout godoc
// @Summary      Revoke the refresh token
// @Description  The access token stays valid until it expires.
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  model.MessageResponse
// @Failure      401  {object}  common.AppError
// @Router       /api/auth/logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) *common.AppError {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		return common.NewAppError(http.StatusUnauthorized, "Invalid user ID in token", nil)
	}

	if err := h.service.Logout(r.Context(), userID); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return common.NewAppError(http.StatusUnauthorized, "Invalid user ID in token", nil)
		}
		return authError(err)
	}

	common.WriteJSON(w, http.StatusOK, model.MessageResponse{Message: "Logged out successfully"})
	return nil
}

// Profile godoc
// @Summary      Current user's profile
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  model.Profile
// @Failure      401  {object}  common.AppError
// @Failure      404  {object}  common.AppError
// @Router       /api/auth/profile [get]
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) *common.AppError {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		return common.NewAppError(http.StatusUnauthorized, "Invalid user ID in token", nil)
	}

	profile, err := h.service.GetProfile(r.Context(), userID)
	if err != nil {
		return authError(err)
	}

	common.WriteJSON(w, http.StatusOK, profile)
	return nil
}

// CheckEmail godoc
// @Summary      Check whether an email is free to register
// @Tags         auth
// @Produce      json
// @Param        email  query     string  true  "Email address"
// @Success      200    {object}  model.EmailAvailabilityResponse
// @Failure      400    {object}  common.AppError
// @Router       /api/auth/check-email [get]
func (h *AuthHandler) CheckEmail(w http.ResponseWriter, r *http.Request) *common.AppError {
	email := r.URL.Query().Get("email")
	if email == "" {
		return common.NewAppError(http.StatusBadRequest, "email query parameter is required", nil)
	}

	available, err := h.service.IsEmailAvailable(r.Context(), email)
	if err != nil {
		return authError(err)
	}

	common.WriteJSON(w, http.StatusOK, model.EmailAvailabilityResponse{Available: available})
	return nil
}

// ChangePassword godoc
// @Summary      Change the current user's password
// @Description  Revokes the refresh token, so every session must log in again.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      model.ChangePasswordRequest  true  "Current and new password"
// @Success      200      {object}  model.MessageResponse
// @Failure      400      {object}  common.AppError
// @Failure      401      {object}  common.AppError
// @Failure      404      {object}  common.AppError
// @Router       /api/auth/change-password [post]
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) *common.AppError {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		return common.NewAppError(http.StatusUnauthorized, "Invalid user ID in token", nil)
	}

	var req model.ChangePasswordRequest
	if appErr := common.ValidateAndDecode(w, r, &req); appErr != nil {
		return appErr
	}

	if err := h.service.ChangePassword(r.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		return authError(err)
	}

	common.WriteJSON(w, http.StatusOK, model.MessageResponse{Message: "Password changed successfully"})
	return nil
}

// authError maps service failures to HTTP responses.
func authError(err error) *common.AppError {
	switch {
	case errors.Is(err, service.ErrDuplicateEmail):
		return common.NewAppError(http.StatusBadRequest, "Email is already registered", nil)
	case errors.Is(err, service.ErrInvalidName):
		return common.NewAppError(http.StatusBadRequest, "Name must contain visible text", nil)
	case errors.Is(err, service.ErrPasswordTooLong):
		return common.NewAppError(http.StatusBadRequest, "Password must not exceed 72 bytes", nil)
	case errors.Is(err, service.ErrInvalidCredentials):
		return common.NewAppError(http.StatusUnauthorized, "Invalid email or password", nil)
	case errors.Is(err, service.ErrInactiveAccount):
		return common.NewAppError(http.StatusUnauthorized, "Account is inactive", nil)
	case errors.Is(err, service.ErrInvalidToken):
		return common.NewAppError(http.StatusUnauthorized, "Invalid access token", nil)
	case errors.Is(err, service.ErrInvalidRefreshToken):
		return common.NewAppError(http.StatusUnauthorized, "Invalid or expired refresh token", nil)
	case errors.Is(err, service.ErrNotFound):
		return common.NewAppError(http.StatusNotFound, "User not found", nil)
	case errors.Is(err, service.ErrTransientStorage):
		// Already logged with context by the service.
		return common.NewAppError(http.StatusInternalServerError, "Internal server error", nil)
	default:
		logger.Log.WithFields(logrus.Fields{"error": err.Error()}).Error("Unexpected auth failure")
		return common.NewAppError(http.StatusInternalServerError, "Internal server error", nil)
	}
}
