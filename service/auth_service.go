package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"go-auth-api/logger"
	"go-auth-api/metrics"
	"go-auth-api/model"
	"go-auth-api/repository"
	"html"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/sirupsen/logrus"
)

var (
	ErrDuplicateEmail      = errors.New("email is already registered")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrInactiveAccount     = errors.New("account is inactive")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrNotFound            = errors.New("user not found")
	ErrInvalidName         = errors.New("name is empty after removing markup")
	// ErrTransientStorage hides credential store failures from callers.
	// The underlying error is logged where it is detected.
	ErrTransientStorage = errors.New("credential store unavailable")
)

// AuthService runs the session lifecycle: signup, login, refresh, logout,
// profile and email lookups, password change.
type AuthService struct {
	users     repository.IUserRepository
	hasher    *PasswordHasher
	tokens    *TokenIssuer
	refresh   *RefreshTokenManager
	cache     ProfileCache
	metrics   metrics.AuthRecorder
	sanitizer *bluemonday.Policy
	now       func() time.Time
}

type AuthServiceOption func(*AuthService)

// WithProfileCache puts a cache in front of GetProfile.
func WithProfileCache(cache ProfileCache) AuthServiceOption {
	return func(s *AuthService) {
		if cache != nil {
			s.cache = cache
		}
	}
}

func WithMetrics(recorder metrics.AuthRecorder) AuthServiceOption {
	return func(s *AuthService) {
		if recorder != nil {
			s.metrics = recorder
		}
	}
}

func NewAuthService(users repository.IUserRepository, hasher *PasswordHasher, tokens *TokenIssuer, refresh *RefreshTokenManager, opts ...AuthServiceOption) *AuthService {
	s := &AuthService{
		users:     users,
		hasher:    hasher,
		tokens:    tokens,
		refresh:   refresh,
		cache:     noProfileCache{},
		metrics:   metrics.Nop{},
		sanitizer: bluemonday.StrictPolicy(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Signup registers an active user and opens a session for it.
func (s *AuthService) Signup(ctx context.Context, name, email, password string) (session *model.Session, err error) {
	defer s.observe("signup", time.Now(), &err)

	name = s.cleanName(name)
	if name == "" {
		return nil, ErrInvalidName
	}

	exists, err := s.users.EmailExists(ctx, email)
	if err != nil {
		return nil, s.storageFailure("signup", 0, err)
	}
	if exists {
		return nil, ErrDuplicateEmail
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}
	refreshToken, refreshExpiry, err := s.refresh.Issue()
	if err != nil {
		return nil, err
	}

	// The session state goes in with the row, so a failed insert leaves
	// nothing behind and the client can simply retry.
	now := s.now().UTC()
	user := &model.User{
		Name:               name,
		Email:              email,
		PasswordHash:       hash,
		IsActive:           true,
		LastLoginAt:        &now,
		RefreshToken:       &refreshToken,
		RefreshTokenExpiry: &refreshExpiry,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		// Lost a race with a concurrent signup for the same email.
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrDuplicateEmail
		}
		return nil, s.storageFailure("signup", 0, err)
	}

	accessToken, tokenExpiry, err := s.tokens.IssueAccessToken(user)
	if err != nil {
		return nil, err
	}
	session = newSession(user, accessToken, tokenExpiry, refreshToken, refreshExpiry)

	logger.Log.WithFields(logrus.Fields{
		"user_id": user.ID,
		"email":   user.Email,
	}).Info("User signed up")
	return session, nil
}

// Login authenticates by email and password. Unknown emails and wrong
// passwords fail identically with ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (session *model.Session, err error) {
	defer s.observe("login", time.Now(), &err)

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, s.storageFailure("login", 0, err)
	}
	if user == nil {
		s.hasher.VerifyDummy(password)
		logger.Log.WithField("email", email).Info("Login failed")
		return nil, ErrInvalidCredentials
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		logger.Log.WithField("email", email).Info("Login failed")
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrInactiveAccount
	}

	session, err = s.openSession(ctx, "login", user)
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, user.ID)

	logger.Log.WithFields(logrus.Fields{
		"user_id": user.ID,
		"email":   user.Email,
	}).Info("User logged in")
	return session, nil
}

// RefreshSession trades a correctly signed (possibly expired) access token
// and the refresh token currently stored for its subject for a new pair.
// The presented refresh token is dead afterwards.
//
// Two concurrent calls with the same refresh token can both pass the check;
// each then overwrites the stored token and the last write wins.
func (s *AuthService) RefreshSession(ctx context.Context, accessToken, refreshToken string) (session *model.Session, err error) {
	defer s.observe("refresh", time.Now(), &err)

	claims, err := s.tokens.VerifySignatureIgnoringExpiry(accessToken)
	if err != nil {
		return nil, err
	}
	userID, err := claims.UserID()
	if err != nil {
		return nil, ErrInvalidToken
	}

	holder, err := s.users.GetUserByRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, s.storageFailure("refresh", userID, err)
	}
	if !s.holdsValidRefreshToken(holder, userID, refreshToken) {
		logger.Log.WithField("user_id", userID).Info("Refresh token rejected")
		return nil, ErrInvalidRefreshToken
	}

	return s.openSession(ctx, "refresh", holder)
}

func (s *AuthService) holdsValidRefreshToken(holder *model.User, userID int, presented string) bool {
	if holder == nil || holder.ID != userID {
		return false
	}
	if holder.RefreshToken == nil || holder.RefreshTokenExpiry == nil {
		return false
	}
	if subtle.ConstantTimeCompare([]byte(*holder.RefreshToken), []byte(presented)) != 1 {
		return false
	}
	return s.now().Before(*holder.RefreshTokenExpiry)
}

// Logout revokes the user's refresh token. Access tokens already issued stay
// valid until they expire.
func (s *AuthService) Logout(ctx context.Context, userID int) (err error) {
	defer s.observe("logout", time.Now(), &err)

	if err := s.refresh.Revoke(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrNotFound
		}
		return s.storageFailure("logout", userID, err)
	}

	logger.Log.WithField("user_id", userID).Info("User logged out")
	return nil
}

func (s *AuthService) GetProfile(ctx context.Context, userID int) (profile *model.Profile, err error) {
	defer s.observe("profile", time.Now(), &err)

	if cached, ok := s.cache.GetProfile(ctx, userID); ok {
		return cached, nil
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, s.storageFailure("profile", userID, err)
	}
	if user == nil {
		return nil, ErrNotFound
	}

	profile = user.Profile()
	s.cache.SetProfile(ctx, profile)
	return profile, nil
}

// IsEmailAvailable reports whether no user holds email. It has no side effects.
func (s *AuthService) IsEmailAvailable(ctx context.Context, email string) (bool, error) {
	exists, err := s.users.EmailExists(ctx, email)
	if err != nil {
		return false, s.storageFailure("check_email", 0, err)
	}
	return !exists, nil
}

// ChangePassword replaces the password after checking the current one and
// revokes the refresh token, so other sessions must log in again.
func (s *AuthService) ChangePassword(ctx context.Context, userID int, currentPassword, newPassword string) (err error) {
	defer s.observe("change_password", time.Now(), &err)

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return s.storageFailure("change_password", userID, err)
	}
	if user == nil {
		return ErrNotFound
	}
	if !s.hasher.Verify(currentPassword, user.PasswordHash) {
		return ErrInvalidCredentials
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrNotFound
		}
		return s.storageFailure("change_password", userID, err)
	}
	if err := s.refresh.Revoke(ctx, userID); err != nil {
		return s.storageFailure("change_password", userID, err)
	}

	logger.Log.WithField("user_id", userID).Info("Password changed")
	return nil
}

// openSession issues an access token, rotates the refresh token and records
// the login time.
func (s *AuthService) openSession(ctx context.Context, op string, user *model.User) (*model.Session, error) {
	accessToken, tokenExpiry, err := s.tokens.IssueAccessToken(user)
	if err != nil {
		return nil, err
	}

	refreshToken, refreshExpiry, err := s.refresh.Rotate(ctx, user.ID)
	if err != nil {
		return nil, s.storageFailure(op, user.ID, err)
	}

	if op != "refresh" {
		now := s.now().UTC()
		if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
			return nil, s.storageFailure(op, user.ID, err)
		}
	}

	return newSession(user, accessToken, tokenExpiry, refreshToken, refreshExpiry), nil
}

func newSession(user *model.User, accessToken string, tokenExpiry time.Time, refreshToken string, refreshExpiry time.Time) *model.Session {
	return &model.Session{
		ID:                 user.ID,
		Name:               user.Name,
		Email:              user.Email,
		AccessToken:        accessToken,
		RefreshToken:       refreshToken,
		TokenExpiry:        tokenExpiry,
		RefreshTokenExpiry: refreshExpiry,
		CreatedAt:          user.CreatedAt,
		ProfileImageURL:    user.ProfileImageURL,
	}
}

func (s *AuthService) cleanName(name string) string {
	return strings.TrimSpace(html.UnescapeString(s.sanitizer.Sanitize(name)))
}

func (s *AuthService) storageFailure(op string, userID int, err error) error {
	entry := logger.Log.WithError(err).WithField("operation", op)
	if userID != 0 {
		entry = entry.WithField("user_id", userID)
	}
	entry.Error("Credential store operation failed")
	return fmt.Errorf("%s: %w", op, ErrTransientStorage)
}

func (s *AuthService) observe(op string, start time.Time, err *error) {
	s.metrics.ObserveAuthOperation(op, outcome(*err), time.Since(start))
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrDuplicateEmail):
		return "duplicate_email"
	case errors.Is(err, ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, ErrInactiveAccount):
		return "inactive_account"
	case errors.Is(err, ErrInvalidToken):
		return "invalid_token"
	case errors.Is(err, ErrInvalidRefreshToken):
		return "invalid_refresh_token"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrTransientStorage):
		return "storage_error"
	default:
		return "error"
	}
}
