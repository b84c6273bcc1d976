package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"time"
)

const (
	// RefreshTokenLifetime is fixed, like AccessTokenLifetime.
	RefreshTokenLifetime = 7 * 24 * time.Hour
	refreshTokenBytes    = 64
)

// RefreshTokenStore is the slice of the credential store that rotation needs.
type RefreshTokenStore interface {
	UpdateRefreshToken(ctx context.Context, userID int, token string, expiry time.Time) error
	RevokeRefreshToken(ctx context.Context, userID int) error
}

// RefreshTokenManager issues opaque refresh tokens. Each user holds at most
// one; Rotate overwrites whatever was stored before without comparing.
type RefreshTokenManager struct {
	store  RefreshTokenStore
	random io.Reader
	now    func() time.Time
}

func NewRefreshTokenManager(store RefreshTokenStore) *RefreshTokenManager {
	return &RefreshTokenManager{
		store:  store,
		random: rand.Reader,
		now:    time.Now,
	}
}

// Generate returns 64 random bytes, base64 encoded.
func (m *RefreshTokenManager) Generate() (string, error) {
	buf := make([]byte, refreshTokenBytes)
	if _, err := io.ReadFull(m.random, buf); err != nil {
		return "", fmt.Errorf("failed to generate refresh token: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf), nil
}

// Issue returns a fresh token and its expiry without storing them. Signup
// uses it to write the token together with the new user row.
func (m *RefreshTokenManager) Issue() (string, time.Time, error) {
	token, err := m.Generate()
	if err != nil {
		return "", time.Time{}, err
	}
	return token, m.now().UTC().Add(RefreshTokenLifetime), nil
}

// Rotate stores a fresh token for userID and returns it with its expiry.
func (m *RefreshTokenManager) Rotate(ctx context.Context, userID int) (string, time.Time, error) {
	token, expiry, err := m.Issue()
	if err != nil {
		return "", time.Time{}, err
	}
	if err := m.store.UpdateRefreshToken(ctx, userID, token, expiry); err != nil {
		return "", time.Time{}, err
	}
	return token, expiry, nil
}

// Revoke clears the stored token and expiry.
func (m *RefreshTokenManager) Revoke(ctx context.Context, userID int) error {
	return m.store.RevokeRefreshToken(ctx, userID)
}
