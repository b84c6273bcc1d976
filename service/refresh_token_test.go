package service

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRefreshTokenStore struct{ mock.Mock }

func (m *mockRefreshTokenStore) UpdateRefreshToken(ctx context.Context, userID int, token string, expiry time.Time) error {
	args := m.Called(ctx, userID, token, expiry)
	return args.Error(0)
}

func (m *mockRefreshTokenStore) RevokeRefreshToken(ctx context.Context, userID int) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func TestRefreshTokenManager_Generate(t *testing.T) {
	manager := NewRefreshTokenManager(nil)

	token, err := manager.Generate()
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(token)
	require.NoError(t, err)
	assert.Len(t, raw, 64)

	other, err := manager.Generate()
	require.NoError(t, err)
	assert.NotEqual(t, token, other)
}

func TestRefreshTokenManager_GenerateRandomFailure(t *testing.T) {
	manager := NewRefreshTokenManager(nil)
	manager.random = strings.NewReader("too short")

	_, err := manager.Generate()
	assert.Error(t, err)
}

func TestRefreshTokenManager_IssueDoesNotStore(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := new(mockRefreshTokenStore)
	manager := NewRefreshTokenManager(store)
	manager.now = func() time.Time { return now }

	token, expiry, err := manager.Issue()

	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, now.Add(RefreshTokenLifetime), expiry)
	store.AssertNotCalled(t, "UpdateRefreshToken", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRefreshTokenManager_Rotate(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := new(mockRefreshTokenStore)
	manager := NewRefreshTokenManager(store)
	manager.now = func() time.Time { return now }

	t.Run("success", func(t *testing.T) {
		wantExpiry := now.Add(7 * 24 * time.Hour)
		store.On("UpdateRefreshToken", ctx, 5, mock.AnythingOfType("string"), wantExpiry).Return(nil).Once()

		token, expiry, err := manager.Rotate(ctx, 5)

		require.NoError(t, err)
		assert.NotEmpty(t, token)
		assert.Equal(t, wantExpiry, expiry)
		store.AssertExpectations(t)
	})

	t.Run("store error", func(t *testing.T) {
		storeErr := errors.New("connection refused")
		store.On("UpdateRefreshToken", ctx, 6, mock.Anything, mock.Anything).Return(storeErr).Once()

		token, _, err := manager.Rotate(ctx, 6)

		assert.ErrorIs(t, err, storeErr)
		assert.Empty(t, token)
		store.AssertExpectations(t)
	})
}

func TestRefreshTokenManager_Revoke(t *testing.T) {
	ctx := context.Background()
	store := new(mockRefreshTokenStore)
	manager := NewRefreshTokenManager(store)

	store.On("RevokeRefreshToken", ctx, 9).Return(nil).Once()

	assert.NoError(t, manager.Revoke(ctx, 9))
	store.AssertExpectations(t)
}
