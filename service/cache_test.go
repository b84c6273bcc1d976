package service

import (
	"context"
	"encoding/json"
	"errors"
	"go-auth-api/model"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockCacheClient struct{ mock.Mock }

func (m *mockCacheClient) Get(ctx context.Context, key string) *redis.StringCmd {
	args := m.Called(ctx, key)
	return args.Get(0).(*redis.StringCmd)
}

func (m *mockCacheClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	args := m.Called(ctx, key, value, expiration)
	return args.Get(0).(*redis.StatusCmd)
}

func (m *mockCacheClient) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	args := m.Called(ctx, keys)
	return args.Get(0).(*redis.IntCmd)
}

func TestRedisProfileCache_GetProfile(t *testing.T) {
	ctx := context.Background()
	client := new(mockCacheClient)
	cache := NewRedisProfileCache(client, 10*time.Minute)

	t.Run("hit", func(t *testing.T) {
		want := &model.Profile{ID: 3, Name: "Asha", Email: "asha@example.com", IsActive: true}
		data, err := json.Marshal(want)
		require.NoError(t, err)
		client.On("Get", ctx, "profile:3").Return(redis.NewStringResult(string(data), nil)).Once()

		got, ok := cache.GetProfile(ctx, 3)

		assert.True(t, ok)
		assert.Equal(t, want.Email, got.Email)
		assert.Equal(t, want.Name, got.Name)
		client.AssertExpectations(t)
	})

	t.Run("miss", func(t *testing.T) {
		client.On("Get", ctx, "profile:4").Return(redis.NewStringResult("", redis.Nil)).Once()

		got, ok := cache.GetProfile(ctx, 4)

		assert.False(t, ok)
		assert.Nil(t, got)
	})

	t.Run("redis down", func(t *testing.T) {
		client.On("Get", ctx, "profile:5").Return(redis.NewStringResult("", errors.New("dial tcp: refused"))).Once()

		_, ok := cache.GetProfile(ctx, 5)

		assert.False(t, ok)
	})

	t.Run("corrupt entry", func(t *testing.T) {
		client.On("Get", ctx, "profile:6").Return(redis.NewStringResult("{not json", nil)).Once()

		_, ok := cache.GetProfile(ctx, 6)

		assert.False(t, ok)
	})
}

func TestRedisProfileCache_SetProfile(t *testing.T) {
	ctx := context.Background()
	client := new(mockCacheClient)
	cache := NewRedisProfileCache(client, 10*time.Minute)
	profile := &model.Profile{ID: 8, Name: "Asha", Email: "asha@example.com"}

	client.On("Set", ctx, "profile:8", mock.MatchedBy(func(v []byte) bool {
		var got model.Profile
		return json.Unmarshal(v, &got) == nil && got.ID == 8
	}), 10*time.Minute).Return(redis.NewStatusResult("OK", nil)).Once()

	cache.SetProfile(ctx, profile)

	client.AssertExpectations(t)
}

func TestRedisProfileCache_Invalidate(t *testing.T) {
	ctx := context.Background()
	client := new(mockCacheClient)
	cache := NewRedisProfileCache(client, time.Minute)

	client.On("Del", ctx, []string{"profile:2"}).Return(redis.NewIntResult(1, nil)).Once()
	client.On("Del", ctx, []string{"profile:3"}).Return(redis.NewIntResult(0, errors.New("timeout"))).Once()

	assert.NotPanics(t, func() {
		cache.Invalidate(ctx, 2)
		cache.Invalidate(ctx, 3)
	})
	client.AssertExpectations(t)
}
