// file: service/cache.go

package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"go-auth-api/logger"
	"go-auth-api/model"
	"time"

	"github.com/redis/go-redis/v9"
)

// ICacheClient defines the contract for a cache client.
// *redis.Client satisfies it; tests use a testify mock.
type ICacheClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// ProfileCache holds profile projections keyed by user id. Implementations
// swallow their own failures: a broken cache only costs a store round trip.
type ProfileCache interface {
	GetProfile(ctx context.Context, userID int) (*model.Profile, bool)
	SetProfile(ctx context.Context, profile *model.Profile)
	Invalidate(ctx context.Context, userID int)
}

// RedisProfileCache is a cache-aside ProfileCache backed by Redis.
type RedisProfileCache struct {
	client ICacheClient
	ttl    time.Duration
}

func NewRedisProfileCache(client ICacheClient, ttl time.Duration) *RedisProfileCache {
	return &RedisProfileCache{client: client, ttl: ttl}
}

func profileCacheKey(userID int) string {
	return fmt.Sprintf("profile:%d", userID)
}

func (c *RedisProfileCache) GetProfile(ctx context.Context, userID int) (*model.Profile, bool) {
	cached, err := c.client.Get(ctx, profileCacheKey(userID)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Log.WithError(err).WithField("user_id", userID).Warn("Failed to read profile from cache")
		}
		return nil, false
	}

	var profile model.Profile
	if err := json.Unmarshal([]byte(cached), &profile); err != nil {
		logger.Log.WithError(err).WithField("user_id", userID).Warn("Discarding corrupt cached profile")
		return nil, false
	}
	return &profile, true
}

func (c *RedisProfileCache) SetProfile(ctx context.Context, profile *model.Profile) {
	data, err := json.Marshal(profile)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, profileCacheKey(profile.ID), data, c.ttl).Err(); err != nil {
		logger.Log.WithError(err).WithField("user_id", profile.ID).Warn("Failed to write profile to cache")
	}
}

func (c *RedisProfileCache) Invalidate(ctx context.Context, userID int) {
	if err := c.client.Del(ctx, profileCacheKey(userID)).Err(); err != nil {
		logger.Log.WithError(err).WithField("user_id", userID).Warn("Failed to invalidate cached profile")
	}
}

type noProfileCache struct{}

func (noProfileCache) GetProfile(context.Context, int) (*model.Profile, bool) { return nil, false }
func (noProfileCache) SetProfile(context.Context, *model.Profile)             {}
func (noProfileCache) Invalidate(context.Context, int)                        {}

var (
	_ ICacheClient = (*redis.Client)(nil)
	_ ProfileCache = (*RedisProfileCache)(nil)
)
