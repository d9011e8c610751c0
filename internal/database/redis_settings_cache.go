package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"storyrunner/internal/interfaces"
	"storyrunner/internal/models"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var _ interfaces.SettingsRepository = (*redisSettingsCache)(nil)

// redisSettingsCache is a read-through cache in front of the flavor catalog
// repository. The catalogs are small and read on every session start, so a
// short TTL plus invalidation on admin writes keeps the hot path off Postgres.
type redisSettingsCache struct {
	inner  interfaces.SettingsRepository
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisSettingsCache wraps a SettingsRepository with a Redis cache.
func NewRedisSettingsCache(inner interfaces.SettingsRepository, client *redis.Client, ttl time.Duration, logger *zap.Logger) interfaces.SettingsRepository {
	return &redisSettingsCache{
		inner:  inner,
		client: client,
		ttl:    ttl,
		logger: logger.Named("RedisSettingsCache"),
	}
}

func flavorListKey(kind models.FlavorKind) string {
	return fmt.Sprintf("settings:flavors:%s", kind)
}

func (c *redisSettingsCache) ListFlavors(ctx context.Context, querier interfaces.DBTX, kind models.FlavorKind) ([]models.FlavorOption, error) {
	key := flavorListKey(kind)

	cached, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var options []models.FlavorOption
		if unmarshalErr := json.Unmarshal(cached, &options); unmarshalErr == nil {
			return options, nil
		}
		// Corrupt entry: fall through to the database and overwrite it.
		c.logger.Warn("Dropping unreadable cache entry", zap.String("key", key))
	} else if !errors.Is(err, redis.Nil) {
		// Redis being down must not take the settings store with it.
		c.logger.Warn("Settings cache read failed, falling back to database", zap.Error(err), zap.String("key", key))
	}

	options, err := c.inner.ListFlavors(ctx, querier, kind)
	if err != nil {
		return nil, err
	}

	if payload, marshalErr := json.Marshal(options); marshalErr == nil {
		if setErr := c.client.Set(ctx, key, payload, c.ttl).Err(); setErr != nil {
			c.logger.Warn("Failed to populate settings cache", zap.Error(setErr), zap.String("key", key))
		}
	}
	return options, nil
}

func (c *redisSettingsCache) GetFlavor(ctx context.Context, querier interfaces.DBTX, kind models.FlavorKind, id string) (*models.FlavorOption, error) {
	// Single-flavor lookups ride on the cached list: validation at session
	// start hits this path for every request.
	options, err := c.ListFlavors(ctx, querier, kind)
	if err != nil {
		return c.inner.GetFlavor(ctx, querier, kind, id)
	}
	for i := range options {
		if options[i].ID == id {
			option := options[i]
			return &option, nil
		}
	}
	return nil, models.ErrNotFound
}

func (c *redisSettingsCache) UpsertFlavor(ctx context.Context, querier interfaces.DBTX, kind models.FlavorKind, option models.FlavorOption) error {
	if err := c.inner.UpsertFlavor(ctx, querier, kind, option); err != nil {
		return err
	}
	c.invalidate(ctx, kind)
	return nil
}

func (c *redisSettingsCache) DeleteFlavor(ctx context.Context, querier interfaces.DBTX, kind models.FlavorKind, id string) error {
	if err := c.inner.DeleteFlavor(ctx, querier, kind, id); err != nil {
		return err
	}
	c.invalidate(ctx, kind)
	return nil
}

func (c *redisSettingsCache) invalidate(ctx context.Context, kind models.FlavorKind) {
	key := flavorListKey(kind)
	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.logger.Warn("Failed to invalidate settings cache", zap.Error(err), zap.String("key", key))
	}
}
