package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/amirasaad/codepay/pkg/cache"
	"github.com/redis/go-redis/v9"
)

// RedisCache implements cache.AliasCache on Redis string keys.
type RedisCache struct {
	client *redis.Client
	prefix string
	logger *slog.Logger
}

// NewRedisCache wraps client. Keys are stored as prefix + "alias:" + value.
func NewRedisCache(client *redis.Client, prefix string, logger *slog.Logger) *RedisCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisCache{client: client, prefix: prefix, logger: logger.With("cache", "redis")}
}

// NewRedisCacheWithOptions opens a client from opt.
func NewRedisCacheWithOptions(opt *redis.Options, prefix string, logger *slog.Logger) *RedisCache {
	return NewRedisCache(redis.NewClient(opt), prefix, logger)
}

func (r *RedisCache) key(alias string) string {
	return r.prefix + "alias:" + alias
}

func (r *RedisCache) Get(ctx context.Context, alias string) (string, bool, error) {
	val, err := r.client.Get(ctx, r.key(alias)).Result()
	if errors.Is(err, redis.Nil) {
		r.logger.Debug("redis cache miss", "alias", alias)
		return "", false, nil
	}
	if err != nil {
		r.logger.Error("redis cache get error", "alias", alias, "error", err)
		return "", false, err
	}
	return val, true, nil
}

func (r *RedisCache) Set(ctx context.Context, alias, userID string, ttl time.Duration) error {
	if err := r.client.Set(ctx, r.key(alias), userID, ttl).Err(); err != nil {
		r.logger.Error("redis cache set error", "alias", alias, "error", err)
		return err
	}
	return nil
}

func (r *RedisCache) Delete(ctx context.Context, alias string) error {
	if err := r.client.Del(ctx, r.key(alias)).Err(); err != nil {
		r.logger.Error("redis cache delete error", "alias", alias, "error", err)
		return err
	}
	return nil
}

// Close releases the underlying client.
func (r *RedisCache) Close() error {
	return r.client.Close()
}

var _ cache.AliasCache = (*RedisCache)(nil)
