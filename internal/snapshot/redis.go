package snapshot

import (
	"context"
	"time"

	pkgredis "github.com/angelmondragon/rocketcart/pkg/redis"
)

type redisClient interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	Ping(ctx context.Context) error
	SnapshotKey(name string) string
}

// RedisBackend stores each snapshot as a plain string under the rc:snapshot namespace.
type RedisBackend struct {
	client redisClient
}

func NewRedisBackend(client redisClient) *RedisBackend {
	return &RedisBackend{client: client}
}

func (r *RedisBackend) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := r.client.Get(ctx, r.client.SnapshotKey(key))
	if pkgredis.IsMissing(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return []byte(value), nil
}

// Set writes without expiry; SET replaces the value in one step.
func (r *RedisBackend) Set(ctx context.Context, key string, value []byte) error {
	return r.client.Set(ctx, r.client.SnapshotKey(key), string(value), 0)
}

func (r *RedisBackend) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.client.SnapshotKey(key))
}

func (r *RedisBackend) Ping(ctx context.Context) error {
	return r.client.Ping(ctx)
}
