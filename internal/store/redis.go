package store

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// RedisBackend stores each collection as a plain string key <prefix>:<name>.
type RedisBackend struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisBackend(rdb *redis.Client, prefix string) *RedisBackend {
	if prefix == "" {
		prefix = "auth"
	}
	return &RedisBackend{rdb: rdb, prefix: prefix}
}

func (r *RedisBackend) key(c Collection) string { return r.prefix + ":" + string(c) }

func (r *RedisBackend) Load(ctx context.Context, c Collection) ([]byte, error) {
	b, err := r.rdb.Get(ctx, r.key(c)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotExist
	}
	return b, err
}

func (r *RedisBackend) Replace(ctx context.Context, c Collection, data []byte) error {
	return r.rdb.Set(ctx, r.key(c), data, 0).Err()
}
