package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "sessions:"

// RedisStore keeps sessions in Redis so they survive restarts and are shared
// between server instances. TTLs map onto key expiry.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore connects to Redis and pings it.
func NewRedisStore(ctx context.Context, addr, password string, db int) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis at %s: %w", addr, err)
	}
	return &RedisStore{rdb: rdb}, nil
}

func (s *RedisStore) Put(ctx context.Context, token, handle string, ttl time.Duration) error {
	return s.rdb.Set(ctx, keyPrefix+token, handle, ttl).Err()
}

func (s *RedisStore) Get(ctx context.Context, token string) (string, error) {
	handle, err := s.rdb.Get(ctx, keyPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	return handle, err
}

func (s *RedisStore) Delete(ctx context.Context, token string) error {
	return s.rdb.Del(ctx, keyPrefix+token).Err()
}

// Close closes the Redis client.
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
