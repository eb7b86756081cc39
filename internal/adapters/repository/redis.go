package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// DefaultRedisPrefix namespaces replay keys in a shared redis.
const DefaultRedisPrefix = "arena:replay:"

const (
	redisDialTimeout = 5 * time.Second
	redisIOTimeout   = 5 * time.Second
	redisScanCount   = 100
)

// RedisBackend stores blobs in redis under a key prefix, so several service
// instances can share one retained set.
type RedisBackend struct {
	client *redis.Client
	prefix string
}

// NewRedisBackend connects to addr and verifies the connection.
func NewRedisBackend(ctx context.Context, addr, prefix string) (*RedisBackend, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  redisDialTimeout,
		ReadTimeout:  redisIOTimeout,
		WriteTimeout: redisIOTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, redisDialTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connect %s: %w", addr, err)
	}
	return NewRedisBackendFromClient(client, prefix), nil
}

// NewRedisBackendFromClient wraps an existing client.
func NewRedisBackendFromClient(client *redis.Client, prefix string) *RedisBackend {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisBackend{client: client, prefix: prefix}
}

// Name implements Backend.
func (r *RedisBackend) Name() string { return BackendRedis }

// Put implements Backend.
func (r *RedisBackend) Put(ctx context.Context, key string, blob []byte) error {
	if err := r.client.Set(ctx, r.prefix+key, blob, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Get implements Backend.
func (r *RedisBackend) Get(ctx context.Context, key string) ([]byte, error) {
	blob, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("redis get %s: %w", key, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return blob, nil
}

// Delete implements Backend.
func (r *RedisBackend) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.prefix+key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

// Keys implements Backend using SCAN so large keyspaces do not block redis.
func (r *RedisBackend) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	iter := r.client.Scan(ctx, 0, r.prefix+"*", redisScanCount).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val()[len(r.prefix):])
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan: %w", err)
	}
	return keys, nil
}

// Close implements Backend.
func (r *RedisBackend) Close() error { return r.client.Close() }
