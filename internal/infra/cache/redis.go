package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"gratitude-journal/internal/infra/metrics"
)

// RedisCache реализует domain.Cache через Redis.
type RedisCache struct {
	client *redis.Client
}

// NewRedis создаёт кэш.
func NewRedis(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

// Set задаёт значение.
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) (err error) {
	start := time.Now()
	defer func() { metrics.ObserveNetworkRequest("redis", "set", "cache", start, err) }()
	return c.client.Set(ctx, key, value, ttl).Err()
}

// Get возвращает значение. Отсутствие ключа не считается ошибкой.
func (c *RedisCache) Get(ctx context.Context, key string) (_ []byte, _ bool, err error) {
	start := time.Now()
	defer func() { metrics.ObserveNetworkRequest("redis", "get", "cache", start, err) }()
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Delete удаляет ключ.
func (c *RedisCache) Delete(ctx context.Context, key string) (err error) {
	start := time.Now()
	defer func() { metrics.ObserveNetworkRequest("redis", "del", "cache", start, err) }()
	return c.client.Del(ctx, key).Err()
}

// Connect создаёт клиента Redis и проверяет соединение.
func Connect(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}
