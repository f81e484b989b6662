package queue

import (
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"gratitude-journal/internal/domain"
)

// Бэкенды очереди подтверждений имён.
const (
	BackendDirect   = "direct"
	BackendRedis    = "redis"
	BackendRabbitMQ = "rabbitmq"
)

// ErrDirectBackend возвращается для бэкенда без очереди.
var ErrDirectBackend = errors.New("queue: direct backend has no queue")

// Open создаёт очередь выбранного бэкенда. close освобождает соединения.
func Open(backend string, redisClient *redis.Client, amqpURL, key string) (q domain.NameQueue, closeFn func() error, err error) {
	switch backend {
	case BackendRedis:
		if redisClient == nil {
			return nil, nil, errors.New("queue: redis backend requires REDIS_ADDR")
		}
		return NewRedisNameQueue(redisClient, key), func() error { return nil }, nil
	case BackendRabbitMQ:
		rq, err := NewRabbitNameQueue(amqpURL, key)
		if err != nil {
			return nil, nil, err
		}
		return rq, rq.Close, nil
	case BackendDirect, "":
		return nil, nil, ErrDirectBackend
	default:
		return nil, nil, fmt.Errorf("queue: unknown backend %q", backend)
	}
}
