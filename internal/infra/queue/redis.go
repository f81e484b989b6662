package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"gratitude-journal/internal/domain"
	"gratitude-journal/internal/infra/metrics"
)

// RedisNameQueue реализует очередь подтверждений имён на базе Redis lists.
// Взятая задача хранится в списке <key>:processing до подтверждения.
type RedisNameQueue struct {
	client     *redis.Client
	key        string
	processing string
}

// NewRedisNameQueue создаёт очередь по указанному ключу.
func NewRedisNameQueue(client *redis.Client, key string) *RedisNameQueue {
	return &RedisNameQueue{client: client, key: key, processing: key + ":processing"}
}

// Enqueue публикует задачу в очередь.
func (q *RedisNameQueue) Enqueue(ctx context.Context, job domain.NameConfirmationJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	start := time.Now()
	err = q.client.LPush(ctx, q.key, payload).Err()
	metrics.ObserveNetworkRequest("redis", "lpush", q.key, start, err)
	if err != nil {
		return fmt.Errorf("push job: %w", err)
	}
	return nil
}

// Receive блокирующе читает задачу. Ack(false) возвращает задачу в очередь.
func (q *RedisNameQueue) Receive(ctx context.Context) (domain.NameConfirmationJob, domain.AckFunc, error) {
	for {
		if err := ctx.Err(); err != nil {
			return domain.NameConfirmationJob{}, nil, err
		}

		raw, err := q.client.BLMove(ctx, q.key, q.processing, "RIGHT", "LEFT", time.Second).Result()
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				if ctx.Err() != nil {
					return domain.NameConfirmationJob{}, nil, ctx.Err()
				}
				continue
			}
			if errors.Is(err, redis.Nil) {
				continue
			}
			return domain.NameConfirmationJob{}, nil, err
		}

		var job domain.NameConfirmationJob
		if err := json.Unmarshal([]byte(raw), &job); err != nil {
			_ = q.client.LRem(ctx, q.processing, 1, raw).Err()
			return domain.NameConfirmationJob{}, nil, fmt.Errorf("decode job: %w", err)
		}
		return job, q.ack(raw), nil
	}
}

func (q *RedisNameQueue) ack(raw string) domain.AckFunc {
	return func(success bool) error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		pipe := q.client.TxPipeline()
		pipe.LRem(ctx, q.processing, 1, raw)
		if !success {
			pipe.LPush(ctx, q.key, raw)
		}
		start := time.Now()
		_, err := pipe.Exec(ctx)
		metrics.ObserveNetworkRequest("redis", "ack", q.key, start, err)
		if err != nil {
			return fmt.Errorf("ack job: %w", err)
		}
		return nil
	}
}
