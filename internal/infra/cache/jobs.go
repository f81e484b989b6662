package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"gratitude-journal/internal/infra/metrics"
)

// DefaultJobLedgerTTL сколько помнить обработанную задачу.
const DefaultJobLedgerTTL = 7 * 24 * time.Hour

// RedisJobLedger реализует domain.JobLedger ключами <prefix>:<job_id>.
type RedisJobLedger struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewJobLedger создаёт журнал обработанных задач.
func NewJobLedger(client *redis.Client, prefix string, ttl time.Duration) *RedisJobLedger {
	if ttl <= 0 {
		ttl = DefaultJobLedgerTTL
	}
	return &RedisJobLedger{client: client, prefix: prefix, ttl: ttl}
}

func (l *RedisJobLedger) key(jobID string) string {
	return l.prefix + ":" + jobID
}

// IsDone проверяет, была ли задача уже записана.
func (l *RedisJobLedger) IsDone(ctx context.Context, jobID string) (_ bool, err error) {
	start := time.Now()
	defer func() { metrics.ObserveNetworkRequest("redis", "exists", "job_ledger", start, err) }()
	n, err := l.client.Exists(ctx, l.key(jobID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// MarkDone отмечает задачу записанной.
func (l *RedisJobLedger) MarkDone(ctx context.Context, jobID string) (err error) {
	start := time.Now()
	defer func() { metrics.ObserveNetworkRequest("redis", "setnx", "job_ledger", start, err) }()
	return l.client.SetNX(ctx, l.key(jobID), 1, l.ttl).Err()
}
