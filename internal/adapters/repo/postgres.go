package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"gratitude-journal/internal/domain"
	"gratitude-journal/internal/infra/metrics"
)

const queryTimeout = 5 * time.Second

// Postgres реализует репозитории дневника на основе pgxpool.
// Все таблицы, кроме справочника имён и публичных ссылок, разделены по user_id.
type Postgres struct {
	pool   *pgxpool.Pool
	userID string
}

var (
	_ domain.EntryRepo          = (*Postgres)(nil)
	_ domain.NameKnowledge      = (*Postgres)(nil)
	_ domain.ThanksRepo         = (*Postgres)(nil)
	_ domain.PreferencesRepo    = (*Postgres)(nil)
	_ domain.BusinessMetricRepo = (*Postgres)(nil)
	_ domain.Cache              = (*Postgres)(nil)
)

// NewPostgres создаёт адаптер БД для пользователя дневника.
func NewPostgres(pool *pgxpool.Pool, userID string) *Postgres {
	return &Postgres{pool: pool, userID: userID}
}

// connCtx ограничивает запрос queryTimeout, если у ctx нет своего дедлайна.
func (p *Postgres) connCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, queryTimeout)
}

// RecordBusinessMetric пишет событие в business_metrics. Событие без имени пропускается.
func (p *Postgres) RecordBusinessMetric(ctx context.Context, metric domain.BusinessMetric) error {
	if metric.Event == "" {
		return nil
	}
	at := metric.OccurredAt
	if at.IsZero() {
		at = time.Now()
	}
	meta := []byte("{}")
	if len(metric.Metadata) > 0 {
		data, err := json.Marshal(metric.Metadata)
		if err != nil {
			return fmt.Errorf("marshal metadata of %s: %w", metric.Event, err)
		}
		meta = data
	}

	ctx, cancel := p.connCtx(ctx)
	defer cancel()
	start := time.Now()
	_, err := p.pool.Exec(ctx,
		`INSERT INTO business_metrics (user_id, event, metadata, occurred_at) VALUES ($1, $2, $3::jsonb, $4)`,
		p.userID, metric.Event, meta, at.UTC())
	metrics.ObserveNetworkRequest("postgres", "business_metrics_insert", "business_metrics", start, err)
	if err != nil {
		return fmt.Errorf("insert business metric %s: %w", metric.Event, err)
	}
	return nil
}
