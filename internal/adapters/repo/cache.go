package repo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"gratitude-journal/internal/infra/metrics"
)

// Set сохраняет значение в таблице theme_analysis_cache. Используется, когда Redis не настроен.
func (p *Postgres) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	now := time.Now().UTC()
	start := time.Now()
	_, err := p.pool.Exec(ctx, `
INSERT INTO theme_analysis_cache (cache_key, data, created_at, expires_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (cache_key) DO UPDATE SET
	data = EXCLUDED.data,
	created_at = EXCLUDED.created_at,
	expires_at = EXCLUDED.expires_at
`, key, value, now, now.Add(ttl))
	metrics.ObserveNetworkRequest("postgres", "cache_set", "theme_analysis_cache", start, err)
	return err
}

// Get возвращает непросроченное значение.
func (p *Postgres) Get(ctx context.Context, key string) ([]byte, bool, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	var data []byte
	start := time.Now()
	err := p.pool.QueryRow(ctx, `
SELECT data FROM theme_analysis_cache WHERE cache_key = $1 AND expires_at > now()
`, key).Scan(&data)
	metrics.ObserveNetworkRequest("postgres", "cache_get", "theme_analysis_cache", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Delete удаляет значение.
func (p *Postgres) Delete(ctx context.Context, key string) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	_, err := p.pool.Exec(ctx, `DELETE FROM theme_analysis_cache WHERE cache_key = $1`, key)
	metrics.ObserveNetworkRequest("postgres", "cache_delete", "theme_analysis_cache", start, err)
	return err
}
