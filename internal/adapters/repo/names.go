package repo

import (
	"context"
	"strings"
	"time"

	"gratitude-journal/internal/infra/metrics"
)

// ListCommonNames возвращает имена справочника с popularity_score <= maxPopularity.
func (p *Postgres) ListCommonNames(ctx context.Context, maxPopularity int) ([]string, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `SELECT normalized_name FROM common_names WHERE popularity_score <= $1`, maxPopularity)
	metrics.ObserveNetworkRequest("postgres", "common_names_list", "common_names", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectStrings(rows.Next, rows.Scan, rows.Err)
}

// ListConfirmedNames возвращает имена, подтверждённые пользователем.
func (p *Postgres) ListConfirmedNames(ctx context.Context) ([]string, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `SELECT normalized_name FROM user_confirmed_names WHERE user_id = $1`, p.userID)
	metrics.ObserveNetworkRequest("postgres", "confirmed_names_list", "user_confirmed_names", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectStrings(rows.Next, rows.Scan, rows.Err)
}

// IsCommonName проверяет имя по справочнику.
func (p *Postgres) IsCommonName(ctx context.Context, normalized string) (bool, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	var exists bool
	start := time.Now()
	err := p.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM common_names WHERE normalized_name = $1)`, normalized).Scan(&exists)
	metrics.ObserveNetworkRequest("postgres", "common_names_exists", "common_names", start, err)
	return exists, err
}

// IsUserConfirmedName проверяет, подтверждал ли пользователь имя.
func (p *Postgres) IsUserConfirmedName(ctx context.Context, normalized string) (bool, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	var exists bool
	start := time.Now()
	err := p.pool.QueryRow(ctx, `
SELECT EXISTS (SELECT 1 FROM user_confirmed_names WHERE user_id = $1 AND normalized_name = $2)
`, p.userID, normalized).Scan(&exists)
	metrics.ObserveNetworkRequest("postgres", "confirmed_names_exists", "user_confirmed_names", start, err)
	return exists, err
}

// ConfirmName увеличивает счётчик подтверждений или добавляет имя со счётчиком 1.
func (p *Postgres) ConfirmName(ctx context.Context, name string, at time.Time) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	name = strings.TrimSpace(name)
	start := time.Now()
	_, err := p.pool.Exec(ctx, `
INSERT INTO user_confirmed_names (user_id, name, normalized_name, confirmed_count, last_confirmed_at)
VALUES ($1, $2, $3, 1, $4)
ON CONFLICT (user_id, normalized_name) DO UPDATE SET
	confirmed_count = user_confirmed_names.confirmed_count + 1,
	last_confirmed_at = EXCLUDED.last_confirmed_at
`, p.userID, name, strings.ToLower(name), at)
	metrics.ObserveNetworkRequest("postgres", "confirmed_names_upsert", "user_confirmed_names", start, err)
	return err
}

func collectStrings(next func() bool, scan func(...any) error, rowsErr func() error) ([]string, error) {
	var out []string
	for next() {
		var s string
		if err := scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rowsErr()
}
