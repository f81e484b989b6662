package repo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"gratitude-journal/internal/domain"
	"gratitude-journal/internal/infra/metrics"
)

// SaveThanks сохраняет отправленную благодарность.
func (p *Postgres) SaveThanks(ctx context.Context, rec domain.ThanksRecord) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	_, err := p.pool.Exec(ctx, `
INSERT INTO thanks_sent (id, user_id, person_name, image_selected, sent_timestamp, message_status)
VALUES ($1, $2, $3, $4, $5, $6)
`, rec.ID, p.userID, rec.PersonName, rec.ImageSelected, rec.SentAt, string(rec.Status))
	metrics.ObserveNetworkRequest("postgres", "thanks_insert", "thanks_sent", start, err)
	return err
}

// LastThanks возвращает последнюю благодарность человеку.
func (p *Postgres) LastThanks(ctx context.Context, person string) (domain.ThanksRecord, bool, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	var (
		rec    domain.ThanksRecord
		status string
	)
	start := time.Now()
	err := p.pool.QueryRow(ctx, `
SELECT id, person_name, image_selected, sent_timestamp, message_status
FROM thanks_sent
WHERE user_id = $1 AND person_name = $2
ORDER BY sent_timestamp DESC
LIMIT 1
`, p.userID, person).Scan(&rec.ID, &rec.PersonName, &rec.ImageSelected, &rec.SentAt, &status)
	metrics.ObserveNetworkRequest("postgres", "thanks_last", "thanks_sent", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ThanksRecord{}, false, nil
	}
	if err != nil {
		return domain.ThanksRecord{}, false, err
	}
	rec.Status = domain.ThanksStatus(status)
	return rec, true, nil
}

// ListThanks возвращает историю благодарностей, новые первыми. Пустой person означает всех.
func (p *Postgres) ListThanks(ctx context.Context, person string) ([]domain.ThanksRecord, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT id, person_name, image_selected, sent_timestamp, message_status
FROM thanks_sent
WHERE user_id = $1 AND ($2 = '' OR person_name = $2)
ORDER BY sent_timestamp DESC
`, p.userID, person)
	metrics.ObserveNetworkRequest("postgres", "thanks_list", "thanks_sent", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.ThanksRecord
	for rows.Next() {
		var (
			rec    domain.ThanksRecord
			status string
		)
		if err := rows.Scan(&rec.ID, &rec.PersonName, &rec.ImageSelected, &rec.SentAt, &status); err != nil {
			return nil, err
		}
		rec.Status = domain.ThanksStatus(status)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// SaveSharedThanks сохраняет публичную ссылку.
func (p *Postgres) SaveSharedThanks(ctx context.Context, share domain.SharedThanks) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	_, err := p.pool.Exec(ctx, `
INSERT INTO shared_thanks (share_id, recipient_name, image_url, message, created_at)
VALUES ($1, $2, $3, $4, $5)
`, share.ShareID, share.RecipientName, share.ImageURL, share.Message, share.CreatedAt)
	metrics.ObserveNetworkRequest("postgres", "shared_thanks_insert", "shared_thanks", start, err)
	return err
}

// GetSharedThanks находит ссылку по идентификатору.
func (p *Postgres) GetSharedThanks(ctx context.Context, shareID string) (domain.SharedThanks, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	var share domain.SharedThanks
	start := time.Now()
	err := p.pool.QueryRow(ctx, `
SELECT share_id, recipient_name, image_url, COALESCE(message, ''), created_at
FROM shared_thanks WHERE share_id = $1
`, shareID).Scan(&share.ShareID, &share.RecipientName, &share.ImageURL, &share.Message, &share.CreatedAt)
	metrics.ObserveNetworkRequest("postgres", "shared_thanks_get", "shared_thanks", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.SharedThanks{}, domain.ErrShareNotFound
	}
	return share, err
}
