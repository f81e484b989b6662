package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gratitude-journal/internal/domain"
	"gratitude-journal/internal/infra/metrics"
)

const entryColumns = `id, entry_date, answers, mentioned_people, COALESCE(media_url, ''), created_at`

// SaveEntry сохраняет запись. Повторное сохранение с тем же id перезаписывает её.
func (p *Postgres) SaveEntry(ctx context.Context, entry domain.JournalEntry) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	answers, err := json.Marshal(entry.Answers)
	if err != nil {
		return fmt.Errorf("marshal answers: %w", err)
	}
	people := entry.MentionedPeople
	if people == nil {
		people = []string{}
	}
	var mediaURL any
	if entry.MediaURL != "" {
		mediaURL = entry.MediaURL
	}

	start := time.Now()
	_, err = p.pool.Exec(ctx, `
INSERT INTO gratitude_entries (id, user_id, entry_date, answers, mentioned_people, media_url, created_at)
VALUES ($1, $2, $3::date, $4, $5, $6, $7)
ON CONFLICT (id) DO UPDATE SET
	entry_date = EXCLUDED.entry_date,
	answers = EXCLUDED.answers,
	mentioned_people = EXCLUDED.mentioned_people,
	media_url = EXCLUDED.media_url
`, entry.ID, p.userID, entry.Date.Format(domain.DateLayout), answers, people, mediaURL, entry.CreatedAt)
	metrics.ObserveNetworkRequest("postgres", "entries_upsert", "gratitude_entries", start, err)
	return err
}

// ListEntries возвращает все записи, новые первыми.
func (p *Postgres) ListEntries(ctx context.Context) ([]domain.JournalEntry, error) {
	return p.queryEntries(ctx, "entries_list", `
SELECT `+entryColumns+` FROM gratitude_entries
WHERE user_id = $1
ORDER BY entry_date DESC, created_at DESC
`, p.userID)
}

// ListEntriesSince возвращает записи начиная с календарного дня since.
func (p *Postgres) ListEntriesSince(ctx context.Context, since time.Time) ([]domain.JournalEntry, error) {
	return p.queryEntries(ctx, "entries_list_since", `
SELECT `+entryColumns+` FROM gratitude_entries
WHERE user_id = $1 AND entry_date >= $2::date
ORDER BY entry_date DESC, created_at DESC
`, p.userID, since.Format(domain.DateLayout))
}

// ListRecentEntries возвращает последние limit записей.
func (p *Postgres) ListRecentEntries(ctx context.Context, limit int) ([]domain.JournalEntry, error) {
	return p.queryEntries(ctx, "entries_list_recent", `
SELECT `+entryColumns+` FROM gratitude_entries
WHERE user_id = $1
ORDER BY entry_date DESC, created_at DESC
LIMIT $2
`, p.userID, limit)
}

func (p *Postgres) queryEntries(ctx context.Context, op, query string, args ...any) ([]domain.JournalEntry, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, query, args...)
	metrics.ObserveNetworkRequest("postgres", op, "gratitude_entries", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.JournalEntry
	for rows.Next() {
		var (
			e       domain.JournalEntry
			answers []byte
		)
		if err := rows.Scan(&e.ID, &e.Date, &answers, &e.MentionedPeople, &e.MediaURL, &e.CreatedAt); err != nil {
			return nil, err
		}
		if len(answers) > 0 {
			if err := json.Unmarshal(answers, &e.Answers); err != nil {
				return nil, fmt.Errorf("decode answers of %s: %w", e.ID, err)
			}
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// DeleteEntry удаляет запись.
func (p *Postgres) DeleteEntry(ctx context.Context, id string) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	tag, err := p.pool.Exec(ctx, `DELETE FROM gratitude_entries WHERE id = $1 AND user_id = $2`, id, p.userID)
	metrics.ObserveNetworkRequest("postgres", "entries_delete", "gratitude_entries", start, err)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrEntryNotFound
	}
	return nil
}

// DeleteAllEntries удаляет все записи пользователя.
func (p *Postgres) DeleteAllEntries(ctx context.Context) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	_, err := p.pool.Exec(ctx, `DELETE FROM gratitude_entries WHERE user_id = $1`, p.userID)
	metrics.ObserveNetworkRequest("postgres", "entries_delete_all", "gratitude_entries", start, err)
	return err
}
