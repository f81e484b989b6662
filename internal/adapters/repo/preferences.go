package repo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"gratitude-journal/internal/domain"
	"gratitude-journal/internal/infra/metrics"
)

// GetPreferences возвращает настройки пользователя.
func (p *Postgres) GetPreferences(ctx context.Context) (domain.UserPreferences, bool, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	var (
		prefs          domain.UserPreferences
		mainGoal       sql.NullString
		timeCommitment sql.NullString
		textBox        string
	)
	start := time.Now()
	err := p.pool.QueryRow(ctx, `
SELECT username, main_goal, time_commitment, text_box_size, has_completed_onboarding, updated_at
FROM user_preferences WHERE user_id = $1
`, p.userID).Scan(&prefs.Username, &mainGoal, &timeCommitment, &textBox, &prefs.HasCompletedOnboarding, &prefs.UpdatedAt)
	metrics.ObserveNetworkRequest("postgres", "preferences_get", "user_preferences", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.UserPreferences{}, false, nil
	}
	if err != nil {
		return domain.UserPreferences{}, false, err
	}
	prefs.MainGoal = mainGoal.String
	prefs.TimeCommitment = timeCommitment.String
	prefs.TextBoxSize = domain.TextBoxSize(textBox)
	return prefs, true, nil
}

// UpsertPreferences создаёт или заменяет настройки.
func (p *Postgres) UpsertPreferences(ctx context.Context, prefs domain.UserPreferences) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	if prefs.UpdatedAt.IsZero() {
		prefs.UpdatedAt = time.Now().UTC()
	}
	start := time.Now()
	_, err := p.pool.Exec(ctx, `
INSERT INTO user_preferences (user_id, username, main_goal, time_commitment, text_box_size, has_completed_onboarding, updated_at)
VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), $5, $6, $7)
ON CONFLICT (user_id) DO UPDATE SET
	username = EXCLUDED.username,
	main_goal = EXCLUDED.main_goal,
	time_commitment = EXCLUDED.time_commitment,
	text_box_size = EXCLUDED.text_box_size,
	has_completed_onboarding = EXCLUDED.has_completed_onboarding,
	updated_at = EXCLUDED.updated_at
`, p.userID, prefs.Username, prefs.MainGoal, prefs.TimeCommitment, string(prefs.TextBoxSize), prefs.HasCompletedOnboarding, prefs.UpdatedAt)
	metrics.ObserveNetworkRequest("postgres", "preferences_upsert", "user_preferences", start, err)
	return err
}

// UpdateUsername меняет имя пользователя. Возвращает false, если настроек ещё нет.
func (p *Postgres) UpdateUsername(ctx context.Context, username string) (bool, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	tag, err := p.pool.Exec(ctx, `UPDATE user_preferences SET username = $2, updated_at = now() WHERE user_id = $1`, p.userID, username)
	metrics.ObserveNetworkRequest("postgres", "preferences_update_username", "user_preferences", start, err)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
