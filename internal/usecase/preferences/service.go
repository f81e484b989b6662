package preferences

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"gratitude-journal/internal/domain"
)

const defaultUsername = "Friend"

// ErrEmptyUsername возвращается при попытке сохранить пустое имя.
var ErrEmptyUsername = errors.New("имя пользователя не может быть пустым")

// ErrNotOnboarded возвращается, если настройки ещё не созданы.
var ErrNotOnboarded = errors.New("онбординг не пройден")

// ThemeCache сбрасывает закэшированный анализ тем.
type ThemeCache interface {
	Invalidate(ctx context.Context) error
}

// Onboarding данные, собранные на экранах знакомства.
type Onboarding struct {
	Username       string             `json:"username"`
	MainGoal       string             `json:"main_goal"`
	TimeCommitment string             `json:"time_commitment"`
	TextBoxSize    domain.TextBoxSize `json:"text_box_size"`
}

// Service управляет настройками пользователя.
type Service struct {
	repo     domain.PreferencesRepo
	entries  domain.EntryRepo
	themes   ThemeCache
	business domain.BusinessMetricRepo
	log      zerolog.Logger
	now      func() time.Time
}

// NewService создаёт сервис. themes и business могут быть nil.
func NewService(repo domain.PreferencesRepo, entries domain.EntryRepo, themes ThemeCache, business domain.BusinessMetricRepo, logger zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		entries:  entries,
		themes:   themes,
		business: business,
		log:      logger.With().Str("component", "preferences").Logger(),
		now:      time.Now,
	}
}

// Get возвращает настройки или значения по умолчанию для нового пользователя.
func (s *Service) Get(ctx context.Context) (domain.UserPreferences, error) {
	prefs, ok, err := s.repo.GetPreferences(ctx)
	if err != nil {
		return domain.UserPreferences{}, fmt.Errorf("загрузка настроек: %w", err)
	}
	if !ok {
		return domain.UserPreferences{Username: defaultUsername, TextBoxSize: domain.TextBoxMedium}, nil
	}
	return withDefaults(prefs), nil
}

// CompleteOnboarding начинает дневник с чистого листа и сохраняет настройки.
func (s *Service) CompleteOnboarding(ctx context.Context, data Onboarding) (domain.UserPreferences, error) {
	if err := s.entries.DeleteAllEntries(ctx); err != nil {
		return domain.UserPreferences{}, fmt.Errorf("очистка записей: %w", err)
	}
	if s.themes != nil {
		if err := s.themes.Invalidate(ctx); err != nil {
			s.log.Warn().Err(err).Msg("не удалось сбросить кэш тем")
		}
	}

	prefs := withDefaults(domain.UserPreferences{
		Username:               strings.TrimSpace(data.Username),
		MainGoal:               strings.TrimSpace(data.MainGoal),
		TimeCommitment:         strings.TrimSpace(data.TimeCommitment),
		TextBoxSize:            data.TextBoxSize,
		HasCompletedOnboarding: true,
		UpdatedAt:              s.now().UTC(),
	})
	if err := s.repo.UpsertPreferences(ctx, prefs); err != nil {
		return domain.UserPreferences{}, fmt.Errorf("сохранение настроек: %w", err)
	}

	if s.business != nil {
		err := s.business.RecordBusinessMetric(ctx, domain.BusinessMetric{
			Event:      domain.BusinessMetricEventOnboardingCompleted,
			Metadata:   map[string]any{"main_goal": prefs.MainGoal, "time_commitment": prefs.TimeCommitment},
			OccurredAt: prefs.UpdatedAt,
		})
		if err != nil {
			s.log.Warn().Err(err).Msg("не удалось записать бизнес-метрику")
		}
	}
	return prefs, nil
}

// UpdateUsername меняет отображаемое имя.
func (s *Service) UpdateUsername(ctx context.Context, username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return ErrEmptyUsername
	}
	ok, err := s.repo.UpdateUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("обновление имени: %w", err)
	}
	if !ok {
		return ErrNotOnboarded
	}
	return nil
}

func withDefaults(p domain.UserPreferences) domain.UserPreferences {
	if p.Username == "" {
		p.Username = defaultUsername
	}
	switch p.TextBoxSize {
	case domain.TextBoxSmall, domain.TextBoxMedium, domain.TextBoxLarge:
	default:
		p.TextBoxSize = domain.TextBoxMedium
	}
	return p
}
