package journal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"gratitude-journal/internal/domain"
	"gratitude-journal/internal/infra/metrics"
	"gratitude-journal/internal/usecase/analytics"
)

// ErrEmptyAnswer возвращается, если в записи нет ни одного ответа.
var ErrEmptyAnswer = errors.New("запись без ответов")

// Draft запись, пришедшая от клиента.
type Draft struct {
	Date            time.Time       `json:"date"`
	Answers         []domain.Answer `json:"answers"`
	MentionedPeople []string        `json:"mentioned_people"`
	MediaURL        string          `json:"media_url"`
}

// Service сохраняет записи дневника и ведёт сессии их составления.
type Service struct {
	entries  domain.EntryRepo
	kb       domain.NameKnowledge
	recorder domain.NameRecorder
	business domain.BusinessMetricRepo
	loc      *time.Location
	log      zerolog.Logger
	now      func() time.Time

	sessions *registry
}

// NewService создаёт сервис. kb, recorder и business могут быть nil.
func NewService(entries domain.EntryRepo, kb domain.NameKnowledge, recorder domain.NameRecorder, business domain.BusinessMetricRepo, loc *time.Location, logger zerolog.Logger) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		entries:  entries,
		kb:       kb,
		recorder: recorder,
		business: business,
		loc:      loc,
		log:      logger.With().Str("component", "journal").Logger(),
		now:      time.Now,
		sessions: newRegistry(),
	}
}

// Now текущее время в календарной зоне дневника.
func (s *Service) Now() time.Time {
	return s.now().In(s.loc)
}

// SaveEntry проверяет черновик и сохраняет запись за календарный день.
func (s *Service) SaveEntry(ctx context.Context, draft Draft) (domain.JournalEntry, error) {
	answers := make([]domain.Answer, 0, len(draft.Answers))
	hasAnswer := false
	for _, a := range draft.Answers {
		a.Question = strings.TrimSpace(a.Question)
		a.Answer = strings.TrimSpace(a.Answer)
		if a.Answer != "" {
			hasAnswer = true
		}
		answers = append(answers, a)
	}
	if !hasAnswer {
		return domain.JournalEntry{}, ErrEmptyAnswer
	}

	date := draft.Date
	if date.IsZero() {
		date = s.now()
	}
	entry := domain.JournalEntry{
		ID:              uuid.NewString(),
		Date:            domain.CalendarDay(date.In(s.loc)),
		Answers:         answers,
		MentionedPeople: domain.DedupePeople(draft.MentionedPeople),
		MediaURL:        strings.TrimSpace(draft.MediaURL),
		CreatedAt:       s.now().UTC(),
	}
	if err := s.entries.SaveEntry(ctx, entry); err != nil {
		return domain.JournalEntry{}, fmt.Errorf("сохранение записи: %w", err)
	}
	metrics.EntriesSavedTotal.Inc()
	s.recordMetric(ctx, domain.BusinessMetricEventEntrySaved, map[string]any{
		"entry_id": entry.ID,
		"answers":  len(entry.Answers),
		"people":   len(entry.MentionedPeople),
	})
	return entry, nil
}

// ListEntries возвращает записи, новые первыми. Ошибка хранилища даёт пустой список.
func (s *Service) ListEntries(ctx context.Context) []domain.JournalEntry {
	entries, err := s.entries.ListEntries(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("не удалось загрузить записи")
		return []domain.JournalEntry{}
	}
	if entries == nil {
		entries = []domain.JournalEntry{}
	}
	return entries
}

// DeleteEntry удаляет запись по идентификатору.
func (s *Service) DeleteEntry(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return domain.ErrEntryNotFound
	}
	if err := s.entries.DeleteEntry(ctx, id); err != nil {
		if errors.Is(err, domain.ErrEntryNotFound) {
			return err
		}
		return fmt.Errorf("удаление записи: %w", err)
	}
	s.recordMetric(ctx, domain.BusinessMetricEventEntryDeleted, map[string]any{"entry_id": id})
	return nil
}

// HasEntryToday проверяет, есть ли запись за сегодняшний день.
func HasEntryToday(entries []domain.JournalEntry, now time.Time) bool {
	return analytics.HasEntryOn(entries, now)
}

func (s *Service) recordMetric(ctx context.Context, event string, meta map[string]any) {
	if s.business == nil {
		return
	}
	err := s.business.RecordBusinessMetric(ctx, domain.BusinessMetric{Event: event, Metadata: meta, OccurredAt: s.now().UTC()})
	if err != nil {
		s.log.Warn().Err(err).Str("event", event).Msg("не удалось записать бизнес-метрику")
	}
}
