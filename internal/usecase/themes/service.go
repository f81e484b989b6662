package themes

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"gratitude-journal/internal/domain"
	"gratitude-journal/internal/infra/metrics"
)

const (
	// RecentEntriesLimit сколько последних записей уходит в анализ.
	RecentEntriesLimit = 60
	// DefaultCacheTTL срок жизни закэшированного анализа.
	DefaultCacheTTL = 24 * time.Hour
)

const (
	sourceCache    = "cache"
	sourceLLM      = "llm"
	sourceFallback = "fallback"
)

var (
	emailPattern  = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Z|a-z]{2,}\b`)
	phonePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b\d{3}[-.]?\d{3}[-.]?\d{4}\b`),
		regexp.MustCompile(`\(\d{3}\)\s?\d{3}[-.]?\d{4}\b`),
		regexp.MustCompile(`\b\d{10}\b`),
	}
)

// Redact заменяет адреса почты и номера телефонов на заглушки.
func Redact(text string) string {
	text = emailPattern.ReplaceAllString(text, "[EMAIL]")
	for _, p := range phonePatterns {
		text = p.ReplaceAllString(text, "[PHONE]")
	}
	return text
}

// Service анализирует темы записей с кэшированием результата.
type Service struct {
	entries  domain.EntryRepo
	analyzer domain.ThemeAnalyzer
	fallback domain.ThemeAnalyzer
	cache    domain.Cache
	userID   string
	ttl      time.Duration
	log      zerolog.Logger
}

// NewService создаёт сервис. cache может быть nil.
func NewService(entries domain.EntryRepo, analyzer, fallback domain.ThemeAnalyzer, cache domain.Cache, userID string, ttl time.Duration, logger zerolog.Logger) *Service {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Service{
		entries:  entries,
		analyzer: analyzer,
		fallback: fallback,
		cache:    cache,
		userID:   userID,
		ttl:      ttl,
		log:      logger.With().Str("component", "themes").Logger(),
	}
}

// CacheKey ключ кэша анализа пользователя.
func (s *Service) CacheKey() string {
	return "theme_analysis_" + s.userID
}

// Analyze возвращает анализ тем последних записей.
func (s *Service) Analyze(ctx context.Context) (domain.ThemeAnalysis, error) {
	if cached, ok := s.cached(ctx); ok {
		metrics.ThemeAnalysisTotal.WithLabelValues(sourceCache).Inc()
		return cached, nil
	}

	entries, err := s.entries.ListRecentEntries(ctx, RecentEntriesLimit)
	if err != nil {
		return domain.ThemeAnalysis{}, fmt.Errorf("загрузка записей: %w", err)
	}
	if len(entries) == 0 {
		return domain.ThemeAnalysis{Themes: []domain.Theme{}, Top3: []string{}}, nil
	}

	result, err := s.analyzer.Analyze(ctx, redactedTexts(entries))
	if err != nil {
		s.log.Warn().Err(err).Int("entries", len(entries)).Msg("анализ тем моделью не удался, считаем локально")
		metrics.ThemeAnalysisTotal.WithLabelValues(sourceFallback).Inc()
		fallback, ferr := s.fallback.Analyze(ctx, answerTexts(entries))
		if ferr != nil {
			return domain.ThemeAnalysis{}, fmt.Errorf("локальный анализ тем: %w", ferr)
		}
		return normalize(fallback, len(entries)), nil
	}

	result = normalize(result, len(entries))
	metrics.ThemeAnalysisTotal.WithLabelValues(sourceLLM).Inc()
	s.store(ctx, result)
	return result, nil
}

// Invalidate сбрасывает закэшированный анализ.
func (s *Service) Invalidate(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	if err := s.cache.Delete(ctx, s.CacheKey()); err != nil {
		return fmt.Errorf("сброс кэша тем: %w", err)
	}
	return nil
}

func (s *Service) cached(ctx context.Context) (domain.ThemeAnalysis, bool) {
	if s.cache == nil {
		return domain.ThemeAnalysis{}, false
	}
	raw, ok, err := s.cache.Get(ctx, s.CacheKey())
	if err != nil {
		s.log.Warn().Err(err).Msg("чтение кэша тем")
		return domain.ThemeAnalysis{}, false
	}
	if !ok {
		return domain.ThemeAnalysis{}, false
	}
	var out domain.ThemeAnalysis
	if err := json.Unmarshal(raw, &out); err != nil {
		s.log.Warn().Err(err).Msg("битая запись в кэше тем")
		return domain.ThemeAnalysis{}, false
	}
	return out, true
}

func (s *Service) store(ctx context.Context, result domain.ThemeAnalysis) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(result)
	if err != nil {
		s.log.Error().Err(err).Msg("сериализация анализа тем")
		return
	}
	if err := s.cache.Set(ctx, s.CacheKey(), raw, s.ttl); err != nil {
		s.log.Warn().Err(err).Msg("запись кэша тем")
	}
}

func normalize(a domain.ThemeAnalysis, total int) domain.ThemeAnalysis {
	a.TotalEntries = total
	if a.Themes == nil {
		a.Themes = []domain.Theme{}
	}
	if len(a.Top3) == 0 {
		a.Top3 = make([]string, 0, 3)
		for _, t := range a.Themes {
			if len(a.Top3) == 3 {
				break
			}
			a.Top3 = append(a.Top3, t.Label)
		}
	}
	return a
}

func redactedTexts(entries []domain.JournalEntry) []domain.EntryText {
	out := make([]domain.EntryText, 0, len(entries))
	for _, e := range entries {
		lines := make([]string, 0, len(e.Answers))
		for _, a := range e.Answers {
			lines = append(lines, a.Question+": "+a.Answer)
		}
		out = append(out, domain.EntryText{ID: e.ID, Text: Redact(strings.Join(lines, "\n"))})
	}
	return out
}

func answerTexts(entries []domain.JournalEntry) []domain.EntryText {
	out := make([]domain.EntryText, 0, len(entries))
	for _, e := range entries {
		lines := make([]string, 0, len(e.Answers))
		for _, a := range e.Answers {
			lines = append(lines, a.Answer)
		}
		out = append(out, domain.EntryText{ID: e.ID, Text: Redact(strings.Join(lines, "\n"))})
	}
	return out
}
