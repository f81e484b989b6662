package questions

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"gratitude-journal/internal/domain"
	"gratitude-journal/internal/infra/metrics"
)

const (
	questionCount     = 3
	minQuestionLength = 11
	lookbackDays      = 7

	defaultGoal       = "personal reflection"
	defaultCommitment = "a few minutes each day"
)

// Defaults вопросы, которые отдаются при любой ошибке генерации.
func Defaults() []string {
	return []string{
		"What small moment brought you unexpected joy today?",
		"Who made you smile today, and why?",
		"What's something you're looking forward to?",
	}
}

var (
	numberPrefix   = regexp.MustCompile(`^\d+[.)]\s*`)
	bulletPrefix   = regexp.MustCompile(`^[-*]\s*`)
	questionPrefix = regexp.MustCompile(`(?i)^Question \d+:?\s*`)
)

// Service генерирует персональные вопросы дня.
type Service struct {
	entries domain.EntryRepo
	prefs   domain.PreferencesRepo
	gen     domain.TextGenerator
	log     zerolog.Logger
	now     func() time.Time
}

// NewService создаёт сервис. prefs может быть nil.
func NewService(entries domain.EntryRepo, prefs domain.PreferencesRepo, gen domain.TextGenerator, logger zerolog.Logger) *Service {
	return &Service{
		entries: entries,
		prefs:   prefs,
		gen:     gen,
		log:     logger.With().Str("component", "questions").Logger(),
		now:     time.Now,
	}
}

// Generate всегда возвращает ровно три вопроса.
func (s *Service) Generate(ctx context.Context) []string {
	prompt := BuildPrompt(s.preferences(ctx), s.recentEntries(ctx))
	text, err := s.gen.Generate(ctx, domain.TextRequest{Prompt: prompt, Temperature: 0.9, MaxTokens: 300})
	if err != nil {
		s.log.Warn().Err(err).Msg("генерация вопросов не удалась, используем вопросы по умолчанию")
		metrics.QuestionFallbacksTotal.Inc()
		return Defaults()
	}
	questions := ParseQuestions(text)
	if len(questions) < questionCount {
		s.log.Warn().Int("parsed", len(questions)).Msg("модель вернула мало вопросов, используем вопросы по умолчанию")
		metrics.QuestionFallbacksTotal.Inc()
		return Defaults()
	}
	return questions
}

func (s *Service) preferences(ctx context.Context) domain.UserPreferences {
	if s.prefs == nil {
		return domain.UserPreferences{}
	}
	prefs, _, err := s.prefs.GetPreferences(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("не удалось загрузить настройки")
		return domain.UserPreferences{}
	}
	return prefs
}

func (s *Service) recentEntries(ctx context.Context) []domain.JournalEntry {
	since := s.now().AddDate(0, 0, -lookbackDays)
	entries, err := s.entries.ListEntriesSince(ctx, since)
	if err != nil {
		s.log.Warn().Err(err).Msg("не удалось загрузить записи за неделю")
		return nil
	}
	return entries
}

// BuildPrompt собирает промпт из целей пользователя и ответов за неделю.
func BuildPrompt(prefs domain.UserPreferences, recent []domain.JournalEntry) string {
	goal := strings.TrimSpace(prefs.MainGoal)
	if goal == "" {
		goal = defaultGoal
	}
	commitment := strings.TrimSpace(prefs.TimeCommitment)
	if commitment == "" {
		commitment = defaultCommitment
	}

	history := "The user is just starting their gratitude journaling journey."
	if len(recent) > 0 {
		blocks := make([]string, 0, len(recent))
		for _, e := range recent {
			pairs := make([]string, 0, len(e.Answers))
			for _, a := range e.Answers {
				pairs = append(pairs, fmt.Sprintf("Q: %s\nA: %s", a.Question, a.Answer))
			}
			blocks = append(blocks, strings.Join(pairs, "\n"))
		}
		history = "The user has journaled these following answers to these prompts in the past week:\n" + strings.Join(blocks, "\n\n")
	}

	return fmt.Sprintf(`The user of this gratitude journaling app is focused on %s and wants to spend %s. Based on this information, generate three unique questions that allow the user to reflect on key parts of their day and express gratitude. %s Tailor the 3 generated questions to align with the goals or highlights they mentioned previously.

Return ONLY the 3 questions, numbered 1-3, with no additional explanation or text.`, goal, commitment, history)
}

// ParseQuestions вытаскивает из ответа модели строки-вопросы, не больше трёх.
func ParseQuestions(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		line = numberPrefix.ReplaceAllString(line, "")
		line = bulletPrefix.ReplaceAllString(line, "")
		line = strings.TrimSpace(questionPrefix.ReplaceAllString(line, ""))
		if !strings.HasSuffix(line, "?") || utf8.RuneCountInString(line) < minQuestionLength {
			continue
		}
		out = append(out, line)
		if len(out) == questionCount {
			break
		}
	}
	return out
}
