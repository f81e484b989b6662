package themes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gratitude-journal/internal/domain"
)

// ErrEmptyAnalysis возвращается, если модель не вернула текст.
var ErrEmptyAnalysis = errors.New("themes: пустой ответ модели")

const systemPrompt = `You are a precise text analyst. Output only valid JSON and nothing else. When given journal entries, extract concise recurring themes (2-4 words, Title Case), compute per-entry sentiment valence (-1.0 .. 1.0), group entries into themes, and return per-theme aggregates. Replace any detected person names or PII with "[PERSON]" placeholders. Even with just a few entries, try to identify at least 1-3 meaningful themes. Only return {"themes": []} if absolutely no patterns can be found.`

const userPromptTemplate = `Analyze these gratitude journal entries and extract themes. Be generous in identifying themes - even if entries share similar topics or emotions, group them into meaningful themes.

%s

Instructions:
1. Extract themes (2-4 words, Title Case) - look for common topics, activities, people, emotions, or experiences across entries
2. For each entry, compute sentiment valence (-1.0 to 1.0, where 1.0 is most positive)
3. Group entries by theme - a theme can have as few as 1 entry if it's meaningful
4. For each theme, calculate:
   - count: number of entries in this theme
   - avg_sentiment: average sentiment of entries in this theme
   - score: weighted score = (count / total_entries) * 0.6 + (avg_sentiment + 1) / 2 * 0.4
   - sample_excerpts: 2-3 short excerpts (max 50 chars each) from entries in this theme, with [PERSON] placeholders
   - example_entry_ids: array of entry IDs (as strings) that belong to this theme

5. Return top themes sorted by score (descending) - include at least 1-3 themes if possible
6. Return top_3 array with the top 3 theme labels (or fewer if less than 3 themes exist)

Output format (JSON only):
{
  "total_entries": <number>,
  "themes": [
    {
      "label": "<Theme Name>",
      "count": <number>,
      "avg_sentiment": <number between -1.0 and 1.0>,
      "score": <number between 0 and 1>,
      "sample_excerpts": ["<excerpt 1>", "<excerpt 2>"],
      "example_entry_ids": ["<id1>", "<id2>"]
    }
  ],
  "top_3": ["<Theme 1>", "<Theme 2>", "<Theme 3>"]
}`

// LLMAnalyzer извлекает темы записей с помощью языковой модели.
type LLMAnalyzer struct {
	gen domain.TextGenerator
}

// NewLLM создаёт анализатор поверх генератора текста.
func NewLLM(gen domain.TextGenerator) *LLMAnalyzer {
	return &LLMAnalyzer{gen: gen}
}

// Analyze отправляет записи модели и разбирает JSON-ответ.
func (a *LLMAnalyzer) Analyze(ctx context.Context, entries []domain.EntryText) (domain.ThemeAnalysis, error) {
	text, err := a.gen.Generate(ctx, domain.TextRequest{
		System:      systemPrompt,
		Prompt:      BuildPrompt(entries),
		Temperature: 0.2,
		MaxTokens:   800,
		JSON:        true,
	})
	if err != nil {
		return domain.ThemeAnalysis{}, fmt.Errorf("генерация анализа тем: %w", err)
	}
	return ParseAnalysis(text)
}

// BuildPrompt перечисляет записи в формате, который ожидает промпт.
func BuildPrompt(entries []domain.EntryText) string {
	blocks := make([]string, 0, len(entries))
	for i, e := range entries {
		blocks = append(blocks, fmt.Sprintf("Entry %d (ID: %s):\n%s", i+1, e.ID, e.Text))
	}
	return fmt.Sprintf(userPromptTemplate, strings.Join(blocks, "\n\n---\n\n"))
}

// ParseAnalysis снимает markdown-ограждение и декодирует ответ.
func ParseAnalysis(text string) (domain.ThemeAnalysis, error) {
	cleaned := StripCodeFence(text)
	if cleaned == "" {
		return domain.ThemeAnalysis{}, ErrEmptyAnalysis
	}
	var out domain.ThemeAnalysis
	if err := json.Unmarshal([]byte(cleaned), &out); err != nil {
		return domain.ThemeAnalysis{}, fmt.Errorf("распаковка ответа LLM: %w", err)
	}
	return out, nil
}

// StripCodeFence убирает обёртку ```json ... ``` вокруг ответа.
func StripCodeFence(text string) string {
	s := strings.TrimSpace(text)
	switch {
	case strings.HasPrefix(s, "```json"):
		s = strings.TrimPrefix(s, "```json")
	case strings.HasPrefix(s, "```"):
		s = strings.TrimPrefix(s, "```")
	default:
		return s
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
