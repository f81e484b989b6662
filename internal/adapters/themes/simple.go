package themes

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"

	"gratitude-journal/internal/domain"
	"gratitude-journal/internal/usecase/analytics"
)

const (
	maxExcerpts     = 2
	maxExcerptRunes = 50
	maxSimpleThemes = 5
)

// SimpleAnalyzer строит темы по частоте ключевых слов без обращения к модели.
type SimpleAnalyzer struct{}

// NewSimple создаёт локальный анализатор.
func NewSimple() *SimpleAnalyzer {
	return &SimpleAnalyzer{}
}

// Analyze считает темами самые частые слова. Настроение всегда нейтральное.
func (s *SimpleAnalyzer) Analyze(_ context.Context, entries []domain.EntryText) (domain.ThemeAnalysis, error) {
	out := domain.ThemeAnalysis{TotalEntries: len(entries), Themes: []domain.Theme{}, Top3: []string{}}
	if len(entries) == 0 {
		return out, nil
	}

	docs := make([]domain.JournalEntry, len(entries))
	perEntry := make([]analytics.ThemeCounts, len(entries))
	for i, e := range entries {
		docs[i] = domain.JournalEntry{ID: e.ID, Answers: []domain.Answer{{Answer: e.Text}}}
		perEntry[i] = analytics.ExtractThemes(docs[i:i+1])
	}

	for _, bubble := range analytics.TopThemes(docs, maxSimpleThemes) {
		theme := domain.Theme{
			Label:           titleCase(bubble.Word),
			SampleExcerpts:  []string{},
			ExampleEntryIDs: []string{},
		}
		for i, e := range entries {
			if !perEntry[i].Has(bubble.Word) {
				continue
			}
			theme.Count++
			theme.ExampleEntryIDs = append(theme.ExampleEntryIDs, e.ID)
			if len(theme.SampleExcerpts) < maxExcerpts {
				theme.SampleExcerpts = append(theme.SampleExcerpts, excerpt(e.Text, bubble.Word))
			}
		}
		theme.Score = float64(theme.Count)/float64(len(entries))*0.6 + 0.2
		out.Themes = append(out.Themes, theme)
		if len(out.Top3) < 3 {
			out.Top3 = append(out.Top3, theme.Label)
		}
	}
	return out, nil
}

func titleCase(word string) string {
	r, size := utf8.DecodeRuneInString(word)
	if r == utf8.RuneError {
		return word
	}
	return string(unicode.ToUpper(r)) + word[size:]
}

// excerpt возвращает строку записи с упоминанием слова, обрезанную до 50 символов.
func excerpt(text, word string) string {
	line := strings.TrimSpace(text)
	for _, l := range strings.Split(text, "\n") {
		if strings.Contains(strings.ToLower(l), word) {
			line = strings.TrimSpace(l)
			break
		}
	}
	if utf8.RuneCountInString(line) <= maxExcerptRunes {
		return line
	}
	runes := []rune(line)
	return string(runes[:maxExcerptRunes-1]) + "…"
}
