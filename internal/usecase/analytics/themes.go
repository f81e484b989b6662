package analytics

import (
	"sort"
	"strings"
	"unicode/utf8"

	"gratitude-journal/internal/domain"
)

const (
	// DefaultTopThemes лимит тем для недельного и общего обзора.
	DefaultTopThemes = 5
	// BubbleThemes лимит тем для облака пузырей.
	BubbleThemes = 8
)

const (
	minThemeLength = 4
	maxCategorized = 5
)

var skipWords = map[string]struct{}{}

func init() {
	for _, w := range strings.Fields(`
		the a an and or but in on at to for of with by
		from up about into through during is was are were been
		be have has had do does did will would could should
		may might must can i you he she it we they my
		your his her its our their me him them this that
		these those what which who when where why how all
		both each few more most some such than too very just`) {
		skipWords[w] = struct{}{}
	}
}

// IsSkipWord проверяет слово по общему списку стоп-слов тем.
func IsSkipWord(word string) bool {
	_, ok := skipWords[word]
	return ok
}

// ThemeCounts частоты слов с порядком первого появления.
type ThemeCounts struct {
	order  []string
	counts map[string]int
}

// Words возвращает слова в порядке первого появления.
func (t ThemeCounts) Words() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// Count возвращает частоту слова.
func (t ThemeCounts) Count(word string) int {
	return t.counts[word]
}

// Has проверяет наличие темы.
func (t ThemeCounts) Has(word string) bool {
	_, ok := t.counts[word]
	return ok
}

// Len количество разных тем.
func (t ThemeCounts) Len() int {
	return len(t.order)
}

// Map возвращает копию частот.
func (t ThemeCounts) Map() map[string]int {
	out := make(map[string]int, len(t.counts))
	for k, v := range t.counts {
		out[k] = v
	}
	return out
}

func (t *ThemeCounts) add(word string) {
	if _, ok := t.counts[word]; !ok {
		t.order = append(t.order, word)
	}
	t.counts[word]++
}

// ExtractThemes считает слова длиннее трёх букв во всех ответах,
// отбрасывая стоп-слова и всё, кроме строчных букв.
func ExtractThemes(entries []domain.JournalEntry) ThemeCounts {
	themes := ThemeCounts{counts: make(map[string]int)}
	for _, e := range entries {
		for _, a := range e.Answers {
			for _, word := range strings.Fields(strings.ToLower(a.Answer)) {
				cleaned := strings.Map(keepLower, word)
				if utf8.RuneCountInString(cleaned) < minThemeLength || IsSkipWord(cleaned) {
					continue
				}
				themes.add(cleaned)
			}
		}
	}
	return themes
}

// keepLower оставляет только a-z: буквы с диакритикой выпадают из слова.
func keepLower(r rune) rune {
	if r >= 'a' && r <= 'z' {
		return r
	}
	return -1
}

// ThemeBubble тема с частотой для визуализации.
type ThemeBubble struct {
	Word        string `json:"word"`
	Count       int    `json:"count"`
	IsNew       bool   `json:"is_new,omitempty"`
	IsRecurring bool   `json:"is_recurring,omitempty"`
}

// TopThemes сортирует темы по убыванию частоты. При равной частоте
// сохраняется порядок первого появления. limit <= 0 означает DefaultTopThemes.
func TopThemes(entries []domain.JournalEntry, limit int) []ThemeBubble {
	return rank(ExtractThemes(entries), limit)
}

func rank(themes ThemeCounts, limit int) []ThemeBubble {
	if limit <= 0 {
		limit = DefaultTopThemes
	}
	bubbles := make([]ThemeBubble, 0, themes.Len())
	for _, w := range themes.order {
		bubbles = append(bubbles, ThemeBubble{Word: w, Count: themes.counts[w]})
	}
	sort.SliceStable(bubbles, func(i, j int) bool { return bubbles[i].Count > bubbles[j].Count })
	if len(bubbles) > limit {
		bubbles = bubbles[:limit]
	}
	return bubbles
}

// TopThemeWords возвращает только слова из TopThemes.
func TopThemeWords(entries []domain.JournalEntry, limit int) []string {
	bubbles := TopThemes(entries, limit)
	out := make([]string, 0, len(bubbles))
	for _, b := range bubbles {
		out = append(out, b.Word)
	}
	return out
}

// ThemeCategories новые и повторяющиеся темы текущего периода.
type ThemeCategories struct {
	NewThemes       []string `json:"new_themes"`
	RecurringThemes []string `json:"recurring_themes"`
}

// CategorizeThemes делит темы текущего периода на новые и повторяющиеся
// относительно предыдущего. Каждый список не длиннее пяти.
func CategorizeThemes(current, previous []domain.JournalEntry) ThemeCategories {
	cur := ExtractThemes(current)
	prev := ExtractThemes(previous)
	out := ThemeCategories{NewThemes: []string{}, RecurringThemes: []string{}}
	for _, w := range cur.order {
		if prev.Has(w) {
			if len(out.RecurringThemes) < maxCategorized {
				out.RecurringThemes = append(out.RecurringThemes, w)
			}
			continue
		}
		if len(out.NewThemes) < maxCategorized {
			out.NewThemes = append(out.NewThemes, w)
		}
	}
	return out
}
