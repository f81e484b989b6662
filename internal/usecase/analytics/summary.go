package analytics

import (
	"fmt"
	"time"
	"unicode/utf8"

	"gratitude-journal/internal/domain"
)

const day = 24 * time.Hour

const (
	// WeekDays окно недельного обзора.
	WeekDays = 7
	// MonthDays окно месячного обзора.
	MonthDays = 30
)

const (
	minMomentLength     = 20
	weeklyMomentsLimit  = 3
	monthlyMomentsLimit = 4
)

// WindowedEntries оставляет записи с датой не раньше now минус windowDays суток.
func WindowedEntries(entries []domain.JournalEntry, now time.Time, windowDays int) []domain.JournalEntry {
	since := now.Add(-time.Duration(windowDays) * day)
	var out []domain.JournalEntry
	for _, e := range entries {
		if !e.Date.Before(since) {
			out = append(out, e)
		}
	}
	return out
}

// PreviousWindowEntries записи в окне [now-2*windowDays, now-windowDays).
func PreviousWindowEntries(entries []domain.JournalEntry, now time.Time, windowDays int) []domain.JournalEntry {
	from := now.Add(-2 * time.Duration(windowDays) * day)
	to := now.Add(-time.Duration(windowDays) * day)
	var out []domain.JournalEntry
	for _, e := range entries {
		if !e.Date.Before(from) && e.Date.Before(to) {
			out = append(out, e)
		}
	}
	return out
}

// PeopleMentioned собирает людей в порядке первого упоминания без дублей по регистру.
func PeopleMentioned(entries []domain.JournalEntry) []string {
	var all []string
	for _, e := range entries {
		all = append(all, e.MentionedPeople...)
	}
	return domain.DedupePeople(all)
}

// JoyfulMoments возвращает развёрнутые ответы длиннее 20 символов. limit <= 0 без ограничения.
func JoyfulMoments(entries []domain.JournalEntry, limit int) []string {
	moments := []string{}
	for _, e := range entries {
		for _, a := range e.Answers {
			if utf8.RuneCountInString(a.Answer) <= minMomentLength {
				continue
			}
			if limit > 0 && len(moments) >= limit {
				return moments
			}
			moments = append(moments, a.Answer)
		}
	}
	return moments
}

// StickerCount сумма отмеченных людей по записям.
func StickerCount(entries []domain.JournalEntry) int {
	n := 0
	for _, e := range entries {
		n += len(e.MentionedPeople)
	}
	return n
}

// WeeklySummary обзор последних семи дней.
type WeeklySummary struct {
	DaysLogged    int      `json:"days_logged"`
	EntryCount    int      `json:"entry_count"`
	TopThemes     []string `json:"top_themes"`
	JoyfulMoments []string `json:"joyful_moments"`
}

// BuildWeeklySummary строит недельный обзор.
func BuildWeeklySummary(entries []domain.JournalEntry, now time.Time) WeeklySummary {
	week := WindowedEntries(entries, now, WeekDays)
	return WeeklySummary{
		DaysLogged:    DaysLogged(week),
		EntryCount:    len(week),
		TopThemes:     TopThemeWords(week, DefaultTopThemes),
		JoyfulMoments: JoyfulMoments(week, weeklyMomentsLimit),
	}
}

// Insights общая статистика по всей истории.
type Insights struct {
	CurrentStreak int      `json:"current_streak"`
	LongestStreak int      `json:"longest_streak"`
	People        []string `json:"people"`
	TopThemes     []string `json:"top_themes"`
	LoggedDays    []int    `json:"logged_days"`
	HasEntryToday bool     `json:"has_entry_today"`
	TotalEntries  int      `json:"total_entries"`
}

// BuildInsights строит общую статистику.
func BuildInsights(entries []domain.JournalEntry, now time.Time) Insights {
	return Insights{
		CurrentStreak: CurrentStreak(entries, now),
		LongestStreak: LongestStreak(entries),
		People:        PeopleMentioned(entries),
		TopThemes:     TopThemeWords(entries, DefaultTopThemes),
		LoggedDays:    LoggedDaysInMonth(entries, now),
		HasEntryToday: HasEntryOn(entries, now),
		TotalEntries:  len(entries),
	}
}

// MonthlySummary данные для месячной истории.
type MonthlySummary struct {
	DaysLogged      int           `json:"days_logged"`
	CurrentStreak   int           `json:"current_streak"`
	LongestStreak   int           `json:"longest_streak"`
	DisplayStreak   int           `json:"display_streak"`
	IsCurrentStreak bool          `json:"is_current_streak"`
	StickerCount    int           `json:"sticker_count"`
	People          []string      `json:"people"`
	ThemeBubbles    []ThemeBubble `json:"theme_bubbles"`
	NewThemes       []string      `json:"new_themes"`
	RecurringThemes []string      `json:"recurring_themes"`
	JoyfulMoments   []string      `json:"joyful_moments"`
	Messages        []string      `json:"messages"`
}

// BuildMonthlySummary строит месячную историю. Серии считаются по всей истории,
// остальное по окну последних 30 дней.
func BuildMonthlySummary(entries []domain.JournalEntry, now time.Time) MonthlySummary {
	month := WindowedEntries(entries, now, MonthDays)
	previous := PreviousWindowEntries(entries, now, MonthDays)

	current := CurrentStreak(entries, now)
	longest := LongestStreak(entries)
	categories := CategorizeThemes(month, previous)

	prevThemes := ExtractThemes(previous)
	bubbles := TopThemes(month, BubbleThemes)
	for i := range bubbles {
		if prevThemes.Has(bubbles[i].Word) {
			bubbles[i].IsRecurring = true
		} else {
			bubbles[i].IsNew = true
		}
	}

	s := MonthlySummary{
		DaysLogged:      DaysLogged(month),
		CurrentStreak:   current,
		LongestStreak:   longest,
		DisplayStreak:   max(current, longest),
		IsCurrentStreak: current >= longest,
		StickerCount:    StickerCount(month),
		People:          PeopleMentioned(month),
		ThemeBubbles:    bubbles,
		NewThemes:       categories.NewThemes,
		RecurringThemes: categories.RecurringThemes,
		JoyfulMoments:   JoyfulMoments(month, monthlyMomentsLimit),
	}
	s.Messages = EncouragingMessages(s.DaysLogged, s.DisplayStreak, len(s.ThemeBubbles), len(s.People))
	return s
}

// EncouragingMessages подбирает ободряющие фразы для финального слайда.
func EncouragingMessages(daysLogged, displayStreak, themesCount, peopleCount int) []string {
	var messages []string
	switch {
	case daysLogged >= 20:
		messages = append(messages, "Your dedication to gratitude this month has been extraordinary!")
	case daysLogged >= 10:
		messages = append(messages, "You've shown wonderful commitment to your gratitude practice!")
	case daysLogged >= 5:
		messages = append(messages, "You're building a beautiful gratitude habit!")
	default:
		messages = append(messages, "Every moment of gratitude counts!")
	}
	if displayStreak >= 7 {
		messages = append(messages, fmt.Sprintf("Maintaining a %d-day streak shows true dedication.", displayStreak))
	}
	if themesCount > 5 {
		messages = append(messages, fmt.Sprintf("You've explored %d different themes of gratitude.", themesCount))
	}
	if peopleCount > 0 {
		noun := "people"
		if peopleCount == 1 {
			noun = "person"
		}
		messages = append(messages, fmt.Sprintf("You've recognized %d special %s in your life.", peopleCount, noun))
	}
	messages = append(messages, "These aren't just numbers, they're moments of awareness, connection, and joy.")
	return messages
}
