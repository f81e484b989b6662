package domain

import (
	"errors"
	"strings"
	"time"
)

// ErrEntryNotFound возвращается, если запись дневника не найдена.
var ErrEntryNotFound = errors.New("запись не найдена")

// ErrShareNotFound возвращается, если ссылка на благодарность не найдена.
var ErrShareNotFound = errors.New("ссылка на благодарность не найдена")

// DateLayout формат даты записи в хранилище.
const DateLayout = "2006-01-02"

// Answer пара вопрос-ответ внутри записи.
type Answer struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// JournalEntry описывает одну запись дневника благодарности за день.
type JournalEntry struct {
	ID              string    `json:"id"`
	Date            time.Time `json:"date"`
	Answers         []Answer  `json:"answers"`
	MentionedPeople []string  `json:"mentioned_people"`
	MediaURL        string    `json:"media_url,omitempty"`
	CreatedAt       time.Time `json:"created_at,omitempty"`
}

// Day возвращает календарный день записи в полночь UTC.
func (e JournalEntry) Day() time.Time {
	return CalendarDay(e.Date)
}

// CalendarDay отбрасывает время суток, сохраняя год, месяц и число в исходной зоне.
func CalendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DedupePeople удаляет пустые и регистронезависимые дубли, сохраняя первое написание.
func DedupePeople(people []string) []string {
	seen := make(map[string]struct{}, len(people))
	out := make([]string, 0, len(people))
	for _, p := range people {
		trimmed := strings.TrimSpace(p)
		if trimmed == "" {
			continue
		}
		key := strings.ToLower(trimmed)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, trimmed)
	}
	return out
}

// ConfirmedName запись о подтверждённом пользователем имени.
type ConfirmedName struct {
	Name            string
	NormalizedName  string
	ConfirmedCount  int
	LastConfirmedAt time.Time
}

// ThanksStatus статус отправки благодарности.
type ThanksStatus string

const (
	// ThanksStatusSent благодарность отправлена.
	ThanksStatusSent ThanksStatus = "sent"
	// ThanksStatusFailed отправка не удалась.
	ThanksStatusFailed ThanksStatus = "failed"
)

// ThanksRecord фиксирует отправленный стикер благодарности.
type ThanksRecord struct {
	ID            string       `json:"id"`
	PersonName    string       `json:"person_name"`
	ImageSelected string       `json:"image_selected"`
	SentAt        time.Time    `json:"sent_timestamp"`
	Status        ThanksStatus `json:"message_status"`
}

// SharedThanks публичная страница с благодарностью.
type SharedThanks struct {
	ShareID       string    `json:"share_id"`
	RecipientName string    `json:"recipient_name"`
	ImageURL      string    `json:"image_url"`
	Message       string    `json:"message"`
	CreatedAt     time.Time `json:"created_at"`
}

// TextBoxSize размер поля ввода ответа.
type TextBoxSize string

const (
	TextBoxSmall  TextBoxSize = "small"
	TextBoxMedium TextBoxSize = "medium"
	TextBoxLarge  TextBoxSize = "large"
)

// Rows возвращает количество строк для размера поля.
func (s TextBoxSize) Rows() int {
	switch s {
	case TextBoxSmall:
		return 3
	case TextBoxLarge:
		return 8
	default:
		return 5
	}
}

// UserPreferences настройки пользователя, собранные при онбординге.
type UserPreferences struct {
	Username               string      `json:"username"`
	MainGoal               string      `json:"main_goal,omitempty"`
	TimeCommitment         string      `json:"time_commitment,omitempty"`
	TextBoxSize            TextBoxSize `json:"text_box_size"`
	HasCompletedOnboarding bool        `json:"has_completed_onboarding"`
	UpdatedAt              time.Time   `json:"updated_at,omitempty"`
}

// Theme тема из удалённого анализа записей.
type Theme struct {
	Label           string   `json:"label"`
	Count           int      `json:"count"`
	AvgSentiment    float64  `json:"avg_sentiment"`
	Score           float64  `json:"score"`
	SampleExcerpts  []string `json:"sample_excerpts"`
	ExampleEntryIDs []string `json:"example_entry_ids"`
}

// ThemeAnalysis результат анализа тем.
type ThemeAnalysis struct {
	TotalEntries int      `json:"total_entries"`
	Themes       []Theme  `json:"themes"`
	Top3         []string `json:"top_3"`
}

// EntryText текст записи, подготовленный для анализа.
type EntryText struct {
	ID   string
	Text string
}
