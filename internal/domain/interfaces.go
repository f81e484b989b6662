package domain

import (
	"context"
	"time"
)

// EntryRepo хранит записи дневника.
type EntryRepo interface {
	SaveEntry(ctx context.Context, entry JournalEntry) error
	ListEntries(ctx context.Context) ([]JournalEntry, error)
	ListEntriesSince(ctx context.Context, since time.Time) ([]JournalEntry, error)
	ListRecentEntries(ctx context.Context, limit int) ([]JournalEntry, error)
	DeleteEntry(ctx context.Context, id string) error
	DeleteAllEntries(ctx context.Context) error
}

// NameKnowledge справочник имён: общий список и подтверждённые пользователем.
type NameKnowledge interface {
	ListCommonNames(ctx context.Context, maxPopularity int) ([]string, error)
	ListConfirmedNames(ctx context.Context) ([]string, error)
	IsCommonName(ctx context.Context, normalized string) (bool, error)
	IsUserConfirmedName(ctx context.Context, normalized string) (bool, error)
	ConfirmName(ctx context.Context, name string, at time.Time) error
}

// NameRecorder принимает подтверждённое имя для долговременной записи.
// Реализации не блокируют вызывающего дольше постановки задачи.
type NameRecorder interface {
	RecordConfirmedName(ctx context.Context, name string) error
}

// ThanksRepo хранит историю отправленных благодарностей и ссылки.
type ThanksRepo interface {
	SaveThanks(ctx context.Context, rec ThanksRecord) error
	LastThanks(ctx context.Context, person string) (ThanksRecord, bool, error)
	ListThanks(ctx context.Context, person string) ([]ThanksRecord, error)
	SaveSharedThanks(ctx context.Context, share SharedThanks) error
	GetSharedThanks(ctx context.Context, shareID string) (SharedThanks, error)
}

// PreferencesRepo хранит настройки пользователя.
type PreferencesRepo interface {
	GetPreferences(ctx context.Context) (UserPreferences, bool, error)
	UpsertPreferences(ctx context.Context, prefs UserPreferences) error
	UpdateUsername(ctx context.Context, username string) (bool, error)
}

// TextGenerator генерирует текст по промпту.
type TextGenerator interface {
	Generate(ctx context.Context, req TextRequest) (string, error)
}

// TextRequest параметры генерации.
type TextRequest struct {
	System      string
	Prompt      string
	Temperature float64
	MaxTokens   int
	JSON        bool
}

// ThemeAnalyzer строит анализ тем по текстам записей.
type ThemeAnalyzer interface {
	Analyze(ctx context.Context, entries []EntryText) (ThemeAnalysis, error)
}

// StickerSender доставляет стикер благодарности адресату.
type StickerSender interface {
	SendSticker(ctx context.Context, chatID int64, imageURL, caption string) error
}

// Cache используется для простых TTL-хранилищ.
type Cache interface {
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Delete(ctx context.Context, key string) error
}
