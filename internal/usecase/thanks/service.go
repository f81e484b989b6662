package thanks

import (
	"context"
	crand "crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"gratitude-journal/internal/domain"
	"gratitude-journal/internal/infra/metrics"
)

const (
	shareIDLength   = 8
	shareIDAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
)

var (
	// ErrUnknownSticker возвращается для стикера вне каталога.
	ErrUnknownSticker = errors.New("неизвестный стикер")
	// ErrEmptyPerson возвращается, если не указан адресат.
	ErrEmptyPerson = errors.New("не указан адресат благодарности")
	// ErrShareNotFound возвращается для неизвестной ссылки.
	ErrShareNotFound = domain.ErrShareNotFound
)

// Service отправляет стикеры благодарности и ведёт их историю.
type Service struct {
	repo      domain.ThanksRepo
	sender    domain.StickerSender
	business  domain.BusinessMetricRepo
	catalog   Catalog
	publicURL string
	log       zerolog.Logger
	now       func() time.Time
}

// NewService создаёт сервис. sender и business могут быть nil.
func NewService(repo domain.ThanksRepo, sender domain.StickerSender, business domain.BusinessMetricRepo, catalog Catalog, publicURL string, logger zerolog.Logger) *Service {
	return &Service{
		repo:      repo,
		sender:    sender,
		business:  business,
		catalog:   catalog,
		publicURL: strings.TrimRight(publicURL, "/"),
		log:       logger.With().Str("component", "thanks").Logger(),
		now:       time.Now,
	}
}

// Stickers возвращает каталог стикеров.
func (s *Service) Stickers() []Sticker {
	return s.catalog.List()
}

// Caption подпись к стикеру.
func Caption(person string) string {
	return fmt.Sprintf("Thank you, %s! 💜", person)
}

// SendThanks доставляет стикер в чат (если он задан) и сохраняет запись.
// Ошибка доставки не возвращается: запись сохраняется со статусом failed.
func (s *Service) SendThanks(ctx context.Context, person, stickerID string, chatID int64) (domain.ThanksRecord, error) {
	person = strings.TrimSpace(person)
	if person == "" {
		return domain.ThanksRecord{}, ErrEmptyPerson
	}
	sticker, ok := s.catalog.Get(stickerID)
	if !ok {
		return domain.ThanksRecord{}, ErrUnknownSticker
	}

	rec := domain.ThanksRecord{
		ID:            uuid.NewString(),
		PersonName:    person,
		ImageSelected: sticker.ID,
		SentAt:        s.now().UTC(),
		Status:        domain.ThanksStatusSent,
	}
	if chatID != 0 && s.sender != nil {
		if err := s.sender.SendSticker(ctx, chatID, sticker.URL, Caption(person)); err != nil {
			s.log.Error().Err(err).Int64("chat_id", chatID).Str("sticker", sticker.ID).Msg("не удалось доставить стикер")
			rec.Status = domain.ThanksStatusFailed
		}
	}

	if err := s.repo.SaveThanks(ctx, rec); err != nil {
		return domain.ThanksRecord{}, fmt.Errorf("сохранение благодарности: %w", err)
	}
	metrics.ThanksSentTotal.WithLabelValues(string(rec.Status)).Inc()
	s.recordMetric(ctx, rec)
	return rec, nil
}

func (s *Service) recordMetric(ctx context.Context, rec domain.ThanksRecord) {
	if s.business == nil {
		return
	}
	err := s.business.RecordBusinessMetric(ctx, domain.BusinessMetric{
		Event:      domain.BusinessMetricEventThanksSent,
		Metadata:   map[string]any{"sticker": rec.ImageSelected, "status": string(rec.Status)},
		OccurredAt: rec.SentAt,
	})
	if err != nil {
		s.log.Warn().Err(err).Msg("не удалось записать бизнес-метрику")
	}
}

// LastThanks последняя благодарность человеку.
func (s *Service) LastThanks(ctx context.Context, person string) (domain.ThanksRecord, bool, error) {
	return s.repo.LastThanks(ctx, person)
}

// History история благодарностей. Пустой person означает всех.
func (s *Service) History(ctx context.Context, person string) ([]domain.ThanksRecord, error) {
	records, err := s.repo.ListThanks(ctx, person)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []domain.ThanksRecord{}
	}
	return records, nil
}

// LastThanksByPerson возвращает время последней благодарности каждому из people.
// Ошибки хранилища логируются, такие люди пропускаются.
func (s *Service) LastThanksByPerson(ctx context.Context, people []string) map[string]time.Time {
	out := make(map[string]time.Time, len(people))
	for _, p := range people {
		rec, ok, err := s.repo.LastThanks(ctx, p)
		if err != nil {
			s.log.Warn().Err(err).Str("person", p).Msg("не удалось получить последнюю благодарность")
			continue
		}
		if ok {
			out[p] = rec.SentAt
		}
	}
	return out
}

// ShareLink созданная публичная ссылка.
type ShareLink struct {
	ShareID string `json:"share_id"`
	URL     string `json:"url"`
}

// CreateShareLink сохраняет благодарность для публичной страницы.
func (s *Service) CreateShareLink(ctx context.Context, recipient, stickerID, message string) (ShareLink, error) {
	recipient = strings.TrimSpace(recipient)
	if recipient == "" {
		return ShareLink{}, ErrEmptyPerson
	}
	sticker, ok := s.catalog.Get(stickerID)
	if !ok {
		return ShareLink{}, ErrUnknownSticker
	}
	id, err := generateShareID()
	if err != nil {
		return ShareLink{}, fmt.Errorf("генерация идентификатора ссылки: %w", err)
	}
	share := domain.SharedThanks{
		ShareID:       id,
		RecipientName: recipient,
		ImageURL:      sticker.URL,
		Message:       strings.TrimSpace(message),
		CreatedAt:     s.now().UTC(),
	}
	if err := s.repo.SaveSharedThanks(ctx, share); err != nil {
		return ShareLink{}, fmt.Errorf("сохранение ссылки: %w", err)
	}
	return ShareLink{ShareID: id, URL: s.publicURL + "?thanks=" + id}, nil
}

// GetShare возвращает благодарность по идентификатору ссылки.
func (s *Service) GetShare(ctx context.Context, shareID string) (domain.SharedThanks, error) {
	if strings.TrimSpace(shareID) == "" {
		return domain.SharedThanks{}, ErrShareNotFound
	}
	return s.repo.GetSharedThanks(ctx, shareID)
}

func generateShareID() (string, error) {
	buf := make([]byte, shareIDLength)
	if _, err := crand.Read(buf); err != nil {
		return "", err
	}
	var b strings.Builder
	b.Grow(shareIDLength)
	for _, raw := range buf {
		b.WriteByte(shareIDAlphabet[int(raw)%len(shareIDAlphabet)])
	}
	return b.String(), nil
}

// FormatTimeSince форматирует давность отправки.
func FormatTimeSince(sent, now time.Time) string {
	diff := now.Sub(sent)
	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff/time.Minute))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff/time.Hour))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff/(24*time.Hour)))
	default:
		return sent.Format("Jan 2")
	}
}
