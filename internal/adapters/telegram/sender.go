package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"gratitude-journal/internal/infra/metrics"
)

// captionLimit ограничение Telegram на подпись к фото.
const captionLimit = 1024

type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// StickerSender отправляет стикеры благодарности фотографией через Bot API.
type StickerSender struct {
	bot botAPI
}

// NewStickerSender создаёт отправителя.
func NewStickerSender(bot *tgbotapi.BotAPI) *StickerSender {
	return &StickerSender{bot: bot}
}

// SendSticker отправляет картинку по URL с подписью.
func (s *StickerSender) SendSticker(ctx context.Context, chatID int64, imageURL, caption string) (err error) {
	if chatID == 0 {
		return errors.New("telegram: chat id is empty")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileURL(imageURL))
	photo.Caption = TrimCaption(caption)

	start := time.Now()
	defer func() { metrics.ObserveNetworkRequest("telegram", "send_photo", "bot_api", start, err) }()
	if _, err = s.bot.Send(photo); err != nil {
		return fmt.Errorf("telegram: send photo: %w", err)
	}
	return nil
}

// TrimCaption обрезает подпись до лимита Telegram, по возможности на границе слова.
func TrimCaption(caption string) string {
	trimmed := strings.TrimSpace(caption)
	runes := []rune(trimmed)
	if len(runes) <= captionLimit {
		return trimmed
	}
	cut := string(runes[:captionLimit-1])
	if idx := strings.LastIndexAny(cut, " \n"); idx > 0 {
		cut = cut[:idx]
	}
	return strings.TrimSpace(cut) + "…"
}
