package namedetect

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"gratitude-journal/internal/domain"
)

// MaxCommonPopularity ограничивает предзагрузку справочника самыми популярными именами.
const MaxCommonPopularity = 100

// Confidence уверенность в том, что слово является именем.
type Confidence int

const (
	ConfidenceUnknown Confidence = iota
	ConfidenceCommon
	ConfidenceUserConfirmed
)

// String возвращает имя уровня уверенности для ответов API.
func (c Confidence) String() string {
	switch c {
	case ConfidenceCommon:
		return "common"
	case ConfidenceUserConfirmed:
		return "user_confirmed"
	default:
		return "unknown"
	}
}

// MarshalText позволяет сериализовать уровень строкой.
func (c Confidence) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// NameCache кэш справочника имён, принадлежащий одной сессии записи.
// Не потокобезопасен: сессия сериализует вызовы сама.
type NameCache struct {
	kb        domain.NameKnowledge
	recorder  domain.NameRecorder
	log       zerolog.Logger
	common    map[string]bool
	confirmed map[string]struct{}
}

// NewNameCache создаёт пустой кэш. kb и recorder могут быть nil.
func NewNameCache(kb domain.NameKnowledge, recorder domain.NameRecorder, logger zerolog.Logger) *NameCache {
	return &NameCache{
		kb:        kb,
		recorder:  recorder,
		log:       logger.With().Str("component", "name_cache").Logger(),
		common:    make(map[string]bool),
		confirmed: make(map[string]struct{}),
	}
}

// Preload загружает популярные и подтверждённые имена. Ошибки только логируются.
func (c *NameCache) Preload(ctx context.Context) {
	if c.kb == nil {
		return
	}
	common, err := c.kb.ListCommonNames(ctx, MaxCommonPopularity)
	if err != nil {
		c.log.Warn().Err(err).Msg("не удалось загрузить общие имена")
	}
	for _, name := range common {
		c.common[normalize(name)] = true
	}
	confirmed, err := c.kb.ListConfirmedNames(ctx)
	if err != nil {
		c.log.Warn().Err(err).Msg("не удалось загрузить подтверждённые имена")
	}
	for _, name := range confirmed {
		c.confirmed[normalize(name)] = struct{}{}
	}
	c.log.Debug().Int("common", len(c.common)).Int("confirmed", len(c.confirmed)).Msg("справочник имён загружен")
}

// IsCommonName проверяет имя по загруженному справочнику.
func (c *NameCache) IsCommonName(word string) bool {
	key, ok := nameKey(word)
	if !ok {
		return false
	}
	return c.common[key]
}

// IsUserConfirmedName проверяет, подтверждал ли пользователь это имя.
func (c *NameCache) IsUserConfirmedName(word string) bool {
	key, ok := nameKey(word)
	if !ok {
		return false
	}
	_, found := c.confirmed[key]
	return found
}

// IsKnownName истинно для общих и подтверждённых имён.
func (c *NameCache) IsKnownName(word string) bool {
	return c.IsUserConfirmedName(word) || c.IsCommonName(word)
}

// Classify оценивает слово только по памяти.
func (c *NameCache) Classify(word string) Confidence {
	switch {
	case c.IsUserConfirmedName(word):
		return ConfidenceUserConfirmed
	case c.IsCommonName(word):
		return ConfidenceCommon
	default:
		return ConfidenceUnknown
	}
}

// Resolve дополняет Classify запросом к справочнику для слов, которых нет в памяти.
// Ошибка справочника означает «неизвестное имя»; отрицательный ответ не кэшируется.
func (c *NameCache) Resolve(ctx context.Context, word string) Confidence {
	if conf := c.Classify(word); conf != ConfidenceUnknown {
		return conf
	}
	key, ok := nameKey(word)
	if !ok || c.kb == nil {
		return ConfidenceUnknown
	}
	if confirmed, err := c.kb.IsUserConfirmedName(ctx, key); err != nil {
		c.log.Warn().Err(err).Str("word", key).Msg("проверка подтверждённого имени не удалась")
	} else if confirmed {
		c.confirmed[key] = struct{}{}
		return ConfidenceUserConfirmed
	}
	if common, err := c.kb.IsCommonName(ctx, key); err != nil {
		c.log.Warn().Err(err).Str("word", key).Msg("проверка общего имени не удалась")
	} else if common {
		c.common[key] = true
		return ConfidenceCommon
	}
	return ConfidenceUnknown
}

// Confirm сразу обновляет кэш и передаёт имя на долговременную запись.
func (c *NameCache) Confirm(ctx context.Context, name string) {
	key, ok := nameKey(name)
	if !ok {
		return
	}
	c.confirmed[key] = struct{}{}
	if c.recorder == nil {
		return
	}
	if err := c.recorder.RecordConfirmedName(ctx, strings.TrimSpace(name)); err != nil {
		c.log.Error().Err(err).Str("name", key).Msg("не удалось сохранить подтверждённое имя")
	}
}

func normalize(word string) string {
	return strings.ToLower(strings.TrimSpace(word))
}

func nameKey(word string) (string, bool) {
	key := normalize(word)
	if utf8.RuneCountInString(key) < minNameLength {
		return "", false
	}
	return key, true
}
