package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	chi "github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"gratitude-journal/internal/domain"
	httpinfra "gratitude-journal/internal/infra/http"
	"gratitude-journal/internal/usecase/journal"
	"gratitude-journal/internal/usecase/preferences"
	"gratitude-journal/internal/usecase/thanks"
)

// Journal записи и сессии составления.
type Journal interface {
	Now() time.Time
	SaveEntry(ctx context.Context, draft journal.Draft) (domain.JournalEntry, error)
	ListEntries(ctx context.Context) []domain.JournalEntry
	DeleteEntry(ctx context.Context, id string) error
	StartSession(ctx context.Context) journal.SessionView
	SessionState(id string) (journal.SessionView, error)
	SessionTextChanged(ctx context.Context, id, text string) (journal.SessionView, error)
	SessionSelection(ctx context.Context, id, text string, start, end int) (journal.SessionView, error)
	SessionConfirm(ctx context.Context, id string, isPerson bool) (journal.SessionView, error)
	FinishSession(ctx context.Context, id string, draft journal.Draft) (domain.JournalEntry, error)
	DiscardSession(id string) error
}

// Questions генератор вопросов дня.
type Questions interface {
	Generate(ctx context.Context) []string
}

// Themes анализ тем записей.
type Themes interface {
	Analyze(ctx context.Context) (domain.ThemeAnalysis, error)
}

// Thanks стикеры благодарности.
type Thanks interface {
	Stickers() []thanks.Sticker
	SendThanks(ctx context.Context, person, stickerID string, chatID int64) (domain.ThanksRecord, error)
	LastThanks(ctx context.Context, person string) (domain.ThanksRecord, bool, error)
	History(ctx context.Context, person string) ([]domain.ThanksRecord, error)
	LastThanksByPerson(ctx context.Context, people []string) map[string]time.Time
	CreateShareLink(ctx context.Context, recipient, stickerID, message string) (thanks.ShareLink, error)
	GetShare(ctx context.Context, shareID string) (domain.SharedThanks, error)
}

// Preferences настройки пользователя.
type Preferences interface {
	Get(ctx context.Context) (domain.UserPreferences, error)
	CompleteOnboarding(ctx context.Context, data preferences.Onboarding) (domain.UserPreferences, error)
	UpdateUsername(ctx context.Context, username string) error
}

// Deps зависимости обработчиков.
type Deps struct {
	Journal       Journal
	Questions     Questions
	Themes        Themes
	Thanks        Thanks
	Preferences   Preferences
	DefaultChatID int64
}

// Handler HTTP API дневника.
type Handler struct {
	Deps
	log zerolog.Logger
}

// New создаёт обработчики.
func New(deps Deps, logger zerolog.Logger) *Handler {
	return &Handler{Deps: deps, log: logger.With().Str("component", "httpapi").Logger()}
}

// Mount регистрирует маршруты на роутере.
func (h *Handler) Mount(r chi.Router) {
	r.Get("/thanks/{shareID}", h.viewSharedThanks)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/entries", h.listEntries)
		r.Post("/entries", h.createEntry)
		r.Delete("/entries/{id}", h.deleteEntry)

		r.Post("/sessions", h.startSession)
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Get("/", h.sessionState)
			r.Delete("/", h.discardSession)
			r.Post("/text", h.sessionText)
			r.Post("/selection", h.sessionSelection)
			r.Post("/confirm", h.sessionConfirm)
			r.Post("/finish", h.finishSession)
		})

		r.Get("/questions", h.questions)
		r.Get("/insights", h.insights)
		r.Get("/summary/weekly", h.weeklySummary)
		r.Get("/summary/monthly", h.monthlySummary)
		r.Get("/themes/analysis", h.themeAnalysis)

		r.Get("/stickers", h.stickers)
		r.Post("/thanks", h.sendThanks)
		r.Get("/thanks", h.thanksHistory)
		r.Get("/thanks/last", h.lastThanks)
		r.Post("/thanks/share", h.createShare)

		r.Get("/preferences", h.getPreferences)
		r.Put("/preferences/onboarding", h.completeOnboarding)
		r.Put("/preferences/username", h.updateUsername)
	})
}

var errBadRequest = errors.New("invalid request body")

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrEntryNotFound),
		errors.Is(err, domain.ErrShareNotFound),
		errors.Is(err, journal.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, errBadRequest),
		errors.Is(err, journal.ErrEmptyAnswer),
		errors.Is(err, thanks.ErrUnknownSticker),
		errors.Is(err, thanks.ErrEmptyPerson),
		errors.Is(err, preferences.ErrEmptyUsername):
		return http.StatusBadRequest
	case errors.Is(err, preferences.ErrNotOnboarded):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.log.Error().Err(err).Str("op", op).Str("request_id", httpinfra.RequestID(r)).Msg("ошибка обработки запроса")
		httpinfra.WriteError(w, status, errors.New("internal error"))
		return
	}
	httpinfra.WriteError(w, status, err)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := httpinfra.DecodeJSON(r, dst); err != nil {
		httpinfra.WriteError(w, http.StatusBadRequest, errBadRequest)
		return false
	}
	return true
}
