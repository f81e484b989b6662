package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	chi "github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"gratitude-journal/internal/domain"
	"gratitude-journal/internal/usecase/journal"
	"gratitude-journal/internal/usecase/preferences"
	"gratitude-journal/internal/usecase/thanks"
)

type memStore struct {
	entries []domain.JournalEntry
	thanks  []domain.ThanksRecord
	shares  map[string]domain.SharedThanks
	prefs   *domain.UserPreferences
}

func newMemStore() *memStore {
	return &memStore{shares: map[string]domain.SharedThanks{}}
}

func (m *memStore) SaveEntry(_ context.Context, e domain.JournalEntry) error {
	m.entries = append([]domain.JournalEntry{e}, m.entries...)
	return nil
}
func (m *memStore) ListEntries(context.Context) ([]domain.JournalEntry, error) {
	return m.entries, nil
}
func (m *memStore) ListEntriesSince(context.Context, time.Time) ([]domain.JournalEntry, error) {
	return m.entries, nil
}
func (m *memStore) ListRecentEntries(context.Context, int) ([]domain.JournalEntry, error) {
	return m.entries, nil
}
func (m *memStore) DeleteEntry(_ context.Context, id string) error {
	for i, e := range m.entries {
		if e.ID == id {
			m.entries = append(m.entries[:i], m.entries[i+1:]...)
			return nil
		}
	}
	return domain.ErrEntryNotFound
}
func (m *memStore) DeleteAllEntries(context.Context) error {
	m.entries = nil
	return nil
}

func (m *memStore) SaveThanks(_ context.Context, rec domain.ThanksRecord) error {
	m.thanks = append(m.thanks, rec)
	return nil
}
func (m *memStore) LastThanks(_ context.Context, person string) (domain.ThanksRecord, bool, error) {
	for i := len(m.thanks) - 1; i >= 0; i-- {
		if m.thanks[i].PersonName == person {
			return m.thanks[i], true, nil
		}
	}
	return domain.ThanksRecord{}, false, nil
}
func (m *memStore) ListThanks(context.Context, string) ([]domain.ThanksRecord, error) {
	return m.thanks, nil
}
func (m *memStore) SaveSharedThanks(_ context.Context, s domain.SharedThanks) error {
	m.shares[s.ShareID] = s
	return nil
}
func (m *memStore) GetSharedThanks(_ context.Context, id string) (domain.SharedThanks, error) {
	s, ok := m.shares[id]
	if !ok {
		return domain.SharedThanks{}, domain.ErrShareNotFound
	}
	return s, nil
}

func (m *memStore) GetPreferences(context.Context) (domain.UserPreferences, bool, error) {
	if m.prefs == nil {
		return domain.UserPreferences{}, false, nil
	}
	return *m.prefs, true, nil
}
func (m *memStore) UpsertPreferences(_ context.Context, p domain.UserPreferences) error {
	m.prefs = &p
	return nil
}
func (m *memStore) UpdateUsername(_ context.Context, name string) (bool, error) {
	if m.prefs == nil {
		return false, nil
	}
	m.prefs.Username = name
	return true, nil
}

type fixedQuestions []string

func (q fixedQuestions) Generate(context.Context) []string { return q }

type fakeThemes struct {
	result domain.ThemeAnalysis
	err    error
}

func (f fakeThemes) Analyze(context.Context) (domain.ThemeAnalysis, error) { return f.result, f.err }

func newTestRouter(t *testing.T, store *memStore, themes Themes) http.Handler {
	t.Helper()
	logger := zerolog.Nop()
	deps := Deps{
		Journal:     journal.NewService(store, nil, nil, nil, time.UTC, logger),
		Questions:   fixedQuestions{"A?", "B?", "C?"},
		Themes:      themes,
		Thanks:      thanks.NewService(store, nil, nil, thanks.NewCatalog("/stickers"), "http://localhost:8080", logger),
		Preferences: preferences.NewService(store, store, nil, nil, logger),
	}
	r := chi.NewRouter()
	New(deps, logger).Mount(r)
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(dst); err != nil {
		t.Fatalf("не удалось разобрать ответ %q: %v", rec.Body.String(), err)
	}
}

func TestEntriesLifecycle(t *testing.T) {
	store := newMemStore()
	h := newTestRouter(t, store, fakeThemes{})

	rec := do(t, h, http.MethodPost, "/api/v1/entries", `{"answers":[{"question":"Q","answer":"Walk in the park"}],"mentioned_people":["Sam","sam"]}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("ожидали 201, получили %d: %s", rec.Code, rec.Body.String())
	}
	var entry domain.JournalEntry
	decodeBody(t, rec, &entry)
	if len(entry.MentionedPeople) != 1 {
		t.Fatalf("ожидали дедупликацию людей, получили %v", entry.MentionedPeople)
	}

	rec = do(t, h, http.MethodGet, "/api/v1/entries", "")
	var list struct {
		Entries []domain.JournalEntry `json:"entries"`
	}
	decodeBody(t, rec, &list)
	if len(list.Entries) != 1 {
		t.Fatalf("ожидали одну запись, получили %d", len(list.Entries))
	}

	if rec := do(t, h, http.MethodDelete, "/api/v1/entries/"+entry.ID, ""); rec.Code != http.StatusNoContent {
		t.Fatalf("ожидали 204, получили %d", rec.Code)
	}
	if rec := do(t, h, http.MethodDelete, "/api/v1/entries/"+entry.ID, ""); rec.Code != http.StatusNotFound {
		t.Fatalf("ожидали 404, получили %d", rec.Code)
	}
}

func TestCreateEntryValidation(t *testing.T) {
	h := newTestRouter(t, newMemStore(), fakeThemes{})
	if rec := do(t, h, http.MethodPost, "/api/v1/entries", `{"answers":[]}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("ожидали 400 для пустой записи, получили %d", rec.Code)
	}
	if rec := do(t, h, http.MethodPost, "/api/v1/entries", `{"unknown":1}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("ожидали 400 для неизвестного поля, получили %d", rec.Code)
	}
}

func TestSessionEndpoints(t *testing.T) {
	store := newMemStore()
	h := newTestRouter(t, store, fakeThemes{})

	rec := do(t, h, http.MethodPost, "/api/v1/sessions", "")
	var view struct {
		ID string `json:"id"`
	}
	decodeBody(t, rec, &view)
	base := "/api/v1/sessions/" + view.ID

	rec = do(t, h, http.MethodPost, base+"/text", `{"text":"Hiked with Priya "}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("ожидали 200, получили %d", rec.Code)
	}
	var raw map[string]any
	decodeBody(t, rec, &raw)
	if raw["state"] != "pending_confirmation" {
		t.Fatalf("ожидали ожидание подтверждения, получили %v", raw)
	}
	candidate, _ := raw["candidate"].(map[string]any)
	if candidate["word"] != "Hiked" || candidate["confidence"] != "unknown" {
		t.Fatalf("неожиданный кандидат: %v", candidate)
	}

	do(t, h, http.MethodPost, base+"/confirm", `{"is_person":false}`)
	do(t, h, http.MethodPost, base+"/text", `{"text":"Hiked with Priya "}`)
	do(t, h, http.MethodPost, base+"/confirm", `{"is_person":true}`)

	rec = do(t, h, http.MethodPost, base+"/finish", `{"answers":[{"question":"Q","answer":"Hiked with Priya"}]}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("ожидали 201, получили %d: %s", rec.Code, rec.Body.String())
	}
	var entry domain.JournalEntry
	decodeBody(t, rec, &entry)
	if len(entry.MentionedPeople) != 1 || entry.MentionedPeople[0] != "Priya" {
		t.Fatalf("ожидали Priya в записи, получили %v", entry.MentionedPeople)
	}
	if rec := do(t, h, http.MethodGet, base, ""); rec.Code != http.StatusNotFound {
		t.Fatalf("ожидали 404 для закрытой сессии, получили %d", rec.Code)
	}
}

func TestAnalyticsEndpoints(t *testing.T) {
	store := newMemStore()
	today := domain.CalendarDay(time.Now().UTC())
	store.entries = []domain.JournalEntry{
		{ID: "1", Date: today, Answers: []domain.Answer{{Answer: "Morning coffee with Sarah on the porch"}}, MentionedPeople: []string{"Sarah"}},
		{ID: "2", Date: today.AddDate(0, 0, -1), Answers: []domain.Answer{{Answer: "coffee"}}},
	}
	store.thanks = []domain.ThanksRecord{{PersonName: "Sarah", SentAt: time.Now().Add(-2 * time.Hour)}}
	h := newTestRouter(t, store, fakeThemes{})

	rec := do(t, h, http.MethodGet, "/api/v1/insights", "")
	var insights struct {
		CurrentStreak int               `json:"current_streak"`
		HasEntryToday bool              `json:"has_entry_today"`
		LastThanks    map[string]string `json:"last_thanks"`
	}
	decodeBody(t, rec, &insights)
	if insights.CurrentStreak != 2 || !insights.HasEntryToday || insights.LastThanks["Sarah"] != "2h ago" {
		t.Fatalf("неожиданная статистика: %+v", insights)
	}

	rec = do(t, h, http.MethodGet, "/api/v1/summary/weekly", "")
	var weekly struct {
		DaysLogged int      `json:"days_logged"`
		TopThemes  []string `json:"top_themes"`
	}
	decodeBody(t, rec, &weekly)
	if weekly.DaysLogged != 2 || len(weekly.TopThemes) == 0 || weekly.TopThemes[0] != "coffee" {
		t.Fatalf("неожиданный недельный обзор: %+v", weekly)
	}

	if rec := do(t, h, http.MethodGet, "/api/v1/summary/monthly", ""); rec.Code != http.StatusOK {
		t.Fatalf("ожидали 200, получили %d", rec.Code)
	}

	rec = do(t, h, http.MethodGet, "/api/v1/questions", "")
	var q struct {
		Questions []string `json:"questions"`
	}
	decodeBody(t, rec, &q)
	if len(q.Questions) != 3 {
		t.Fatalf("ожидали три вопроса, получили %v", q.Questions)
	}
}

func TestThemeAnalysisError(t *testing.T) {
	h := newTestRouter(t, newMemStore(), fakeThemes{err: errors.New("db down")})
	rec := do(t, h, http.MethodGet, "/api/v1/themes/analysis", "")
	if rec.Code != http.StatusInternalServerError || strings.Contains(rec.Body.String(), "db down") {
		t.Fatalf("ожидали 500 без деталей, получили %d: %s", rec.Code, rec.Body.String())
	}
}

func TestThanksAndSharePage(t *testing.T) {
	store := newMemStore()
	h := newTestRouter(t, store, fakeThemes{})

	if rec := do(t, h, http.MethodPost, "/api/v1/thanks", `{"person":"Sam","sticker_id":"nope"}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("ожидали 400 для неизвестного стикера, получили %d", rec.Code)
	}
	if rec := do(t, h, http.MethodPost, "/api/v1/thanks", `{"person":"Sam","sticker_id":"image5"}`); rec.Code != http.StatusCreated {
		t.Fatalf("ожидали 201, получили %d", rec.Code)
	}
	rec := do(t, h, http.MethodGet, "/api/v1/thanks/last?person=Sam", "")
	if !strings.Contains(rec.Body.String(), `"image5"`) {
		t.Fatalf("ожидали последнюю благодарность, получили %s", rec.Body.String())
	}

	rec = do(t, h, http.MethodPost, "/api/v1/thanks/share", `{"recipient":"<Sam>","sticker_id":"image4","message":"You made my week"}`)
	var link thanks.ShareLink
	decodeBody(t, rec, &link)
	if !strings.HasPrefix(link.URL, "http://localhost:8080?thanks=") {
		t.Fatalf("неожиданная ссылка: %+v", link)
	}

	rec = do(t, h, http.MethodGet, "/thanks/"+link.ShareID, "")
	body := rec.Body.String()
	if rec.Code != http.StatusOK || !strings.Contains(body, `og:title" content="Thank you, &lt;Sam&gt;!"`) {
		t.Fatalf("неожиданная страница %d:\n%s", rec.Code, body)
	}
	if !strings.Contains(body, "You made my week") || !strings.Contains(body, "/stickers/image4.jpeg") {
		t.Fatalf("на странице нет сообщения или картинки:\n%s", body)
	}

	rec = do(t, h, http.MethodGet, "/thanks/unknown1", "")
	if rec.Code != http.StatusNotFound || !strings.Contains(rec.Body.String(), "Thank you message not found") {
		t.Fatalf("ожидали 404, получили %d", rec.Code)
	}

	rec = do(t, h, http.MethodGet, "/api/v1/stickers", "")
	if !strings.Contains(rec.Body.String(), "image8") {
		t.Fatalf("ожидали каталог стикеров: %s", rec.Body.String())
	}
}

func TestPreferencesEndpoints(t *testing.T) {
	store := newMemStore()
	store.entries = []domain.JournalEntry{{ID: "old"}}
	h := newTestRouter(t, store, fakeThemes{})

	if rec := do(t, h, http.MethodPut, "/api/v1/preferences/username", `{"username":"Alex"}`); rec.Code != http.StatusConflict {
		t.Fatalf("ожидали 409 до онбординга, получили %d", rec.Code)
	}
	rec := do(t, h, http.MethodPut, "/api/v1/preferences/onboarding", `{"username":"Alex","main_goal":"calm","time_commitment":"5 minutes","text_box_size":"large"}`)
	if rec.Code != http.StatusOK || len(store.entries) != 0 {
		t.Fatalf("ожидали онбординг с очисткой записей, получили %d", rec.Code)
	}
	rec = do(t, h, http.MethodGet, "/api/v1/preferences", "")
	var got struct {
		Preferences domain.UserPreferences `json:"preferences"`
		Rows        int                    `json:"text_box_rows"`
	}
	decodeBody(t, rec, &got)
	if got.Preferences.Username != "Alex" || got.Rows != 8 || !got.Preferences.HasCompletedOnboarding {
		t.Fatalf("неожиданные настройки: %+v", got)
	}
	if rec := do(t, h, http.MethodPut, "/api/v1/preferences/username", `{"username":"  "}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("ожидали 400 для пустого имени, получили %d", rec.Code)
	}
}
