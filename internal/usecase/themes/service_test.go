package themes

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"

	"gratitude-journal/internal/domain"
)

type stubEntries struct {
	entries []domain.JournalEntry
	limit   int
	err     error
}

func (s *stubEntries) SaveEntry(context.Context, domain.JournalEntry) error { return nil }
func (s *stubEntries) ListEntries(context.Context) ([]domain.JournalEntry, error) {
	return s.entries, s.err
}
func (s *stubEntries) ListEntriesSince(context.Context, time.Time) ([]domain.JournalEntry, error) {
	return s.entries, s.err
}
func (s *stubEntries) ListRecentEntries(_ context.Context, limit int) ([]domain.JournalEntry, error) {
	s.limit = limit
	return s.entries, s.err
}
func (s *stubEntries) DeleteEntry(context.Context, string) error { return nil }
func (s *stubEntries) DeleteAllEntries(context.Context) error    { return nil }

type fakeAnalyzer struct {
	result domain.ThemeAnalysis
	err    error
	calls  int
	got    []domain.EntryText
}

func (f *fakeAnalyzer) Analyze(_ context.Context, entries []domain.EntryText) (domain.ThemeAnalysis, error) {
	f.calls++
	f.got = entries
	return f.result, f.err
}

type memCache struct {
	data map[string][]byte
	ttl  time.Duration
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (c *memCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.data[key] = value
	c.ttl = ttl
	return nil
}
func (c *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := c.data[key]
	return v, ok, nil
}
func (c *memCache) Delete(_ context.Context, key string) error {
	delete(c.data, key)
	return nil
}

func sampleEntries() []domain.JournalEntry {
	return []domain.JournalEntry{
		{ID: "e1", Answers: []domain.Answer{{Question: "Who?", Answer: "mail me at sam@example.com"}}},
		{ID: "e2", Answers: []domain.Answer{{Question: "What?", Answer: "call 555-123-4567 tomorrow"}}},
	}
}

func TestRedact(t *testing.T) {
	tests := map[string]string{
		"write to anna.k@mail.co please": "write to [EMAIL] please",
		"ring 555.123.4567":              "ring [PHONE]",
		"ring (555) 123-4567":            "ring [PHONE]",
		"id 5551234567":                  "id [PHONE]",
		"nothing here":                   "nothing here",
	}
	for in, want := range tests {
		if got := Redact(in); got != want {
			t.Fatalf("Redact(%q) = %q, ожидали %q", in, got, want)
		}
	}
}

func TestAnalyzeCallsModelAndCaches(t *testing.T) {
	llm := &fakeAnalyzer{result: domain.ThemeAnalysis{TotalEntries: 99, Themes: []domain.Theme{{Label: "A"}, {Label: "B"}, {Label: "C"}, {Label: "D"}}}}
	cache := newMemCache()
	svc := NewService(&stubEntries{entries: sampleEntries()}, llm, &fakeAnalyzer{}, cache, "u1", 0, zerolog.Nop())

	got, err := svc.Analyze(context.Background())
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if got.TotalEntries != 2 {
		t.Fatalf("ожидали total_entries=2, получили %d", got.TotalEntries)
	}
	if diff := cmp.Diff([]string{"A", "B", "C"}, got.Top3); diff != "" {
		t.Fatalf("неожиданный top_3:\n%s", diff)
	}
	if !strings.Contains(llm.got[0].Text, "Who?: mail me at [EMAIL]") || !strings.Contains(llm.got[1].Text, "[PHONE]") {
		t.Fatalf("ожидали маскирование данных: %+v", llm.got)
	}
	if _, ok := cache.data["theme_analysis_u1"]; !ok || cache.ttl != DefaultCacheTTL {
		t.Fatalf("ожидали запись в кэш на сутки")
	}

	if _, err := svc.Analyze(context.Background()); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if llm.calls != 1 {
		t.Fatalf("ожидали ответ из кэша, модель вызвана %d раз", llm.calls)
	}
}

func TestAnalyzeFallbackNotCached(t *testing.T) {
	fallback := &fakeAnalyzer{result: domain.ThemeAnalysis{Themes: []domain.Theme{{Label: "Coffee"}}}}
	cache := newMemCache()
	repo := &stubEntries{entries: sampleEntries()}
	svc := NewService(repo, &fakeAnalyzer{err: errors.New("bad json")}, fallback, cache, "u1", time.Hour, zerolog.Nop())

	got, err := svc.Analyze(context.Background())
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if got.TotalEntries != 2 || len(got.Top3) != 1 || got.Top3[0] != "Coffee" {
		t.Fatalf("неожиданный результат: %+v", got)
	}
	if len(cache.data) != 0 {
		t.Fatalf("не ожидали кэширования запасного результата")
	}
	if repo.limit != RecentEntriesLimit {
		t.Fatalf("ожидали выборку %d записей, получили %d", RecentEntriesLimit, repo.limit)
	}
	if strings.Contains(fallback.got[0].Text, "Who?") {
		t.Fatalf("локальный анализ не должен видеть вопросы: %q", fallback.got[0].Text)
	}
}

func TestAnalyzeNoEntries(t *testing.T) {
	llm := &fakeAnalyzer{}
	svc := NewService(&stubEntries{}, llm, &fakeAnalyzer{}, nil, "u1", 0, zerolog.Nop())
	got, err := svc.Analyze(context.Background())
	if err != nil || got.TotalEntries != 0 || len(got.Themes) != 0 || got.Top3 == nil {
		t.Fatalf("ожидали пустой анализ, получили %+v, %v", got, err)
	}
	if llm.calls != 0 {
		t.Fatalf("модель не должна вызываться без записей")
	}
}

func TestAnalyzeRepoError(t *testing.T) {
	svc := NewService(&stubEntries{err: errors.New("db down")}, &fakeAnalyzer{}, &fakeAnalyzer{}, nil, "u1", 0, zerolog.Nop())
	if _, err := svc.Analyze(context.Background()); err == nil {
		t.Fatalf("ожидали ошибку хранилища")
	}
}

func TestInvalidate(t *testing.T) {
	cache := newMemCache()
	cache.data["theme_analysis_u1"] = []byte(`{}`)
	svc := NewService(&stubEntries{}, &fakeAnalyzer{}, &fakeAnalyzer{}, cache, "u1", 0, zerolog.Nop())
	if err := svc.Invalidate(context.Background()); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(cache.data) != 0 {
		t.Fatalf("ожидали пустой кэш")
	}
}
