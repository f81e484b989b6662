package preferences

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/rs/zerolog"

	"gratitude-journal/internal/domain"
)

type stubPrefs struct {
	prefs  domain.UserPreferences
	exists bool
	err    error
}

func (s *stubPrefs) GetPreferences(context.Context) (domain.UserPreferences, bool, error) {
	return s.prefs, s.exists, s.err
}

func (s *stubPrefs) UpsertPreferences(_ context.Context, p domain.UserPreferences) error {
	if s.err != nil {
		return s.err
	}
	s.prefs, s.exists = p, true
	return nil
}

func (s *stubPrefs) UpdateUsername(_ context.Context, username string) (bool, error) {
	if !s.exists {
		return false, nil
	}
	s.prefs.Username = username
	return true, nil
}

type stubEntries struct {
	cleared bool
	err     error
}

func (s *stubEntries) SaveEntry(context.Context, domain.JournalEntry) error       { return nil }
func (s *stubEntries) ListEntries(context.Context) ([]domain.JournalEntry, error) { return nil, nil }
func (s *stubEntries) ListEntriesSince(context.Context, time.Time) ([]domain.JournalEntry, error) {
	return nil, nil
}
func (s *stubEntries) ListRecentEntries(context.Context, int) ([]domain.JournalEntry, error) {
	return nil, nil
}
func (s *stubEntries) DeleteEntry(context.Context, string) error { return nil }
func (s *stubEntries) DeleteAllEntries(context.Context) error {
	s.cleared = true
	return s.err
}

type fakeThemes struct{ invalidated bool }

func (f *fakeThemes) Invalidate(context.Context) error {
	f.invalidated = true
	return errors.New("redis down")
}

func TestGetDefaultsForNewUser(t *testing.T) {
	svc := NewService(&stubPrefs{}, &stubEntries{}, nil, nil, zerolog.Nop())
	got, err := svc.Get(context.Background())
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if got.Username != "Friend" || got.TextBoxSize.Rows() != 5 || got.HasCompletedOnboarding {
		t.Fatalf("неожиданные настройки по умолчанию: %+v", got)
	}
}

func TestCompleteOnboarding(t *testing.T) {
	repo := &stubPrefs{}
	entries := &stubEntries{}
	themes := &fakeThemes{}
	svc := NewService(repo, entries, themes, nil, zerolog.Nop())

	got, err := svc.CompleteOnboarding(context.Background(), Onboarding{MainGoal: " less stress ", TextBoxSize: "huge"})
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if !entries.cleared || !themes.invalidated {
		t.Fatalf("ожидали очистку записей и кэша тем")
	}
	want := domain.UserPreferences{Username: "Friend", MainGoal: "less stress", TextBoxSize: domain.TextBoxMedium, HasCompletedOnboarding: true}
	if diff := cmp.Diff(want, got, cmpopts.IgnoreFields(domain.UserPreferences{}, "UpdatedAt")); diff != "" {
		t.Fatalf("неожиданные настройки (-want +got):\n%s", diff)
	}
	if !repo.exists {
		t.Fatalf("ожидали сохранение настроек")
	}
}

func TestCompleteOnboardingStopsOnClearError(t *testing.T) {
	repo := &stubPrefs{}
	svc := NewService(repo, &stubEntries{err: errors.New("db down")}, nil, nil, zerolog.Nop())
	if _, err := svc.CompleteOnboarding(context.Background(), Onboarding{}); err == nil {
		t.Fatalf("ожидали ошибку очистки")
	}
	if repo.exists {
		t.Fatalf("не ожидали сохранения настроек после ошибки")
	}
}

func TestUpdateUsername(t *testing.T) {
	repo := &stubPrefs{}
	svc := NewService(repo, &stubEntries{}, nil, nil, zerolog.Nop())
	if err := svc.UpdateUsername(context.Background(), " "); !errors.Is(err, ErrEmptyUsername) {
		t.Fatalf("ожидали ErrEmptyUsername, получили %v", err)
	}
	if err := svc.UpdateUsername(context.Background(), "Alex"); !errors.Is(err, ErrNotOnboarded) {
		t.Fatalf("ожидали ErrNotOnboarded, получили %v", err)
	}
	repo.exists = true
	if err := svc.UpdateUsername(context.Background(), "Alex"); err != nil || repo.prefs.Username != "Alex" {
		t.Fatalf("ожидали смену имени, получили %v, %+v", err, repo.prefs)
	}
}
