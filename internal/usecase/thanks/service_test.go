package thanks

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"gratitude-journal/internal/domain"
)

type stubRepo struct {
	saved   []domain.ThanksRecord
	shares  map[string]domain.SharedThanks
	last    map[string]domain.ThanksRecord
	saveErr error
}

func newStubRepo() *stubRepo {
	return &stubRepo{shares: map[string]domain.SharedThanks{}, last: map[string]domain.ThanksRecord{}}
}

func (s *stubRepo) SaveThanks(_ context.Context, rec domain.ThanksRecord) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saved = append(s.saved, rec)
	s.last[rec.PersonName] = rec
	return nil
}

func (s *stubRepo) LastThanks(_ context.Context, person string) (domain.ThanksRecord, bool, error) {
	rec, ok := s.last[person]
	return rec, ok, nil
}

func (s *stubRepo) ListThanks(context.Context, string) ([]domain.ThanksRecord, error) {
	return nil, nil
}

func (s *stubRepo) SaveSharedThanks(_ context.Context, share domain.SharedThanks) error {
	s.shares[share.ShareID] = share
	return nil
}

func (s *stubRepo) GetSharedThanks(_ context.Context, id string) (domain.SharedThanks, error) {
	share, ok := s.shares[id]
	if !ok {
		return domain.SharedThanks{}, domain.ErrShareNotFound
	}
	return share, nil
}

type fakeSender struct {
	err     error
	chatID  int64
	url     string
	caption string
}

func (f *fakeSender) SendSticker(_ context.Context, chatID int64, imageURL, caption string) error {
	f.chatID, f.url, f.caption = chatID, imageURL, caption
	return f.err
}

type fakeBusiness struct{ events []string }

func (f *fakeBusiness) RecordBusinessMetric(_ context.Context, m domain.BusinessMetric) error {
	f.events = append(f.events, m.Event)
	return nil
}

func newTestService(repo *stubRepo, sender domain.StickerSender, business domain.BusinessMetricRepo) *Service {
	return NewService(repo, sender, business, NewCatalog("https://cdn.example/stickers/"), "https://journal.example/", zerolog.Nop())
}

func TestCatalog(t *testing.T) {
	c := NewCatalog("/stickers/")
	list := c.List()
	if len(list) != 5 || list[0].ID != "image4" || list[4].ID != "image8" {
		t.Fatalf("неожиданный каталог: %+v", list)
	}
	s, ok := c.Get("image6")
	if !ok || s.URL != "/stickers/image6.jpeg" {
		t.Fatalf("неожиданный стикер: %+v", s)
	}
	if _, ok := c.Get("image1"); ok {
		t.Fatalf("не ожидали стикер image1")
	}
}

func TestSendThanksDelivers(t *testing.T) {
	repo := newStubRepo()
	sender := &fakeSender{}
	business := &fakeBusiness{}
	svc := newTestService(repo, sender, business)

	rec, err := svc.SendThanks(context.Background(), " Sarah ", "image7", 42)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if rec.Status != domain.ThanksStatusSent || rec.PersonName != "Sarah" || rec.ID == "" {
		t.Fatalf("неожиданная запись: %+v", rec)
	}
	if sender.chatID != 42 || sender.url != "https://cdn.example/stickers/image7.jpeg" || sender.caption != "Thank you, Sarah! 💜" {
		t.Fatalf("неожиданная доставка: %+v", sender)
	}
	if len(repo.saved) != 1 || len(business.events) != 1 || business.events[0] != domain.BusinessMetricEventThanksSent {
		t.Fatalf("ожидали сохранение и бизнес-метрику")
	}
}

func TestSendThanksDeliveryFailureRecorded(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(repo, &fakeSender{err: errors.New("blocked")}, nil)
	rec, err := svc.SendThanks(context.Background(), "Sam", "image4", 7)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if rec.Status != domain.ThanksStatusFailed || repo.saved[0].Status != domain.ThanksStatusFailed {
		t.Fatalf("ожидали статус failed, получили %+v", rec)
	}
}

func TestSendThanksWithoutChatSkipsDelivery(t *testing.T) {
	sender := &fakeSender{}
	svc := newTestService(newStubRepo(), sender, nil)
	if _, err := svc.SendThanks(context.Background(), "Sam", "image4", 0); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if sender.chatID != 0 {
		t.Fatalf("не ожидали доставки без чата")
	}
}

func TestSendThanksValidation(t *testing.T) {
	svc := newTestService(newStubRepo(), nil, nil)
	if _, err := svc.SendThanks(context.Background(), "Sam", "image9", 0); !errors.Is(err, ErrUnknownSticker) {
		t.Fatalf("ожидали ErrUnknownSticker, получили %v", err)
	}
	if _, err := svc.SendThanks(context.Background(), "  ", "image4", 0); !errors.Is(err, ErrEmptyPerson) {
		t.Fatalf("ожидали ErrEmptyPerson, получили %v", err)
	}
	repo := newStubRepo()
	repo.saveErr = errors.New("db down")
	if _, err := newTestService(repo, nil, nil).SendThanks(context.Background(), "Sam", "image4", 0); err == nil {
		t.Fatalf("ожидали ошибку хранилища")
	}
}

func TestShareLinkRoundTrip(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(repo, nil, nil)
	link, err := svc.CreateShareLink(context.Background(), "Maria", "image8", " You rock ")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if !regexp.MustCompile(`^[a-z0-9]{8}$`).MatchString(link.ShareID) {
		t.Fatalf("неожиданный идентификатор ссылки %q", link.ShareID)
	}
	if link.URL != "https://journal.example?thanks="+link.ShareID {
		t.Fatalf("неожиданный адрес ссылки %q", link.URL)
	}
	share, err := svc.GetShare(context.Background(), link.ShareID)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if share.RecipientName != "Maria" || share.Message != "You rock" || share.ImageURL != "https://cdn.example/stickers/image8.jpeg" {
		t.Fatalf("неожиданная благодарность: %+v", share)
	}
	if _, err := svc.GetShare(context.Background(), "missing1"); !errors.Is(err, ErrShareNotFound) {
		t.Fatalf("ожидали ErrShareNotFound, получили %v", err)
	}
}

func TestLastThanksByPerson(t *testing.T) {
	repo := newStubRepo()
	sent := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	repo.last["Sarah"] = domain.ThanksRecord{PersonName: "Sarah", SentAt: sent}
	svc := newTestService(repo, nil, nil)
	got := svc.LastThanksByPerson(context.Background(), []string{"Sarah", "John"})
	if len(got) != 1 || !got["Sarah"].Equal(sent) {
		t.Fatalf("неожиданный результат: %v", got)
	}
}

func TestHistoryNeverNil(t *testing.T) {
	got, err := newTestService(newStubRepo(), nil, nil).History(context.Background(), "")
	if err != nil || got == nil {
		t.Fatalf("ожидали пустую историю, получили %v, %v", got, err)
	}
}

func TestFormatTimeSince(t *testing.T) {
	now := time.Date(2024, 6, 20, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		ago  time.Duration
		want string
	}{
		{30 * time.Second, "just now"},
		{5 * time.Minute, "5m ago"},
		{59 * time.Minute, "59m ago"},
		{3 * time.Hour, "3h ago"},
		{2 * 24 * time.Hour, "2d ago"},
		{10 * 24 * time.Hour, "Jun 10"},
	}
	for _, tt := range tests {
		if got := FormatTimeSince(now.Add(-tt.ago), now); got != tt.want {
			t.Fatalf("FormatTimeSince(-%v) = %q, ожидали %q", tt.ago, got, tt.want)
		}
	}
}
