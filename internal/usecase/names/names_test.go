package names

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"gratitude-journal/internal/domain"
)

type fakeKB struct {
	mu        sync.Mutex
	confirmed []string
	failures  int
}

func (f *fakeKB) ListCommonNames(context.Context, int) ([]string, error) { return nil, nil }
func (f *fakeKB) ListConfirmedNames(context.Context) ([]string, error)   { return nil, nil }
func (f *fakeKB) IsCommonName(context.Context, string) (bool, error)     { return false, nil }
func (f *fakeKB) IsUserConfirmedName(context.Context, string) (bool, error) {
	return false, nil
}

func (f *fakeKB) ConfirmName(_ context.Context, name string, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failures > 0 {
		f.failures--
		return errors.New("db down")
	}
	f.confirmed = append(f.confirmed, name)
	return nil
}

type memQueue struct {
	jobs []domain.NameConfirmationJob
	err  error
}

func (q *memQueue) Enqueue(_ context.Context, job domain.NameConfirmationJob) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

func (q *memQueue) Receive(ctx context.Context) (domain.NameConfirmationJob, domain.AckFunc, error) {
	if len(q.jobs) == 0 {
		return domain.NameConfirmationJob{}, nil, context.Canceled
	}
	job := q.jobs[0]
	q.jobs = q.jobs[1:]
	return job, func(success bool) error {
		if !success {
			q.jobs = append(q.jobs, job)
		}
		return nil
	}, nil
}

type fakeBusiness struct{ events []domain.BusinessMetric }

func (f *fakeBusiness) RecordBusinessMetric(_ context.Context, m domain.BusinessMetric) error {
	f.events = append(f.events, m)
	return nil
}

func TestQueueRecorderEnqueues(t *testing.T) {
	q := &memQueue{}
	r := NewQueueRecorder(q)
	if err := r.RecordConfirmedName(context.Background(), " Sarah "); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(q.jobs) != 1 || q.jobs[0].Name != "Sarah" || q.jobs[0].ID == "" || q.jobs[0].ConfirmedAt.IsZero() {
		t.Fatalf("неожиданная задача: %+v", q.jobs)
	}
	if err := r.RecordConfirmedName(context.Background(), ""); !errors.Is(err, ErrEmptyName) {
		t.Fatalf("ожидали ErrEmptyName, получили %v", err)
	}
	q.err = errors.New("broker down")
	if err := r.RecordConfirmedName(context.Background(), "Sam"); err == nil {
		t.Fatalf("ожидали ошибку очереди")
	}
}

func TestDirectRecorderWritesInBackground(t *testing.T) {
	kb := &fakeKB{}
	r := NewDirectRecorder(kb, zerolog.Nop())
	if err := r.RecordConfirmedName(context.Background(), "Maria"); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	r.Wait()
	if len(kb.confirmed) != 1 || kb.confirmed[0] != "Maria" {
		t.Fatalf("ожидали запись имени, получили %v", kb.confirmed)
	}
}

func TestWorkerRetriesThenConfirms(t *testing.T) {
	kb := &fakeKB{failures: 2}
	business := &fakeBusiness{}
	q := &memQueue{jobs: []domain.NameConfirmationJob{{ID: "j1", Name: "Sarah", ConfirmedAt: time.Now()}}}
	w := NewWorker(q, kb, business, zerolog.Nop())
	w.backoff = 0

	w.Run(context.Background())

	if len(kb.confirmed) != 1 || kb.confirmed[0] != "Sarah" {
		t.Fatalf("ожидали запись имени после повторов, получили %v", kb.confirmed)
	}
	if len(business.events) != 1 || business.events[0].Metadata["attempt"] != 3 {
		t.Fatalf("ожидали бизнес-метрику с третьей попыткой, получили %+v", business.events)
	}
	if len(w.attempts) != 0 {
		t.Fatalf("ожидали очистку счётчика попыток")
	}
}

func TestWorkerDropsAfterMaxAttempts(t *testing.T) {
	kb := &fakeKB{failures: 100}
	q := &memQueue{jobs: []domain.NameConfirmationJob{{ID: "j1", Name: "Sarah"}}}
	w := NewWorker(q, kb, nil, zerolog.Nop())
	w.backoff = 0

	w.Run(context.Background())

	if len(kb.confirmed) != 0 || len(q.jobs) != 0 {
		t.Fatalf("ожидали отбрасывание задачи, очередь: %v", q.jobs)
	}
	if kb.failures != 100-maxDeliveryAttempts {
		t.Fatalf("ожидали %d попыток, осталось отказов %d", maxDeliveryAttempts, kb.failures)
	}
}

func TestWorkerSkipsMalformedJob(t *testing.T) {
	kb := &fakeKB{}
	acked := false
	w := NewWorker(&memQueue{}, kb, nil, zerolog.Nop())
	w.Handle(context.Background(), domain.NameConfirmationJob{Name: "Sam"}, func(success bool) error {
		acked = success
		return nil
	})
	if !acked || len(kb.confirmed) != 0 {
		t.Fatalf("ожидали подтверждение без записи")
	}
}

type memLedger struct{ done map[string]bool }

func (l *memLedger) IsDone(_ context.Context, id string) (bool, error) { return l.done[id], nil }
func (l *memLedger) MarkDone(_ context.Context, id string) error {
	l.done[id] = true
	return nil
}

func TestWorkerSkipsRedeliveredJob(t *testing.T) {
	kb := &fakeKB{}
	w := NewWorker(&memQueue{}, kb, nil, zerolog.Nop()).WithLedger(&memLedger{done: map[string]bool{}})
	job := domain.NameConfirmationJob{ID: "j1", Name: "Sarah", ConfirmedAt: time.Now()}

	// первый ack не дошёл до брокера, задача пришла снова
	w.Handle(context.Background(), job, func(bool) error { return errors.New("channel closed") })
	acked := false
	w.Handle(context.Background(), job, func(success bool) error {
		acked = success
		return nil
	})

	if len(kb.confirmed) != 1 {
		t.Fatalf("ожидали одну запись имени, получили %v", kb.confirmed)
	}
	if !acked {
		t.Fatalf("ожидали подтверждение повторной доставки")
	}
}

func TestWorkerForgetsStaleAttempts(t *testing.T) {
	kb := &fakeKB{}
	w := NewWorker(&memQueue{}, kb, nil, zerolog.Nop())
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	w.now = func() time.Time { return now }
	w.attempts["gone"] = attemptState{n: 2, last: now.Add(-2 * attemptsTTL)}
	w.attempts["fresh"] = attemptState{n: 1, last: now.Add(-time.Minute)}

	w.Handle(context.Background(), domain.NameConfirmationJob{ID: "j2", Name: "Sam"}, func(bool) error { return nil })

	if _, ok := w.attempts["gone"]; ok {
		t.Fatalf("ожидали, что устаревший счётчик попыток будет забыт")
	}
	if _, ok := w.attempts["fresh"]; !ok {
		t.Fatalf("не ожидали удаления свежего счётчика")
	}
}
