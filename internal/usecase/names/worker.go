package names

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"gratitude-journal/internal/domain"
	"gratitude-journal/internal/infra/metrics"
)

const (
	maxDeliveryAttempts = 5
	// Счётчик попыток задачи, которую дообработал другой потребитель, забывается через attemptsTTL.
	attemptsTTL = time.Hour
)

const (
	outcomeConfirmed = "confirmed"
	outcomeRetry     = "retry"
	outcomeDropped   = "dropped"
	outcomeDuplicate = "duplicate"
)

type attemptState struct {
	n    int
	last time.Time
}

// Worker переносит подтверждённые имена из очереди в справочник.
type Worker struct {
	log       zerolog.Logger
	queue     domain.NameQueue
	kb        domain.NameKnowledge
	analytics domain.BusinessMetricRepo
	ledger    domain.JobLedger
	backoff   time.Duration
	now       func() time.Time

	attempts map[string]attemptState
}

// NewWorker создаёт воркер. analytics может быть nil.
func NewWorker(queue domain.NameQueue, kb domain.NameKnowledge, analytics domain.BusinessMetricRepo, logger zerolog.Logger) *Worker {
	return &Worker{
		log:       logger.With().Str("component", "names_worker").Logger(),
		queue:     queue,
		kb:        kb,
		analytics: analytics,
		backoff:   time.Second,
		now:       time.Now,
		attempts:  make(map[string]attemptState),
	}
}

// WithLedger включает пропуск уже записанных задач.
// Без журнала доставка at-least-once: повтор после неудачного ack увеличит счётчик имени ещё раз.
func (w *Worker) WithLedger(ledger domain.JobLedger) *Worker {
	w.ledger = ledger
	return w
}

// Run обрабатывает задачи до отмены контекста.
func (w *Worker) Run(ctx context.Context) {
	for {
		job, ack, err := w.queue.Receive(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return
			}
			w.log.Error().Err(err).Msg("names-worker: ошибка чтения очереди")
			w.sleep(ctx)
			continue
		}
		w.Handle(ctx, job, ack)
	}
}

// Handle обрабатывает одну задачу и подтверждает или возвращает её в очередь.
func (w *Worker) Handle(ctx context.Context, job domain.NameConfirmationJob, ack domain.AckFunc) {
	jobLog := w.log.With().Str("job_id", job.ID).Str("name", job.Name).Logger()

	if job.ID == "" || job.Name == "" {
		jobLog.Error().Msg("names-worker: некорректная задача, подтверждаем и пропускаем")
		metrics.NameJobsTotal.WithLabelValues(outcomeDropped).Inc()
		w.ack(jobLog, ack, true)
		return
	}
	if job.ConfirmedAt.IsZero() {
		job.ConfirmedAt = time.Now().UTC()
	}
	if w.alreadyDone(ctx, jobLog, job.ID) {
		delete(w.attempts, job.ID)
		metrics.NameJobsTotal.WithLabelValues(outcomeDuplicate).Inc()
		w.ack(jobLog, ack, true)
		return
	}

	attempt := w.nextAttempt(job.ID)
	jobLog = jobLog.With().Int("attempt", attempt).Logger()

	if err := w.kb.ConfirmName(ctx, job.Name, job.ConfirmedAt); err != nil {
		if attempt < maxDeliveryAttempts {
			jobLog.Warn().Err(err).Msg("names-worker: запись не удалась, повторим позже")
			metrics.NameJobsTotal.WithLabelValues(outcomeRetry).Inc()
			w.ack(jobLog, ack, false)
			w.sleep(ctx)
			return
		}
		jobLog.Error().Err(err).Msg("names-worker: достигнут предел попыток, отбрасываем задачу")
		metrics.NameJobsTotal.WithLabelValues(outcomeDropped).Inc()
		delete(w.attempts, job.ID)
		w.ack(jobLog, ack, true)
		return
	}

	delete(w.attempts, job.ID)
	if w.ledger != nil {
		if err := w.ledger.MarkDone(ctx, job.ID); err != nil {
			jobLog.Warn().Err(err).Msg("names-worker: не удалось отметить задачу в журнале")
		}
	}
	metrics.NameJobsTotal.WithLabelValues(outcomeConfirmed).Inc()
	w.observe(ctx, job, attempt)
	w.ack(jobLog, ack, true)
}

func (w *Worker) alreadyDone(ctx context.Context, jobLog zerolog.Logger, jobID string) bool {
	if w.ledger == nil {
		return false
	}
	done, err := w.ledger.IsDone(ctx, jobID)
	if err != nil {
		jobLog.Warn().Err(err).Msg("names-worker: журнал задач недоступен, обрабатываем без проверки")
		return false
	}
	if done {
		jobLog.Info().Msg("names-worker: задача уже записана, повторная доставка")
	}
	return done
}

// nextAttempt увеличивает счётчик попыток и забывает давно не виденные задачи.
func (w *Worker) nextAttempt(jobID string) int {
	now := w.now()
	for id, st := range w.attempts {
		if now.Sub(st.last) > attemptsTTL {
			delete(w.attempts, id)
		}
	}
	st := w.attempts[jobID]
	st.n++
	st.last = now
	w.attempts[jobID] = st
	return st.n
}

func (w *Worker) observe(ctx context.Context, job domain.NameConfirmationJob, attempt int) {
	if w.analytics == nil {
		return
	}
	err := w.analytics.RecordBusinessMetric(ctx, domain.BusinessMetric{
		Event:      domain.BusinessMetricEventNameConfirmed,
		Metadata:   map[string]any{"job_id": job.ID, "attempt": attempt},
		OccurredAt: job.ConfirmedAt,
	})
	if err != nil {
		w.log.Warn().Err(err).Str("job_id", job.ID).Msg("names-worker: не удалось записать бизнес-метрику")
	}
}

func (w *Worker) ack(jobLog zerolog.Logger, ack domain.AckFunc, success bool) {
	if err := ack(success); err != nil {
		jobLog.Error().Err(err).Bool("success", success).Msg("names-worker: не удалось подтвердить задачу")
	}
}

func (w *Worker) sleep(ctx context.Context) {
	if w.backoff <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(w.backoff):
	}
}
