package names

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"gratitude-journal/internal/domain"
)

// ErrEmptyName возвращается для пустого имени.
var ErrEmptyName = errors.New("пустое имя")

// QueueRecorder ставит подтверждённое имя в очередь для воркера.
type QueueRecorder struct {
	queue domain.NameQueue
	now   func() time.Time
}

// NewQueueRecorder создаёт публикатора задач.
func NewQueueRecorder(queue domain.NameQueue) *QueueRecorder {
	return &QueueRecorder{queue: queue, now: time.Now}
}

// RecordConfirmedName публикует задачу и сразу возвращает управление.
func (r *QueueRecorder) RecordConfirmedName(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	job := domain.NameConfirmationJob{ID: uuid.NewString(), Name: name, ConfirmedAt: r.now().UTC()}
	if err := r.queue.Enqueue(ctx, job); err != nil {
		return fmt.Errorf("постановка подтверждения имени: %w", err)
	}
	return nil
}

// DirectRecorder пишет имя в справочник в фоне без очереди.
type DirectRecorder struct {
	kb      domain.NameKnowledge
	log     zerolog.Logger
	timeout time.Duration
	now     func() time.Time
	wg      sync.WaitGroup
}

// NewDirectRecorder создаёт фоновую запись в справочник.
func NewDirectRecorder(kb domain.NameKnowledge, logger zerolog.Logger) *DirectRecorder {
	return &DirectRecorder{
		kb:      kb,
		log:     logger.With().Str("component", "names_direct").Logger(),
		timeout: 5 * time.Second,
		now:     time.Now,
	}
}

// RecordConfirmedName запускает запись и не ждёт её завершения.
// Ошибки только логируются.
func (r *DirectRecorder) RecordConfirmedName(_ context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	at := r.now().UTC()
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()
		if err := r.kb.ConfirmName(ctx, name, at); err != nil {
			r.log.Error().Err(err).Str("name", name).Msg("не удалось сохранить подтверждённое имя")
		}
	}()
	return nil
}

// Wait дожидается завершения фоновых записей.
func (r *DirectRecorder) Wait() {
	r.wg.Wait()
}
