package domain

import (
	"context"
	"time"
)

// NameConfirmationJob задача на долговременную запись подтверждённого имени.
type NameConfirmationJob struct {
	ID          string    `json:"job_id"`
	Name        string    `json:"name"`
	ConfirmedAt time.Time `json:"confirmed_at"`
}

// NameQueue очередь задач подтверждения имён.
type NameQueue interface {
	Enqueue(ctx context.Context, job NameConfirmationJob) error
	Receive(ctx context.Context) (NameConfirmationJob, AckFunc, error)
}

// AckFunc подтверждает успешную обработку или запрашивает повтор доставки задачи.
type AckFunc func(success bool) error

// JobLedger помнит обработанные задачи, чтобы повторная доставка не записала имя дважды.
type JobLedger interface {
	IsDone(ctx context.Context, jobID string) (bool, error)
	MarkDone(ctx context.Context, jobID string) error
}
