package domain

import (
	"context"
	"time"
)

// События, которые сервисы пишут в business_metrics.
const (
	BusinessMetricEventEntrySaved          = "entry_saved"
	BusinessMetricEventEntryDeleted        = "entry_deleted"
	BusinessMetricEventNameConfirmed       = "name_confirmed"
	BusinessMetricEventThanksSent          = "thanks_sent"
	BusinessMetricEventOnboardingCompleted = "onboarding_completed"
)

// BusinessMetric продуктовое событие дневника. Metadata сохраняется как jsonb.
type BusinessMetric struct {
	Event      string
	Metadata   map[string]any
	OccurredAt time.Time
}

// BusinessMetricRepo хранилище продуктовых событий.
type BusinessMetricRepo interface {
	RecordBusinessMetric(ctx context.Context, metric BusinessMetric) error
}
