package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"gratitude-journal/internal/domain"
	"gratitude-journal/internal/infra/metrics"
)

// ErrQueueClosed возвращается, если брокер закрыл канал доставки.
var ErrQueueClosed = errors.New("rabbitmq: delivery channel closed")

// RabbitNameQueue очередь подтверждений имён поверх AMQP.
type RabbitNameQueue struct {
	conn  *amqp.Connection
	ch    *amqp.Channel
	queue string

	mu         sync.Mutex
	deliveries <-chan amqp.Delivery
}

// NewRabbitNameQueue подключается к брокеру и объявляет долговечную очередь.
func NewRabbitNameQueue(amqpURL, queue string) (*RabbitNameQueue, error) {
	if amqpURL == "" {
		return nil, errors.New("amqp url is empty")
	}
	if queue == "" {
		return nil, errors.New("queue name is empty")
	}
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("declare queue: %w", err)
	}
	if err := ch.Qos(1, 0, false); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("set qos: %w", err)
	}
	return &RabbitNameQueue{conn: conn, ch: ch, queue: queue}, nil
}

// Enqueue публикует задачу с постоянной доставкой.
func (q *RabbitNameQueue) Enqueue(ctx context.Context, job domain.NameConfirmationJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	start := time.Now()
	err = q.ch.PublishWithContext(ctx, "", q.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    job.ID,
		Timestamp:    job.ConfirmedAt,
		Body:         payload,
	})
	metrics.ObserveNetworkRequest("rabbitmq", "publish", q.queue, start, err)
	if err != nil {
		return fmt.Errorf("publish job: %w", err)
	}
	return nil
}

// Receive ждёт следующую задачу. Ack(false) возвращает сообщение в очередь.
func (q *RabbitNameQueue) Receive(ctx context.Context) (domain.NameConfirmationJob, domain.AckFunc, error) {
	deliveries, err := q.consume()
	if err != nil {
		return domain.NameConfirmationJob{}, nil, err
	}
	select {
	case <-ctx.Done():
		return domain.NameConfirmationJob{}, nil, ctx.Err()
	case d, ok := <-deliveries:
		if !ok {
			return domain.NameConfirmationJob{}, nil, ErrQueueClosed
		}
		metrics.ObserveNetworkRequest("rabbitmq", "deliver", q.queue, time.Now(), nil)
		var job domain.NameConfirmationJob
		if err := json.Unmarshal(d.Body, &job); err != nil {
			_ = d.Nack(false, false)
			return domain.NameConfirmationJob{}, nil, fmt.Errorf("decode job: %w", err)
		}
		ack := func(success bool) error {
			if success {
				return d.Ack(false)
			}
			return d.Nack(false, true)
		}
		return job, ack, nil
	}
}

func (q *RabbitNameQueue) consume() (<-chan amqp.Delivery, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.deliveries != nil {
		return q.deliveries, nil
	}
	deliveries, err := q.ch.Consume(q.queue, "", false, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("consume: %w", err)
	}
	q.deliveries = deliveries
	return deliveries, nil
}

// Close закрывает канал и соединение.
func (q *RabbitNameQueue) Close() error {
	_ = q.ch.Close()
	return q.conn.Close()
}
