package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/pos/internal/domain"
	"github.com/vladislavdragonenkov/pos/internal/metrics"
)

const (
	defaultPollInterval   = 1 * time.Second
	defaultBatchSize      = 100
	defaultMaxAttempts    = 3
	defaultRetryBaseDelay = 50 * time.Millisecond
)

// Результаты попыток публикации для метрики pos_outbox_publish_attempts_total.
const (
	resultSent       = "sent"
	resultRetryError = "retry_error"
	resultFailed     = "failed"
	resultDLQFailed  = "dlq_failed"
)

// WorkerOptions задаёт параметры outbox worker.
type WorkerOptions struct {
	Logger         *log.Entry
	Metrics        *metrics.POSMetrics
	DLQPublisher   domain.OutboxPublisher
	PollInterval   time.Duration
	BatchSize      int
	MaxAttempts    int
	RetryBaseDelay time.Duration
	SentRetention  time.Duration
}

// Option настраивает Worker.
type Option func(*WorkerOptions)

// WithLogger задаёт logger для воркера.
func WithLogger(logger *log.Entry) Option {
	return func(opts *WorkerOptions) {
		opts.Logger = logger
	}
}

// WithMetrics задаёт метрики воркера; без них публикации не инструментируются.
func WithMetrics(m *metrics.POSMetrics) Option {
	return func(opts *WorkerOptions) {
		opts.Metrics = m
	}
}

// WithDLQPublisher задаёт publisher для отправки в DLQ после исчерпания retry.
func WithDLQPublisher(publisher domain.OutboxPublisher) Option {
	return func(opts *WorkerOptions) {
		opts.DLQPublisher = publisher
	}
}

// WithPollInterval задаёт частоту опроса outbox.
func WithPollInterval(interval time.Duration) Option {
	return func(opts *WorkerOptions) {
		opts.PollInterval = interval
	}
}

// WithBatchSize задаёт размер батча из outbox.
func WithBatchSize(batchSize int) Option {
	return func(opts *WorkerOptions) {
		opts.BatchSize = batchSize
	}
}

// WithMaxAttempts задаёт число попыток публикации перед failed/DLQ.
func WithMaxAttempts(maxAttempts int) Option {
	return func(opts *WorkerOptions) {
		opts.MaxAttempts = maxAttempts
	}
}

// WithRetryBaseDelay задаёт базовый delay для exponential backoff.
func WithRetryBaseDelay(delay time.Duration) Option {
	return func(opts *WorkerOptions) {
		opts.RetryBaseDelay = delay
	}
}

// WithSentRetention включает чистку отправленных событий старше retention.
// Нулевое значение отключает чистку.
func WithSentRetention(retention time.Duration) Option {
	return func(opts *WorkerOptions) {
		opts.SentRetention = retention
	}
}

// Worker публикует pending-сообщения из outbox в брокер и подчищает
// отправленные записи по retention.
type Worker struct {
	repo           domain.OutboxRepository
	publisher      domain.OutboxPublisher
	dlqPublisher   domain.OutboxPublisher
	logger         *log.Entry
	metrics        *metrics.POSMetrics
	pollInterval   time.Duration
	batchSize      int
	maxAttempts    int
	retryBaseDelay time.Duration
	sentRetention  time.Duration
}

// NewWorker создаёт outbox worker.
func NewWorker(repo domain.OutboxRepository, publisher domain.OutboxPublisher, options ...Option) *Worker {
	opts := WorkerOptions{
		PollInterval:   defaultPollInterval,
		BatchSize:      defaultBatchSize,
		MaxAttempts:    defaultMaxAttempts,
		RetryBaseDelay: defaultRetryBaseDelay,
	}
	for _, option := range options {
		option(&opts)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.WithField("component", "outbox-worker")
	}

	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = defaultMaxAttempts
	}
	if opts.RetryBaseDelay < 0 {
		opts.RetryBaseDelay = 0
	}
	if opts.SentRetention < 0 {
		opts.SentRetention = 0
	}

	return &Worker{
		repo:           repo,
		publisher:      publisher,
		dlqPublisher:   opts.DLQPublisher,
		logger:         logger,
		metrics:        opts.Metrics,
		pollInterval:   opts.PollInterval,
		batchSize:      opts.BatchSize,
		maxAttempts:    opts.MaxAttempts,
		retryBaseDelay: opts.RetryBaseDelay,
		sentRetention:  opts.SentRetention,
	}
}

// Run запускает периодический polling outbox до отмены ctx.
func (w *Worker) Run(ctx context.Context) {
	if w.repo == nil || w.publisher == nil {
		w.logger.Warn("outbox worker is disabled: repo or publisher is nil")
		return
	}

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.ProcessOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.ProcessOnce(ctx)
		}
	}
}

// ProcessOnce выполняет один polling-цикл и возвращает число успешно
// опубликованных сообщений.
func (w *Worker) ProcessOnce(ctx context.Context) int {
	if ctx.Err() != nil {
		return 0
	}

	w.refreshBacklog()
	w.pruneSent()

	batch, err := w.repo.PullPending(w.batchSize)
	if err != nil {
		w.logger.WithError(err).Warn("failed to pull pending outbox messages")
		return 0
	}
	if len(batch) == 0 {
		return 0
	}

	// Счётчики батча по типу агрегата: в каталоге POS события заказов
	// и клиентов считаются раздельно.
	published := map[string]int{}
	for _, event := range batch {
		if ctx.Err() != nil {
			break
		}

		if err := w.publishWithRetry(ctx, event); err != nil {
			w.logger.WithError(err).WithFields(log.Fields{
				"outbox_id":  event.ID,
				"event_type": event.EventType,
			}).Error("outbox publish failed after retries")
			w.record(resultFailed)

			if dlqErr := w.forwardToDeadLetter(event, err); dlqErr != nil {
				w.logger.WithError(dlqErr).WithField("outbox_id", event.ID).Warn("failed to publish to DLQ")
				w.record(resultDLQFailed)
			}
			if markErr := w.repo.MarkFailed(event.ID); markErr != nil {
				w.logger.WithError(markErr).WithField("outbox_id", event.ID).Warn("failed to mark outbox as failed")
			}
			continue
		}

		if err := w.repo.MarkSent(event.ID); err != nil {
			w.logger.WithError(err).WithField("outbox_id", event.ID).Warn("failed to mark outbox as sent")
		}
		published[event.AggregateType]++
	}

	total := 0
	for _, n := range published {
		total += n
	}
	if total > 0 {
		w.logger.WithFields(log.Fields{
			"orders":    published["order"],
			"customers": published["customer"],
			"total":     total,
		}).Debug("outbox batch published")
	}

	w.refreshBacklog()
	return total
}

func (w *Worker) publishWithRetry(ctx context.Context, event domain.OutboxMessage) error {
	var lastErr error

	for attempt := 1; attempt <= w.maxAttempts; attempt++ {
		err := w.publisher.Publish(event)
		if err == nil {
			w.record(resultSent)
			return nil
		}
		lastErr = err
		w.record(resultRetryError)

		if attempt >= w.maxAttempts {
			break
		}

		delay := w.retryBackoff(attempt)
		if delay <= 0 {
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	return fmt.Errorf("publish failed after %d attempts: %w", w.maxAttempts, lastErr)
}

// refreshBacklog выставляет pos_outbox_pending и возраст головы backlog.
func (w *Worker) refreshBacklog() {
	if w.metrics == nil {
		return
	}

	stats, err := w.repo.Stats()
	if err != nil {
		w.logger.WithError(err).Warn("failed to collect outbox backlog stats")
		return
	}

	w.metrics.SetOutboxPending(stats.PendingCount)
	if stats.PendingCount == 0 || stats.OldestPendingAt.IsZero() {
		w.metrics.SetOutboxOldestAge(0)
		return
	}
	w.metrics.SetOutboxOldestAge(time.Since(stats.OldestPendingAt))
}

// pruneSent удаляет отправленные события старше retention.
func (w *Worker) pruneSent() {
	if w.sentRetention <= 0 {
		return
	}

	deleted, err := w.repo.DeleteSent(time.Now().UTC().Add(-w.sentRetention))
	if err != nil {
		w.logger.WithError(err).Warn("failed to prune sent outbox messages")
		return
	}
	if deleted > 0 {
		w.logger.WithField("deleted", deleted).Debug("pruned sent outbox messages")
	}
}

func (w *Worker) retryBackoff(attempt int) time.Duration {
	if w.retryBaseDelay <= 0 {
		return 0
	}
	if attempt <= 1 {
		return w.retryBaseDelay
	}

	const maxDuration = time.Duration(1<<63 - 1)
	delay := w.retryBaseDelay
	for i := 1; i < attempt; i++ {
		if delay > maxDuration/2 {
			return maxDuration
		}
		delay *= 2
	}
	return delay
}

// forwardToDeadLetter заворачивает неопубликованное событие в dead-letter
// конверт. Publisher DLQ прибит к topic pos.dlq и не маршрутизирует по
// типу агрегата.
func (w *Worker) forwardToDeadLetter(event domain.OutboxMessage, publishErr error) error {
	if w.dlqPublisher == nil {
		return nil
	}

	payload, err := json.Marshal(map[string]any{
		"source_event": map[string]any{
			"outbox_id":      event.ID,
			"aggregate_type": event.AggregateType,
			"aggregate_id":   event.AggregateID,
			"event_type":     event.EventType,
			"payload":        json.RawMessage(event.Payload),
		},
		"error":     publishErr.Error(),
		"failed_at": time.Now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("marshal dead letter payload: %w", err)
	}

	deadLetter := domain.OutboxMessage{
		ID:            event.ID,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		EventType:     "dead_letter",
		Payload:       payload,
	}
	if err := w.dlqPublisher.Publish(deadLetter); err != nil {
		return fmt.Errorf("publish to dlq: %w", err)
	}

	return nil
}

func (w *Worker) record(result string) {
	if w.metrics == nil {
		return
	}
	w.metrics.RecordOutboxPublish(result)
}
