package outbox

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/vladislavdragonenkov/pos/internal/domain"
	"github.com/vladislavdragonenkov/pos/internal/metrics"
)

func TestWorker_ProcessOnce_MarkSent(t *testing.T) {
	t.Parallel()

	repo := &stubOutboxRepo{
		pending: []domain.OutboxMessage{
			{
				ID:            "msg-1",
				AggregateType: "order",
				AggregateID:   "order-1",
				EventType:     "order.created",
				Payload:       []byte(`{"order_number":"POSa1"}`),
			},
		},
	}
	publisher := &stubPublisher{}

	worker := NewWorker(
		repo,
		publisher,
		WithRetryBaseDelay(0),
		WithMaxAttempts(3),
	)

	worker.ProcessOnce(context.Background())

	if got := len(repo.sentIDs); got != 1 {
		t.Fatalf("expected 1 sent mark, got %d", got)
	}
	if repo.sentIDs[0] != "msg-1" {
		t.Fatalf("expected sent id msg-1, got %s", repo.sentIDs[0])
	}
	if got := len(repo.failedIDs); got != 0 {
		t.Fatalf("expected 0 failed marks, got %d", got)
	}
	if got := publisher.calls(); got != 1 {
		t.Fatalf("expected 1 publish call, got %d", got)
	}
}

func TestWorker_ProcessOnce_MarkFailedAndDLQAfterRetries(t *testing.T) {
	t.Parallel()

	repo := &stubOutboxRepo{
		pending: []domain.OutboxMessage{
			{
				ID:            "msg-2",
				AggregateType: "order",
				AggregateID:   "order-2",
				EventType:     "order.created",
				Payload:       []byte(`{"order_number":"POSa2"}`),
			},
		},
	}
	publisher := &stubPublisher{err: errors.New("publish failed")}
	dlqPublisher := &stubPublisher{}

	worker := NewWorker(
		repo,
		publisher,
		WithDLQPublisher(dlqPublisher),
		WithRetryBaseDelay(0),
		WithMaxAttempts(3),
	)

	worker.ProcessOnce(context.Background())

	if got := publisher.calls(); got != 3 {
		t.Fatalf("expected 3 publish attempts, got %d", got)
	}
	if got := len(repo.sentIDs); got != 0 {
		t.Fatalf("expected 0 sent marks, got %d", got)
	}
	if got := len(repo.failedIDs); got != 1 {
		t.Fatalf("expected 1 failed mark, got %d", got)
	}
	if repo.failedIDs[0] != "msg-2" {
		t.Fatalf("expected failed id msg-2, got %s", repo.failedIDs[0])
	}
	if got := dlqPublisher.calls(); got != 1 {
		t.Fatalf("expected 1 DLQ publish, got %d", got)
	}

	// Dead-letter конверт: тип события заменён, исходное событие и ошибка
	// уходят в payload.
	deadLetter := dlqPublisher.events[0]
	if deadLetter.EventType != "dead_letter" {
		t.Fatalf("expected dead_letter event type, got %s", deadLetter.EventType)
	}
	if deadLetter.AggregateType != "order" {
		t.Fatalf("expected order aggregate, got %s", deadLetter.AggregateType)
	}
	payload := string(deadLetter.Payload)
	if !strings.Contains(payload, `"order.created"`) || !strings.Contains(payload, "publish failed") {
		t.Fatalf("unexpected dead letter payload: %s", payload)
	}
}

func TestWorker_ProcessOnce_SuccessAfterRetry(t *testing.T) {
	t.Parallel()

	repo := &stubOutboxRepo{
		pending: []domain.OutboxMessage{
			{
				ID:            "msg-3",
				AggregateType: "order",
				AggregateID:   "order-3",
				EventType:     "order.created",
				Payload:       []byte(`{"order_number":"POSa3"}`),
			},
		},
	}
	publisher := &stubPublisher{
		sequenceErrors: []error{
			errors.New("attempt 1"),
			errors.New("attempt 2"),
			nil,
		},
	}

	worker := NewWorker(
		repo,
		publisher,
		WithRetryBaseDelay(0),
		WithMaxAttempts(3),
	)

	worker.ProcessOnce(context.Background())

	if got := publisher.calls(); got != 3 {
		t.Fatalf("expected 3 publish attempts, got %d", got)
	}
	if got := len(repo.sentIDs); got != 1 {
		t.Fatalf("expected 1 sent mark, got %d", got)
	}
	if got := len(repo.failedIDs); got != 0 {
		t.Fatalf("expected 0 failed marks, got %d", got)
	}
}

type stubOutboxRepo struct {
	pending       []domain.OutboxMessage
	sentIDs       []string
	failedIDs     []string
	pruneCutoffs  []time.Time
	prunedPerCall int
}

func (s *stubOutboxRepo) Enqueue(msg domain.OutboxMessage) (domain.OutboxMessage, error) {
	return msg, nil
}

func (s *stubOutboxRepo) PullPending(limit int) ([]domain.OutboxMessage, error) {
	if limit <= 0 || limit >= len(s.pending) {
		return append([]domain.OutboxMessage(nil), s.pending...), nil
	}
	return append([]domain.OutboxMessage(nil), s.pending[:limit]...), nil
}

func (s *stubOutboxRepo) Stats() (domain.OutboxStats, error) {
	stats := domain.OutboxStats{
		PendingCount: len(s.pending),
	}
	if len(s.pending) > 0 {
		stats.OldestPendingAt = time.Now().UTC().Add(-time.Second)
	}
	return stats, nil
}

func (s *stubOutboxRepo) MarkSent(id string) error {
	s.sentIDs = append(s.sentIDs, id)
	return nil
}

func (s *stubOutboxRepo) MarkFailed(id string) error {
	s.failedIDs = append(s.failedIDs, id)
	return nil
}

func (s *stubOutboxRepo) DeleteSent(olderThan time.Time) (int, error) {
	s.pruneCutoffs = append(s.pruneCutoffs, olderThan)
	return s.prunedPerCall, nil
}

type stubPublisher struct {
	mu             sync.Mutex
	err            error
	sequenceErrors []error
	callCount      int
	events         []domain.OutboxMessage
}

func (s *stubPublisher) Publish(event domain.OutboxMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.callCount++
	s.events = append(s.events, event)
	if len(s.sequenceErrors) > 0 {
		err := s.sequenceErrors[0]
		s.sequenceErrors = s.sequenceErrors[1:]
		return err
	}

	return s.err
}

func (s *stubPublisher) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.callCount
}

var _ domain.OutboxRepository = (*stubOutboxRepo)(nil)
var _ domain.OutboxPublisher = (*stubPublisher)(nil)

func TestWorker_ProcessOnce_ReturnsPublishedCount(t *testing.T) {
	t.Parallel()

	repo := &stubOutboxRepo{
		pending: []domain.OutboxMessage{
			{ID: "msg-a", AggregateType: "order", EventType: "order.created"},
			{ID: "msg-b", AggregateType: "customer", EventType: "customer.updated"},
		},
	}

	worker := NewWorker(repo, &stubPublisher{}, WithRetryBaseDelay(0))

	if got := worker.ProcessOnce(context.Background()); got != 2 {
		t.Fatalf("expected 2 published, got %d", got)
	}
}

func TestWorker_ProcessOnce_PrunesSentByRetention(t *testing.T) {
	t.Parallel()

	repo := &stubOutboxRepo{prunedPerCall: 4}
	retention := time.Hour

	worker := NewWorker(
		repo,
		&stubPublisher{},
		WithRetryBaseDelay(0),
		WithSentRetention(retention),
	)

	before := time.Now().UTC().Add(-retention)
	worker.ProcessOnce(context.Background())

	if got := len(repo.pruneCutoffs); got != 1 {
		t.Fatalf("expected 1 prune call, got %d", got)
	}
	cutoff := repo.pruneCutoffs[0]
	if cutoff.Before(before.Add(-time.Minute)) || cutoff.After(time.Now().UTC().Add(-retention).Add(time.Minute)) {
		t.Fatalf("unexpected prune cutoff %s", cutoff)
	}
}

func TestWorker_ProcessOnce_NoPruneWithoutRetention(t *testing.T) {
	t.Parallel()

	repo := &stubOutboxRepo{}
	worker := NewWorker(repo, &stubPublisher{}, WithRetryBaseDelay(0))

	worker.ProcessOnce(context.Background())

	if got := len(repo.pruneCutoffs); got != 0 {
		t.Fatalf("expected no prune calls, got %d", got)
	}
}

func TestWorker_ProcessOnce_RecordsMetrics(t *testing.T) {
	t.Parallel()

	repo := &stubOutboxRepo{
		pending: []domain.OutboxMessage{
			{ID: "msg-ok", AggregateType: "order", EventType: "order.created"},
		},
	}

	registry := prometheus.NewRegistry()
	worker := NewWorker(
		repo,
		&stubPublisher{},
		WithRetryBaseDelay(0),
		WithMetrics(metrics.NewPOSMetricsWithRegisterer(registry)),
	)

	worker.ProcessOnce(context.Background())

	// Одна успешная публикация и backlog из Stats (pending не убывает в стабе).
	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	byName := map[string]*dto.MetricFamily{}
	for _, family := range families {
		byName[family.GetName()] = family
	}

	attempts, ok := byName["pos_outbox_publish_attempts_total"]
	if !ok {
		t.Fatal("pos_outbox_publish_attempts_total is not registered")
	}
	var sent float64
	for _, metric := range attempts.GetMetric() {
		for _, label := range metric.GetLabel() {
			if label.GetName() == "result" && label.GetValue() == "sent" {
				sent = metric.GetCounter().GetValue()
			}
		}
	}
	if sent != 1.0 {
		t.Fatalf("expected 1 sent publish, got %f", sent)
	}

	pending, ok := byName["pos_outbox_pending"]
	if !ok {
		t.Fatal("pos_outbox_pending is not registered")
	}
	if got := pending.GetMetric()[0].GetGauge().GetValue(); got != 1.0 {
		t.Fatalf("expected pending gauge 1, got %f", got)
	}
}

func TestWorker_Run_StopsOnContextCancel(t *testing.T) {
	t.Parallel()

	repo := &stubOutboxRepo{}
	publisher := &stubPublisher{}

	worker := NewWorker(
		repo,
		publisher,
		WithPollInterval(5*time.Millisecond),
		WithRetryBaseDelay(0),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		worker.Run(ctx)
	}()

	time.Sleep(15 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(1 * time.Second):
		t.Fatal("worker did not stop on context cancel")
	}
}
