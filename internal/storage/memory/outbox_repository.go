package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/pos/internal/domain"
)

// outboxRecord хранит сообщение и служебные поля для in-memory реализации.
type outboxRecord struct {
	msg        domain.OutboxMessage
	status     string
	attemptCnt int
	createdAt  time.Time
	updatedAt  time.Time
}

// OutboxRepository — простое in-memory хранилище для transactional outbox.
type OutboxRepository struct {
	mu      sync.RWMutex
	records map[string]*outboxRecord
}

// NewOutboxRepository создаёт in-memory реализацию outbox.
func NewOutboxRepository() *OutboxRepository {
	return &OutboxRepository{records: make(map[string]*outboxRecord)}
}

// Enqueue сохраняет событие со статусом `pending` и возвращает его идентификатор.
func (r *OutboxRepository) Enqueue(msg domain.OutboxMessage) (domain.OutboxMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	r.records[msg.ID] = &outboxRecord{
		msg:       msg,
		status:    "pending",
		createdAt: now,
		updatedAt: now,
	}
	return msg, nil
}

// PullPending возвращает до limit сообщений со статусом `pending`
// в порядке постановки.
func (r *OutboxRepository) PullPending(limit int) ([]domain.OutboxMessage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}

	pending := make([]*outboxRecord, 0, len(r.records))
	for _, rec := range r.records {
		if rec.status == "pending" {
			pending = append(pending, rec)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		if !pending[i].createdAt.Equal(pending[j].createdAt) {
			return pending[i].createdAt.Before(pending[j].createdAt)
		}
		return pending[i].msg.ID < pending[j].msg.ID
	})

	if len(pending) > limit {
		pending = pending[:limit]
	}
	result := make([]domain.OutboxMessage, 0, len(pending))
	for _, rec := range pending {
		result = append(result, rec.msg)
	}
	return result, nil
}

// Stats возвращает размер backlog и возраст самого старого pending-сообщения.
func (r *OutboxRepository) Stats() (domain.OutboxStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var stats domain.OutboxStats
	for _, rec := range r.records {
		if rec.status != "pending" {
			continue
		}
		stats.PendingCount++
		if stats.OldestPendingAt.IsZero() || rec.createdAt.Before(stats.OldestPendingAt) {
			stats.OldestPendingAt = rec.createdAt
		}
	}
	return stats, nil
}

// MarkSent обновляет статус события после успешной публикации.
func (r *OutboxRepository) MarkSent(id string) error {
	return r.markStatus(id, "sent")
}

// MarkFailed фиксирует ошибку публикации.
func (r *OutboxRepository) MarkFailed(id string) error {
	return r.markStatus(id, "failed")
}

// DeleteSent удаляет отправленные записи старше olderThan.
func (r *OutboxRepository) DeleteSent(olderThan time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	deleted := 0
	for id, rec := range r.records {
		if rec.status == "sent" && rec.updatedAt.Before(olderThan) {
			delete(r.records, id)
			deleted++
		}
	}
	return deleted, nil
}

func (r *OutboxRepository) markStatus(id, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.records[id]
	if !ok {
		return domain.ErrOutboxPublish
	}
	record.status = status
	record.attemptCnt++
	record.updatedAt = time.Now().UTC()
	return nil
}

var _ domain.OutboxRepository = (*OutboxRepository)(nil)
