package health

import (
	"fmt"
	"time"

	"github.com/vladislavdragonenkov/pos/internal/domain"
)

// Pinger — зависимость, умеющая проверять соединение (например, хранилище).
type Pinger interface {
	Ping() error
}

// StorageChecker проверяет доступность хранилища через Ping.
type StorageChecker struct {
	name   string
	pinger Pinger
}

// NewStorageChecker создаёт проверку хранилища.
func NewStorageChecker(name string, pinger Pinger) *StorageChecker {
	return &StorageChecker{name: name, pinger: pinger}
}

func (c *StorageChecker) Check() Check {
	start := time.Now()
	err := c.pinger.Ping()
	duration := time.Since(start)

	if err != nil {
		return Check{
			Name:       c.name,
			Status:     StatusUnhealthy,
			Message:    err.Error(),
			DurationMs: duration.Milliseconds(),
		}
	}
	return Check{
		Name:       c.name,
		Status:     StatusHealthy,
		DurationMs: duration.Milliseconds(),
	}
}

// OutboxBacklogChecker деградирует статус, когда backlog outbox превышает порог.
type OutboxBacklogChecker struct {
	repo      domain.OutboxRepository
	threshold int
}

// NewOutboxBacklogChecker создаёт проверку backlog transactional outbox.
func NewOutboxBacklogChecker(repo domain.OutboxRepository, threshold int) *OutboxBacklogChecker {
	if threshold <= 0 {
		threshold = 1000
	}
	return &OutboxBacklogChecker{repo: repo, threshold: threshold}
}

func (c *OutboxBacklogChecker) Check() Check {
	start := time.Now()
	stats, err := c.repo.Stats()
	duration := time.Since(start)

	if err != nil {
		return Check{
			Name:       "outbox",
			Status:     StatusUnhealthy,
			Message:    err.Error(),
			DurationMs: duration.Milliseconds(),
		}
	}

	if stats.PendingCount > c.threshold {
		return Check{
			Name:       "outbox",
			Status:     StatusDegraded,
			Message:    fmt.Sprintf("%d pending messages exceed threshold %d", stats.PendingCount, c.threshold),
			DurationMs: duration.Milliseconds(),
		}
	}

	return Check{
		Name:       "outbox",
		Status:     StatusHealthy,
		DurationMs: duration.Milliseconds(),
	}
}

var _ Checker = (*StorageChecker)(nil)
var _ Checker = (*OutboxBacklogChecker)(nil)
