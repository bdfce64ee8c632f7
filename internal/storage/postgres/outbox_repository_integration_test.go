package postgres

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/pos/internal/domain"
)

func TestOutboxRepositoryIntegration_Lifecycle(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	repo := NewOutboxRepository(store)

	first, err := repo.Enqueue(domain.OutboxMessage{
		AggregateType: "order",
		AggregateID:   uuid.NewString(),
		EventType:     "order.created",
		Payload:       []byte(`{"n":1}`),
	})
	if err != nil {
		t.Fatalf("enqueue first: %v", err)
	}
	second, err := repo.Enqueue(domain.OutboxMessage{
		AggregateType: "customer",
		AggregateID:   uuid.NewString(),
		EventType:     "customer.created",
		Payload:       []byte(`{"n":2}`),
	})
	if err != nil {
		t.Fatalf("enqueue second: %v", err)
	}

	pending, err := repo.PullPending(10)
	if err != nil {
		t.Fatalf("pull pending: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("expected 2 pending messages, got %d", len(pending))
	}
	if pending[0].ID != first.ID || pending[1].ID != second.ID {
		t.Fatalf("expected FIFO order, got %s then %s", pending[0].ID, pending[1].ID)
	}

	stats, err := repo.Stats()
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.PendingCount != 2 {
		t.Fatalf("expected pending count 2, got %d", stats.PendingCount)
	}
	if stats.OldestPendingAt.IsZero() {
		t.Fatal("expected oldest pending timestamp to be set")
	}

	if err := repo.MarkSent(first.ID); err != nil {
		t.Fatalf("mark sent: %v", err)
	}
	if err := repo.MarkFailed(second.ID); err != nil {
		t.Fatalf("mark failed: %v", err)
	}

	pending, err = repo.PullPending(10)
	if err != nil {
		t.Fatalf("pull pending after marks: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected no pending messages, got %d", len(pending))
	}

	stats, err = repo.Stats()
	if err != nil {
		t.Fatalf("stats after marks: %v", err)
	}
	if stats.PendingCount != 0 {
		t.Fatalf("expected pending count 0, got %d", stats.PendingCount)
	}

	// Чистка забирает только sent-запись; failed остаётся для разбора.
	deleted, err := repo.DeleteSent(time.Now().UTC().Add(time.Minute))
	if err != nil {
		t.Fatalf("delete sent: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("expected 1 deleted sent message, got %d", deleted)
	}

	deleted, err = repo.DeleteSent(time.Now().UTC().Add(time.Minute))
	if err != nil {
		t.Fatalf("delete sent again: %v", err)
	}
	if deleted != 0 {
		t.Fatalf("expected no more sent messages, got %d", deleted)
	}
}

func TestOutboxRepositoryIntegration_PullLimit(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	repo := NewOutboxRepository(store)

	for i := 0; i < 3; i++ {
		if _, err := repo.Enqueue(domain.OutboxMessage{
			AggregateType: "order",
			AggregateID:   uuid.NewString(),
			EventType:     "order.created",
			Payload:       []byte(`{}`),
		}); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
	}

	pending, err := repo.PullPending(2)
	if err != nil {
		t.Fatalf("pull pending: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("expected limit to cap at 2, got %d", len(pending))
	}
}
