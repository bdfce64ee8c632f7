package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/vladislavdragonenkov/pos/internal/domain"
)

// OutboxTopicPublisher публикует outbox-сообщения в Kafka. Topic выбирается
// по aggregate_type сообщения: события заказов и клиентов уходят в разные topics.
type OutboxTopicPublisher struct {
	producer     *Producer
	defaultTopic string
	// pinned отключает маршрутизацию по aggregate_type: всё уходит
	// в defaultTopic. Нужен для DLQ.
	pinned bool
}

// NewOutboxPublisher создаёт Kafka-паблишер для transactional outbox.
func NewOutboxPublisher(producer *Producer, defaultTopic string) domain.OutboxPublisher {
	if defaultTopic == "" {
		defaultTopic = TopicOrderEvents
	}
	return &OutboxTopicPublisher{
		producer:     producer,
		defaultTopic: defaultTopic,
	}
}

// NewDLQPublisher создаёт паблишер, прибитый к topic pos.dlq: dead-letter
// события не должны возвращаться в основные topics по типу агрегата.
func NewDLQPublisher(producer *Producer) domain.OutboxPublisher {
	return &OutboxTopicPublisher{
		producer:     producer,
		defaultTopic: TopicDeadLetterQueue,
		pinned:       true,
	}
}

func (p *OutboxTopicPublisher) Publish(event domain.OutboxMessage) error {
	if p == nil || p.producer == nil {
		return fmt.Errorf("kafka outbox publisher is not initialized")
	}

	key := event.AggregateID
	if key == "" {
		key = event.ID
	}

	envelope := struct {
		ID            string          `json:"id"`
		AggregateType string          `json:"aggregate_type"`
		AggregateID   string          `json:"aggregate_id"`
		EventType     string          `json:"event_type"`
		Payload       json.RawMessage `json:"payload"`
		PublishedAt   time.Time       `json:"published_at"`
	}{
		ID:            event.ID,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		EventType:     event.EventType,
		Payload:       json.RawMessage(event.Payload),
		PublishedAt:   time.Now().UTC(),
	}

	return p.producer.PublishEvent(p.topicFor(event), key, event.EventType, envelope)
}

func (p *OutboxTopicPublisher) topicFor(event domain.OutboxMessage) string {
	if p.pinned {
		return p.defaultTopic
	}
	switch event.AggregateType {
	case "order":
		return TopicOrderEvents
	case "customer":
		return TopicCustomerEvents
	}
	return p.defaultTopic
}

var _ domain.OutboxPublisher = (*OutboxTopicPublisher)(nil)
