package kafka

import "time"

// EventType определяет тип события
type EventType string

const (
	// Order события
	EventTypeOrderCreated EventType = "order.created"

	// Customer события
	EventTypeCustomerCreated EventType = "customer.created"
	EventTypeCustomerUpdated EventType = "customer.updated"
	EventTypeCustomerDeleted EventType = "customer.deleted"
)

// Topics для Kafka
const (
	TopicOrderEvents     = "pos.order.events"
	TopicCustomerEvents  = "pos.customer.events"
	TopicDeadLetterQueue = "pos.dlq" // Dead Letter Queue для failed messages
)

// Kafka headers для retry логики
const (
	HeaderRetryCount    = "x-retry-count"
	HeaderOriginalTopic = "x-original-topic"
	HeaderErrorMessage  = "x-error-message"
	HeaderFailedAt      = "x-failed-at"
)

// OrderEvent представляет событие размещения заказа
type OrderEvent struct {
	EventType   EventType              `json:"event_type"`
	OrderID     string                 `json:"order_id"`
	OrderNumber string                 `json:"order_number"`
	CustomerID  string                 `json:"customer_id"`
	Timestamp   time.Time              `json:"timestamp"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// CustomerEvent представляет событие жизненного цикла клиента
type CustomerEvent struct {
	EventType  EventType              `json:"event_type"`
	CustomerID string                 `json:"customer_id"`
	Timestamp  time.Time              `json:"timestamp"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

// NewOrderEvent создает новое событие заказа
func NewOrderEvent(eventType EventType, orderID, orderNumber, customerID string, metadata map[string]interface{}) *OrderEvent {
	return &OrderEvent{
		EventType:   eventType,
		OrderID:     orderID,
		OrderNumber: orderNumber,
		CustomerID:  customerID,
		Timestamp:   time.Now(),
		Metadata:    metadata,
	}
}

// NewCustomerEvent создает новое событие клиента
func NewCustomerEvent(eventType EventType, customerID string, metadata map[string]interface{}) *CustomerEvent {
	return &CustomerEvent{
		EventType:  eventType,
		CustomerID: customerID,
		Timestamp:  time.Now(),
		Metadata:   metadata,
	}
}
