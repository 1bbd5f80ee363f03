package kafka

import (
	"time"

	"github.com/vladislavdragonenkov/sopilka-store/internal/domain"
)

// EventType определяет тип события заказа.
type EventType string

// Типы событий повторяют словарь статусов заказа из internal/domain.
const (
	EventTypeOrderCreated    = EventType(domain.EventOrderCreated)
	EventTypeOrderProcessing = EventType(domain.EventOrderProcessing)
	EventTypeOrderShipped    = EventType(domain.EventOrderShipped)
	EventTypeOrderDelivered  = EventType(domain.EventOrderDelivered)
)

// Topics для Kafka.
const (
	TopicOrderEvents     = "shop.order.events"
	TopicDeadLetterQueue = "shop.dlq" // Dead Letter Queue для failed messages
)

// Kafka headers для retry логики.
const (
	HeaderRetryCount    = "x-retry-count"
	HeaderOriginalTopic = "x-original-topic"
	HeaderErrorMessage  = "x-error-message"
	HeaderFailedAt      = "x-failed-at"
)

// OrderEvent представляет событие жизненного цикла заказа.
type OrderEvent struct {
	EventType   EventType              `json:"event_type"`
	OrderID     string                 `json:"order_id"`
	OrderNumber string                 `json:"order_number"`
	Status      string                 `json:"status"`
	Timestamp   time.Time              `json:"timestamp"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// NewOrderEvent создает новое событие заказа.
func NewOrderEvent(eventType EventType, orderID, orderNumber, status string, metadata map[string]interface{}) *OrderEvent {
	return &OrderEvent{
		EventType:   eventType,
		OrderID:     orderID,
		OrderNumber: orderNumber,
		Status:      status,
		Timestamp:   time.Now(),
		Metadata:    metadata,
	}
}
