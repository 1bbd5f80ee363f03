package kafka

import (
	"encoding/json"
	"fmt"

	"github.com/vladislavdragonenkov/sopilka-store/internal/domain"
)

// OutboxTopicPublisher публикует outbox-сообщения о заказах в Kafka topic.
type OutboxTopicPublisher struct {
	producer *Producer
	topic    string
}

// NewOutboxPublisher создаёт Kafka-паблишер для transactional outbox.
func NewOutboxPublisher(producer *Producer, topic string) domain.OutboxPublisher {
	if topic == "" {
		topic = TopicOrderEvents
	}
	return &OutboxTopicPublisher{
		producer: producer,
		topic:    topic,
	}
}

// Publish разворачивает снапшот заказа из outbox-payload в OrderEvent.
// Ключ сообщения — ID заказа: события одного заказа попадают в одну партицию.
func (p *OutboxTopicPublisher) Publish(event domain.OutboxMessage) error {
	if p == nil || p.producer == nil {
		return fmt.Errorf("kafka outbox publisher is not initialized")
	}

	var order domain.Order
	if err := json.Unmarshal(event.Payload, &order); err != nil {
		return fmt.Errorf("decode order payload: %w", err)
	}

	key := event.AggregateID
	if key == "" {
		key = event.ID
	}

	orderEvent := NewOrderEvent(
		EventType(event.EventType),
		order.ID,
		order.Number,
		string(order.Status),
		map[string]interface{}{
			"outbox_id":      event.ID,
			"aggregate_type": event.AggregateType,
			"total":          order.Total,
			"items_count":    len(order.Items),
		},
	)

	return p.producer.PublishEvent(p.topic, key, orderEvent)
}

var _ domain.OutboxPublisher = (*OutboxTopicPublisher)(nil)
