package kafka

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/vladislavdragonenkov/sopilka-store/internal/domain"
)

// DeadLetterPublisher отправляет неопубликованные outbox-события в DLQ topic.
// Метаданные сбоя уходят в заголовки сообщения, payload остаётся в формате
// outbox-конверта: reprocessing восстанавливает исходное событие как есть.
type DeadLetterPublisher struct {
	producer      *Producer
	originalTopic string
}

// NewDeadLetterPublisher создаёт DLQ-паблишер. originalTopic попадает в
// заголовок x-original-topic и указывает, куда событие не удалось доставить.
func NewDeadLetterPublisher(producer *Producer, originalTopic string) *DeadLetterPublisher {
	if originalTopic == "" {
		originalTopic = TopicOrderEvents
	}
	return &DeadLetterPublisher{
		producer:      producer,
		originalTopic: originalTopic,
	}
}

func (p *DeadLetterPublisher) PublishDeadLetter(event domain.OutboxMessage, attempts int, cause error) error {
	if p == nil || p.producer == nil {
		return fmt.Errorf("kafka dlq publisher is not initialized")
	}

	key := event.AggregateID
	if key == "" {
		key = event.ID
	}

	headers := map[string]string{
		HeaderRetryCount:    strconv.Itoa(attempts),
		HeaderOriginalTopic: p.originalTopic,
		HeaderFailedAt:      time.Now().UTC().Format(time.RFC3339Nano),
	}
	if cause != nil {
		headers[HeaderErrorMessage] = cause.Error()
	}

	envelope := struct {
		ID            string          `json:"id"`
		AggregateType string          `json:"aggregate_type"`
		AggregateID   string          `json:"aggregate_id"`
		EventType     string          `json:"event_type"`
		Payload       json.RawMessage `json:"payload"`
	}{
		ID:            event.ID,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		EventType:     event.EventType,
		Payload:       json.RawMessage(event.Payload),
	}

	return p.producer.PublishEventWithHeaders(TopicDeadLetterQueue, key, envelope, headers)
}

var _ domain.DeadLetterPublisher = (*DeadLetterPublisher)(nil)
