package app

import (
	"errors"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/sopilka-store/internal/domain"
	"github.com/vladislavdragonenkov/sopilka-store/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/sopilka-store/internal/service/notify"
)

// buildOutboxPublisher собирает публикатор outbox-событий из настроенных
// каналов: Kafka-топик заказов и/или Telegram-уведомление менеджеру.
// Без единого канала возвращается nil — outbox worker не запускается.
func buildOutboxPublisher(cfg Config, producer *kafka.Producer, logger *log.Entry) domain.OutboxPublisher {
	var publishers []domain.OutboxPublisher

	if producer != nil {
		publishers = append(publishers, kafka.NewOutboxPublisher(producer, kafka.TopicOrderEvents))
	}
	if cfg.TelegramBotToken != "" && cfg.TelegramChatID != "" {
		publishers = append(publishers, notify.NewTelegramNotifier(
			cfg.TelegramBotToken,
			cfg.TelegramChatID,
			logger.WithField("component", "telegram-notifier"),
		))
	}

	switch len(publishers) {
	case 0:
		return nil
	case 1:
		return publishers[0]
	default:
		return multiPublisher(publishers)
	}
}

// multiPublisher доставляет событие во все каналы; ошибка любого канала
// оставляет событие pending для повторной попытки.
type multiPublisher []domain.OutboxPublisher

func (m multiPublisher) Publish(event domain.OutboxMessage) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
