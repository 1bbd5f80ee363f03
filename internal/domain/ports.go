package domain

import "time"

// CartRepository описывает требования к хранилищу корзин. Персистентность
// best-effort: сервис корзины логирует ошибки Save и продолжает работать
// с состоянием в памяти.
type CartRepository interface {
	// Load возвращает сохранённые позиции сессии или ErrCartNotFound.
	Load(sessionID string) ([]CartLine, error)
	// Save полностью перезаписывает позиции сессии.
	Save(sessionID string, lines []CartLine) error
	// Delete удаляет сохранённую корзину сессии; отсутствие записи — no-op.
	Delete(sessionID string) error
}

// OrderRepository описывает требования к хранилищу заказов.
type OrderRepository interface {
	// Create сохраняет новый заказ. Возвращает ErrOrderExists, если ID занят.
	Create(order Order) error
	// Get возвращает заказ по идентификатору или ErrOrderNotFound.
	Get(id string) (Order, error)
	// GetByNumber возвращает заказ по человекочитаемому номеру.
	GetByNumber(number string) (Order, error)
	// ListRecent возвращает последние заказы с опциональным лимитом.
	ListRecent(limit int) ([]Order, error)
	// UpdateStatus заменяет статус заказа и возвращает обновлённый снапшот.
	// Допустимость перехода проверяет вызывающая сторона.
	UpdateStatus(id string, status OrderStatus) (Order, error)
}

// OutboxPublisher публикует события из transactional outbox.
type OutboxPublisher interface {
	// Publish передаёт событие наружу; должен быть идемпотентным.
	Publish(event OutboxMessage) error
}

// DeadLetterPublisher принимает события, которые не удалось опубликовать
// после всех retry, вместе с причиной и числом попыток.
type DeadLetterPublisher interface {
	PublishDeadLetter(event OutboxMessage, attempts int, cause error) error
}

// OutboxRepository позволяет сохранять события для последующей публикации.
type OutboxRepository interface {
	Enqueue(msg OutboxMessage) (OutboxMessage, error)
	PullPending(limit int) ([]OutboxMessage, error)
	Stats() (OutboxStats, error)
	MarkSent(id string) error
	MarkFailed(id string) error
}

// TimelineRepository хранит события жизненного цикла заказа.
type TimelineRepository interface {
	Append(event TimelineEvent) error
	List(orderID string) ([]TimelineEvent, error)
}

// IdempotencyRepository хранит состояние обработки запросов по idempotency-key.
type IdempotencyRepository interface {
	CreateProcessing(key, requestHash string, ttlAt time.Time) (IdempotencyRecord, error)
	Get(key string) (IdempotencyRecord, error)
	MarkDone(key string, responseBody []byte, httpStatus int) error
	MarkFailed(key string, responseBody []byte, httpStatus int) error
	DeleteExpired(before time.Time, limit int) (int, error)
}

// OutboxMessage хранит данные для публикуемого события.
type OutboxMessage struct {
	ID            string
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

// OutboxStats описывает текущее состояние backlog transactional outbox.
type OutboxStats struct {
	PendingCount    int
	OldestPendingAt time.Time
}
