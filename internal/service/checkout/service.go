// Пакет checkout оформляет заказы: валидирует форму, замораживает снапшот
// корзины по текущему каталогу и сохраняет заказ с публикацией события
// через transactional outbox.
package checkout

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/sopilka-store/internal/catalog"
	"github.com/vladislavdragonenkov/sopilka-store/internal/domain"
)

const (
	orderNumberPrefix = "SP"
	idempotencyTTL    = 24 * time.Hour

	timelineEventOrderCreated = "OrderCreated"
	timelineEventStatusChange = "OrderStatusChanged"

	aggregateTypeOrder = "order"

	messageOrderCreated = "Замовлення успішно створено"
	messageOrderFailed  = "Помилка при створенні замовлення"
)

// Metrics — счётчики оформления, которые сервис дёргает по ходу Submit.
type Metrics interface {
	RecordOrderCreated()
	RecordOrderFailed()
	RecordTimelineEvent()
	RecordOutboxEvent()
}

// SubmitResult — ответ на отправку checkout-формы.
type SubmitResult struct {
	Success     bool   `json:"success"`
	OrderNumber string `json:"orderNumber,omitempty"`
	Message     string `json:"message"`
}

// Service реализует оформление заказа поверх каталога и репозиториев.
type Service struct {
	catalog  *catalog.Catalog
	orders   domain.OrderRepository
	timeline domain.TimelineRepository
	outbox   domain.OutboxRepository
	idemRepo domain.IdempotencyRepository
	metrics  Metrics
	logger   *log.Entry
	now      func() time.Time
}

// Option настраивает Service.
type Option func(*Service)

// WithClock подменяет источник времени.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIdempotency включает защиту от повторной отправки заказа.
func WithIdempotency(repo domain.IdempotencyRepository) Option {
	return func(s *Service) {
		s.idemRepo = repo
	}
}

// WithMetrics подключает счётчики оформления.
func WithMetrics(m Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// NewService конструирует сервис оформления с зависимостями.
// timeline и outbox опциональны: без них заказ создаётся, но история и
// события не пишутся.
func NewService(
	cat *catalog.Catalog,
	orders domain.OrderRepository,
	timeline domain.TimelineRepository,
	outbox domain.OutboxRepository,
	logger *log.Entry,
	opts ...Option,
) *Service {
	if logger == nil {
		logger = log.WithField("component", "checkout-service")
	}
	s := &Service{
		catalog:  cat,
		orders:   orders,
		timeline: timeline,
		outbox:   outbox,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Validate проверяет checkout-форму. Пустой map — форма валидна.
func (s *Service) Validate(form domain.OrderForm) map[string]string {
	return form.Validate()
}

// BuildOrder собирает замороженный снапшот заказа из формы и позиций корзины.
// Названия и цены копируются из каталога на момент вызова: последующие
// изменения каталога на заказ не влияют. Позиции с неизвестным товаром
// отбрасываются; пустая после фильтрации корзина — ErrEmptyCart.
func (s *Service) BuildOrder(form domain.OrderForm, lines []domain.CartLine) (domain.Order, error) {
	now := s.now()

	items := make([]domain.OrderItem, 0, len(lines))
	var total int64
	for _, line := range domain.ValidLines(lines) {
		product, ok := s.catalog.ByID(line.ProductID)
		if !ok {
			s.logger.WithField("product_id", line.ProductID).Warn("dropping cart line with unknown product")
			continue
		}
		colorName := line.ColorID
		if color, ok := s.catalog.ColorOf(line.ProductID, line.ColorID); ok {
			colorName = color.Name
		}
		items = append(items, domain.OrderItem{
			ProductID:   product.ID,
			ProductName: product.Name,
			ColorID:     line.ColorID,
			ColorName:   colorName,
			Quantity:    line.Quantity,
			Price:       product.Price,
		})
		total += int64(line.Quantity) * product.Price
	}
	if len(items) == 0 {
		return domain.Order{}, domain.ErrEmptyCart
	}

	order := domain.Order{
		ID:             uuid.NewString(),
		Number:         orderNumber(now),
		FirstName:      form.FirstName,
		LastName:       form.LastName,
		Email:          form.Email,
		Phone:          form.Phone,
		City:           form.City,
		Address:        form.Address,
		Comment:        form.Comment,
		DeliveryMethod: string(form.DeliveryMethod),
		PaymentMethod:  string(form.PaymentMethod),
		Items:          items,
		Total:          total,
		Status:         domain.OrderStatusPending,
		CreatedAt:      now,
	}
	if errs := order.ValidateInvariants(); len(errs) > 0 {
		return domain.Order{}, fmt.Errorf("built order violates invariants: %v", errs)
	}
	return order, nil
}

// Submit валидирует форму и оформляет заказ. Ошибки валидации возвращаются
// map-ом поле → сообщение и не создают заказ. Непустой idemKey включает
// идемпотентный повтор: та же пара (ключ, тело) воспроизводит сохранённый
// результат, не создавая второй заказ.
func (s *Service) Submit(form domain.OrderForm, lines []domain.CartLine, idemKey string) (SubmitResult, map[string]string, error) {
	if fieldErrs := s.Validate(form); len(fieldErrs) > 0 {
		return SubmitResult{}, fieldErrs, nil
	}

	if s.idemRepo == nil || idemKey == "" {
		result, err := s.submitInternal(form, lines)
		return result, nil, err
	}

	reqHash, err := buildRequestHash(form)
	if err != nil {
		s.logger.WithError(err).Warn("failed to build idempotency request hash")
		return SubmitResult{}, nil, fmt.Errorf("build idempotency request hash: %w", err)
	}

	if _, err := s.idemRepo.CreateProcessing(idemKey, reqHash, s.now().Add(idempotencyTTL)); err != nil {
		return s.replaySubmit(idemKey, reqHash, err)
	}

	result, runErr := s.submitInternal(form, lines)
	if runErr != nil {
		s.cacheFailure(idemKey, result)
		return result, nil, runErr
	}
	s.cacheSuccess(idemKey, result)
	return result, nil, nil
}

func (s *Service) submitInternal(form domain.OrderForm, lines []domain.CartLine) (SubmitResult, error) {
	order, err := s.BuildOrder(form, lines)
	if err != nil {
		s.recordFailure()
		return SubmitResult{Success: false, Message: messageOrderFailed}, err
	}

	if err := s.orders.Create(order); err != nil {
		s.logger.WithError(err).WithField("order_number", order.Number).Error("failed to create order")
		s.recordFailure()
		return SubmitResult{Success: false, Message: messageOrderFailed}, err
	}

	// История и событие — best-effort: заказ уже сохранён.
	if s.timeline != nil {
		event := domain.TimelineEvent{
			OrderID:  order.ID,
			Type:     timelineEventOrderCreated,
			Reason:   "checkout form submitted",
			Occurred: order.CreatedAt,
		}
		if err := s.timeline.Append(event); err != nil {
			s.logger.WithError(err).WithField("order_id", order.ID).Warn("failed to append timeline event")
		} else if s.metrics != nil {
			s.metrics.RecordTimelineEvent()
		}
	}
	if s.outbox != nil {
		if err := s.enqueueOrderEvent(order, domain.EventOrderCreated); err != nil {
			s.logger.WithError(err).WithField("order_id", order.ID).Warn("failed to enqueue order.created event")
		} else if s.metrics != nil {
			s.metrics.RecordOutboxEvent()
		}
	}

	s.logger.WithFields(log.Fields{
		"order_id":     order.ID,
		"order_number": order.Number,
		"total":        order.Total,
	}).Info("order created")
	if s.metrics != nil {
		s.metrics.RecordOrderCreated()
	}

	return SubmitResult{
		Success:     true,
		OrderNumber: order.Number,
		Message:     messageOrderCreated,
	}, nil
}

func (s *Service) enqueueOrderEvent(order domain.Order, eventType string) error {
	payload, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("marshal order payload: %w", err)
	}
	_, err = s.outbox.Enqueue(domain.OutboxMessage{
		ID:            uuid.NewString(),
		AggregateType: aggregateTypeOrder,
		AggregateID:   order.ID,
		EventType:     eventType,
		Payload:       payload,
	})
	return err
}

// AdvanceStatus переводит заказ в следующий статус жизненного цикла.
// Недопустимый переход — ErrInvalidStatusTransition; история и событие
// статуса публикуются так же, как при создании заказа.
func (s *Service) AdvanceStatus(number string, next domain.OrderStatus) (domain.Order, error) {
	if !next.Valid() {
		return domain.Order{}, domain.ErrInvalidStatusTransition
	}

	order, err := s.orders.GetByNumber(number)
	if err != nil {
		return domain.Order{}, err
	}
	if !order.Status.CanTransitionTo(next) {
		return domain.Order{}, domain.ErrInvalidStatusTransition
	}

	updated, err := s.orders.UpdateStatus(order.ID, next)
	if err != nil {
		return domain.Order{}, fmt.Errorf("update order status: %w", err)
	}

	if s.timeline != nil {
		event := domain.TimelineEvent{
			OrderID:  updated.ID,
			Type:     timelineEventStatusChange,
			Reason:   fmt.Sprintf("%s -> %s", order.Status, next),
			Occurred: s.now(),
		}
		if err := s.timeline.Append(event); err != nil {
			s.logger.WithError(err).WithField("order_id", updated.ID).Warn("failed to append timeline event")
		} else if s.metrics != nil {
			s.metrics.RecordTimelineEvent()
		}
	}
	if s.outbox != nil {
		if err := s.enqueueOrderEvent(updated, next.Event()); err != nil {
			s.logger.WithError(err).WithField("order_id", updated.ID).Warn("failed to enqueue status event")
		} else if s.metrics != nil {
			s.metrics.RecordOutboxEvent()
		}
	}

	s.logger.WithFields(log.Fields{
		"order_number": updated.Number,
		"status":       updated.Status,
	}).Info("order status advanced")

	return updated, nil
}

// replaySubmit обрабатывает занятый idempotency-key: воспроизводит сохранённый
// результат либо отклоняет повтор с другим телом запроса.
func (s *Service) replaySubmit(idemKey, reqHash string, createErr error) (SubmitResult, map[string]string, error) {
	if !errors.Is(createErr, domain.ErrIdempotencyKeyAlreadyExists) {
		return SubmitResult{}, nil, fmt.Errorf("register idempotency key: %w", createErr)
	}

	record, err := s.idemRepo.Get(idemKey)
	if err != nil {
		return SubmitResult{}, nil, fmt.Errorf("load idempotency record: %w", err)
	}
	if record.RequestHash != reqHash {
		return SubmitResult{}, nil, domain.ErrIdempotencyHashMismatch
	}

	switch record.Status {
	case domain.IdempotencyStatusDone, domain.IdempotencyStatusFailed:
		var cached SubmitResult
		if err := json.Unmarshal(record.ResponseBody, &cached); err != nil {
			return SubmitResult{}, nil, fmt.Errorf("decode cached submit result: %w", err)
		}
		return cached, nil, nil
	default:
		return SubmitResult{}, nil, fmt.Errorf("order submission with key %q is still processing", idemKey)
	}
}

func (s *Service) cacheSuccess(idemKey string, result SubmitResult) {
	body, err := json.Marshal(result)
	if err == nil {
		err = s.idemRepo.MarkDone(idemKey, body, 201)
	}
	if err != nil {
		s.logger.WithError(err).WithField("idempotency_key", idemKey).Warn("failed to store idempotent success response")
	}
}

func (s *Service) cacheFailure(idemKey string, result SubmitResult) {
	body, err := json.Marshal(result)
	if err == nil {
		err = s.idemRepo.MarkFailed(idemKey, body, 500)
	}
	if err != nil {
		s.logger.WithError(err).WithField("idempotency_key", idemKey).Warn("failed to store idempotent failure response")
	}
}

func (s *Service) recordFailure() {
	if s.metrics != nil {
		s.metrics.RecordOrderFailed()
	}
}

// orderNumber строит человекочитаемый номер: префикс магазина плюс последние
// восемь цифр unix-времени в миллисекундах.
func orderNumber(now time.Time) string {
	millis := strconv.FormatInt(now.UnixMilli(), 10)
	if len(millis) > 8 {
		millis = millis[len(millis)-8:]
	}
	return orderNumberPrefix + millis
}

// buildRequestHash строит отпечаток формы для сверки повторов. Позиции
// корзины в отпечаток не входят: успешное оформление опустошает корзину,
// и повтор того же запроса обязан воспроизвести ответ, а не конфликтовать.
func buildRequestHash(form domain.OrderForm) (string, error) {
	payload, err := json.Marshal(form)
	if err != nil {
		return "", fmt.Errorf("marshal submit payload: %w", err)
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}
