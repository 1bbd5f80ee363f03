package domain

import "errors"

var (
	// Ошибка отсутствующего номера заказа.
	ErrOrderNumberRequired = errors.New("order number is required")
	// Ошибка отсутствия хотя бы одной позиции в заказе.
	ErrOrderItemsRequired = errors.New("order must contain at least one item")
	// Ошибка отрицательной суммы заказа.
	ErrOrderTotalNegative = errors.New("order total must be non-negative")
	// Ошибка при некорректном количестве товара (<= 0).
	ErrOrderItemQtyInvalid = errors.New("order item quantity must be greater than zero")
	// Ошибка, если цена позиции отрицательная.
	ErrOrderItemPriceInvalid = errors.New("order item price must be non-negative")
	// Ошибка несоответствия суммы заказа и сумм позиций.
	ErrOrderTotalMismatch = errors.New("order total does not match items sum")
	// ErrOrderNotFound возвращается, если заказ не найден в репозитории.
	ErrOrderNotFound = errors.New("order not found")
	// ErrOrderExists возвращается при попытке сохранить заказ с занятым ID.
	ErrOrderExists = errors.New("order already exists")
	// ErrInvalidStatusTransition — переход статуса вне последовательности
	// pending → processing → shipped → delivered.
	ErrInvalidStatusTransition = errors.New("invalid order status transition")
	// ErrEmptyCart — попытка оформить заказ с пустой корзиной.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrCartNotFound возвращается, если для сессии нет сохранённой корзины.
	ErrCartNotFound = errors.New("cart not found")
	// ErrSessionRequired — операция с корзиной без идентификатора сессии.
	ErrSessionRequired = errors.New("session id is required")
	// ErrOutboxPublish — ошибка при публикации сообщения из outbox.
	ErrOutboxPublish = errors.New("outbox publish failed")

	// ErrIdempotencyKeyRequired — пустой idempotency-key.
	ErrIdempotencyKeyRequired = errors.New("idempotency key is required")
	// ErrIdempotencyRequestHashRequired — пустой hash тела запроса.
	ErrIdempotencyRequestHashRequired = errors.New("idempotency request hash is required")
	// ErrIdempotencyKeyNotFound — ключ не найден в хранилище.
	ErrIdempotencyKeyNotFound = errors.New("idempotency key not found")
	// ErrIdempotencyKeyAlreadyExists — повторный запрос с тем же ключом и телом.
	ErrIdempotencyKeyAlreadyExists = errors.New("idempotency key already exists")
	// ErrIdempotencyHashMismatch — тот же ключ, но другое тело запроса.
	ErrIdempotencyHashMismatch = errors.New("idempotency request hash mismatch")
)
