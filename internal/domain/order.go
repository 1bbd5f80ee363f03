package domain

import "time"

// OrderStatus описывает жизненный цикл заказа после оформления.
type OrderStatus string

const (
	// OrderStatusPending — заказ принят, менеджер ещё не подтвердил.
	OrderStatusPending OrderStatus = "pending"
	// OrderStatusProcessing — заказ подтверждён и собирается.
	OrderStatusProcessing OrderStatus = "processing"
	// OrderStatusShipped — заказ передан перевозчику.
	OrderStatusShipped OrderStatus = "shipped"
	// OrderStatusDelivered — заказ получен покупателем.
	OrderStatusDelivered OrderStatus = "delivered"
)

// Типы событий жизненного цикла заказа, публикуемых через transactional
// outbox. Каждому статусу соответствует своё событие.
const (
	EventOrderCreated    = "order.created"
	EventOrderProcessing = "order.processing"
	EventOrderShipped    = "order.shipped"
	EventOrderDelivered  = "order.delivered"
)

// orderStatusFlow задаёт единственный допустимый следующий статус:
// pending → processing → shipped → delivered.
var orderStatusFlow = map[OrderStatus]OrderStatus{
	OrderStatusPending:    OrderStatusProcessing,
	OrderStatusProcessing: OrderStatusShipped,
	OrderStatusShipped:    OrderStatusDelivered,
}

var orderStatusEvents = map[OrderStatus]string{
	OrderStatusPending:    EventOrderCreated,
	OrderStatusProcessing: EventOrderProcessing,
	OrderStatusShipped:    EventOrderShipped,
	OrderStatusDelivered:  EventOrderDelivered,
}

// Valid сообщает, принадлежит ли статус жизненному циклу заказа.
func (s OrderStatus) Valid() bool {
	_, known := orderStatusEvents[s]
	return known
}

// CanTransitionTo проверяет допустимость перехода между статусами.
// Переходы строго последовательные, откатов нет.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	return orderStatusFlow[s] == next
}

// Event возвращает тип outbox-события для статуса. Пустая строка для
// статуса вне жизненного цикла.
func (s OrderStatus) Event() string {
	return orderStatusEvents[s]
}

// OrderItem представляет одну позицию заказа. Название товара, название цвета
// и цена — денормализованная копия каталога на момент оформления: исторические
// заказы не меняются при изменении каталога.
type OrderItem struct {
	ProductID   string `json:"productId"`
	ProductName string `json:"productName"`
	ColorID     string `json:"colorId"`
	ColorName   string `json:"colorName"`
	Quantity    int    `json:"quantity"`
	Price       int64  `json:"price"`
}

// Order — замороженный снапшот оформленного заказа. Создаётся один раз при
// отправке checkout-формы и после этого не мутирует; Total никогда не
// пересчитывается по живому каталогу.
type Order struct {
	ID             string      `json:"id"`
	Number         string      `json:"orderNumber"`
	FirstName      string      `json:"firstName"`
	LastName       string      `json:"lastName"`
	Email          string      `json:"email"`
	Phone          string      `json:"phone"`
	City           string      `json:"city"`
	Address        string      `json:"address"`
	Comment        string      `json:"comment"`
	DeliveryMethod string      `json:"deliveryMethod"`
	PaymentMethod  string      `json:"paymentMethod"`
	Items          []OrderItem `json:"items"`
	Total          int64       `json:"total"`
	Status         OrderStatus `json:"status"`
	CreatedAt      time.Time   `json:"createdAt"`
}

// ValidateInvariants проверяет базовые инварианты заказа и возвращает список замечаний.
func (o *Order) ValidateInvariants() []error {
	var errs []error

	if o.Number == "" {
		errs = append(errs, ErrOrderNumberRequired)
	}
	if len(o.Items) == 0 {
		errs = append(errs, ErrOrderItemsRequired)
	}
	if o.Total < 0 {
		errs = append(errs, ErrOrderTotalNegative)
	}

	// Сверяем сумму заказа с суммой позиций: qty * price.
	var calc int64
	for _, item := range o.Items {
		if item.Quantity <= 0 {
			errs = append(errs, ErrOrderItemQtyInvalid)
		}
		if item.Price < 0 {
			errs = append(errs, ErrOrderItemPriceInvalid)
		}
		calc += int64(item.Quantity) * item.Price
	}
	if calc != o.Total {
		errs = append(errs, ErrOrderTotalMismatch)
	}

	return errs
}
