package domain

import "time"

// TimelineEvent описывает событие в истории заказа: создание, уведомление
// менеджера, смену статуса.
type TimelineEvent struct {
	OrderID  string
	Type     string
	Reason   string
	Occurred time.Time
}
