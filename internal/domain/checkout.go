package domain

import (
	"regexp"
	"strings"
)

// DeliveryMethod — способ доставки, выбранный на checkout.
type DeliveryMethod string

const (
	DeliveryNovaPoshta DeliveryMethod = "nova_poshta"
	DeliveryUkrPoshta  DeliveryMethod = "ukr_poshta"
	DeliveryPickup     DeliveryMethod = "pickup"
)

// PaymentMethod — способ оплаты, выбранный на checkout.
type PaymentMethod string

const (
	PaymentCard           PaymentMethod = "card"
	PaymentCashOnDelivery PaymentMethod = "cash_on_delivery"
)

// OrderForm — данные checkout-формы до оформления заказа.
type OrderForm struct {
	FirstName      string         `json:"firstName"`
	LastName       string         `json:"lastName"`
	Email          string         `json:"email"`
	Phone          string         `json:"phone"`
	City           string         `json:"city"`
	Address        string         `json:"address"`
	Comment        string         `json:"comment"`
	DeliveryMethod DeliveryMethod `json:"deliveryMethod"`
	PaymentMethod  PaymentMethod  `json:"paymentMethod"`
}

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^[\d\s+()-]{10,}$`)
)

// Validate проверяет поля формы и возвращает map поле → сообщение.
// Пустой map означает, что форма валидна. Ошибки валидации — не исключения:
// они блокируют оформление и исправляются пользователем.
func (f *OrderForm) Validate() map[string]string {
	errs := make(map[string]string)

	if strings.TrimSpace(f.FirstName) == "" {
		errs["firstName"] = "Введіть ім'я"
	}
	if strings.TrimSpace(f.LastName) == "" {
		errs["lastName"] = "Введіть прізвище"
	}
	switch {
	case strings.TrimSpace(f.Email) == "":
		errs["email"] = "Введіть email"
	case !emailPattern.MatchString(f.Email):
		errs["email"] = "Невірний формат email"
	}
	switch {
	case strings.TrimSpace(f.Phone) == "":
		errs["phone"] = "Введіть номер телефону"
	case !phonePattern.MatchString(f.Phone):
		errs["phone"] = "Невірний формат телефону"
	}

	// Для самовывоза город и отделение не требуются.
	if f.DeliveryMethod != DeliveryPickup {
		if strings.TrimSpace(f.City) == "" {
			errs["city"] = "Оберіть місто"
		}
		if strings.TrimSpace(f.Address) == "" {
			errs["address"] = "Оберіть відділення"
		}
	}

	return errs
}

