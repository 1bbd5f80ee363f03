package domain

import "context"

// Place — нормализованный результат поиска населённого пункта.
// Оба перевозчика приводят свои ответы к этой форме; carrier-специфичные
// поля (WarehouseCount у Нової Пошти, Postcode у Укрпошти) заполняются
// только соответствующим провайдером.
type Place struct {
	Ref            string `json:"ref"`
	Name           string `json:"name"`
	Area           string `json:"area"`
	Region         string `json:"region"`
	Postcode       string `json:"postcode,omitempty"`
	WarehouseCount int    `json:"warehousesCount,omitempty"`
}

// PickupPointKind различает отделения и почтоматы.
type PickupPointKind string

const (
	PickupPointBranch PickupPointKind = "Відділення"
	PickupPointLocker PickupPointKind = "Поштомат"
)

// PickupPoint — нормализованное отделение или почтомат перевозчика.
type PickupPoint struct {
	Ref      string          `json:"ref"`
	Name     string          `json:"name"`
	Address  string          `json:"address"`
	Number   string          `json:"number,omitempty"`
	Postcode string          `json:"postcode,omitempty"`
	Kind     PickupPointKind `json:"type"`
}

// PickupPointQuery задаёт область поиска отделений: населённый пункт по
// ссылке или по названию, плюс опциональный фильтр по строке.
type PickupPointQuery struct {
	PlaceRef  string
	PlaceName string
	Filter    string
}

// ShippingProvider описывает взаимодействие с сервисом адресов перевозчика.
// Реализации обязаны деградировать мягко: при недоступности API или
// отсутствии учётных данных возвращается детерминированный локальный список,
// а не ошибка — вызывающий код не различает «живые» и «подставные» результаты.
type ShippingProvider interface {
	// SearchPlaces возвращает ранжированный список населённых пунктов по запросу.
	// Запрос короче 2 символов даёт пустой список без обращения к сети.
	SearchPlaces(ctx context.Context, query string) ([]Place, error)
	// SearchPickupPoints возвращает отделения выбранного пункта.
	// Без ref и названия пункта возвращается пустой список.
	SearchPickupPoints(ctx context.Context, q PickupPointQuery) ([]PickupPoint, error)
}
