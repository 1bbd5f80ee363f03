// Пакет shipping реализует поиск городов и отделений перевозчиков:
// живой клиент Нової Пошти с деградацией на локальный справочник и
// детерминированные справочники обоих перевозчиков для работы без API-ключа.
package shipping

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/vladislavdragonenkov/sopilka-store/internal/domain"
)

// minQueryLength — минимальная длина запроса поиска города.
// Более короткие запросы дают пустой результат без обращения к данным.
const minQueryLength = 2

// novaPoshtaStreets используется генератором отделений Нової Пошти.
var novaPoshtaStreets = []string{
	"вул. Центральна", "вул. Соборна", "просп. Перемоги",
	"вул. Шевченка", "вул. Грушевського", "вул. Незалежності",
	"вул. Хрещатик", "просп. Миру", "вул. Київська", "вул. Львівська",
}

// ukrPoshtaStreets используется генератором відділень Укрпошти.
var ukrPoshtaStreets = []string{
	"вул. Центральна", "вул. Соборна", "просп. Перемоги",
	"вул. Шевченка", "вул. Грушевського", "вул. Поштова",
	"вул. Головна", "просп. Миру", "вул. Київська", "вул. Львівська",
}

// novaPoshtaPlaces — локальный справочник городов Нової Пошти.
var novaPoshtaPlaces = []domain.Place{
	{Ref: "1", Name: "Київ", Area: "Київська", WarehouseCount: 500},
	{Ref: "2", Name: "Харків", Area: "Харківська", WarehouseCount: 250},
	{Ref: "3", Name: "Одеса", Area: "Одеська", WarehouseCount: 200},
	{Ref: "4", Name: "Дніпро", Area: "Дніпропетровська", WarehouseCount: 180},
	{Ref: "5", Name: "Львів", Area: "Львівська", WarehouseCount: 150},
	{Ref: "6", Name: "Запоріжжя", Area: "Запорізька", WarehouseCount: 120},
	{Ref: "7", Name: "Вінниця", Area: "Вінницька", WarehouseCount: 80},
	{Ref: "8", Name: "Полтава", Area: "Полтавська", WarehouseCount: 70},
	{Ref: "9", Name: "Чернігів", Area: "Чернігівська", WarehouseCount: 60},
	{Ref: "10", Name: "Черкаси", Area: "Черкаська", WarehouseCount: 55},
	{Ref: "11", Name: "Кривий Ріг", Area: "Дніпропетровська", WarehouseCount: 90},
	{Ref: "12", Name: "Миколаїв", Area: "Миколаївська", WarehouseCount: 75},
	{Ref: "13", Name: "Суми", Area: "Сумська", WarehouseCount: 50},
	{Ref: "14", Name: "Хмельницький", Area: "Хмельницька", WarehouseCount: 45},
	{Ref: "15", Name: "Житомир", Area: "Житомирська", WarehouseCount: 40},
	{Ref: "16", Name: "Рівне", Area: "Рівненська", WarehouseCount: 35},
	{Ref: "17", Name: "Івано-Франківськ", Area: "Івано-Франківська", WarehouseCount: 40},
	{Ref: "18", Name: "Тернопіль", Area: "Тернопільська", WarehouseCount: 35},
	{Ref: "19", Name: "Луцьк", Area: "Волинська", WarehouseCount: 30},
	{Ref: "20", Name: "Ужгород", Area: "Закарпатська", WarehouseCount: 25},
}

// novaPoshtaWarehouseCounts задаёт число генерируемых отделений для
// известных городов; неизвестный город получает 10.
var novaPoshtaWarehouseCounts = map[string]int{
	"Київ": 50, "Харків": 30, "Одеса": 25, "Дніпро": 20, "Львів": 20,
	"Вінниця": 15, "Полтава": 12, "Запоріжжя": 18,
}

// ukrPoshtaPlaces — локальный справочник городов Укрпошти с индексами.
var ukrPoshtaPlaces = []domain.Place{
	{Ref: "01001", Name: "Київ", Region: "Київська область", Postcode: "01001"},
	{Ref: "61000", Name: "Харків", Region: "Харківська область", Postcode: "61000"},
	{Ref: "65000", Name: "Одеса", Region: "Одеська область", Postcode: "65000"},
	{Ref: "49000", Name: "Дніпро", Region: "Дніпропетровська область", Postcode: "49000"},
	{Ref: "79000", Name: "Львів", Region: "Львівська область", Postcode: "79000"},
	{Ref: "69000", Name: "Запоріжжя", Region: "Запорізька область", Postcode: "69000"},
	{Ref: "21000", Name: "Вінниця", Region: "Вінницька область", Postcode: "21000"},
	{Ref: "36000", Name: "Полтава", Region: "Полтавська область", Postcode: "36000"},
	{Ref: "14000", Name: "Чернігів", Region: "Чернігівська область", Postcode: "14000"},
	{Ref: "18000", Name: "Черкаси", Region: "Черкаська область", Postcode: "18000"},
	{Ref: "50000", Name: "Кривий Ріг", Region: "Дніпропетровська область", Postcode: "50000"},
	{Ref: "54000", Name: "Миколаїв", Region: "Миколаївська область", Postcode: "54000"},
	{Ref: "40000", Name: "Суми", Region: "Сумська область", Postcode: "40000"},
	{Ref: "29000", Name: "Хмельницький", Region: "Хмельницька область", Postcode: "29000"},
	{Ref: "10000", Name: "Житомир", Region: "Житомирська область", Postcode: "10000"},
	{Ref: "33000", Name: "Рівне", Region: "Рівненська область", Postcode: "33000"},
	{Ref: "76000", Name: "Івано-Франківськ", Region: "Івано-Франківська область", Postcode: "76000"},
	{Ref: "46000", Name: "Тернопіль", Region: "Тернопільська область", Postcode: "46000"},
	{Ref: "43000", Name: "Луцьк", Region: "Волинська область", Postcode: "43000"},
	{Ref: "88000", Name: "Ужгород", Region: "Закарпатська область", Postcode: "88000"},
	{Ref: "73000", Name: "Херсон", Region: "Херсонська область", Postcode: "73000"},
	{Ref: "51000", Name: "Кропивницький", Region: "Кіровоградська область", Postcode: "51000"},
}

// ukrPoshtaOfficePrefixes задаёт префикс индекса и число відділень
// для известных городов.
var ukrPoshtaOfficePrefixes = map[string]struct {
	prefix string
	count  int
}{
	"Київ":      {"01", 25},
	"Харків":    {"61", 15},
	"Одеса":     {"65", 12},
	"Дніпро":    {"49", 10},
	"Львів":     {"79", 12},
	"Вінниця":   {"21", 8},
	"Запоріжжя": {"69", 10},
}

// NovaPoshtaDirectory — детерминированный локальный справочник Нової Пошти.
// Используется как самостоятельный провайдер без API-ключа и как замена
// живого клиента при недоступности API.
type NovaPoshtaDirectory struct{}

// NewNovaPoshtaDirectory создаёт локальный справочник Нової Пошти.
func NewNovaPoshtaDirectory() *NovaPoshtaDirectory {
	return &NovaPoshtaDirectory{}
}

// SearchPlaces ищет города по вхождению подстроки в название или область.
func (d *NovaPoshtaDirectory) SearchPlaces(_ context.Context, query string) ([]domain.Place, error) {
	if utf8.RuneCountInString(strings.TrimSpace(query)) < minQueryLength {
		return []domain.Place{}, nil
	}

	needle := strings.ToLower(query)
	result := make([]domain.Place, 0, 4)
	for _, place := range novaPoshtaPlaces {
		if strings.Contains(strings.ToLower(place.Name), needle) ||
			strings.Contains(strings.ToLower(place.Area), needle) {
			result = append(result, place)
		}
	}
	return result, nil
}

// SearchPickupPoints генерирует отделения выбранного города. Генерация
// детерминированная: одинаковый запрос всегда даёт одинаковый список.
func (d *NovaPoshtaDirectory) SearchPickupPoints(_ context.Context, q domain.PickupPointQuery) ([]domain.PickupPoint, error) {
	city := resolveCity(q, novaPoshtaPlaces)
	if city == "" {
		return []domain.PickupPoint{}, nil
	}

	count, ok := novaPoshtaWarehouseCounts[city]
	if !ok {
		count = 10
	}

	points := make([]domain.PickupPoint, 0, count)
	for i := 0; i < count; i++ {
		street := novaPoshtaStreets[i%len(novaPoshtaStreets)]
		building := 10 + i*5
		kind := domain.PickupPointBranch
		if i >= count*7/10 {
			kind = domain.PickupPointLocker
		}
		points = append(points, domain.PickupPoint{
			Ref:     fmt.Sprintf("%s-wh-%d", city, i+1),
			Name:    fmt.Sprintf("Відділення №%d: %s, %s, %d", i+1, city, street, building),
			Address: fmt.Sprintf("%s, %d", street, building),
			Number:  fmt.Sprintf("%d", i+1),
			Kind:    kind,
		})
	}
	return filterPickupPoints(points, q.Filter), nil
}

// UkrPoshtaDirectory — локальный справочник Укрпошти. Живого API у
// Укрпошти в магазине нет, поэтому справочник — единственный провайдер.
type UkrPoshtaDirectory struct{}

// NewUkrPoshtaDirectory создаёт локальный справочник Укрпошти.
func NewUkrPoshtaDirectory() *UkrPoshtaDirectory {
	return &UkrPoshtaDirectory{}
}

// SearchPlaces ищет города по названию, области или почтовому индексу.
func (d *UkrPoshtaDirectory) SearchPlaces(_ context.Context, query string) ([]domain.Place, error) {
	if utf8.RuneCountInString(strings.TrimSpace(query)) < minQueryLength {
		return []domain.Place{}, nil
	}

	needle := strings.ToLower(query)
	result := make([]domain.Place, 0, 4)
	for _, place := range ukrPoshtaPlaces {
		if strings.Contains(strings.ToLower(place.Name), needle) ||
			strings.Contains(strings.ToLower(place.Region), needle) ||
			strings.Contains(place.Postcode, query) {
			result = append(result, place)
		}
	}
	return result, nil
}

// SearchPickupPoints генерирует відділення выбранного города.
func (d *UkrPoshtaDirectory) SearchPickupPoints(_ context.Context, q domain.PickupPointQuery) ([]domain.PickupPoint, error) {
	city := resolveCity(q, ukrPoshtaPlaces)
	if city == "" {
		return []domain.PickupPoint{}, nil
	}

	prefix, count := "00", 5
	if known, ok := ukrPoshtaOfficePrefixes[city]; ok {
		prefix, count = known.prefix, known.count
	}

	points := make([]domain.PickupPoint, 0, count)
	for i := 0; i < count; i++ {
		street := ukrPoshtaStreets[i%len(ukrPoshtaStreets)]
		building := 10 + i*3
		kind := domain.PickupPointBranch
		if i >= count*8/10 {
			kind = domain.PickupPointLocker
		}
		points = append(points, domain.PickupPoint{
			Ref:      fmt.Sprintf("ukrposhta-%s-%d", city, i+1),
			Name:     fmt.Sprintf("Поштове відділення №%d", i+1),
			Address:  fmt.Sprintf("%s, %s, %d", city, street, building),
			Postcode: fmt.Sprintf("%s%03d", prefix, i+1),
			Kind:     kind,
		})
	}
	return filterPickupPoints(points, q.Filter), nil
}

// resolveCity возвращает название города из запроса: явное название,
// иначе название по ref из справочника, иначе сам ref.
func resolveCity(q domain.PickupPointQuery, places []domain.Place) string {
	if q.PlaceName != "" {
		return q.PlaceName
	}
	if q.PlaceRef == "" {
		return ""
	}
	for _, place := range places {
		if place.Ref == q.PlaceRef {
			return place.Name
		}
	}
	return q.PlaceRef
}

// filterPickupPoints сужает список по подстроке в названии, адресе,
// номере или индексе отделения.
func filterPickupPoints(points []domain.PickupPoint, filter string) []domain.PickupPoint {
	if filter == "" {
		return points
	}
	needle := strings.ToLower(filter)
	result := make([]domain.PickupPoint, 0, len(points))
	for _, p := range points {
		if strings.Contains(strings.ToLower(p.Name), needle) ||
			strings.Contains(strings.ToLower(p.Address), needle) ||
			strings.Contains(p.Number, filter) ||
			strings.Contains(p.Postcode, filter) {
			result = append(result, p)
		}
	}
	return result
}

var (
	_ domain.ShippingProvider = (*NovaPoshtaDirectory)(nil)
	_ domain.ShippingProvider = (*UkrPoshtaDirectory)(nil)
)
