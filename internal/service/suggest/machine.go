// Пакет suggest реализует каскадный подбор адреса: дебаунс ввода,
// отмена устаревших запросов и переходы состояний от пустого поля
// до выбранного города.
package suggest

import (
	"context"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/sopilka-store/internal/domain"
)

// State — фаза подбора города.
type State string

const (
	// StateIdle — запроса нет или он короче минимальной длины.
	StateIdle State = "idle"
	// StateQuerying — ввод принят, ожидается дебаунс или ответ провайдера.
	StateQuerying State = "querying"
	// StateShowingResults — получены результаты последнего запроса.
	StateShowingResults State = "showing_results"
	// StateSelected — пользователь выбрал город из результатов.
	StateSelected State = "selected"
)

const (
	defaultDebounce = 300 * time.Millisecond
	minQueryLength  = 2
)

// Machine — дебаунс-автомат подбора города поверх провайдера перевозчика.
// Выигрывает всегда последний ввод: более ранние запросы отменяются на
// стадии дебаунса, а их запоздавшие ответы отбрасываются по номеру поколения.
type Machine struct {
	provider  domain.ShippingProvider
	debounce  time.Duration
	logger    *log.Entry
	onResults func(query string, places []domain.Place)

	mu         sync.Mutex
	state      State
	generation uint64
	timer      *time.Timer
	query      string
	results    []domain.Place
	selected   *domain.Place
}

// Option настраивает Machine.
type Option func(*Machine)

// WithDebounce подменяет интервал дебаунса.
func WithDebounce(d time.Duration) Option {
	return func(m *Machine) {
		if d > 0 {
			m.debounce = d
		}
	}
}

// WithResultListener подписывает обработчик на готовые результаты.
func WithResultListener(f func(query string, places []domain.Place)) Option {
	return func(m *Machine) {
		m.onResults = f
	}
}

// NewMachine создаёт автомат подбора.
func NewMachine(provider domain.ShippingProvider, logger *log.Entry, opts ...Option) *Machine {
	if logger == nil {
		logger = log.WithField("component", "suggest-machine")
	}
	m := &Machine{
		provider: provider,
		debounce: defaultDebounce,
		logger:   logger,
		state:    StateIdle,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Input принимает очередное значение поля поиска. Запрос короче двух
// символов сбрасывает автомат в idle; более длинный планирует поиск
// после дебаунса, отменяя ранее запланированный.
func (m *Machine) Input(ctx context.Context, query string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.generation++
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}

	m.query = query
	m.selected = nil

	if utf8.RuneCountInString(strings.TrimSpace(query)) < minQueryLength {
		m.state = StateIdle
		m.results = nil
		return
	}

	m.state = StateQuerying
	generation := m.generation
	m.timer = time.AfterFunc(m.debounce, func() {
		m.search(ctx, generation, query)
	})
}

// search выполняет запрос к провайдеру и публикует результаты, если
// ввод с тех пор не менялся.
func (m *Machine) search(ctx context.Context, generation uint64, query string) {
	if m.stale(generation) {
		return
	}

	places, err := m.provider.SearchPlaces(ctx, query)
	if err != nil {
		m.logger.WithError(err).WithField("query", query).Warn("place search failed")
		places = nil
	}

	m.mu.Lock()
	if generation != m.generation {
		m.mu.Unlock()
		return
	}
	m.state = StateShowingResults
	m.results = places
	listener := m.onResults
	m.mu.Unlock()

	if listener != nil {
		listener(query, places)
	}
}

func (m *Machine) stale(generation uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return generation != m.generation
}

// Select фиксирует выбор города из текущих результатов.
// Ссылка вне результатов игнорируется.
func (m *Machine) Select(ref string) (domain.Place, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateShowingResults {
		return domain.Place{}, false
	}
	for _, place := range m.results {
		if place.Ref == ref {
			selected := place
			m.selected = &selected
			m.state = StateSelected
			m.query = place.Name
			return place, true
		}
	}
	return domain.Place{}, false
}

// Reset возвращает автомат в исходное состояние и отменяет отложенный поиск.
func (m *Machine) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.generation++
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	m.state = StateIdle
	m.query = ""
	m.results = nil
	m.selected = nil
}

// Snapshot возвращает текущее состояние автомата.
func (m *Machine) Snapshot() (State, string, []domain.Place) {
	m.mu.Lock()
	defer m.mu.Unlock()

	results := make([]domain.Place, len(m.results))
	copy(results, m.results)
	return m.state, m.query, results
}

// Selected возвращает выбранный город, если автомат в состоянии selected.
func (m *Machine) Selected() (domain.Place, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.selected == nil {
		return domain.Place{}, false
	}
	return *m.selected, true
}
