package suggest_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/sopilka-store/internal/domain"
	"github.com/vladislavdragonenkov/sopilka-store/internal/service/shipping"
	"github.com/vladislavdragonenkov/sopilka-store/internal/service/suggest"
)

const testDebounce = 20 * time.Millisecond

func waitForResults(t *testing.T, ch <-chan string) string {
	t.Helper()
	select {
	case query := <-ch:
		return query
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for results")
		return ""
	}
}

func TestMachine_ShortInputStaysIdle(t *testing.T) {
	m := suggest.NewMachine(shipping.NewNovaPoshtaDirectory(), nil, suggest.WithDebounce(testDebounce))

	m.Input(context.Background(), "К")

	state, query, results := m.Snapshot()
	if state != suggest.StateIdle {
		t.Fatalf("expected idle, got %s", state)
	}
	if query != "К" || len(results) != 0 {
		t.Fatalf("unexpected snapshot: %q %d", query, len(results))
	}
}

func TestMachine_DebouncedSearch(t *testing.T) {
	resultCh := make(chan string, 1)
	m := suggest.NewMachine(
		shipping.NewNovaPoshtaDirectory(),
		nil,
		suggest.WithDebounce(testDebounce),
		suggest.WithResultListener(func(query string, _ []domain.Place) { resultCh <- query }),
	)

	m.Input(context.Background(), "Львів")

	if state, _, _ := m.Snapshot(); state != suggest.StateQuerying {
		t.Fatalf("expected querying before debounce, got %s", state)
	}

	if query := waitForResults(t, resultCh); query != "Львів" {
		t.Fatalf("expected results for Львів, got %q", query)
	}
	state, _, results := m.Snapshot()
	if state != suggest.StateShowingResults {
		t.Fatalf("expected showing_results, got %s", state)
	}
	if len(results) != 1 || results[0].Ref != "5" {
		t.Fatalf("unexpected results: %+v", results)
	}
}

func TestMachine_LastInputWins(t *testing.T) {
	resultCh := make(chan string, 4)
	m := suggest.NewMachine(
		shipping.NewNovaPoshtaDirectory(),
		nil,
		suggest.WithDebounce(testDebounce),
		suggest.WithResultListener(func(query string, _ []domain.Place) { resultCh <- query }),
	)

	// Быстрая серия вводов внутри окна дебаунса: поиск уходит только
	// для последнего значения.
	m.Input(context.Background(), "Ки")
	m.Input(context.Background(), "Хар")
	m.Input(context.Background(), "Одеса")

	if query := waitForResults(t, resultCh); query != "Одеса" {
		t.Fatalf("expected results for Одеса, got %q", query)
	}

	select {
	case query := <-resultCh:
		t.Fatalf("unexpected extra results for %q", query)
	case <-time.After(5 * testDebounce):
	}
}

// slowProvider блокирует первый запрос до сигнала, имитируя медленный API.
type slowProvider struct {
	inner   domain.ShippingProvider
	mu      sync.Mutex
	blocked map[string]chan struct{}
}

func newSlowProvider(inner domain.ShippingProvider) *slowProvider {
	return &slowProvider{inner: inner, blocked: make(map[string]chan struct{})}
}

func (p *slowProvider) block(query string) chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	ch := make(chan struct{})
	p.blocked[query] = ch
	return ch
}

func (p *slowProvider) SearchPlaces(ctx context.Context, query string) ([]domain.Place, error) {
	p.mu.Lock()
	gate := p.blocked[query]
	p.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return p.inner.SearchPlaces(ctx, query)
}

func (p *slowProvider) SearchPickupPoints(ctx context.Context, q domain.PickupPointQuery) ([]domain.PickupPoint, error) {
	return p.inner.SearchPickupPoints(ctx, q)
}

func TestMachine_StaleInFlightResponseIsDropped(t *testing.T) {
	provider := newSlowProvider(shipping.NewNovaPoshtaDirectory())
	gate := provider.block("Київ")

	resultCh := make(chan string, 4)
	m := suggest.NewMachine(
		provider,
		nil,
		suggest.WithDebounce(testDebounce),
		suggest.WithResultListener(func(query string, _ []domain.Place) { resultCh <- query }),
	)

	// Первый запрос уходит в провайдера и зависает там.
	m.Input(context.Background(), "Київ")
	time.Sleep(3 * testDebounce)

	// Второй ввод обгоняет застрявший ответ.
	m.Input(context.Background(), "Львів")
	if query := waitForResults(t, resultCh); query != "Львів" {
		t.Fatalf("expected results for Львів, got %q", query)
	}

	// Освобождаем застрявший запрос: его результаты должны быть отброшены.
	close(gate)
	select {
	case query := <-resultCh:
		t.Fatalf("stale response for %q must be dropped", query)
	case <-time.After(5 * testDebounce):
	}

	state, _, results := m.Snapshot()
	if state != suggest.StateShowingResults {
		t.Fatalf("expected showing_results, got %s", state)
	}
	if len(results) != 1 || results[0].Name != "Львів" {
		t.Fatalf("expected Львів results to survive, got %+v", results)
	}
}

func TestMachine_SelectFromResults(t *testing.T) {
	resultCh := make(chan string, 1)
	m := suggest.NewMachine(
		shipping.NewNovaPoshtaDirectory(),
		nil,
		suggest.WithDebounce(testDebounce),
		suggest.WithResultListener(func(query string, _ []domain.Place) { resultCh <- query }),
	)

	m.Input(context.Background(), "Харків")
	waitForResults(t, resultCh)

	place, ok := m.Select("2")
	if !ok {
		t.Fatal("expected selection to succeed")
	}
	if place.Name != "Харків" {
		t.Fatalf("unexpected selection: %+v", place)
	}

	state, query, _ := m.Snapshot()
	if state != suggest.StateSelected {
		t.Fatalf("expected selected, got %s", state)
	}
	if query != "Харків" {
		t.Fatalf("expected query to carry the selected name, got %q", query)
	}
	if _, ok := m.Selected(); !ok {
		t.Fatal("expected selected place to be exposed")
	}

	// Выбор вне результатов игнорируется.
	if _, ok := m.Select("999"); ok {
		t.Fatal("expected selection outside results to fail")
	}
}

func TestMachine_ResetCancelsPendingSearch(t *testing.T) {
	resultCh := make(chan string, 1)
	m := suggest.NewMachine(
		shipping.NewNovaPoshtaDirectory(),
		nil,
		suggest.WithDebounce(testDebounce),
		suggest.WithResultListener(func(query string, _ []domain.Place) { resultCh <- query }),
	)

	m.Input(context.Background(), "Київ")
	m.Reset()

	select {
	case query := <-resultCh:
		t.Fatalf("reset must cancel pending search, got results for %q", query)
	case <-time.After(5 * testDebounce):
	}

	state, query, results := m.Snapshot()
	if state != suggest.StateIdle || query != "" || len(results) != 0 {
		t.Fatalf("expected clean idle state, got %s %q %d", state, query, len(results))
	}
}
