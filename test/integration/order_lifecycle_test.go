package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/vladislavdragonenkov/sopilka-store/internal/catalog"
	"github.com/vladislavdragonenkov/sopilka-store/internal/domain"
	"github.com/vladislavdragonenkov/sopilka-store/internal/httpapi"
	"github.com/vladislavdragonenkov/sopilka-store/internal/service/cart"
	"github.com/vladislavdragonenkov/sopilka-store/internal/service/checkout"
	"github.com/vladislavdragonenkov/sopilka-store/internal/service/notify"
	"github.com/vladislavdragonenkov/sopilka-store/internal/service/outbox"
	"github.com/vladislavdragonenkov/sopilka-store/internal/service/shipping"
	"github.com/vladislavdragonenkov/sopilka-store/internal/service/suggest"
	"github.com/vladislavdragonenkov/sopilka-store/internal/storage/memory"
)

// PurchaseLifecycleTestSuite тестирует полный путь покупателя: подсказка
// адреса, корзина, оформление заказа и доставка события из outbox.
type PurchaseLifecycleTestSuite struct {
	suite.Suite

	server   *httptest.Server
	client   *http.Client
	logger   *log.Entry
	orders   domain.OrderRepository
	timeline domain.TimelineRepository
	outbox   domain.OutboxRepository
}

func (s *PurchaseLifecycleTestSuite) SetupTest() {
	baseLogger := log.New()
	baseLogger.SetLevel(log.WarnLevel) // Уменьшаем шум в тестах
	s.logger = baseLogger.WithField("component", "integration-test")

	cat := catalog.MustLoad()
	s.orders = memory.NewOrderRepository()
	s.timeline = memory.NewTimelineRepository()
	s.outbox = memory.NewOutboxRepository()

	carts := cart.NewService(memory.NewCartRepository(), cat, s.logger)
	checkoutSvc := checkout.NewService(
		cat,
		s.orders,
		s.timeline,
		s.outbox,
		s.logger,
		checkout.WithIdempotency(memory.NewIdempotencyRepository()),
	)

	handler := httpapi.NewHandler(httpapi.Deps{
		Catalog:    cat,
		Carts:      carts,
		Checkout:   checkoutSvc,
		Orders:     s.orders,
		NovaPoshta: shipping.NewNovaPoshtaDirectory(),
		UkrPoshta:  shipping.NewUkrPoshtaDirectory(),
		Logger:     s.logger,
	})
	s.server = httptest.NewServer(handler.Router())

	jar, err := cookiejar.New(nil)
	s.Require().NoError(err)
	s.client = &http.Client{Jar: jar}
}

func (s *PurchaseLifecycleTestSuite) TearDownTest() {
	s.server.Close()
}

// postJSON отправляет запрос от имени одной и той же cookie-сессии.
func (s *PurchaseLifecycleTestSuite) postJSON(path string, body interface{}, headers map[string]string) (int, []byte) {
	raw, err := json.Marshal(body)
	s.Require().NoError(err)

	req, err := http.NewRequest(http.MethodPost, s.server.URL+path, bytes.NewReader(raw))
	s.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")
	for name, value := range headers {
		req.Header.Set(name, value)
	}

	resp, err := s.client.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	return resp.StatusCode, payload
}

func (s *PurchaseLifecycleTestSuite) addToCart(productID, colorID string) {
	status, _ := s.postJSON("/api/cart/items", map[string]string{
		"productId": productID,
		"colorId":   colorID,
	}, nil)
	s.Require().Equal(http.StatusOK, status)
}

func (s *PurchaseLifecycleTestSuite) checkoutForm(city, address string) map[string]string {
	return map[string]string{
		"firstName":      "Оксана",
		"lastName":       "Коваленко",
		"email":          "oksana@example.com",
		"phone":          "+380671234567",
		"city":           city,
		"address":        address,
		"deliveryMethod": "nova_poshta",
		"paymentMethod":  "card",
	}
}

// TestFullPurchaseLifecycle проверяет цепочку suggest → корзина → заказ →
// timeline → outbox → публикация события воркером.
func (s *PurchaseLifecycleTestSuite) TestFullPurchaseLifecycle() {
	// Город и отделение выбираются через suggest-машину, как в браузере.
	provider := shipping.NewNovaPoshtaDirectory()
	results := make(chan []domain.Place, 4)
	machine := suggest.NewMachine(provider, s.logger,
		suggest.WithDebounce(10*time.Millisecond),
		suggest.WithResultListener(func(_ string, places []domain.Place) {
			results <- places
		}),
	)

	machine.Input(context.Background(), "Ки")
	machine.Input(context.Background(), "Киї")

	var places []domain.Place
	select {
	case places = <-results:
	case <-time.After(2 * time.Second):
		s.FailNow("suggest machine produced no results")
	}
	s.Require().NotEmpty(places)

	place, ok := machine.Select(places[0].Ref)
	s.Require().True(ok)
	s.Require().Equal("Київ", place.Name)

	points, err := provider.SearchPickupPoints(context.Background(), domain.PickupPointQuery{PlaceRef: place.Ref})
	s.Require().NoError(err)
	s.Require().NotEmpty(points)

	// Корзина: две традиционные сопілки и одна окарина.
	s.addToCart("1", "natural")
	s.addToCart("1", "natural")
	s.addToCart("4", "sky")

	status, payload := s.postJSON("/api/orders", s.checkoutForm(place.Name, points[0].Name), nil)
	s.Require().Equal(http.StatusCreated, status)

	var result struct {
		Success     bool   `json:"success"`
		OrderNumber string `json:"orderNumber"`
	}
	s.Require().NoError(json.Unmarshal(payload, &result))
	s.Require().True(result.Success)

	order, err := s.orders.GetByNumber(result.OrderNumber)
	s.Require().NoError(err)
	s.Equal(int64(2*850+450), order.Total)
	s.Equal(domain.OrderStatusPending, order.Status)
	s.Equal(place.Name, order.City)
	s.Require().Len(order.Items, 2)

	events, err := s.timeline.List(order.ID)
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Equal("OrderCreated", events[0].Type)

	// Outbox-воркер доставляет событие и снимает его с backlog.
	publisher := &capturingPublisher{}
	worker := outbox.NewWorker(s.outbox, publisher, outbox.WithLogger(s.logger))
	worker.ProcessOnce(context.Background())

	published := publisher.events()
	s.Require().Len(published, 1)
	s.Equal("order.created", published[0].EventType)
	s.Equal(order.ID, published[0].AggregateID)

	pending, err := s.outbox.PullPending(10)
	s.Require().NoError(err)
	s.Empty(pending)
}

// TestIdempotentResubmission повторяет отправку с тем же ключом: заказ один,
// ответ тот же, хотя корзина после первого оформления уже пуста.
func (s *PurchaseLifecycleTestSuite) TestIdempotentResubmission() {
	s.addToCart("2", "terracotta")

	form := s.checkoutForm("Київ", "Відділення №1: Київ, вул. Центральна, 10")
	headers := map[string]string{"Idempotency-Key": "lifecycle-key"}

	firstStatus, firstPayload := s.postJSON("/api/orders", form, headers)
	s.Require().Equal(http.StatusCreated, firstStatus)

	secondStatus, secondPayload := s.postJSON("/api/orders", form, headers)
	s.Require().Equal(http.StatusCreated, secondStatus)
	s.JSONEq(string(firstPayload), string(secondPayload))

	orders, err := s.orders.ListRecent(0)
	s.Require().NoError(err)
	s.Require().Len(orders, 1)
}

// TestValidationFailureKeepsCart: форма с ошибками не трогает корзину и заказы.
func (s *PurchaseLifecycleTestSuite) TestValidationFailureKeepsCart() {
	s.addToCart("3", "bamboo")

	form := s.checkoutForm("", "")
	form["email"] = "not-an-email"

	status, payload := s.postJSON("/api/orders", form, nil)
	s.Require().Equal(http.StatusBadRequest, status)

	var result struct {
		Success bool              `json:"success"`
		Errors  map[string]string `json:"errors"`
	}
	s.Require().NoError(json.Unmarshal(payload, &result))
	s.False(result.Success)
	s.Contains(result.Errors, "city")
	s.Contains(result.Errors, "email")

	orders, err := s.orders.ListRecent(0)
	s.Require().NoError(err)
	s.Empty(orders)

	resp, err := s.client.Get(s.server.URL + "/api/cart")
	s.Require().NoError(err)
	defer resp.Body.Close()

	var cartView struct {
		Count int `json:"count"`
	}
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&cartView))
	s.Equal(1, cartView.Count)
}

// TestTelegramNotificationDelivery гоняет outbox-событие через Telegram-канал.
func (s *PurchaseLifecycleTestSuite) TestTelegramNotificationDelivery() {
	s.addToCart("3", "bamboo")

	status, payload := s.postJSON("/api/orders", s.checkoutForm("Львів", "Відділення №2: Львів, вул. Лісова, 15"), nil)
	s.Require().Equal(http.StatusCreated, status)

	var result struct {
		OrderNumber string `json:"orderNumber"`
	}
	s.Require().NoError(json.Unmarshal(payload, &result))

	var (
		mu       sync.Mutex
		messages []string
	)
	telegram := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Text string `json:"text"`
		}
		s.Require().NoError(json.NewDecoder(r.Body).Decode(&req))
		mu.Lock()
		messages = append(messages, req.Text)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer telegram.Close()

	notifier := notify.NewTelegramNotifier("test-token", "42", s.logger,
		notify.WithTelegramBaseURL(telegram.URL),
	)
	worker := outbox.NewWorker(s.outbox, notifier, outbox.WithLogger(s.logger))
	worker.ProcessOnce(context.Background())

	mu.Lock()
	defer mu.Unlock()
	require.Len(s.T(), messages, 1)
	s.Contains(messages[0], result.OrderNumber)
	s.Contains(messages[0], "НОВЕ ЗАМОВЛЕННЯ")
}

// capturingPublisher запоминает опубликованные события.
type capturingPublisher struct {
	mu        sync.Mutex
	published []domain.OutboxMessage
}

func (p *capturingPublisher) Publish(event domain.OutboxMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, event)
	return nil
}

func (p *capturingPublisher) events() []domain.OutboxMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	result := make([]domain.OutboxMessage, len(p.published))
	copy(result, p.published)
	return result
}

var _ domain.OutboxPublisher = (*capturingPublisher)(nil)

func TestPurchaseLifecycleTestSuite(t *testing.T) {
	suite.Run(t, new(PurchaseLifecycleTestSuite))
}
