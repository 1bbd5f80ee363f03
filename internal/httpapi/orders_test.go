package httpapi_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/vladislavdragonenkov/sopilka-store/internal/domain"
)

func checkoutForm() map[string]string {
	return map[string]string{
		"firstName":      "Тарас",
		"lastName":       "Мельник",
		"email":          "taras@example.com",
		"phone":          "+380501234567",
		"city":           "Київ",
		"address":        "Відділення №1: Київ, вул. Центральна, 10",
		"deliveryMethod": "nova_poshta",
		"paymentMethod":  "card",
	}
}

type submitDTO struct {
	Success     bool              `json:"success"`
	OrderNumber string            `json:"orderNumber"`
	Message     string            `json:"message"`
	Errors      map[string]string `json:"errors"`
}

func TestSubmitOrderCreatesOrderAndClearsCart(t *testing.T) {
	env := newTestEnv(t)

	env.do(t, http.MethodPost, "/api/cart/items", map[string]string{"productId": "1", "colorId": "natural"}, nil)
	env.do(t, http.MethodPost, "/api/cart/items", map[string]string{"productId": "1", "colorId": "natural"}, nil)
	env.do(t, http.MethodPost, "/api/cart/items", map[string]string{"productId": "4", "colorId": "sky"}, nil)

	var result submitDTO
	status := env.do(t, http.MethodPost, "/api/orders", checkoutForm(), &result)
	if status != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%+v)", status, result)
	}
	if !result.Success || result.OrderNumber == "" {
		t.Fatalf("unexpected submit result: %+v", result)
	}
	if result.Message != "Замовлення успішно створено" {
		t.Fatalf("unexpected message: %q", result.Message)
	}

	order, err := env.orders.GetByNumber(result.OrderNumber)
	if err != nil {
		t.Fatalf("order not persisted: %v", err)
	}
	if order.Total != 2*850+450 {
		t.Fatalf("unexpected order total: %d", order.Total)
	}

	var view cartViewDTO
	env.do(t, http.MethodGet, "/api/cart", nil, &view)
	if len(view.Items) != 0 {
		t.Fatalf("cart must be cleared after checkout, got %+v", view.Items)
	}
}

func TestSubmitOrderValidationErrors(t *testing.T) {
	env := newTestEnv(t)

	env.do(t, http.MethodPost, "/api/cart/items", map[string]string{"productId": "1", "colorId": "natural"}, nil)

	var result submitDTO
	status := env.do(t, http.MethodPost, "/api/orders", map[string]string{"deliveryMethod": "nova_poshta"}, &result)
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", status)
	}
	if result.Success {
		t.Fatal("validation failure must not be successful")
	}
	if result.Errors["firstName"] != "Введіть ім'я" || result.Errors["city"] != "Оберіть місто" {
		t.Fatalf("unexpected field errors: %+v", result.Errors)
	}

	// Корзина не тронута, заказов нет.
	var view cartViewDTO
	env.do(t, http.MethodGet, "/api/cart", nil, &view)
	if len(view.Items) != 1 {
		t.Fatalf("cart must survive failed validation, got %+v", view.Items)
	}
	if orders, err := env.orders.ListRecent(0); err != nil || len(orders) != 0 {
		t.Fatalf("no orders expected, got %d (err=%v)", len(orders), err)
	}
}

func TestSubmitOrderEmptyCart(t *testing.T) {
	env := newTestEnv(t)

	var result submitDTO
	status := env.do(t, http.MethodPost, "/api/orders", checkoutForm(), &result)
	if status != http.StatusInternalServerError {
		t.Fatalf("expected 500 for empty cart, got %d", status)
	}
	if result.Success || result.Message != "Помилка при створенні замовлення" {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestSubmitOrderIdempotentReplay(t *testing.T) {
	env := newTestEnv(t)

	env.do(t, http.MethodPost, "/api/cart/items", map[string]string{"productId": "2", "colorId": "terracotta"}, nil)

	form, err := json.Marshal(checkoutForm())
	if err != nil {
		t.Fatalf("marshal form: %v", err)
	}

	submit := func() (int, submitDTO) {
		req, err := http.NewRequest(http.MethodPost, env.server.URL+"/api/orders", bytes.NewReader(form))
		if err != nil {
			t.Fatalf("build request: %v", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Idempotency-Key", "submit-once")

		resp, err := env.client.Do(req)
		if err != nil {
			t.Fatalf("submit: %v", err)
		}
		defer resp.Body.Close()

		var result submitDTO
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			t.Fatalf("decode: %v", err)
		}
		return resp.StatusCode, result
	}

	status, first := submit()
	if status != http.StatusCreated || !first.Success {
		t.Fatalf("first submit failed: %d %+v", status, first)
	}

	// Успешное оформление очистило корзину, но повтор с тем же ключом и телом
	// обязан воспроизвести сохранённый ответ, не создавая второй заказ.
	status, second := submit()
	if status != http.StatusCreated || second.OrderNumber != first.OrderNumber {
		t.Fatalf("replay mismatch: %d %+v vs %+v", status, second, first)
	}

	orders, err := env.orders.ListRecent(0)
	if err != nil {
		t.Fatalf("list orders: %v", err)
	}
	if len(orders) != 1 {
		t.Fatalf("expected exactly one order, got %d", len(orders))
	}
}

func TestGetOrderByNumber(t *testing.T) {
	env := newTestEnv(t)

	env.do(t, http.MethodPost, "/api/cart/items", map[string]string{"productId": "3", "colorId": "bamboo"}, nil)

	var result submitDTO
	env.do(t, http.MethodPost, "/api/orders", checkoutForm(), &result)

	var order domain.Order
	if status := env.do(t, http.MethodGet, "/api/orders/"+result.OrderNumber, nil, &order); status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if order.Number != result.OrderNumber || order.Items[0].ProductName != "Флейта Пана" {
		t.Fatalf("unexpected order: %+v", order)
	}

	if status := env.do(t, http.MethodGet, "/api/orders/SP00000000", nil, nil); status != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown number, got %d", status)
	}
}

func TestAdvanceOrderStatus(t *testing.T) {
	env := newTestEnv(t)

	env.do(t, http.MethodPost, "/api/cart/items", map[string]string{"productId": "1", "colorId": "natural"}, nil)

	var result submitDTO
	env.do(t, http.MethodPost, "/api/orders", checkoutForm(), &result)

	statusURL := "/api/orders/" + result.OrderNumber + "/status"

	var order domain.Order
	if status := env.do(t, http.MethodPatch, statusURL, map[string]string{"status": "processing"}, &order); status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if order.Status != domain.OrderStatusProcessing {
		t.Fatalf("expected processing status, got %s", order.Status)
	}

	// Пропуск шага (processing -> delivered) отклоняется.
	if status := env.do(t, http.MethodPatch, statusURL, map[string]string{"status": "delivered"}, nil); status != http.StatusConflict {
		t.Fatalf("expected 409 for skipped step, got %d", status)
	}
	// Неизвестный статус тоже 409.
	if status := env.do(t, http.MethodPatch, statusURL, map[string]string{"status": "canceled"}, nil); status != http.StatusConflict {
		t.Fatalf("expected 409 for unknown status, got %d", status)
	}

	stored, err := env.orders.GetByNumber(result.OrderNumber)
	if err != nil {
		t.Fatalf("load order: %v", err)
	}
	if stored.Status != domain.OrderStatusProcessing {
		t.Fatalf("status must stay processing after rejected transitions, got %s", stored.Status)
	}

	if status := env.do(t, http.MethodPatch, "/api/orders/SP00000000/status", map[string]string{"status": "processing"}, nil); status != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown order, got %d", status)
	}
}
