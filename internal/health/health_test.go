package health

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// staticChecker возвращает заранее заданный результат (для degraded-сценария).
type staticChecker struct {
	check Check
}

func (c staticChecker) Check() Check { return c.check }

func TestHealthHandler_StorageHealthy(t *testing.T) {
	handler := NewHandler("v1.2.3")

	// Хранилище отвечает на ping — витрина здорова.
	handler.RegisterChecker("storage", NewSimpleChecker("storage", func() error {
		return nil
	}))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}

	var response Response
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if response.Status != StatusHealthy {
		t.Errorf("expected status healthy, got %s", response.Status)
	}
	if response.Version != "v1.2.3" {
		t.Errorf("expected version v1.2.3, got %s", response.Version)
	}
	if _, ok := response.Checks["storage"]; !ok {
		t.Errorf("expected storage check in response, got %v", response.Checks)
	}
}

func TestHealthHandler_StorageDown(t *testing.T) {
	handler := NewHandler("v1.2.3")

	handler.RegisterChecker("storage", NewSimpleChecker("storage", func() error {
		return errors.New("postgres ping: connection refused")
	}))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", w.Code)
	}

	var response Response
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if response.Status != StatusUnhealthy {
		t.Errorf("expected status unhealthy, got %s", response.Status)
	}
	if response.Checks["storage"].Message != "postgres ping: connection refused" {
		t.Errorf("expected ping error in storage check, got %+v", response.Checks["storage"])
	}
}

func TestHealthHandler_DegradedDoesNotFlip503(t *testing.T) {
	handler := NewHandler("v1.2.3")

	// Брокер деградировал, хранилище живо: общий статус degraded, но 200.
	handler.RegisterChecker("storage", NewSimpleChecker("storage", func() error {
		return nil
	}))
	handler.RegisterChecker("kafka", staticChecker{check: Check{
		Name:    "kafka",
		Status:  StatusDegraded,
		Message: "broker lag",
	}})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200 for degraded, got %d", w.Code)
	}

	var response Response
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.Status != StatusDegraded {
		t.Errorf("expected status degraded, got %s", response.Status)
	}
}

func TestLivenessHandler(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/livez", nil)
	w := httptest.NewRecorder()

	LivenessHandler(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
	if w.Body.String() != "ok" {
		t.Errorf("expected body 'ok', got %s", w.Body.String())
	}
}

func TestReadinessHandler(t *testing.T) {
	handler := NewHandler("v1.2.3")
	handler.RegisterChecker("storage", NewSimpleChecker("storage", func() error {
		return nil
	}))

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	w := httptest.NewRecorder()

	handler.ReadinessHandler(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
	if w.Body.String() != "ready" {
		t.Errorf("expected body 'ready', got %s", w.Body.String())
	}
}

func TestReadinessHandler_StorageDownNotReady(t *testing.T) {
	handler := NewHandler("v1.2.3")
	handler.RegisterChecker("storage", NewSimpleChecker("storage", func() error {
		return errors.New("postgres ping: timeout")
	}))

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	w := httptest.NewRecorder()

	handler.ReadinessHandler(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", w.Code)
	}
	if w.Body.String() != "not ready" {
		t.Errorf("expected body 'not ready', got %s", w.Body.String())
	}
}

func TestSimpleChecker_MeasuresDuration(t *testing.T) {
	checker := NewSimpleChecker("storage", func() error {
		time.Sleep(10 * time.Millisecond)
		return nil
	})

	check := checker.Check()

	if check.Status != StatusHealthy {
		t.Errorf("expected status healthy, got %s", check.Status)
	}
	if check.DurationMs < 10 {
		t.Errorf("expected duration >= 10ms, got %dms", check.DurationMs)
	}
}

func TestSimpleChecker_Error(t *testing.T) {
	checker := NewSimpleChecker("storage", func() error {
		return errors.New("storage down")
	})

	check := checker.Check()

	if check.Status != StatusUnhealthy {
		t.Errorf("expected status unhealthy, got %s", check.Status)
	}
	if check.Message != "storage down" {
		t.Errorf("expected message 'storage down', got %s", check.Message)
	}
}
