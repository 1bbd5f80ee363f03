package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vladislavdragonenkov/sopilka-store/internal/domain"
)

const idempotencyKeyHeader = "Idempotency-Key"

// submitOrderResponse — ответ POST /api/orders при ошибках валидации.
type submitOrderResponse struct {
	Success bool              `json:"success"`
	Errors  map[string]string `json:"errors,omitempty"`
	Message string            `json:"message,omitempty"`
}

// submitOrder оформляет заказ из checkout-формы и текущей корзины сессии.
// Успешное оформление опустошает корзину; повтор с тем же Idempotency-Key
// воспроизводит сохранённый ответ, не создавая второй заказ.
func (h *Handler) submitOrder(w http.ResponseWriter, r *http.Request) {
	var form domain.OrderForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	sid := sessionID(r)
	lines := h.carts.Lines(sid)
	idemKey := r.Header.Get(idempotencyKeyHeader)

	result, fieldErrs, err := h.checkout.Submit(form, lines, idemKey)
	switch {
	case len(fieldErrs) > 0:
		respondJSON(w, http.StatusBadRequest, submitOrderResponse{
			Success: false,
			Errors:  fieldErrs,
		}, h.logger)
	case errors.Is(err, domain.ErrIdempotencyHashMismatch):
		h.respondError(w, http.StatusConflict, "idempotency_conflict", "request body differs from the original submission")
	case err != nil:
		message := result.Message
		if message == "" {
			message = "Помилка при створенні замовлення"
		}
		respondJSON(w, http.StatusInternalServerError, submitOrderResponse{
			Success: false,
			Message: message,
		}, h.logger)
	case !result.Success:
		// Идемпотентный повтор неудачной отправки.
		respondJSON(w, http.StatusInternalServerError, result, h.logger)
	default:
		h.carts.Clear(sid)
		respondJSON(w, http.StatusCreated, result, h.logger)
	}
}

// getOrder отдаёт заказ по человекочитаемому номеру.
func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	number := chi.URLParam(r, "number")

	order, err := h.orders.GetByNumber(number)
	if errors.Is(err, domain.ErrOrderNotFound) {
		h.respondError(w, http.StatusNotFound, "not_found", "order not found")
		return
	}
	if err != nil {
		h.logger.WithError(err).WithField("order_number", number).Error("failed to load order")
		h.respondError(w, http.StatusInternalServerError, "internal_error", "failed to load order")
		return
	}

	respondJSON(w, http.StatusOK, order, h.logger)
}

// advanceStatusRequest — тело PATCH /api/orders/{number}/status.
type advanceStatusRequest struct {
	Status string `json:"status"`
}

// advanceOrderStatus переводит заказ в следующий статус жизненного цикла.
// Допустим только линейный переход pending -> processing -> shipped -> delivered;
// пропуск шага или откат назад отклоняются с 409.
func (h *Handler) advanceOrderStatus(w http.ResponseWriter, r *http.Request) {
	number := chi.URLParam(r, "number")

	var req advanceStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	order, err := h.checkout.AdvanceStatus(number, domain.OrderStatus(req.Status))
	switch {
	case errors.Is(err, domain.ErrOrderNotFound):
		h.respondError(w, http.StatusNotFound, "not_found", "order not found")
	case errors.Is(err, domain.ErrInvalidStatusTransition):
		h.respondError(w, http.StatusConflict, "invalid_transition", "order status transition is not allowed")
	case err != nil:
		h.logger.WithError(err).WithField("order_number", number).Error("failed to advance order status")
		h.respondError(w, http.StatusInternalServerError, "internal_error", "failed to advance order status")
	default:
		respondJSON(w, http.StatusOK, order, h.logger)
	}
}
