package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vladislavdragonenkov/sopilka-store/internal/domain"
)

// cartItemView — позиция корзины, обогащённая каталожными данными.
// Позиции с неизвестным товаром отдаются как есть с нулевой ценой:
// сверка с каталогом происходит при чтении, а не при записи.
type cartItemView struct {
	ProductID   string `json:"productId"`
	ProductName string `json:"productName"`
	ColorID     string `json:"colorId"`
	ColorName   string `json:"colorName"`
	Quantity    int    `json:"quantity"`
	Price       int64  `json:"price"`
	LineTotal   int64  `json:"lineTotal"`
}

// cartView — ответ всех операций корзины: полный снимок плюс производные.
type cartView struct {
	Items  []cartItemView `json:"items"`
	IsOpen bool           `json:"isOpen"`
	Total  int64          `json:"total"`
	Count  int            `json:"count"`
}

type addItemRequest struct {
	ProductID string `json:"productId"`
	ColorID   string `json:"colorId"`
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) cartView(sessionID string, state domain.CartState) cartView {
	items := make([]cartItemView, 0, len(state.Lines))
	for _, line := range state.Lines {
		item := cartItemView{
			ProductID: line.ProductID,
			ColorID:   line.ColorID,
			ColorName: line.ColorID,
			Quantity:  line.Quantity,
		}
		if product, ok := h.catalog.ByID(line.ProductID); ok {
			item.ProductName = product.Name
			item.Price = product.Price
			item.LineTotal = product.Price * int64(line.Quantity)
		}
		if color, ok := h.catalog.ColorOf(line.ProductID, line.ColorID); ok {
			item.ColorName = color.Name
		}
		items = append(items, item)
	}
	return cartView{
		Items:  items,
		IsOpen: state.IsOpen,
		Total:  h.carts.Total(sessionID),
		Count:  h.carts.Count(sessionID),
	}
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	sid := sessionID(r)
	respondJSON(w, http.StatusOK, h.cartView(sid, h.carts.State(sid)), h.logger)
}

func (h *Handler) addCartItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	product, ok := h.catalog.ByID(req.ProductID)
	if !ok {
		h.respondError(w, http.StatusNotFound, "not_found", "product not found")
		return
	}
	colorID := req.ColorID
	if colorID == "" {
		colorID = product.DefaultColorID
	}

	sid := sessionID(r)
	state := h.carts.AddItem(sid, product.ID, colorID)
	h.recordCartOperation("add")
	respondJSON(w, http.StatusOK, h.cartView(sid, state), h.logger)
}

func (h *Handler) updateCartItem(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productID")
	colorID := chi.URLParam(r, "colorID")

	var req updateQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	sid := sessionID(r)
	state := h.carts.UpdateQuantity(sid, productID, colorID, req.Quantity)
	h.recordCartOperation("update_quantity")
	respondJSON(w, http.StatusOK, h.cartView(sid, state), h.logger)
}

func (h *Handler) removeCartItem(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productID")
	colorID := chi.URLParam(r, "colorID")

	sid := sessionID(r)
	state := h.carts.RemoveItem(sid, productID, colorID)
	h.recordCartOperation("remove")
	respondJSON(w, http.StatusOK, h.cartView(sid, state), h.logger)
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	sid := sessionID(r)
	state := h.carts.Clear(sid)
	h.recordCartOperation("clear")
	respondJSON(w, http.StatusOK, h.cartView(sid, state), h.logger)
}

// Видимость выдвижной корзины хранится на сервере вместе с позициями,
// чтобы открытая корзина переживала перезагрузку страницы.
func (h *Handler) openCart(w http.ResponseWriter, r *http.Request) {
	sid := sessionID(r)
	respondJSON(w, http.StatusOK, h.cartView(sid, h.carts.Open(sid)), h.logger)
}

func (h *Handler) closeCart(w http.ResponseWriter, r *http.Request) {
	sid := sessionID(r)
	respondJSON(w, http.StatusOK, h.cartView(sid, h.carts.Close(sid)), h.logger)
}

func (h *Handler) toggleCart(w http.ResponseWriter, r *http.Request) {
	sid := sessionID(r)
	respondJSON(w, http.StatusOK, h.cartView(sid, h.carts.Toggle(sid)), h.logger)
}
