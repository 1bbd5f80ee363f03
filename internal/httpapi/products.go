package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.catalog.List(), h.logger)
}

// getProduct отдаёт карточку товара по id или slug.
func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	product, ok := h.catalog.ByID(key)
	if !ok {
		product, ok = h.catalog.BySlug(key)
	}
	if !ok {
		h.respondError(w, http.StatusNotFound, "not_found", "product not found")
		return
	}

	respondJSON(w, http.StatusOK, product, h.logger)
}
