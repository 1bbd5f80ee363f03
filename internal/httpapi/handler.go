// Пакет httpapi реализует JSON-API витрины поверх chi-роутера:
// каталог, корзина сессии, подсказки адресов перевозчиков и оформление заказа.
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/sopilka-store/internal/catalog"
	"github.com/vladislavdragonenkov/sopilka-store/internal/domain"
	"github.com/vladislavdragonenkov/sopilka-store/internal/metrics"
	"github.com/vladislavdragonenkov/sopilka-store/internal/service/cart"
	"github.com/vladislavdragonenkov/sopilka-store/internal/service/checkout"
)

// Handler агрегирует зависимости HTTP-хендлеров витрины.
type Handler struct {
	catalog    *catalog.Catalog
	carts      *cart.Service
	checkout   *checkout.Service
	orders     domain.OrderRepository
	novaPoshta domain.ShippingProvider
	ukrPoshta  domain.ShippingProvider
	metrics    *metrics.StorefrontMetrics
	logger     *log.Entry
}

// Deps — зависимости, необходимые для сборки Handler.
// Metrics опциональны: без них хендлеры просто не пишут счётчики.
type Deps struct {
	Catalog    *catalog.Catalog
	Carts      *cart.Service
	Checkout   *checkout.Service
	Orders     domain.OrderRepository
	NovaPoshta domain.ShippingProvider
	UkrPoshta  domain.ShippingProvider
	Metrics    *metrics.StorefrontMetrics
	Logger     *log.Entry
}

// NewHandler создаёт Handler с заданными зависимостями.
func NewHandler(deps Deps) *Handler {
	logger := deps.Logger
	if logger == nil {
		logger = log.WithField("component", "http-api")
	}
	return &Handler{
		catalog:    deps.Catalog,
		carts:      deps.Carts,
		checkout:   deps.Checkout,
		orders:     deps.Orders,
		novaPoshta: deps.NovaPoshta,
		ukrPoshta:  deps.UkrPoshta,
		metrics:    deps.Metrics,
		logger:     logger,
	}
}

// Router собирает chi-роутер витрины со всеми маршрутами и middleware.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(h.sessionMiddleware)
	r.Use(h.metricsMiddleware)

	r.Route("/api", func(r chi.Router) {
		r.Get("/products", h.listProducts)
		r.Get("/products/{key}", h.getProduct)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", h.getCart)
			r.Delete("/", h.clearCart)
			r.Post("/items", h.addCartItem)
			r.Put("/items/{productID}/{colorID}", h.updateCartItem)
			r.Delete("/items/{productID}/{colorID}", h.removeCartItem)
			r.Post("/open", h.openCart)
			r.Post("/close", h.closeCart)
			r.Post("/toggle", h.toggleCart)
		})

		r.Get("/nova-poshta/cities", h.novaPoshtaCities)
		r.Get("/nova-poshta/warehouses", h.novaPoshtaWarehouses)
		r.Get("/ukr-poshta/cities", h.ukrPoshtaCities)
		r.Get("/ukr-poshta/offices", h.ukrPoshtaOffices)

		r.Post("/orders", h.submitOrder)
		r.Get("/orders/{number}", h.getOrder)
		r.Patch("/orders/{number}/status", h.advanceOrderStatus)
	})

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"}, h.logger)
	})

	return r
}

func (h *Handler) recordCartOperation(operation string) {
	if h.metrics == nil {
		return
	}
	h.metrics.RecordCartOperation(operation)
	h.metrics.SetActiveCarts(h.carts.ActiveSessions())
}

func (h *Handler) recordShippingLookup(carrier, kind string) {
	if h.metrics != nil {
		h.metrics.RecordShippingLookup(carrier, kind)
	}
}
