package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// StorefrontMetrics содержит метрики витрины магазина.
type StorefrontMetrics struct {
	// Счётчики заказов
	ordersCreated prometheus.Counter
	ordersFailed  prometheus.Counter

	// Операции с корзиной по типу операции
	cartOperations *prometheus.CounterVec

	// Поиск адресов по перевозчику и типу запроса (города/отделения)
	shippingLookups *prometheus.CounterVec

	// Гистограмма времени обработки HTTP-запросов
	requestDuration *prometheus.HistogramVec

	// Счётчики событий timeline и outbox
	timelineEvents prometheus.Counter
	outboxEvents   prometheus.Counter

	// Gauge для активных сессий с непустой корзиной
	activeCarts prometheus.Gauge
}

// NewStorefrontMetrics создаёт новый экземпляр метрик витрины.
func NewStorefrontMetrics() *StorefrontMetrics {
	return newStorefrontMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func newStorefrontMetricsWithRegisterer(registerer prometheus.Registerer) *StorefrontMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &StorefrontMetrics{
		ordersCreated: registerCounter(registerer, prometheus.CounterOpts{
			Name: "shop_orders_created_total",
			Help: "Total number of orders created successfully",
		}),
		ordersFailed: registerCounter(registerer, prometheus.CounterOpts{
			Name: "shop_orders_failed_total",
			Help: "Total number of order submissions that failed",
		}),
		cartOperations: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "shop_cart_operations_total",
			Help: "Total number of cart operations grouped by operation",
		}, []string{"operation"}),
		shippingLookups: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "shop_shipping_lookups_total",
			Help: "Total number of shipping address lookups grouped by carrier and lookup kind",
		}, []string{"carrier", "kind"}),
		requestDuration: registerHistogramVec(registerer, prometheus.HistogramOpts{
			Name:    "shop_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}, []string{"method", "route", "status"}),
		timelineEvents: registerCounter(registerer, prometheus.CounterOpts{
			Name: "shop_timeline_events_total",
			Help: "Total number of timeline events recorded",
		}),
		outboxEvents: registerCounter(registerer, prometheus.CounterOpts{
			Name: "shop_outbox_events_total",
			Help: "Total number of outbox events enqueued",
		}),
		activeCarts: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "shop_active_carts",
			Help: "Number of sessions with a non-empty cart",
		}),
	}
}

func registerCounter(registerer prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	collector := prometheus.NewCounter(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Counter)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter %q: %v", opts.Name, err))
	}
	return collector
}

func registerCounterVec(registerer prometheus.Registerer, opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	collector := prometheus.NewCounterVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter vec %q: %v", opts.Name, err))
	}
	return collector
}

func registerGauge(registerer prometheus.Registerer, opts prometheus.GaugeOpts) prometheus.Gauge {
	collector := prometheus.NewGauge(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Gauge)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register gauge %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogramVec(registerer prometheus.Registerer, opts prometheus.HistogramOpts, labels []string) *prometheus.HistogramVec {
	collector := prometheus.NewHistogramVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.HistogramVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram vec %q: %v", opts.Name, err))
	}
	return collector
}

// RecordOrderCreated увеличивает счётчик оформленных заказов.
func (m *StorefrontMetrics) RecordOrderCreated() {
	m.ordersCreated.Inc()
}

// RecordOrderFailed увеличивает счётчик неудачных оформлений.
func (m *StorefrontMetrics) RecordOrderFailed() {
	m.ordersFailed.Inc()
}

// RecordCartOperation увеличивает счётчик операций с корзиной.
func (m *StorefrontMetrics) RecordCartOperation(operation string) {
	m.cartOperations.WithLabelValues(operation).Inc()
}

// RecordShippingLookup увеличивает счётчик поисков адресов.
func (m *StorefrontMetrics) RecordShippingLookup(carrier, kind string) {
	m.shippingLookups.WithLabelValues(carrier, kind).Inc()
}

// RecordRequestDuration записывает время обработки HTTP-запроса.
func (m *StorefrontMetrics) RecordRequestDuration(method, route, status string, duration time.Duration) {
	m.requestDuration.WithLabelValues(method, route, status).Observe(duration.Seconds())
}

// RecordTimelineEvent увеличивает счётчик событий timeline.
func (m *StorefrontMetrics) RecordTimelineEvent() {
	m.timelineEvents.Inc()
}

// RecordOutboxEvent увеличивает счётчик событий outbox.
func (m *StorefrontMetrics) RecordOutboxEvent() {
	m.outboxEvents.Inc()
}

// SetActiveCarts выставляет количество сессий с непустой корзиной.
func (m *StorefrontMetrics) SetActiveCarts(count int) {
	m.activeCarts.Set(float64(count))
}
