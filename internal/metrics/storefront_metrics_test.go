package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestNewStorefrontMetrics(t *testing.T) {
	metrics := newStorefrontMetricsWithRegisterer(prometheus.NewRegistry())

	if metrics == nil {
		t.Fatal("newStorefrontMetricsWithRegisterer should not return nil")
	}

	if metrics.ordersCreated == nil {
		t.Error("ordersCreated counter should not be nil")
	}

	if metrics.ordersFailed == nil {
		t.Error("ordersFailed counter should not be nil")
	}

	if metrics.cartOperations == nil {
		t.Error("cartOperations counter vec should not be nil")
	}

	if metrics.shippingLookups == nil {
		t.Error("shippingLookups counter vec should not be nil")
	}

	if metrics.requestDuration == nil {
		t.Error("requestDuration histogram vec should not be nil")
	}

	if metrics.timelineEvents == nil {
		t.Error("timelineEvents counter should not be nil")
	}

	if metrics.outboxEvents == nil {
		t.Error("outboxEvents counter should not be nil")
	}

	if metrics.activeCarts == nil {
		t.Error("activeCarts gauge should not be nil")
	}
}

func TestNewStorefrontMetrics_ReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()

	first := newStorefrontMetricsWithRegisterer(reg)
	second := newStorefrontMetricsWithRegisterer(reg)

	first.RecordOrderCreated()
	second.RecordOrderCreated()

	metric := &dto.Metric{}
	if err := second.ordersCreated.Write(metric); err != nil {
		t.Fatalf("failed to write metric: %v", err)
	}
	if metric.Counter.GetValue() != 2.0 {
		t.Errorf("expected shared counter value 2.0, got %f", metric.Counter.GetValue())
	}
}

func TestRecordOrderCreated(t *testing.T) {
	metrics := newStorefrontMetricsWithRegisterer(prometheus.NewRegistry())

	metrics.RecordOrderCreated()

	metric := &dto.Metric{}
	if err := metrics.ordersCreated.Write(metric); err != nil {
		t.Fatalf("failed to write metric: %v", err)
	}

	if metric.Counter.GetValue() != 1.0 {
		t.Errorf("expected counter value 1.0, got %f", metric.Counter.GetValue())
	}
}

func TestRecordOrderFailed(t *testing.T) {
	metrics := newStorefrontMetricsWithRegisterer(prometheus.NewRegistry())

	metrics.RecordOrderFailed()
	metrics.RecordOrderFailed()

	metric := &dto.Metric{}
	if err := metrics.ordersFailed.Write(metric); err != nil {
		t.Fatalf("failed to write metric: %v", err)
	}

	if metric.Counter.GetValue() != 2.0 {
		t.Errorf("expected counter value 2.0, got %f", metric.Counter.GetValue())
	}
}

func TestRecordCartOperation(t *testing.T) {
	metrics := newStorefrontMetricsWithRegisterer(prometheus.NewRegistry())

	metrics.RecordCartOperation("add")
	metrics.RecordCartOperation("add")
	metrics.RecordCartOperation("remove")

	metric := &dto.Metric{}
	if err := metrics.cartOperations.WithLabelValues("add").Write(metric); err != nil {
		t.Fatalf("failed to write metric: %v", err)
	}

	if metric.Counter.GetValue() != 2.0 {
		t.Errorf("expected add counter 2.0, got %f", metric.Counter.GetValue())
	}
}

func TestRecordShippingLookup(t *testing.T) {
	metrics := newStorefrontMetricsWithRegisterer(prometheus.NewRegistry())

	metrics.RecordShippingLookup("nova_poshta", "places")

	metric := &dto.Metric{}
	if err := metrics.shippingLookups.WithLabelValues("nova_poshta", "places").Write(metric); err != nil {
		t.Fatalf("failed to write metric: %v", err)
	}

	if metric.Counter.GetValue() != 1.0 {
		t.Errorf("expected counter value 1.0, got %f", metric.Counter.GetValue())
	}
}

func TestRecordRequestDuration(t *testing.T) {
	metrics := newStorefrontMetricsWithRegisterer(prometheus.NewRegistry())

	metrics.RecordRequestDuration("GET", "/api/products", "200", 25*time.Millisecond)

	histogram, err := metrics.requestDuration.GetMetricWithLabelValues("GET", "/api/products", "200")
	if err != nil {
		t.Fatalf("failed to get histogram: %v", err)
	}

	metric := &dto.Metric{}
	if err := histogram.(prometheus.Histogram).Write(metric); err != nil {
		t.Fatalf("failed to write metric: %v", err)
	}

	if metric.Histogram.GetSampleCount() != 1 {
		t.Errorf("expected one observation, got %d", metric.Histogram.GetSampleCount())
	}
}

func TestSetActiveCarts(t *testing.T) {
	metrics := newStorefrontMetricsWithRegisterer(prometheus.NewRegistry())

	metrics.SetActiveCarts(7)

	metric := &dto.Metric{}
	if err := metrics.activeCarts.Write(metric); err != nil {
		t.Fatalf("failed to write gauge: %v", err)
	}

	if metric.Gauge.GetValue() != 7.0 {
		t.Errorf("expected gauge value 7.0, got %f", metric.Gauge.GetValue())
	}
}
