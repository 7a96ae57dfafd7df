package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CartMetrics records cart mutations, the shape of the committed cart and inventory latency.
type CartMetrics struct {
	operations *prometheus.CounterVec
	lines      prometheus.Gauge
	units      prometheus.Gauge
	stockCalls *prometheus.HistogramVec
}

// NewCartMetrics registers the cart metrics on the provided registerer.
func NewCartMetrics(reg prometheus.Registerer) *CartMetrics {
	if reg == nil {
		return &CartMetrics{}
	}
	operations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_operations_total",
		Help: "Cart mutations by operation and outcome.",
	}, []string{"operation", "outcome"})
	lines := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cart_lines",
		Help: "Distinct products in the committed cart.",
	})
	units := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cart_units",
		Help: "Total units in the committed cart.",
	})
	stockCalls := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "stock_call_duration_seconds",
		Help:    "Duration of inventory service calls in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"call", "result"})
	reg.MustRegister(operations, lines, units, stockCalls)
	return &CartMetrics{
		operations: operations,
		lines:      lines,
		units:      units,
		stockCalls: stockCalls,
	}
}

// ObserveOperation counts one finished mutation.
func (m *CartMetrics) ObserveOperation(operation, outcome string) {
	if m == nil || m.operations == nil {
		return
	}
	m.operations.WithLabelValues(normalizeLabel(operation), normalizeLabel(outcome)).Inc()
}

// ObserveCart sets the gauges from a committed cart.
func (m *CartMetrics) ObserveCart(lines, units int) {
	if m == nil || m.lines == nil {
		return
	}
	m.lines.Set(float64(lines))
	m.units.Set(float64(units))
}

// ObserveStockCall records the latency of one inventory call.
func (m *CartMetrics) ObserveStockCall(call, result string, elapsed time.Duration) {
	if m == nil || m.stockCalls == nil {
		return
	}
	m.stockCalls.WithLabelValues(normalizeLabel(call), normalizeLabel(result)).Observe(elapsed.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
