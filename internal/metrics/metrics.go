// Package metrics exposes Prometheus collectors for the matching worker.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/efreitasn/simmatch/internal/domain"
)

// Metrics implements engine.Instrumentation and engine.Sink.
type Metrics struct {
	ordersByStatus *prometheus.CounterVec
	rejected       prometheus.Counter
	trades         *prometheus.CounterVec
	tradedVolume   *prometheus.CounterVec
	queueDepth     prometheus.Gauge
	eventDuration  *prometheus.HistogramVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ordersByStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "simmatch_order_updates_total",
			Help: "Order updates by resulting status",
		}, []string{"status"}),
		rejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "simmatch_orders_rejected_total",
			Help: "Orders rejected at admission",
		}),
		trades: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "simmatch_trades_total",
			Help: "Fills applied to accounts",
		}, []string{"symbol"}),
		tradedVolume: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "simmatch_traded_volume_total",
			Help: "Volume filled",
		}, []string{"symbol"}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "simmatch_queue_depth",
			Help: "Events waiting for the matching worker",
		}),
		eventDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "simmatch_event_duration_seconds",
			Help:    "Time the worker spent on one event",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
		}, []string{"kind"}),
	}
	reg.MustRegister(m.ordersByStatus, m.rejected, m.trades, m.tradedVolume, m.queueDepth, m.eventDuration)
	return m
}

// ObserveEvent records how long one event took.
func (m *Metrics) ObserveEvent(kind string, elapsed time.Duration) {
	m.eventDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
}

// SetQueueDepth records the number of queued events.
func (m *Metrics) SetQueueDepth(n int) {
	m.queueDepth.Set(float64(n))
}

// OrderUpdated counts an order update.
func (m *Metrics) OrderUpdated(o domain.Order) {
	m.ordersByStatus.WithLabelValues(string(o.Status)).Inc()
	if o.Status == domain.OrderStatusRejected {
		m.rejected.Inc()
	}
}

// TradeUpdated counts a fill.
func (m *Metrics) TradeUpdated(t domain.Trade) {
	if !t.IsFill() {
		return
	}
	m.trades.WithLabelValues(t.Symbol).Inc()
	m.tradedVolume.WithLabelValues(t.Symbol).Add(t.Volume)
}
