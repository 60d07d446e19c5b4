package observability

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MarketMetrics aggregates the counters the marketplace core exposes through
// the /metrics endpoint.
type MarketMetrics struct {
	ordersPlaced    prometheus.Counter
	ordersCancelled prometheus.Counter
	disputesOpened  prometheus.Counter
	disputesRuled   prometheus.Counter
	escrowReleased  prometheus.Counter
	escrowRefunded  prometheus.Counter
	rpcRequests     *prometheus.CounterVec
	rpcErrors       *prometheus.CounterVec
	rpcDuration     *prometheus.HistogramVec
}

var (
	marketMetricsOnce sync.Once
	marketRegistry    *MarketMetrics
)

// Metrics returns the lazily-initialised metrics registry shared by the node
// and the RPC server.
func Metrics() *MarketMetrics {
	marketMetricsOnce.Do(func() {
		marketRegistry = &MarketMetrics{
			ordersPlaced: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "mercato",
				Subsystem: "market",
				Name:      "orders_placed_total",
				Help:      "Total orders successfully placed.",
			}),
			ordersCancelled: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "mercato",
				Subsystem: "market",
				Name:      "orders_cancelled_total",
				Help:      "Total orders finalized as cancelled.",
			}),
			disputesOpened: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "mercato",
				Subsystem: "market",
				Name:      "disputes_opened_total",
				Help:      "Total disputes opened by buyers.",
			}),
			disputesRuled: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "mercato",
				Subsystem: "market",
				Name:      "disputes_ruled_total",
				Help:      "Total disputes settled by an arbiter ruling.",
			}),
			escrowReleased: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "mercato",
				Subsystem: "escrow",
				Name:      "released_total",
				Help:      "Total escrow holds released to sellers.",
			}),
			escrowRefunded: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "mercato",
				Subsystem: "escrow",
				Name:      "refunded_total",
				Help:      "Total escrow holds refunded to buyers.",
			}),
			rpcRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "mercato",
				Subsystem: "rpc",
				Name:      "requests_total",
				Help:      "Total JSON-RPC requests segmented by method and outcome.",
			}, []string{"method", "outcome"}),
			rpcErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "mercato",
				Subsystem: "rpc",
				Name:      "errors_total",
				Help:      "Total JSON-RPC errors segmented by method and error code.",
			}, []string{"method", "code"}),
			rpcDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "mercato",
				Subsystem: "rpc",
				Name:      "request_duration_seconds",
				Help:      "Latency distribution for JSON-RPC handlers.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"method"}),
		}
		prometheus.MustRegister(
			marketRegistry.ordersPlaced,
			marketRegistry.ordersCancelled,
			marketRegistry.disputesOpened,
			marketRegistry.disputesRuled,
			marketRegistry.escrowReleased,
			marketRegistry.escrowRefunded,
			marketRegistry.rpcRequests,
			marketRegistry.rpcErrors,
			marketRegistry.rpcDuration,
		)
	})
	return marketRegistry
}

// ObserveEvent counts domain events as they leave the engines.
func (m *MarketMetrics) ObserveEvent(eventType string) {
	if m == nil {
		return
	}
	switch eventType {
	case "order.placed":
		m.ordersPlaced.Inc()
	case "order.cancelled":
		m.ordersCancelled.Inc()
	case "dispute.opened":
		m.disputesOpened.Inc()
	case "dispute.ruled":
		m.disputesRuled.Inc()
	case "escrow.released":
		m.escrowReleased.Inc()
	case "escrow.refunded":
		m.escrowRefunded.Inc()
	}
}

// ObserveRPC records the outcome and latency of a JSON-RPC call.
func (m *MarketMetrics) ObserveRPC(method, outcome string, code string, started time.Time) {
	if m == nil || method == "" {
		return
	}
	m.rpcRequests.WithLabelValues(method, outcome).Inc()
	if outcome == "error" && code != "" {
		m.rpcErrors.WithLabelValues(method, code).Inc()
	}
	m.rpcDuration.WithLabelValues(method).Observe(time.Since(started).Seconds())
}
