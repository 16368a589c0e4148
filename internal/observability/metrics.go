// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the execution core.
type Metrics struct {
	// Matching engine metrics
	OrdersSubmitted prometheus.Counter
	OrdersRejected  *prometheus.CounterVec
	OrdersCancelled prometheus.Counter
	TradesExecuted  prometheus.Counter

	// AMM metrics
	SwapsExecuted    prometheus.Counter
	SwapsRejected    *prometheus.CounterVec
	LiquidityAdds    prometheus.Counter
	LiquidityRemoves prometheus.Counter
	FeeClaims        prometheus.Counter

	// Router metrics
	HybridTrades   prometheus.Counter
	HybridRejected *prometheus.CounterVec
	RouteLegs      *prometheus.CounterVec

	// Settlement metrics
	SettlementRollbacks prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "meeray_core"
	}

	return &Metrics{
		OrdersSubmitted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "orders_submitted_total",
			Help:      "Total number of orders accepted by the matching engine",
		}),
		OrdersRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "orders_rejected_total",
			Help:      "Total number of rejected orders by reason",
		}, []string{"reason"}),
		OrdersCancelled: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "orders_cancelled_total",
			Help:      "Total number of cancelled orders",
		}),
		TradesExecuted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "trades_executed_total",
			Help:      "Total number of executed trades",
		}),
		SwapsExecuted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "amm",
			Name:      "swaps_executed_total",
			Help:      "Total number of executed AMM swaps",
		}),
		SwapsRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "amm",
			Name:      "swaps_rejected_total",
			Help:      "Total number of rejected AMM swaps by reason",
		}, []string{"reason"}),
		LiquidityAdds: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "amm",
			Name:      "liquidity_adds_total",
			Help:      "Total number of liquidity deposits",
		}),
		LiquidityRemoves: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "amm",
			Name:      "liquidity_removes_total",
			Help:      "Total number of liquidity withdrawals",
		}),
		FeeClaims: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "amm",
			Name:      "fee_claims_total",
			Help:      "Total number of LP fee claims",
		}),
		HybridTrades: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "router",
			Name:      "hybrid_trades_total",
			Help:      "Total number of executed hybrid trades",
		}),
		HybridRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "router",
			Name:      "hybrid_trades_rejected_total",
			Help:      "Total number of rejected hybrid trades by reason",
		}, []string{"reason"}),
		RouteLegs: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "router",
			Name:      "route_legs_total",
			Help:      "Total number of executed route legs by source",
		}, []string{"source"}),
		SettlementRollbacks: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "settlement_rollbacks_total",
			Help:      "Total number of compensating settlement rollbacks",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordOrderSubmitted increments the orders submitted counter.
func RecordOrderSubmitted() {
	DefaultMetrics.OrdersSubmitted.Inc()
}

// RecordOrderRejected records an order rejection by reason.
func RecordOrderRejected(reason string) {
	DefaultMetrics.OrdersRejected.WithLabelValues(reason).Inc()
}

// RecordOrderCancelled increments the orders cancelled counter.
func RecordOrderCancelled() {
	DefaultMetrics.OrdersCancelled.Inc()
}

// RecordTrades adds executed trades to the counter.
func RecordTrades(n int) {
	DefaultMetrics.TradesExecuted.Add(float64(n))
}

// RecordSwapExecuted increments the swaps executed counter.
func RecordSwapExecuted() {
	DefaultMetrics.SwapsExecuted.Inc()
}

// RecordSwapRejected records a swap rejection by reason.
func RecordSwapRejected(reason string) {
	DefaultMetrics.SwapsRejected.WithLabelValues(reason).Inc()
}

// RecordLiquidityAdd increments the liquidity deposits counter.
func RecordLiquidityAdd() {
	DefaultMetrics.LiquidityAdds.Inc()
}

// RecordLiquidityRemove increments the liquidity withdrawals counter.
func RecordLiquidityRemove() {
	DefaultMetrics.LiquidityRemoves.Inc()
}

// RecordFeeClaim increments the fee claims counter.
func RecordFeeClaim() {
	DefaultMetrics.FeeClaims.Inc()
}

// RecordHybridTrade increments the hybrid trades counter.
func RecordHybridTrade() {
	DefaultMetrics.HybridTrades.Inc()
}

// RecordHybridRejected records a hybrid trade rejection by reason.
func RecordHybridRejected(reason string) {
	DefaultMetrics.HybridRejected.WithLabelValues(reason).Inc()
}

// RecordRouteLeg records one executed route leg by source kind.
func RecordRouteLeg(source string) {
	DefaultMetrics.RouteLegs.WithLabelValues(source).Inc()
}

// RecordSettlementRollback increments the rollback counter.
func RecordSettlementRollback() {
	DefaultMetrics.SettlementRollbacks.Inc()
}
