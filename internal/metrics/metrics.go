// Package metrics exposes prometheus counters for ledger operations.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector aggregates ledger operation metrics on a private registry.
type Collector struct {
	registry     *prometheus.Registry
	opsProcessed *prometheus.CounterVec
	opsFailed    *prometheus.CounterVec
	balances     *prometheus.GaugeVec
}

// NewCollector creates a Collector with its own registry.
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()
	return &Collector{
		registry: registry,
		opsProcessed: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "gdbank_operations_total",
			Help: "Total number of successful ledger operations",
		}, []string{"action"}),
		opsFailed: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "gdbank_operations_failed_total",
			Help: "Total number of rejected ledger operations",
		}, []string{"action"}),
		balances: promauto.With(registry).NewGaugeVec(prometheus.GaugeOpts{
			Name: "gdbank_account_balance",
			Help: "Current account balance",
		}, []string{"account"}),
	}
}

// RecordOperation counts one ledger operation outcome.
func (c *Collector) RecordOperation(action string, success bool) {
	if success {
		c.opsProcessed.WithLabelValues(action).Inc()
		return
	}
	c.opsFailed.WithLabelValues(action).Inc()
}

// SetBalance updates the balance gauge for an account.
func (c *Collector) SetBalance(account string, balance float64) {
	c.balances.WithLabelValues(account).Set(balance)
}

// Handler returns an HTTP handler serving the collector's registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
