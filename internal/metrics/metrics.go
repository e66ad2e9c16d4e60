package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors exposed on /metrics.
type Metrics struct {
	currentBlock      *prometheus.GaugeVec
	monitoredAccounts prometheus.Gauge
	notificationsSent prometheus.Counter
	rpcErrors         *prometheus.CounterVec
}

var (
	once    sync.Once
	metrics *Metrics
)

// Init initializes global metrics (idempotent).
func Init() *Metrics {
	once.Do(func() {
		metrics = &Metrics{
			currentBlock: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Name: "current_block",
				Help: "Current block on each chain",
			}, []string{"chain"}),
			monitoredAccounts: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "monitored_accounts",
				Help: "Count of monitored accounts",
			}),
			notificationsSent: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "notifications_sent_total",
				Help: "Total number of notifications pushed",
			}),
			rpcErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "rpc_errors_total",
				Help: "Total number of RPC call failures per chain",
			}, []string{"chain"}),
		}
		prometheus.MustRegister(
			metrics.currentBlock,
			metrics.monitoredAccounts,
			metrics.notificationsSent,
			metrics.rpcErrors,
		)
	})
	return metrics
}

// SetCurrentBlock records the last observed head for a chain.
func (m *Metrics) SetCurrentBlock(chain string, block uint64) {
	if m != nil {
		m.currentBlock.WithLabelValues(chain).Set(float64(block))
	}
}

// SetMonitoredAccounts records the watched-account count.
func (m *Metrics) SetMonitoredAccounts(count int) {
	if m != nil {
		m.monitoredAccounts.Set(float64(count))
	}
}

// NotificationSent increments the sent-notifications counter.
func (m *Metrics) NotificationSent() {
	if m != nil {
		m.notificationsSent.Inc()
	}
}

// RPCError increments the RPC failure counter for a chain.
func (m *Metrics) RPCError(chain string) {
	if m != nil {
		m.rpcErrors.WithLabelValues(chain).Inc()
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
