// Package metrics exposes Prometheus instrumentation for the order desk:
// poll loop outcomes, broker request durations, and order action counts.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus metrics for the order desk.
type Metrics struct {
	// Poll loop outcomes
	PollsApplied   prometheus.Counter     // snapshot replaced
	PollsUnchanged prometheus.Counter     // structural equality suppressed update
	PollsSkipped   *prometheus.CounterVec // labels: reason=in_flight|hidden
	PollsFailed    prometheus.Counter
	PollsCancelled prometheus.Counter // superseded, not failures

	// Broker traffic
	BrokerRequestDur *prometheus.HistogramVec // labels: route
	BrokerErrors     *prometheus.CounterVec   // labels: route

	// Order actions
	OrdersPlaced    prometheus.Counter
	OrdersCancelled prometheus.Counter
	OrdersModified  prometheus.Counter

	// Monitor view
	BucketSize  *prometheus.GaugeVec // labels: bucket
	WSClients   prometheus.Gauge
	SnapshotAge prometheus.Gauge // seconds since last applied snapshot

	// Form persistence
	SnapshotWrites      prometheus.Counter
	SnapshotWriteErrors prometheus.Counter
}

// New registers and returns all order desk metrics.
func New() *Metrics {
	m := &Metrics{
		PollsApplied: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "orderdesk_polls_applied_total",
			Help: "Polls whose snapshot differed and replaced the exposed state",
		}),
		PollsUnchanged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "orderdesk_polls_unchanged_total",
			Help: "Polls suppressed by structural equality with the previous snapshot",
		}),
		PollsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "orderdesk_polls_skipped_total",
			Help: "Polls skipped before issuing a request",
		}, []string{"reason"}),
		PollsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "orderdesk_polls_failed_total",
			Help: "Polls that failed with a transport or backend error",
		}),
		PollsCancelled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "orderdesk_polls_cancelled_total",
			Help: "Polls superseded by a newer poll before settling",
		}),
		BrokerRequestDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "orderdesk_broker_request_seconds",
			Help:    "Broker HTTP request duration",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}, []string{"route"}),
		BrokerErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "orderdesk_broker_errors_total",
			Help: "Broker requests that returned an error",
		}, []string{"route"}),
		OrdersPlaced: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "orderdesk_orders_placed_total",
			Help: "Create-order requests accepted by the broker",
		}),
		OrdersCancelled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "orderdesk_orders_cancelled_total",
			Help: "Batched cancel requests accepted by the broker",
		}),
		OrdersModified: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "orderdesk_orders_modified_total",
			Help: "Modify requests accepted by the broker",
		}),
		BucketSize: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "orderdesk_bucket_size",
			Help: "Rows in each order status bucket of the applied snapshot",
		}, []string{"bucket"}),
		WSClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "orderdesk_ws_clients",
			Help: "Connected websocket UI clients",
		}),
		SnapshotAge: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "orderdesk_snapshot_age_seconds",
			Help: "Seconds since the exposed order snapshot last changed",
		}),
		SnapshotWrites: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "orderdesk_form_snapshot_writes_total",
			Help: "Form snapshot writes attempted",
		}),
		SnapshotWriteErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "orderdesk_form_snapshot_write_errors_total",
			Help: "Form snapshot writes that failed (persistence is best-effort)",
		}),
	}

	prometheus.MustRegister(
		m.PollsApplied,
		m.PollsUnchanged,
		m.PollsSkipped,
		m.PollsFailed,
		m.PollsCancelled,
		m.BrokerRequestDur,
		m.BrokerErrors,
		m.OrdersPlaced,
		m.OrdersCancelled,
		m.OrdersModified,
		m.BucketSize,
		m.WSClients,
		m.SnapshotAge,
		m.SnapshotWrites,
		m.SnapshotWriteErrors,
	)

	return m
}
