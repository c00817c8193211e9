package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains all gateway-level metrics. Recording is fire-and-forget:
// a failing or absent monitoring sink never affects call outcomes, so every
// Record method is nil-receiver safe.
type Metrics struct {
	// Gateway call metrics
	CallsTotal    *prometheus.CounterVec
	CallDuration  *prometheus.HistogramVec
	TimeoutsTotal *prometheus.CounterVec
	RetriesTotal  *prometheus.CounterVec

	// Async queue metrics
	JobsEnqueued *prometheus.CounterVec
	JobsExecuted *prometheus.CounterVec
	QueueDepth   prometheus.Gauge

	// NATS metrics
	NATSConnected prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all gateway metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		CallsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "fdrgateway",
				Subsystem: "calls",
				Name:      "total",
				Help:      "Total number of gateway calls",
			},
			[]string{"operation", "status"},
		),

		CallDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "fdrgateway",
				Subsystem: "calls",
				Name:      "duration_seconds",
				Help:      "Gateway call duration in seconds, both attempts included",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),

		TimeoutsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "fdrgateway",
				Subsystem: "transport",
				Name:      "timeouts_total",
				Help:      "Total number of transport timeouts",
			},
			[]string{"operation"},
		),

		RetriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "fdrgateway",
				Subsystem: "calls",
				Name:      "retries_total",
				Help:      "Total number of second attempts issued",
			},
			[]string{"operation"},
		),

		JobsEnqueued: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "fdrgateway",
				Subsystem: "queue",
				Name:      "enqueued_total",
				Help:      "Total number of async jobs enqueued",
			},
			[]string{"operation"},
		),

		JobsExecuted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "fdrgateway",
				Subsystem: "queue",
				Name:      "executed_total",
				Help:      "Total number of async jobs executed",
			},
			[]string{"operation", "status"},
		),

		QueueDepth: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "fdrgateway",
				Subsystem: "queue",
				Name:      "depth",
				Help:      "Jobs currently buffered in the consumer worker pool",
			},
		),

		NATSConnected: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "fdrgateway",
				Subsystem: "nats",
				Name:      "connected",
				Help:      "NATS connection status (0=disconnected, 1=connected)",
			},
		),
	}
}

// RecordCall records one completed gateway call.
func (m *Metrics) RecordCall(operation, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.CallsTotal.WithLabelValues(operation, status).Inc()
	m.CallDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordTimeout increments the transport timeout counter.
func (m *Metrics) RecordTimeout(operation string) {
	if m == nil {
		return
	}
	m.TimeoutsTotal.WithLabelValues(operation).Inc()
}

// RecordRetry increments the retry counter.
func (m *Metrics) RecordRetry(operation string) {
	if m == nil {
		return
	}
	m.RetriesTotal.WithLabelValues(operation).Inc()
}

// RecordJobEnqueued increments the async enqueue counter.
func (m *Metrics) RecordJobEnqueued(operation string) {
	if m == nil {
		return
	}
	m.JobsEnqueued.WithLabelValues(operation).Inc()
}

// RecordJobExecuted increments the async execution counter.
func (m *Metrics) RecordJobExecuted(operation, status string) {
	if m == nil {
		return
	}
	m.JobsExecuted.WithLabelValues(operation, status).Inc()
}

// RecordQueueDepth updates the consumer queue depth gauge.
func (m *Metrics) RecordQueueDepth(depth int) {
	if m == nil {
		return
	}
	m.QueueDepth.Set(float64(depth))
}

// RecordNATSStatus updates NATS connection status.
func (m *Metrics) RecordNATSStatus(connected bool) {
	if m == nil {
		return
	}
	value := 0.0
	if connected {
		value = 1.0
	}
	m.NATSConnected.Set(value)
}
