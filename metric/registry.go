package metric

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/c360/fdrgateway/errors"
)

// MetricsRegistry manages the registration and lifecycle of metrics. The
// gateway metrics are registered at construction; the embedding
// application may add its own collectors under a name.
type MetricsRegistry struct {
	prometheusRegistry *prometheus.Registry
	Metrics            *Metrics
	registeredMetrics  map[string]prometheus.Collector
	mu                 sync.RWMutex
}

// NewMetricsRegistry creates a new metrics registry with the core gateway
// metrics and Go runtime collectors registered.
func NewMetricsRegistry() *MetricsRegistry {
	registry := &MetricsRegistry{
		prometheusRegistry: prometheus.NewRegistry(),
		registeredMetrics:  make(map[string]prometheus.Collector),
	}

	registry.Metrics = NewMetrics()
	registry.registerCore()

	registry.prometheusRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return registry
}

func (r *MetricsRegistry) registerCore() {
	r.prometheusRegistry.MustRegister(
		r.Metrics.CallsTotal,
		r.Metrics.CallDuration,
		r.Metrics.TimeoutsTotal,
		r.Metrics.RetriesTotal,
		r.Metrics.JobsEnqueued,
		r.Metrics.JobsExecuted,
		r.Metrics.QueueDepth,
		r.Metrics.NATSConnected,
	)
}

// PrometheusRegistry returns the underlying Prometheus registry.
func (r *MetricsRegistry) PrometheusRegistry() *prometheus.Registry {
	return r.prometheusRegistry
}

// CoreMetrics returns the core gateway metrics.
func (r *MetricsRegistry) CoreMetrics() *Metrics {
	return r.Metrics
}

// RegisterCollector registers an application-provided collector under a
// unique name.
func (r *MetricsRegistry) RegisterCollector(name string, collector prometheus.Collector) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.registeredMetrics[name]; exists {
		return errors.WrapConfiguration(
			fmt.Errorf("collector %q already registered", name),
			"MetricsRegistry", "RegisterCollector", "duplicate registration check")
	}

	if err := r.prometheusRegistry.Register(collector); err != nil {
		var alreadyRegErr prometheus.AlreadyRegisteredError
		if stderrors.As(err, &alreadyRegErr) {
			return errors.WrapConfiguration(err, "MetricsRegistry", "RegisterCollector",
				fmt.Sprintf("prometheus conflict for %q", name))
		}
		return errors.WrapUnexpected(err, "MetricsRegistry", "RegisterCollector",
			"prometheus registration")
	}

	r.registeredMetrics[name] = collector
	return nil
}

// Unregister removes a previously registered collector.
func (r *MetricsRegistry) Unregister(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	collector, exists := r.registeredMetrics[name]
	if !exists {
		return false
	}

	delete(r.registeredMetrics, name)
	return r.prometheusRegistry.Unregister(collector)
}

// Handler returns an HTTP handler exposing the registry in Prometheus
// exposition format, for the embedding application to mount.
func (r *MetricsRegistry) Handler() http.Handler {
	return promhttp.HandlerFor(r.prometheusRegistry, promhttp.HandlerOpts{})
}
