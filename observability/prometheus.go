package observability

import (
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultAmountBuckets are histogram buckets for amounts in the smallest unit.
var DefaultAmountBuckets = prometheus.ExponentialBuckets(1, 10, 12)

// PrometheusFactory is a MetricFactory backed by prometheus/client_golang.
// Metric names are sanitized ("pension.payout.executed" becomes
// "<namespace>_pension_payout_executed") and cached, so asking for the same
// name twice returns the same collector.
type PrometheusFactory struct {
	namespace  string
	registry   *prometheus.Registry
	buckets    []float64
	counters   sync.Map
	histograms sync.Map
}

// NewPrometheusFactory creates a factory registering into reg. A nil reg
// creates a private registry.
func NewPrometheusFactory(namespace string, reg *prometheus.Registry) *PrometheusFactory {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	return &PrometheusFactory{
		namespace: namespace,
		registry:  reg,
		buckets:   DefaultAmountBuckets,
	}
}

// Registry returns the registry metrics are registered with.
func (f *PrometheusFactory) Registry() *prometheus.Registry { return f.registry }

// Handler serves the registry in the Prometheus exposition format.
func (f *PrometheusFactory) Handler() http.Handler {
	return promhttp.HandlerFor(f.registry, promhttp.HandlerOpts{})
}

// Counter implements MetricFactory.
func (f *PrometheusFactory) Counter(name string) Counter {
	if c, ok := f.counters.Load(name); ok {
		return c.(Counter)
	}
	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: f.namespace,
		Name:      metricName(name) + "_total",
		Help:      name,
	})
	counter = register(f.registry, counter)
	actual, _ := f.counters.LoadOrStore(name, counter)
	return actual.(Counter)
}

// Histogram implements MetricFactory.
func (f *PrometheusFactory) Histogram(name string) Histogram {
	if h, ok := f.histograms.Load(name); ok {
		return h.(Histogram)
	}
	histogram := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: f.namespace,
		Name:      metricName(name),
		Help:      name,
		Buckets:   f.buckets,
	})
	histogram = register(f.registry, histogram)
	actual, _ := f.histograms.LoadOrStore(name, histogram)
	return actual.(Histogram)
}

// register adds c to reg, returning the already registered collector when an
// identical one exists.
func register[C prometheus.Collector](reg *prometheus.Registry, c C) C {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}
	}
	return c
}

var nameReplacer = strings.NewReplacer(".", "_", "-", "_", " ", "_")

func metricName(name string) string {
	return nameReplacer.Replace(name)
}
