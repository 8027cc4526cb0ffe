package observability

import (
	"errors"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// DefaultAmountBuckets suit amounts in major units, from 100 up to about
// 200,000.
var DefaultAmountBuckets = prometheus.ExponentialBuckets(100, 2, 12)

// PrometheusFactory is a MetricFactory backed by client_golang
// collectors. Asking twice for the same name returns the same collector.
type PrometheusFactory struct {
	reg       prometheus.Registerer
	namespace string
	buckets   []float64

	mu         sync.Mutex
	counters   map[string]prometheus.Counter
	histograms map[string]prometheus.Histogram
}

// PrometheusOption configures a PrometheusFactory.
type PrometheusOption func(*PrometheusFactory)

// WithNamespace prefixes every metric name that does not already carry
// the namespace.
func WithNamespace(ns string) PrometheusOption {
	return func(f *PrometheusFactory) { f.namespace = sanitize(ns) }
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) PrometheusOption {
	return func(f *PrometheusFactory) {
		if len(buckets) > 0 {
			f.buckets = buckets
		}
	}
}

// NewPrometheusFactory returns a factory registering its collectors with
// reg. A nil reg uses prometheus.DefaultRegisterer.
func NewPrometheusFactory(reg prometheus.Registerer, opts ...PrometheusOption) *PrometheusFactory {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := &PrometheusFactory{
		reg:        reg,
		buckets:    DefaultAmountBuckets,
		counters:   make(map[string]prometheus.Counter),
		histograms: make(map[string]prometheus.Histogram),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Counter implements MetricFactory. Counter names get a "_total" suffix.
func (f *PrometheusFactory) Counter(name string) Counter {
	f.mu.Lock()
	defer f.mu.Unlock()

	if c, ok := f.counters[name]; ok {
		return c
	}

	metric := f.metricName(name)
	if !strings.HasSuffix(metric, "_total") {
		metric += "_total"
	}
	c := prometheus.NewCounter(prometheus.CounterOpts{
		Name: metric,
		Help: "Count of " + name + " events.",
	})
	c = register(f.reg, c)
	f.counters[name] = c
	return c
}

// Histogram implements MetricFactory.
func (f *PrometheusFactory) Histogram(name string) Histogram {
	f.mu.Lock()
	defer f.mu.Unlock()

	if h, ok := f.histograms[name]; ok {
		return h
	}

	h := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    f.metricName(name),
		Help:    "Distribution of " + name + ".",
		Buckets: f.buckets,
	})
	h = register(f.reg, h)
	f.histograms[name] = h
	return h
}

func (f *PrometheusFactory) metricName(name string) string {
	metric := sanitize(name)
	if f.namespace != "" && metric != f.namespace && !strings.HasPrefix(metric, f.namespace+"_") {
		metric = f.namespace + "_" + metric
	}
	return metric
}

// register adds c to reg, reusing a collector already registered under
// the same descriptor.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	err := reg.Register(c)
	if err == nil {
		return c
	}
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(C); ok {
			return existing
		}
	}
	// A conflicting descriptor keeps the collector working unregistered.
	return c
}

// sanitize maps a dotted metric name onto the Prometheus name charset.
func sanitize(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for i, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_', r == ':':
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			if i == 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
