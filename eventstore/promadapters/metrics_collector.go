// Package promadapters implements eventstore.MetricsCollector on the Prometheus client library.
//
// Vectors are registered lazily on the first observation of a metric name. The label names of that
// first observation fix the vector's schema; later observations with other label names are dropped.
package promadapters

import (
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/AntonStoeckl/bakery-simulation/eventstore"
)

const defaultHelp = "bakery simulation metric"

// MetricsCollector records into Prometheus vectors registered on a prometheus.Registerer.
type MetricsCollector struct {
	registerer   prometheus.Registerer
	namespace    string
	descriptions map[string]string
	buckets      []float64

	mu         sync.Mutex
	histograms map[string]*prometheus.HistogramVec
	counters   map[string]*prometheus.CounterVec
	gauges     map[string]*prometheus.GaugeVec
	dropped    int
}

// Option configures a MetricsCollector.
type Option func(*MetricsCollector)

// WithNamespace prefixes every metric name.
func WithNamespace(namespace string) Option {
	return func(m *MetricsCollector) {
		m.namespace = namespace
	}
}

// WithDescriptions sets help texts keyed by metric name.
func WithDescriptions(descriptions map[string]string) Option {
	return func(m *MetricsCollector) {
		for name, description := range descriptions {
			m.descriptions[name] = description
		}
	}
}

// WithBuckets overrides the histogram buckets (seconds).
func WithBuckets(buckets []float64) Option {
	return func(m *MetricsCollector) {
		m.buckets = buckets
	}
}

func NewMetricsCollector(registerer prometheus.Registerer, options ...Option) *MetricsCollector {
	m := &MetricsCollector{
		registerer:   registerer,
		descriptions: make(map[string]string),
		buckets:      prometheus.DefBuckets,
		histograms:   make(map[string]*prometheus.HistogramVec),
		counters:     make(map[string]*prometheus.CounterVec),
		gauges:       make(map[string]*prometheus.GaugeVec),
	}

	for _, option := range options {
		option(m)
	}

	return m
}

func (m *MetricsCollector) RecordDuration(metric string, duration time.Duration, labels map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	vec, ok := m.histograms[metric]
	if !ok {
		vec = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: m.namespace,
			Name:      metric,
			Help:      m.help(metric),
			Buckets:   m.buckets,
		}, labelNames(labels))

		vec, ok = register(m.registerer, vec)
		if !ok {
			m.dropped++
			return
		}

		m.histograms[metric] = vec
	}

	observer, err := vec.GetMetricWith(labels)
	if err != nil {
		m.dropped++
		return
	}

	observer.Observe(duration.Seconds())
}

func (m *MetricsCollector) IncrementCounter(metric string, labels map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	vec, ok := m.counters[metric]
	if !ok {
		vec = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: m.namespace,
			Name:      metric,
			Help:      m.help(metric),
		}, labelNames(labels))

		vec, ok = register(m.registerer, vec)
		if !ok {
			m.dropped++
			return
		}

		m.counters[metric] = vec
	}

	counter, err := vec.GetMetricWith(labels)
	if err != nil {
		m.dropped++
		return
	}

	counter.Inc()
}

func (m *MetricsCollector) RecordValue(metric string, value float64, labels map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	vec, ok := m.gauges[metric]
	if !ok {
		vec = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: m.namespace,
			Name:      metric,
			Help:      m.help(metric),
		}, labelNames(labels))

		vec, ok = register(m.registerer, vec)
		if !ok {
			m.dropped++
			return
		}

		m.gauges[metric] = vec
	}

	gauge, err := vec.GetMetricWith(labels)
	if err != nil {
		m.dropped++
		return
	}

	gauge.Set(value)
}

// Dropped returns how many observations could not be recorded.
func (m *MetricsCollector) Dropped() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.dropped
}

func (m *MetricsCollector) help(metric string) string {
	if description, ok := m.descriptions[metric]; ok {
		return description
	}

	return defaultHelp
}

func labelNames(labels map[string]string) []string {
	names := make([]string, 0, len(labels))
	for name := range labels {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}

// register returns the already registered collector when an equal one exists.
func register[T prometheus.Collector](registerer prometheus.Registerer, collector T) (T, bool) {
	err := registerer.Register(collector)
	if err == nil {
		return collector, true
	}

	var alreadyRegistered prometheus.AlreadyRegisteredError
	if errors.As(err, &alreadyRegistered) {
		if existing, ok := alreadyRegistered.ExistingCollector.(T); ok {
			return existing, true
		}
	}

	var zero T

	return zero, false
}

var _ eventstore.MetricsCollector = (*MetricsCollector)(nil)
