package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics receives store events. Implementations must be safe for concurrent
// use.
type Metrics interface {
	// Hit is called when Get returns a live value.
	Hit(category string)
	// Miss is called when Get finds nothing usable.
	Miss(category string)
	// Expire is called when Get drops an expired row.
	Expire(category string)
	// Write is called after a successful Set.
	Write(category string)
	// WriteError is called when a Set is abandoned.
	WriteError(category string)
	// Sweep is called with the number of rows SweepExpired removed.
	Sweep(removed int)
}

// NoopMetrics ignores every event.
type NoopMetrics struct{}

func (NoopMetrics) Hit(string)        {}
func (NoopMetrics) Miss(string)       {}
func (NoopMetrics) Expire(string)     {}
func (NoopMetrics) Write(string)      {}
func (NoopMetrics) WriteError(string) {}
func (NoopMetrics) Sweep(int)         {}

// PrometheusMetrics counts store events per category.
type PrometheusMetrics struct {
	Hits        *prometheus.CounterVec
	Misses      *prometheus.CounterVec
	Expirations *prometheus.CounterVec
	Writes      *prometheus.CounterVec
	WriteErrors *prometheus.CounterVec
	Swept       prometheus.Counter
}

// NewPrometheusMetrics registers the cache counters with reg. A nil reg
// uses the default registerer.
func NewPrometheusMetrics(namespace string, reg prometheus.Registerer) *PrometheusMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	labels := []string{"category"}
	return &PrometheusMetrics{
		Hits: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Total number of cache lookups that returned a live value",
		}, labels),
		Misses: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Total number of cache lookups that found nothing usable",
		}, labels),
		Expirations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "expirations_total",
			Help:      "Total number of expired rows dropped on read",
		}, labels),
		Writes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "writes_total",
			Help:      "Total number of rows written",
		}, labels),
		WriteErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "write_errors_total",
			Help:      "Total number of abandoned writes",
		}, labels),
		Swept: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "swept_total",
			Help:      "Total number of expired rows removed by sweeps",
		}),
	}
}

func (m *PrometheusMetrics) Hit(category string)    { m.Hits.WithLabelValues(category).Inc() }
func (m *PrometheusMetrics) Miss(category string)   { m.Misses.WithLabelValues(category).Inc() }
func (m *PrometheusMetrics) Expire(category string) { m.Expirations.WithLabelValues(category).Inc() }
func (m *PrometheusMetrics) Write(category string)  { m.Writes.WithLabelValues(category).Inc() }
func (m *PrometheusMetrics) WriteError(category string) {
	m.WriteErrors.WithLabelValues(category).Inc()
}
func (m *PrometheusMetrics) Sweep(removed int) { m.Swept.Add(float64(removed)) }
