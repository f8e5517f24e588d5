// Package metrics exposes Prometheus collectors for ranking requests.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	MetricRequestsTotal   = "dishrank_requests_total"
	MetricRequestDuration = "dishrank_request_duration_seconds"
	MetricVariantCache    = "dishrank_variant_cache_total"
	MetricDishesRanked    = "dishrank_dishes_ranked"
)

const (
	StatusSuccess = "success"
	StatusFailure = "failure"

	CacheHit  = "hit"
	CacheMiss = "miss"
)

// Metrics contains the collectors for worker requests. Safe for concurrent use.
type Metrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	variantCache    *prometheus.CounterVec
	dishesRanked    prometheus.Gauge
}

// NewMetrics creates unregistered collectors; call Register to expose them.
func NewMetrics() *Metrics {
	return &Metrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricRequestsTotal,
				Help: "Total number of worker requests by message type and status",
			},
			[]string{"type", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    MetricRequestDuration,
				Help:    "Histogram of worker request duration in seconds by message type",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
			},
			[]string{"type"},
		),
		variantCache: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricVariantCache,
				Help: "Variant cache lookups of compute requests by result",
			},
			[]string{"result"},
		),
		dishesRanked: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: MetricDishesRanked,
				Help: "Number of dishes in the most recent ranking",
			},
		),
	}
}

func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.requestsTotal,
		m.requestDuration,
		m.variantCache,
		m.dishesRanked,
	}
}

// Observe records one handled worker message.
func (m *Metrics) Observe(msgType string, elapsed time.Duration, cacheHit bool, dishes int, err error) {
	status := StatusSuccess
	if err != nil {
		status = StatusFailure
	}
	m.requestsTotal.WithLabelValues(msgType, status).Inc()
	m.requestDuration.WithLabelValues(msgType).Observe(elapsed.Seconds())

	if msgType != "compute" || err != nil {
		return
	}
	if cacheHit {
		m.variantCache.WithLabelValues(CacheHit).Inc()
	} else {
		m.variantCache.WithLabelValues(CacheMiss).Inc()
	}
	m.dishesRanked.Set(float64(dishes))
}
