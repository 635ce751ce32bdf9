package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "smartwaste"

// Metrics holds the EcoFriend query-path collectors.
type Metrics struct {
	QueriesTotal  *prometheus.CounterVec
	QueryDuration prometheus.Histogram
	IndexBuilds   *prometheus.CounterVec
	CachedHandles prometheus.Gauge
}

// New creates the collectors and registers them with reg. A nil reg skips registration.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		QueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "queries_total",
				Help:      "Total number of EcoFriend queries by result kind",
			},
			[]string{"kind"},
		),
		QueryDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "query_duration_seconds",
				Help:      "End-to-end query duration in seconds",
				Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
		),
		IndexBuilds: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "index_builds_total",
				Help:      "Index handle constructions",
			},
			[]string{"result"}, // "success" / "error"
		),
		CachedHandles: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "index_handles_cached",
				Help:      "Number of cached index handles",
			},
		),
	}
	if reg != nil {
		reg.MustRegister(m.QueriesTotal, m.QueryDuration, m.IndexBuilds, m.CachedHandles)
	}
	return m
}
