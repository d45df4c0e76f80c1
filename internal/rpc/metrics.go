package rpc

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// #region metrics
// Metrics tracks query outcomes and latency.
type Metrics struct {
	queries      *prometheus.CounterVec
	latency      prometheus.Histogram
	evalFailures prometheus.Counter
}

// NewMetrics registers the inference metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		queries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "alarminference",
			Name:      "queries_total",
			Help:      "Inference queries by outcome (ok or error kind).",
		}, []string{"outcome"}),
		latency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "alarminference",
			Name:      "query_duration_seconds",
			Help:      "Wall time spent answering a query.",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 10),
		}),
		evalFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "alarminference",
			Name:      "eval_failures_total",
			Help:      "Distributions that failed post-inference validation.",
		}),
	}
}

func (m *Metrics) observe(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.queries.WithLabelValues(outcome).Inc()
	m.latency.Observe(elapsed.Seconds())
}

func (m *Metrics) evalFailed() {
	if m == nil {
		return
	}
	m.evalFailures.Inc()
}

// #endregion metrics
