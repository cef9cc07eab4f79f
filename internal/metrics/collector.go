package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Collector holds the prometheus instruments of the retrieval pipeline.
type Collector struct {
	queriesTotal      *prometheus.CounterVec
	queryDuration     *prometheus.HistogramVec
	retrievalDuration *prometheus.HistogramVec
	adapterFailures   *prometheus.CounterVec
	escalationsTotal  prometheus.Counter
	researchTotal     *prometheus.CounterVec
	cacheHits         prometheus.Counter
	cacheMisses       prometheus.Counter

	logger *zap.Logger
}

// NewCollector creates a collector and registers its instruments on the
// given registerer. Pass prometheus.DefaultRegisterer for the global
// registry or a fresh registry in tests.
func NewCollector(namespace string, reg prometheus.Registerer, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Collector{
		queriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "queries_total",
				Help:      "Total number of processed queries",
			},
			[]string{"status"},
		),
		queryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "query_duration_seconds",
				Help:      "End-to-end query processing duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"status"},
		),
		retrievalDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "retrieval_duration_seconds",
				Help:      "Per-sub-question retrieval duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"source"},
		),
		adapterFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "adapter_failures_total",
				Help:      "Adapter calls degraded to zero candidates",
			},
			[]string{"source"},
		),
		escalationsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "escalations_total",
				Help:      "Queries escalated to external research",
			},
		),
		researchTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "research_total",
				Help:      "External research outcomes",
			},
			[]string{"outcome"},
		),
		cacheHits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "retrieval_cache_hits_total",
				Help:      "Retrieval cache hits",
			},
		),
		cacheMisses: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "retrieval_cache_misses_total",
				Help:      "Retrieval cache misses",
			},
		),
		logger: logger.With(zap.String("component", "metrics")),
	}

	for _, col := range []prometheus.Collector{
		c.queriesTotal, c.queryDuration, c.retrievalDuration,
		c.adapterFailures, c.escalationsTotal, c.researchTotal,
		c.cacheHits, c.cacheMisses,
	} {
		if err := reg.Register(col); err != nil {
			logger.Warn("metric registration failed", zap.Error(err))
		}
	}

	return c
}

// RecordQuery records one finished query with its final status.
func (c *Collector) RecordQuery(status string, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.queriesTotal.WithLabelValues(status).Inc()
	c.queryDuration.WithLabelValues(status).Observe(elapsed.Seconds())
}

// RecordRetrieval records one adapter call.
func (c *Collector) RecordRetrieval(source string, elapsed time.Duration, failed bool) {
	if c == nil {
		return
	}
	c.retrievalDuration.WithLabelValues(source).Observe(elapsed.Seconds())
	if failed {
		c.adapterFailures.WithLabelValues(source).Inc()
	}
}

// RecordEscalation counts a query escalated to research.
func (c *Collector) RecordEscalation() {
	if c == nil {
		return
	}
	c.escalationsTotal.Inc()
}

// RecordResearch records a research outcome ("ok", "timeout", "error").
func (c *Collector) RecordResearch(outcome string) {
	if c == nil {
		return
	}
	c.researchTotal.WithLabelValues(outcome).Inc()
}

// RecordCache records a retrieval cache lookup.
func (c *Collector) RecordCache(hit bool) {
	if c == nil {
		return
	}
	if hit {
		c.cacheHits.Inc()
		return
	}
	c.cacheMisses.Inc()
}
