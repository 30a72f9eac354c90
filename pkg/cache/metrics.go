package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the cache's Prometheus counters. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	hits          prometheus.Counter
	misses        prometheus.Counter
	staleHits     prometheus.Counter
	writes        prometheus.Counter
	invalidations prometheus.Counter
}

// NewMetrics registers the cache counters on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		hits: factory.NewCounter(prometheus.CounterOpts{
			Name: "weft_cache_hits_total",
			Help: "Cache reads that returned a fresh entry.",
		}),
		misses: factory.NewCounter(prometheus.CounterOpts{
			Name: "weft_cache_misses_total",
			Help: "Cache reads with no entry for the key.",
		}),
		staleHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "weft_cache_stale_hits_total",
			Help: "Cache reads that returned a stale entry.",
		}),
		writes: factory.NewCounter(prometheus.CounterOpts{
			Name: "weft_cache_writes_total",
			Help: "Entries stored or replaced.",
		}),
		invalidations: factory.NewCounter(prometheus.CounterOpts{
			Name: "weft_cache_invalidations_total",
			Help: "Entries explicitly marked stale.",
		}),
	}
}

func (m *Metrics) hit() {
	if m != nil {
		m.hits.Inc()
	}
}

func (m *Metrics) miss() {
	if m != nil {
		m.misses.Inc()
	}
}

func (m *Metrics) staleHit() {
	if m != nil {
		m.staleHits.Inc()
	}
}

func (m *Metrics) write() {
	if m != nil {
		m.writes.Inc()
	}
}

func (m *Metrics) invalidation() {
	if m != nil {
		m.invalidations.Inc()
	}
}
