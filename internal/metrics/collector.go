package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// Collector holds the prometheus instruments for the routing core.
// A nil *Collector is valid and records nothing, so components can be
// wired without metrics in tests.
type Collector struct {
	// Routing metrics.
	routeDecisions  *prometheus.CounterVec
	routeDuration   prometheus.Histogram
	routeCandidates prometheus.Histogram
	stickyHits      prometheus.Counter

	// Gossip cache metrics.
	cacheEntries  prometheus.Gauge
	cacheHits     *prometheus.CounterVec
	cacheEvicted  *prometheus.CounterVec
	cachePruned   prometheus.Counter
	updateDropped *prometheus.CounterVec

	// Broadcast metrics.
	broadcasts *prometheus.CounterVec

	logger *zap.Logger
}

// NewCollector creates a collector registered on reg. A nil reg falls
// back to the default prometheus registerer; tests pass their own
// registry so independent instances never collide.
func NewCollector(namespace string, reg prometheus.Registerer, logger *zap.Logger) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	c.routeDecisions = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "route_decisions_total",
			Help:      "Total number of node routing decisions",
		},
		[]string{"outcome"}, // selected / sticky / fallback / no_candidates
	)

	c.routeDuration = factory.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "route_duration_seconds",
			Help:      "Node selection duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)

	c.routeCandidates = factory.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "route_candidates_with_cost",
			Help:      "Number of candidates with usable cost data per decision",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21},
		},
	)

	c.stickyHits = factory.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "route_sticky_hits_total",
			Help:      "Total number of decisions kept on the previous node by hysteresis",
		},
	)

	c.cacheEntries = factory.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "gossip_cache_entries",
			Help:      "Current number of entries in the gossip cost cache",
		},
	)

	c.cacheHits = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gossip_cache_lookups_total",
			Help:      "Total gossip cache lookups by result",
		},
		[]string{"result"}, // hit / miss / stale
	)

	c.cacheEvicted = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gossip_cache_evictions_total",
			Help:      "Total gossip cache evictions by reason",
		},
		[]string{"reason"}, // capacity / pruned
	)

	c.cachePruned = factory.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gossip_cache_prune_runs_total",
			Help:      "Total explicit prune passes over the gossip cache",
		},
	)

	c.updateDropped = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gossip_updates_dropped_total",
			Help:      "Total inbound cost updates dropped",
		},
		[]string{"reason"}, // malformed / out_of_order
	)

	c.broadcasts = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cost_broadcasts_total",
			Help:      "Total local cost snapshot broadcast decisions",
		},
		[]string{"trigger"}, // first / heartbeat / power / battery / cpu / metered / suppressed
	)

	c.logger.Info("metrics collector initialized", zap.String("namespace", namespace))

	return c
}

// RecordRouteDecision records one node-selection outcome.
func (c *Collector) RecordRouteDecision(outcome string, candidatesWithCost int, duration time.Duration) {
	if c == nil {
		return
	}
	c.routeDecisions.WithLabelValues(outcome).Inc()
	c.routeCandidates.Observe(float64(candidatesWithCost))
	c.routeDuration.Observe(duration.Seconds())
}

// RecordStickyHit records a decision kept on its previous node.
func (c *Collector) RecordStickyHit() {
	if c == nil {
		return
	}
	c.stickyHits.Inc()
}

// SetCacheEntries records the current gossip cache size.
func (c *Collector) SetCacheEntries(n int) {
	if c == nil {
		return
	}
	c.cacheEntries.Set(float64(n))
}

// RecordCacheLookup records a gossip cache lookup result: hit, miss or stale.
func (c *Collector) RecordCacheLookup(result string) {
	if c == nil {
		return
	}
	c.cacheHits.WithLabelValues(result).Inc()
}

// RecordCacheEviction records evicted entries with the reason.
func (c *Collector) RecordCacheEviction(reason string, n int) {
	if c == nil || n <= 0 {
		return
	}
	c.cacheEvicted.WithLabelValues(reason).Add(float64(n))
}

// RecordPruneRun records one explicit prune pass.
func (c *Collector) RecordPruneRun() {
	if c == nil {
		return
	}
	c.cachePruned.Inc()
}

// RecordUpdateDropped records a dropped inbound cost update.
func (c *Collector) RecordUpdateDropped(reason string) {
	if c == nil {
		return
	}
	c.updateDropped.WithLabelValues(reason).Inc()
}

// RecordBroadcast records a broadcast decision with its trigger, or
// "suppressed" when the policy decided not to announce.
func (c *Collector) RecordBroadcast(trigger string) {
	if c == nil {
		return
	}
	c.broadcasts.WithLabelValues(trigger).Inc()
}
