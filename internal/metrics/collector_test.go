package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestCollector_Records(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector("atmosphere", reg, zap.NewNop())

	c.RecordRouteDecision("selected", 3, 5*time.Millisecond)
	c.RecordRouteDecision("fallback", 0, time.Millisecond)
	c.RecordStickyHit()
	c.SetCacheEntries(7)
	c.RecordCacheLookup("hit")
	c.RecordCacheLookup("stale")
	c.RecordCacheEviction("capacity", 2)
	c.RecordPruneRun()
	c.RecordUpdateDropped("malformed")
	c.RecordBroadcast("heartbeat")

	assert.Equal(t, 1.0, testutil.ToFloat64(c.routeDecisions.WithLabelValues("selected")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.routeDecisions.WithLabelValues("fallback")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.stickyHits))
	assert.Equal(t, 7.0, testutil.ToFloat64(c.cacheEntries))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.cacheHits.WithLabelValues("stale")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.cacheEvicted.WithLabelValues("capacity")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.updateDropped.WithLabelValues("malformed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.broadcasts.WithLabelValues("heartbeat")))
}

func TestCollector_NilIsSafe(t *testing.T) {
	var c *Collector
	c.RecordRouteDecision("selected", 1, time.Millisecond)
	c.RecordStickyHit()
	c.SetCacheEntries(1)
	c.RecordCacheLookup("hit")
	c.RecordCacheEviction("pruned", 1)
	c.RecordPruneRun()
	c.RecordUpdateDropped("malformed")
	c.RecordBroadcast("first")
}

func TestCollector_IndependentRegistries(t *testing.T) {
	// Two collectors must be able to coexist, one per registry.
	a := NewCollector("atmosphere", prometheus.NewRegistry(), zap.NewNop())
	b := NewCollector("atmosphere", prometheus.NewRegistry(), zap.NewNop())
	a.RecordBroadcast("first")
	assert.Equal(t, 0.0, testutil.ToFloat64(b.broadcasts.WithLabelValues("first")))
}
