package gossip

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/llama-farm/atmosphere-sub001/internal/metrics"
	"github.com/llama-farm/atmosphere-sub001/types"
)

// CacheConfig bounds the cost cache in age and size.
type CacheConfig struct {
	// DefaultStaleAfter is the trust window for snapshots from
	// plugged-in nodes.
	DefaultStaleAfter time.Duration `yaml:"default_stale_after"`

	// PowerStaleAfter is the tighter trust window for on-battery
	// nodes, whose routing-relevant state can change abruptly (an
	// unplug event).
	PowerStaleAfter time.Duration `yaml:"power_stale_after"`

	// MaxEntries caps the cache; inserting past the cap evicts the
	// entry with the oldest receipt time.
	MaxEntries int `yaml:"max_entries"`
}

// DefaultCacheConfig returns the standard staleness windows.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		DefaultStaleAfter: 60 * time.Second,
		PowerStaleAfter:   30 * time.Second,
		MaxEntries:        256,
	}
}

type cacheEntry struct {
	factors    types.NodeCostFactors
	receivedAt time.Time
}

// Cache is the node-keyed store of remote cost snapshots. It is written
// by the message-receive path, read on every routing decision and
// swept by a periodic prune task; one mutex serializes all three.
//
// The cache does not self-prune: PruneStale must be driven by an
// external scheduler.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry

	cfg     CacheConfig
	logger  *zap.Logger
	metrics *metrics.Collector
	now     func() time.Time
}

// NewCache creates an empty cost cache. metrics may be nil.
func NewCache(cfg CacheConfig, logger *zap.Logger, collector *metrics.Collector) *Cache {
	if cfg.DefaultStaleAfter <= 0 {
		cfg.DefaultStaleAfter = DefaultCacheConfig().DefaultStaleAfter
	}
	if cfg.PowerStaleAfter <= 0 {
		cfg.PowerStaleAfter = DefaultCacheConfig().PowerStaleAfter
	}
	return &Cache{
		entries: make(map[string]cacheEntry),
		cfg:     cfg,
		logger:  logger.With(zap.String("component", "gossip_cache")),
		metrics: collector,
		now:     time.Now,
	}
}

// WithClock overrides the cache's time source. Tests use this to age
// entries deterministically.
func (c *Cache) WithClock(now func() time.Time) *Cache {
	c.now = now
	return c
}

// HandleCostUpdate validates and stores a raw inbound gossip payload.
// Malformed input is dropped silently — logged and counted, but no
// error surfaces and no state changes. On success the parsed snapshot
// is returned.
func (c *Cache) HandleCostUpdate(raw []byte) *types.NodeCostFactors {
	env, err := DecodeCostUpdate(raw)
	if err != nil {
		c.logger.Debug("dropping malformed cost update", zap.Error(err))
		c.metrics.RecordUpdateDropped("malformed")
		return nil
	}
	return c.HandleEnvelope(env)
}

// HandleEnvelope stores a decoded cost update. A snapshot whose event
// timestamp is not newer than the one already cached for that node is
// dropped: gossip is unordered, and a late-arriving older snapshot must
// not shadow a fresher one.
func (c *Cache) HandleEnvelope(env *Envelope) *types.NodeCostFactors {
	if err := env.Validate(); err != nil {
		c.logger.Debug("dropping invalid cost update", zap.Error(err))
		c.metrics.RecordUpdateDropped("malformed")
		return nil
	}
	factors := env.NodeFactors()

	c.mu.Lock()
	defer c.mu.Unlock()

	if prev, ok := c.entries[factors.NodeID]; ok {
		if !prev.factors.Timestamp.IsZero() && !factors.Timestamp.After(prev.factors.Timestamp) {
			c.metrics.RecordUpdateDropped("out_of_order")
			c.logger.Debug("dropping out-of-order cost update",
				zap.String("node_id", factors.NodeID),
				zap.Time("cached", prev.factors.Timestamp),
				zap.Time("received", factors.Timestamp))
			return nil
		}
	} else if c.cfg.MaxEntries > 0 && len(c.entries) >= c.cfg.MaxEntries {
		c.evictOldestLocked()
	}

	c.entries[factors.NodeID] = cacheEntry{factors: factors, receivedAt: c.now()}
	c.metrics.SetCacheEntries(len(c.entries))
	c.logger.Debug("cost update stored",
		zap.String("node_id", factors.NodeID),
		zap.Bool("on_battery", factors.OnBattery),
		zap.Float64("cpu_load", factors.CPULoad))
	return &factors
}

// evictOldestLocked drops the entry with the oldest receipt time.
func (c *Cache) evictOldestLocked() {
	var victim string
	var oldest time.Time
	for id, e := range c.entries {
		if victim == "" || e.receivedAt.Before(oldest) {
			victim, oldest = id, e.receivedAt
		}
	}
	if victim != "" {
		delete(c.entries, victim)
		c.metrics.RecordCacheEviction("capacity", 1)
		c.logger.Debug("cache full, evicted oldest entry", zap.String("node_id", victim))
	}
}

// NodeCost returns the cached snapshot for nodeID, or nil when the node
// is unknown or its snapshot has aged past the applicable threshold:
// PowerStaleAfter for on-battery nodes, DefaultStaleAfter otherwise.
func (c *Cache) NodeCost(nodeID string) *types.NodeCostFactors {
	c.mu.RLock()
	entry, ok := c.entries[nodeID]
	c.mu.RUnlock()

	if !ok {
		c.metrics.RecordCacheLookup("miss")
		return nil
	}
	if c.stale(entry) {
		c.metrics.RecordCacheLookup("stale")
		return nil
	}
	c.metrics.RecordCacheLookup("hit")
	factors := entry.factors
	return &factors
}

// FreshCosts returns every cached snapshot that passes its staleness
// threshold, independent of any candidate set.
func (c *Cache) FreshCosts() []types.NodeCostFactors {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]types.NodeCostFactors, 0, len(c.entries))
	for _, entry := range c.entries {
		if !c.stale(entry) {
			out = append(out, entry.factors)
		}
	}
	return out
}

func (c *Cache) stale(entry cacheEntry) bool {
	threshold := c.cfg.DefaultStaleAfter
	if entry.factors.OnBattery {
		threshold = c.cfg.PowerStaleAfter
	}
	return c.now().Sub(entry.receivedAt) > threshold
}

// PruneStale removes entries older than twice the default staleness
// window, regardless of battery state, and returns how many went.
func (c *Cache) PruneStale() int {
	cutoff := c.now().Add(-2 * c.cfg.DefaultStaleAfter)

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for id, entry := range c.entries {
		if entry.receivedAt.Before(cutoff) {
			delete(c.entries, id)
			removed++
		}
	}
	c.metrics.RecordPruneRun()
	c.metrics.RecordCacheEviction("pruned", removed)
	c.metrics.SetCacheEntries(len(c.entries))
	if removed > 0 {
		c.logger.Info("pruned stale cost entries", zap.Int("removed", removed))
	}
	return removed
}

// Len returns the current entry count, stale entries included.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
