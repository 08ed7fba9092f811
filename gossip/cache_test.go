package gossip

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/llama-farm/atmosphere-sub001/testutil"
	"github.com/llama-farm/atmosphere-sub001/types"
)

func newTestCache(t *testing.T, cfg CacheConfig) (*Cache, *testutil.Clock) {
	t.Helper()
	clk := testutil.NewClock(time.Unix(1700000000, 0))
	return NewCache(cfg, zap.NewNop(), nil).WithClock(clk.Now), clk
}

func update(nodeID string, ts time.Time, onBattery bool) []byte {
	raw, err := NewCostUpdate(types.NodeCostFactors{
		NodeID:         nodeID,
		Timestamp:      ts,
		OnBattery:      onBattery,
		BatteryPercent: 75,
		CPULoad:        0.3,
		MemoryPercent:  40,
	}).Encode()
	if err != nil {
		panic(err)
	}
	return raw
}

func TestCache_HandleCostUpdate_StoresSnapshot(t *testing.T) {
	cache, clk := newTestCache(t, DefaultCacheConfig())

	got := cache.HandleCostUpdate(update("n1", clk.Now(), false))
	require.NotNil(t, got)
	assert.Equal(t, "n1", got.NodeID)
	assert.Equal(t, 1, cache.Len())

	cached := cache.NodeCost("n1")
	require.NotNil(t, cached)
	assert.Equal(t, 0.3, cached.CPULoad)
}

func TestCache_HandleCostUpdate_DropsMalformedSilently(t *testing.T) {
	cache, _ := newTestCache(t, DefaultCacheConfig())

	tests := []struct {
		name string
		raw  []byte
	}{
		{"garbage", []byte("not json at all")},
		{"wrong type", []byte(`{"type":"PEER_LEAVE","node_id":"n1"}`)},
		{"missing node id", []byte(`{"type":"NODE_COST_UPDATE","cost_factors":{}}`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Nil(t, cache.HandleCostUpdate(tt.raw))
			assert.Equal(t, 0, cache.Len())
		})
	}
}

func TestCache_NodeCost_StalenessThresholds(t *testing.T) {
	// An on-battery entry is distrusted after 30s; a plugged-in entry
	// survives until 60s.
	cache, clk := newTestCache(t, DefaultCacheConfig())

	require.NotNil(t, cache.HandleCostUpdate(update("battery", clk.Now(), true)))
	require.NotNil(t, cache.HandleCostUpdate(update("plugged", clk.Now(), false)))

	clk.Advance(29 * time.Second)
	assert.NotNil(t, cache.NodeCost("battery"))
	assert.NotNil(t, cache.NodeCost("plugged"))

	clk.Advance(2 * time.Second) // age 31s
	assert.Nil(t, cache.NodeCost("battery"))
	assert.NotNil(t, cache.NodeCost("plugged"))

	clk.Advance(30 * time.Second) // age 61s
	assert.Nil(t, cache.NodeCost("plugged"))
}

func TestCache_NodeCost_UnknownNode(t *testing.T) {
	cache, _ := newTestCache(t, DefaultCacheConfig())
	assert.Nil(t, cache.NodeCost("nobody"))
}

func TestCache_DropsOutOfOrderUpdate(t *testing.T) {
	// Gossip is unordered: a late-arriving older snapshot must not
	// replace a fresher one.
	cache, clk := newTestCache(t, DefaultCacheConfig())

	fresh := clk.Now()
	older := fresh.Add(-10 * time.Second)

	require.NotNil(t, cache.HandleCostUpdate(update("n1", fresh, true)))
	assert.Nil(t, cache.HandleCostUpdate(update("n1", older, false)))

	cached := cache.NodeCost("n1")
	require.NotNil(t, cached)
	assert.True(t, cached.OnBattery, "older update must not shadow the fresher snapshot")
}

func TestCache_NewerUpdateReplaces(t *testing.T) {
	cache, clk := newTestCache(t, DefaultCacheConfig())

	require.NotNil(t, cache.HandleCostUpdate(update("n1", clk.Now(), true)))
	clk.Advance(time.Second)
	require.NotNil(t, cache.HandleCostUpdate(update("n1", clk.Now(), false)))

	cached := cache.NodeCost("n1")
	require.NotNil(t, cached)
	assert.False(t, cached.OnBattery)
	assert.Equal(t, 1, cache.Len())
}

func TestCache_FreshCosts(t *testing.T) {
	cache, clk := newTestCache(t, DefaultCacheConfig())

	require.NotNil(t, cache.HandleCostUpdate(update("battery", clk.Now(), true)))
	require.NotNil(t, cache.HandleCostUpdate(update("plugged", clk.Now(), false)))

	assert.Len(t, cache.FreshCosts(), 2)

	clk.Advance(31 * time.Second)
	fresh := cache.FreshCosts()
	require.Len(t, fresh, 1)
	assert.Equal(t, "plugged", fresh[0].NodeID)
}

func TestCache_PruneStale(t *testing.T) {
	cache, clk := newTestCache(t, DefaultCacheConfig())

	require.NotNil(t, cache.HandleCostUpdate(update("old", clk.Now(), false)))
	clk.Advance(121 * time.Second) // past 2 × default threshold
	require.NotNil(t, cache.HandleCostUpdate(update("new", clk.Now(), false)))

	assert.Equal(t, 1, cache.PruneStale())
	assert.Equal(t, 1, cache.Len())
	assert.Nil(t, cache.NodeCost("old"))
	assert.NotNil(t, cache.NodeCost("new"))

	// Nothing left to prune.
	assert.Equal(t, 0, cache.PruneStale())
}

func TestCache_CapacityEvictsOldestReceipt(t *testing.T) {
	cfg := DefaultCacheConfig()
	cfg.MaxEntries = 3
	cache, clk := newTestCache(t, cfg)

	for i := 0; i < 3; i++ {
		require.NotNil(t, cache.HandleCostUpdate(update(fmt.Sprintf("n%d", i), clk.Now(), false)))
		clk.Advance(time.Second)
	}
	require.Equal(t, 3, cache.Len())

	require.NotNil(t, cache.HandleCostUpdate(update("n3", clk.Now(), false)))
	assert.Equal(t, 3, cache.Len())
	assert.Nil(t, cache.NodeCost("n0"), "oldest receipt evicted")
	assert.NotNil(t, cache.NodeCost("n3"))
}
