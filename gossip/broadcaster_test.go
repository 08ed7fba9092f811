package gossip

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/llama-farm/atmosphere-sub001/testutil"
	"github.com/llama-farm/atmosphere-sub001/types"
)

func newTestBroadcaster(t *testing.T) (*Broadcaster, *testutil.FakeTransport, *testutil.Clock) {
	t.Helper()
	transport := testutil.NewFakeTransport()
	clk := testutil.NewClock(time.Unix(1700000000, 0))
	b, err := NewBroadcaster(DefaultBroadcasterConfig(), transport, zap.NewNop(), nil)
	require.NoError(t, err)
	return b.WithClock(clk.Now), transport, clk
}

func localFactors() types.NodeCostFactors {
	return types.NodeCostFactors{
		NodeID:         "local",
		OnBattery:      false,
		BatteryPercent: 90,
		CPULoad:        0.3,
		MemoryPercent:  50,
	}
}

func TestNewBroadcaster_RejectsNilTransport(t *testing.T) {
	_, err := NewBroadcaster(DefaultBroadcasterConfig(), nil, zap.NewNop(), nil)
	assert.ErrorIs(t, err, ErrNoTransport)
}

func TestBroadcaster_ColdStartAlwaysAnnounces(t *testing.T) {
	b, _, _ := newTestBroadcaster(t)
	should, trigger := b.ShouldBroadcast(localFactors())
	assert.True(t, should)
	assert.Equal(t, "first", trigger)
}

func TestBroadcaster_HeartbeatInterval(t *testing.T) {
	b, transport, clk := newTestBroadcaster(t)
	ctx := context.Background()

	sent, err := b.MaybeBroadcast(ctx, localFactors())
	require.NoError(t, err)
	assert.True(t, sent)

	// Unchanged state inside the interval stays quiet.
	clk.Advance(29 * time.Second)
	sent, err = b.MaybeBroadcast(ctx, localFactors())
	require.NoError(t, err)
	assert.False(t, sent)

	// The heartbeat fires once the interval has elapsed.
	clk.Advance(time.Second)
	sent, err = b.MaybeBroadcast(ctx, localFactors())
	require.NoError(t, err)
	assert.True(t, sent)

	assert.Len(t, transport.Sent(), 2)
}

func TestBroadcaster_ChangeTriggers(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*types.NodeCostFactors)
		trigger string
		want    bool
	}{
		{"battery flip", func(f *types.NodeCostFactors) { f.OnBattery = true }, "power", true},
		{"metered flip", func(f *types.NodeCostFactors) { f.IsMetered = true }, "metered", true},
		{"battery drop beyond threshold", func(f *types.NodeCostFactors) { f.BatteryPercent = 79 }, "battery", true},
		{"battery drop within threshold", func(f *types.NodeCostFactors) { f.BatteryPercent = 80 }, "", false},
		{"cpu spike beyond threshold", func(f *types.NodeCostFactors) { f.CPULoad = 0.6 }, "cpu", true},
		{"cpu spike within threshold", func(f *types.NodeCostFactors) { f.CPULoad = 0.45 }, "", false},
		{"no change", func(*types.NodeCostFactors) {}, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, _, clk := newTestBroadcaster(t)
			sent, err := b.MaybeBroadcast(context.Background(), localFactors())
			require.NoError(t, err)
			require.True(t, sent)
			clk.Advance(time.Second) // well inside the heartbeat interval

			current := localFactors()
			tt.mutate(&current)
			should, trigger := b.ShouldBroadcast(current)
			assert.Equal(t, tt.want, should)
			assert.Equal(t, tt.trigger, trigger)
		})
	}
}

func TestBroadcaster_SuppressedCallDoesNotAdvanceBookkeeping(t *testing.T) {
	b, transport, clk := newTestBroadcaster(t)
	ctx := context.Background()

	_, err := b.MaybeBroadcast(ctx, localFactors())
	require.NoError(t, err)

	// Drift battery down 6% at a time: each step is inside the
	// threshold against the last *broadcast* state, until the
	// cumulative delta crosses it.
	current := localFactors()
	clk.Advance(time.Second)
	current.BatteryPercent -= 6
	sent, err := b.MaybeBroadcast(ctx, current)
	require.NoError(t, err)
	assert.False(t, sent)

	clk.Advance(time.Second)
	current.BatteryPercent -= 6 // now 12 below the broadcast state
	sent, err = b.MaybeBroadcast(ctx, current)
	require.NoError(t, err)
	assert.True(t, sent, "cumulative delta measured against last broadcast, not last call")
	assert.Len(t, transport.Sent(), 2)
}

func TestBroadcaster_SendFailureStillAdvancesState(t *testing.T) {
	transport := testutil.NewFakeTransport()
	clk := testutil.NewClock(time.Unix(1700000000, 0))
	b, err := NewBroadcaster(DefaultBroadcasterConfig(), transport, zap.NewNop(), nil)
	require.NoError(t, err)
	b.WithClock(clk.Now)

	transport.Err = errors.New("mesh unreachable")
	sent, err := b.MaybeBroadcast(context.Background(), localFactors())
	assert.False(t, sent)
	assert.Error(t, err)

	// The policy tracked the attempt: the same state does not
	// re-trigger a change announce.
	clk.Advance(time.Second)
	should, trigger := b.ShouldBroadcast(localFactors())
	assert.False(t, should, "trigger %q", trigger)
}

func TestBroadcaster_PayloadRoundTripsThroughCache(t *testing.T) {
	b, transport, _ := newTestBroadcaster(t)

	sent, err := b.MaybeBroadcast(context.Background(), localFactors())
	require.NoError(t, err)
	require.True(t, sent)

	payloads := transport.Sent()
	require.Len(t, payloads, 1)

	cache := NewCache(DefaultCacheConfig(), zap.NewNop(), nil)
	got := cache.HandleCostUpdate(payloads[0])
	require.NotNil(t, got)
	assert.Equal(t, "local", got.NodeID)
	assert.Equal(t, 0.3, got.CPULoad)
	assert.NotNil(t, cache.NodeCost("local"))
}
