package gossip

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llama-farm/atmosphere-sub001/types"
)

func sampleFactors() types.NodeCostFactors {
	return types.NodeCostFactors{
		NodeID:            "laptop-1",
		Timestamp:         time.Unix(1700000000, 250_000_000),
		OnBattery:         true,
		BatteryPercent:    42,
		PluggedIn:         false,
		CPULoad:           0.35,
		GPULoad:           12,
		GPUEstimated:      true,
		MemoryPercent:     61,
		MemoryAvailableGB: 9.5,
		BandwidthMbps:     types.Float64(87),
		IsMetered:         true,
		LatencyMs:         types.Float64(14),
		APIModel:          "claude-3",
	}
}

func TestNewCostUpdate_WireShape(t *testing.T) {
	env := NewCostUpdate(sampleFactors())

	assert.Equal(t, MessageTypeCostUpdate, env.Type)
	assert.Equal(t, 1, env.Version)
	assert.Equal(t, "laptop-1", env.NodeID)
	assert.Equal(t, 60, env.TTL)
	assert.NotEmpty(t, env.MessageID)
	assert.InDelta(t, 1700000000.25, env.Timestamp, 1e-6)
	// overall_cost is pre-computed for general work: battery 42% (3.0)
	// × cpu 0.35 (1.3) × metered (3.0).
	assert.InDelta(t, 3.0*1.3*3.0, env.Factors.OverallCost, 1e-9)
}

func TestEnvelope_RoundTrip(t *testing.T) {
	raw, err := NewCostUpdate(sampleFactors()).Encode()
	require.NoError(t, err)

	env, err := DecodeCostUpdate(raw)
	require.NoError(t, err)

	got := env.NodeFactors()
	want := sampleFactors()
	assert.Equal(t, want.NodeID, got.NodeID)
	assert.Equal(t, want.OnBattery, got.OnBattery)
	assert.Equal(t, want.BatteryPercent, got.BatteryPercent)
	assert.Equal(t, want.CPULoad, got.CPULoad)
	assert.Equal(t, want.GPULoad, got.GPULoad)
	assert.Equal(t, want.GPUEstimated, got.GPUEstimated)
	assert.Equal(t, want.MemoryPercent, got.MemoryPercent)
	assert.Equal(t, want.MemoryAvailableGB, got.MemoryAvailableGB)
	require.NotNil(t, got.BandwidthMbps)
	assert.Equal(t, *want.BandwidthMbps, *got.BandwidthMbps)
	assert.Equal(t, want.IsMetered, got.IsMetered)
	assert.WithinDuration(t, want.Timestamp, got.Timestamp, time.Millisecond)

	// latency_ms and api_model are local-only and must not survive the
	// wire.
	assert.Nil(t, got.LatencyMs)
	assert.Empty(t, got.APIModel)
}

func TestEnvelope_WireFieldNames(t *testing.T) {
	raw, err := NewCostUpdate(sampleFactors()).Encode()
	require.NoError(t, err)

	var m map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &m))
	for _, key := range []string{"type", "version", "node_id", "timestamp", "ttl", "cost_factors"} {
		assert.Contains(t, m, key)
	}

	var payload map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(m["cost_factors"], &payload))
	for _, key := range []string{
		"on_battery", "battery_percent", "cpu_load", "gpu_load", "gpu_estimated",
		"memory_percent", "memory_available_gb", "bandwidth_mbps", "is_metered", "overall_cost",
	} {
		assert.Contains(t, payload, key)
	}
	assert.NotContains(t, payload, "latency_ms")
	assert.NotContains(t, payload, "api_model")
}

func TestDecodeCostUpdate_Rejections(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want error
	}{
		{"wrong type tag", `{"type":"NODE_ANNOUNCE","node_id":"n1"}`, ErrWrongMessageType},
		{"missing node id", `{"type":"NODE_COST_UPDATE","cost_factors":{}}`, ErrMissingNodeID},
		{"not json", `{{{`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, err := DecodeCostUpdate([]byte(tt.raw))
			assert.Nil(t, env)
			require.Error(t, err)
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
			}
		})
	}
}

func TestNodeFactors_ClampsRemoteInput(t *testing.T) {
	raw := []byte(`{"type":"NODE_COST_UPDATE","version":1,"node_id":"n1","timestamp":1,
		"ttl":60,"cost_factors":{"on_battery":true,"battery_percent":-5,"cpu_load":-1,
		"gpu_load":400,"memory_percent":120,"memory_available_gb":-2,"is_metered":false}}`)
	env, err := DecodeCostUpdate(raw)
	require.NoError(t, err)

	f := env.NodeFactors()
	assert.Equal(t, 0.0, f.BatteryPercent)
	assert.Equal(t, 0.0, f.CPULoad)
	assert.Equal(t, 100.0, f.GPULoad)
	assert.Equal(t, 100.0, f.MemoryPercent)
	assert.Equal(t, 0.0, f.MemoryAvailableGB)
}
