package types

import "time"

// NodeCostFactors is an immutable point-in-time snapshot of the machine
// state that feeds the cost model. A snapshot is created once — by the
// local collector or by decoding a gossip message — and superseded by a
// newer snapshot, never mutated.
type NodeCostFactors struct {
	NodeID    string    `json:"node_id"`
	Timestamp time.Time `json:"timestamp"`

	// Power state.
	OnBattery      bool    `json:"on_battery"`
	BatteryPercent float64 `json:"battery_percent"` // 0..100
	PluggedIn      bool    `json:"plugged_in"`

	// Compute state.
	CPULoad           float64 `json:"cpu_load"` // load average normalized to core count
	GPULoad           float64 `json:"gpu_load"` // 0..100
	GPUEstimated      bool    `json:"gpu_estimated"`
	MemoryPercent     float64 `json:"memory_percent"` // 0..100
	MemoryAvailableGB float64 `json:"memory_available_gb"`

	// Network state. Bandwidth and latency may be unknown.
	BandwidthMbps *float64 `json:"bandwidth_mbps,omitempty"`
	IsMetered     bool     `json:"is_metered"`
	LatencyMs     *float64 `json:"latency_ms,omitempty"`

	// APIModel is set when the node fronts a remote API instead of
	// local compute. Local-only; not carried over gossip.
	APIModel string `json:"api_model,omitempty"`
}

// Normalize returns a copy with out-of-range numeric fields clamped to
// their documented domains. Collectors are not trusted to clamp, and
// remote snapshots arrive from the network, so this runs at every
// construction boundary.
func (f NodeCostFactors) Normalize() NodeCostFactors {
	f.BatteryPercent = clamp(f.BatteryPercent, 0, 100)
	f.GPULoad = clamp(f.GPULoad, 0, 100)
	f.MemoryPercent = clamp(f.MemoryPercent, 0, 100)
	if f.CPULoad < 0 {
		f.CPULoad = 0
	}
	if f.MemoryAvailableGB < 0 {
		f.MemoryAvailableGB = 0
	}
	if f.BandwidthMbps != nil && *f.BandwidthMbps < 0 {
		zero := 0.0
		f.BandwidthMbps = &zero
	}
	if f.LatencyMs != nil && *f.LatencyMs < 0 {
		zero := 0.0
		f.LatencyMs = &zero
	}
	return f
}

// Bandwidth returns the bandwidth in Mbps and whether it is known.
func (f NodeCostFactors) Bandwidth() (float64, bool) {
	if f.BandwidthMbps == nil {
		return 0, false
	}
	return *f.BandwidthMbps, true
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Float64 returns a pointer to v, for the optional snapshot fields.
func Float64(v float64) *float64 {
	return &v
}
