package cost

import (
	"math"

	"github.com/llama-farm/atmosphere-sub001/types"
)

// Multiplier constants for the metered-network override and the tier
// tables below. The tiers are part of the mesh-wide contract: every
// node must score identically from identical snapshots, so these are
// not configurable.
const meteredMultiplier = 3.0

// PowerMultiplier scores the power dimension. Wall power is free;
// battery cost scales with how close the node is to dying.
func PowerMultiplier(onBattery bool, batteryPercent float64) float64 {
	if !onBattery {
		return 1.0
	}
	switch {
	case batteryPercent > 50:
		return 2.0
	case batteryPercent >= 20:
		return 3.0
	default:
		return 5.0
	}
}

// ComputeLoadMultiplier scores the compute dimension as the product of
// independent CPU, GPU and memory tiers. GPU load only matters for
// GPU-bound work types; for general and rag work it contributes 1.0
// regardless of the actual load.
func ComputeLoadMultiplier(cpuLoad, gpuLoad, memoryPercent float64, workType types.WorkType) float64 {
	return cpuTier(cpuLoad) * gpuTier(gpuLoad, workType) * memTier(memoryPercent)
}

// cpuTier takes the load average normalized to core count. Input is
// uncapped; the multiplier tops out at 2.0.
func cpuTier(cpuLoad float64) float64 {
	switch {
	case cpuLoad <= 0.25:
		return 1.0
	case cpuLoad <= 0.50:
		return 1.3
	case cpuLoad <= 0.75:
		return 1.6
	default:
		return 2.0
	}
}

func gpuTier(gpuLoad float64, workType types.WorkType) float64 {
	if !workType.GPUBound() {
		return 1.0
	}
	switch {
	case gpuLoad <= 25:
		return 1.0
	case gpuLoad <= 50:
		return 1.5
	default:
		return 2.0
	}
}

func memTier(memoryPercent float64) float64 {
	switch {
	case memoryPercent <= 80:
		return 1.0
	case memoryPercent <= 90:
		return 1.5
	default:
		return 2.5
	}
}

// NetworkMultiplier scores the network dimension. A metered connection
// overrides bandwidth entirely — shipping tokens over someone's phone
// plan is expensive no matter how fast it is. Unknown bandwidth is
// assumed fine rather than penalized.
func NetworkMultiplier(bandwidthMbps *float64, isMetered bool) float64 {
	if isMetered {
		return meteredMultiplier
	}
	if bandwidthMbps == nil {
		return 1.0
	}
	switch bw := *bandwidthMbps; {
	case bw >= 100:
		return 1.0
	case bw >= 10:
		return 1.2
	case bw >= 1:
		return 2.0
	default:
		return 5.0
	}
}

// ComputeNodeCost combines the three independent dimensions into one
// scalar: power × compute × network, then raised to budgetSensitivity.
//
// The exponent is the budget knob: 1.0 (the default) leaves the raw
// product untouched, values above 1 sharpen the differences between
// nodes so the selector avoids expensive machines more aggressively,
// values in (0,1) flatten them. The transform is strictly monotonic in
// the underlying product, so the relative ordering of candidates never
// changes — only the hysteresis margin's bite does. Non-positive
// sensitivity is treated as the default.
func ComputeNodeCost(f types.NodeCostFactors, work types.WorkRequest, budgetSensitivity float64) float64 {
	base := PowerMultiplier(f.OnBattery, f.BatteryPercent) *
		ComputeLoadMultiplier(f.CPULoad, f.GPULoad, f.MemoryPercent, work.WorkType) *
		NetworkMultiplier(f.BandwidthMbps, f.IsMetered)
	if budgetSensitivity <= 0 || budgetSensitivity == 1.0 {
		return base
	}
	return math.Pow(base, budgetSensitivity)
}

// Breakdown computes the full per-dimension decomposition for one
// candidate, for reason strings and the cost breakdown in results.
func Breakdown(f types.NodeCostFactors, work types.WorkRequest, budgetSensitivity float64) types.CandidateCost {
	return types.CandidateCost{
		NodeID:  f.NodeID,
		Cost:    ComputeNodeCost(f, work, budgetSensitivity),
		Power:   PowerMultiplier(f.OnBattery, f.BatteryPercent),
		Compute: ComputeLoadMultiplier(f.CPULoad, f.GPULoad, f.MemoryPercent, work.WorkType),
		Network: NetworkMultiplier(f.BandwidthMbps, f.IsMetered),
		Factors: f,
	}
}
