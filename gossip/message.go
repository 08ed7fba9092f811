package gossip

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/llama-farm/atmosphere-sub001/cost"
	"github.com/llama-farm/atmosphere-sub001/types"
)

// MessageTypeCostUpdate is the wire kind tag for cost snapshots.
const MessageTypeCostUpdate = "NODE_COST_UPDATE"

const (
	wireVersion       = 1
	defaultTTLSeconds = 60
)

var (
	ErrWrongMessageType = errors.New("gossip: not a cost update message")
	ErrMissingNodeID    = errors.New("gossip: cost update missing node_id")
)

// Envelope is the NODE_COST_UPDATE gossip message. The shape is part of
// the mesh wire contract; decoding validates it structurally instead of
// probing for keys.
//
// MessageID is a dedup hook for the transport and not part of the
// contract: decoding tolerates its absence.
type Envelope struct {
	Type      string      `json:"type"`
	Version   int         `json:"version"`
	MessageID string      `json:"message_id,omitempty"`
	NodeID    string      `json:"node_id"`
	Timestamp float64     `json:"timestamp"` // unix seconds, fractional
	TTL       int         `json:"ttl"`
	Factors   CostPayload `json:"cost_factors"`
}

// CostPayload is the over-the-wire subset of types.NodeCostFactors.
// It is deliberately narrower than the full snapshot: latency_ms and
// api_model are local-only and never gossiped. OverallCost is a
// pre-computed general-work cost so receivers can rank cheaply without
// running the full model; it is not authoritative for any specific
// pending work.
type CostPayload struct {
	OnBattery         bool     `json:"on_battery"`
	BatteryPercent    float64  `json:"battery_percent"`
	CPULoad           float64  `json:"cpu_load"`
	GPULoad           float64  `json:"gpu_load"`
	GPUEstimated      bool     `json:"gpu_estimated"`
	MemoryPercent     float64  `json:"memory_percent"`
	MemoryAvailableGB float64  `json:"memory_available_gb"`
	BandwidthMbps     *float64 `json:"bandwidth_mbps"`
	IsMetered         bool     `json:"is_metered"`
	OverallCost       float64  `json:"overall_cost"`
}

// NewCostUpdate builds the wire envelope for a local snapshot.
func NewCostUpdate(f types.NodeCostFactors) *Envelope {
	f = f.Normalize()
	ts := f.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	return &Envelope{
		Type:      MessageTypeCostUpdate,
		Version:   wireVersion,
		MessageID: uuid.NewString(),
		NodeID:    f.NodeID,
		Timestamp: float64(ts.UnixNano()) / float64(time.Second),
		TTL:       defaultTTLSeconds,
		Factors: CostPayload{
			OnBattery:         f.OnBattery,
			BatteryPercent:    f.BatteryPercent,
			CPULoad:           f.CPULoad,
			GPULoad:           f.GPULoad,
			GPUEstimated:      f.GPUEstimated,
			MemoryPercent:     f.MemoryPercent,
			MemoryAvailableGB: f.MemoryAvailableGB,
			BandwidthMbps:     f.BandwidthMbps,
			IsMetered:         f.IsMetered,
			OverallCost:       cost.ComputeNodeCost(f, types.DefaultWorkRequest(), 1.0),
		},
	}
}

// Encode serializes the envelope for the transport.
func (e *Envelope) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// Validate checks the structural contract: the kind tag and node_id.
func (e *Envelope) Validate() error {
	if e.Type != MessageTypeCostUpdate {
		return fmt.Errorf("%w: %q", ErrWrongMessageType, e.Type)
	}
	if e.NodeID == "" {
		return ErrMissingNodeID
	}
	return nil
}

// DecodeCostUpdate parses and validates a raw gossip payload.
func DecodeCostUpdate(raw []byte) (*Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, fmt.Errorf("gossip: unparseable cost update: %w", err)
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return &e, nil
}

// NodeFactors reconstructs the clamped snapshot carried by the
// envelope. Missing optional fields come back as their zero defaults.
func (e *Envelope) NodeFactors() types.NodeCostFactors {
	seconds, frac := math.Modf(e.Timestamp)
	f := types.NodeCostFactors{
		NodeID:            e.NodeID,
		Timestamp:         time.Unix(int64(seconds), int64(frac*float64(time.Second))),
		OnBattery:         e.Factors.OnBattery,
		BatteryPercent:    e.Factors.BatteryPercent,
		CPULoad:           e.Factors.CPULoad,
		GPULoad:           e.Factors.GPULoad,
		GPUEstimated:      e.Factors.GPUEstimated,
		MemoryPercent:     e.Factors.MemoryPercent,
		MemoryAvailableGB: e.Factors.MemoryAvailableGB,
		BandwidthMbps:     e.Factors.BandwidthMbps,
		IsMetered:         e.Factors.IsMetered,
	}
	return f.Normalize()
}
