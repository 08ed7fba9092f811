package gossip

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/llama-farm/atmosphere-sub001/internal/metrics"
	"github.com/llama-farm/atmosphere-sub001/types"
)

// ErrNoTransport is returned when a Broadcaster is built without a
// transport. Silently advancing broadcast state with nothing on the
// other end hides a wiring mistake, so it is rejected up front.
var ErrNoTransport = errors.New("gossip: broadcaster requires a transport")

// BroadcasterConfig tunes the announce policy.
type BroadcasterConfig struct {
	// Interval is the regular heartbeat: announce at least this often.
	Interval time.Duration `yaml:"interval"`

	// BatteryDelta is the battery-percent change that triggers an
	// immediate announce.
	BatteryDelta float64 `yaml:"battery_delta"`

	// CPUDelta is the normalized-cpu-load change that triggers an
	// immediate announce.
	CPUDelta float64 `yaml:"cpu_delta"`
}

// DefaultBroadcasterConfig returns the standard announce policy.
func DefaultBroadcasterConfig() BroadcasterConfig {
	return BroadcasterConfig{
		Interval:     30 * time.Second,
		BatteryDelta: 10,
		CPUDelta:     0.20,
	}
}

// Broadcaster decides when the local node's cost snapshot should go out
// to the mesh. Change-detection triggers are layered on the heartbeat
// so power and metered-network transitions propagate immediately
// instead of waiting out the interval.
type Broadcaster struct {
	mu        sync.Mutex
	last      *types.NodeCostFactors
	lastAt    time.Time
	cfg       BroadcasterConfig
	transport Transport
	logger    *zap.Logger
	metrics   *metrics.Collector
	now       func() time.Time
}

// NewBroadcaster creates the announce policy bound to a transport.
// A nil transport is a configuration error.
func NewBroadcaster(cfg BroadcasterConfig, transport Transport, logger *zap.Logger, collector *metrics.Collector) (*Broadcaster, error) {
	if transport == nil {
		return nil, ErrNoTransport
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultBroadcasterConfig().Interval
	}
	if cfg.BatteryDelta <= 0 {
		cfg.BatteryDelta = DefaultBroadcasterConfig().BatteryDelta
	}
	if cfg.CPUDelta <= 0 {
		cfg.CPUDelta = DefaultBroadcasterConfig().CPUDelta
	}
	return &Broadcaster{
		cfg:       cfg,
		transport: transport,
		logger:    logger.With(zap.String("component", "cost_broadcaster")),
		metrics:   collector,
		now:       time.Now,
	}, nil
}

// WithClock overrides the broadcaster's time source, for tests.
func (b *Broadcaster) WithClock(now func() time.Time) *Broadcaster {
	b.now = now
	return b
}

// ShouldBroadcast reports whether current warrants an announce, with
// the trigger that fired. The cold start always announces.
func (b *Broadcaster) ShouldBroadcast(current types.NodeCostFactors) (bool, string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.shouldBroadcastLocked(current)
}

func (b *Broadcaster) shouldBroadcastLocked(current types.NodeCostFactors) (bool, string) {
	if b.last == nil {
		return true, "first"
	}
	if current.OnBattery != b.last.OnBattery {
		return true, "power"
	}
	if current.IsMetered != b.last.IsMetered {
		return true, "metered"
	}
	if abs(current.BatteryPercent-b.last.BatteryPercent) > b.cfg.BatteryDelta {
		return true, "battery"
	}
	if abs(current.CPULoad-b.last.CPULoad) > b.cfg.CPUDelta {
		return true, "cpu"
	}
	if b.now().Sub(b.lastAt) >= b.cfg.Interval {
		return true, "heartbeat"
	}
	return false, ""
}

// MaybeBroadcast announces current if the policy says so and reports
// whether it did. Bookkeeping advances before the send, so a transport
// failure does not rebroadcast the same delta forever: the send is
// fire-and-forget and the next trigger will carry fresher state anyway.
func (b *Broadcaster) MaybeBroadcast(ctx context.Context, current types.NodeCostFactors) (bool, error) {
	current = current.Normalize()

	b.mu.Lock()
	should, trigger := b.shouldBroadcastLocked(current)
	if !should {
		b.mu.Unlock()
		b.metrics.RecordBroadcast("suppressed")
		return false, nil
	}
	b.last = &current
	b.lastAt = b.now()
	b.mu.Unlock()

	b.metrics.RecordBroadcast(trigger)

	payload, err := NewCostUpdate(current).Encode()
	if err != nil {
		return false, fmt.Errorf("gossip: encode cost update: %w", err)
	}
	if err := b.transport.Broadcast(ctx, payload); err != nil {
		b.logger.Warn("cost broadcast failed",
			zap.String("trigger", trigger),
			zap.Error(err))
		return false, fmt.Errorf("gossip: broadcast cost update: %w", err)
	}

	b.logger.Debug("cost snapshot broadcast",
		zap.String("node_id", current.NodeID),
		zap.String("trigger", trigger),
		zap.Bool("on_battery", current.OnBattery),
		zap.Float64("cpu_load", current.CPULoad))
	return true, nil
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
