package routing

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/llama-farm/atmosphere-sub001/cost"
	"github.com/llama-farm/atmosphere-sub001/gossip"
	"github.com/llama-farm/atmosphere-sub001/internal/metrics"
	"github.com/llama-farm/atmosphere-sub001/types"
)

// SelectorConfig tunes node selection.
type SelectorConfig struct {
	// LocalNodeID identifies this node; when it appears among the
	// candidates its cost comes from a live collection instead of the
	// gossip cache.
	LocalNodeID string `yaml:"local_node_id"`

	// MinCostDifference is the hysteresis margin: a new best candidate
	// must beat the sticky choice by more than this to displace it.
	MinCostDifference float64 `yaml:"min_cost_difference"`

	// BudgetSensitivity is the default exponent applied to the
	// combined cost multiplier; see cost.ComputeNodeCost.
	BudgetSensitivity float64 `yaml:"budget_sensitivity"`

	// StickyTableSize caps the work-key → node continuity table.
	StickyTableSize int `yaml:"sticky_table_size"`
}

// DefaultSelectorConfig returns the standard selection tuning.
func DefaultSelectorConfig() SelectorConfig {
	return SelectorConfig{
		MinCostDifference: 0.2,
		BudgetSensitivity: 1.0,
		StickyTableSize:   1024,
	}
}

// Selector picks the cheapest capable node for a unit of work. It is
// stateless per call except for the sticky-routing table; every
// decision is made from whatever snapshots are available right now, so
// it self-heals as stale entries age out or candidate sets change.
type Selector struct {
	cfg     SelectorConfig
	source  SnapshotSource
	cache   *gossip.Cache
	sticky  *stickyTable
	group   singleflight.Group
	logger  *zap.Logger
	metrics *metrics.Collector
}

// NewSelector wires the selector to its local snapshot source and the
// gossip cache. metrics may be nil.
func NewSelector(cfg SelectorConfig, source SnapshotSource, cache *gossip.Cache, logger *zap.Logger, collector *metrics.Collector) *Selector {
	def := DefaultSelectorConfig()
	if cfg.MinCostDifference <= 0 {
		cfg.MinCostDifference = def.MinCostDifference
	}
	if cfg.BudgetSensitivity <= 0 {
		cfg.BudgetSensitivity = def.BudgetSensitivity
	}
	if cfg.StickyTableSize <= 0 {
		cfg.StickyTableSize = def.StickyTableSize
	}
	return &Selector{
		cfg:     cfg,
		source:  source,
		cache:   cache,
		sticky:  newStickyTable(cfg.StickyTableSize),
		logger:  logger.With(zap.String("component", "node_selector")),
		metrics: collector,
	}
}

// RouteToNode picks a destination among candidates for the given work.
// budgetSensitivity overrides the configured default when positive.
//
// Candidates without a usable snapshot (unknown or stale) are dropped
// from costing; if none remain the first candidate is selected anyway
// with a reason noting the absence of cost data. Only an empty
// candidate set is a failure.
func (s *Selector) RouteToNode(ctx context.Context, candidates []string, work types.WorkRequest, workKey string, budgetSensitivity float64) types.RouteResult {
	start := time.Now()

	if len(candidates) == 0 {
		s.metrics.RecordRouteDecision("no_candidates", 0, time.Since(start))
		return types.RouteResult{Success: false, Reason: "no candidates"}
	}
	if budgetSensitivity <= 0 {
		budgetSensitivity = s.cfg.BudgetSensitivity
	}

	scored := s.costCandidates(ctx, candidates, work, budgetSensitivity)

	if len(scored) == 0 {
		s.metrics.RecordRouteDecision("fallback", 0, time.Since(start))
		s.logger.Warn("no cost data for any candidate, falling back to first",
			zap.Strings("candidates", candidates),
			zap.String("work_key", workKey))
		return types.RouteResult{
			Success:      true,
			SelectedNode: candidates[0],
			CostScore:    1.0,
			Reason:       fmt.Sprintf("no cost data available for any of %d candidates; defaulting to %s", len(candidates), candidates[0]),
		}
	}

	sort.Slice(scored, func(i, j int) bool { return scored[i].Cost < scored[j].Cost })
	best := scored[0]

	selected := best
	stickyKept := false
	if prev, ok := s.sticky.Get(workKey); ok && prev != best.NodeID {
		if prevCost, ok := findCandidate(scored, prev); ok &&
			prevCost.Cost-best.Cost <= s.cfg.MinCostDifference {
			selected = prevCost
			stickyKept = true
			s.metrics.RecordStickyHit()
		}
	}
	s.sticky.Put(workKey, selected.NodeID)

	outcome := "selected"
	if stickyKept {
		outcome = "sticky"
	}
	s.metrics.RecordRouteDecision(outcome, len(scored), time.Since(start))

	reason := buildReason(selected, best, scored, stickyKept)
	s.logger.Debug("node selected",
		zap.String("work_key", workKey),
		zap.String("node_id", selected.NodeID),
		zap.Float64("cost", selected.Cost),
		zap.Bool("sticky", stickyKept),
		zap.Int("candidates_with_cost", len(scored)))

	return types.RouteResult{
		Success:       true,
		SelectedNode:  selected.NodeID,
		CostScore:     selected.Cost,
		Reason:        reason,
		CostBreakdown: scored,
	}
}

// costCandidates gathers a snapshot per candidate and runs the cost
// model. Candidates without usable data drop out here.
func (s *Selector) costCandidates(ctx context.Context, candidates []string, work types.WorkRequest, budgetSensitivity float64) []types.CandidateCost {
	scored := make([]types.CandidateCost, 0, len(candidates))
	for _, nodeID := range candidates {
		var factors *types.NodeCostFactors
		local := nodeID != "" && nodeID == s.cfg.LocalNodeID
		if local {
			factors = s.collectLocal(ctx)
		} else {
			factors = s.cache.NodeCost(nodeID)
		}
		if factors == nil {
			continue
		}
		c := cost.Breakdown(*factors, work, budgetSensitivity)
		c.NodeID = nodeID
		c.Local = local
		scored = append(scored, c)
	}
	return scored
}

// collectLocal fetches a live local snapshot. Collection may block on
// platform calls, so concurrent routing decisions share one flight.
func (s *Selector) collectLocal(ctx context.Context) *types.NodeCostFactors {
	if s.source == nil {
		return nil
	}
	v, err, _ := s.group.Do("local_snapshot", func() (interface{}, error) {
		f, err := s.source.Collect(ctx)
		if err != nil {
			return nil, err
		}
		return f.Normalize(), nil
	})
	if err != nil {
		s.logger.Warn("local snapshot collection failed", zap.Error(err))
		return nil
	}
	f := v.(types.NodeCostFactors)
	return &f
}

// StickyKeys returns how many work keys currently have a sticky node.
func (s *Selector) StickyKeys() int {
	return s.sticky.Len()
}

func findCandidate(scored []types.CandidateCost, nodeID string) (types.CandidateCost, bool) {
	for _, c := range scored {
		if c.NodeID == nodeID {
			return c, true
		}
	}
	return types.CandidateCost{}, false
}

// buildReason renders a human-readable justification listing the top-3
// cheapest candidates.
func buildReason(selected, best types.CandidateCost, scored []types.CandidateCost, stickyKept bool) string {
	var sb strings.Builder
	if stickyKept {
		fmt.Fprintf(&sb, "kept %s (cost %.2f) over %s (cost %.2f) within hysteresis margin",
			selected.NodeID, selected.Cost, best.NodeID, best.Cost)
	} else {
		fmt.Fprintf(&sb, "selected %s (cost %.2f)", selected.NodeID, selected.Cost)
	}
	sb.WriteString("; top candidates: ")
	top := scored
	if len(top) > 3 {
		top = top[:3]
	}
	parts := make([]string, 0, len(top))
	for _, c := range top {
		parts = append(parts, fmt.Sprintf("%s=%.2f", c.NodeID, c.Cost))
	}
	sb.WriteString(strings.Join(parts, ", "))
	return sb.String()
}
