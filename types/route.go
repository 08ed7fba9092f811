package types

// CandidateCost is the per-candidate slice of a routing decision,
// kept for observability: the final cost, its three sub-multipliers,
// and the raw snapshot they were computed from.
type CandidateCost struct {
	NodeID  string          `json:"node_id"`
	Cost    float64         `json:"cost"`
	Power   float64         `json:"power_multiplier"`
	Compute float64         `json:"compute_multiplier"`
	Network float64         `json:"network_multiplier"`
	Local   bool            `json:"local"`
	Factors NodeCostFactors `json:"factors"`
}

// RouteResult is the outcome of a node-selection call. Selection never
// panics or errors on recoverable conditions: degraded decisions come
// back as Success=true with an explanatory Reason, and only an empty
// candidate set yields Success=false.
type RouteResult struct {
	Success       bool            `json:"success"`
	SelectedNode  string          `json:"selected_node,omitempty"`
	CostScore     float64         `json:"cost_score"`
	Reason        string          `json:"reason"`
	CostBreakdown []CandidateCost `json:"cost_breakdown,omitempty"`

	// Project is filled by the integrated router with whatever the
	// capability router resolved; empty for direct node selection.
	Project string `json:"project,omitempty"`
}
