package routing

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/llama-farm/atmosphere-sub001/tokenizer"
	"github.com/llama-farm/atmosphere-sub001/types"
)

// IntegratedRouter answers "where should this model request run" in two
// phases: the external capability router resolves which project can
// serve the model and which nodes host it, then the Selector picks the
// cheapest of those nodes. The model name is the sticky work key, so
// repeated requests for the same model stay put unless another node
// gets meaningfully cheaper.
type IntegratedRouter struct {
	capability CapabilityRouter
	selector   *Selector
	counter    tokenizer.Tokenizer
	logger     *zap.Logger
}

// NewIntegratedRouter composes the capability router with the node
// selector.
func NewIntegratedRouter(capability CapabilityRouter, selector *Selector, logger *zap.Logger) *IntegratedRouter {
	return &IntegratedRouter{
		capability: capability,
		selector:   selector,
		logger:     logger.With(zap.String("component", "integrated_router")),
	}
}

// WithTokenizer swaps the coarse character heuristic for an exact token
// counter. Routing decisions only need order-of-magnitude estimates, so
// this is optional.
func (r *IntegratedRouter) WithTokenizer(t tokenizer.Tokenizer) *IntegratedRouter {
	r.counter = t
	return r
}

// Route resolves model to a project and picks the node to run it on.
// An empty or unknown workType is treated as general work.
func (r *IntegratedRouter) Route(ctx context.Context, model string, messages []types.Message, workType types.WorkType) types.RouteResult {
	resolved, err := r.capability.Route(ctx, model, messages)
	if err != nil {
		r.logger.Warn("capability router failed",
			zap.String("model", model),
			zap.Error(err))
		return types.RouteResult{
			Success: false,
			Reason:  fmt.Sprintf("capability router failed for model %q: %v", model, err),
		}
	}
	if !resolved.Success {
		return types.RouteResult{
			Success: false,
			Reason:  fmt.Sprintf("no project can serve model %q", model),
		}
	}
	if len(resolved.Nodes) == 0 {
		return types.RouteResult{
			Success: false,
			Project: resolved.Project,
			Reason:  fmt.Sprintf("no nodes host project %q", resolved.Project),
		}
	}

	// Cost evaluation is meaningless with a single candidate.
	if len(resolved.Nodes) == 1 {
		return types.RouteResult{
			Success:      true,
			SelectedNode: resolved.Nodes[0],
			Project:      resolved.Project,
			CostScore:    1.0,
			Reason:       fmt.Sprintf("%s is the only node hosting %s", resolved.Nodes[0], resolved.Project),
		}
	}

	if !workType.Valid() {
		workType = types.WorkGeneral
	}
	work := types.WorkRequest{
		WorkType:             workType,
		RequiresGPU:          workType.GPUBound(),
		EstimatedInputTokens: r.estimateTokens(messages),
		ModelPreference:      model,
	}

	result := r.selector.RouteToNode(ctx, resolved.Nodes, work, model, 0)
	result.Project = resolved.Project
	return result
}

func (r *IntegratedRouter) estimateTokens(messages []types.Message) int {
	if r.counter != nil {
		if n, err := r.counter.CountMessages(messages); err == nil {
			return n
		}
		// Fall through to the heuristic on counter failure.
	}
	return tokenizer.EstimateMessages(messages)
}
