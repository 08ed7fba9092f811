package routing

import (
	"context"

	"github.com/llama-farm/atmosphere-sub001/types"
)

// SnapshotSource supplies the local node's cost snapshot on demand.
// Implementations live outside this core (they read batteries, load
// averages and network state from the platform) and may block briefly
// on OS calls; the selector collapses concurrent collections and passes
// the caller's context through.
type SnapshotSource interface {
	Collect(ctx context.Context) (types.NodeCostFactors, error)
}

// CapabilityResult is what the external capability/project router
// resolves for a model: the project that can serve it and the mesh
// nodes hosting that project.
type CapabilityResult struct {
	Success bool     `json:"success"`
	Project string   `json:"project,omitempty"`
	Nodes   []string `json:"nodes,omitempty"`
}

// CapabilityRouter resolves which project can serve a model request.
// It is an external collaborator; this core only consumes its answer.
type CapabilityRouter interface {
	Route(ctx context.Context, model string, messages []types.Message) (CapabilityResult, error)
}
