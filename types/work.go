package types

// WorkType classifies a unit of work so the cost model knows which
// machine-state dimensions apply to it.
type WorkType string

const (
	WorkGeneral   WorkType = "general"
	WorkInference WorkType = "inference"
	WorkEmbedding WorkType = "embedding"
	WorkRAG       WorkType = "rag"
)

// GPUBound reports whether GPU load should penalize this work type.
// Only inference and embedding run on the GPU; general and rag work
// is CPU/memory bound.
func (w WorkType) GPUBound() bool {
	return w == WorkInference || w == WorkEmbedding
}

// Valid reports whether w is one of the known work types.
func (w WorkType) Valid() bool {
	switch w {
	case WorkGeneral, WorkInference, WorkEmbedding, WorkRAG:
		return true
	}
	return false
}

// WorkRequest describes a pending unit of work to be costed.
// Created per routing call; never persisted.
type WorkRequest struct {
	WorkType             WorkType `json:"work_type"`
	EstimatedInputTokens int      `json:"estimated_input_tokens"`
	RequiresGPU          bool     `json:"requires_gpu"`
	ModelPreference      string   `json:"model_preference,omitempty"`
}

// DefaultWorkRequest returns the general-purpose work descriptor used
// when no caller-supplied classification is available (e.g. the
// pre-computed overall cost embedded in gossip messages).
func DefaultWorkRequest() WorkRequest {
	return WorkRequest{WorkType: WorkGeneral}
}
