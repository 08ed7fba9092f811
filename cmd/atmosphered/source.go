package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/llama-farm/atmosphere-sub001/types"
)

// fileSource reads the local node's cost factors from a JSON snapshot
// file maintained by an external collector. The daemon itself does not
// probe hardware; it trusts whatever the collector last wrote.
type fileSource struct {
	nodeID string
	path   string
}

func newFileSource(nodeID, path string) *fileSource {
	return &fileSource{nodeID: nodeID, path: path}
}

// Collect parses the snapshot file and stamps it with the local node
// identity and the read time.
func (f *fileSource) Collect(_ context.Context) (types.NodeCostFactors, error) {
	raw, err := os.ReadFile(f.path)
	if err != nil {
		return types.NodeCostFactors{}, fmt.Errorf("read snapshot %s: %w", f.path, err)
	}
	var factors types.NodeCostFactors
	if err := json.Unmarshal(raw, &factors); err != nil {
		return types.NodeCostFactors{}, fmt.Errorf("parse snapshot %s: %w", f.path, err)
	}
	factors.NodeID = f.nodeID
	factors.Timestamp = time.Now()
	return factors.Normalize(), nil
}
