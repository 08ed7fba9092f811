// Package gossip keeps the mesh-wide view of per-node routing cost.
//
// It has three pieces: the typed NODE_COST_UPDATE wire envelope that
// cost snapshots travel in, the Cache that stores remote snapshots with
// receipt timestamps and staleness thresholds, and the Broadcaster that
// decides when the local node should announce its own state.
//
// The view is advisory and eventually consistent: every node routes on
// its own, possibly stale and possibly incomplete, picture of the mesh.
// Message delivery itself belongs to the Transport implementation.
package gossip
